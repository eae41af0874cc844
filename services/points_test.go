package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointsForPosition(t *testing.T) {
	tests := []struct {
		position int
		want     int
	}{
		{1, 10},
		{2, 7},
		{3, 5},
		{4, 3},
		{5, 2},
		{8, 2},
		{9, 1},
		{17, 1},
		{0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PointsForPosition(tt.position), "position %d", tt.position)
	}
}
