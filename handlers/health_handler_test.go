package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealthzHandler(t *testing.T) {
	ok := NewHealthHandler(pingerFunc(func(context.Context) error { return nil }))
	rec := serve(t, http.HandlerFunc(ok.HealthzHandler), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	down := NewHealthHandler(pingerFunc(func(context.Context) error { return errors.New("connection refused") }))
	rec = serve(t, http.HandlerFunc(down.HealthzHandler), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
