package brackets

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/ranking-system/models"
)

var completed = time.Date(2025, 11, 24, 10, 0, 0, 0, time.UTC)

func decidedMatch(id string, round int, winner, loser string) models.Match {
	at := completed
	return models.Match{
		ID:          id,
		RoundNumber: round,
		CompletedAt: &at,
		Participants: []models.MatchParticipant{
			{ParticipantID: winner, Result: models.ResultWin},
			{ParticipantID: loser, Result: models.ResultLoss},
		},
	}
}

// fullBracket builds a fully decided bracket of 2^rounds participants P1..Pn where the
// lower-numbered participant always wins.
func fullBracket(rounds int) []models.Match {
	n := 1 << uint(rounds)
	alive := make([]string, n)
	for i := range alive {
		alive[i] = fmt.Sprintf("P%d", i+1)
	}

	var matches []models.Match
	for round := 1; round <= rounds; round++ {
		next := make([]string, 0, len(alive)/2)
		for i := 0; i < len(alive); i += 2 {
			id := fmt.Sprintf("R%dM%d", round, i/2+1)
			matches = append(matches, decidedMatch(id, round, alive[i], alive[i+1]))
			next = append(next, alive[i])
		}
		alive = next
	}
	return matches
}

func TestResolveStandings_FourPlayerBracket(t *testing.T) {
	matches := []models.Match{
		decidedMatch("A", 1, "P1", "P2"),
		decidedMatch("B", 1, "P3", "P4"),
		decidedMatch("C", 2, "P1", "P3"),
	}

	got := ResolveStandings(matches)

	want := []models.Placement{
		{ParticipantID: "P1", Position: 1},
		{ParticipantID: "P3", Position: 2},
		{ParticipantID: "P2", Position: 3},
		{ParticipantID: "P4", Position: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResolveStandings() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveStandings_PowerOfTwoBrackets(t *testing.T) {
	for rounds := 1; rounds <= 6; rounds++ {
		t.Run(fmt.Sprintf("%d rounds", rounds), func(t *testing.T) {
			n := 1 << uint(rounds)
			placements := ResolveStandings(fullBracket(rounds))
			require.Len(t, placements, n)

			counts := make(map[int]int)
			for _, p := range placements {
				counts[p.Position]++
			}
			assert.Equal(t, 1, counts[1])
			assert.Equal(t, 1, counts[2])
			// Round (rounds-m) has 2^m matches; its 2^m losers share position 2^m+1.
			for m := 1; m < rounds; m++ {
				assert.Equal(t, 1<<uint(m), counts[1<<uint(m)+1], "position %d", 1<<uint(m)+1)
			}
		})
	}
}

func TestResolveStandings_EmptyAndUndecided(t *testing.T) {
	assert.Empty(t, ResolveStandings(nil))
	assert.NotNil(t, ResolveStandings(nil))

	undecided := fullBracket(2)
	for i := range undecided {
		undecided[i].CompletedAt = nil
	}
	assert.Empty(t, ResolveStandings(undecided))
}

func TestResolveStandings_IgnoresUndecidedFinal(t *testing.T) {
	matches := fullBracket(2)
	matches[2].CompletedAt = nil // the final

	got := ResolveStandings(matches)

	// Round 1 becomes the latest decided round and is treated as the final.
	want := []models.Placement{
		{ParticipantID: "P1", Position: 1},
		{ParticipantID: "P3", Position: 1},
		{ParticipantID: "P2", Position: 2},
		{ParticipantID: "P4", Position: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResolveStandings() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveStandings_SkipsMalformedMatches(t *testing.T) {
	draw := decidedMatch("B", 1, "P3", "P4")
	draw.Participants[0].Result = models.ResultDraw
	draw.Participants[1].Result = models.ResultDraw

	oneSided := decidedMatch("X", 1, "P5", "P6")
	oneSided.Participants = oneSided.Participants[:1]

	matches := []models.Match{
		decidedMatch("A", 1, "P1", "P2"),
		draw,
		oneSided,
		decidedMatch("C", 2, "P1", "P3"),
	}

	got := ResolveStandings(matches)

	want := []models.Placement{
		{ParticipantID: "P1", Position: 1},
		{ParticipantID: "P3", Position: 2},
		{ParticipantID: "P2", Position: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResolveStandings() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"B", "X"}, MalformedMatches(matches))
}

func TestResolveStandings_KeepsFirstPlacement(t *testing.T) {
	matches := []models.Match{
		decidedMatch("A", 1, "P1", "P2"),
		decidedMatch("B", 1, "P3", "P2"), // P2 recorded losing twice
		decidedMatch("C", 2, "P1", "P3"),
		decidedMatch("D", 1, "P4", "P3"), // P3 already placed by the final
	}

	got := ResolveStandings(matches)

	want := []models.Placement{
		{ParticipantID: "P1", Position: 1},
		{ParticipantID: "P3", Position: 2},
		{ParticipantID: "P2", Position: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResolveStandings() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveStandings_WinnerOrderInsideMatch(t *testing.T) {
	final := decidedMatch("F", 1, "P1", "P2")
	final.Participants[0], final.Participants[1] = final.Participants[1], final.Participants[0]

	got := ResolveStandings([]models.Match{final})

	want := []models.Placement{
		{ParticipantID: "P1", Position: 1},
		{ParticipantID: "P2", Position: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResolveStandings() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoserPosition(t *testing.T) {
	tests := []struct {
		maxRound, round, want int
	}{
		{maxRound: 3, round: 3, want: 2},
		{maxRound: 3, round: 2, want: 3},
		{maxRound: 3, round: 1, want: 5},
		{maxRound: 4, round: 1, want: 9},
		{maxRound: 5, round: 1, want: 17},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LoserPosition(tt.maxRound, tt.round), "maxRound=%d round=%d", tt.maxRound, tt.round)
	}
}
