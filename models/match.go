package models

import "time"

// MatchResult is the outcome recorded for one side of a bracket match.
type MatchResult string

const (
	ResultWin       MatchResult = "win"
	ResultLoss      MatchResult = "loss"
	ResultDraw      MatchResult = "draw"
	ResultUndecided MatchResult = "undecided"
)

// MatchParticipant is one side of a match. ParticipantID is scoped to the tournament
// and is resolved to a player identity separately.
type MatchParticipant struct {
	ParticipantID string      `json:"participant_id"`
	DisplayName   string      `json:"display_name,omitempty"`
	Score         *int        `json:"score,omitempty"`
	Result        MatchResult `json:"result"`
}

// Match is one bracket match as reported by the tournaments service.
type Match struct {
	ID           string             `json:"id"`
	TournamentID string             `json:"tournament_id"`
	RoundNumber  int                `json:"round_number"`
	CompletedAt  *time.Time         `json:"completed_at,omitempty"`
	Participants []MatchParticipant `json:"participants"`
}

// IsDecided reports whether the match has been completed. Undecided matches never
// contribute to standings.
func (m Match) IsDecided() bool {
	return m.CompletedAt != nil && !m.CompletedAt.IsZero()
}

// Outcome returns the winner and loser of a decided two-sided match.
// ok is false when the match does not have exactly one win and one loss.
func (m Match) Outcome() (winner, loser MatchParticipant, ok bool) {
	if len(m.Participants) != 2 {
		return MatchParticipant{}, MatchParticipant{}, false
	}
	a, b := m.Participants[0], m.Participants[1]
	switch {
	case a.Result == ResultWin && b.Result == ResultLoss:
		return a, b, true
	case a.Result == ResultLoss && b.Result == ResultWin:
		return b, a, true
	default:
		return MatchParticipant{}, MatchParticipant{}, false
	}
}
