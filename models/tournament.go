package models

import "time"

// TournamentCompletedEvent is the payload of the tournament-completion webhook.
// WinnerID is the winning participant id as reported by the tournaments service; it is
// informational only, standings are always recomputed from the matches.
type TournamentCompletedEvent struct {
	TournamentID string    `json:"tournamentId"`
	WinnerID     string    `json:"winnerId"`
	CompletedAt  time.Time `json:"completedAt"`
}
