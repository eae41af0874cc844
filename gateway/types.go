package gateway

import "time"

// bracketResponse is the body of GET /tournaments/{id}/bracket.
type bracketResponse struct {
	TournamentID string         `json:"tournamentId"`
	Rounds       []bracketRound `json:"rounds"`
}

type bracketRound struct {
	RoundNumber int        `json:"roundNumber"`
	Matches     []matchDTO `json:"matches"`
}

type matchDTO struct {
	ID           string           `json:"id"`
	TournamentID string           `json:"tournamentId"`
	RoundNumber  int              `json:"roundNumber"`
	MatchNumber  *int             `json:"matchNumber,omitempty"`
	Participants []participantDTO `json:"participants"`
	CompletedAt  *time.Time       `json:"completedAt"`
}

type participantDTO struct {
	ParticipantID string  `json:"participantId"`
	DisplayName   string  `json:"displayName"`
	Score         *int    `json:"score"`
	Result        *string `json:"result"`
}
