package models

// Placement is a participant's final rank within one tournament. Ties share a Position.
type Placement struct {
	ParticipantID string `json:"participant_id"`
	Position      int    `json:"position"`
}

// StandingView is a placement enriched with the points it is worth, used by the standings endpoint.
type StandingView struct {
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name,omitempty"`
	Position      int    `json:"position"`
	Points        int    `json:"points"`
}
