package models

// Причины, по которым размещение не попало в рейтинг.
const (
	SkipReasonUnresolved     = "unresolved_participant"
	SkipReasonAlreadyApplied = "already_applied"
	SkipReasonConflict       = "persistence_conflict"
	SkipReasonPersistence    = "persistence_error"
	SkipReasonCancelled      = "cancelled"
)

// AppliedPlacement describes one ranking update made for a tournament.
type AppliedPlacement struct {
	ParticipantID string         `json:"participant_id"`
	PlayerID      string         `json:"player_id"`
	Position      int            `json:"position"`
	Points        int            `json:"points"`
	Record        *RankingRecord `json:"record"`
}

// SkippedPlacement is a placement that produced no ranking mutation.
type SkippedPlacement struct {
	ParticipantID string `json:"participant_id"`
	PlayerID      string `json:"player_id,omitempty"`
	Position      int    `json:"position"`
	Reason        string `json:"reason"`
	Error         string `json:"error,omitempty"`
}

// LedgerReport is the outcome of applying one tournament's placements.
type LedgerReport struct {
	TournamentID      string             `json:"tournament_id"`
	Season            string             `json:"season"`
	RunID             string             `json:"run_id"`
	Applied           []AppliedPlacement `json:"applied"`
	Skipped           []SkippedPlacement `json:"skipped"`
	MalformedMatchIDs []string           `json:"malformed_match_ids,omitempty"`
}

// SkippedFor returns the skipped placements with the given reason.
func (r *LedgerReport) SkippedFor(reason string) []SkippedPlacement {
	var out []SkippedPlacement
	for _, s := range r.Skipped {
		if s.Reason == reason {
			out = append(out, s)
		}
	}
	return out
}
