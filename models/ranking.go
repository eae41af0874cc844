package models

import "time"

// RankingRecord is the cross-tournament ledger row of one player for one season.
// Version is the optimistic concurrency token; zero means the row has not been stored yet.
type RankingRecord struct {
	PlayerID          string    `json:"player_id" db:"player_id"`
	Season            string    `json:"season" db:"season"`
	Points            int       `json:"points" db:"points"`
	TournamentsWon    int       `json:"tournaments_won" db:"tournaments_won"`
	TournamentsPlayed int       `json:"tournaments_played" db:"tournaments_played"`
	LastUpdated       time.Time `json:"last_updated" db:"updated_at"`
	Version           int64     `json:"-" db:"version"`
}

// NewRankingRecord returns the zero-state record created on a player's first placement in a season.
func NewRankingRecord(playerID, season string) *RankingRecord {
	return &RankingRecord{
		PlayerID: playerID,
		Season:   season,
	}
}

// ApplyPlacement folds one tournament result into the record.
func (r *RankingRecord) ApplyPlacement(position, points int, now time.Time) {
	r.Points += points
	r.TournamentsPlayed++
	if position == 1 {
		r.TournamentsWon++
	}
	r.LastUpdated = now
}

// WinRate is tournaments won over tournaments played, 0 for a record with no tournaments.
func (r *RankingRecord) WinRate() float64 {
	if r.TournamentsPlayed == 0 {
		return 0
	}
	return float64(r.TournamentsWon) / float64(r.TournamentsPlayed)
}

// RankingAward marks that a player's placement in a tournament has already been counted.
// There is at most one award per (tournament, player, season).
type RankingAward struct {
	TournamentID  string    `json:"tournament_id" db:"tournament_id"`
	PlayerID      string    `json:"player_id" db:"player_id"`
	Season        string    `json:"season" db:"season"`
	ParticipantID string    `json:"participant_id" db:"participant_id"`
	Position      int       `json:"position" db:"position"`
	Points        int       `json:"points" db:"points"`
	RunID         string    `json:"run_id" db:"run_id"`
	AwardedAt     time.Time `json:"awarded_at" db:"awarded_at"`
}

// RankingWithUser is a leaderboard row.
type RankingWithUser struct {
	Rank              int       `json:"rank"`
	PlayerID          string    `json:"player_id"`
	Username          *string   `json:"username,omitempty"`
	Season            string    `json:"season"`
	Points            int       `json:"points"`
	TournamentsWon    int       `json:"tournaments_won"`
	TournamentsPlayed int       `json:"tournaments_played"`
	WinRate           float64   `json:"win_rate"`
	LastUpdated       time.Time `json:"last_updated"`
}
