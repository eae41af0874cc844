package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/ranking-system/models"
)

var (
	ErrRankingNotFound = errors.New("ranking record not found")
	ErrRankingConflict = errors.New("ranking record was modified concurrently")
	ErrAwardExists     = errors.New("ranking award already recorded")
)

const defaultMaxRetries = 3

type RankingRepository interface {
	GetByPlayerAndSeason(ctx context.Context, exec SQLExecutor, playerID, season string) (*models.RankingRecord, error)
	// ApplyAward records the award marker and folds mutate into the (player, season) record
	// within one transaction. It returns ErrAwardExists when the award was already recorded
	// and ErrRankingConflict when every attempt lost the optimistic version race.
	ApplyAward(ctx context.Context, award *models.RankingAward, mutate func(*models.RankingRecord)) (*models.RankingRecord, error)
	ListTopBySeason(ctx context.Context, season string, limit int) ([]*models.RankingWithUser, error)
}

type postgresRankingRepository struct {
	db         *sql.DB
	maxRetries int
}

// NewPostgresRankingRepository returns a repository retrying conflicting ApplyAward
// transactions up to maxRetries times.
func NewPostgresRankingRepository(db *sql.DB, maxRetries int) RankingRepository {
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	return &postgresRankingRepository{db: db, maxRetries: maxRetries}
}

func (r *postgresRankingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRankingRepository) scanRecord(rowScanner interface{ Scan(...interface{}) error }) (*models.RankingRecord, error) {
	var rec models.RankingRecord
	err := rowScanner.Scan(
		&rec.PlayerID, &rec.Season, &rec.Points, &rec.TournamentsWon,
		&rec.TournamentsPlayed, &rec.LastUpdated, &rec.Version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRankingNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *postgresRankingRepository) GetByPlayerAndSeason(ctx context.Context, exec SQLExecutor, playerID, season string) (*models.RankingRecord, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT player_id, season, points, tournaments_won, tournaments_played, updated_at, version
		FROM ranking_records
		WHERE player_id = $1 AND season = $2`
	row := executor.QueryRowContext(ctx, query, playerID, season)
	return r.scanRecord(row)
}

func (r *postgresRankingRepository) ApplyAward(ctx context.Context, award *models.RankingAward, mutate func(*models.RankingRecord)) (*models.RankingRecord, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.applyAwardOnce(ctx, award, mutate)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, ErrRankingConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("player %s season %s after %d attempts: %w", award.PlayerID, award.Season, r.maxRetries+1, lastErr)
}

func (r *postgresRankingRepository) applyAwardOnce(ctx context.Context, award *models.RankingAward, mutate func(*models.RankingRecord)) (record *models.RankingRecord, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			record = nil
			err = mapRankingWriteError(fmt.Errorf("failed to commit ranking update: %w", commitErr))
		}
	}()

	if award.AwardedAt.IsZero() {
		award.AwardedAt = time.Now().UTC()
	}
	result, err := tx.ExecContext(ctx, `
		INSERT INTO ranking_awards
		    (tournament_id, player_id, season, participant_id, position, points, run_id, awarded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (tournament_id, player_id, season) DO NOTHING`,
		award.TournamentID, award.PlayerID, award.Season, award.ParticipantID,
		award.Position, award.Points, award.RunID, award.AwardedAt,
	)
	if err != nil {
		return nil, mapRankingWriteError(fmt.Errorf("failed to insert ranking award: %w", err))
	}
	if err = checkAffectedRows(result, ErrAwardExists); err != nil {
		return nil, err
	}

	record, err = r.GetByPlayerAndSeason(ctx, tx, award.PlayerID, award.Season)
	if err != nil {
		if !errors.Is(err, ErrRankingNotFound) {
			return nil, mapRankingWriteError(fmt.Errorf("failed to load ranking record: %w", err))
		}
		record = models.NewRankingRecord(award.PlayerID, award.Season)
	}

	mutate(record)

	if record.Version == 0 {
		result, err = tx.ExecContext(ctx, `
			INSERT INTO ranking_records
			    (player_id, season, points, tournaments_won, tournaments_played, updated_at, version)
			VALUES ($1, $2, $3, $4, $5, $6, 1)
			ON CONFLICT (player_id, season) DO NOTHING`,
			record.PlayerID, record.Season, record.Points, record.TournamentsWon,
			record.TournamentsPlayed, record.LastUpdated,
		)
	} else {
		result, err = tx.ExecContext(ctx, `
			UPDATE ranking_records SET
				points = $1, tournaments_won = $2, tournaments_played = $3,
				updated_at = $4, version = version + 1
			WHERE player_id = $5 AND season = $6 AND version = $7`,
			record.Points, record.TournamentsWon, record.TournamentsPlayed,
			record.LastUpdated, record.PlayerID, record.Season, record.Version,
		)
	}
	if err != nil {
		return nil, mapRankingWriteError(fmt.Errorf("failed to save ranking record: %w", err))
	}
	// Ноль строк: запись изменил (или создал) другой процесс.
	if err = checkAffectedRows(result, ErrRankingConflict); err != nil {
		return nil, err
	}
	record.Version++
	return record, nil
}

func mapRankingWriteError(err error) error {
	if isTransientConflict(err) || isUniqueViolation(err, "ranking_records_pkey") {
		return fmt.Errorf("%w: %v", ErrRankingConflict, err)
	}
	return err
}

func (r *postgresRankingRepository) ListTopBySeason(ctx context.Context, season string, limit int) ([]*models.RankingWithUser, error) {
	query := `
		SELECT rr.player_id, u.username, rr.season, rr.points, rr.tournaments_won,
		       rr.tournaments_played, rr.updated_at
		FROM ranking_records rr
		LEFT JOIN users u ON u.id = rr.player_id
		WHERE rr.season = $1
		ORDER BY rr.points DESC,
		         (rr.tournaments_won::float / NULLIF(rr.tournaments_played, 0)) DESC NULLS LAST,
		         rr.player_id ASC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, season, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list rankings for season %s: %w", season, err)
	}
	defer rows.Close()

	rankings := make([]*models.RankingWithUser, 0, limit)
	for rows.Next() {
		var row models.RankingWithUser
		var username sql.NullString
		if err := rows.Scan(
			&row.PlayerID, &username, &row.Season, &row.Points, &row.TournamentsWon,
			&row.TournamentsPlayed, &row.LastUpdated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ranking row: %w", err)
		}
		if username.Valid {
			row.Username = &username.String
		}
		if row.TournamentsPlayed > 0 {
			row.WinRate = float64(row.TournamentsWon) / float64(row.TournamentsPlayed)
		}
		row.Rank = len(rankings) + 1
		rankings = append(rankings, &row)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return rankings, nil
}
