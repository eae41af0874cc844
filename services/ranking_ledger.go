package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/ranking-system/metrics"
	"github.com/Dosada05/ranking-system/models"
	"github.com/Dosada05/ranking-system/repositories"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultLedgerWorkers = 4
	outcomeApplied       = "applied"
)

// PlayerResolver maps a tournaments-service participant to a player id.
type PlayerResolver interface {
	ResolvePlayer(ctx context.Context, participantID string) (string, error)
}

// RankingLedger folds tournament placements into per-(player, season) ranking records.
type RankingLedger interface {
	// Apply awards points for every placement independently. A failure for one placement is
	// recorded in the report and never undoes another placement. The error is non-nil only
	// when ctx ends before all placements were processed; placements not yet started are
	// then reported as skipped with SkipReasonCancelled.
	Apply(ctx context.Context, tournamentID string, placements []models.Placement, resolver PlayerResolver) (*models.LedgerReport, error)
}

type LedgerConfig struct {
	Season  string
	Workers int
}

type rankingLedger struct {
	rankingRepo repositories.RankingRepository
	season      string
	workers     int
	locks       *keyedMutex
	metrics     *metrics.Recorder
	logger      *slog.Logger
	now         func() time.Time
}

func NewRankingLedger(
	rankingRepo repositories.RankingRepository,
	cfg LedgerConfig,
	recorder *metrics.Recorder,
	logger *slog.Logger,
) RankingLedger {
	return newRankingLedger(rankingRepo, cfg, recorder, logger)
}

func newRankingLedger(rankingRepo repositories.RankingRepository, cfg LedgerConfig, recorder *metrics.Recorder, logger *slog.Logger) *rankingLedger {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultLedgerWorkers
	}
	return &rankingLedger{
		rankingRepo: rankingRepo,
		season:      cfg.Season,
		workers:     workers,
		locks:       newKeyedMutex(),
		metrics:     recorder,
		logger:      logger,
		now:         time.Now,
	}
}

func (l *rankingLedger) Apply(ctx context.Context, tournamentID string, placements []models.Placement, resolver PlayerResolver) (*models.LedgerReport, error) {
	start := time.Now()
	report := &models.LedgerReport{
		TournamentID: tournamentID,
		Season:       l.season,
		RunID:        uuid.NewString(),
		Applied:      []models.AppliedPlacement{},
		Skipped:      []models.SkippedPlacement{},
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(l.workers)

	for i, placement := range placements {
		if err := ctx.Err(); err != nil {
			mu.Lock()
			for _, rest := range placements[i:] {
				report.Skipped = append(report.Skipped, *l.skip(rest, "", models.SkipReasonCancelled,
					fmt.Errorf("tournament %s participant %s: %w", tournamentID, rest.ParticipantID, err)))
			}
			mu.Unlock()
			break
		}
		g.Go(func() error {
			applied, skipped := l.applyOne(ctx, report.RunID, tournamentID, placement, resolver)
			mu.Lock()
			defer mu.Unlock()
			if applied != nil {
				report.Applied = append(report.Applied, *applied)
			} else {
				report.Skipped = append(report.Skipped, *skipped)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(report.Applied, func(i, j int) bool {
		return placementLess(report.Applied[i].Position, report.Applied[i].ParticipantID, report.Applied[j].Position, report.Applied[j].ParticipantID)
	})
	sort.Slice(report.Skipped, func(i, j int) bool {
		return placementLess(report.Skipped[i].Position, report.Skipped[i].ParticipantID, report.Skipped[j].Position, report.Skipped[j].ParticipantID)
	})

	l.metrics.RecordLedgerRun(time.Since(start))
	l.logger.InfoContext(ctx, "Ranking ledger applied tournament placements",
		slog.String("tournament_id", tournamentID),
		slog.String("season", l.season),
		slog.String("run_id", report.RunID),
		slog.Int("placements", len(placements)),
		slog.Int("applied", len(report.Applied)),
		slog.Int("skipped", len(report.Skipped)),
	)

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("ranking ledger interrupted for tournament %s: %w", tournamentID, err)
	}
	return report, nil
}

func (l *rankingLedger) applyOne(ctx context.Context, runID, tournamentID string, placement models.Placement, resolver PlayerResolver) (*models.AppliedPlacement, *models.SkippedPlacement) {
	log := l.logger.With(
		slog.String("tournament_id", tournamentID),
		slog.String("participant_id", placement.ParticipantID),
		slog.Int("position", placement.Position),
	)

	playerID, err := resolver.ResolvePlayer(ctx, placement.ParticipantID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotLinked) || errors.Is(err, ErrUnresolvedParticipant) {
			log.WarnContext(ctx, "Skipping placement of unlinked participant")
			return nil, l.skip(placement, "", models.SkipReasonUnresolved,
				fmt.Errorf("tournament %s participant %s: %w", tournamentID, placement.ParticipantID, ErrUnresolvedParticipant))
		}
		log.ErrorContext(ctx, "Failed to resolve participant", slog.Any("error", err))
		return nil, l.skip(placement, "", models.SkipReasonPersistence,
			fmt.Errorf("tournament %s participant %s: failed to resolve player: %w", tournamentID, placement.ParticipantID, err))
	}
	log = log.With(slog.String("player_id", playerID))

	points := PointsForPosition(placement.Position)
	award := &models.RankingAward{
		TournamentID:  tournamentID,
		PlayerID:      playerID,
		Season:        l.season,
		ParticipantID: placement.ParticipantID,
		Position:      placement.Position,
		Points:        points,
		RunID:         runID,
	}

	unlock := l.locks.Lock(playerID + "|" + l.season)
	defer unlock()

	now := l.now().UTC()
	award.AwardedAt = now
	record, err := l.rankingRepo.ApplyAward(ctx, award, func(rec *models.RankingRecord) {
		rec.ApplyPlacement(placement.Position, points, now)
	})
	switch {
	case err == nil:
		l.metrics.RecordPlacement(outcomeApplied)
		log.DebugContext(ctx, "Ranking updated", slog.Int("points", points), slog.Int("total_points", record.Points))
		return &models.AppliedPlacement{
			ParticipantID: placement.ParticipantID,
			PlayerID:      playerID,
			Position:      placement.Position,
			Points:        points,
			Record:        record,
		}, nil
	case errors.Is(err, repositories.ErrAwardExists):
		log.InfoContext(ctx, "Placement already counted, skipping")
		return nil, l.skip(placement, playerID, models.SkipReasonAlreadyApplied,
			fmt.Errorf("tournament %s player %s: %w", tournamentID, playerID, ErrAwardAlreadyApplied))
	case errors.Is(err, repositories.ErrRankingConflict):
		log.ErrorContext(ctx, "Ranking update kept conflicting", slog.Any("error", err))
		return nil, l.skip(placement, playerID, models.SkipReasonConflict,
			fmt.Errorf("tournament %s player %s: %w: %v", tournamentID, playerID, ErrPersistenceConflict, err))
	default:
		log.ErrorContext(ctx, "Failed to update ranking", slog.Any("error", err))
		return nil, l.skip(placement, playerID, models.SkipReasonPersistence,
			fmt.Errorf("tournament %s player %s: %w", tournamentID, playerID, err))
	}
}

func (l *rankingLedger) skip(placement models.Placement, playerID, reason string, err error) *models.SkippedPlacement {
	l.metrics.RecordPlacement(reason)
	return &models.SkippedPlacement{
		ParticipantID: placement.ParticipantID,
		PlayerID:      playerID,
		Position:      placement.Position,
		Reason:        reason,
		Error:         err.Error(),
	}
}

func placementLess(posA int, idA string, posB int, idB string) bool {
	if posA != posB {
		return posA < posB
	}
	return idA < idB
}
