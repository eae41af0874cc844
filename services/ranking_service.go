package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/ranking-system/brackets"
	"github.com/Dosada05/ranking-system/models"
	"github.com/Dosada05/ranking-system/repositories"
)

const (
	defaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// MatchFetcher loads every match of a tournament from the tournaments service. It returns
// ErrTournamentNotFound when the tournament does not exist upstream.
type MatchFetcher interface {
	FetchMatches(ctx context.Context, tournamentID string) ([]models.Match, error)
}

// LeaderboardNotifier pushes leaderboard updates to live subscribers.
type LeaderboardNotifier interface {
	BroadcastToRoom(roomID string, messageType string, payload interface{})
}

// SnapshotPublisher stores a copy of a season's leaderboard and returns its public location.
type SnapshotPublisher interface {
	PublishLeaderboard(ctx context.Context, season string, rows []*models.RankingWithUser) (string, error)
}

type RankingService interface {
	ComputeStandings(ctx context.Context, tournamentID string) ([]models.Placement, error)
	GetStandings(ctx context.Context, tournamentID string) ([]models.StandingView, error)
	UpdateRankingsForTournament(ctx context.Context, tournamentID string) (*models.LedgerReport, error)
	GetTopRankings(ctx context.Context, season string, limit int) ([]*models.RankingWithUser, error)
	GetPlayerRanking(ctx context.Context, playerID, season string) (*models.RankingRecord, error)
	Season() string
}

type RankingServiceConfig struct {
	Season           string
	LeaderboardLimit int
}

// RankingsUpdatedPayload is broadcast to leaderboard subscribers after a tournament is applied.
type RankingsUpdatedPayload struct {
	TournamentID string                    `json:"tournament_id"`
	Season       string                    `json:"season"`
	Leaderboard  []*models.RankingWithUser `json:"leaderboard"`
	SnapshotURL  string                    `json:"snapshot_url,omitempty"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

type rankingService struct {
	fetcher     MatchFetcher
	ledger      RankingLedger
	rankingRepo repositories.RankingRepository
	userRepo    repositories.UserRepository
	notifier    LeaderboardNotifier
	snapshots   SnapshotPublisher
	cfg         RankingServiceConfig
	logger      *slog.Logger
}

// NewRankingService wires the ranking pipeline. notifier and snapshots are optional.
func NewRankingService(
	fetcher MatchFetcher,
	ledger RankingLedger,
	rankingRepo repositories.RankingRepository,
	userRepo repositories.UserRepository,
	notifier LeaderboardNotifier,
	snapshots SnapshotPublisher,
	cfg RankingServiceConfig,
	logger *slog.Logger,
) RankingService {
	if cfg.LeaderboardLimit <= 0 || cfg.LeaderboardLimit > MaxLeaderboardLimit {
		cfg.LeaderboardLimit = defaultLeaderboardLimit
	}
	return &rankingService{
		fetcher:     fetcher,
		ledger:      ledger,
		rankingRepo: rankingRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		snapshots:   snapshots,
		cfg:         cfg,
		logger:      logger,
	}
}

func (s *rankingService) Season() string {
	return s.cfg.Season
}

func (s *rankingService) ComputeStandings(ctx context.Context, tournamentID string) ([]models.Placement, error) {
	_, placements, err := s.resolveTournament(ctx, tournamentID)
	return placements, err
}

func (s *rankingService) GetStandings(ctx context.Context, tournamentID string) ([]models.StandingView, error) {
	matches, placements, err := s.resolveTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string)
	for _, m := range matches {
		for _, p := range m.Participants {
			if p.DisplayName != "" {
				names[p.ParticipantID] = p.DisplayName
			}
		}
	}

	views := make([]models.StandingView, 0, len(placements))
	for _, p := range placements {
		views = append(views, models.StandingView{
			ParticipantID: p.ParticipantID,
			DisplayName:   names[p.ParticipantID],
			Position:      p.Position,
			Points:        PointsForPosition(p.Position),
		})
	}
	return views, nil
}

func (s *rankingService) UpdateRankingsForTournament(ctx context.Context, tournamentID string) (*models.LedgerReport, error) {
	matches, placements, err := s.resolveTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	report, err := s.ledger.Apply(ctx, tournamentID, placements, s.userRepo)
	if report != nil {
		report.MalformedMatchIDs = brackets.MalformedMatches(matches)
	}
	if err != nil {
		return report, err
	}

	if len(report.Applied) > 0 {
		s.publishLeaderboard(ctx, tournamentID)
	}
	return report, nil
}

// resolveTournament fetches a tournament's matches, checks the bracket shape and derives placements.
func (s *rankingService) resolveTournament(ctx context.Context, tournamentID string) ([]models.Match, []models.Placement, error) {
	if tournamentID == "" {
		return nil, nil, fmt.Errorf("%w: tournament id is required", ErrValidationFailed)
	}

	matches, err := s.fetcher.FetchMatches(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, ErrTournamentNotFound) {
			return nil, nil, fmt.Errorf("%w: tournament %s", ErrNotFound, tournamentID)
		}
		s.logger.ErrorContext(ctx, "Failed to fetch tournament matches", slog.String("tournament_id", tournamentID), slog.Any("error", err))
		return nil, nil, fmt.Errorf("%w: tournament %s: %w", ErrUpstreamFetchFailed, tournamentID, err)
	}

	if malformed := brackets.MalformedMatches(matches); len(malformed) > 0 {
		s.logger.WarnContext(ctx, "Skipping malformed matches",
			slog.String("tournament_id", tournamentID),
			slog.Any("match_ids", malformed),
			slog.String("error", ErrMalformedMatch.Error()),
		)
	}

	if err := brackets.ValidateSingleElimination(matches); err != nil {
		s.logger.WarnContext(ctx, "Tournament bracket rejected", slog.String("tournament_id", tournamentID), slog.Any("error", err))
		return nil, nil, fmt.Errorf("tournament %s: %w", tournamentID, err)
	}

	return matches, brackets.ResolveStandings(matches), nil
}

// publishLeaderboard pushes the refreshed leaderboard to websocket subscribers and the
// snapshot store. Failures are logged only; the ranking update itself has already succeeded.
func (s *rankingService) publishLeaderboard(ctx context.Context, tournamentID string) {
	if s.notifier == nil && s.snapshots == nil {
		return
	}

	rows, err := s.rankingRepo.ListTopBySeason(ctx, s.cfg.Season, s.cfg.LeaderboardLimit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load leaderboard after ranking update", slog.String("tournament_id", tournamentID), slog.Any("error", err))
		return
	}

	payload := RankingsUpdatedPayload{
		TournamentID: tournamentID,
		Season:       s.cfg.Season,
		Leaderboard:  rows,
		UpdatedAt:    time.Now().UTC(),
	}

	if s.snapshots != nil {
		url, err := s.snapshots.PublishLeaderboard(ctx, s.cfg.Season, rows)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish leaderboard snapshot", slog.String("season", s.cfg.Season), slog.Any("error", err))
		} else {
			payload.SnapshotURL = url
		}
	}

	if s.notifier != nil {
		s.notifier.BroadcastToRoom(brackets.LeaderboardRoom(s.cfg.Season), brackets.MessageRankingsUpdated, payload)
	}
}

func (s *rankingService) GetTopRankings(ctx context.Context, season string, limit int) ([]*models.RankingWithUser, error) {
	if season == "" {
		season = s.cfg.Season
	}
	if limit <= 0 {
		limit = s.cfg.LeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	rows, err := s.rankingRepo.ListTopBySeason(ctx, season, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top rankings for season %s: %w", season, err)
	}
	return rows, nil
}

func (s *rankingService) GetPlayerRanking(ctx context.Context, playerID, season string) (*models.RankingRecord, error) {
	if playerID == "" {
		return nil, fmt.Errorf("%w: player id is required", ErrValidationFailed)
	}
	if season == "" {
		season = s.cfg.Season
	}

	record, err := s.rankingRepo.GetByPlayerAndSeason(ctx, nil, playerID, season)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, repositories.ErrRankingNotFound) {
		return nil, fmt.Errorf("failed to get ranking of player %s: %w", playerID, err)
	}

	// Игрок без турниров в сезоне получает нулевую запись.
	if _, err := s.userRepo.GetByID(ctx, playerID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player %s: %w", playerID, err)
	}
	return models.NewRankingRecord(playerID, season), nil
}
