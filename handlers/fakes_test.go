package handlers

import (
	"context"
	"io"
	"log/slog"

	"github.com/Dosada05/ranking-system/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRankingService struct {
	StandingsFunc func(ctx context.Context, tournamentID string) ([]models.StandingView, error)
	UpdateFunc    func(ctx context.Context, tournamentID string) (*models.LedgerReport, error)
	TopFunc       func(ctx context.Context, season string, limit int) ([]*models.RankingWithUser, error)
	PlayerFunc    func(ctx context.Context, playerID, season string) (*models.RankingRecord, error)
}

func (f *fakeRankingService) ComputeStandings(ctx context.Context, tournamentID string) ([]models.Placement, error) {
	views, err := f.GetStandings(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	placements := make([]models.Placement, 0, len(views))
	for _, v := range views {
		placements = append(placements, models.Placement{ParticipantID: v.ParticipantID, Position: v.Position})
	}
	return placements, nil
}

func (f *fakeRankingService) GetStandings(ctx context.Context, tournamentID string) ([]models.StandingView, error) {
	return f.StandingsFunc(ctx, tournamentID)
}

func (f *fakeRankingService) UpdateRankingsForTournament(ctx context.Context, tournamentID string) (*models.LedgerReport, error) {
	return f.UpdateFunc(ctx, tournamentID)
}

func (f *fakeRankingService) GetTopRankings(ctx context.Context, season string, limit int) ([]*models.RankingWithUser, error) {
	return f.TopFunc(ctx, season, limit)
}

func (f *fakeRankingService) GetPlayerRanking(ctx context.Context, playerID, season string) (*models.RankingRecord, error) {
	return f.PlayerFunc(ctx, playerID, season)
}

func (f *fakeRankingService) Season() string { return "3" }

type fakePlayerService struct {
	LinkFunc func(ctx context.Context, playerID, participantID string) (*models.User, error)
}

func (f *fakePlayerService) LinkParticipant(ctx context.Context, playerID, participantID string) (*models.User, error) {
	return f.LinkFunc(ctx, playerID, participantID)
}

type fakePublisher struct {
	events []models.TournamentCompletedEvent
	err    error
}

func (p *fakePublisher) PublishTournamentCompleted(_ context.Context, event models.TournamentCompletedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}
