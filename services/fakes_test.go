package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/Dosada05/ranking-system/models"
	"github.com/Dosada05/ranking-system/repositories"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memoryRankingRepo is an in-memory RankingRepository with the same dedup semantics as
// the postgres one. ApplyAwardFunc, when set, replaces ApplyAward.
type memoryRankingRepo struct {
	mu             sync.Mutex
	records        map[string]*models.RankingRecord
	awards         map[string]models.RankingAward
	ApplyAwardFunc func(ctx context.Context, award *models.RankingAward, mutate func(*models.RankingRecord)) (*models.RankingRecord, error)
	ListTopFunc    func(ctx context.Context, season string, limit int) ([]*models.RankingWithUser, error)
}

func newMemoryRankingRepo() *memoryRankingRepo {
	return &memoryRankingRepo{
		records: make(map[string]*models.RankingRecord),
		awards:  make(map[string]models.RankingAward),
	}
}

func recordKey(playerID, season string) string { return playerID + "|" + season }

func (r *memoryRankingRepo) GetByPlayerAndSeason(_ context.Context, _ repositories.SQLExecutor, playerID, season string) (*models.RankingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[recordKey(playerID, season)]
	if !ok {
		return nil, repositories.ErrRankingNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *memoryRankingRepo) ApplyAward(ctx context.Context, award *models.RankingAward, mutate func(*models.RankingRecord)) (*models.RankingRecord, error) {
	if r.ApplyAwardFunc != nil {
		return r.ApplyAwardFunc(ctx, award, mutate)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	awardKey := award.TournamentID + "|" + recordKey(award.PlayerID, award.Season)
	if _, ok := r.awards[awardKey]; ok {
		return nil, repositories.ErrAwardExists
	}
	r.awards[awardKey] = *award

	key := recordKey(award.PlayerID, award.Season)
	rec, ok := r.records[key]
	if !ok {
		rec = models.NewRankingRecord(award.PlayerID, award.Season)
		r.records[key] = rec
	}
	mutate(rec)
	rec.Version++
	cp := *rec
	return &cp, nil
}

func (r *memoryRankingRepo) ListTopBySeason(ctx context.Context, season string, limit int) ([]*models.RankingWithUser, error) {
	if r.ListTopFunc != nil {
		return r.ListTopFunc(ctx, season, limit)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var rows []*models.RankingWithUser
	for _, rec := range r.records {
		if rec.Season != season {
			continue
		}
		rows = append(rows, &models.RankingWithUser{
			PlayerID:          rec.PlayerID,
			Season:            rec.Season,
			Points:            rec.Points,
			TournamentsWon:    rec.TournamentsWon,
			TournamentsPlayed: rec.TournamentsPlayed,
			WinRate:           rec.WinRate(),
			LastUpdated:       rec.LastUpdated,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		if rows[i].WinRate != rows[j].WinRate {
			return rows[i].WinRate > rows[j].WinRate
		}
		return rows[i].PlayerID < rows[j].PlayerID
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

func (r *memoryRankingRepo) record(playerID, season string) models.RankingRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[recordKey(playerID, season)]; ok {
		return *rec
	}
	return models.RankingRecord{}
}

type fakeUserRepo struct {
	players       map[string]string // participant id -> player id
	users         map[string]*models.User
	ResolveFunc   func(ctx context.Context, participantID string) (string, error)
	LinkFunc      func(ctx context.Context, userID, participantID string) error
	resolveCalls  int
	resolveCallMu sync.Mutex
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) ResolvePlayer(ctx context.Context, participantID string) (string, error) {
	f.resolveCallMu.Lock()
	f.resolveCalls++
	f.resolveCallMu.Unlock()
	if f.ResolveFunc != nil {
		return f.ResolveFunc(ctx, participantID)
	}
	if playerID, ok := f.players[participantID]; ok {
		return playerID, nil
	}
	return "", repositories.ErrParticipantNotLinked
}

func (f *fakeUserRepo) LinkParticipant(ctx context.Context, userID, participantID string) error {
	if f.LinkFunc != nil {
		return f.LinkFunc(ctx, userID, participantID)
	}
	return nil
}

type fakeFetcher struct {
	matches []models.Match
	err     error
	calls   int
}

func (f *fakeFetcher) FetchMatches(context.Context, string) ([]models.Match, error) {
	f.calls++
	return f.matches, f.err
}

type broadcast struct {
	room        string
	messageType string
	payload     interface{}
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []broadcast
}

func (n *fakeNotifier) BroadcastToRoom(roomID string, messageType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, broadcast{room: roomID, messageType: messageType, payload: payload})
}

type fakeSnapshots struct {
	season string
	rows   []*models.RankingWithUser
	err    error
}

func (s *fakeSnapshots) PublishLeaderboard(_ context.Context, season string, rows []*models.RankingWithUser) (string, error) {
	s.season = season
	s.rows = rows
	if s.err != nil {
		return "", s.err
	}
	return "https://cdn.example.com/leaderboards/" + season + "/latest.json", nil
}
