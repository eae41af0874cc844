package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dosada05/ranking-system/models"
)

// LeaderboardSnapshot is the JSON document written for a season's leaderboard.
type LeaderboardSnapshot struct {
	Season      string                    `json:"season"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Rankings    []*models.RankingWithUser `json:"rankings"`
}

// LeaderboardPublisher writes leaderboard snapshots through a FileUploader.
type LeaderboardPublisher struct {
	uploader FileUploader
	now      func() time.Time
}

func NewLeaderboardPublisher(uploader FileUploader) *LeaderboardPublisher {
	return &LeaderboardPublisher{uploader: uploader, now: time.Now}
}

// LeaderboardKey is the object key of a season's latest leaderboard snapshot.
func LeaderboardKey(season string) string {
	return fmt.Sprintf("leaderboards/%s/latest.json", season)
}

// PublishLeaderboard uploads the rows as the season's latest snapshot and returns its public URL.
func (p *LeaderboardPublisher) PublishLeaderboard(ctx context.Context, season string, rows []*models.RankingWithUser) (string, error) {
	if rows == nil {
		rows = []*models.RankingWithUser{}
	}
	body, err := json.Marshal(LeaderboardSnapshot{
		Season:      season,
		GeneratedAt: p.now().UTC(),
		Rankings:    rows,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal leaderboard snapshot: %w", err)
	}

	result, err := p.uploader.Upload(ctx, LeaderboardKey(season), "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	return result.Location, nil
}
