package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Dosada05/ranking-system/models"
	"github.com/Dosada05/ranking-system/services"
)

const (
	defaultRetryAttempts = 3
	defaultBackoff       = 200 * time.Millisecond
)

type backoffFunc func(attempt int) time.Duration

// retryingFetcher wraps a MatchFetcher with retry/backoff behavior.
type retryingFetcher struct {
	inner       services.MatchFetcher
	logger      *slog.Logger
	maxAttempts int
	backoffFn   backoffFunc
}

// NewRetryingFetcher wraps the given fetcher with retries. If maxAttempts/backoff are <= 0, defaults are used.
// Unknown tournaments and 4xx answers other than 429 are not retried.
func NewRetryingFetcher(inner services.MatchFetcher, logger *slog.Logger, maxAttempts int, backoff time.Duration) services.MatchFetcher {
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryAttempts
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return &retryingFetcher{
		inner:       inner,
		logger:      logger,
		maxAttempts: maxAttempts,
		backoffFn: func(attempt int) time.Duration {
			return time.Duration(attempt) * backoff
		},
	}
}

func (r *retryingFetcher) FetchMatches(ctx context.Context, tournamentID string) ([]models.Match, error) {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		matches, err := r.inner.FetchMatches(ctx, tournamentID)
		if err == nil {
			return matches, nil
		}
		lastErr = err

		if attempt == r.maxAttempts || !retryable(err) {
			break
		}

		r.logger.WarnContext(ctx, "tournaments fetch retry",
			slog.String("tournament_id", tournamentID),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", r.maxAttempts),
			slog.Any("error", err),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.backoffFn(attempt)):
		}
	}

	return nil, lastErr
}

func retryable(err error) bool {
	if errors.Is(err, services.ErrTournamentNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return true
}
