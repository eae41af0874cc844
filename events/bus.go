package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Dosada05/ranking-system/brackets"
	"github.com/Dosada05/ranking-system/metrics"
	"github.com/Dosada05/ranking-system/models"
	"github.com/Dosada05/ranking-system/services"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const (
	TopicTournamentCompleted       = "tournament.completed"
	TopicTournamentCompletedPoison = "tournament.completed.poison"

	metadataTournamentID = "tournament_id"

	defaultMaxRetries      = 3
	defaultInitialInterval = 500 * time.Millisecond
	defaultCloseTimeout    = 10 * time.Second
	outputChannelBuffer    = 128
)

// RankingUpdater runs the ranking pipeline for one completed tournament.
type RankingUpdater interface {
	UpdateRankingsForTournament(ctx context.Context, tournamentID string) (*models.LedgerReport, error)
}

type Config struct {
	MaxRetries      int
	InitialInterval time.Duration
	CloseTimeout    time.Duration
}

// Bus carries tournament events from the webhook to the ranking pipeline in-process.
type Bus struct {
	pubSub   *gochannel.GoChannel
	router   *message.Router
	updater  RankingUpdater
	recorder *metrics.Recorder
	logger   *slog.Logger
	onPoison func(*message.Message)
	started  atomic.Bool
}

func NewBus(updater RankingUpdater, cfg Config, recorder *metrics.Recorder, logger *slog.Logger) (*Bus, error) {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = defaultInitialInterval
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = defaultCloseTimeout
	}

	// Create a Watermill logger that wraps slog
	watermillLogger := watermill.NewSlogLogger(logger)

	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: outputChannelBuffer}, watermillLogger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Watermill router: %w", err)
	}

	poisonQueue, err := middleware.PoisonQueue(pubSub, TopicTournamentCompletedPoison)
	if err != nil {
		return nil, fmt.Errorf("failed to create poison queue middleware: %w", err)
	}

	router.AddMiddleware(
		middleware.CorrelationID,
		poisonQueue,
		middleware.Retry{
			MaxRetries:      cfg.MaxRetries,
			InitialInterval: cfg.InitialInterval,
			Multiplier:      2,
			Logger:          watermillLogger,
		}.Middleware,
		middleware.Recoverer,
	)

	b := &Bus{
		pubSub:   pubSub,
		router:   router,
		updater:  updater,
		recorder: recorder,
		logger:   logger,
	}

	router.AddNoPublisherHandler("ranking.tournament_completed", TopicTournamentCompleted, pubSub, b.handleTournamentCompleted)
	router.AddNoPublisherHandler("ranking.tournament_completed_poison", TopicTournamentCompletedPoison, pubSub, b.handlePoison)

	return b, nil
}

// Run blocks processing events until ctx is cancelled.
func (b *Bus) Run(ctx context.Context) error {
	b.started.Store(true)
	return b.router.Run(ctx)
}

// Running is closed once the router has started its handlers.
func (b *Bus) Running() chan struct{} {
	return b.router.Running()
}

// Close stops the router and the pub/sub. A router that never ran has nothing to drain.
func (b *Bus) Close() error {
	var routerErr error
	if b.started.Load() {
		routerErr = b.router.Close()
	}
	return errors.Join(routerErr, b.pubSub.Close())
}

// PublishTournamentCompleted queues a completed tournament for ranking.
func (b *Bus) PublishTournamentCompleted(ctx context.Context, event models.TournamentCompletedEvent) error {
	if event.TournamentID == "" {
		return fmt.Errorf("%w: tournament id is required", services.ErrValidationFailed)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal tournament completed event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set(metadataTournamentID, event.TournamentID)
	msg.SetContext(context.WithoutCancel(ctx))

	if err := b.pubSub.Publish(TopicTournamentCompleted, msg); err != nil {
		return fmt.Errorf("failed to publish tournament %s: %w", event.TournamentID, err)
	}
	b.logger.InfoContext(ctx, "Tournament completion queued",
		slog.String("tournament_id", event.TournamentID),
		slog.String("message_id", msg.UUID),
	)
	return nil
}

func (b *Bus) handleTournamentCompleted(msg *message.Message) error {
	ctx := msg.Context()

	var event models.TournamentCompletedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		b.logger.ErrorContext(ctx, "Dropping undecodable tournament event", slog.String("message_id", msg.UUID), slog.Any("error", err))
		b.recorder.RecordEvent(TopicTournamentCompleted, err)
		return nil
	}

	log := b.logger.With(slog.String("tournament_id", event.TournamentID), slog.String("message_id", msg.UUID))

	report, err := b.updater.UpdateRankingsForTournament(ctx, event.TournamentID)
	if err != nil {
		if isPermanent(err) {
			log.WarnContext(ctx, "Tournament event rejected", slog.Any("error", err))
			b.recorder.RecordEvent(TopicTournamentCompleted, err)
			return nil
		}
		log.ErrorContext(ctx, "Tournament ranking update failed", slog.Any("error", err))
		return err
	}

	b.recorder.RecordEvent(TopicTournamentCompleted, nil)
	log.InfoContext(ctx, "Tournament rankings updated",
		slog.String("run_id", report.RunID),
		slog.Int("applied", len(report.Applied)),
		slog.Int("skipped", len(report.Skipped)),
	)
	return nil
}

func (b *Bus) handlePoison(msg *message.Message) error {
	b.logger.Error("Tournament event exhausted retries",
		slog.String("tournament_id", msg.Metadata.Get(metadataTournamentID)),
		slog.String("message_id", msg.UUID),
		slog.String("reason", msg.Metadata.Get(middleware.ReasonForPoisonedKey)),
	)
	b.recorder.RecordEvent(TopicTournamentCompletedPoison, errors.New(msg.Metadata.Get(middleware.ReasonForPoisonedKey)))
	if b.onPoison != nil {
		b.onPoison(msg)
	}
	return nil
}

// isPermanent reports errors that a redelivery cannot fix.
func isPermanent(err error) bool {
	return errors.Is(err, brackets.ErrInvalidBracket) ||
		errors.Is(err, services.ErrNotFound) ||
		errors.Is(err, services.ErrValidationFailed)
}
