package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Dosada05/ranking-system/config"
	"github.com/Dosada05/ranking-system/db"
	"github.com/Dosada05/ranking-system/gateway"
	"github.com/Dosada05/ranking-system/metrics"
	"github.com/Dosada05/ranking-system/repositories"
	"github.com/Dosada05/ranking-system/services"
	"github.com/Dosada05/ranking-system/storage"
)

// app holds the dependencies shared by every command.
type app struct {
	cfg            *config.Config
	logger         *slog.Logger
	dbConn         *sql.DB
	recorder       *metrics.Recorder
	fetcher        services.MatchFetcher
	snapshots      services.SnapshotPublisher
	rankingRepo    repositories.RankingRepository
	userRepo       repositories.UserRepository
	ledger         services.RankingLedger
	rankingService services.RankingService
	playerService  services.PlayerService
}

// newApp loads configuration and opens the database. Services are built by initServices.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("database connection established")

	recorder := metrics.NewRecorder()

	var fetcher services.MatchFetcher = gateway.NewClient(gateway.Config{
		BaseURL:           cfg.TournamentsAPIURL,
		APIKey:            cfg.TournamentsAPIKey,
		RequestsPerSecond: cfg.TournamentsAPIRPS,
		Recorder:          recorder,
	})
	fetcher = gateway.NewRetryingFetcher(fetcher, logger, cfg.FetchAttempts, cfg.FetchBackoff)

	// Снимки таблицы лидеров публикуются только при полной конфигурации R2.
	var snapshots services.SnapshotPublisher
	r2Config := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2Config.Configured() {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, r2Config)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err), dbConn.Close())
		}
		snapshots = storage.NewLeaderboardPublisher(uploader)
		logger.Info("Cloudflare R2 leaderboard snapshots enabled", slog.String("bucket", cfg.R2BucketName))
	} else {
		logger.Info("Cloudflare R2 not configured, leaderboard snapshots disabled")
	}

	return &app{
		cfg:         cfg,
		logger:      logger,
		dbConn:      dbConn,
		recorder:    recorder,
		fetcher:     fetcher,
		snapshots:   snapshots,
		rankingRepo: repositories.NewPostgresRankingRepository(dbConn, cfg.RankingMaxRetries),
		userRepo:    repositories.NewPostgresUserRepository(dbConn),
	}, nil
}

// initServices builds the ranking pipeline. notifier is nil for one-shot CLI commands.
func (a *app) initServices(notifier services.LeaderboardNotifier) {
	a.ledger = services.NewRankingLedger(a.rankingRepo, services.LedgerConfig{
		Season:  a.cfg.RankingSeason,
		Workers: a.cfg.RankingWorkers,
	}, a.recorder, a.logger)

	a.rankingService = services.NewRankingService(
		a.fetcher,
		a.ledger,
		a.rankingRepo,
		a.userRepo,
		notifier,
		a.snapshots,
		services.RankingServiceConfig{Season: a.cfg.RankingSeason, LeaderboardLimit: a.cfg.LeaderboardLimit},
		a.logger,
	)
	a.playerService = services.NewPlayerService(a.userRepo, a.logger)
}

func (a *app) migrate(ctx context.Context) error {
	return db.Migrate(ctx, a.dbConn, a.logger)
}

func (a *app) Close() {
	if err := a.dbConn.Close(); err != nil {
		a.logger.Error("failed to close database connection", slog.Any("error", err))
		return
	}
	a.logger.Info("database connection closed")
}
