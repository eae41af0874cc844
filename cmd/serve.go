package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Dosada05/ranking-system/brackets"
	"github.com/Dosada05/ranking-system/events"
	"github.com/Dosada05/ranking-system/handlers"
	"github.com/Dosada05/ranking-system/middleware"
	"github.com/Dosada05/ranking-system/routes"
	"github.com/go-chi/chi/v5"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func serveCommand(c *cli.Context) error {
	a, err := newApp(c.Context)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	if c.Bool("migrate") {
		if err := a.migrate(c.Context); err != nil {
			return err
		}
	}

	// WebSocket Hub для живой таблицы лидеров
	wsHub := brackets.NewHub(logger)
	a.initServices(wsHub)

	bus, err := events.NewBus(a.rankingService, events.Config{MaxRetries: a.cfg.EventMaxRetries}, a.recorder, logger)
	if err != nil {
		return err
	}

	authenticator := middleware.NewAuthenticator(a.cfg.JWTSecretKey, logger)
	rankingHandler := handlers.NewRankingHandler(a.rankingService, bus, logger)
	playerHandler := handlers.NewPlayerHandler(a.rankingService, a.playerService, logger)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, a.rankingService.Season(), a.cfg.CORSAllowedOrigins, logger)
	healthHandler := handlers.NewHealthHandler(a.dbConn)

	router := chi.NewRouter()
	routes.SetupRoutes(
		router,
		authenticator,
		rankingHandler,
		playerHandler,
		webSocketHandler,
		healthHandler,
		routes.Options{
			AllowedOrigins: a.cfg.CORSAllowedOrigins,
			Metrics:        a.recorder.Handler(),
		},
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, ctx := errgroup.WithContext(c.Context)

	g.Go(func() error {
		wsHub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		defer func() {
			if err := bus.Close(); err != nil {
				logger.Error("failed to close event bus", slog.Any("error", err))
			}
		}()
		return bus.Run(ctx)
	})

	g.Go(func() error {
		select {
		case <-bus.Running():
		case <-ctx.Done():
			return nil
		}
		logger.Info("starting server", slog.String("address", server.Addr), slog.String("season", a.cfg.RankingSeason))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			return errors.Join(err, server.Close())
		}
		logger.Info("server shutdown complete")
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("application exited")
	return nil
}
