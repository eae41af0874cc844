package routes

import (
	_ "embed"
	"net/http"

	"github.com/Dosada05/ranking-system/handlers"
	"github.com/Dosada05/ranking-system/middleware"
	"github.com/Dosada05/ranking-system/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:embed openapi.json
var openAPIDoc []byte

type Options struct {
	AllowedOrigins []string
	Metrics        http.Handler
}

func SetupRoutes(
	router chi.Router,
	authenticator *middleware.Authenticator,
	rankingHandler *handlers.RankingHandler,
	playerHandler *handlers.PlayerHandler,
	webSocketHandler *handlers.WebSocketHandler,
	healthHandler *handlers.HealthHandler,
	opts Options,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", healthHandler.HealthzHandler)
	if opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	router.Get("/swagger/doc.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(openAPIDoc)
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.Get("/ws/leaderboard", webSocketHandler.ServeLeaderboard)

	router.Route("/tournaments", func(r chi.Router) {
		// Вебхук от сервиса турниров и публичные маршруты
		r.Post("/webhook", rankingHandler.TournamentCompletedHandler)
		r.Get("/ranking", rankingHandler.ListRankingHandler)
		r.Get("/{tournamentID}/standings", rankingHandler.StandingsHandler)

		// Ручной пересчет только для администраторов
		r.Group(func(r chi.Router) {
			r.Use(authenticator.Authenticate)
			r.Use(middleware.Authorize(string(models.RoleAdmin)))

			r.Post("/{tournamentID}/rankings", rankingHandler.RecomputeHandler)
		})
	})

	router.Route("/players/{playerID}", func(r chi.Router) {
		r.Get("/ranking", playerHandler.GetRankingHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticator.Authenticate)
			r.Use(middleware.Authorize(string(models.RoleAdmin)))

			r.Put("/participant", playerHandler.LinkParticipantHandler)
		})
	})
}
