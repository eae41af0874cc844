package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/ranking-system/models"
	"github.com/Dosada05/ranking-system/services"
	"github.com/go-chi/chi/v5"
)

const defaultRankingLimit = 10

// TournamentEventPublisher ставит завершенный турнир в очередь на пересчет рейтинга.
type TournamentEventPublisher interface {
	PublishTournamentCompleted(ctx context.Context, event models.TournamentCompletedEvent) error
}

type RankingHandler struct {
	rankingService services.RankingService
	publisher      TournamentEventPublisher
	logger         *slog.Logger
}

func NewRankingHandler(rs services.RankingService, publisher TournamentEventPublisher, logger *slog.Logger) *RankingHandler {
	return &RankingHandler{
		rankingService: rs,
		publisher:      publisher,
		logger:         logger,
	}
}

// TournamentCompletedHandler обрабатывает POST /tournaments/webhook
func (h *RankingHandler) TournamentCompletedHandler(w http.ResponseWriter, r *http.Request) {
	var event models.TournamentCompletedEvent
	if err := readJSON(w, r, &event); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	event.TournamentID = strings.TrimSpace(event.TournamentID)
	if event.TournamentID == "" {
		badRequestResponse(w, r, errors.New("tournamentId is required"))
		return
	}

	if err := h.publisher.PublishTournamentCompleted(r.Context(), event); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusAccepted, jsonResponse{"success": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListRankingHandler обрабатывает GET /tournaments/ranking?limit=&season=
func (h *RankingHandler) ListRankingHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := defaultRankingLimit
	if limitStr := query.Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 || l > services.MaxLeaderboardLimit {
			badRequestResponse(w, r, errors.New("limit must be an integer between 1 and 100"))
			return
		}
		limit = l
	}

	rows, err := h.rankingService.GetTopRankings(r.Context(), query.Get("season"), limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if rows == nil {
		rows = []*models.RankingWithUser{}
	}

	// Клиенты ожидают голый массив, без обертки.
	if err := writeJSON(w, http.StatusOK, rows, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StandingsHandler обрабатывает GET /tournaments/{tournamentID}/standings
func (h *RankingHandler) StandingsHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")

	standings, err := h.rankingService.GetStandings(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament_id": tournamentID, "standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecomputeHandler обрабатывает POST /tournaments/{tournamentID}/rankings (только admin)
func (h *RankingHandler) RecomputeHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID := chi.URLParam(r, "tournamentID")
	withRequester(r, h.logger).InfoContext(r.Context(), "Manual ranking recompute requested",
		slog.String("tournament_id", tournamentID),
	)

	report, err := h.rankingService.UpdateRankingsForTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"report": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
