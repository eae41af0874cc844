package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/ranking-system/services"
	"github.com/go-chi/chi/v5"
)

type PlayerHandler struct {
	rankingService services.RankingService
	playerService  services.PlayerService
	logger         *slog.Logger
}

func NewPlayerHandler(rs services.RankingService, ps services.PlayerService, logger *slog.Logger) *PlayerHandler {
	return &PlayerHandler{
		rankingService: rs,
		playerService:  ps,
		logger:         logger,
	}
}

type linkParticipantInput struct {
	ParticipantID string `json:"participant_id"`
}

// GetRankingHandler обрабатывает GET /players/{playerID}/ranking?season=
func (h *PlayerHandler) GetRankingHandler(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	record, err := h.rankingService.GetPlayerRanking(r.Context(), playerID, r.URL.Query().Get("season"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ranking": record, "win_rate": record.WinRate()}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// LinkParticipantHandler обрабатывает PUT /players/{playerID}/participant (только admin)
func (h *PlayerHandler) LinkParticipantHandler(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	var input linkParticipantInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.playerService.LinkParticipant(r.Context(), playerID, input.ParticipantID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	withRequester(r, h.logger).InfoContext(r.Context(), "Participant link updated by admin",
		slog.String("player_id", playerID),
	)

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
