package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/ranking-system/brackets"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub           *brackets.Hub
	defaultSeason string
	upgrader      websocket.Upgrader
	logger        *slog.Logger
}

// NewWebSocketHandler принимает список разрешенных Origin; "*" или пустой список разрешает все.
func NewWebSocketHandler(hub *brackets.Hub, defaultSeason string, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:           hub,
		defaultSeason: defaultSeason,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// ServeLeaderboard подписывает клиента на обновления таблицы лидеров.
// Клиент подключается к /ws/leaderboard?season=3 (по умолчанию текущий сезон).
func (h *WebSocketHandler) ServeLeaderboard(w http.ResponseWriter, r *http.Request) {
	season := r.URL.Query().Get("season")
	if season == "" {
		season = h.defaultSeason
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отправляет HTTP ошибку клиенту.
		h.logger.WarnContext(r.Context(), "Failed to upgrade leaderboard connection", slog.String("season", season), slog.Any("error", err))
		return
	}

	roomID := brackets.LeaderboardRoom(season)
	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: roomID,
	}
	if !h.hub.Join(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()

	h.logger.DebugContext(r.Context(), "Leaderboard subscriber registered", slog.String("room", roomID))
}
