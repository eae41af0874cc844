package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/ranking-system/brackets"
)

func TestServeLeaderboard_ReceivesBroadcasts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := brackets.NewHub(discardLogger())
	go hub.Run(ctx)

	h := NewWebSocketHandler(hub, "3", []string{"*"}, discardLogger())
	srv := httptest.NewServer(http.HandlerFunc(h.ServeLeaderboard))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/leaderboard"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	room := brackets.LeaderboardRoom("3")
	require.Eventually(t, func() bool { return hub.RoomSize(room) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.BroadcastToRoom(room, brackets.MessageRankingsUpdated, map[string]string{"tournament_id": "t-1"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
		RoomID  string            `json:"room_id"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, brackets.MessageRankingsUpdated, msg.Type)
	assert.Equal(t, "t-1", msg.Payload["tournament_id"])
	assert.Equal(t, room, msg.RoomID)
}

func TestServeLeaderboard_SeasonRoomsAreSeparate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := brackets.NewHub(discardLogger())
	go hub.Run(ctx)

	h := NewWebSocketHandler(hub, "3", nil, discardLogger())
	srv := httptest.NewServer(http.HandlerFunc(h.ServeLeaderboard))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/?season=2", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.RoomSize(brackets.LeaderboardRoom("2")) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, hub.RoomSize(brackets.LeaderboardRoom("3")))
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://cards.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/ws/leaderboard", nil)
	assert.True(t, check(req), "requests without Origin are not browser requests")

	req.Header.Set("Origin", "https://cards.example.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))
}
