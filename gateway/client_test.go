package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/ranking-system/models"
	"github.com/Dosada05/ranking-system/services"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestClient(rt roundTripperFunc) *Client {
	return NewClient(Config{
		BaseURL:           "https://tournaments.example.com/api/",
		APIKey:            "secret",
		HTTPClient:        &http.Client{Transport: rt},
		RequestsPerSecond: 1000,
	})
}

const bracketBody = `{
	"tournamentId": "t-1",
	"rounds": [
		{
			"roundNumber": 1,
			"matches": [
				{
					"id": "m-1",
					"tournamentId": "t-1",
					"roundNumber": 1,
					"matchNumber": 1,
					"participants": [
						{ "participantId": "p1", "displayName": "Player1", "score": 2, "result": "win" },
						{ "participantId": "p2", "displayName": "Player2", "score": 1, "result": "loss" }
					],
					"completedAt": "2025-11-24T10:00:00Z"
				},
				{
					"id": "m-2",
					"participants": [
						{ "participantId": "p3", "displayName": "Player3", "score": null, "result": null },
						{ "participantId": "p4", "displayName": "Player4", "score": null, "result": null }
					],
					"completedAt": null
				}
			]
		}
	]
}`

func TestFetchMatchesHitsAPIAndFlattensBracket(t *testing.T) {
	var capturedPath, capturedAuth string
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		capturedPath = req.URL.Path
		capturedAuth = req.Header.Get("Authorization")
		return jsonResponse(http.StatusOK, bracketBody), nil
	})

	matches, err := client.FetchMatches(context.Background(), "t-1")
	require.NoError(t, err)

	assert.Equal(t, "/api/tournaments/t-1/bracket", capturedPath)
	assert.Equal(t, "Bearer secret", capturedAuth)
	require.Len(t, matches, 2)

	first := matches[0]
	assert.Equal(t, "m-1", first.ID)
	assert.True(t, first.IsDecided())
	assert.Equal(t, time.Date(2025, 11, 24, 10, 0, 0, 0, time.UTC), first.CompletedAt.UTC())
	require.Len(t, first.Participants, 2)
	assert.Equal(t, models.ResultWin, first.Participants[0].Result)
	require.NotNil(t, first.Participants[0].Score)
	assert.Equal(t, 2, *first.Participants[0].Score)

	second := matches[1]
	assert.Equal(t, "t-1", second.TournamentID, "inherits the bracket's tournament id")
	assert.Equal(t, 1, second.RoundNumber, "inherits the enclosing round")
	assert.False(t, second.IsDecided())
	assert.Equal(t, models.ResultUndecided, second.Participants[0].Result)
	assert.Nil(t, second.Participants[0].Score)
}

func TestFetchMatchesNotFound(t *testing.T) {
	client := newTestClient(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, `{"error":"not found"}`), nil
	})

	_, err := client.FetchMatches(context.Background(), "missing")
	assert.ErrorIs(t, err, services.ErrTournamentNotFound)
}

func TestFetchMatchesUnexpectedStatus(t *testing.T) {
	client := newTestClient(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, "upstream down"), nil
	})

	_, err := client.FetchMatches(context.Background(), "t-1")

	require.ErrorIs(t, err, ErrUnexpectedStatus)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, "upstream down", statusErr.Body)
	assert.True(t, statusErr.Temporary())
}

func TestFetchMatchesDecodeError(t *testing.T) {
	client := newTestClient(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"rounds": [`), nil
	})

	_, err := client.FetchMatches(context.Background(), "t-1")
	assert.ErrorContains(t, err, "failed to decode bracket")
}

func TestFetchMatchesAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/tournaments/t%201/bracket" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tournamentId":"t 1","rounds":[]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	matches, err := client.FetchMatches(context.Background(), "t 1")
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.NotNil(t, matches)
}
