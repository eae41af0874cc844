package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Dosada05/ranking-system/metrics"
	"github.com/Dosada05/ranking-system/models"
	"github.com/Dosada05/ranking-system/services"
	"golang.org/x/time/rate"
)

const (
	defaultHTTPTimeout       = 10 * time.Second
	defaultRequestsPerSecond = 5
)

// ErrUnexpectedStatus is wrapped by every StatusError.
var ErrUnexpectedStatus = errors.New("tournaments api: unexpected status")

// StatusError is a non-2xx answer of the tournaments service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tournaments api: unexpected status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// Temporary reports whether the request may succeed when repeated.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Config controls how the client reaches the tournaments service.
type Config struct {
	BaseURL           string
	APIKey            string
	HTTPClient        *http.Client
	RequestsPerSecond float64
	Recorder          *metrics.Recorder
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches tournament brackets from the tournaments service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpDoer
	limiter    *rate.Limiter
	recorder   *metrics.Recorder
}

func NewClient(cfg Config) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	var httpClient httpDoer = &http.Client{Timeout: defaultHTTPTimeout}
	if cfg.HTTPClient != nil {
		httpClient = cfg.HTTPClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		recorder:   cfg.Recorder,
	}
}

// FetchMatches returns every match of the tournament's bracket, decided or not.
func (c *Client) FetchMatches(ctx context.Context, tournamentID string) (matches []models.Match, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		c.recorder.RecordUpstreamFetch(time.Since(start), err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tournaments/"+url.PathEscape(tournamentID)+"/bracket", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, services.ErrTournamentNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var payload bracketResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("tournaments api: failed to decode bracket of %s: %w", tournamentID, err)
	}
	return flattenBracket(tournamentID, payload), nil
}
