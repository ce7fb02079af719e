// Package client provides an HTTP client for the zerosrv coordinator.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/raphaelgruber/zerosrv/internal/metrics"
	"github.com/raphaelgruber/zerosrv/internal/service"
)

// Client talks to the coordinator's HTTP API.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a new client.
// If endpoint is empty, uses ZEROSRV_URL env var or defaults to localhost:8080.
// Timeout can be configured via ZEROCTL_TIMEOUT env var (default 30s).
func New(endpoint string) *Client {
	if endpoint == "" {
		endpoint = os.Getenv("ZEROSRV_URL")
	}
	if endpoint == "" {
		endpoint = "http://localhost:8080"
	}

	timeout := 30 * time.Second
	if t := os.Getenv("ZEROCTL_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Endpoint returns the base URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// do sends a request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("server error: %s - %s", resp.Status, strings.TrimSpace(string(respBody)))
	}
	return respBody, nil
}

func (c *Client) getJSON(ctx context.Context, path string, result any) error {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// MatchRequest is the payload of /request-match.
type MatchRequest struct {
	Key                string   `json:"key"`
	Network1           string   `json:"network1"`
	Network2           string   `json:"network2,omitempty"`
	Visits             int      `json:"visits,omitempty"`
	Playouts           int      `json:"playouts,omitempty"`
	ResignationPercent *float64 `json:"resignation_percent,omitempty"`
	Noise              *bool    `json:"noise,omitempty"`
	RandomCnt          *int     `json:"randomcnt,omitempty"`
	NumberToPlay       int      `json:"number_to_play,omitempty"`
	IsTest             bool     `json:"is_test,omitempty"`
}

// RequestMatch schedules a new match.
func (c *Client) RequestMatch(ctx context.Context, req MatchRequest) (*service.MatchSummary, error) {
	body, err := c.do(ctx, http.MethodPost, "/request-match", req)
	if err != nil {
		return nil, err
	}
	var summary service.MatchSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &summary, nil
}

// ListMatches returns recent matches, newest first.
func (c *Client) ListMatches(ctx context.Context) ([]service.MatchSummary, error) {
	var list []service.MatchSummary
	if err := c.getJSON(ctx, "/matches", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// BestNetworkHash returns the current champion hash.
func (c *Client) BestNetworkHash(ctx context.Context) (string, error) {
	body, err := c.do(ctx, http.MethodGet, "/best-network-hash", nil)
	if err != nil {
		return "", err
	}
	hash, _, _ := strings.Cut(string(body), "\n")
	return strings.TrimSpace(hash), nil
}

// GetServerStats returns the server's operation timings.
func (c *Client) GetServerStats(ctx context.Context) (*metrics.Snapshot, error) {
	var snap metrics.Snapshot
	if err := c.getJSON(ctx, "/stats", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Health checks that the server and its store are up.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", nil)
	return err
}
