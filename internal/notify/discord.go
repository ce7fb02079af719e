// Package notify announces champion promotions to a chat webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

// Discord posts messages to a Discord webhook.
type Discord struct {
	url        string
	httpClient *http.Client
}

// NewDiscord creates a notifier for the webhook at url. An empty url makes
// every notification a no-op.
func NewDiscord(url string) *Discord {
	return &Discord{
		url:        url,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Enabled reports whether a webhook is configured.
func (d *Discord) Enabled() bool {
	return d.url != ""
}

type webhookMessage struct {
	Content string `json:"content"`
}

// NetworkPromoted announces a new champion.
func (d *Discord) NetworkPromoted(ctx context.Context, hash string) error {
	return d.Send(ctx, "New network promoted: "+hash)
}

// Send posts content to the webhook.
func (d *Discord) Send(ctx context.Context, content string) error {
	if !d.Enabled() {
		return nil
	}

	body, err := json.Marshal(webhookMessage{Content: content})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook error: %s - %s", resp.Status, string(msg))
	}
	return nil
}
