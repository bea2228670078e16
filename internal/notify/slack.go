package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/CosmoTheDev/hashms/internal/config"
)

// SlackChannel sends notifications to a Slack incoming webhook URL.
type SlackChannel struct {
	cfg    config.SlackConfig
	client *http.Client
}

// NewSlack creates a SlackChannel from cfg.
func NewSlack(cfg config.SlackConfig) *SlackChannel {
	return &SlackChannel{cfg: cfg, client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *SlackChannel) Name() string { return "slack" }
func (s *SlackChannel) IsConfigured() bool {
	return s.cfg.Enabled && s.cfg.WebhookURL != ""
}

// Send posts {"text": message}. Any completed HTTP exchange counts as sent;
// the status code and response body are reported in the description.
func (s *SlackChannel) Send(ctx context.Context, message string) (string, error) {
	text := mention("<@%s> : %s", s.cfg.User, message)
	b, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", err
	}
	status, body, err := postJSON(ctx, s.client, s.cfg.WebhookURL, b)
	if err != nil {
		return "", fmt.Errorf("slack: %w", err)
	}
	verb := "Sent"
	if s.cfg.User != "" {
		verb = "Posted"
	}
	return fmt.Sprintf("%s message %q to Slack. Received status code %d and response %q", verb, text, status, body), nil
}

// postJSON posts b and returns the status code and (truncated) body.
func postJSON(ctx context.Context, client *http.Client, url string, b []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req) // #nosec G107 -- URL is a user-configured incoming webhook URL
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, string(body), nil
}
