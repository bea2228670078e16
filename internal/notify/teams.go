package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/CosmoTheDev/hashms/internal/config"
)

// TeamsChannel sends notifications to a Microsoft Teams incoming webhook as
// an Office 365 connector card.
type TeamsChannel struct {
	cfg    config.TeamsConfig
	client *http.Client
}

// NewTeams creates a TeamsChannel from cfg.
func NewTeams(cfg config.TeamsConfig) *TeamsChannel {
	return &TeamsChannel{cfg: cfg, client: &http.Client{Timeout: 10 * time.Second}}
}

func (t *TeamsChannel) Name() string { return "teams" }
func (t *TeamsChannel) IsConfigured() bool {
	return t.cfg.Enabled && t.cfg.WebhookURL != ""
}

type connectorCard struct {
	Type    string `json:"@type"`
	Context string `json:"@context"`
	Text    string `json:"text"`
}

// Send posts a connector card. Like Slack, a non-2xx status is reported in
// the description rather than treated as a failure.
func (t *TeamsChannel) Send(ctx context.Context, message string) (string, error) {
	text := mention("@%s : %s", t.cfg.User, message)
	b, err := json.Marshal(connectorCard{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Text:    text,
	})
	if err != nil {
		return "", err
	}
	status, body, err := postJSON(ctx, t.client, t.cfg.WebhookURL, b)
	if err != nil {
		return "", fmt.Errorf("teams: %w", err)
	}
	verb := "Sent"
	if t.cfg.User != "" {
		verb = "Posted"
	}
	return fmt.Sprintf("%s message %q to Teams. Received status code %d and response %q", verb, text, status, body), nil
}
