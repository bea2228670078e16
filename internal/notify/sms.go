package notify

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

	"github.com/CosmoTheDev/hashms/internal/config"
)

// SMSChannel sends text messages through the Textbelt HTTP gateway.
type SMSChannel struct {
	cfg    config.SMSConfig
	client *http.Client
}

// NewSMS creates an SMSChannel from cfg.
func NewSMS(cfg config.SMSConfig) *SMSChannel {
	if cfg.GatewayURL == "" {
		cfg.GatewayURL = config.DefaultTextbeltURL
	}
	return &SMSChannel{cfg: cfg, client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *SMSChannel) Name() string { return "sms" }
func (s *SMSChannel) IsConfigured() bool {
	return s.cfg.Enabled && s.cfg.Phone != "" && s.cfg.APIKey != ""
}

type textbeltResponse struct {
	Success        bool   `json:"success"`
	TextID         any    `json:"textId"`
	QuotaRemaining *int   `json:"quotaRemaining"`
	Error          string `json:"error"`
}

func (s *SMSChannel) Send(ctx context.Context, message string) (string, error) {
	form := url.Values{
		"phone":   {s.cfg.Phone},
		"message": {message},
		"key":     {s.cfg.APIKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.GatewayURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("sms: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := s.client.Do(req) // #nosec G107 -- gateway URL comes from user config
	if err != nil {
		return "", fmt.Errorf("sms: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("sms: reading response: %w", err)
	}
	var tr textbeltResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return "", fmt.Errorf("sms: unexpected response (status %d): %w", resp.StatusCode, err)
	}

	switch {
	case tr.TextID != nil:
		quota := "unknown"
		if tr.QuotaRemaining != nil {
			quota = fmt.Sprint(*tr.QuotaRemaining)
		}
		return fmt.Sprintf("SMS sent with ID %v. Quota remaining: %s", tr.TextID, quota), nil
	case tr.Error != "":
		return "", fmt.Errorf("sms: received error message from textbelt: %s", tr.Error)
	default:
		return "", errors.New("sms: textbelt response has neither textId nor error")
	}
}
