package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/CosmoTheDev/hashms/internal/config"
)

// captureServer records the last request body and replies with status/body.
func captureServer(t *testing.T, status int, reply string) (*httptest.Server, *[]byte) {
	t.Helper()
	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		got, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestSlackSendWithoutUser(t *testing.T) {
	srv, body := captureServer(t, http.StatusOK, "ok")
	ch := NewSlack(config.SlackConfig{Enabled: true, WebhookURL: srv.URL})

	detail, err := ch.Send(context.Background(), "3 hashes have been cracked.")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	var payload map[string]string
	if err := json.Unmarshal(*body, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["text"] != "3 hashes have been cracked." {
		t.Fatalf("unexpected text %q", payload["text"])
	}
	if !strings.HasPrefix(detail, "Sent message") || !strings.Contains(detail, "200") {
		t.Fatalf("unexpected detail %q", detail)
	}
}

func TestSlackSendMentionsUser(t *testing.T) {
	srv, body := captureServer(t, http.StatusOK, "ok")
	ch := NewSlack(config.SlackConfig{Enabled: true, WebhookURL: srv.URL, User: "U024BE7LH"})

	detail, err := ch.Send(context.Background(), "hashms test message.")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	var payload map[string]string
	_ = json.Unmarshal(*body, &payload)
	if payload["text"] != "<@U024BE7LH> : hashms test message." {
		t.Fatalf("unexpected text %q", payload["text"])
	}
	if !strings.HasPrefix(detail, "Posted message") {
		t.Fatalf("unexpected detail %q", detail)
	}
}

func TestSlackNon2xxIsReportedNotFailed(t *testing.T) {
	srv, _ := captureServer(t, http.StatusNotFound, "no_service")
	ch := NewSlack(config.SlackConfig{Enabled: true, WebhookURL: srv.URL})

	detail, err := ch.Send(context.Background(), "msg")
	if err != nil {
		t.Fatalf("non-2xx should not be an error, got %v", err)
	}
	if !strings.Contains(detail, "404") || !strings.Contains(detail, "no_service") {
		t.Fatalf("expected status and body in detail, got %q", detail)
	}
}

func TestTeamsNon2xxIsReportedNotFailed(t *testing.T) {
	srv, _ := captureServer(t, http.StatusBadRequest, "Bad payload received by generic incoming webhook.")
	ch := NewTeams(config.TeamsConfig{Enabled: true, WebhookURL: srv.URL})

	detail, err := ch.Send(context.Background(), "msg")
	if err != nil {
		t.Fatalf("non-2xx should not be an error, got %v", err)
	}
	if !strings.Contains(detail, "400") || !strings.Contains(detail, "Bad payload") {
		t.Fatalf("expected status and body in detail, got %q", detail)
	}
}

func TestTeamsTransportFailureIsError(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	url := dead.URL
	dead.Close()
	ch := NewTeams(config.TeamsConfig{Enabled: true, WebhookURL: url})

	if _, err := ch.Send(context.Background(), "msg"); err == nil || !strings.Contains(err.Error(), "teams:") {
		t.Fatalf("expected a teams transport error, got %v", err)
	}
}

func TestTeamsSendsConnectorCard(t *testing.T) {
	srv, body := captureServer(t, http.StatusOK, "1")
	ch := NewTeams(config.TeamsConfig{Enabled: true, WebhookURL: srv.URL, User: "alice"})

	detail, err := ch.Send(context.Background(), "hashcat is no longer running")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	var card map[string]string
	if err := json.Unmarshal(*body, &card); err != nil {
		t.Fatalf("decode card: %v", err)
	}
	if card["@type"] != "MessageCard" {
		t.Fatalf("unexpected @type %q", card["@type"])
	}
	if card["text"] != "@alice : hashcat is no longer running" {
		t.Fatalf("unexpected text %q", card["text"])
	}
	if !strings.HasPrefix(detail, "Posted message") {
		t.Fatalf("unexpected detail %q", detail)
	}
}

func TestTeamsSendWithoutUser(t *testing.T) {
	srv, body := captureServer(t, http.StatusOK, "1")
	ch := NewTeams(config.TeamsConfig{Enabled: true, WebhookURL: srv.URL})

	detail, err := ch.Send(context.Background(), "msg")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	var card map[string]string
	_ = json.Unmarshal(*body, &card)
	if card["text"] != "msg" {
		t.Fatalf("unexpected text %q", card["text"])
	}
	if !strings.HasPrefix(detail, "Sent message") {
		t.Fatalf("unexpected detail %q", detail)
	}
}

func TestSMSSendSuccess(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = map[string]string{
			"phone":   r.PostForm.Get("phone"),
			"message": r.PostForm.Get("message"),
			"key":     r.PostForm.Get("key"),
		}
		_, _ = io.WriteString(w, `{"success":true,"textId":"12345","quotaRemaining":40}`)
	}))
	defer srv.Close()

	ch := NewSMS(config.SMSConfig{Enabled: true, APIKey: "tb-key", Phone: "5551234567", GatewayURL: srv.URL})
	detail, err := ch.Send(context.Background(), "hashms test message.")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if form["phone"] != "5551234567" || form["key"] != "tb-key" || form["message"] != "hashms test message." {
		t.Fatalf("unexpected form %+v", form)
	}
	if detail != "SMS sent with ID 12345. Quota remaining: 40" {
		t.Fatalf("unexpected detail %q", detail)
	}
}

func TestSMSSendGatewayError(t *testing.T) {
	srv, _ := captureServer(t, http.StatusOK, `{"success":false,"quotaRemaining":0,"error":"Out of quota"}`)
	ch := NewSMS(config.SMSConfig{Enabled: true, APIKey: "k", Phone: "1", GatewayURL: srv.URL})

	_, err := ch.Send(context.Background(), "msg")
	if err == nil || !strings.Contains(err.Error(), "Out of quota") {
		t.Fatalf("expected gateway error, got %v", err)
	}
}

func TestSMSSendNonJSONIsFailure(t *testing.T) {
	srv, _ := captureServer(t, http.StatusBadGateway, "<html>bad gateway</html>")
	ch := NewSMS(config.SMSConfig{Enabled: true, APIKey: "k", Phone: "1", GatewayURL: srv.URL})

	if _, err := ch.Send(context.Background(), "msg"); err == nil {
		t.Fatalf("expected failure for non-JSON body")
	}
}

func TestChannelsRequireEnablement(t *testing.T) {
	if NewSlack(config.SlackConfig{WebhookURL: "https://hooks.slack.test/x"}).IsConfigured() {
		t.Fatalf("disabled slack channel reported configured")
	}
	if NewTeams(config.TeamsConfig{Enabled: true}).IsConfigured() {
		t.Fatalf("teams without URL reported configured")
	}
	if NewSMS(config.SMSConfig{Enabled: true, Phone: "1"}).IsConfigured() {
		t.Fatalf("sms without API key reported configured")
	}
}
