package cmd

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/CosmoTheDev/hashms/internal/config"
)

func newFlagCmd(t *testing.T, args ...string) (*cobra.Command, *watchFlags) {
	t.Helper()
	o := &watchFlags{}
	c := &cobra.Command{Use: "watch"}
	f := c.Flags()
	f.StringVarP(&o.outfile, "outfile", "o", "", "")
	f.Float64VarP(&o.interval, "interval", "i", config.DefaultIntervalMinutes, "")
	f.IntVarP(&o.count, "notification-count", "n", config.DefaultNotificationLimit, "")
	f.StringVar(&o.schedule, "schedule", "", "")
	f.StringVar(&o.procname, "procname", config.DefaultProcessName, "")
	f.StringVarP(&o.phone, "phone", "p", "", "")
	f.BoolVarP(&o.slack, "slack", "s", false, "")
	f.BoolVarP(&o.teams, "teams", "t", false, "")
	if err := f.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return c, o
}

func baseConfig() *config.Config {
	return &config.Config{
		Monitor: config.MonitorConfig{
			ProcessName:       config.DefaultProcessName,
			IntervalMinutes:   config.DefaultIntervalMinutes,
			NotificationLimit: config.DefaultNotificationLimit,
		},
		Notify: config.NotifyConfig{
			SMS:   config.SMSConfig{APIKey: "env-key"},
			Slack: config.SlackConfig{WebhookURL: "https://hooks.slack.test/T/B/x"},
			Teams: config.TeamsConfig{WebhookURL: "https://outlook.office.test/webhook/x"},
		},
	}
}

func TestApplyWatchFlagsEnablesRequestedChannels(t *testing.T) {
	cfgFile = ""
	c, o := newFlagCmd(t, "-o", "cracked.txt", "-p", "5551234567", "-s", "-i", "0.5", "-n", "3")
	cfg := baseConfig()

	ok, err := applyWatchFlags(c, cfg, *o)
	if err != nil || !ok {
		t.Fatalf("unexpected result ok=%v err=%v", ok, err)
	}
	if !cfg.Notify.SMS.Enabled || cfg.Notify.SMS.Phone != "5551234567" {
		t.Fatalf("sms not enabled: %+v", cfg.Notify.SMS)
	}
	if !cfg.Notify.Slack.Enabled || cfg.Notify.Teams.Enabled {
		t.Fatalf("unexpected slack/teams enablement: %+v", cfg.Notify)
	}
	if cfg.Monitor.Outfile != "cracked.txt" || cfg.Monitor.IntervalMinutes != 0.5 || cfg.Monitor.NotificationLimit != 3 {
		t.Fatalf("monitor flags not applied: %+v", cfg.Monitor)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestApplyWatchFlagsNothingSelected(t *testing.T) {
	cfgFile = ""
	c, o := newFlagCmd(t)
	ok, err := applyWatchFlags(c, baseConfig(), *o)
	if err != nil || ok {
		t.Fatalf("expected usage to be shown, got ok=%v err=%v", ok, err)
	}
}

func TestApplyWatchFlagsConflictsWithConfigFile(t *testing.T) {
	cfgFile = "hashms.json"
	defer func() { cfgFile = "" }()

	c, o := newFlagCmd(t, "-s")
	_, err := applyWatchFlags(c, baseConfig(), *o)
	if !errors.Is(err, config.ErrConflictingSources) {
		t.Fatalf("expected ErrConflictingSources, got %v", err)
	}
}

func TestApplyWatchFlagsUsesConfigFileChannels(t *testing.T) {
	cfgFile = ""
	c, o := newFlagCmd(t)
	cfg := baseConfig()
	cfg.Source = "/home/u/.hashms/config.json"

	ok, err := applyWatchFlags(c, cfg, *o)
	if err != nil || !ok {
		t.Fatalf("unexpected result ok=%v err=%v", ok, err)
	}
	if cfg.Notify.SMS.Enabled || !cfg.Notify.Slack.Enabled || !cfg.Notify.Teams.Enabled {
		t.Fatalf("expected slack and teams from config file: %+v", cfg.Notify)
	}
}

func TestBuildSchedule(t *testing.T) {
	now := time.Date(2026, 10, 17, 10, 7, 0, 0, time.UTC)

	s, desc, err := buildSchedule(config.MonitorConfig{IntervalMinutes: 15})
	if err != nil {
		t.Fatalf("interval schedule: %v", err)
	}
	if got := s.Next(now); got != now.Add(15*time.Minute) {
		t.Fatalf("unexpected next %v", got)
	}
	if desc != "every 15 minutes" {
		t.Fatalf("unexpected description %q", desc)
	}

	s, _, err = buildSchedule(config.MonitorConfig{IntervalMinutes: 15, Schedule: "*/30 * * * *"})
	if err != nil {
		t.Fatalf("cron schedule: %v", err)
	}
	if got := s.Next(now); got != time.Date(2026, 10, 17, 10, 30, 0, 0, time.UTC) {
		t.Fatalf("unexpected next %v", got)
	}

	if _, _, err := buildSchedule(config.MonitorConfig{Schedule: "every tuesday"}); !errors.Is(err, config.ErrInvalidSchedule) {
		t.Fatalf("expected ErrInvalidSchedule, got %v", err)
	}
}
