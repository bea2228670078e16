package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/CosmoTheDev/hashms/internal/config"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Interactive setup wizard for hashms",
	Long: `Walks you through configuring hashms:
  - Process and outfile to watch
  - Check interval and notification count
  - SMS (Textbelt), Slack and Teams channels

The result is written to ~/.hashms/config.json (or --config).`,
	RunE: runOnboard,
}

func runOnboard(cmd *cobra.Command, args []string) error {
	fmt.Println()
	fmt.Println(headerStyle.Render("  hashms — hashcat progress notifications"))
	fmt.Println(dimStyle.Render("  Get a message when hashes crack or hashcat stops.\n"))

	// Load existing config or start fresh.
	cfg, err := config.Load(cfgFile)
	if err != nil {
		cfg = &config.Config{}
	}
	if cfg.Monitor.ProcessName == "" {
		cfg.Monitor.ProcessName = config.DefaultProcessName
	}

	// --- Step 1: What to watch ---
	fmt.Println(headerStyle.Render("  Step 1/3 · Monitoring"))

	interval := strconv.FormatFloat(orDefault(cfg.Monitor.IntervalMinutes, config.DefaultIntervalMinutes), 'f', -1, 64)
	limit := strconv.Itoa(cfg.Monitor.NotificationLimit)
	if cfg.Monitor.NotificationLimit < 1 {
		limit = strconv.Itoa(config.DefaultNotificationLimit)
	}

	monitorForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Process name").
				Description("Binary name to look for in the process table").
				Value(&cfg.Monitor.ProcessName),
			huh.NewInput().
				Title("Outfile").
				Description("hashcat --outfile path; may not exist yet").
				Placeholder("~/cracked.txt").
				Value(&cfg.Monitor.Outfile),
			huh.NewInput().
				Title("Interval (minutes)").
				Value(&interval).
				Validate(func(s string) error {
					v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
					if err != nil || v <= 0 {
						return config.ErrInvalidInterval
					}
					return nil
				}),
			huh.NewInput().
				Title("Notification count").
				Description("Stop notifying after this many progress messages").
				Value(&limit).
				Validate(func(s string) error {
					v, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || v < 1 {
						return config.ErrInvalidLimit
					}
					return nil
				}),
		),
	)
	if err := monitorForm.Run(); err != nil {
		return err
	}
	cfg.Monitor.IntervalMinutes, _ = strconv.ParseFloat(strings.TrimSpace(interval), 64)
	cfg.Monitor.NotificationLimit, _ = strconv.Atoi(strings.TrimSpace(limit))

	// --- Step 2: Channels ---
	fmt.Println(headerStyle.Render("\n  Step 2/3 · Notification Channels"))

	var selected []string
	if cfg.Notify.SMS.Phone != "" {
		selected = append(selected, "sms")
	}
	if cfg.Notify.Slack.WebhookURL != "" {
		selected = append(selected, "slack")
	}
	if cfg.Notify.Teams.WebhookURL != "" {
		selected = append(selected, "teams")
	}
	channelForm := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Where should notifications go?").
				Options(
					huh.NewOption("SMS (Textbelt)", "sms"),
					huh.NewOption("Slack incoming webhook", "slack"),
					huh.NewOption("Microsoft Teams incoming webhook", "teams"),
				).
				Value(&selected),
		),
	)
	if err := channelForm.Run(); err != nil {
		return err
	}

	want := map[string]bool{}
	for _, s := range selected {
		want[s] = true
	}

	// --- Step 3: Credentials ---
	fmt.Println(headerStyle.Render("\n  Step 3/3 · Credentials"))

	if want["sms"] {
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Phone number").Placeholder("5551234567").Value(&cfg.Notify.SMS.Phone),
			huh.NewInput().Title("Textbelt API key").EchoMode(huh.EchoModePassword).Value(&cfg.Notify.SMS.APIKey),
		))
		if err := form.Run(); err != nil {
			return err
		}
	} else {
		cfg.Notify.SMS = config.SMSConfig{GatewayURL: cfg.Notify.SMS.GatewayURL}
	}

	if want["slack"] {
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Slack webhook URL").Placeholder("https://hooks.slack.com/services/...").Value(&cfg.Notify.Slack.WebhookURL),
			huh.NewInput().Title("Slack member ID to mention (optional)").Placeholder("U024BE7LH").Value(&cfg.Notify.Slack.User),
		))
		if err := form.Run(); err != nil {
			return err
		}
	} else {
		cfg.Notify.Slack = config.SlackConfig{}
	}

	if want["teams"] {
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Teams webhook URL").Value(&cfg.Notify.Teams.WebhookURL),
			huh.NewInput().Title("Teams user to mention (optional)").Value(&cfg.Notify.Teams.User),
		))
		if err := form.Run(); err != nil {
			return err
		}
	} else {
		cfg.Notify.Teams = config.TeamsConfig{}
	}

	// The wizard's selection replaces whatever the previous file said.
	cfg.Notify.SMS.Enabled = want["sms"] && cfg.Notify.SMS.Phone != ""
	cfg.Notify.Slack.Enabled = want["slack"] && cfg.Notify.Slack.WebhookURL != ""
	cfg.Notify.Teams.Enabled = want["teams"] && cfg.Notify.Teams.WebhookURL != ""
	if err := cfg.Validate(); err != nil {
		fmt.Println(warnStyle.Render("  " + err.Error()))
	}

	if err := config.Save(cfg, cfgFile); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	p, _ := config.ConfigPath(cfgFile)
	fmt.Println(successStyle.Render("\n  Saved " + p))
	fmt.Println(dimStyle.Render("  Next: 'hashms test' to try the channels, then 'hashms watch'.\n"))
	return nil
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}
