package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CosmoTheDev/hashms/internal/config"
	"github.com/CosmoTheDev/hashms/internal/notify"
	"github.com/CosmoTheDev/hashms/internal/probe"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the process, outfile and notification channels",
	Long: `Probes the configured process and outfile once and reports which
notification channels are ready, without sending anything.

Use 'hashms test' to actually deliver a test message.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.Notify.EnableConfigured()

	allOK := true

	fmt.Println("=== hashms doctor ===")
	fmt.Println()

	fmt.Print("Config file .............. ")
	if cfg.Source == "" {
		fmt.Println("none (flags and environment only)")
	} else {
		fmt.Printf("OK (%s)\n", cfg.Source)
	}

	fmt.Printf("Process (%s) ........ ", cfg.Monitor.ProcessName)
	if h := probe.NewProcessProbe().Probe(ctx, cfg.Monitor.ProcessName); h.Absent() {
		fmt.Println("NOT RUNNING")
		allOK = false
	} else {
		fmt.Printf("OK (pid %s)\n", h)
	}

	fmt.Print("Outfile .................. ")
	switch p := probe.NewProgressProbe().Probe(cfg.Monitor.Outfile); {
	case cfg.Monitor.Outfile == "":
		fmt.Println("not set (use -o/--outfile)")
	case !p.Present:
		fmt.Printf("MISSING (%s, will wait for it)\n", cfg.Monitor.Outfile)
	default:
		fmt.Printf("OK (%s, %d lines)\n", cfg.Monitor.Outfile, p.Count)
	}

	fmt.Println()
	fmt.Println("Channels:")
	channels := []notify.Channel{
		notify.NewSMS(cfg.Notify.SMS),
		notify.NewSlack(cfg.Notify.Slack),
		notify.NewTeams(cfg.Notify.Teams),
	}
	ready := 0
	for _, ch := range channels {
		fmt.Printf("  %-14s ... ", ch.Name())
		if ch.IsConfigured() {
			fmt.Println("OK")
			ready++
		} else {
			fmt.Println("not configured")
		}
	}
	if ready == 0 {
		allOK = false
	}

	if err := cfg.Validate(); err != nil {
		fmt.Println()
		fmt.Println(errorStyle.Render(err.Error()))
		allOK = false
	}

	fmt.Println()
	if allOK {
		fmt.Println(successStyle.Render("All checks passed — hashms is ready!"))
	} else {
		fmt.Println(warnStyle.Render("Some checks failed — run 'hashms onboard' to fix."))
	}
	return nil
}
