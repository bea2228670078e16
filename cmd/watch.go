package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/CosmoTheDev/hashms/internal/config"
	"github.com/CosmoTheDev/hashms/internal/monitor"
	"github.com/CosmoTheDev/hashms/internal/notify"
	"github.com/CosmoTheDev/hashms/internal/probe"
	"github.com/CosmoTheDev/hashms/internal/tui"
)

type watchFlags struct {
	outfile  string
	interval float64
	count    int
	schedule string
	test     bool
	phone    string
	slack    bool
	teams    bool
	procname string
	ui       bool
}

var watchOpts watchFlags

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Monitor the cracking process and notify on new results",
	Long: `Checks the process and its outfile on a fixed interval.

A notification goes out every time the outfile grows, up to the
notification count. After that hashms keeps checking and logging but
sends nothing more. If the process is not running at start a single
"no longer running" notification is sent; if it stops or is replaced
later, hashms exits.

Channels come either from a config file (-c) or from -p/-s/-t, never both.
Credentials are read from the config file or from TEXTBELT_API_KEY,
SLACK_URL and TEAMS_URL.

Examples:
  hashms watch -o cracked.txt -s -i 10
  hashms watch -o cracked.txt -p 5551234567 -n 3
  hashms watch -c ~/.hashms/config.json --schedule "*/30 * * * *" --ui`,
	RunE: runWatch,
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test message through every enabled channel",
	Long:  `Same as 'hashms watch --test'. Does not count against notifications.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		watchOpts.test = true
		return runWatch(cmd, args)
	},
}

func init() {
	addChannelFlags(watchCmd)
	addChannelFlags(testCmd)

	f := watchCmd.Flags()
	f.StringVarP(&watchOpts.outfile, "outfile", "o", "", "hashcat outfile to monitor")
	f.Float64VarP(&watchOpts.interval, "interval", "i", config.DefaultIntervalMinutes,
		"interval in minutes between checks")
	f.IntVarP(&watchOpts.count, "notification-count", "n", config.DefaultNotificationLimit,
		"stop notifying after N notifications")
	f.StringVar(&watchOpts.schedule, "schedule", "",
		`cron expression for checks, overrides --interval (e.g. "*/15 * * * *", "@every 5m")`)
	f.BoolVar(&watchOpts.test, "test", false,
		"send a test message and exit; does not count against notifications")
	f.StringVar(&watchOpts.procname, "procname", config.DefaultProcessName,
		"binary name of the process to monitor")
	f.BoolVar(&watchOpts.ui, "ui", false, "show a live dashboard instead of log lines")
}

func addChannelFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringVarP(&watchOpts.phone, "phone", "p", "", "phone number to send SMS to, format 5551234567")
	f.BoolVarP(&watchOpts.slack, "slack", "s", false, "send notifications to Slack")
	f.BoolVarP(&watchOpts.teams, "teams", "t", false, "send notifications to Teams")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ok, err := applyWatchFlags(cmd, cfg, watchOpts)
	if err != nil {
		return err
	}
	if !ok {
		return cmd.Help()
	}
	if cfg.Source != "" {
		fmt.Println(dimStyle.Render("[*] Using configuration file " + cfg.Source))
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	dispatcher := notify.NewDispatcher(cfg.Notify)

	if watchOpts.test {
		fmt.Println("[*] Conducting test. This does not count against notifications.")
		printOutcomes(monitor.SendTest(ctx, dispatcher))
		fmt.Println("[*] Test complete.")
		return nil
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case <-sigs:
			fmt.Println("\n[-] Ctrl+C detected. Exiting.")
			cancel()
		case <-ctx.Done():
		}
	}()

	schedule, cadence, err := buildSchedule(cfg.Monitor)
	if err != nil {
		return err
	}

	processes := probe.NewProcessProbe()
	progress := probe.NewProgressProbe()
	opts := monitor.Options{
		ProcessName: cfg.Monitor.ProcessName,
		Outfile:     cfg.Monitor.Outfile,
		Limit:       cfg.Monitor.NotificationLimit,
		Schedule:    schedule,
		Processes:   processes,
		Progress:    progress,
		Notifier:    dispatcher,
	}

	var res monitor.Result
	if watchOpts.ui {
		dash := tui.New(tui.Info{
			ProcessName: cfg.Monitor.ProcessName,
			Outfile:     cfg.Monitor.Outfile,
			Cadence:     cadence,
			Channels:    dispatcher.Channels(),
		}, cancel)
		opts.Observer = dash.Observe
		// Log lines would tear the alternate screen.
		quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
		opts.Logger = quiet
		processes.WithLogger(quiet)
		progress.WithLogger(quiet)
		dispatcher.WithLogger(quiet)
		m, err := monitor.New(opts)
		if err != nil {
			return err
		}
		if res, err = dash.Run(ctx, m.Run); err != nil {
			return err
		}
	} else {
		m, err := monitor.New(opts)
		if err != nil {
			return err
		}
		fmt.Println(dimStyle.Render(fmt.Sprintf("[*] Checking %s %s via %v",
			cfg.Monitor.ProcessName, cadence, dispatcher.Channels())))
		res = m.Run(ctx)
	}

	printResult(res)
	return nil
}

// applyWatchFlags merges command-line flags into cfg. It returns false when
// no channel was selected at all and usage should be shown instead.
func applyWatchFlags(cmd *cobra.Command, cfg *config.Config, o watchFlags) (bool, error) {
	channelFlags := o.phone != "" || o.slack || o.teams
	if cfgFile != "" && channelFlags {
		return false, config.ErrConflictingSources
	}

	f := cmd.Flags()
	if f.Changed("outfile") {
		cfg.Monitor.Outfile = o.outfile
	}
	if f.Changed("interval") {
		cfg.Monitor.IntervalMinutes = o.interval
	}
	if f.Changed("notification-count") {
		cfg.Monitor.NotificationLimit = o.count
	}
	if f.Changed("schedule") {
		cfg.Monitor.Schedule = o.schedule
	}
	if f.Changed("procname") {
		cfg.Monitor.ProcessName = o.procname
	}

	switch {
	case channelFlags:
		if o.phone != "" {
			cfg.Notify.SMS.Phone = o.phone
		}
		cfg.Notify.SMS.Enabled = o.phone != ""
		cfg.Notify.Slack.Enabled = o.slack
		cfg.Notify.Teams.Enabled = o.teams
	case cfg.Source != "":
		cfg.Notify.EnableConfigured()
	}
	return cfg.Notify.AnyEnabled(), nil
}

func buildSchedule(mc config.MonitorConfig) (cron.Schedule, string, error) {
	if mc.Schedule != "" {
		s, err := monitor.ParseSchedule(mc.Schedule)
		if err != nil {
			return nil, "", fmt.Errorf("%w %q: %w", config.ErrInvalidSchedule, mc.Schedule, err)
		}
		return s, "on schedule " + strconv.Quote(mc.Schedule), nil
	}
	return monitor.Every(mc.IntervalMinutes),
		fmt.Sprintf("every %s minutes", strconv.FormatFloat(mc.IntervalMinutes, 'f', -1, 64)), nil
}

func printOutcomes(outcomes []notify.Outcome) {
	for _, o := range outcomes {
		if o.OK() {
			fmt.Println(successStyle.Render(o.String()))
		} else {
			fmt.Println(errorStyle.Render(o.String()))
		}
	}
}

func printResult(res monitor.Result) {
	line := fmt.Sprintf("[*] Stopped (%s) after %d checks. Sent %d out of %d notifications.",
		res.Reason, res.Ticks, res.Budget.Sent, res.Budget.Limit)
	if res.Reason == monitor.ReasonCancelled {
		fmt.Println(dimStyle.Render(line))
		return
	}
	fmt.Println(warnStyle.Render(line))
}
