package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "hashms",
	Short: "Periodically check hashcat cracking progress and notify of success",
	Long: `hashms watches a running hashcat (or any named) process and its outfile,
and sends a notification by SMS, Slack or Microsoft Teams whenever new
hashes are cracked or the process stops.

Get started:
  hashms onboard          Interactive setup wizard
  hashms doctor           Check the process, outfile and channels
  hashms test             Send a test message through every channel
  hashms watch -o FILE    Start monitoring`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.hashms/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose/debug output")

	rootCmd.Version = Version
	rootCmd.AddCommand(
		watchCmd,
		testCmd,
		onboardCmd,
		configCmd,
		doctorCmd,
	)
}

func initLogging() {
	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
		slog.Debug("Verbose logging enabled")
	}
}
