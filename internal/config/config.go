package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const (
	DefaultConfigDir  = ".hashms"
	DefaultConfigFile = "config.json"

	DefaultProcessName       = "hashcat"
	DefaultIntervalMinutes   = 15.0
	DefaultNotificationLimit = 5
	DefaultTextbeltURL       = "https://textbelt.com/text"
)

// Configuration errors. They are fatal: hashms refuses to start monitoring
// when Validate returns any of them.
var (
	ErrMissingAPIKey      = errors.New("no textbelt API key - check environmental variable or configuration file")
	ErrMissingPhone       = errors.New("no phone number for SMS notifications")
	ErrMissingSlackURL    = errors.New("no slack URL - check environmental variable or configuration file")
	ErrMissingTeamsURL    = errors.New("no teams URL - check environmental variable or configuration file")
	ErrInvalidInterval    = errors.New("interval must be greater than zero")
	ErrInvalidLimit       = errors.New("notification count must be at least 1")
	ErrInvalidSchedule    = errors.New("invalid cron schedule")
	ErrConflictingSources = errors.New("configuration file (-c/--config) and command-line parameters (-p/--phone, -s/--slack, -t/--teams) are mutually exclusive")
)

// legacyEnv maps config keys to the environment variables older hashms
// releases read credentials from. HASHMS_* names are always accepted too.
var legacyEnv = map[string]string{
	"notify.sms.api_key":       "TEXTBELT_API_KEY",
	"notify.slack.webhook_url": "SLACK_URL",
	"notify.teams.webhook_url": "TEAMS_URL",
}

// Load reads the config file and environment and returns a populated Config.
// configPath overrides the default ~/.hashms/config.json; a missing default
// file is not an error, a missing explicit one is.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HASHMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(filepath.Join(home, DefaultConfigDir))
	}

	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	source := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case configPath != "":
			return nil, fmt.Errorf("reading config %s: %w", configPath, err)
		case errors.As(err, &notFound), isNotExist(err):
			// No config yet; flags and environment carry everything.
		default:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else {
		source = v.ConfigFileUsed()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Source = source
	if source != "" {
		cfg.Notify.SMS.enabledSet = v.InConfig("notify.sms.enabled")
		cfg.Notify.Slack.enabledSet = v.InConfig("notify.slack.enabled")
		cfg.Notify.Teams.enabledSet = v.InConfig("notify.teams.enabled")
	}
	cfg.Monitor.Outfile = expandHome(cfg.Monitor.Outfile)
	return &cfg, nil
}

// Validate checks that every enabled channel has what it needs and that the
// monitor settings are usable. All problems are reported at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Monitor.Schedule != "" {
		if _, err := cron.ParseStandard(c.Monitor.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("%w %q: %w", ErrInvalidSchedule, c.Monitor.Schedule, err))
		}
	} else if c.Monitor.IntervalMinutes <= 0 {
		errs = append(errs, ErrInvalidInterval)
	}
	if c.Monitor.NotificationLimit < 1 {
		errs = append(errs, ErrInvalidLimit)
	}

	n := c.Notify
	if n.SMS.Enabled {
		if n.SMS.Phone == "" {
			errs = append(errs, ErrMissingPhone)
		}
		if n.SMS.APIKey == "" {
			errs = append(errs, ErrMissingAPIKey)
		}
	}
	if n.Slack.Enabled && n.Slack.WebhookURL == "" {
		errs = append(errs, ErrMissingSlackURL)
	}
	if n.Teams.Enabled && n.Teams.WebhookURL == "" {
		errs = append(errs, ErrMissingTeamsURL)
	}
	return errors.Join(errs...)
}

// Redacted returns a copy with credentials masked, for display.
func (c Config) Redacted() Config {
	if c.Notify.SMS.APIKey != "" {
		c.Notify.SMS.APIKey = "***"
	}
	c.Notify.Slack.WebhookURL = redactURL(c.Notify.Slack.WebhookURL)
	c.Notify.Teams.WebhookURL = redactURL(c.Notify.Teams.WebhookURL)
	return c
}

// Save writes the config to disk as JSON.
func Save(cfg *Config, configPath string) error {
	p, err := ConfigPath(configPath)
	if err != nil {
		return fmt.Errorf("cannot determine home directory: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("serialising config: %w", err)
	}

	return os.WriteFile(p, data, 0o600)
}

// ConfigPath returns the effective config file path.
func ConfigPath(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("monitor.process_name", DefaultProcessName)
	v.SetDefault("monitor.outfile", "")
	v.SetDefault("monitor.interval_minutes", DefaultIntervalMinutes)
	v.SetDefault("monitor.schedule", "")
	v.SetDefault("monitor.notification_limit", DefaultNotificationLimit)

	v.SetDefault("notify.sms.enabled", false)
	v.SetDefault("notify.sms.api_key", "")
	v.SetDefault("notify.sms.phone", "")
	v.SetDefault("notify.sms.gateway_url", DefaultTextbeltURL)
	v.SetDefault("notify.slack.enabled", false)
	v.SetDefault("notify.slack.webhook_url", "")
	v.SetDefault("notify.slack.user", "")
	v.SetDefault("notify.teams.enabled", false)
	v.SetDefault("notify.teams.webhook_url", "")
	v.SetDefault("notify.teams.user", "")
}

func bindEnv(v *viper.Viper) error {
	for key, legacy := range legacyEnv {
		prefixed := "HASHMS_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}
	return nil
}

func redactURL(u string) string {
	if u == "" {
		return ""
	}
	// Webhook URLs carry their secret in the path.
	if i := strings.Index(u, "://"); i >= 0 {
		if j := strings.Index(u[i+3:], "/"); j >= 0 {
			return u[:i+3+j] + "/***"
		}
	}
	return "***"
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func isNotExist(err error) bool {
	return os.IsNotExist(err) || strings.Contains(err.Error(), "no such file")
}
