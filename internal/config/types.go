package config

// Config is the root configuration structure for hashms.
// Serialised to ~/.hashms/config.json.
type Config struct {
	Monitor MonitorConfig `mapstructure:"monitor" json:"monitor" yaml:"monitor"`
	Notify  NotifyConfig  `mapstructure:"notify"  json:"notify"  yaml:"notify"`

	// Source is the config file that was read, or "" when none was found.
	Source string `mapstructure:"-" json:"-" yaml:"-"`
}

// MonitorConfig controls what is watched and how often.
type MonitorConfig struct {
	// ProcessName is the binary name matched against the process table.
	ProcessName string `mapstructure:"process_name" json:"process_name" yaml:"process_name"`
	// Outfile is the cracking output file whose line count signals progress.
	Outfile string `mapstructure:"outfile" json:"outfile" yaml:"outfile"`
	// IntervalMinutes is the delay between checks. Fractions are allowed.
	IntervalMinutes float64 `mapstructure:"interval_minutes" json:"interval_minutes" yaml:"interval_minutes"`
	// Schedule is an optional cron expression ("*/10 * * * *", "@every 5m")
	// that replaces IntervalMinutes when set.
	Schedule string `mapstructure:"schedule" json:"schedule,omitempty" yaml:"schedule,omitempty"`
	// NotificationLimit is the maximum number of progress notifications.
	NotificationLimit int `mapstructure:"notification_limit" json:"notification_limit" yaml:"notification_limit"`
}

// NotifyConfig holds every notification channel.
type NotifyConfig struct {
	SMS   SMSConfig   `mapstructure:"sms"   json:"sms"   yaml:"sms"`
	Slack SlackConfig `mapstructure:"slack" json:"slack" yaml:"slack"`
	Teams TeamsConfig `mapstructure:"teams" json:"teams" yaml:"teams"`
}

// SMSConfig configures the Textbelt SMS gateway.
type SMSConfig struct {
	Enabled    bool   `mapstructure:"enabled"     json:"enabled"     yaml:"enabled"`
	APIKey     string `mapstructure:"api_key"     json:"api_key"     yaml:"api_key"`
	Phone      string `mapstructure:"phone"       json:"phone"       yaml:"phone"`
	GatewayURL string `mapstructure:"gateway_url" json:"gateway_url" yaml:"gateway_url"`

	enabledSet bool
}

// SlackConfig configures a Slack incoming webhook.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"     json:"enabled"     yaml:"enabled"`
	WebhookURL string `mapstructure:"webhook_url" json:"webhook_url" yaml:"webhook_url"`
	// User is mentioned as <@User> in front of every message when set.
	User string `mapstructure:"user" json:"user,omitempty" yaml:"user,omitempty"`

	enabledSet bool
}

// TeamsConfig configures a Microsoft Teams incoming webhook (connector card).
type TeamsConfig struct {
	Enabled    bool   `mapstructure:"enabled"     json:"enabled"     yaml:"enabled"`
	WebhookURL string `mapstructure:"webhook_url" json:"webhook_url" yaml:"webhook_url"`
	// User is mentioned as @User in front of every message when set.
	User string `mapstructure:"user" json:"user,omitempty" yaml:"user,omitempty"`

	enabledSet bool
}

// AnyEnabled reports whether at least one channel has been switched on.
func (n NotifyConfig) AnyEnabled() bool {
	return n.SMS.Enabled || n.Slack.Enabled || n.Teams.Enabled
}

// EnableConfigured switches on every channel whose destination is present.
// Used when channels come from a config file rather than command-line flags.
// A channel whose "enabled" key was written in the file keeps that value.
func (n *NotifyConfig) EnableConfigured() {
	if !n.SMS.enabledSet {
		n.SMS.Enabled = n.SMS.Phone != ""
	}
	if !n.Slack.enabledSet {
		n.Slack.Enabled = n.Slack.WebhookURL != ""
	}
	if !n.Teams.enabledSet {
		n.Teams.Enabled = n.Teams.WebhookURL != ""
	}
}
