package config

// Config is the root configuration for coffeebot.
type Config struct {
	Slack   SlackConfig   `json:"slack"`
	Monitor MonitorConfig `json:"monitor"`
	Bot     BotConfig     `json:"bot"`
	Watch   WatchConfig   `json:"watch"`
}

// SlackConfig holds the Slack connection settings.
type SlackConfig struct {
	// BotToken is the bot user OAuth token used for both the Web API and
	// the RTM socket.
	BotToken string `json:"botToken" env:"SLACK_BOT_TOKEN"`
	// Maintainer is the Slack user id mentioned in the help text.
	Maintainer string `json:"maintainer" env:"SLACK_MAINTAINER"`
}

// MonitorConfig holds the coffee monitoring service settings.
type MonitorConfig struct {
	URL   string `json:"url" env:"MONITOR_URL"`
	Token string `json:"token" env:"MONITOR_TOKEN"`
	// TimeoutS bounds a single outbound query in seconds.
	TimeoutS int `json:"timeoutSeconds"`
}

// BotConfig holds the event engine settings.
type BotConfig struct {
	// ReadDelayS is the fixed poll interval in seconds.
	ReadDelayS int `json:"readDelaySeconds"`
	// ReconnectDelayS is the fixed delay before re-engaging a dead session.
	ReconnectDelayS int `json:"reconnectDelaySeconds"`
	// StrictAuth aborts the session when the auth.test self-check fails.
	// When false the failure is only logged and the bot keeps running
	// without a verified identity.
	StrictAuth bool `json:"strictAuth"`
	Debug      bool `json:"debug" env:"DEBUG"`
}

// WatchConfig holds the monitoring-status watchdog settings.
type WatchConfig struct {
	Enabled   bool `json:"enabled"`
	IntervalS int  `json:"intervalSeconds"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Monitor: MonitorConfig{
			TimeoutS: 30,
		},
		Bot: BotConfig{
			ReadDelayS:      3,
			ReconnectDelayS: 5,
			StrictAuth:      true,
		},
		Watch: WatchConfig{
			IntervalS: 300,
		},
	}
}
