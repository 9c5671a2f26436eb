package config

import "time"

// Config holds relay and client configuration values.
type Config struct {
	LogLevel  string       `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string       `mapstructure:"log_format" yaml:"log_format"`
	Relay     RelayConfig  `mapstructure:"relay" yaml:"relay"`
	Client    ClientConfig `mapstructure:"client" yaml:"client"`
}

// RelayConfig configures the HTTP relay and its IRC sessions.
type RelayConfig struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// PullWait is how long an empty pull is held open.
	PullWait time.Duration `mapstructure:"pull_wait" yaml:"pull_wait"`
	// QueueSize bounds pending events per session.
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size"`
	// QueueTimeout is how long the reader waits on a full queue before giving up on the session.
	QueueTimeout      time.Duration `mapstructure:"queue_timeout" yaml:"queue_timeout"`
	DialTimeout       time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ReconnectInterval time.Duration `mapstructure:"reconnect_interval" yaml:"reconnect_interval"`
	// IdleTimeout closes sessions nobody has pulled from for this long.
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ReapInterval time.Duration `mapstructure:"reap_interval" yaml:"reap_interval"`
	DefaultPort  int           `mapstructure:"default_port" yaml:"default_port"`
	MaxSessions  int           `mapstructure:"max_sessions" yaml:"max_sessions"`
	// PushRateLimit caps lines per minute per session; 0 disables it.
	PushRateLimit int   `mapstructure:"push_rate_limit" yaml:"push_rate_limit"`
	MaxPushBytes  int64 `mapstructure:"max_push_bytes" yaml:"max_push_bytes"`

	SessionSecret string        `mapstructure:"session_secret" yaml:"session_secret"`
	SessionIssuer string        `mapstructure:"session_issuer" yaml:"session_issuer"`
	SessionTTL    time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`

	// TranscriptPath enables the SQLite transcript when set.
	TranscriptPath string `mapstructure:"transcript_path" yaml:"transcript_path"`
}

// ClientConfig configures the relay client.
type ClientConfig struct {
	RelayURL       string        `mapstructure:"relay_url" yaml:"relay_url"`
	Server         string        `mapstructure:"server" yaml:"server"`
	Nickname       string        `mapstructure:"nickname" yaml:"nickname"`
	Channel        string        `mapstructure:"channel" yaml:"channel"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`

	RetryInitial    time.Duration `mapstructure:"retry_initial" yaml:"retry_initial"`
	RetryMax        time.Duration `mapstructure:"retry_max" yaml:"retry_max"`
	RetryMaxElapsed time.Duration `mapstructure:"retry_max_elapsed" yaml:"retry_max_elapsed"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "console",
		Relay: RelayConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   5 * time.Second,
			PullWait:          30 * time.Second,
			QueueSize:         100,
			QueueTimeout:      45 * time.Second,
			DialTimeout:       45 * time.Second,
			WriteTimeout:      10 * time.Second,
			ReconnectInterval: 60 * time.Second,
			IdleTimeout:       65 * time.Second,
			ReapInterval:      10 * time.Second,
			DefaultPort:       6667,
			MaxPushBytes:      64 << 10,
			SessionIssuer:     "ircbridge",
			SessionTTL:        24 * time.Hour,
		},
		Client: ClientConfig{
			RelayURL:        "http://localhost:8080",
			RequestTimeout:  45 * time.Second,
			RetryInitial:    500 * time.Millisecond,
			RetryMax:        30 * time.Second,
			RetryMaxElapsed: 5 * time.Minute,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.Relay.Addr != "" {
		c.Relay.Addr = other.Relay.Addr
	}
	if other.Relay.TranscriptPath != "" {
		c.Relay.TranscriptPath = other.Relay.TranscriptPath
	}
	if other.Relay.SessionSecret != "" {
		c.Relay.SessionSecret = other.Relay.SessionSecret
	}
	if other.Relay.PullWait != 0 {
		c.Relay.PullWait = other.Relay.PullWait
	}
	if other.Client.RelayURL != "" {
		c.Client.RelayURL = other.Client.RelayURL
	}
	if other.Client.Server != "" {
		c.Client.Server = other.Client.Server
	}
	if other.Client.Nickname != "" {
		c.Client.Nickname = other.Client.Nickname
	}
	if other.Client.Channel != "" {
		c.Client.Channel = other.Client.Channel
	}
}
