package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix            = "IRCBRIDGE"
	envConfigDefaultPath = "IRCBRIDGE_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
)

// Load builds configuration from defaults, optional config file, env vars, and returns the resolved path.
// Precedence: defaults < config file < env vars < caller overrides.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil && logger != nil {
				logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
			} else if logger != nil {
				logger.Info().Str("path", configPath).Msg("created default config")
			}
			// try reading again in case it was just written
			if readErr := v.ReadInConfig(); readErr != nil && logger != nil {
				logger.Warn().Err(readErr).Str("path", configPath).Msg("failed to read config after writing default")
			}
		} else {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, configPath, nil
}

// setDefaults registers every key so AutomaticEnv can see nested values.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)

	r := cfg.Relay
	v.SetDefault("relay.addr", r.Addr)
	v.SetDefault("relay.read_header_timeout", r.ReadHeaderTimeout)
	v.SetDefault("relay.shutdown_timeout", r.ShutdownTimeout)
	v.SetDefault("relay.pull_wait", r.PullWait)
	v.SetDefault("relay.queue_size", r.QueueSize)
	v.SetDefault("relay.queue_timeout", r.QueueTimeout)
	v.SetDefault("relay.dial_timeout", r.DialTimeout)
	v.SetDefault("relay.write_timeout", r.WriteTimeout)
	v.SetDefault("relay.reconnect_interval", r.ReconnectInterval)
	v.SetDefault("relay.idle_timeout", r.IdleTimeout)
	v.SetDefault("relay.reap_interval", r.ReapInterval)
	v.SetDefault("relay.default_port", r.DefaultPort)
	v.SetDefault("relay.max_sessions", r.MaxSessions)
	v.SetDefault("relay.push_rate_limit", r.PushRateLimit)
	v.SetDefault("relay.max_push_bytes", r.MaxPushBytes)
	v.SetDefault("relay.session_secret", r.SessionSecret)
	v.SetDefault("relay.session_issuer", r.SessionIssuer)
	v.SetDefault("relay.session_ttl", r.SessionTTL)
	v.SetDefault("relay.transcript_path", r.TranscriptPath)

	c := cfg.Client
	v.SetDefault("client.relay_url", c.RelayURL)
	v.SetDefault("client.server", c.Server)
	v.SetDefault("client.nickname", c.Nickname)
	v.SetDefault("client.channel", c.Channel)
	v.SetDefault("client.request_timeout", c.RequestTimeout)
	v.SetDefault("client.retry_initial", c.RetryInitial)
	v.SetDefault("client.retry_max", c.RetryMax)
	v.SetDefault("client.retry_max_elapsed", c.RetryMaxElapsed)
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
