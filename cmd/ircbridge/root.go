package main

import (
	"os"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/ircbridge/internal/config"
	"github.com/vovakirdan/ircbridge/internal/log"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "ircbridge",
		Short:        "IRC over HTTP long-polling: relay server and terminal client",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (console or json)")

	cmd.AddCommand(newRelayCmd(opts), newChatCmd(opts))
	return cmd
}

// load resolves configuration and applies flag overrides on top.
func (o *rootOptions) load(bootstrap *zerolog.Logger, overrides config.Config) (config.Config, error) {
	cfg, path, err := config.Load(bootstrap, o.configPath)
	if err != nil {
		return cfg, err
	}
	overrides.LogLevel = o.logLevel
	overrides.LogFormat = o.logFormat
	cfg.UpdateFrom(overrides)
	bootstrap.Debug().Str("path", path).Msg("config loaded")
	return cfg, nil
}

func bootstrapLogger() *zerolog.Logger {
	return log.NewWithWriter(os.Stderr, "warn", "console")
}

var interruptSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
