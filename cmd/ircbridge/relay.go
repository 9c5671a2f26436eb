package main

import (
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/ircbridge/internal/app"
	"github.com/vovakirdan/ircbridge/internal/config"
	"github.com/vovakirdan/ircbridge/internal/log"
)

func newRelayCmd(root *rootOptions) *cobra.Command {
	var flags config.Config
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Run the HTTP relay that holds IRC connections for clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load(bootstrapLogger(), flags)
			if err != nil {
				return err
			}
			logger := log.New(cfg.LogLevel, cfg.LogFormat)

			ctx, stop := signal.NotifyContext(cmd.Context(), interruptSignals...)
			defer stop()

			application, err := app.New(&cfg, logger)
			if err != nil {
				return err
			}
			logger.Info().Str("addr", cfg.Relay.Addr).Msg("starting ircbridge relay")
			if err := application.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("relay exited with error")
				return err
			}
			logger.Info().Msg("relay stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.Relay.Addr, "addr", "", "HTTP listen address")
	cmd.Flags().StringVar(&flags.Relay.TranscriptPath, "transcript", "", "SQLite transcript path (empty disables)")
	cmd.Flags().StringVar(&flags.Relay.SessionSecret, "session-secret", "", "HMAC secret for signed session ids")
	cmd.Flags().DurationVar(&flags.Relay.PullWait, "pull-wait", 0, "how long an empty pull is held open")
	return cmd
}
