package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	stdhttp "net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/ircbridge/internal/client"
	"github.com/vovakirdan/ircbridge/internal/config"
	"github.com/vovakirdan/ircbridge/internal/console"
	"github.com/vovakirdan/ircbridge/internal/irc"
	"github.com/vovakirdan/ircbridge/internal/log"
)

func newChatCmd(root *rootOptions) *cobra.Command {
	var flags config.Config
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat on an IRC server through a relay",
		Long: "Chat on an IRC server through a relay. Lines typed on stdin are sent to the\n" +
			"current channel; /cmd args sends an IRC command and /target #chan switches channel.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load(bootstrapLogger(), flags)
			if err != nil {
				return err
			}
			cc := cfg.Client
			if cc.Server == "" {
				return errors.New("--server is required")
			}
			if cc.Nickname == "" {
				cc.Nickname = guestNick()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), interruptSignals...)
			defer stop()
			return runChat(ctx, cc, cfg.LogLevel, os.Stdin, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&flags.Client.RelayURL, "relay", "", "relay base URL")
	cmd.Flags().StringVar(&flags.Client.Server, "server", "", "IRC server, host or host:port")
	cmd.Flags().StringVar(&flags.Client.Nickname, "nick", "", "nickname (default Guest plus a random number)")
	cmd.Flags().StringVar(&flags.Client.Channel, "channel", "", "channel to join once connected")
	return cmd
}

func guestNick() string {
	return fmt.Sprintf("Guest%d", 10000+rand.IntN(10000))
}

func runChat(ctx context.Context, cfg config.ClientConfig, logLevel string, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := log.NewWithWriter(os.Stderr, logLevel, "console")
	printer := console.NewPrinter(out)
	transport := client.NewHTTPTransport(cfg.RelayURL, &stdhttp.Client{Timeout: cfg.RequestTimeout})
	conn := client.New(cfg, transport, printer, logger)

	logger.Info().Str("relay", cfg.RelayURL).Str("server", conn.Server()).Msg("starting chat")
	go func() {
		readInput(ctx, conn, printer, in)
		cancel()
	}()

	return conn.Run(ctx)
}

// readInput feeds stdin lines to the connection until EOF or /quit.
func readInput(ctx context.Context, conn *client.Connection, printer *console.Printer, in io.Reader) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := sc.Text()
		if rest, ok := strings.CutPrefix(line, "/target"); ok && (rest == "" || rest[0] == ' ') {
			printer.SetTarget(strings.TrimSpace(rest))
			continue
		}

		input, err := client.ParseInput(line, printer.Target())
		if err != nil {
			continue
		}
		if err := conn.Send(ctx, input.Command); err != nil {
			// Already reported through the printer.
			continue
		}
		if input.Echo {
			printer.Echo(input.Command[1], conn.Nickname(), input.Command[2])
		}
		if input.Command.Name() == "QUIT" {
			return
		}
	}
	_ = conn.Send(ctx, irc.NewCommand("QUIT"))
}
