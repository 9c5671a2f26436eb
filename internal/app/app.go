package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/ircbridge/internal/auth"
	"github.com/vovakirdan/ircbridge/internal/config"
	"github.com/vovakirdan/ircbridge/internal/relay"
	"github.com/vovakirdan/ircbridge/internal/store"
	"github.com/vovakirdan/ircbridge/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/ircbridge/internal/transport/http"
)

// App wires together the relay and its HTTP transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	manager         *relay.Manager
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the relay application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	rc := cfg.Relay

	var (
		st         store.Store
		transcript store.TranscriptStore
	)
	if rc.TranscriptPath != "" {
		sq, err := sqlite.New(rc.TranscriptPath)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		logger.Info().Str("db_path", rc.TranscriptPath).Msg("transcript store initialized")
		st, transcript = sq, sq
	}

	if rc.SessionSecret == "" {
		logger.Warn().Msg("session_secret is empty; session ids are handed out unsigned")
	}
	tokens := auth.NewSessionTokens(rc.SessionSecret, rc.SessionIssuer, rc.SessionTTL)

	manager := relay.NewManager(rc, logger)
	server := transporthttp.NewServer(manager, tokens, transcript, &rc, logger)

	return &App{
		server:          server,
		shutdownTimeout: rc.ShutdownTimeout,
		manager:         manager,
		store:           st,
		log:             logger,
	}, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run serves HTTP and reaps idle sessions until ctx is cancelled or one of
// them fails, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.manager.Run(ctx)
	})

	g.Go(func() error {
		a.log.Info().Str("addr", a.server.Addr).Msg("relay listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
