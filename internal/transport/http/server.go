package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ircbridge/internal/auth"
	"github.com/vovakirdan/ircbridge/internal/config"
	"github.com/vovakirdan/ircbridge/internal/relay"
	"github.com/vovakirdan/ircbridge/internal/store"
)

// NewServer builds the relay HTTP server. st may be nil, which disables
// transcripts and the history endpoint.
func NewServer(manager *relay.Manager, tokens *auth.SessionTokens, st store.TranscriptStore, cfg *config.RelayConfig, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(manager, tokens, st, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter registers the relay routes on a gin engine.
func NewRouter(manager *relay.Manager, tokens *auth.SessionTokens, st store.TranscriptStore, cfg *config.RelayConfig, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	h := NewRelayHandlers(manager, tokens, st, cfg, logger)

	router.GET("/health", healthHandler)
	router.GET("/connect/:server", h.Connect)
	router.GET("/pull/:id", h.Pull)
	router.POST("/push/:id", BodyLimitMiddleware(cfg.MaxPushBytes), h.Push)
	router.GET("/history/:id", h.History)
	router.GET("/stream/:id", h.Stream)

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
