package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ircbridge/internal/auth"
	"github.com/vovakirdan/ircbridge/internal/config"
	"github.com/vovakirdan/ircbridge/internal/irc"
	"github.com/vovakirdan/ircbridge/internal/proto"
	"github.com/vovakirdan/ircbridge/internal/relay"
	"github.com/vovakirdan/ircbridge/internal/store"
)

// HeaderErrorCode carries the relay error code on failed responses.
const HeaderErrorCode = "X-Relay-Error"

const (
	msgInvalidSession = "Invalid connection id."
	msgSessionClosed  = "Connection closed."
	msgInvalidPush    = "Invalid push payload."
	maxHistoryLimit   = 1000
)

// RelayHandlers serves the long-poll relay endpoints.
type RelayHandlers struct {
	manager *relay.Manager
	tokens  *auth.SessionTokens
	store   store.TranscriptStore
	wait    time.Duration
	log     *zerolog.Logger
}

// NewRelayHandlers creates a new relay handlers instance.
func NewRelayHandlers(manager *relay.Manager, tokens *auth.SessionTokens, st store.TranscriptStore, cfg *config.RelayConfig, logger *zerolog.Logger) *RelayHandlers {
	return &RelayHandlers{
		manager: manager,
		tokens:  tokens,
		store:   st,
		wait:    cfg.PullWait,
		log:     logger,
	}
}

// Connect opens a session.
// GET /connect/:server
func (h *RelayHandlers) Connect(c *gin.Context) {
	server := c.Param("server")
	sess, err := h.manager.Open(server)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, relay.ErrTooManySessions) {
			status = http.StatusServiceUnavailable
		}
		h.log.Warn().Err(err).Str("server", server).Str("code", relay.Code(err)).Msg("connect refused")
		abortError(c, status, relay.Code(err), err.Error())
		return
	}

	handle, err := h.tokens.Issue(sess.ID(), server)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", sess.ID()).Msg("failed to issue session token")
		_ = h.manager.Close(sess.ID())
		abortError(c, http.StatusInternalServerError, relay.ErrCodeInternal, "internal server error")
		return
	}
	c.String(http.StatusOK, handle)
}

// Pull long-polls for events.
// GET /pull/:id
func (h *RelayHandlers) Pull(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	events, err := sess.Pull(c.Request.Context(), h.wait)
	if err != nil {
		if errors.Is(err, relay.ErrSessionClosed) {
			abortError(c, http.StatusGone, relay.ErrCodeSessionClosed, msgSessionClosed)
			return
		}
		// The client went away; nothing was taken from the queue.
		c.Status(http.StatusNoContent)
		return
	}

	h.record(c.Request.Context(), sess.ID(), store.DirectionIn, events)
	c.JSON(http.StatusOK, proto.FromIRC(events))
}

// Push sends commands to the IRC server.
// POST /push/:id
func (h *RelayHandlers) Push(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortError(c, http.StatusRequestEntityTooLarge, "payload_too_large", "Payload too large.")
			return
		}
		abortError(c, http.StatusBadRequest, relay.ErrCodeBadRequest, msgInvalidPush)
		return
	}
	cmds, err := decodeCommands(body)
	if err != nil {
		h.log.Debug().Err(err).Str("session_id", sess.ID()).Msg("invalid push payload")
		abortError(c, http.StatusBadRequest, relay.ErrCodeBadRequest, msgInvalidPush)
		return
	}

	results, err := h.push(c.Request.Context(), sess, cmds)
	if err != nil {
		abortError(c, http.StatusGone, relay.ErrCodeSessionClosed, msgSessionClosed)
		return
	}
	c.JSON(http.StatusOK, results)
}

// push writes cmds and records the ones that went out.
func (h *RelayHandlers) push(ctx context.Context, sess *relay.Session, cmds []irc.Command) ([]proto.Event, error) {
	results, err := sess.Push(cmds)
	if err != nil {
		return nil, err
	}
	sent := make([]irc.Event, 0, len(cmds))
	for i, res := range results {
		if res.Command == proto.CommandPushOK {
			sent = append(sent, commandEvent(cmds[i]))
		}
	}
	h.record(ctx, sess.ID(), store.DirectionOut, sent)
	return results, nil
}

// History returns the recorded transcript of a session.
// GET /history/:id?limit=N
func (h *RelayHandlers) History(c *gin.Context) {
	if h.store == nil {
		abortError(c, http.StatusNotImplemented, "history_disabled", "History is disabled.")
		return
	}
	id, err := h.tokens.Verify(c.Param("id"))
	if err != nil {
		abortError(c, http.StatusNotFound, relay.ErrCodeInvalidSession, msgInvalidSession)
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			abortError(c, http.StatusBadRequest, relay.ErrCodeBadRequest, "Invalid limit.")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	events, err := h.store.RecentEvents(c.Request.Context(), id, limit)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", id).Msg("failed to load history")
		abortError(c, http.StatusInternalServerError, relay.ErrCodeInternal, "internal server error")
		return
	}
	c.JSON(http.StatusOK, historyEntries(events))
}

// session resolves the :id handle, answering 404 when it is unknown.
func (h *RelayHandlers) session(c *gin.Context) (*relay.Session, bool) {
	id, err := h.tokens.Verify(c.Param("id"))
	if err == nil {
		var sess *relay.Session
		if sess, err = h.manager.Get(id); err == nil {
			return sess, true
		}
	}
	h.log.Debug().Err(err).Str("path", c.FullPath()).Msg("unknown session")
	abortError(c, http.StatusNotFound, relay.ErrCodeInvalidSession, msgInvalidSession)
	return nil, false
}

func (h *RelayHandlers) record(ctx context.Context, sessionID string, dir store.Direction, events []irc.Event) {
	if h.store == nil || len(events) == 0 {
		return
	}
	if err := h.store.AppendEvents(context.WithoutCancel(ctx), sessionID, toStoreEvents(dir, events)); err != nil {
		h.log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to record transcript")
	}
}

func decodeCommands(body []byte) ([]irc.Command, error) {
	var cmds []irc.Command
	if err := json.Unmarshal(body, &cmds); err != nil {
		return nil, err
	}
	if cmds == nil {
		return nil, errors.New("payload is not a list")
	}
	return cmds, nil
}

// abortError writes a relay error batch, the format clients already parse.
func abortError(c *gin.Context, status int, code, msg string) {
	c.Header(HeaderErrorCode, code)
	c.AbortWithStatusJSON(status, proto.ErrorBatch(msg))
}
