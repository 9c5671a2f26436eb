package http

import (
	"context"
	"errors"
	"io"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"

	"github.com/vovakirdan/ircbridge/internal/irc"
	"github.com/vovakirdan/ircbridge/internal/proto"
	"github.com/vovakirdan/ircbridge/internal/relay"
	"github.com/vovakirdan/ircbridge/internal/store"
)

// Stream bridges a session over a WebSocket. The server writes event
// batches as they arrive; the client writes command batches and gets a
// batch of push results back for each.
// GET /stream/:id
func (h *RelayHandlers) Stream(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Str("session_id", sess.ID()).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, sess)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, sess)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	switch {
	case errors.Is(err, relay.ErrSessionClosed):
		reason = msgSessionClosed
	case err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF):
		status = websocket.CloseStatus(err)
		if status == -1 {
			status = websocket.StatusInternalError
		}
		if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
			reason = err.Error()
			h.log.Warn().Err(err).Str("session_id", sess.ID()).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *RelayHandlers) readLoop(ctx context.Context, conn *websocket.Conn, sess *relay.Session) error {
	for {
		var cmds []irc.Command
		if err := wsjson.Read(ctx, conn, &cmds); err != nil {
			return err
		}
		results, err := h.push(ctx, sess, cmds)
		if err != nil {
			return err
		}
		if err := wsjson.Write(ctx, conn, results); err != nil {
			return err
		}
	}
}

func (h *RelayHandlers) writeLoop(ctx context.Context, conn *websocket.Conn, sess *relay.Session) error {
	for {
		events, err := sess.Pull(ctx, h.wait)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			continue
		}
		h.record(ctx, sess.ID(), store.DirectionIn, events)
		if err := wsjson.Write(ctx, conn, proto.FromIRC(events)); err != nil {
			h.log.Error().Err(err).Str("session_id", sess.ID()).Msg("write ws events")
			return err
		}
	}
}
