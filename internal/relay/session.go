package relay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ircbridge/internal/config"
	"github.com/vovakirdan/ircbridge/internal/irc"
	"github.com/vovakirdan/ircbridge/internal/proto"
)

// MaxReadLine is the longest line accepted from an IRC server.
const MaxReadLine = 8192

// Dialer opens the TCP connection to an IRC server. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Session is one IRC connection held open on behalf of a relay client.
// A single goroutine dials, reads and fills the event queue; it closes the
// queue when the connection ends.
type Session struct {
	id     string
	server string
	addr   string
	cfg    config.RelayConfig
	dialer Dialer
	log    zerolog.Logger

	limiter *rateLimiter
	events  chan irc.Event

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	conn     net.Conn
	failure  string
	reported bool

	writeMu sync.Mutex
	pullMu  sync.Mutex

	lastPull atomic.Int64
	pulling  atomic.Int32
}

func newSession(id, server, addr string, cfg config.RelayConfig, dialer Dialer, logger *zerolog.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:      id,
		server:  server,
		addr:    addr,
		cfg:     cfg,
		dialer:  dialer,
		log:     logger.With().Str("session_id", id).Str("server", server).Logger(),
		limiter: newRateLimiter(cfg.PushRateLimit),
		events:  make(chan irc.Event, max(cfg.QueueSize, 1)),
		ctx:     ctx,
		cancel:  cancel,
	}
	s.lastPull.Store(time.Now().UnixNano())
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Server returns the server as requested by the client.
func (s *Session) Server() string { return s.server }

// Connected reports whether the IRC connection is currently up.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Done is closed once the session has ended, either through Close or
// because its IRC connection failed.
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

// LastPull returns when the session was last pulled from.
func (s *Session) LastPull() time.Time {
	return time.Unix(0, s.lastPull.Load())
}

// idle reports whether nobody has pulled for longer than timeout.
func (s *Session) idle(now time.Time, timeout time.Duration) bool {
	if timeout <= 0 || s.pulling.Load() > 0 {
		return false
	}
	return now.Sub(s.LastPull()) > timeout
}

func (s *Session) touch() {
	s.lastPull.Store(time.Now().UnixNano())
}

// Close drops the IRC connection and stops the session. Safe to call more than once.
func (s *Session) Close() {
	s.cancel()
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// run is the session goroutine.
func (s *Session) run() {
	defer close(s.events)
	defer s.cancel()

	for {
		if !s.emit(irc.Event{Command: proto.CommandConnecting, Params: []string{s.server}}) {
			return
		}

		conn, err := s.dial()
		if err != nil {
			if s.ctx.Err() != nil {
				s.fail("session closed")
				return
			}
			kind := proto.CommandConnectError
			if isTimeout(err) {
				kind = proto.CommandConnectTimeout
			}
			s.log.Warn().Err(err).Str("addr", s.addr).Msg("irc dial failed")
			if !s.emit(irc.Event{Command: kind, Params: []string{err.Error()}}) {
				return
			}
			select {
			case <-s.ctx.Done():
				s.fail("session closed")
				return
			case <-time.After(s.cfg.ReconnectInterval):
			}
			continue
		}

		if !s.attach(conn) {
			_ = conn.Close()
			s.fail("session closed")
			return
		}
		s.log.Info().Str("addr", s.addr).Msg("irc connected")

		if s.emit(irc.Event{Command: proto.CommandConnected, Params: []string{}}) {
			err = s.read(conn)
		}
		s.detach()
		_ = conn.Close()

		switch {
		case s.ctx.Err() != nil:
			s.fail("session closed")
		case err != nil:
			s.log.Info().Err(err).Msg("irc connection ended")
			s.fail(err.Error())
		}
		return
	}
}

func (s *Session) dial() (net.Conn, error) {
	ctx := s.ctx
	if s.cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.DialTimeout)
		defer cancel()
	}
	return s.dialer.DialContext(ctx, "tcp", s.addr)
}

func (s *Session) attach(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.conn = conn
	return true
}

func (s *Session) detach() {
	s.mu.Lock()
	s.conn = nil
	s.mu.Unlock()
}

// read consumes lines until the connection fails. Overlong lines are skipped.
func (s *Session) read(conn net.Conn) error {
	r := bufio.NewReaderSize(conn, MaxReadLine)
	skipping := false
	for {
		line, err := r.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			if !skipping {
				s.log.Warn().Int("limit", MaxReadLine).Msg("dropping overlong line")
			}
			skipping = true
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return errors.New("connection closed by server")
			}
			return err
		}
		if skipping {
			skipping = false
			continue
		}

		ev, err := irc.ParseLine(string(line))
		if err != nil {
			if !errors.Is(err, irc.ErrEmptyLine) {
				s.log.Debug().Err(err).Msg("skipping malformed line")
			}
			continue
		}
		if !s.emit(irc.Rename(ev)) {
			return errors.New("queue full")
		}
	}
}

// emit queues ev, waiting up to the queue timeout. A false result means
// the session is finished and the caller must stop.
func (s *Session) emit(ev irc.Event) bool {
	select {
	case s.events <- ev:
		return true
	default:
	}

	timeout := s.cfg.QueueTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case s.events <- ev:
		return true
	case <-s.ctx.Done():
		s.fail("session closed")
		return false
	case <-timer.C:
		s.log.Warn().Int("queue", cap(s.events)).Msg("event queue full")
		s.fail("queue full")
		s.cancel()
		return false
	}
}

// fail records why the session ended. Only the first reason is kept.
func (s *Session) fail(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure == "" {
		s.failure = reason
	}
}

// takeFailure returns the ERROR event for a finished session once.
func (s *Session) takeFailure() (irc.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reported || s.failure == "" {
		return irc.Event{}, false
	}
	s.reported = true
	return irc.Event{Command: proto.CommandError, Params: []string{s.failure}}, true
}

// Pull returns queued events. With nothing queued it waits up to wait for
// the first event. An empty batch means the wait expired. Once the session
// has ended and its queue is drained, Pull reports ErrSessionClosed.
func (s *Session) Pull(ctx context.Context, wait time.Duration) ([]irc.Event, error) {
	s.pullMu.Lock()
	defer s.pullMu.Unlock()
	s.pulling.Add(1)
	defer s.pulling.Add(-1)
	defer s.touch()
	s.touch()

	batch, open := s.drain(nil)
	if len(batch) == 0 && open {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case ev, ok := <-s.events:
			if ok {
				batch, open = s.drain(append(batch, ev))
			} else {
				open = false
			}
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if !open {
		if ev, ok := s.takeFailure(); ok {
			batch = append(batch, ev)
		}
		if len(batch) == 0 {
			return nil, ErrSessionClosed
		}
	}
	return batch, nil
}

// drain appends everything queued without blocking and reports whether
// the queue is still open.
func (s *Session) drain(batch []irc.Event) ([]irc.Event, bool) {
	for {
		select {
		case ev, ok := <-s.events:
			if !ok {
				return batch, false
			}
			batch = append(batch, ev)
		default:
			return batch, true
		}
	}
}

// Push writes commands to the IRC server and returns one result per
// command. Only a closed session is reported as an error.
func (s *Session) Push(cmds []irc.Command) ([]proto.Event, error) {
	if s.ctx.Err() != nil {
		return nil, ErrSessionClosed
	}

	results := make([]proto.Event, 0, len(cmds))
	for _, cmd := range cmds {
		if err := s.write(cmd); err != nil {
			s.log.Debug().Err(err).Str("command", cmd.Name()).Str("code", Code(err)).Msg("push rejected")
			results = append(results, proto.Failure(err.Error()))
			continue
		}
		results = append(results, proto.OK())
	}
	return results, nil
}

func (s *Session) write(cmd irc.Command) error {
	line, err := irc.FormatLine(cmd)
	if err != nil {
		return relayError(ErrCodeBadRequest, err)
	}
	if !s.limiter.allow() {
		return ErrRateLimited
	}

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if _, err := io.WriteString(conn, line+"\r\n"); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
