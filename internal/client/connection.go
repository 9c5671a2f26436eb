// Package client is the relay-side IRC client: it long-polls the relay,
// decodes each event and dispatches it to per-command handlers that keep
// channel state and notify an Observer.
package client

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ircbridge/internal/config"
	"github.com/vovakirdan/ircbridge/internal/irc"
	"github.com/vovakirdan/ircbridge/internal/proto"
)

// Connection is one IRC session reached through the relay.
type Connection struct {
	server         string
	initialChannel string
	cfg            config.ClientConfig

	transport Transport
	obs       Observer
	log       *zerolog.Logger

	mu         sync.Mutex
	id         string
	nickname   string
	state      State
	online     bool
	registered bool
	channels   map[string]*Channel
}

// New builds a connection from client configuration. Nothing happens on
// the network until Run is called.
func New(cfg config.ClientConfig, transport Transport, obs Observer, logger *zerolog.Logger) *Connection {
	if obs == nil {
		obs = NopObserver{}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Connection{
		server:         cfg.Server,
		initialChannel: cfg.Channel,
		cfg:            cfg,
		transport:      transport,
		obs:            obs,
		log:            logger,
		nickname:       cfg.Nickname,
		state:          StateDisconnected,
		channels:       make(map[string]*Channel),
	}
}

// Server returns the IRC server address this connection targets.
func (c *Connection) Server() string {
	return c.server
}

// SessionID returns the relay session id, empty before Run obtains one.
func (c *Connection) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Nickname returns our current nickname.
func (c *Connection) Nickname() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nickname
}

// State returns the current connection state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Channel returns the channel for name, creating it on first use.
func (c *Connection) Channel(name string) *Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channelLocked(name)
}

func (c *Connection) channelLocked(name string) *Channel {
	key := irc.Fold(name)
	ch, ok := c.channels[key]
	if !ok {
		ch = NewChannel(name)
		c.channels[key] = ch
	}
	return ch
}

// Channels returns every channel seen so far, sorted by name.
func (c *Connection) Channels() []*Channel {
	c.mu.Lock()
	out := make([]*Channel, 0, len(c.channels))
	for _, ch := range c.channels {
		out = append(out, ch)
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return irc.Fold(out[i].Name()) < irc.Fold(out[j].Name())
	})
	return out
}

// Run opens a relay session and long-polls it, dispatching every event in
// order. It returns nil when ctx is cancelled and the terminal error
// otherwise. Transient failures are retried with exponential backoff.
func (c *Connection) Run(ctx context.Context) error {
	c.setState(StateConnecting, nil)

	id, err := withRetry(ctx, c, "connect", func() (string, error) {
		return c.transport.Connect(ctx, c.server)
	})
	if err != nil {
		return c.finish(ctx, fmt.Errorf("connect: %w", err))
	}

	c.mu.Lock()
	c.id = id
	c.mu.Unlock()
	c.log.Info().Str("session_id", id).Str("server", c.server).Msg("relay session opened")

	for {
		events, err := withRetry(ctx, c, "pull", func() ([]irc.Event, error) {
			return c.transport.Pull(ctx, id)
		})
		if err != nil {
			return c.finish(ctx, fmt.Errorf("pull: %w", err))
		}
		for _, ev := range events {
			c.Dispatch(ctx, ev)
		}
	}
}

// Send pushes commands to the relay. Failures are returned and also
// reported through Observer.PushFailed.
func (c *Connection) Send(ctx context.Context, cmds ...irc.Command) error {
	if len(cmds) == 0 {
		return nil
	}
	id := c.SessionID()
	if id == "" {
		c.obs.PushFailed(cmds, ErrNotConnected)
		return ErrNotConnected
	}

	results, err := c.transport.Push(ctx, id, cmds)
	if err != nil {
		err = fmt.Errorf("push: %w", err)
		c.log.Warn().Err(err).Str("session_id", id).Int("commands", len(cmds)).Msg("push failed")
		c.obs.PushFailed(cmds, err)
		return err
	}

	var errs []error
	for i, res := range results {
		if res.Command != proto.CommandError || i >= len(cmds) {
			continue
		}
		rejected := fmt.Errorf("%w: %s: %s", ErrPushRejected, cmds[i].Name(), irc.Event(res).Param(0))
		c.log.Warn().Err(rejected).Str("session_id", id).Msg("relay rejected command")
		c.obs.PushFailed(cmds[i:i+1], rejected)
		errs = append(errs, rejected)
	}
	return errors.Join(errs...)
}

// finish settles the terminal state once Run stops.
func (c *Connection) finish(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		c.setState(StateDisconnected, nil)
		return nil
	}
	c.log.Error().Err(err).Str("server", c.server).Msg("connection failed")
	c.setState(StateError, err)
	return err
}

// setState records a transition and notifies the observer. A repeated
// state is only reported when it carries an error.
func (c *Connection) setState(state State, err error) {
	c.mu.Lock()
	if c.state == state && err == nil {
		c.mu.Unlock()
		return
	}
	c.state = state
	c.mu.Unlock()

	c.obs.StateChanged(state, err)
}

func (c *Connection) setOnline(online bool) {
	c.mu.Lock()
	c.online = online
	c.mu.Unlock()
}

// recovered restores the state a retry interrupted.
func (c *Connection) recovered() {
	c.mu.Lock()
	online := c.online
	c.mu.Unlock()
	if online {
		c.setState(StateConnected, nil)
	}
}

func (c *Connection) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if c.cfg.RetryInitial > 0 {
		b.InitialInterval = c.cfg.RetryInitial
	}
	if c.cfg.RetryMax > 0 {
		b.MaxInterval = c.cfg.RetryMax
	}
	return b
}

// withRetry runs op until it succeeds, fails permanently, the retry budget
// runs out or ctx ends. Each retry is surfaced as a Connecting transition.
func withRetry[T any](ctx context.Context, c *Connection, what string, op func() (T, error)) (T, error) {
	failed := false
	opts := []backoff.RetryOption{
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithNotify(func(err error, next time.Duration) {
			if ctx.Err() != nil {
				return
			}
			failed = true
			c.log.Warn().Err(err).Str("op", what).Dur("retry_in", next).Msg("relay request failed")
			c.setState(StateConnecting, err)
		}),
	}
	if c.cfg.RetryMaxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(c.cfg.RetryMaxElapsed))
	}

	res, err := backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && permanent(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, opts...)
	if err == nil && failed {
		c.recovered()
	}
	return res, err
}
