// Package relay keeps IRC connections open on behalf of HTTP clients.
// Each Session owns one TCP connection and a bounded queue of parsed
// events that clients drain by long-polling.
package relay

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ircbridge/internal/config"
)

// Manager owns every live session.
type Manager struct {
	cfg    config.RelayConfig
	dialer Dialer
	newID  func() string
	log    *zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Option customizes a Manager.
type Option func(*Manager)

// WithDialer replaces the TCP dialer used to reach IRC servers.
func WithDialer(d Dialer) Option {
	return func(m *Manager) { m.dialer = d }
}

// WithIDGenerator replaces the session id generator.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

// NewManager creates a manager. Call Run to start idle reaping.
func NewManager(cfg config.RelayConfig, logger *zerolog.Logger, opts ...Option) *Manager {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	m := &Manager{
		cfg:      cfg,
		dialer:   &net.Dialer{},
		newID:    uuid.NewString,
		log:      logger,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open starts a session connecting to server, given as host or host:port.
func (m *Manager) Open(server string) (*Session, error) {
	addr, err := resolveAddr(server, m.cfg.DefaultPort)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		m.mu.Unlock()
		return nil, ErrTooManySessions
	}
	s := newSession(m.newID(), server, addr, m.cfg, m.dialer, m.log)
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.log.Info().Str("session_id", s.id).Str("server", server).Msg("session opened")
	go s.run()
	return s, nil
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close closes and forgets the session with id.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	m.log.Info().Str("session_id", id).Msg("session closed")
	return nil
}

// Len returns the number of sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Run reaps idle sessions until ctx is cancelled, then closes all of them.
func (m *Manager) Run(ctx context.Context) error {
	interval := m.cfg.ReapInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return nil
		case now := <-ticker.C:
			if n := m.reap(now); n > 0 {
				m.log.Info().Int("reaped", n).Int("remaining", m.Len()).Msg("idle sessions closed")
			}
		}
	}
}

func (m *Manager) reap(now time.Time) int {
	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.idle(now, m.cfg.IdleTimeout) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.log.Info().Str("server", s.Server()).Dur("idle", now.Sub(s.LastPull())).Msg("closing idle session")
		s.Close()
	}
	return len(idle)
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// DefaultPort is used for servers given without a port.
const DefaultPort = 6667

// resolveAddr turns "host" or "host:port" into a dialable address.
func resolveAddr(server string, defaultPort int) (string, error) {
	if defaultPort <= 0 {
		defaultPort = DefaultPort
	}
	server = strings.TrimSpace(server)
	if server == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidServer)
	}
	host, port, err := net.SplitHostPort(server)
	if err != nil {
		host, port = strings.Trim(server, "[]"), strconv.Itoa(defaultPort)
	}
	if host == "" || strings.ContainsAny(host, " /") {
		return "", fmt.Errorf("%w: %q", ErrInvalidServer, server)
	}
	if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
		return "", fmt.Errorf("%w: bad port in %q", ErrInvalidServer, server)
	}
	return net.JoinHostPort(host, port), nil
}
