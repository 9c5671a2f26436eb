package relay

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/ircbridge/internal/config"
	"github.com/vovakirdan/ircbridge/internal/irc"
)

// ircServer is a single-connection fake IRC server.
type ircServer struct {
	ln    net.Listener
	conns chan net.Conn
	lines chan string
}

func startIRCServer(t *testing.T) *ircServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &ircServer{ln: ln, conns: make(chan net.Conn, 1), lines: make(chan string, 64)}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			srv.conns <- conn
			go func() {
				sc := bufio.NewScanner(conn)
				for sc.Scan() {
					srv.lines <- sc.Text()
				}
			}()
		}
	}()
	return srv
}

func (s *ircServer) addr() string { return s.ln.Addr().String() }

func (s *ircServer) accept(t *testing.T) net.Conn {
	t.Helper()
	select {
	case c := <-s.conns:
		t.Cleanup(func() { _ = c.Close() })
		return c
	case <-time.After(3 * time.Second):
		t.Fatal("no connection to fake IRC server")
		return nil
	}
}

func (s *ircServer) nextLine(t *testing.T) string {
	t.Helper()
	select {
	case l := <-s.lines:
		return l
	case <-time.After(3 * time.Second):
		t.Fatal("fake IRC server received nothing")
		return ""
	}
}

func testConfig() config.RelayConfig {
	cfg := config.Default().Relay
	cfg.DialTimeout = time.Second
	cfg.ReconnectInterval = 20 * time.Millisecond
	cfg.QueueTimeout = time.Second
	cfg.WriteTimeout = time.Second
	return cfg
}

// pullUntil pulls until an event with command arrives and returns every
// event seen up to and including it.
func pullUntil(t *testing.T, s *Session, command string) []irc.Event {
	t.Helper()
	var seen []irc.Event
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		batch, err := s.Pull(context.Background(), 50*time.Millisecond)
		if err != nil {
			t.Fatalf("pull while waiting for %s: %v", command, err)
		}
		for _, ev := range batch {
			seen = append(seen, ev)
			if ev.Command == command {
				return seen
			}
		}
	}
	t.Fatalf("no %s event; saw %v", command, commands(seen))
	return nil
}

func commands(evs []irc.Event) string {
	names := make([]string, 0, len(evs))
	for _, ev := range evs {
		names = append(names, ev.Command)
	}
	return strings.Join(names, ",")
}

// dialerFunc adapts a function to Dialer.
type dialerFunc func(ctx context.Context, network, addr string) (net.Conn, error)

func (f dialerFunc) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	return f(ctx, network, addr)
}
