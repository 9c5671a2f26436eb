package http

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ircbridge/internal/auth"
	"github.com/vovakirdan/ircbridge/internal/config"
	"github.com/vovakirdan/ircbridge/internal/proto"
	"github.com/vovakirdan/ircbridge/internal/relay"
	"github.com/vovakirdan/ircbridge/internal/store"
	"github.com/vovakirdan/ircbridge/internal/store/sqlite"
)

type testEnv struct {
	ts      *httptest.Server
	manager *relay.Manager
	store   store.Store
}

type envOptions struct {
	secret    string
	noStore   bool
	pushLimit int64
}

func startTestServer(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	cfg := config.Default().Relay
	cfg.PullWait = 100 * time.Millisecond
	cfg.DialTimeout = time.Second
	cfg.ReconnectInterval = 20 * time.Millisecond
	cfg.WriteTimeout = time.Second
	if opts.pushLimit > 0 {
		cfg.MaxPushBytes = opts.pushLimit
	}

	disabledLogger := zerolog.Nop()
	manager := relay.NewManager(cfg, &disabledLogger)

	env := &testEnv{manager: manager}
	var st store.TranscriptStore
	if !opts.noStore {
		sq, err := sqlite.New(":memory:")
		if err != nil {
			t.Fatalf("failed to create test store: %v", err)
		}
		t.Cleanup(func() { _ = sq.Close() })
		env.store = sq
		st = sq
	}

	tokens := auth.NewSessionTokens(opts.secret, cfg.SessionIssuer, time.Hour)
	env.ts = httptest.NewServer(NewRouter(manager, tokens, st, &cfg, &disabledLogger))
	t.Cleanup(env.ts.Close)
	return env
}

func (e *testEnv) get(t *testing.T, path string) (int, []byte, stdhttp.Header) {
	t.Helper()
	resp, err := e.ts.Client().Get(e.ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body, resp.Header
}

func (e *testEnv) post(t *testing.T, path string, payload []byte) (int, []byte) {
	t.Helper()
	resp, err := e.ts.Client().Post(e.ts.URL+path, "text/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body
}

func (e *testEnv) connect(t *testing.T, server string) string {
	t.Helper()
	status, body, _ := e.get(t, "/connect/"+server)
	if status != stdhttp.StatusOK {
		t.Fatalf("connect status %d: %s", status, body)
	}
	return string(body)
}

// pullUntil pulls until an event with command arrives.
func (e *testEnv) pullUntil(t *testing.T, id, command string) []proto.Event {
	t.Helper()
	var seen []proto.Event
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		status, body, _ := e.get(t, "/pull/"+id)
		if status != stdhttp.StatusOK {
			t.Fatalf("pull status %d: %s", status, body)
		}
		var batch []proto.Event
		if err := json.Unmarshal(body, &batch); err != nil {
			t.Fatalf("decode pull: %v (%s)", err, body)
		}
		for _, ev := range batch {
			seen = append(seen, ev)
			if ev.Command == command {
				return seen
			}
		}
	}
	t.Fatalf("no %s event in %+v", command, seen)
	return nil
}

// ircServer accepts connections and collects the lines clients send.
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
	t.Cleanup(func() { _ = ln.Close() })

	srv := &ircServer{ln: ln, conns: make(chan net.Conn, 4), lines: make(chan string, 64)}
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
