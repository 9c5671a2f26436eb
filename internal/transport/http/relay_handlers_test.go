package http

import (
	"bytes"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"strings"
	"testing"

	"github.com/vovakirdan/ircbridge/internal/proto"
	"github.com/vovakirdan/ircbridge/internal/relay"
)

func TestHealthEndpoint(t *testing.T) {
	env := startTestServer(t, envOptions{})

	status, body, _ := env.get(t, "/health")
	if status != stdhttp.StatusOK || string(body) != "ok" {
		t.Fatalf("health = %d %q", status, body)
	}
}

func TestRelayRoundTrip(t *testing.T) {
	srv := startIRCServer(t)
	env := startTestServer(t, envOptions{})

	id := env.connect(t, srv.addr())
	evs := env.pullUntil(t, id, proto.CommandConnected)
	if evs[0].Command != proto.CommandConnecting {
		t.Fatalf("first event = %+v", evs[0])
	}
	conn := srv.accept(t)

	status, body := env.post(t, "/push/"+id, []byte(`[["PRIVMSG","#a","hi there"],["NICK","bad nick","x"]]`))
	if status != stdhttp.StatusOK {
		t.Fatalf("push status %d: %s", status, body)
	}
	var results []proto.Event
	if err := json.Unmarshal(body, &results); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if len(results) != 2 || results[0].Command != proto.CommandPushOK || results[1].Command != proto.CommandError {
		t.Fatalf("results = %+v", results)
	}
	if line := srv.nextLine(t); line != "PRIVMSG #a :hi there" {
		t.Fatalf("server got %q", line)
	}

	_, _ = io.WriteString(conn, ":bob!b@host PRIVMSG #a :yo\r\n")
	evs = env.pullUntil(t, id, "PRIVMSG")
	msg := evs[len(evs)-1]
	if msg.Prefix != "bob!b@host" || len(msg.Params) != 2 || msg.Params[1] != "yo" {
		t.Fatalf("privmsg = %+v", msg)
	}

	status, body, _ = env.get(t, "/history/"+id+"?limit=2")
	if status != stdhttp.StatusOK {
		t.Fatalf("history status %d: %s", status, body)
	}
	var history []HistoryEntry
	if err := json.Unmarshal(body, &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 2 || history[0].Direction != "out" || history[0].Event.Command != "PRIVMSG" ||
		history[1].Direction != "in" || history[1].Event.Prefix != "bob!b@host" {
		t.Fatalf("history = %+v", history)
	}

	_ = conn.Close()
	evs = env.pullUntil(t, id, proto.CommandError)
	if evs[len(evs)-1].Params[0] != "connection closed by server" {
		t.Fatalf("error event = %+v", evs[len(evs)-1])
	}
	status, body, header := env.get(t, "/pull/"+id)
	if status != stdhttp.StatusGone || header.Get(HeaderErrorCode) != relay.ErrCodeSessionClosed {
		t.Fatalf("pull after close = %d %s", status, body)
	}
	if status, _ := env.post(t, "/push/"+id, []byte(`[["NICK","x"]]`)); status != stdhttp.StatusGone {
		t.Fatalf("push after close = %d", status)
	}
}

func TestUnknownSession(t *testing.T) {
	env := startTestServer(t, envOptions{})

	status, body, header := env.get(t, "/pull/nope")
	if status != stdhttp.StatusNotFound {
		t.Fatalf("status = %d", status)
	}
	if strings.TrimSpace(string(body)) != `[["","ERROR",["Invalid connection id."]]]` {
		t.Fatalf("body = %s", body)
	}
	if header.Get(HeaderErrorCode) != relay.ErrCodeInvalidSession {
		t.Fatalf("code = %q", header.Get(HeaderErrorCode))
	}
	if status, _ := env.post(t, "/push/nope", []byte(`[]`)); status != stdhttp.StatusNotFound {
		t.Fatalf("push status = %d", status)
	}
}

func TestConnectRejectsBadServer(t *testing.T) {
	env := startTestServer(t, envOptions{})

	status, _, header := env.get(t, "/connect/irc.example.net:99999")
	if status != stdhttp.StatusBadRequest || header.Get(HeaderErrorCode) != relay.ErrCodeBadRequest {
		t.Fatalf("status = %d code = %q", status, header.Get(HeaderErrorCode))
	}
	if env.manager.Len() != 0 {
		t.Fatal("session created for a bad server")
	}
}

func TestPushRejectsBadBodies(t *testing.T) {
	srv := startIRCServer(t)
	env := startTestServer(t, envOptions{pushLimit: 64})
	id := env.connect(t, srv.addr())

	for _, payload := range []string{`not json`, `{"a":1}`, `null`} {
		if status, body := env.post(t, "/push/"+id, []byte(payload)); status != stdhttp.StatusBadRequest {
			t.Fatalf("payload %s: status %d %s", payload, status, body)
		}
	}

	big := `[["PRIVMSG","#a","` + strings.Repeat("x", 200) + `"]]`
	if status, _ := env.post(t, "/push/"+id, []byte(big)); status != stdhttp.StatusRequestEntityTooLarge {
		t.Fatalf("oversized body status = %d", status)
	}

	status, body := env.post(t, "/push/"+id, []byte(`[]`))
	if status != stdhttp.StatusOK || !bytes.Equal(bytes.TrimSpace(body), []byte(`[]`)) {
		t.Fatalf("empty push = %d %s", status, body)
	}
}

func TestSignedSessionHandles(t *testing.T) {
	srv := startIRCServer(t)
	env := startTestServer(t, envOptions{secret: "test-secret"})

	handle := env.connect(t, srv.addr())
	if strings.Count(handle, ".") != 2 {
		t.Fatalf("handle %q is not a JWT", handle)
	}
	env.pullUntil(t, handle, proto.CommandConnecting)

	if status, _, _ := env.get(t, "/pull/"+handle+"x"); status != stdhttp.StatusNotFound {
		t.Fatalf("tampered handle status = %d", status)
	}
}

func TestHistoryDisabled(t *testing.T) {
	env := startTestServer(t, envOptions{noStore: true})

	if status, _, _ := env.get(t, "/history/abc"); status != stdhttp.StatusNotImplemented {
		t.Fatalf("status = %d", status)
	}
}
