package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"net/url"
	"strings"

	"github.com/vovakirdan/ircbridge/internal/irc"
	"github.com/vovakirdan/ircbridge/internal/proto"
)

const maxResponseBytes = 4 << 20

var (
	// ErrSessionNotFound means the relay does not know the session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionClosed means the relay closed the session's IRC connection.
	ErrSessionClosed = errors.New("session closed")
	// ErrMalformedPayload means a relay response could not be decoded.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrNotConnected is returned by Send before a session exists.
	ErrNotConnected = errors.New("not connected")
	// ErrPushRejected wraps per-command errors reported by the relay.
	ErrPushRejected = errors.New("push rejected")
	// ErrBadRequest means the relay refused the request itself.
	ErrBadRequest = errors.New("bad request")
)

// Transport is the client's pair of channels to the relay.
type Transport interface {
	// Connect asks the relay to open an IRC connection and returns its session id.
	Connect(ctx context.Context, server string) (string, error)
	// Pull blocks until events are available or the relay's wait expires.
	Pull(ctx context.Context, sessionID string) ([]irc.Event, error)
	// Push sends commands and returns one result event per command.
	Push(ctx context.Context, sessionID string, cmds []irc.Command) ([]proto.Event, error)
}

// HTTPTransport talks to the relay's /connect, /pull and /push endpoints.
type HTTPTransport struct {
	base   string
	client *stdhttp.Client
}

// NewHTTPTransport builds a transport for the relay at baseURL. The client's
// timeout must be longer than the relay's pull wait.
func NewHTTPTransport(baseURL string, client *stdhttp.Client) *HTTPTransport {
	if client == nil {
		client = stdhttp.DefaultClient
	}
	return &HTTPTransport{
		base:   strings.TrimRight(baseURL, "/"),
		client: client,
	}
}

// Connect implements Transport.
func (t *HTTPTransport) Connect(ctx context.Context, server string) (string, error) {
	body, err := t.do(ctx, stdhttp.MethodGet, "/connect/"+url.PathEscape(server), nil)
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(string(body))
	if id == "" {
		return "", fmt.Errorf("%w: empty session id", ErrMalformedPayload)
	}
	return id, nil
}

// Pull implements Transport.
func (t *HTTPTransport) Pull(ctx context.Context, sessionID string) ([]irc.Event, error) {
	body, err := t.do(ctx, stdhttp.MethodGet, "/pull/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}
	var batch []proto.Event
	if err := json.Unmarshal(body, &batch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return proto.ToIRC(batch), nil
}

// Push implements Transport.
func (t *HTTPTransport) Push(ctx context.Context, sessionID string, cmds []irc.Command) ([]proto.Event, error) {
	payload, err := json.Marshal(cmds)
	if err != nil {
		return nil, fmt.Errorf("encode commands: %w", err)
	}
	body, err := t.do(ctx, stdhttp.MethodPost, "/push/"+url.PathEscape(sessionID), payload)
	if err != nil {
		return nil, err
	}
	var results []proto.Event
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return results, nil
}

func (t *HTTPTransport) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := stdhttp.NewRequestWithContext(ctx, method, t.base+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "text/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == stdhttp.StatusNotFound:
		return nil, ErrSessionNotFound
	case resp.StatusCode == stdhttp.StatusGone:
		return nil, ErrSessionClosed
	case resp.StatusCode == stdhttp.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", ErrBadRequest, relayError(body))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	return body, nil
}

// relayError extracts the message of an error batch, falling back to the raw body.
func relayError(body []byte) string {
	var batch []proto.Event
	if err := json.Unmarshal(body, &batch); err == nil && len(batch) > 0 {
		return irc.Event(batch[0]).Param(0)
	}
	return strings.TrimSpace(string(body))
}

// permanent reports errors that retrying cannot fix.
func permanent(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSessionClosed) ||
		errors.Is(err, ErrMalformedPayload) ||
		errors.Is(err, ErrBadRequest)
}
