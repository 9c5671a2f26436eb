package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/vovakirdan/ircbridge/internal/config"
	"github.com/vovakirdan/ircbridge/internal/irc"
	"github.com/vovakirdan/ircbridge/internal/proto"
)

// recorder is an Observer that logs every notification as a line.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) count(prefix string) int {
	n := 0
	for _, l := range r.lines() {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}

func (r *recorder) StateChanged(s State, err error) {
	if err != nil {
		r.add("state %s %v", s, err)
		return
	}
	r.add("state %s", s)
}
func (r *recorder) ServerMessage(ev irc.Event) {
	r.add("server %s %s %q", ev.Prefix, ev.Command, ev.Params)
}
func (r *recorder) PushFailed(cmds []irc.Command, err error) {
	r.add("pushfail %d %v", len(cmds), err)
}
func (r *recorder) ChannelJoined(ch string) { r.add("joined %s", ch) }
func (r *recorder) ChannelLeft(ch string)   { r.add("left %s", ch) }
func (r *recorder) MembersReady(ch string, nicks []string) {
	r.add("members %s %s", ch, strings.Join(nicks, ","))
}
func (r *recorder) MemberJoined(ch, nick string) { r.add("memberjoined %s %s", ch, nick) }
func (r *recorder) MemberRemoved(nick, reason string, chans []string) {
	r.add("memberremoved %s %q %s", nick, reason, strings.Join(chans, ","))
}
func (r *recorder) ChannelEvent(ch, text string) { r.add("event %s %s", ch, text) }
func (r *recorder) ChannelMessage(ch, sender, text string) {
	r.add("message %s <%s> %s", ch, sender, text)
}

// fakeTransport records pushes and serves scripted pull batches.
type fakeTransport struct {
	mu      sync.Mutex
	pushed  []irc.Command
	batches [][]irc.Event
	reject  map[string]string
}

func (f *fakeTransport) Connect(context.Context, string) (string, error) {
	return "sess-1", nil
}

func (f *fakeTransport) Pull(ctx context.Context, _ string) ([]irc.Event, error) {
	f.mu.Lock()
	if len(f.batches) > 0 {
		b := f.batches[0]
		f.batches = f.batches[1:]
		f.mu.Unlock()
		return b, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeTransport) Push(_ context.Context, _ string, cmds []irc.Command) ([]proto.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]proto.Event, 0, len(cmds))
	for _, c := range cmds {
		if msg, ok := f.reject[c.Name()]; ok {
			out = append(out, proto.Failure(msg))
			continue
		}
		f.pushed = append(f.pushed, c)
		out = append(out, proto.OK())
	}
	return out, nil
}

func (f *fakeTransport) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.pushed))
	for _, c := range f.pushed {
		out = append(out, strings.Join(c, " "))
	}
	return out
}

// newTestConnection returns a connection that already holds a session id,
// as if Run had connected.
func newTestConnection(t *testing.T, nick, channel string) (*Connection, *fakeTransport, *recorder) {
	t.Helper()
	tr := &fakeTransport{}
	rec := &recorder{}
	c := New(config.ClientConfig{Server: "irc.example.net", Nickname: nick, Channel: channel}, tr, rec, nil)
	c.id = "sess-1"
	return c, tr, rec
}

func ev(prefix, command string, params ...string) irc.Event {
	if params == nil {
		params = []string{}
	}
	return irc.Event{Prefix: prefix, Command: command, Params: params}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
