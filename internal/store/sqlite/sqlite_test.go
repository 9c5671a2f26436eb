package sqlite

import (
	"context"
	"testing"

	"github.com/vovakirdan/ircbridge/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendAndRecentEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.AppendEvents(ctx, "sess-a", []store.Event{
		{Direction: store.DirectionIn, Command: "CONNECTED"},
		{Direction: store.DirectionOut, Command: "NICK", Params: []string{"me"}},
		{Direction: store.DirectionIn, Prefix: "bob!b@h", Command: "PRIVMSG", Params: []string{"#a", "hi there"}},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.AppendEvents(ctx, "sess-b", []store.Event{{Direction: store.DirectionIn, Command: "PING"}}); err != nil {
		t.Fatalf("append other session: %v", err)
	}

	all, err := s.RecentEvents(ctx, "sess-a", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d events, want 3", len(all))
	}
	if all[0].Command != "CONNECTED" || all[0].Params == nil || len(all[0].Params) != 0 {
		t.Fatalf("first event = %+v", all[0])
	}
	last := all[2]
	if last.Prefix != "bob!b@h" || last.Direction != store.DirectionIn || len(last.Params) != 2 || last.Params[1] != "hi there" {
		t.Fatalf("last event = %+v", last)
	}
	if last.CreatedAt.IsZero() || last.SessionID != "sess-a" {
		t.Fatalf("metadata missing: %+v", last)
	}

	tail, err := s.RecentEvents(ctx, "sess-a", 2)
	if err != nil {
		t.Fatalf("recent limit: %v", err)
	}
	if len(tail) != 2 || tail[0].Command != "NICK" || tail[1].Command != "PRIVMSG" {
		t.Fatalf("tail = %+v", tail)
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AppendEvents(ctx, "sess-a", []store.Event{{Direction: store.DirectionIn, Command: "PING"}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.DeleteSession(ctx, "sess-a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	evs, err := s.RecentEvents(ctx, "sess-a", 10)
	if err != nil || len(evs) != 0 {
		t.Fatalf("after delete = %v, %v", evs, err)
	}
}
