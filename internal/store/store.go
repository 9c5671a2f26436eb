// Package store persists relay session transcripts.
package store

import (
	"context"
	"time"
)

// Direction tells whether an entry came from the server or the client.
type Direction string

const (
	// DirectionIn is an event relayed to the client.
	DirectionIn Direction = "in"
	// DirectionOut is a command pushed by the client.
	DirectionOut Direction = "out"
)

// Event is one transcript entry.
type Event struct {
	ID        int64
	SessionID string
	Direction Direction
	Prefix    string
	Command   string
	Params    []string
	CreatedAt time.Time
}

// TranscriptStore records relay traffic per session.
type TranscriptStore interface {
	// AppendEvents stores events for sessionID in order.
	AppendEvents(ctx context.Context, sessionID string, events []Event) error
	// RecentEvents returns up to limit of the newest events, oldest first.
	RecentEvents(ctx context.Context, sessionID string, limit int) ([]Event, error)
	// DeleteSession drops a session's transcript.
	DeleteSession(ctx context.Context, sessionID string) error
}

// Store combines all store interfaces.
type Store interface {
	TranscriptStore
	Close() error
}
