package http

import (
	"time"

	"github.com/vovakirdan/ircbridge/internal/irc"
	"github.com/vovakirdan/ircbridge/internal/proto"
	"github.com/vovakirdan/ircbridge/internal/store"
)

// HistoryEntry is one transcript row in /history responses.
type HistoryEntry struct {
	ID        int64       `json:"id"`
	Direction string      `json:"direction"`
	Event     proto.Event `json:"event"`
	CreatedAt string      `json:"created_at"`
}

func toStoreEvents(dir store.Direction, events []irc.Event) []store.Event {
	out := make([]store.Event, 0, len(events))
	for _, ev := range events {
		out = append(out, store.Event{
			Direction: dir,
			Prefix:    ev.Prefix,
			Command:   ev.Command,
			Params:    ev.Params,
		})
	}
	return out
}

func historyEntries(events []store.Event) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(events))
	for _, ev := range events {
		out = append(out, HistoryEntry{
			ID:        ev.ID,
			Direction: string(ev.Direction),
			Event:     proto.Event{Prefix: ev.Prefix, Command: ev.Command, Params: ev.Params},
			CreatedAt: ev.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

// commandEvent records an outbound command in event form.
func commandEvent(cmd irc.Command) irc.Event {
	params := make([]string, 0, len(cmd))
	if len(cmd) > 1 {
		params = append(params, cmd[1:]...)
	}
	return irc.Event{Command: cmd.Name(), Params: params}
}
