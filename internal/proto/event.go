// Package proto is the relay wire format shared by the HTTP relay and its
// clients. Events travel as three-element JSON arrays
// [prefix, command, params]; batches are JSON arrays of events.
package proto

import (
	"encoding/json"
	"fmt"

	"github.com/vovakirdan/ircbridge/internal/irc"
)

const (
	// Relay-originated commands. They never come from an IRC server.
	CommandConnecting     = "CONNECTING"
	CommandConnectTimeout = "CONNECT_TIMEOUT"
	CommandConnectError   = "CONNECT_ERROR"
	CommandConnected      = "CONNECTED"
	CommandError          = "ERROR"
	CommandPushOK         = "PUSH_OK"
)

// Event is the wire form of irc.Event.
type Event irc.Event

// MarshalJSON encodes the event as [prefix, command, params].
func (e Event) MarshalJSON() ([]byte, error) {
	params := e.Params
	if params == nil {
		params = []string{}
	}
	return json.Marshal([]any{e.Prefix, e.Command, params})
}

// UnmarshalJSON decodes [prefix, command, params]. A bare string in the
// params slot is accepted as a single parameter.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("decode event: want 3 elements, got %d", len(raw))
	}

	var ev Event
	if err := json.Unmarshal(raw[0], &ev.Prefix); err != nil {
		return fmt.Errorf("decode event prefix: %w", err)
	}
	if err := json.Unmarshal(raw[1], &ev.Command); err != nil {
		return fmt.Errorf("decode event command: %w", err)
	}
	if err := json.Unmarshal(raw[2], &ev.Params); err != nil {
		var single string
		if strErr := json.Unmarshal(raw[2], &single); strErr != nil {
			return fmt.Errorf("decode event params: %w", err)
		}
		ev.Params = []string{}
		if single != "" {
			ev.Params = append(ev.Params, single)
		}
	}
	if ev.Params == nil {
		ev.Params = []string{}
	}

	*e = ev
	return nil
}

// FromIRC converts a batch of events to wire form.
func FromIRC(events []irc.Event) []Event {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		out = append(out, Event(ev))
	}
	return out
}

// ToIRC converts a batch of wire events back.
func ToIRC(events []Event) []irc.Event {
	out := make([]irc.Event, 0, len(events))
	for _, ev := range events {
		out = append(out, irc.Event(ev))
	}
	return out
}

// OK is the push result for a command that reached the server.
func OK() Event {
	return Event{Command: CommandPushOK, Params: []string{}}
}

// Failure is an ERROR event carrying msg.
func Failure(msg string) Event {
	return Event{Command: CommandError, Params: []string{msg}}
}

// ErrorBatch wraps a single failure in a batch, which is how the relay
// reports request-level errors.
func ErrorBatch(msg string) []Event {
	return []Event{Failure(msg)}
}
