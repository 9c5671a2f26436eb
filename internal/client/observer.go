package client

import "github.com/vovakirdan/ircbridge/internal/irc"

// Observer receives notifications from a Connection. Calls arrive from the
// goroutine running Connection.Run, except PushFailed, which may also come
// from the goroutine calling Send.
type Observer interface {
	// StateChanged reports a connection state transition. err is set for
	// transitions caused by a failure, including retries that keep the state.
	StateChanged(state State, err error)
	// ServerMessage carries events no handler consumed, for a status view.
	ServerMessage(ev irc.Event)
	// PushFailed reports commands the relay did not deliver.
	PushFailed(cmds []irc.Command, err error)

	ChannelJoined(channel string)
	ChannelLeft(channel string)
	// MembersReady delivers the complete member list after a NAMES run.
	MembersReady(channel string, nicks []string)
	MemberJoined(channel, nick string)
	// MemberRemoved reports a part or quit. channels lists where the nick
	// was removed; for quits it may be empty.
	MemberRemoved(nick, reason string, channels []string)
	// ChannelEvent is a human-readable line about channel activity.
	ChannelEvent(channel, text string)
	ChannelMessage(channel, sender, text string)
}

// NopObserver ignores every notification. Embed it to implement only
// the notifications you need.
type NopObserver struct{}

func (NopObserver) StateChanged(State, error)              {}
func (NopObserver) ServerMessage(irc.Event)                {}
func (NopObserver) PushFailed([]irc.Command, error)        {}
func (NopObserver) ChannelJoined(string)                   {}
func (NopObserver) ChannelLeft(string)                     {}
func (NopObserver) MembersReady(string, []string)          {}
func (NopObserver) MemberJoined(string, string)            {}
func (NopObserver) MemberRemoved(string, string, []string) {}
func (NopObserver) ChannelEvent(string, string)            {}
func (NopObserver) ChannelMessage(string, string, string)  {}
