package client

import (
	"sort"
	"sync"

	"github.com/vovakirdan/ircbridge/internal/irc"
)

// Channel is the client's view of one channel: whether we are in it and
// who else is. Members are keyed by folded nickname.
type Channel struct {
	name string

	mu      sync.RWMutex
	joined  bool
	members map[string]string
}

// NewChannel constructs a channel with no members.
func NewChannel(name string) *Channel {
	return &Channel{
		name:    name,
		members: make(map[string]string),
	}
}

// Name returns the channel name as first seen.
func (ch *Channel) Name() string {
	return ch.name
}

// Joined reports whether we are currently in the channel.
func (ch *Channel) Joined() bool {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return ch.joined
}

// Has reports whether nick is a member.
func (ch *Channel) Has(nick string) bool {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	_, ok := ch.members[irc.Fold(nick)]
	return ok
}

// Members returns member nicknames sorted in folded order.
func (ch *Channel) Members() []string {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	keys := make([]string, 0, len(ch.members))
	for k := range ch.members {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, ch.members[k])
	}
	return out
}

// Len returns the number of members.
func (ch *Channel) Len() int {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return len(ch.members)
}

func (ch *Channel) setJoined(joined bool) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.joined = joined
	if !joined {
		clear(ch.members)
	}
}

func (ch *Channel) add(nicks ...string) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	for _, nick := range nicks {
		ch.members[irc.Fold(nick)] = nick
	}
}

// remove deletes nick and reports whether it was present.
func (ch *Channel) remove(nick string) bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	key := irc.Fold(nick)
	if _, ok := ch.members[key]; !ok {
		return false
	}
	delete(ch.members, key)
	return true
}

// rename moves a member to a new nickname and reports whether it was present.
func (ch *Channel) rename(from, to string) bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	key := irc.Fold(from)
	if _, ok := ch.members[key]; !ok {
		return false
	}
	delete(ch.members, key)
	ch.members[irc.Fold(to)] = to
	return true
}
