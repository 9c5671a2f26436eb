package client

import (
	"context"
	"fmt"

	"github.com/vovakirdan/ircbridge/internal/irc"
)

// Dispatch decodes ev and runs its handler. Events no handler consumes
// are passed to Observer.ServerMessage unchanged.
func (c *Connection) Dispatch(ctx context.Context, ev irc.Event) {
	if !c.handle(ctx, Decode(irc.Rename(ev))) {
		c.obs.ServerMessage(ev)
	}
}

// handle reports whether msg was fully consumed.
func (c *Connection) handle(ctx context.Context, msg Message) bool {
	switch m := msg.(type) {
	case Connected:
		return c.onConnected(ctx)
	case Ping:
		return c.onPing(ctx, m)
	case NamReply:
		return c.onNamReply(m)
	case EndOfNames:
		return c.onEndOfNames(m)
	case Join:
		return c.onJoin(m)
	case Part:
		return c.onPart(m)
	case Quit:
		return c.onQuit(m)
	case Nick:
		return c.onNick(m)
	case Privmsg:
		return c.onPrivmsg(m)
	case Welcome:
		return c.onWelcome(m)
	case NickInUse:
		return c.onNickInUse(ctx, m)
	case ServerError:
		return c.onServerError(m)
	case Unhandled:
		return false
	}
	return false
}

func (c *Connection) onConnected(ctx context.Context) bool {
	c.mu.Lock()
	c.online = true
	c.registered = false
	nick := c.nickname
	c.mu.Unlock()
	c.setState(StateConnected, nil)

	cmds := []irc.Command{
		irc.NewCommand("USER", nick, nick, c.server, nick),
		irc.NewCommand("NICK", nick),
	}
	if c.initialChannel != "" {
		cmds = append(cmds, irc.NewCommand("JOIN", c.initialChannel))
	}
	// Send reports failures through PushFailed.
	_ = c.Send(ctx, cmds...)
	return true
}

func (c *Connection) onPing(ctx context.Context, m Ping) bool {
	_ = c.Send(ctx, irc.NewCommand("PONG", m.Token))
	return true
}

func (c *Connection) onNamReply(m NamReply) bool {
	c.Channel(m.Channel).add(m.Nicks...)
	return true
}

func (c *Connection) onEndOfNames(m EndOfNames) bool {
	ch := c.Channel(m.Channel)
	c.obs.MembersReady(ch.Name(), ch.Members())
	return true
}

func (c *Connection) onJoin(m Join) bool {
	ch := c.Channel(m.Channel)
	nick := nickOf(m.Origin)
	if c.isSelf(nick) {
		ch.setJoined(true)
		c.obs.ChannelJoined(ch.Name())
		return true
	}
	ch.add(nick)
	c.obs.ChannelEvent(ch.Name(), fmt.Sprintf("%s(%s) has joined %s.", nick, m.Origin.Host, ch.Name()))
	c.obs.MemberJoined(ch.Name(), nick)
	return true
}

func (c *Connection) onPart(m Part) bool {
	ch := c.Channel(m.Channel)
	nick := nickOf(m.Origin)
	if c.isSelf(nick) {
		ch.setJoined(false)
		c.obs.ChannelLeft(ch.Name())
		return true
	}
	ch.remove(nick)
	c.obs.MemberRemoved(nick, m.Reason, []string{ch.Name()})
	return true
}

func (c *Connection) onQuit(m Quit) bool {
	nick := nickOf(m.Origin)
	if c.isSelf(nick) {
		left := c.quitChannels()
		for _, ch := range left {
			ch.setJoined(false)
			c.obs.ChannelLeft(ch.Name())
		}
		return len(left) > 0
	}

	var from []string
	for _, ch := range c.Channels() {
		if ch.remove(nick) {
			from = append(from, ch.Name())
		}
	}
	c.obs.MemberRemoved(nick, m.Reason, from)
	return true
}

// quitChannels picks the channels our own QUIT leaves: the joined ones,
// else every known channel, else the configured initial channel.
func (c *Connection) quitChannels() []*Channel {
	known := c.Channels()
	var joined []*Channel
	for _, ch := range known {
		if ch.Joined() {
			joined = append(joined, ch)
		}
	}
	switch {
	case len(joined) > 0:
		return joined
	case len(known) > 0:
		return known
	case c.initialChannel != "":
		return []*Channel{c.Channel(c.initialChannel)}
	}
	return nil
}

func (c *Connection) onNick(m Nick) bool {
	from := nickOf(m.Origin)
	if c.isSelf(from) {
		c.mu.Lock()
		c.nickname = m.To
		c.mu.Unlock()
	}

	seen := false
	for _, ch := range c.Channels() {
		if ch.rename(from, m.To) {
			seen = true
			c.obs.ChannelEvent(ch.Name(), fmt.Sprintf("%s is now known as %s.", from, m.To))
		}
	}
	return seen
}

func (c *Connection) onPrivmsg(m Privmsg) bool {
	if !irc.IsChannel(m.Target) {
		// No query windows; private messages go to the status view.
		return false
	}
	ch := c.Channel(m.Target)
	c.obs.ChannelMessage(ch.Name(), nickOf(m.Origin), m.Text)
	return true
}

// onWelcome adopts the nickname the server registered us under. The
// event is still shown in the status view.
func (c *Connection) onWelcome(m Welcome) bool {
	c.mu.Lock()
	c.registered = true
	if m.Nick != "" && m.Nick != "*" {
		c.nickname = m.Nick
	}
	c.mu.Unlock()
	return false
}

// onNickInUse picks an alternative nickname while registration is still
// pending. Afterwards the server keeps our old nick and nothing changes.
func (c *Connection) onNickInUse(ctx context.Context, m NickInUse) bool {
	c.mu.Lock()
	if c.registered || !irc.EqualFold(m.Nick, c.nickname) {
		c.mu.Unlock()
		return false
	}
	c.nickname = m.Nick + "_"
	next := c.nickname
	c.mu.Unlock()

	c.log.Info().Str("nick", m.Nick).Str("retry_as", next).Msg("nickname in use")
	_ = c.Send(ctx, irc.NewCommand("NICK", next))
	return false
}

// onServerError marks the IRC side as gone. The relay ends the session
// after it, so the next pull settles the final state.
func (c *Connection) onServerError(ServerError) bool {
	c.setOnline(false)
	return false
}

func (c *Connection) isSelf(nick string) bool {
	return irc.EqualFold(nick, c.Nickname())
}

// nickOf returns the nickname of a prefix. Prefixes without a '!' carry
// the bare name in Host.
func nickOf(p irc.Prefix) string {
	if p.User != "" {
		return p.User
	}
	return p.Host
}
