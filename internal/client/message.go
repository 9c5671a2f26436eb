package client

import (
	"strings"

	"github.com/vovakirdan/ircbridge/internal/irc"
)

// Message is a decoded protocol event. The set of implementations is
// closed; Dispatch switches over all of them.
type Message interface {
	message()
}

// Connected reports that the relay reached the IRC server.
type Connected struct{}

// Ping is a server keep-alive that must be answered with the same token.
type Ping struct {
	Token string
}

// NamReply carries one chunk of a channel's member list.
type NamReply struct {
	Kind    string
	Channel string
	Nicks   []string
}

// EndOfNames closes a run of NamReply events.
type EndOfNames struct {
	Channel string
}

// Join is someone, possibly us, entering a channel.
type Join struct {
	Origin  irc.Prefix
	Channel string
}

// Part is someone, possibly us, leaving one channel.
type Part struct {
	Origin  irc.Prefix
	Channel string
	Reason  string
}

// Quit is someone, possibly us, leaving the network.
type Quit struct {
	Origin irc.Prefix
	Reason string
}

// Nick is a nickname change.
type Nick struct {
	Origin irc.Prefix
	To     string
}

// Privmsg is a message to a channel or to us directly.
type Privmsg struct {
	Origin irc.Prefix
	Target string
	Text   string
}

// Welcome confirms registration and the nickname the server assigned.
type Welcome struct {
	Nick string
}

// NickInUse rejects a requested nickname.
type NickInUse struct {
	Nick string
}

// ServerError reports that the IRC connection behind the relay is gone.
type ServerError struct {
	Reason string
}

// Unhandled is any event without a dedicated handler, including
// recognized commands that arrived with too few parameters.
type Unhandled struct{}

func (Connected) message()   {}
func (Ping) message()        {}
func (NamReply) message()    {}
func (EndOfNames) message()  {}
func (Join) message()        {}
func (Part) message()        {}
func (Quit) message()        {}
func (Nick) message()        {}
func (Privmsg) message()     {}
func (Welcome) message()     {}
func (NickInUse) message()   {}
func (ServerError) message() {}
func (Unhandled) message()   {}

// Decode turns a relayed event into its typed form.
func Decode(ev irc.Event) Message {
	p := ev.Params
	switch strings.ToUpper(ev.Command) {
	case "CONNECTED":
		return Connected{}
	case "PING":
		if len(p) < 1 {
			return Unhandled{}
		}
		return Ping{Token: p[0]}
	case "NAMREPLY":
		// <me> <kind> <channel> :<names>; some servers leave out the kind.
		switch {
		case len(p) >= 4:
			return NamReply{Kind: p[1], Channel: p[2], Nicks: splitNames(p[3])}
		case len(p) == 3:
			return NamReply{Channel: p[1], Nicks: splitNames(p[2])}
		}
		return Unhandled{}
	case "ENDOFNAMES":
		if len(p) < 2 {
			return Unhandled{}
		}
		return EndOfNames{Channel: p[1]}
	case "JOIN":
		if len(p) < 1 {
			return Unhandled{}
		}
		return Join{Origin: irc.ParsePrefix(ev.Prefix), Channel: p[0]}
	case "PART":
		if len(p) < 1 {
			return Unhandled{}
		}
		return Part{Origin: irc.ParsePrefix(ev.Prefix), Channel: p[0], Reason: ev.Param(1)}
	case "QUIT":
		return Quit{Origin: irc.ParsePrefix(ev.Prefix), Reason: ev.Param(0)}
	case "NICK":
		if len(p) < 1 {
			return Unhandled{}
		}
		return Nick{Origin: irc.ParsePrefix(ev.Prefix), To: p[0]}
	case "PRIVMSG":
		if len(p) < 2 {
			return Unhandled{}
		}
		return Privmsg{Origin: irc.ParsePrefix(ev.Prefix), Target: p[0], Text: p[1]}
	case "WELCOME":
		if len(p) < 1 {
			return Unhandled{}
		}
		return Welcome{Nick: p[0]}
	case "NICKNAMEINUSE":
		if len(p) < 2 {
			return Unhandled{}
		}
		return NickInUse{Nick: p[1]}
	case "ERROR":
		return ServerError{Reason: ev.Param(0)}
	}
	return Unhandled{}
}

func splitNames(names string) []string {
	fields := strings.Fields(names)
	nicks := make([]string, 0, len(fields))
	for _, f := range fields {
		if nick := irc.StripMembership(f); nick != "" {
			nicks = append(nicks, nick)
		}
	}
	return nicks
}
