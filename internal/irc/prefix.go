package irc

import "strings"

// Prefix is the origin of an event. User is empty for server prefixes.
type Prefix struct {
	User string
	Host string
}

// ParsePrefix splits "nick!user@host" on the first '!'. Without a '!'
// the whole value is the host.
func ParsePrefix(s string) Prefix {
	user, host, ok := strings.Cut(s, "!")
	if !ok {
		return Prefix{Host: s}
	}
	return Prefix{User: user, Host: host}
}

// String reassembles the prefix in its wire form.
func (p Prefix) String() string {
	if p.User == "" {
		return p.Host
	}
	return p.User + "!" + p.Host
}
