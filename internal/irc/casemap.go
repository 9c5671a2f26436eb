package irc

import "strings"

// Fold lower-cases s using RFC 1459 case mapping, where []\~ are the
// upper-case forms of {}|^.
func Fold(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == '[':
			return '{'
		case r == ']':
			return '}'
		case r == '\\':
			return '|'
		case r == '~':
			return '^'
		}
		return r
	}, s)
}

// EqualFold reports whether a and b are the same nickname or channel.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// IsChannel reports whether target names a channel rather than a user.
func IsChannel(target string) bool {
	return target != "" && (target[0] == '#' || target[0] == '&')
}

// membershipPrefixes are the NAMES reply status markers (owner, admin, op, halfop, voice).
const membershipPrefixes = "~&@%+"

// StripMembership removes status markers from a NAMES reply token.
func StripMembership(nick string) string {
	return strings.TrimLeft(nick, membershipPrefixes)
}
