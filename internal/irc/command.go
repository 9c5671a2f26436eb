package irc

import (
	"errors"
	"fmt"
	"strings"
)

// MaxLineLength is the longest line a client may send, excluding CRLF.
const MaxLineLength = 510

// ErrBadCommand is returned when a command cannot be put on the wire safely.
var ErrBadCommand = errors.New("bad message")

// Command is an outbound command: name followed by its parameters.
type Command []string

// NewCommand builds a command from a name and parameters.
func NewCommand(name string, params ...string) Command {
	return append(Command{name}, params...)
}

// Name returns the upper-cased command name.
func (c Command) Name() string {
	if len(c) == 0 {
		return ""
	}
	return strings.ToUpper(c[0])
}

// FormatLine renders a command as a protocol line without CRLF.
// The last parameter goes out as a trailing parameter when it needs one,
// and always for USER. Middle parameters must be single non-empty tokens.
func FormatLine(cmd Command) (string, error) {
	name := cmd.Name()
	if name == "" {
		return "", fmt.Errorf("%w: missing command", ErrBadCommand)
	}
	if strings.ContainsAny(name, " :\r\n\x00") {
		return "", fmt.Errorf("%w: invalid command %q", ErrBadCommand, name)
	}

	var b strings.Builder
	b.WriteString(name)

	params := cmd[1:]
	for i, p := range params {
		if strings.ContainsAny(p, "\r\n\x00") {
			return "", fmt.Errorf("%w: control characters in parameter", ErrBadCommand)
		}
		if i == len(params)-1 {
			if name == "USER" || p == "" || strings.Contains(p, " ") || p[0] == ':' {
				b.WriteString(" :")
			} else {
				b.WriteByte(' ')
			}
			b.WriteString(p)
			break
		}
		if p == "" || strings.Contains(p, " ") || p[0] == ':' {
			return "", fmt.Errorf("%w: invalid parameter %q", ErrBadCommand, p)
		}
		b.WriteByte(' ')
		b.WriteString(p)
	}

	if b.Len() > MaxLineLength {
		return "", fmt.Errorf("%w: line exceeds %d bytes", ErrBadCommand, MaxLineLength)
	}
	return b.String(), nil
}
