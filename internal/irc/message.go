// Package irc holds the pieces of the IRC wire protocol the bridge needs:
// line parsing, prefix parsing, numeric reply names, outbound command
// formatting and RFC 1459 case folding.
package irc

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyLine is returned for blank protocol lines.
	ErrEmptyLine = errors.New("empty line")
	// ErrMalformedLine is returned for lines that carry no command.
	ErrMalformedLine = errors.New("malformed line")
)

// Event is one protocol event: origin prefix, command and parameters.
type Event struct {
	Prefix  string
	Command string
	Params  []string
}

// Param returns the i-th parameter or an empty string when absent.
func (e Event) Param(i int) string {
	if i < 0 || i >= len(e.Params) {
		return ""
	}
	return e.Params[i]
}

// ParseLine breaks a raw server line into prefix, command and params.
// A trailing parameter introduced by " :" is kept whole.
func ParseLine(line string) (Event, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return Event{}, ErrEmptyLine
	}

	var ev Event
	if line[0] == ':' {
		prefix, rest, ok := strings.Cut(line[1:], " ")
		if !ok {
			return Event{}, fmt.Errorf("%w: prefix without command", ErrMalformedLine)
		}
		ev.Prefix = prefix
		line = rest
	}

	var args []string
	if head, trailing, ok := strings.Cut(line, " :"); ok {
		args = append(strings.Fields(head), trailing)
	} else {
		args = strings.Fields(line)
	}
	if len(args) == 0 {
		return Event{}, fmt.Errorf("%w: missing command", ErrMalformedLine)
	}

	ev.Command = args[0]
	ev.Params = make([]string, 0, len(args)-1)
	ev.Params = append(ev.Params, args[1:]...)
	return ev, nil
}
