package client

import (
	"errors"
	"strings"

	"github.com/vovakirdan/ircbridge/internal/irc"
)

// ErrEmptyInput is returned for blank input lines and a bare "/".
var ErrEmptyInput = errors.New("empty input")

// Input is one interpreted line of user input.
type Input struct {
	Command irc.Command
	// Echo is set for plain chat lines, which the server does not send
	// back to us and so must be shown locally.
	Echo bool
}

// trailingAfter maps commands with a free-text argument to the number of
// single-word params that precede it.
var trailingAfter = map[string]int{
	"PRIVMSG": 1,
	"NOTICE":  1,
	"PART":    1,
	"TOPIC":   1,
	"KICK":    2,
	"QUIT":    0,
	"AWAY":    0,
}

var aliases = map[string]string{
	"MSG": "PRIVMSG",
}

// ParseInput interprets a line typed while target is active. target is a
// channel name, or empty for the status view.
//
// "/cmd args" becomes a command. A plain line becomes a PRIVMSG to a
// channel target, or is sent raw from the status view.
func ParseInput(line, target string) (Input, error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return Input{}, ErrEmptyInput
	}

	if rest, ok := strings.CutPrefix(line, "/"); ok {
		cmd := parseCommand(rest)
		if cmd == nil {
			return Input{}, ErrEmptyInput
		}
		return Input{Command: cmd}, nil
	}

	if target != "" && irc.IsChannel(target) {
		return Input{Command: irc.NewCommand("PRIVMSG", target, line), Echo: true}, nil
	}
	return Input{Command: parseCommand(line)}, nil
}

func parseCommand(s string) irc.Command {
	name, rest := nextWord(s)
	if name == "" {
		return nil
	}
	name = strings.ToUpper(name)
	if alias, ok := aliases[name]; ok {
		name = alias
	}

	words, hasTrailing := trailingAfter[name]
	cmd := irc.NewCommand(name)
	for rest != "" {
		if hasTrailing && len(cmd)-1 == words {
			cmd = append(cmd, rest)
			break
		}
		var w string
		w, rest = nextWord(rest)
		if w == "" {
			break
		}
		cmd = append(cmd, w)
	}
	return cmd
}

// nextWord splits off the first whitespace-separated word and returns the
// remainder without its leading whitespace.
func nextWord(s string) (string, string) {
	s = strings.TrimLeft(s, " \t")
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimLeft(s[i:], " \t")
	}
	return s, ""
}
