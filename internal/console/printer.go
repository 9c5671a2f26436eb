// Package console renders client notifications as plain text lines.
package console

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/vovakirdan/ircbridge/internal/client"
	"github.com/vovakirdan/ircbridge/internal/irc"
)

const timeFormat = "15:04:05"

// Printer is a client.Observer writing one timestamped line per
// notification. It also remembers which channel typed input goes to.
type Printer struct {
	mu     sync.Mutex
	out    io.Writer
	now    func() time.Time
	target string
}

var _ client.Observer = (*Printer)(nil)

// NewPrinter creates a printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, now: time.Now}
}

// Target returns the channel input is sent to, empty for the status view.
func (p *Printer) Target() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target
}

// SetTarget switches input to channel. An empty name selects the status view.
func (p *Printer) SetTarget(channel string) {
	p.mu.Lock()
	p.target = channel
	p.mu.Unlock()
	if channel == "" {
		p.printf("* input goes to the server")
		return
	}
	p.printf("* input goes to %s", channel)
}

// Echo shows a line we sent ourselves.
func (p *Printer) Echo(channel, nick, text string) {
	p.ChannelMessage(channel, nick, text)
}

func (p *Printer) StateChanged(state client.State, err error) {
	if err != nil {
		p.printf("* %s: %v", state, err)
		return
	}
	p.printf("* %s", state)
}

func (p *Printer) ServerMessage(ev irc.Event) {
	params, _ := json.Marshal(ev.Params)
	if ev.Prefix == "" {
		p.printf("%s %s", ev.Command, params)
		return
	}
	p.printf("%s %s %s", ev.Prefix, ev.Command, params)
}

func (p *Printer) PushFailed(cmds []irc.Command, err error) {
	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		names = append(names, c.Name())
	}
	p.printf("! could not send %s: %v", strings.Join(names, ", "), err)
}

func (p *Printer) ChannelJoined(channel string) {
	p.printf("* now talking on %s", channel)
	p.mu.Lock()
	if p.target == "" {
		p.target = channel
	}
	p.mu.Unlock()
}

func (p *Printer) ChannelLeft(channel string) {
	p.printf("* you have left %s", channel)
	p.mu.Lock()
	if irc.EqualFold(p.target, channel) {
		p.target = ""
	}
	p.mu.Unlock()
}

func (p *Printer) MembersReady(channel string, nicks []string) {
	p.printf("%s * users: %s", channel, strings.Join(nicks, " "))
}

// MemberJoined prints nothing; the join line arrives as a ChannelEvent.
func (p *Printer) MemberJoined(string, string) {}

func (p *Printer) MemberRemoved(nick, reason string, channels []string) {
	suffix := ""
	if reason != "" {
		suffix = " (" + reason + ")"
	}
	if len(channels) == 0 {
		p.printf("* %s has quit%s", nick, suffix)
		return
	}
	for _, ch := range channels {
		p.printf("%s * %s has left%s", ch, nick, suffix)
	}
}

func (p *Printer) ChannelEvent(channel, text string) {
	p.printf("%s * %s", channel, text)
}

func (p *Printer) ChannelMessage(channel, sender, text string) {
	p.printf("%s <%s> %s", channel, sender, text)
}

func (p *Printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "[%s] %s\n", p.now().Format(timeFormat), fmt.Sprintf(format, args...))
}
