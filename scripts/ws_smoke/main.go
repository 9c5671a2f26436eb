package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/ircbridge/internal/irc"
	"github.com/vovakirdan/ircbridge/internal/proto"
)

func main() {
	relay := flag.String("relay", "http://localhost:8080", "relay base URL")
	server := flag.String("server", "irc.libera.chat", "IRC server")
	nick := flag.String("nick", "smoketest", "nickname to register")
	channel := flag.String("channel", "#ircbridge-test", "channel to join")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 30*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, *relay+"/connect/"+*server, nil)
	if err != nil {
		log.Fatalf("build connect request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("connect: status %d: %s", resp.StatusCode, body)
	}
	id := strings.TrimSpace(string(body))
	fmt.Printf("session %s\n", id)

	wsURL := strings.Replace(*relay, "http", "ws", 1) + "/stream/" + id
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	mustSend := func(cmds ...irc.Command) {
		if err := wsjson.Write(ctx, conn, cmds); err != nil {
			log.Fatalf("send: %v", err)
		}
	}

	for {
		var batch []proto.Event
		if err := wsjson.Read(ctx, conn, &batch); err != nil {
			log.Fatalf("read: %v", err)
		}
		for _, ev := range batch {
			fmt.Printf("%s %s %q\n", ev.Prefix, ev.Command, ev.Params)
			switch ev.Command {
			case proto.CommandConnected:
				mustSend(
					irc.NewCommand("USER", *nick, *nick, *server, *nick),
					irc.NewCommand("NICK", *nick),
				)
			case "PING":
				mustSend(irc.NewCommand("PONG", irc.Event(ev).Param(0)))
			case "WELCOME":
				mustSend(irc.NewCommand("JOIN", *channel))
			case "ENDOFNAMES":
				mustSend(irc.NewCommand("PRIVMSG", *channel, *text), irc.NewCommand("QUIT", "smoke test done"))
			case proto.CommandError:
				return
			}
		}
	}
}
