package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/pulse-protocol/pulse-go/pkg/client"
	"github.com/pulse-protocol/pulse-go/pkg/discovery"
	"github.com/pulse-protocol/pulse-go/pkg/subscription"
)

// payload is the generic message body the shell works with. Typed Go
// clients declare their own structs; the shell stays schemaless.
type payload = map[string]any

const requestTimeout = 5 * time.Second

// shell is the interactive command loop.
type shell struct {
	conn *client.Conn
	rl   *readline.Instance

	nextID  int
	handles map[int]*shellSub
}

// shellSub tracks one handle the user created, for unsub and list.
type shellSub struct {
	subject   string
	queue     string
	responder bool
	handle    *subscription.Handle
}

func newShell(conn *client.Conn) (*shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "pulse> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &shell{
		conn:    conn,
		rl:      rl,
		nextID:  1,
		handles: make(map[int]*shellSub),
	}, nil
}

// Run reads and dispatches commands until EOF, quit or ctx cancellation.
func (s *shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "help", "h", "?":
			s.printHelp()
		case "sub":
			s.cmdSub(fields[1:])
		case "unsub":
			s.cmdUnsub(fields[1:])
		case "pub":
			s.cmdPub(fields[1:])
		case "req":
			s.cmdReq(ctx, fields[1:])
		case "respond":
			s.cmdRespond(fields[1:])
		case "list", "subs":
			s.cmdList()
		case "status":
			s.cmdStatus()
		case "discover":
			s.cmdDiscover(ctx)
		case "quit", "exit", "q":
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return
		default:
			fmt.Fprintf(s.rl.Stderr(), "Unknown command: %s (try 'help')\n", fields[0])
		}
	}
}

func (s *shell) cmdSub(args []string) {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(s.rl.Stderr(), "Usage: sub <subject> [queue]")
		return
	}
	subject := args[0]
	queue := ""
	if len(args) == 2 {
		queue = args[1]
	}

	out := s.rl.Stdout()
	handler := func(msg payload) {
		data, _ := json.Marshal(msg)
		fmt.Fprintf(out, "[%s] %s\n", subject, data)
	}

	var (
		h   *subscription.Handle
		err error
	)
	if queue == "" {
		h, err = client.Subscribe(s.conn, subject, handler)
	} else {
		h, err = client.SubscribeQueue(s.conn, subject, queue, handler)
	}
	if err != nil {
		fmt.Fprintf(s.rl.Stderr(), "Subscribe failed: %v\n", err)
		return
	}

	id := s.nextID
	s.nextID++
	s.handles[id] = &shellSub{subject: subject, queue: queue, handle: h}
	fmt.Fprintf(out, "Subscribed #%d to %s\n", id, subject)
}

func (s *shell) cmdUnsub(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stderr(), "Usage: unsub <id>")
		return
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stderr(), "Invalid id: %s\n", args[0])
		return
	}

	sub, ok := s.handles[id]
	if !ok {
		fmt.Fprintf(s.rl.Stderr(), "No subscription #%d\n", id)
		return
	}
	sub.handle.Dispose()
	delete(s.handles, id)
	fmt.Fprintf(s.rl.Stdout(), "Disposed #%d (%s)\n", id, sub.subject)
}

func (s *shell) cmdPub(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.rl.Stderr(), "Usage: pub <subject> <json>")
		return
	}
	msg, err := parseJSON(strings.Join(args[1:], " "))
	if err != nil {
		fmt.Fprintf(s.rl.Stderr(), "Invalid JSON: %v\n", err)
		return
	}

	if err := client.Publish(s.conn, args[0], msg); err != nil {
		fmt.Fprintf(s.rl.Stderr(), "Publish failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "Published to %s\n", args[0])
}

func (s *shell) cmdReq(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.rl.Stderr(), "Usage: req <subject> <json>")
		return
	}
	msg, err := parseJSON(strings.Join(args[1:], " "))
	if err != nil {
		fmt.Fprintf(s.rl.Stderr(), "Invalid JSON: %v\n", err)
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := client.Request[payload, payload](reqCtx, s.conn, args[0], msg)
	if err != nil {
		fmt.Fprintf(s.rl.Stderr(), "Request failed: %v\n", err)
		return
	}
	data, _ := json.Marshal(resp)
	fmt.Fprintf(s.rl.Stdout(), "Response: %s\n", data)
}

func (s *shell) cmdRespond(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.rl.Stderr(), "Usage: respond <subject> <json>")
		return
	}
	subject := args[0]
	reply, err := parseJSON(strings.Join(args[1:], " "))
	if err != nil {
		fmt.Fprintf(s.rl.Stderr(), "Invalid JSON: %v\n", err)
		return
	}

	out := s.rl.Stdout()
	h, err := client.RespondTo(s.conn, subject, func(req payload) (payload, error) {
		data, _ := json.Marshal(req)
		fmt.Fprintf(out, "[%s] request %s\n", subject, data)
		return reply, nil
	})
	if err != nil {
		fmt.Fprintf(s.rl.Stderr(), "Respond failed: %v\n", err)
		return
	}

	id := s.nextID
	s.nextID++
	s.handles[id] = &shellSub{subject: subject, responder: true, handle: h}
	fmt.Fprintf(out, "Responding #%d on %s\n", id, subject)
}

func (s *shell) cmdList() {
	out := s.rl.Stdout()

	if len(s.handles) == 0 {
		fmt.Fprintln(out, "No subscriptions")
	} else {
		ids := make([]int, 0, len(s.handles))
		for id := range s.handles {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			sub := s.handles[id]
			kind := "sub"
			if sub.responder {
				kind = "responder"
			}
			if sub.queue != "" {
				fmt.Fprintf(out, "  #%d %s %s (queue %s)\n", id, kind, sub.subject, sub.queue)
			} else {
				fmt.Fprintf(out, "  #%d %s %s\n", id, kind, sub.subject)
			}
		}
	}

	active := s.conn.ActiveSubscriptions()
	fmt.Fprintf(out, "Wire subscriptions: %d\n", len(active))
	for _, a := range active {
		if a.Queue != "" {
			fmt.Fprintf(out, "  sid=%d %s (queue %s)\n", a.SID, a.Subject, a.Queue)
		} else {
			fmt.Fprintf(out, "  sid=%d %s\n", a.SID, a.Subject)
		}
	}
}

func (s *shell) cmdStatus() {
	out := s.rl.Stdout()
	fmt.Fprintf(out, "State:    %s\n", s.conn.State())
	fmt.Fprintf(out, "Handlers: %d\n", s.conn.ActiveHandlers())
	fmt.Fprintf(out, "Wire:     %d subscription(s)\n", len(s.conn.ActiveSubscriptions()))
}

func (s *shell) cmdDiscover(ctx context.Context) {
	out := s.rl.Stdout()
	fmt.Fprintln(out, "Browsing for brokers...")

	browseCtx, cancel := context.WithTimeout(ctx, discovery.BrowseTimeout)
	defer cancel()

	browser := discovery.NewBrowser(discovery.BrowserConfig{})
	results, err := browser.Browse(browseCtx, "")
	if err != nil {
		fmt.Fprintf(s.rl.Stderr(), "Browse failed: %v\n", err)
		return
	}

	found := 0
	for svc := range results {
		found++
		fmt.Fprintf(out, "  %s cluster=%s addrs=%s port=%d\n",
			svc.InstanceName, svc.Info.ClusterID,
			strings.Join(svc.Addresses, ","), svc.Port)
	}
	if found == 0 {
		fmt.Fprintln(out, "No brokers found")
	}
}

func (s *shell) printHelp() {
	fmt.Fprint(s.rl.Stdout(), `Commands:
  sub <subject> [queue]     Subscribe to a subject
  unsub <id>                Dispose a subscription handle
  pub <subject> <json>      Publish a JSON payload
  req <subject> <json>      Send a request, print the response
  respond <subject> <json>  Answer requests with a fixed payload
  list                      List live subscriptions
  status                    Show connection state
  discover                  Browse for brokers via mDNS
  quit                      Exit
`)
}

// parseJSON decodes a JSON object or bare value into a payload.
func parseJSON(src string) (payload, error) {
	var msg payload
	if err := json.Unmarshal([]byte(src), &msg); err == nil {
		return msg, nil
	}
	// Bare values ("hi", 42) are wrapped for convenience.
	var v any
	if err := json.Unmarshal([]byte(src), &v); err != nil {
		return nil, err
	}
	return payload{"value": v}, nil
}
