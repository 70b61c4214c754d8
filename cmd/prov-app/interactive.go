package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/mash-protocol/devprov/pkg/discovery"
	"github.com/mash-protocol/devprov/pkg/wire"
)

// Session is the interactive companion-app shell.
type Session struct {
	client     *Client
	rl         *readline.Instance
	browseIf   string
	browseWait time.Duration

	// found holds the devices seen by the last browse, in display order.
	found []*discovery.ProvisioningService
}

// NewSession creates an interactive session talking through client.
func NewSession(client *Client, browseIf string, browseWait time.Duration) (*Session, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "app> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Session{
		client:     client,
		rl:         rl,
		browseIf:   browseIf,
		browseWait: browseWait,
	}, nil
}

// Stdout returns a writer that coordinates with the prompt.
func (s *Session) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run starts the command loop. It returns when the user quits or ctx ends.
func (s *Session) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()
	s.printTarget()

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

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			s.printHelp()

		case "creds", "c":
			s.cmdCreds(ctx, args)

		case "token", "t":
			s.cmdToken(ctx, args)

		case "log", "l":
			s.cmdLog(ctx)

		case "browse", "b":
			s.cmdBrowse(ctx)

		case "target":
			s.cmdTarget(args)

		case "quit", "exit", "q":
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(s.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (s *Session) printHelp() {
	fmt.Fprintln(s.rl.Stdout(), `
Companion App Commands:
  Provisioning:
    creds <ssid> <password> <token> - Send network credentials and binding token
    token <token>                   - Send a binding token only
    log                             - Query the device error log

  Discovery:
    browse                          - Browse for unprovisioned devices
    target [addr|#n]                - Show or set the device endpoint

  Other:
    help                            - Show this help
    quit                            - Exit`)
}

func (s *Session) printTarget() {
	fmt.Fprintf(s.rl.Stdout(), "Target device: %s\n", s.client.Addr)
}

func (s *Session) cmdCreds(ctx context.Context, args []string) {
	if len(args) != 3 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: creds <ssid> <password> <token>")
		return
	}
	reply, err := s.client.SendCredentials(ctx, args[0], args[1], args[2])
	s.printReply(reply, err)
}

func (s *Session) cmdToken(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: token <token>")
		return
	}
	reply, err := s.client.SendToken(ctx, args[0])
	s.printReply(reply, err)
}

func (s *Session) cmdLog(ctx context.Context) {
	reply, err := s.client.QueryLog(ctx)
	s.printReply(reply, err)
	if err != nil || reply == nil {
		return
	}
	if len(reply.ErrorLog) == 0 {
		fmt.Fprintln(s.rl.Stdout(), "  (error log empty)")
		return
	}
	writeLogEntries(s.rl.Stdout(), reply.ErrorLog)
}

func (s *Session) cmdBrowse(ctx context.Context) {
	browseCtx, cancel := context.WithTimeout(ctx, s.browseWait)
	defer cancel()

	browser := discovery.NewMDNSBrowser(discovery.BrowserConfig{Interface: s.browseIf})
	services, err := browser.Browse(browseCtx)
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Browse failed: %v\n", err)
		return
	}

	fmt.Fprintf(s.rl.Stdout(), "Browsing for %s...\n", s.browseWait)
	s.found = s.found[:0]
	for svc := range services {
		s.found = append(s.found, svc)
		fmt.Fprintf(s.rl.Stdout(), "  #%d %s (%s/%s) %s v%s\n",
			len(s.found), svc.InstanceName, svc.ProductID, svc.DeviceName,
			serviceAddr(svc), svc.ProtoVersion)
	}
	if len(s.found) == 0 {
		fmt.Fprintln(s.rl.Stdout(), "  No devices found")
	}
}

func (s *Session) cmdTarget(args []string) {
	if len(args) == 0 {
		s.printTarget()
		return
	}

	arg := args[0]
	if strings.HasPrefix(arg, "#") {
		n, err := strconv.Atoi(arg[1:])
		if err != nil || n < 1 || n > len(s.found) {
			fmt.Fprintf(s.rl.Stdout(), "No browsed device %s\n", arg)
			return
		}
		arg = serviceAddr(s.found[n-1])
	}
	if _, _, err := net.SplitHostPort(arg); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Invalid address %q: %v\n", arg, err)
		return
	}
	s.client.Addr = arg
	s.printTarget()
}

func (s *Session) printReply(reply *wire.DeviceReply, err error) {
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		if reply == nil {
			return
		}
	}
	fmt.Fprintf(s.rl.Stdout(), "Device %s/%s (protocol %s)\n", reply.ProductID, reply.DeviceName, reply.ProtoVersion)
}

// serviceAddr picks a dialable endpoint for a browsed device.
func serviceAddr(svc *discovery.ProvisioningService) string {
	host := svc.Host
	if len(svc.Addresses) > 0 {
		host = svc.Addresses[0]
	}
	host = strings.TrimSuffix(host, ".")
	return net.JoinHostPort(host, strconv.Itoa(int(svc.Port)))
}

func writeLogEntries(w io.Writer, entries []wire.LogEntry) {
	for _, e := range entries {
		ts := time.UnixMilli(e.Timestamp).Format("15:04:05.000")
		if e.Code != 0 {
			fmt.Fprintf(w, "  %s [%s] %d %s\n", ts, e.Layer, e.Code, e.Message)
		} else {
			fmt.Fprintf(w, "  %s [%s] %s\n", ts, e.Layer, e.Message)
		}
	}
}
