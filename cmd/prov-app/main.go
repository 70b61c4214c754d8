// Command prov-app simulates the companion app that provisions a device
// over its soft-AP control channel.
//
// Without arguments it opens an interactive shell. With arguments it runs a
// single command and exits.
//
// Usage:
//
//	prov-app [flags] [command args...]
//
// Flags:
//
//	-device string       Device control endpoint (default "192.168.4.1:8266")
//	-timeout duration    Reply timeout per attempt (default 2s)
//	-retries int         Resends when no reply arrives (default 2)
//	-browse-if string    Interface for mDNS browsing (default all)
//	-browse-wait duration How long a browse listens (default 3s)
//
// Examples:
//
//	# Interactive session against the default soft-AP address
//	prov-app
//
//	# Send credentials and a token in one shot
//	prov-app creds HomeNet secret 0123456789abcdef
//
//	# Fetch the device error log
//	prov-app -device 10.0.0.23:8266 log
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var (
	deviceAddr = flag.String("device", DefaultDeviceAddr, "Device control endpoint")
	timeout    = flag.Duration("timeout", 2*time.Second, "Reply timeout per attempt")
	retries    = flag.Int("retries", 2, "Resends when no reply arrives")
	browseIf   = flag.String("browse-if", "", "Interface for mDNS browsing (default all)")
	browseWait = flag.Duration("browse-wait", 3*time.Second, "How long a browse listens")
)

func main() {
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := NewClient(*deviceAddr, *timeout)
	client.Retries = *retries

	if flag.NArg() > 0 {
		if err := runOnce(ctx, os.Stdout, client, flag.Args()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	session, err := NewSession(client, *browseIf, *browseWait)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	session.Run(ctx, cancel)
}

// runOnce executes a single non-interactive command.
func runOnce(ctx context.Context, w io.Writer, client *Client, args []string) error {
	switch args[0] {
	case "creds":
		if len(args) != 4 {
			return fmt.Errorf("usage: creds <ssid> <password> <token>")
		}
		reply, err := client.SendCredentials(ctx, args[1], args[2], args[3])
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Device %s/%s (protocol %s)\n", reply.ProductID, reply.DeviceName, reply.ProtoVersion)

	case "token":
		if len(args) != 2 {
			return fmt.Errorf("usage: token <token>")
		}
		reply, err := client.SendToken(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Device %s/%s (protocol %s)\n", reply.ProductID, reply.DeviceName, reply.ProtoVersion)

	case "log":
		reply, err := client.QueryLog(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Device %s/%s: %d log entries\n", reply.ProductID, reply.DeviceName, len(reply.ErrorLog))
		writeLogEntries(w, reply.ErrorLog)

	default:
		return fmt.Errorf("unknown command %q (creds, token, log)", args[0])
	}
	return nil
}
