// Command indi-shell is an interactive console for an INDI server.
//
// Usage:
//
//	indi-shell [flags]
//
// Flags:
//
//	-config path       profile file (YAML)
//	-host host         INDI server host (overrides the profile)
//	-port port         INDI server port (overrides the profile)
//	-url url           ws:// or wss:// endpoint instead of TCP
//	-timeout seconds   operation timeout
//	-protocol-log f    append protocol events to an .ilog file
//
// Interactive Commands:
//
//	devices                         list devices seen on this connection
//	props <device>                  list a device's properties
//	get <device.property>           print a property's items
//	set <device.property> item=value [item=value ...]
//	watch <device.property>         stream updates until Enter
//	blob <device> never|also|only   declare the BLOB policy
//	capture <device> <seconds> <file>
//	help                            show the command list
//	exit                            leave the shell
//
// Device messages arriving on the connection are shown between
// prompts.
//
// Examples:
//
//	indi-shell
//	indi-shell -host observatory -port 7624
//	indi-shell -url ws://observatory:8080/indi -protocol-log session.ilog
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/twinkle-astronomy/indi-go/cmd/indi-shell/interactive"
	"github.com/twinkle-astronomy/indi-go/internal/cli"
)

var opts cli.Options

func init() {
	opts.AddFlags(flag.CommandLine)
}

func main() {
	flag.Parse()

	profile, err := opts.Profile()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	relay := cli.NewMessageRelay()
	c, closeConn, err := cli.Connect(ctx, profile, "", "", relay)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer closeConn()

	sh, err := interactive.New(c, profile, relay)
	if err != nil {
		log.Fatalf("Failed to create shell: %v", err)
	}

	// Redirect log output through readline to avoid interfering with input
	log.SetOutput(sh.Stdout())

	target := profile.Server.URL
	if target == "" {
		target = profile.Addr()
	}
	fmt.Fprintf(sh.Stdout(), "Connected to %s. Type 'help' for commands.\n", target)

	go sh.Run(ctx, cancel)

	// Wait for shutdown signal or context cancellation
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
		// Cancelled by the shell's exit command
	}
}
