// Command indi-get reads INDI properties and prints them as
// device.property.item=value lines.
//
// Usage:
//
//	indi-get [flags] [device[.property]]
//
// Without an argument the tool collects definitions for the profile's
// get window and prints every property of every device. A device
// argument scopes the request server-side to that device; a
// device.property argument prints the single property as soon as it
// arrives.
//
// Flags:
//
//	-config path       profile file (YAML)
//	-host host         INDI server host (overrides the profile)
//	-port port         INDI server port (overrides the profile)
//	-url url           ws:// or wss:// endpoint instead of TCP
//	-timeout seconds   collection window and wait bound
//	-monitor           keep printing updates until interrupted
//	-protocol-log f    append protocol events to an .ilog file
//
// Examples:
//
//	indi-get
//	indi-get Telescope
//	indi-get Telescope.EQUATORIAL_EOD_COORD
//	indi-get -monitor Telescope.EQUATORIAL_EOD_COORD
//	indi-get -url ws://observatory:8080/indi -timeout 10
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/twinkle-astronomy/indi-go/internal/cli"
	"github.com/twinkle-astronomy/indi-go/pkg/client"
	"github.com/twinkle-astronomy/indi-go/pkg/model"
	"github.com/twinkle-astronomy/indi-go/pkg/notify"
)

var (
	opts    cli.Options
	monitor bool
)

func init() {
	opts.AddFlags(flag.CommandLine)
	flag.BoolVar(&monitor, "monitor", false, "keep printing updates until interrupted")
}

func main() {
	flag.Parse()
	if flag.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "Error: at most one device[.property] argument")
		flag.Usage()
		os.Exit(1)
	}
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var device, property string
	if flag.NArg() == 1 {
		device, property = cli.ParseScope(flag.Arg(0))
	}

	profile, err := opts.Profile()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	c, closeConn, err := cli.Connect(ctx, profile, device, property)
	if err != nil {
		return err
	}
	defer closeConn()

	if property != "" {
		return runProperty(ctx, c, device, property, profile.GetTimeout())
	}
	if monitor {
		return monitorAll(ctx, c, device)
	}

	// Definitions stream in with no end marker, so collect for the
	// get window before printing.
	timer := time.NewTimer(profile.GetTimeout())
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}
	printAll(os.Stdout, c, device)
	return nil
}

// runProperty prints one property, then follows it in monitor mode.
func runProperty(ctx context.Context, c *client.Client, device, property string, wait time.Duration) error {
	getCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	dev, err := c.GetDevice(getCtx, device)
	if err != nil {
		return err
	}
	param, err := dev.Parameter(getCtx, property)
	if err != nil {
		return err
	}
	if !monitor {
		cli.WriteParameter(os.Stdout, device, param.Snapshot())
		return nil
	}

	stream := param.Subscribe()
	for {
		snap, err := stream.Next(ctx)
		if err != nil {
			return monitorErr(ctx, err)
		}
		cli.WriteParameter(os.Stdout, device, snap.Value)
	}
}

// printAll dumps every known property, devices and items in sorted
// order. An empty device prints everything.
func printAll(w io.Writer, c *client.Client, device string) {
	devices := c.Devices().Get()
	names := make([]string, 0, len(devices))
	for name := range devices {
		if device != "" && name != device {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ps := devices[name].Parameters().Get()
		for _, prop := range ps.Names() {
			cell, ok := ps.Get(prop)
			if !ok {
				continue
			}
			cli.WriteParameter(w, name, cell.Get())
		}
	}
}

// monitorAll follows every property of every matching device, printing
// each snapshot as it arrives. Properties defined later join the watch
// as their definitions come in.
func monitorAll(ctx context.Context, c *client.Client, device string) error {
	var printMu sync.Mutex

	watchCell := func(devName string, cell *notify.Notify[model.Parameter]) {
		go func() {
			stream := cell.Subscribe()
			for {
				snap, err := stream.Next(ctx)
				if err != nil {
					return
				}
				printMu.Lock()
				cli.WriteParameter(os.Stdout, devName, snap.Value)
				printMu.Unlock()
			}
		}()
	}

	watchDevice := func(dev *client.Device) {
		go func() {
			watched := make(map[string]bool)
			stream := dev.Parameters().Subscribe()
			for {
				snap, err := stream.Next(ctx)
				if err != nil {
					return
				}
				for name := range watched {
					if _, ok := snap.Value.Get(name); !ok {
						delete(watched, name)
					}
				}
				for _, name := range snap.Value.Names() {
					if watched[name] {
						continue
					}
					watched[name] = true
					cell, _ := snap.Value.Get(name)
					watchCell(dev.Name(), cell)
				}
			}
		}()
	}

	watched := make(map[string]bool)
	stream := c.Devices().Subscribe()
	for {
		snap, err := stream.Next(ctx)
		if err != nil {
			return monitorErr(ctx, err)
		}
		for name := range watched {
			if _, ok := snap.Value[name]; !ok {
				delete(watched, name)
			}
		}
		for name, dev := range snap.Value {
			if device != "" && name != device {
				continue
			}
			if watched[name] {
				continue
			}
			watched[name] = true
			watchDevice(dev)
		}
	}
}

// monitorErr folds the two expected ways a monitor ends: interrupt is
// a clean exit, a closed cell means the server went away.
func monitorErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	if errors.Is(err, notify.ErrClosed) {
		return client.ErrDisconnected
	}
	return err
}
