// Command indi-set writes INDI property items and waits for each
// device to confirm them.
//
// Usage:
//
//	indi-set [flags] device.property.item=value[;item=value...] ...
//
// Each argument names one property change. Switch items take On or
// Off, number items take decimal or sexagesimal forms, text items are
// sent verbatim. Changes are issued in argument order and each waits
// for confirmation before the next goes out; the command exits
// nonzero when a device answers Alert or a change does not confirm
// within the timeout.
//
// Flags:
//
//	-config path       profile file (YAML)
//	-host host         INDI server host (overrides the profile)
//	-port port         INDI server port (overrides the profile)
//	-url url           ws:// or wss:// endpoint instead of TCP
//	-timeout seconds   per-change confirmation bound
//	-protocol-log f    append protocol events to an .ilog file
//
// Examples:
//
//	indi-set Telescope.CONNECTION.CONNECT=On
//	indi-set "Telescope.EQUATORIAL_EOD_COORD.RA=5:35:17;DEC=-5:23:28"
//	indi-set CCD.CCD_TEMPERATURE.CCD_TEMPERATURE_VALUE=-10 CCD.CCD_BINNING.HOR_BIN=2
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/twinkle-astronomy/indi-go/internal/cli"
	"github.com/twinkle-astronomy/indi-go/pkg/client"
)

var opts cli.Options

func init() {
	opts.AddFlags(flag.CommandLine)
}

type request struct {
	device   string
	property string
	raw      map[string]string
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if flag.NArg() == 0 {
		return errors.New("no device.property.item=value argument")
	}
	reqs := make([]request, 0, flag.NArg())
	for _, arg := range flag.Args() {
		device, property, raw, err := cli.ParseSetArg(arg)
		if err != nil {
			return err
		}
		reqs = append(reqs, request{device: device, property: property, raw: raw})
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

	// When every change targets one device the initial getProperties
	// can be scoped server-side; one shared property narrows further.
	device, property := reqs[0].device, reqs[0].property
	for _, r := range reqs[1:] {
		if r.device != device {
			device, property = "", ""
			break
		}
		if r.property != property {
			property = ""
		}
	}

	c, closeConn, err := cli.Connect(ctx, profile, device, property)
	if err != nil {
		return err
	}
	defer closeConn()

	for _, r := range reqs {
		if err := apply(ctx, c, profile.GetTimeout(), profile.ChangeTimeout(), r); err != nil {
			return err
		}
	}
	return nil
}

func apply(ctx context.Context, c *client.Client, getWait, changeWait time.Duration, r request) error {
	getCtx, cancel := context.WithTimeout(ctx, getWait)
	defer cancel()

	dev, err := c.GetDevice(getCtx, r.device)
	if err != nil {
		return err
	}
	param, err := dev.Parameter(getCtx, r.property)
	if err != nil {
		return err
	}
	values, err := cli.ConvertValues(param.Snapshot(), r.raw)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", r.device, r.property, err)
	}

	changeCtx, cancelChange := context.WithTimeout(ctx, changeWait)
	defer cancelChange()
	_, err = param.Change(changeCtx, values)
	return err
}
