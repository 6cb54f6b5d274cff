// Package interactive provides the interactive command loop for
// indi-shell.
package interactive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/twinkle-astronomy/indi-go/internal/cli"
	"github.com/twinkle-astronomy/indi-go/pkg/client"
	"github.com/twinkle-astronomy/indi-go/pkg/config"
	"github.com/twinkle-astronomy/indi-go/pkg/wire"
)

// Shell handles interactive mode for indi-shell.
type Shell struct {
	client  *client.Client
	profile *config.Profile
	relay   *cli.MessageRelay
	rl      *readline.Instance

	// blobPolicy remembers the policy declared per device on this
	// connection. Only the Run goroutine touches it.
	blobPolicy map[string]wire.BlobEnable
}

// New creates a new interactive shell. The relay feeds device
// messages into the console between prompts; pass nil to disable.
func New(c *client.Client, profile *config.Profile, relay *cli.MessageRelay) (*Shell, error) {
	s := &Shell{
		client:     c,
		profile:    profile,
		relay:      relay,
		blobPolicy: make(map[string]wire.BlobEnable),
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "indi> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    s.completer(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	s.rl = rl
	return s, nil
}

// Stdout returns a writer that properly coordinates with the readline
// input. Use this for log output to avoid interfering with the prompt.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Stderr returns a writer that properly coordinates with the readline input.
func (s *Shell) Stderr() io.Writer {
	return s.rl.Stderr()
}

// Run starts the interactive command loop.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	if s.relay != nil {
		go s.showMessages(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
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

		case "devices", "ls":
			s.cmdDevices()

		case "props", "p":
			s.cmdProps(ctx, args)

		case "get", "g":
			s.cmdGet(ctx, args)

		case "set":
			s.cmdSet(ctx, args)

		case "watch", "w":
			s.cmdWatch(ctx, args)

		case "blob":
			s.cmdBlob(ctx, args)

		case "capture", "cap":
			s.cmdCapture(ctx, args)

		case "quit", "exit", "q":
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(s.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.rl.Stdout(), `
INDI Shell Commands:
  Browsing:
    devices                    - List devices seen on this connection
    props <device>             - List a device's properties
    get <device.property>      - Print a property's items

  Control:
    set <device.property> item=value [item=value ...]
                               - Change items and wait for confirmation
    watch <device.property>    - Stream updates until Enter is pressed

  Imaging:
    blob <device> never|also|only
                               - Declare the BLOB policy for a device
    capture <device> <seconds> <file>
                               - Expose and save the resulting image

  General:
    help                       - Show this help
    quit                       - Exit the shell

  Value Format:
    Switches take On or Off, numbers take decimal (5.5) or
    sexagesimal (5:30:00) forms, text is sent verbatim.`)
}

// showMessages displays device messages between prompts.
func (s *Shell) showMessages(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.relay.Events():
			device := ev.DeviceMessage.Device
			if device == "" {
				device = "server"
			}
			fmt.Fprintf(s.rl.Stdout(), "[%s] %s\n", device, ev.DeviceMessage.Message)
			s.rl.Refresh()
		}
	}
}

// completer builds tab completion over the live device tree.
func (s *Shell) completer() readline.AutoCompleter {
	devices := readline.PcItemDynamic(s.deviceNames)
	properties := readline.PcItemDynamic(s.propertyRefs)
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("devices"),
		readline.PcItem("props", devices),
		readline.PcItem("get", properties),
		readline.PcItem("set", properties),
		readline.PcItem("watch", properties),
		readline.PcItem("blob", readline.PcItemDynamic(s.deviceNames,
			readline.PcItem("never"),
			readline.PcItem("also"),
			readline.PcItem("only"),
		)),
		readline.PcItem("capture", devices),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
	)
}

func (s *Shell) deviceNames(string) []string {
	devices := s.client.Devices().Get()
	names := make([]string, 0, len(devices))
	for name := range devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Shell) propertyRefs(string) []string {
	devices := s.client.Devices().Get()
	refs := make([]string, 0, len(devices))
	for name, dev := range devices {
		for _, prop := range dev.Parameters().Get().Names() {
			refs = append(refs, name+"."+prop)
		}
	}
	sort.Strings(refs)
	return refs
}

// cmdDevices lists the known devices and their property counts.
func (s *Shell) cmdDevices() {
	devices := s.client.Devices().Get()
	if len(devices) == 0 {
		fmt.Fprintln(s.rl.Stdout(), "No devices yet. Definitions may still be arriving.")
		return
	}
	for _, name := range s.deviceNames("") {
		ps := devices[name].Parameters().Get()
		fmt.Fprintf(s.rl.Stdout(), "  %-32s %d properties\n", name, ps.Len())
	}
}

// cmdProps lists one device's properties with kind, state and perm.
func (s *Shell) cmdProps(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: props <device>")
		return
	}
	dev, err := s.getDevice(ctx, args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	ps := dev.Device().Parameters().Get()
	for _, name := range ps.Names() {
		cell, ok := ps.Get(name)
		if !ok {
			continue
		}
		p := cell.Get()
		line := fmt.Sprintf("  %-28s %-6s %-5s %s", name, p.Kind(), p.ParamState(), p.ParamPerm())
		if label := p.ParamLabel(); label != "" && label != name {
			line += "  " + label
		}
		fmt.Fprintln(s.rl.Stdout(), line)
	}
}

// cmdGet prints one property.
func (s *Shell) cmdGet(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: get <device.property>")
		return
	}
	device, param, err := s.getParameter(ctx, args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	p := param.Snapshot()
	fmt.Fprintf(s.rl.Stdout(), "%s.%s  %s %s %s\n", device, p.ParamName(), p.Kind(), p.ParamState(), p.ParamPerm())
	cli.WriteParameter(s.rl.Stdout(), device, p)
}

// cmdSet changes items of one property and waits for confirmation.
func (s *Shell) cmdSet(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: set <device.property> item=value [item=value ...]")
		return
	}
	device, param, err := s.getParameter(ctx, args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	raw, err := cli.ParseAssignments(args[1:])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	values, err := cli.ConvertValues(param.Snapshot(), raw)
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}

	changeCtx, cancel := context.WithTimeout(ctx, s.profile.ChangeTimeout())
	defer cancel()
	confirmed, err := param.Change(changeCtx, values)
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "%s.%s confirmed %s\n", device, confirmed.ParamName(), confirmed.ParamState())
	cli.WriteParameter(s.rl.Stdout(), device, confirmed)
}

// cmdWatch streams a property's updates until the user presses Enter.
func (s *Shell) cmdWatch(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: watch <device.property>")
		return
	}
	device, param, err := s.getParameter(ctx, args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}

	watchCtx, stop := context.WithCancel(ctx)
	defer stop()
	done := make(chan struct{})
	go func() {
		defer close(done)
		stream := param.Subscribe()
		for {
			snap, err := stream.Next(watchCtx)
			if err != nil {
				return
			}
			cli.WriteParameter(s.rl.Stdout(), device, snap.Value)
			s.rl.Refresh()
		}
	}()

	fmt.Fprintln(s.rl.Stdout(), "Watching; press Enter to stop.")
	s.rl.Readline()
	stop()
	<-done
}

// cmdBlob declares the BLOB policy for a device.
func (s *Shell) cmdBlob(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: blob <device> never|also|only")
		return
	}
	var policy wire.BlobEnable
	switch strings.ToLower(args[1]) {
	case "never":
		policy = wire.BlobNever
	case "also":
		policy = wire.BlobAlso
	case "only":
		policy = wire.BlobOnly
	default:
		fmt.Fprintf(s.rl.Stdout(), "Unknown policy: %s (want never, also or only)\n", args[1])
		return
	}
	dev, err := s.getDevice(ctx, args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	if err := dev.EnableBlob(ctx, policy, nil); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	s.blobPolicy[args[0]] = policy
	fmt.Fprintf(s.rl.Stdout(), "BLOB policy for %s: %s\n", args[0], strings.ToLower(args[1]))
}

// cmdCapture exposes a camera and writes the resulting image to a
// file. The profile's blob directory prefixes relative paths.
func (s *Shell) cmdCapture(ctx context.Context, args []string) {
	if len(args) < 3 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: capture <device> <seconds> <file>")
		return
	}
	seconds, err := strconv.ParseFloat(args[1], 64)
	if err != nil || seconds < 0 {
		fmt.Fprintf(s.rl.Stdout(), "Invalid exposure: %s\n", args[1])
		return
	}
	dev, err := s.getDevice(ctx, args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	if err := s.ensureBlobs(ctx, args[0], dev); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}

	fmt.Fprintf(s.rl.Stdout(), "Exposing %s for %gs...\n", args[0], seconds)
	img, err := dev.CaptureImage(ctx, seconds)
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}

	path := args[2]
	if img.Format != "" && !strings.HasSuffix(path, img.Format) {
		path += img.Format
	}
	if s.profile.Blob.Dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(s.profile.Blob.Dir, path)
	}
	if err := os.WriteFile(path, img.Value, 0644); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "Wrote %d bytes to %s\n", len(img.Value), path)
}

// ensureBlobs declares a BLOB policy for the device when none has
// been set on this connection yet. The profile's policy wins when it
// admits payloads; captures need at least also.
func (s *Shell) ensureBlobs(ctx context.Context, name string, dev *client.ActiveDevice) error {
	if s.blobPolicy[name] != wire.BlobNever {
		return nil
	}
	policy := s.profile.BlobPolicy()
	if policy == wire.BlobNever {
		policy = wire.BlobAlso
	}
	if err := dev.EnableBlob(ctx, policy, nil); err != nil {
		return err
	}
	s.blobPolicy[name] = policy
	return nil
}

// getDevice resolves a device with the profile's get timeout.
func (s *Shell) getDevice(ctx context.Context, name string) (*client.ActiveDevice, error) {
	getCtx, cancel := context.WithTimeout(ctx, s.profile.GetTimeout())
	defer cancel()
	return s.client.GetDevice(getCtx, name)
}

// getParameter resolves a device.property reference.
func (s *Shell) getParameter(ctx context.Context, ref string) (string, *client.ActiveParameter, error) {
	device, property := cli.ParseScope(ref)
	if property == "" {
		return "", nil, fmt.Errorf("want device.property, got %q", ref)
	}
	dev, err := s.getDevice(ctx, device)
	if err != nil {
		return "", nil, err
	}
	getCtx, cancel := context.WithTimeout(ctx, s.profile.GetTimeout())
	defer cancel()
	param, err := dev.Parameter(getCtx, property)
	if err != nil {
		return "", nil, err
	}
	return device, param, nil
}
