package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/twinkle-astronomy/indi-go/pkg/model"
	"github.com/twinkle-astronomy/indi-go/pkg/notify"
	"github.com/twinkle-astronomy/indi-go/pkg/wire"
)

const (
	// definitionWait caps how long Parameter waits for a property
	// definition to arrive after the device is known.
	definitionWait = time.Second

	// defaultChangeTimeout bounds a change when the parameter carries
	// no timeout of its own.
	defaultChangeTimeout = 60 * time.Second
)

// ActiveDevice is a handle for issuing operations against one device.
type ActiveDevice struct {
	client *Client
	device *Device
}

// Name returns the device name.
func (d *ActiveDevice) Name() string { return d.device.Name() }

// Device returns the underlying device entry.
func (d *ActiveDevice) Device() *Device { return d.device }

// Parameter resolves a property into an operation handle. Definitions
// arrive asynchronously after getProperties, so Parameter waits up to
// one second for the property to appear before reporting it missing.
func (d *ActiveDevice) Parameter(ctx context.Context, name string) (*ActiveParameter, error) {
	ctx, cancel := context.WithTimeout(ctx, definitionWait)
	defer cancel()

	ps, err := d.device.Parameters().Wait(ctx, func(ps ParameterSet) bool {
		_, ok := ps.Get(name)
		return ok
	})
	if err != nil {
		if errors.Is(err, notify.ErrClosed) {
			return nil, fmt.Errorf("parameter %s.%s: %w: %w", d.Name(), name, d.client.closeCause(ErrDeviceNotFound), err)
		}
		return nil, fmt.Errorf("parameter %s.%s: %w: %w", d.Name(), name, ErrPropertyNotFound, err)
	}
	cell, _ := ps.Get(name)
	return &ActiveParameter{device: d, name: name, cell: cell}, nil
}

// Change sets the named property's items to values and waits for the
// device to confirm them. See ActiveParameter.Change.
func (d *ActiveDevice) Change(ctx context.Context, property string, values map[string]any) (model.Parameter, error) {
	param, err := d.Parameter(ctx, property)
	if err != nil {
		return nil, err
	}
	return param.Change(ctx, values)
}

// Batch issues several changes concurrently and waits for all of
// them. A failure in one change does not cancel the others; failures
// are surfaced joined.
func (d *ActiveDevice) Batch(ctx context.Context, changes map[string]map[string]any) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for property, values := range changes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := d.Change(ctx, property, values); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

// EnableBlob declares the connection's BLOB policy for this device,
// optionally scoped to one property. Servers send no BLOB payloads
// until the client opts in with BlobAlso or BlobOnly.
func (d *ActiveDevice) EnableBlob(ctx context.Context, policy wire.BlobEnable, property *string) error {
	if property != nil {
		// Make sure the property exists before scoping to it.
		if _, err := d.Parameter(ctx, *property); err != nil {
			return err
		}
	}
	return d.client.Send(&wire.EnableBlob{Device: d.Name(), Name: property, Enabled: policy})
}

// ActiveParameter is a handle for one property of one device.
type ActiveParameter struct {
	device *ActiveDevice
	name   string
	cell   *notify.Notify[model.Parameter]
}

// Name returns the property name.
func (p *ActiveParameter) Name() string { return p.name }

// Cell returns the property's notify cell for direct subscription.
func (p *ActiveParameter) Cell() *notify.Notify[model.Parameter] { return p.cell }

// Snapshot returns the property's current state.
func (p *ActiveParameter) Snapshot() model.Parameter { return p.cell.Get() }

// Subscribe returns a primed stream of the property's snapshots.
func (p *ActiveParameter) Subscribe() *notify.Stream[model.Parameter] { return p.cell.Subscribe() }

// Set sends the values without waiting for the device to confirm.
func (p *ActiveParameter) Set(values map[string]any) error {
	cmd, err := model.NewCommand(p.device.Name(), p.cell.Get(), values)
	if err != nil {
		return fmt.Errorf("set %s.%s: %w", p.device.Name(), p.name, err)
	}
	return p.device.client.Send(cmd)
}

// Change sets the property's items to values and waits for the device
// to confirm. There are no correlation IDs on the wire, so the
// confirmation is convergence: the first snapshot whose items match
// values with the property out of Busy completes the change, and a
// snapshot in Alert fails it. Values already on the device complete
// without sending anything.
//
// The wait is bounded by the parameter's own timeout (60s when it
// carries none) or the caller's ctx, whichever ends sooner.
func (p *ActiveParameter) Change(ctx context.Context, values map[string]any) (model.Parameter, error) {
	// Subscribe before sending so the confirming update cannot slip
	// past unobserved.
	stream := p.cell.Changes()

	cur := p.cell.Get()
	matched, err := model.Matches(cur, values)
	if err != nil {
		return nil, fmt.Errorf("change %s.%s: %w", p.device.Name(), p.name, err)
	}
	state := cur.ParamState()
	if matched && state != wire.StateBusy && state != wire.StateAlert {
		// Already there; nothing to send or wait for.
		return cur, nil
	}
	if !matched || state == wire.StateAlert {
		cmd, err := model.NewCommand(p.device.Name(), cur, values)
		if err != nil {
			return nil, fmt.Errorf("change %s.%s: %w", p.device.Name(), p.name, err)
		}
		if err := p.device.client.Send(cmd); err != nil {
			return nil, fmt.Errorf("change %s.%s: %w", p.device.Name(), p.name, err)
		}
	}

	timeout := defaultChangeTimeout
	if t := cur.ParamTimeout(); t != nil {
		timeout = max(time.Duration(*t*float64(time.Second)), time.Second)
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := notify.Wait(waitCtx, stream, func(snap notify.Snapshot[model.Parameter]) (model.Parameter, bool, error) {
		if snap.Value.ParamState() == wire.StateAlert {
			return nil, false, ErrPropertyAlert
		}
		ok, err := model.Matches(snap.Value, values)
		if err != nil {
			return nil, false, err
		}
		if ok && snap.Value.ParamState() != wire.StateBusy {
			return snap.Value, true, nil
		}
		return nil, false, nil
	})
	if err != nil {
		if errors.Is(err, notify.ErrClosed) {
			err = fmt.Errorf("%w: %w", p.device.client.closeCause(ErrPropertyNotFound), err)
		}
		return nil, fmt.Errorf("change %s.%s: %w", p.device.Name(), p.name, err)
	}
	return res, nil
}
