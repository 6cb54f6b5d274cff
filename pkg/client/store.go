package client

import (
	"fmt"
	"time"

	"github.com/twinkle-astronomy/indi-go/pkg/log"
	"github.com/twinkle-astronomy/indi-go/pkg/model"
	"github.com/twinkle-astronomy/indi-go/pkg/notify"
	"github.com/twinkle-astronomy/indi-go/pkg/wire"
)

// store is the client's view of the remote device tree. The reader
// loop is the only writer; everyone else reads through the cells.
type store struct {
	devices *notify.Notify[map[string]*Device]

	logger log.Logger
	connID string
}

func newStore(logger log.Logger, connID string) *store {
	return &store{
		devices: notify.NewNotify(map[string]*Device{}),
		logger:  logger,
		connID:  connID,
	}
}

// apply folds one received command into the device tree.
func (s *store) apply(cmd wire.Command) error {
	switch c := cmd.(type) {
	case *wire.DefTextVector:
		return s.define(c.Device, c.Name, c)
	case *wire.DefNumberVector:
		return s.define(c.Device, c.Name, c)
	case *wire.DefSwitchVector:
		return s.define(c.Device, c.Name, c)
	case *wire.DefLightVector:
		return s.define(c.Device, c.Name, c)
	case *wire.DefBlobVector:
		return s.define(c.Device, c.Name, c)

	case *wire.SetTextVector:
		return s.update(c.Device, c.Name, c)
	case *wire.SetNumberVector:
		return s.update(c.Device, c.Name, c)
	case *wire.SetSwitchVector:
		return s.update(c.Device, c.Name, c)
	case *wire.SetLightVector:
		return s.update(c.Device, c.Name, c)
	case *wire.SetBlobVector:
		return s.update(c.Device, c.Name, c)

	case *wire.NewTextVector:
		return s.update(c.Device, c.Name, c)
	case *wire.NewNumberVector:
		return s.update(c.Device, c.Name, c)
	case *wire.NewSwitchVector:
		return s.update(c.Device, c.Name, c)
	case *wire.NewBlobVector:
		return s.update(c.Device, c.Name, c)

	case *wire.DelProperty:
		return s.remove(c)

	case *wire.Message:
		s.message(c)
		return nil

	case *wire.GetProperties, *wire.EnableBlob:
		// Client-to-server elements; nothing to fold in.
		return nil

	default:
		return fmt.Errorf("client: unhandled command %T", cmd)
	}
}

// define handles a def*Vector: a new device, a new property on a
// known device, or a redefinition of an existing property.
func (s *store) define(device, property string, cmd wire.Command) error {
	param, err := model.FromDef(cmd)
	if err != nil {
		return &UpdateError{Device: device, Property: property, Err: err}
	}

	if dev, ok := s.devices.Get()[device]; ok {
		if cell, ok := dev.Parameter(property); ok {
			// Redefinition is authoritative: replace the snapshot.
			cell.Set(param)
			return nil
		}
		cell := notify.NewNotify(param)
		dev.params.Update(func(ps ParameterSet) (ParameterSet, bool) {
			return ps.with(property, cell), true
		})
		return nil
	}

	// First sight of the device. Seed its set with the defining
	// property so creation is a single device-list event.
	dev := newDevice(device, ParameterSet{}.with(property, notify.NewNotify(param)))
	s.devices.Update(func(m map[string]*Device) (map[string]*Device, bool) {
		next := make(map[string]*Device, len(m)+1)
		for k, v := range m {
			next[k] = v
		}
		next[device] = dev
		return next, true
	})
	s.lifecycle(log.StateEntityDevice, device, "", "defined", "")
	return nil
}

// update folds a set*Vector or new*Vector into an existing parameter
// cell.
func (s *store) update(device, property string, cmd wire.Command) error {
	dev, ok := s.devices.Get()[device]
	if !ok {
		return &UpdateError{Device: device, Property: property, Err: ErrParameterMissing}
	}
	cell, ok := dev.Parameter(property)
	if !ok {
		return &UpdateError{Device: device, Property: property, Err: ErrParameterMissing}
	}

	var applyErr error
	cell.Update(func(p model.Parameter) (model.Parameter, bool) {
		next, err := model.ApplyUpdate(p, cmd)
		if err != nil {
			applyErr = err
			return p, false
		}
		return next, true
	})
	if applyErr != nil {
		return &UpdateError{Device: device, Property: property, Err: applyErr}
	}
	return nil
}

// remove handles delProperty. Unknown targets are no-ops; a device
// emptied of properties stays, since drivers routinely delete and
// redefine properties when their connection state flips.
func (s *store) remove(c *wire.DelProperty) error {
	reason := ""
	if c.Message != nil {
		reason = *c.Message
	}

	if c.Name != nil {
		dev, ok := s.devices.Get()[c.Device]
		if !ok {
			return nil
		}
		var removed *notify.Notify[model.Parameter]
		dev.params.Update(func(ps ParameterSet) (ParameterSet, bool) {
			cell, ok := ps.Get(*c.Name)
			if !ok {
				return ps, false
			}
			removed = cell
			return ps.without(*c.Name), true
		})
		if removed != nil {
			removed.Close()
			s.lifecycle(log.StateEntityProperty, c.Device+"."+*c.Name, "defined", "removed", reason)
		}
		return nil
	}

	var dev *Device
	s.devices.Update(func(m map[string]*Device) (map[string]*Device, bool) {
		d, ok := m[c.Device]
		if !ok {
			return m, false
		}
		dev = d
		next := make(map[string]*Device, len(m))
		for k, v := range m {
			if k != c.Device {
				next[k] = v
			}
		}
		return next, true
	})
	if dev != nil {
		dev.close()
		s.lifecycle(log.StateEntityDevice, c.Device, "defined", "removed", reason)
	}
	return nil
}

// closeAll tears the tree down, resolving every outstanding wait.
func (s *store) closeAll() {
	m := s.devices.Get()
	s.devices.Close()
	for _, dev := range m {
		dev.close()
	}
}

// message forwards a device message to the protocol log. Messages are
// not part of the device tree.
func (s *store) message(c *wire.Message) {
	dm := &log.DeviceMessageEvent{Device: c.DeviceName()}
	if c.Message != nil {
		dm.Message = *c.Message
	}
	if c.Timestamp != nil {
		dm.Timestamp = c.Timestamp.Time
	}
	s.logger.Log(log.Event{
		Timestamp:     time.Now(),
		ConnectionID:  s.connID,
		Direction:     log.DirectionIn,
		Layer:         log.LayerClient,
		Category:      log.CategoryMessage,
		DeviceMessage: dm,
	})
}

func (s *store) lifecycle(entity log.StateEntity, name, oldState, newState, reason string) {
	s.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: s.connID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerClient,
		Category:     log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   entity,
			Name:     name,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}
