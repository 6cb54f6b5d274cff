package client

import (
	"github.com/twinkle-astronomy/indi-go/pkg/model"
	"github.com/twinkle-astronomy/indi-go/pkg/notify"
)

// ParameterSet is one device's defined properties at a point in time.
// Sets are immutable snapshots; the cells they reference are shared
// with every other snapshot that lists them.
type ParameterSet struct {
	order []string
	cells map[string]*notify.Notify[model.Parameter]
}

// Names returns the property names in definition order.
func (ps ParameterSet) Names() []string {
	return append([]string(nil), ps.order...)
}

// Get returns the named property's cell.
func (ps ParameterSet) Get(name string) (*notify.Notify[model.Parameter], bool) {
	cell, ok := ps.cells[name]
	return cell, ok
}

// Len returns the number of defined properties.
func (ps ParameterSet) Len() int { return len(ps.cells) }

// with returns a copy of the set with one property added.
func (ps ParameterSet) with(name string, cell *notify.Notify[model.Parameter]) ParameterSet {
	next := ParameterSet{
		order: append(append(make([]string, 0, len(ps.order)+1), ps.order...), name),
		cells: make(map[string]*notify.Notify[model.Parameter], len(ps.cells)+1),
	}
	for k, v := range ps.cells {
		next.cells[k] = v
	}
	next.cells[name] = cell
	return next
}

// without returns a copy of the set with one property removed.
func (ps ParameterSet) without(name string) ParameterSet {
	next := ParameterSet{
		order: make([]string, 0, len(ps.order)),
		cells: make(map[string]*notify.Notify[model.Parameter], len(ps.cells)),
	}
	for _, n := range ps.order {
		if n != name {
			next.order = append(next.order, n)
		}
	}
	for k, v := range ps.cells {
		if k != name {
			next.cells[k] = v
		}
	}
	return next
}

// Device tracks one remote device.
//
// The parameter set lives in its own cell so callers can wait for a
// definition to arrive without being woken by value updates. Each
// property's values live in the per-property cell inside the set.
type Device struct {
	name   string
	params *notify.Notify[ParameterSet]
}

func newDevice(name string, ps ParameterSet) *Device {
	return &Device{name: name, params: notify.NewNotify(ps)}
}

// Name returns the device name.
func (d *Device) Name() string { return d.name }

// Parameters returns the cell holding the device's parameter set. It
// bumps when a property is defined or deleted, never on value
// updates.
func (d *Device) Parameters() *notify.Notify[ParameterSet] { return d.params }

// Parameter returns the named property's cell, or false when the
// property is not currently defined.
func (d *Device) Parameter(name string) (*notify.Notify[model.Parameter], bool) {
	return d.params.Get().Get(name)
}

// close closes the definition cell and every property cell, resolving
// all outstanding waits with notify.ErrClosed.
func (d *Device) close() {
	ps := d.params.Get()
	d.params.Close()
	for _, cell := range ps.cells {
		cell.Close()
	}
}
