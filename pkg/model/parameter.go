package model

import (
	"errors"
	"fmt"

	"github.com/twinkle-astronomy/indi-go/pkg/wire"
)

// Model errors.
var (
	// ErrValueTypeMismatch is returned when typed item extraction or a
	// desired-value comparison meets a parameter of another kind.
	ErrValueTypeMismatch = errors.New("model: value kind mismatch")

	// ErrParameterTypeMismatch is returned when an update command does
	// not apply to the parameter it was routed to.
	ErrParameterTypeMismatch = errors.New("model: parameter kind mismatch")

	// ErrNotWritable is returned when building a write command for a
	// parameter kind that cannot be written.
	ErrNotWritable = errors.New("model: parameter not writable")
)

// Kind identifies a parameter's value family.
type Kind uint8

// Parameter kinds.
const (
	KindText Kind = iota
	KindNumber
	KindSwitch
	KindLight
	KindBlob
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindNumber:
		return "Number"
	case KindSwitch:
		return "Switch"
	case KindLight:
		return "Light"
	case KindBlob:
		return "Blob"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Parameter is an immutable snapshot of one device property. The five
// implementations are the vector aggregates in this package. Callers
// must treat a Parameter and everything reachable from it as
// read-only.
type Parameter interface {
	// ParamName returns the property name, unique per device.
	ParamName() string

	// ParamLabel returns the display label, or "" when the definition
	// carried none.
	ParamLabel() string

	// ParamGroup returns the UI grouping hint, or "".
	ParamGroup() string

	// ParamState returns the property's update state.
	ParamState() wire.PropertyState

	// ParamPerm returns the access permission. Lights are always
	// read-only.
	ParamPerm() wire.PropertyPerm

	// ParamTimeout returns the worst-case seconds a change is expected
	// to take, or nil when the device declared none.
	ParamTimeout() *float64

	// ParamTimestamp returns the server time of the last update, or
	// nil.
	ParamTimestamp() *wire.Timestamp

	// Generation returns the per-parameter update counter: 0 for a
	// fresh definition, +1 per applied update. Value equality ignores
	// it.
	Generation() uint64

	// Kind returns the parameter's value family.
	Kind() Kind

	isParameter()
}

// TextVector is a text parameter snapshot.
type TextVector struct {
	Name      string
	Label     string
	Group     string
	State     wire.PropertyState
	Perm      wire.PropertyPerm
	Timeout   *float64
	Timestamp *wire.Timestamp
	Gen       uint64
	Values    map[string]Text
}

// NumberVector is a numeric parameter snapshot.
type NumberVector struct {
	Name      string
	Label     string
	Group     string
	State     wire.PropertyState
	Perm      wire.PropertyPerm
	Timeout   *float64
	Timestamp *wire.Timestamp
	Gen       uint64
	Values    map[string]Number
}

// SwitchVector is a switch parameter snapshot.
type SwitchVector struct {
	Name      string
	Label     string
	Group     string
	State     wire.PropertyState
	Perm      wire.PropertyPerm
	Rule      wire.SwitchRule
	Timeout   *float64
	Timestamp *wire.Timestamp
	Gen       uint64
	Values    map[string]Switch
}

// LightVector is a light parameter snapshot. Lights carry no perm or
// timeout on the wire; they are read-only indicators.
type LightVector struct {
	Name      string
	Label     string
	Group     string
	State     wire.PropertyState
	Timestamp *wire.Timestamp
	Gen       uint64
	Values    map[string]Light
}

// BlobVector is a BLOB parameter snapshot.
type BlobVector struct {
	Name      string
	Label     string
	Group     string
	State     wire.PropertyState
	Perm      wire.PropertyPerm
	Timeout   *float64
	Timestamp *wire.Timestamp
	Gen       uint64
	Values    map[string]Blob
}

func (p *TextVector) ParamName() string { return p.Name }
func (p *TextVector) ParamLabel() string { return p.Label }
func (p *TextVector) ParamGroup() string { return p.Group }
func (p *TextVector) ParamState() wire.PropertyState { return p.State }
func (p *TextVector) ParamPerm() wire.PropertyPerm { return p.Perm }
func (p *TextVector) ParamTimeout() *float64 { return p.Timeout }
func (p *TextVector) ParamTimestamp() *wire.Timestamp { return p.Timestamp }
func (p *TextVector) Generation() uint64 { return p.Gen }
func (p *TextVector) Kind() Kind { return KindText }
func (p *TextVector) isParameter() {}

func (p *NumberVector) ParamName() string { return p.Name }
func (p *NumberVector) ParamLabel() string { return p.Label }
func (p *NumberVector) ParamGroup() string { return p.Group }
func (p *NumberVector) ParamState() wire.PropertyState { return p.State }
func (p *NumberVector) ParamPerm() wire.PropertyPerm { return p.Perm }
func (p *NumberVector) ParamTimeout() *float64 { return p.Timeout }
func (p *NumberVector) ParamTimestamp() *wire.Timestamp { return p.Timestamp }
func (p *NumberVector) Generation() uint64 { return p.Gen }
func (p *NumberVector) Kind() Kind { return KindNumber }
func (p *NumberVector) isParameter() {}

func (p *SwitchVector) ParamName() string { return p.Name }
func (p *SwitchVector) ParamLabel() string { return p.Label }
func (p *SwitchVector) ParamGroup() string { return p.Group }
func (p *SwitchVector) ParamState() wire.PropertyState { return p.State }
func (p *SwitchVector) ParamPerm() wire.PropertyPerm { return p.Perm }
func (p *SwitchVector) ParamTimeout() *float64 { return p.Timeout }
func (p *SwitchVector) ParamTimestamp() *wire.Timestamp { return p.Timestamp }
func (p *SwitchVector) Generation() uint64 { return p.Gen }
func (p *SwitchVector) Kind() Kind { return KindSwitch }
func (p *SwitchVector) isParameter() {}

func (p *LightVector) ParamName() string { return p.Name }
func (p *LightVector) ParamLabel() string { return p.Label }
func (p *LightVector) ParamGroup() string { return p.Group }
func (p *LightVector) ParamState() wire.PropertyState { return p.State }
func (p *LightVector) ParamPerm() wire.PropertyPerm { return wire.PermReadOnly }
func (p *LightVector) ParamTimeout() *float64 { return nil }
func (p *LightVector) ParamTimestamp() *wire.Timestamp { return p.Timestamp }
func (p *LightVector) Generation() uint64 { return p.Gen }
func (p *LightVector) Kind() Kind { return KindLight }
func (p *LightVector) isParameter() {}

func (p *BlobVector) ParamName() string { return p.Name }
func (p *BlobVector) ParamLabel() string { return p.Label }
func (p *BlobVector) ParamGroup() string { return p.Group }
func (p *BlobVector) ParamState() wire.PropertyState { return p.State }
func (p *BlobVector) ParamPerm() wire.PropertyPerm { return p.Perm }
func (p *BlobVector) ParamTimeout() *float64 { return p.Timeout }
func (p *BlobVector) ParamTimestamp() *wire.Timestamp { return p.Timestamp }
func (p *BlobVector) Generation() uint64 { return p.Gen }
func (p *BlobVector) Kind() Kind { return KindBlob }
func (p *BlobVector) isParameter() {}

// Compile-time checks that every vector kind satisfies Parameter.
var (
	_ Parameter = (*TextVector)(nil)
	_ Parameter = (*NumberVector)(nil)
	_ Parameter = (*SwitchVector)(nil)
	_ Parameter = (*LightVector)(nil)
	_ Parameter = (*BlobVector)(nil)
)

// Texts returns the item map of a text parameter.
func Texts(p Parameter) (map[string]Text, error) {
	v, ok := p.(*TextVector)
	if !ok {
		return nil, kindError(KindText, p)
	}
	return v.Values, nil
}

// Numbers returns the item map of a numeric parameter.
func Numbers(p Parameter) (map[string]Number, error) {
	v, ok := p.(*NumberVector)
	if !ok {
		return nil, kindError(KindNumber, p)
	}
	return v.Values, nil
}

// Switches returns the item map of a switch parameter.
func Switches(p Parameter) (map[string]Switch, error) {
	v, ok := p.(*SwitchVector)
	if !ok {
		return nil, kindError(KindSwitch, p)
	}
	return v.Values, nil
}

// Lights returns the item map of a light parameter.
func Lights(p Parameter) (map[string]Light, error) {
	v, ok := p.(*LightVector)
	if !ok {
		return nil, kindError(KindLight, p)
	}
	return v.Values, nil
}

// Blobs returns the item map of a BLOB parameter.
func Blobs(p Parameter) (map[string]Blob, error) {
	v, ok := p.(*BlobVector)
	if !ok {
		return nil, kindError(KindBlob, p)
	}
	return v.Values, nil
}

func kindError(want Kind, p Parameter) error {
	return fmt.Errorf("%w: want %s, got %s", ErrValueTypeMismatch, want, p.Kind())
}
