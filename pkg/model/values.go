package model

import "github.com/twinkle-astronomy/indi-go/pkg/wire"

// Text is one item of a text parameter.
type Text struct {
	Label string
	Value string
}

// Number is one item of a numeric parameter. Format is the protocol's
// printf-style display hint.
type Number struct {
	Label  string
	Format string
	Min    float64
	Max    float64
	Step   float64
	Value  float64
}

// Switch is one item of a switch parameter.
type Switch struct {
	Label string
	Value wire.SwitchState
}

// On reports whether the switch is set.
func (s Switch) On() bool { return s.Value == wire.SwitchOn }

// Light is one item of a light parameter.
type Light struct {
	Label string
	Value wire.PropertyState
}

// Blob is one item of a BLOB parameter. Value is nil until a payload
// arrives.
type Blob struct {
	Label  string
	Format string
	Size   int
	Value  []byte
}
