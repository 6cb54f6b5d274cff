package model

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/twinkle-astronomy/indi-go/pkg/wire"
)

// Matches reports whether every desired item exists on the parameter
// with the desired value. Items the map does not name are ignored, as
// are generation and state. A desired value of the wrong type for the
// parameter's kind is an error.
//
// Desired value types per kind: string for text, float64 (or int) for
// numbers, wire.SwitchState (or bool) for switches,
// wire.PropertyState for lights, []byte for blobs.
func Matches(p Parameter, desired map[string]any) (bool, error) {
	switch v := p.(type) {
	case *TextVector:
		for name, want := range desired {
			s, ok := want.(string)
			if !ok {
				return false, desiredTypeError(name, want, "string")
			}
			item, ok := v.Values[name]
			if !ok || item.Value != s {
				return false, nil
			}
		}
		return true, nil

	case *NumberVector:
		for name, want := range desired {
			f, ok := toFloat(want)
			if !ok {
				return false, desiredTypeError(name, want, "number")
			}
			item, ok := v.Values[name]
			if !ok || item.Value != f {
				return false, nil
			}
		}
		return true, nil

	case *SwitchVector:
		for name, want := range desired {
			s, ok := toSwitchState(want)
			if !ok {
				return false, desiredTypeError(name, want, "switch state")
			}
			item, ok := v.Values[name]
			if !ok || item.Value != s {
				return false, nil
			}
		}
		return true, nil

	case *LightVector:
		for name, want := range desired {
			s, ok := want.(wire.PropertyState)
			if !ok {
				return false, desiredTypeError(name, want, "light state")
			}
			item, ok := v.Values[name]
			if !ok || item.Value != s {
				return false, nil
			}
		}
		return true, nil

	case *BlobVector:
		for name, want := range desired {
			b, ok := want.([]byte)
			if !ok {
				return false, desiredTypeError(name, want, "byte slice")
			}
			item, ok := v.Values[name]
			if !ok || !bytes.Equal(item.Value, b) {
				return false, nil
			}
		}
		return true, nil

	default:
		return false, fmt.Errorf("%w: unhandled kind %s", ErrValueTypeMismatch, p.Kind())
	}
}

// NewCommand builds the wire command that requests the desired values
// on a parameter of device deviceName. Items appear in sorted name
// order so identical requests serialize identically. Every desired
// name must be a defined item of the parameter.
func NewCommand(deviceName string, p Parameter, desired map[string]any) (wire.Command, error) {
	names := make([]string, 0, len(desired))
	for name := range desired {
		names = append(names, name)
	}
	sort.Strings(names)
	ts := wire.NewTimestamp(time.Now())

	switch v := p.(type) {
	case *TextVector:
		items := make([]wire.OneText, 0, len(names))
		for _, name := range names {
			if _, ok := v.Values[name]; !ok {
				return nil, itemError(v.Name, name)
			}
			s, ok := desired[name].(string)
			if !ok {
				return nil, desiredTypeError(name, desired[name], "string")
			}
			items = append(items, wire.OneText{Name: name, Value: s})
		}
		return &wire.NewTextVector{Device: deviceName, Name: v.Name, Timestamp: &ts, Texts: items}, nil

	case *NumberVector:
		items := make([]wire.OneNumber, 0, len(names))
		for _, name := range names {
			if _, ok := v.Values[name]; !ok {
				return nil, itemError(v.Name, name)
			}
			f, ok := toFloat(desired[name])
			if !ok {
				return nil, desiredTypeError(name, desired[name], "number")
			}
			items = append(items, wire.OneNumber{Name: name, Value: f})
		}
		return &wire.NewNumberVector{Device: deviceName, Name: v.Name, Timestamp: &ts, Numbers: items}, nil

	case *SwitchVector:
		items := make([]wire.OneSwitch, 0, len(names))
		for _, name := range names {
			if _, ok := v.Values[name]; !ok {
				return nil, itemError(v.Name, name)
			}
			s, ok := toSwitchState(desired[name])
			if !ok {
				return nil, desiredTypeError(name, desired[name], "switch state")
			}
			items = append(items, wire.OneSwitch{Name: name, Value: s})
		}
		return &wire.NewSwitchVector{Device: deviceName, Name: v.Name, Timestamp: &ts, Switches: items}, nil

	case *LightVector:
		return nil, fmt.Errorf("%w: lights are read-only", ErrNotWritable)

	case *BlobVector:
		items := make([]wire.OneBlob, 0, len(names))
		for _, name := range names {
			item, ok := v.Values[name]
			if !ok {
				return nil, itemError(v.Name, name)
			}
			b, ok := desired[name].([]byte)
			if !ok {
				return nil, desiredTypeError(name, desired[name], "byte slice")
			}
			items = append(items, wire.OneBlob{
				Name:   name,
				Size:   uint64(len(b)),
				Format: item.Format,
				Value:  b,
			})
		}
		return &wire.NewBlobVector{Device: deviceName, Name: v.Name, Timestamp: &ts, Blobs: items}, nil

	default:
		return nil, fmt.Errorf("%w: unhandled kind %s", ErrNotWritable, p.Kind())
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func toSwitchState(v any) (wire.SwitchState, bool) {
	switch s := v.(type) {
	case wire.SwitchState:
		return s, true
	case bool:
		if s {
			return wire.SwitchOn, true
		}
		return wire.SwitchOff, true
	}
	return 0, false
}

func desiredTypeError(name string, got any, want string) error {
	return fmt.Errorf("%w: item %q: %T is not a %s value", ErrValueTypeMismatch, name, got, want)
}

func itemError(param, item string) error {
	return fmt.Errorf("model: parameter %q has no item %q", param, item)
}
