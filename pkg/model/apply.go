package model

import (
	"fmt"

	"github.com/twinkle-astronomy/indi-go/pkg/wire"
)

// FromDef builds a fresh Parameter from a definition command. The
// snapshot starts at generation zero.
func FromDef(cmd wire.Command) (Parameter, error) {
	switch c := cmd.(type) {
	case *wire.DefTextVector:
		values := make(map[string]Text, len(c.Texts))
		for _, item := range c.Texts {
			values[item.Name] = Text{Label: deref(item.Label), Value: item.Value}
		}
		return &TextVector{
			Name:      c.Name,
			Label:     deref(c.Label),
			Group:     deref(c.Group),
			State:     c.State,
			Perm:      c.Perm,
			Timeout:   timeoutSeconds(c.Timeout),
			Timestamp: c.Timestamp,
			Values:    values,
		}, nil

	case *wire.DefNumberVector:
		values := make(map[string]Number, len(c.Numbers))
		for _, item := range c.Numbers {
			values[item.Name] = Number{
				Label:  deref(item.Label),
				Format: item.Format,
				Min:    item.Min,
				Max:    item.Max,
				Step:   item.Step,
				Value:  item.Value,
			}
		}
		return &NumberVector{
			Name:      c.Name,
			Label:     deref(c.Label),
			Group:     deref(c.Group),
			State:     c.State,
			Perm:      c.Perm,
			Timeout:   timeoutSeconds(c.Timeout),
			Timestamp: c.Timestamp,
			Values:    values,
		}, nil

	case *wire.DefSwitchVector:
		values := make(map[string]Switch, len(c.Switches))
		for _, item := range c.Switches {
			values[item.Name] = Switch{Label: deref(item.Label), Value: item.Value}
		}
		return &SwitchVector{
			Name:      c.Name,
			Label:     deref(c.Label),
			Group:     deref(c.Group),
			State:     c.State,
			Perm:      c.Perm,
			Rule:      c.Rule,
			Timeout:   timeoutSeconds(c.Timeout),
			Timestamp: c.Timestamp,
			Values:    values,
		}, nil

	case *wire.DefLightVector:
		values := make(map[string]Light, len(c.Lights))
		for _, item := range c.Lights {
			values[item.Name] = Light{Label: deref(item.Label), Value: item.Value}
		}
		return &LightVector{
			Name:      c.Name,
			Label:     deref(c.Label),
			Group:     deref(c.Group),
			State:     c.State,
			Timestamp: c.Timestamp,
			Values:    values,
		}, nil

	case *wire.DefBlobVector:
		values := make(map[string]Blob, len(c.Blobs))
		for _, item := range c.Blobs {
			values[item.Name] = Blob{Label: deref(item.Label)}
		}
		return &BlobVector{
			Name:      c.Name,
			Label:     deref(c.Label),
			Group:     deref(c.Group),
			State:     c.State,
			Perm:      c.Perm,
			Timeout:   timeoutSeconds(c.Timeout),
			Timestamp: c.Timestamp,
			Values:    values,
		}, nil

	default:
		return nil, fmt.Errorf("%w: %T is not a definition", ErrParameterTypeMismatch, cmd)
	}
}

// ApplyUpdate folds a set or new command into a parameter, returning a
// fresh snapshot. The input is never mutated. Items the command does
// not name keep their previous values; items the parameter has never
// seen are created.
func ApplyUpdate(p Parameter, cmd wire.Command) (Parameter, error) {
	switch c := cmd.(type) {
	case *wire.SetTextVector:
		v, ok := p.(*TextVector)
		if !ok {
			return nil, updateKindError(p, cmd)
		}
		next := v.clone()
		next.State = c.State
		applyShared(&next.Timeout, &next.Timestamp, c.Timeout, c.Timestamp)
		for _, item := range c.Texts {
			cur := next.Values[item.Name]
			cur.Value = item.Value
			next.Values[item.Name] = cur
		}
		return next, nil

	case *wire.NewTextVector:
		v, ok := p.(*TextVector)
		if !ok {
			return nil, updateKindError(p, cmd)
		}
		next := v.clone()
		applyShared(nil, &next.Timestamp, nil, c.Timestamp)
		for _, item := range c.Texts {
			cur := next.Values[item.Name]
			cur.Value = item.Value
			next.Values[item.Name] = cur
		}
		return next, nil

	case *wire.SetNumberVector:
		v, ok := p.(*NumberVector)
		if !ok {
			return nil, updateKindError(p, cmd)
		}
		next := v.clone()
		next.State = c.State
		applyShared(&next.Timeout, &next.Timestamp, c.Timeout, c.Timestamp)
		for _, item := range c.Numbers {
			cur := next.Values[item.Name]
			cur.Value = item.Value
			if item.Min != nil {
				cur.Min = *item.Min
			}
			if item.Max != nil {
				cur.Max = *item.Max
			}
			if item.Step != nil {
				cur.Step = *item.Step
			}
			next.Values[item.Name] = cur
		}
		return next, nil

	case *wire.NewNumberVector:
		v, ok := p.(*NumberVector)
		if !ok {
			return nil, updateKindError(p, cmd)
		}
		next := v.clone()
		applyShared(nil, &next.Timestamp, nil, c.Timestamp)
		for _, item := range c.Numbers {
			cur := next.Values[item.Name]
			cur.Value = item.Value
			next.Values[item.Name] = cur
		}
		return next, nil

	case *wire.SetSwitchVector:
		v, ok := p.(*SwitchVector)
		if !ok {
			return nil, updateKindError(p, cmd)
		}
		next := v.clone()
		next.State = c.State
		applyShared(&next.Timeout, &next.Timestamp, c.Timeout, c.Timestamp)
		for _, item := range c.Switches {
			cur := next.Values[item.Name]
			cur.Value = item.Value
			next.Values[item.Name] = cur
		}
		return next, nil

	case *wire.NewSwitchVector:
		v, ok := p.(*SwitchVector)
		if !ok {
			return nil, updateKindError(p, cmd)
		}
		next := v.clone()
		applyShared(nil, &next.Timestamp, nil, c.Timestamp)
		for _, item := range c.Switches {
			cur := next.Values[item.Name]
			cur.Value = item.Value
			next.Values[item.Name] = cur
		}
		return next, nil

	case *wire.SetLightVector:
		v, ok := p.(*LightVector)
		if !ok {
			return nil, updateKindError(p, cmd)
		}
		next := v.clone()
		next.State = c.State
		applyShared(nil, &next.Timestamp, nil, c.Timestamp)
		for _, item := range c.Lights {
			cur := next.Values[item.Name]
			cur.Value = item.Value
			next.Values[item.Name] = cur
		}
		return next, nil

	case *wire.SetBlobVector:
		v, ok := p.(*BlobVector)
		if !ok {
			return nil, updateKindError(p, cmd)
		}
		next := v.clone()
		next.State = c.State
		applyShared(&next.Timeout, &next.Timestamp, c.Timeout, c.Timestamp)
		applyBlobs(next.Values, c.Blobs)
		return next, nil

	case *wire.NewBlobVector:
		v, ok := p.(*BlobVector)
		if !ok {
			return nil, updateKindError(p, cmd)
		}
		next := v.clone()
		applyShared(nil, &next.Timestamp, nil, c.Timestamp)
		applyBlobs(next.Values, c.Blobs)
		return next, nil

	default:
		return nil, fmt.Errorf("%w: %T is not an update", ErrParameterTypeMismatch, cmd)
	}
}

// applyShared folds the optional timeout and timestamp attributes into
// a clone. A nil timeout destination skips timeout handling for kinds
// that have none.
func applyShared(timeout **float64, timestamp **wire.Timestamp, wt *uint32, ws *wire.Timestamp) {
	if timeout != nil && wt != nil {
		*timeout = timeoutSeconds(wt)
	}
	if ws != nil {
		*timestamp = ws
	}
}

// applyBlobs overwrites payload items wholesale. The incoming slices
// are adopted, not copied: the decoder allocates fresh buffers per
// command.
func applyBlobs(values map[string]Blob, items []wire.OneBlob) {
	for _, item := range items {
		cur := values[item.Name]
		cur.Format = item.Format
		cur.Size = int(item.Size)
		cur.Value = item.Value
		values[item.Name] = cur
	}
}

func (p *TextVector) clone() *TextVector {
	next := *p
	next.Gen = p.Gen + 1
	next.Values = make(map[string]Text, len(p.Values))
	for k, v := range p.Values {
		next.Values[k] = v
	}
	return &next
}

func (p *NumberVector) clone() *NumberVector {
	next := *p
	next.Gen = p.Gen + 1
	next.Values = make(map[string]Number, len(p.Values))
	for k, v := range p.Values {
		next.Values[k] = v
	}
	return &next
}

func (p *SwitchVector) clone() *SwitchVector {
	next := *p
	next.Gen = p.Gen + 1
	next.Values = make(map[string]Switch, len(p.Values))
	for k, v := range p.Values {
		next.Values[k] = v
	}
	return &next
}

func (p *LightVector) clone() *LightVector {
	next := *p
	next.Gen = p.Gen + 1
	next.Values = make(map[string]Light, len(p.Values))
	for k, v := range p.Values {
		next.Values[k] = v
	}
	return &next
}

func (p *BlobVector) clone() *BlobVector {
	next := *p
	next.Gen = p.Gen + 1
	next.Values = make(map[string]Blob, len(p.Values))
	for k, v := range p.Values {
		next.Values[k] = v
	}
	return &next
}

func updateKindError(p Parameter, cmd wire.Command) error {
	return fmt.Errorf("%w: %T update on %s parameter", ErrParameterTypeMismatch, cmd, p.Kind())
}

func timeoutSeconds(t *uint32) *float64 {
	if t == nil {
		return nil
	}
	s := float64(*t)
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
