package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/twinkle-astronomy/indi-go/pkg/model"
	"github.com/twinkle-astronomy/indi-go/pkg/wire"
)

// ParseScope splits a device or device.property argument.
func ParseScope(arg string) (device, property string) {
	device, property, _ = strings.Cut(arg, ".")
	return device, property
}

// ParseSetArg parses one change request of the form
//
//	device.property.item=value[;item=value...]
//
// Device and property names must not contain dots; item names may.
func ParseSetArg(arg string) (device, property string, values map[string]string, err error) {
	target, rest, ok := strings.Cut(arg, "=")
	if !ok {
		return "", "", nil, fmt.Errorf("missing = in %q", arg)
	}
	parts := strings.SplitN(target, ".", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", nil, fmt.Errorf("want device.property.item=value, got %q", arg)
	}
	tokens := strings.Split(rest, ";")
	values, err = ParseAssignments(tokens[1:])
	if err != nil {
		return "", "", nil, fmt.Errorf("%w in %q", err, arg)
	}
	values[parts[2]] = tokens[0]
	return parts[0], parts[1], values, nil
}

// ParseAssignments collects item=value arguments into a raw value map.
func ParseAssignments(args []string) (map[string]string, error) {
	values := make(map[string]string, len(args))
	for _, arg := range args {
		item, val, ok := strings.Cut(arg, "=")
		if !ok || item == "" {
			return nil, fmt.Errorf("want item=value, got %q", arg)
		}
		values[item] = val
	}
	return values, nil
}

// ConvertValues coerces raw item strings to the value family of p:
// On or Off for switches, decimal or sexagesimal forms for numbers,
// text verbatim. Lights and BLOBs are not settable from text.
func ConvertValues(p model.Parameter, raw map[string]string) (map[string]any, error) {
	values := make(map[string]any, len(raw))
	for name, s := range raw {
		switch p.Kind() {
		case model.KindText:
			values[name] = s
		case model.KindNumber:
			f, err := wire.ParseNumber(s)
			if err != nil {
				return nil, fmt.Errorf("item %s: %w", name, err)
			}
			values[name] = f
		case model.KindSwitch:
			switch strings.ToLower(s) {
			case "on":
				values[name] = wire.SwitchOn
			case "off":
				values[name] = wire.SwitchOff
			default:
				return nil, fmt.Errorf("item %s: switch value must be On or Off, got %q", name, s)
			}
		case model.KindLight:
			return nil, fmt.Errorf("%s is a light property; lights are read-only", p.ParamName())
		case model.KindBlob:
			return nil, fmt.Errorf("%s is a BLOB property; BLOBs cannot be set from text", p.ParamName())
		default:
			return nil, fmt.Errorf("unhandled parameter kind %s", p.Kind())
		}
	}
	return values, nil
}

// WriteParameter prints p as one device.property.item=value line per
// item, items in sorted name order.
func WriteParameter(w io.Writer, device string, p model.Parameter) {
	prefix := device + "." + p.ParamName() + "."
	switch v := p.(type) {
	case *model.TextVector:
		for _, name := range sortedNames(v.Values) {
			fmt.Fprintf(w, "%s%s=%s\n", prefix, name, v.Values[name].Value)
		}
	case *model.NumberVector:
		for _, name := range sortedNames(v.Values) {
			fmt.Fprintf(w, "%s%s=%s\n", prefix, name, wire.FormatNumber(v.Values[name].Value))
		}
	case *model.SwitchVector:
		for _, name := range sortedNames(v.Values) {
			fmt.Fprintf(w, "%s%s=%s\n", prefix, name, v.Values[name].Value)
		}
	case *model.LightVector:
		for _, name := range sortedNames(v.Values) {
			fmt.Fprintf(w, "%s%s=%s\n", prefix, name, v.Values[name].Value)
		}
	case *model.BlobVector:
		for _, name := range sortedNames(v.Values) {
			fmt.Fprintf(w, "%s%s=%s\n", prefix, name, blobValue(v.Values[name]))
		}
	}
}

func blobValue(b model.Blob) string {
	if len(b.Value) == 0 {
		return "<no data>"
	}
	if b.Format != "" {
		return fmt.Sprintf("<%d bytes %s>", len(b.Value), b.Format)
	}
	return fmt.Sprintf("<%d bytes>", len(b.Value))
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
