package wire

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"
)

// Decoder reads protocol elements from a byte stream one command at a
// time. It is streaming and element-bounded: only the element currently
// being decoded is buffered, never the stream's history.
type Decoder struct {
	xd *xml.Decoder
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{xd: xml.NewDecoder(r)}
}

// InputOffset reports the stream offset just past the last token
// consumed. Transports use offset deltas to attribute raw stream bytes
// to the commands decoded from them.
func (d *Decoder) InputOffset() int64 {
	return d.xd.InputOffset()
}

// Next decodes the next top-level element into a Command. It returns
// io.EOF at a clean end of stream. Decode errors are not recoverable:
// after a non-EOF error the stream position is undefined.
func (d *Decoder) Next() (Command, error) {
	for {
		tok, err := d.xd.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return d.decodeCommand(t)
		case xml.CharData:
			if len(strings.TrimSpace(string(t))) != 0 {
				return nil, &UnexpectedEventError{Event: "text"}
			}
		case xml.EndElement:
			return nil, &UnexpectedEventError{Event: "end element"}
		default:
			// Prologs, comments and directives between elements are
			// tolerated and skipped.
		}
	}
}

// decodeCommand dispatches on the root element name.
func (d *Decoder) decodeCommand(start xml.StartElement) (Command, error) {
	switch start.Name.Local {
	case "getProperties":
		return d.decodeGetProperties(start)
	case "defTextVector":
		return d.decodeDefTextVector(start)
	case "setTextVector":
		return d.decodeSetTextVector(start)
	case "newTextVector":
		return d.decodeNewTextVector(start)
	case "defNumberVector":
		return d.decodeDefNumberVector(start)
	case "setNumberVector":
		return d.decodeSetNumberVector(start)
	case "newNumberVector":
		return d.decodeNewNumberVector(start)
	case "defSwitchVector":
		return d.decodeDefSwitchVector(start)
	case "setSwitchVector":
		return d.decodeSetSwitchVector(start)
	case "newSwitchVector":
		return d.decodeNewSwitchVector(start)
	case "defLightVector":
		return d.decodeDefLightVector(start)
	case "setLightVector":
		return d.decodeSetLightVector(start)
	case "defBLOBVector":
		return d.decodeDefBlobVector(start)
	case "setBLOBVector":
		return d.decodeSetBlobVector(start)
	case "newBLOBVector":
		return d.decodeNewBlobVector(start)
	case "delProperty":
		return d.decodeDelProperty(start)
	case "message":
		return d.decodeMessage(start)
	case "enableBLOB":
		return d.decodeEnableBlob(start)
	default:
		return nil, &UnexpectedTagError{Tag: start.Name.Local}
	}
}

// attrSet accounts for an element's attributes during decode: required
// and optional lookups mark attributes as consumed and finish reports
// any attribute the element does not define.
type attrSet struct {
	element string
	attrs   []xml.Attr
	used    []bool
}

func newAttrSet(start xml.StartElement) *attrSet {
	return &attrSet{
		element: start.Name.Local,
		attrs:   start.Attr,
		used:    make([]bool, len(start.Attr)),
	}
}

// lookup returns the attribute's value, marking it consumed.
func (s *attrSet) lookup(name string) (string, bool) {
	for i, a := range s.attrs {
		if a.Name.Local == name {
			s.used[i] = true
			return a.Value, true
		}
	}
	return "", false
}

// required returns the attribute's value or a MissingAttrError.
func (s *attrSet) required(name string) (string, error) {
	v, ok := s.lookup(name)
	if !ok {
		return "", &MissingAttrError{Element: s.element, Attr: name}
	}
	return v, nil
}

// optional returns the attribute's value, or nil when absent.
func (s *attrSet) optional(name string) *string {
	v, ok := s.lookup(name)
	if !ok {
		return nil
	}
	return &v
}

// finish fails with an UnexpectedAttrError if any attribute was never
// consumed.
func (s *attrSet) finish() error {
	for i, used := range s.used {
		if !used {
			return &UnexpectedAttrError{Element: s.element, Attr: s.attrs[i].Name.Local}
		}
	}
	return nil
}

// state parses the required state attribute.
func (s *attrSet) state() (PropertyState, error) {
	raw, err := s.required("state")
	if err != nil {
		return 0, err
	}
	v, err := ParsePropertyState(raw)
	if err != nil {
		return 0, &ValueError{Element: s.element, Attr: "state", Value: raw, Err: err}
	}
	return v, nil
}

// perm parses the required perm attribute.
func (s *attrSet) perm() (PropertyPerm, error) {
	raw, err := s.required("perm")
	if err != nil {
		return 0, err
	}
	v, err := ParsePropertyPerm(raw)
	if err != nil {
		return 0, &ValueError{Element: s.element, Attr: "perm", Value: raw, Err: err}
	}
	return v, nil
}

// rule parses the required rule attribute.
func (s *attrSet) rule() (SwitchRule, error) {
	raw, err := s.required("rule")
	if err != nil {
		return 0, err
	}
	v, err := ParseSwitchRule(raw)
	if err != nil {
		return 0, &ValueError{Element: s.element, Attr: "rule", Value: raw, Err: err}
	}
	return v, nil
}

// timeout parses the optional timeout attribute.
func (s *attrSet) timeout() (*uint32, error) {
	raw, ok := s.lookup("timeout")
	if !ok {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, &ValueError{Element: s.element, Attr: "timeout", Value: raw, Err: err}
	}
	t := uint32(v)
	return &t, nil
}

// timestamp parses the optional timestamp attribute.
func (s *attrSet) timestamp() (*Timestamp, error) {
	raw, ok := s.lookup("timestamp")
	if !ok {
		return nil, nil
	}
	t, err := ParseTimestamp(raw)
	if err != nil {
		return nil, &ValueError{Element: s.element, Attr: "timestamp", Value: raw, Err: err}
	}
	return &t, nil
}

// number parses a required numeric attribute.
func (s *attrSet) number(name string) (float64, error) {
	raw, err := s.required(name)
	if err != nil {
		return 0, err
	}
	v, err := ParseNumber(raw)
	if err != nil {
		return 0, &ValueError{Element: s.element, Attr: name, Value: raw, Err: err}
	}
	return v, nil
}

// optionalNumber parses an optional numeric attribute.
func (s *attrSet) optionalNumber(name string) (*float64, error) {
	raw, ok := s.lookup(name)
	if !ok {
		return nil, nil
	}
	v, err := ParseNumber(raw)
	if err != nil {
		return nil, &ValueError{Element: s.element, Attr: name, Value: raw, Err: err}
	}
	return &v, nil
}

// childElements drives fn over every child element of the element
// whose start tag was just consumed, returning once the parent's end
// tag is reached. Non-whitespace text between children is an error.
func (d *Decoder) childElements(parent string, fn func(start xml.StartElement) error) error {
	for {
		tok, err := d.xd.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := fn(t); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		case xml.CharData:
			if len(strings.TrimSpace(string(t))) != 0 {
				return &UnexpectedEventError{Element: parent, Event: "text"}
			}
		default:
		}
	}
}

// textContent collects the element's character data up to its end tag.
// Leading and trailing whitespace is not significant in protocol
// values and is trimmed.
func (d *Decoder) textContent(element string) (string, error) {
	var sb strings.Builder
	for {
		tok, err := d.xd.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			return strings.TrimSpace(sb.String()), nil
		case xml.StartElement:
			return "", &UnexpectedTagError{Tag: t.Name.Local}
		default:
		}
	}
}

// expectEnd consumes the element's end tag, failing on any content.
func (d *Decoder) expectEnd(element string) error {
	for {
		tok, err := d.xd.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.CharData:
			if len(strings.TrimSpace(string(t))) != 0 {
				return &UnexpectedEventError{Element: element, Event: "text"}
			}
		case xml.StartElement:
			return &UnexpectedTagError{Tag: t.Name.Local}
		default:
		}
	}
}

// decodeGetProperties decodes a getProperties element.
func (d *Decoder) decodeGetProperties(start xml.StartElement) (Command, error) {
	attrs := newAttrSet(start)
	version, err := attrs.required("version")
	if err != nil {
		return nil, err
	}
	cmd := &GetProperties{
		Version: version,
		Device:  attrs.optional("device"),
		Name:    attrs.optional("name"),
	}
	if err := attrs.finish(); err != nil {
		return nil, err
	}
	if err := d.expectEnd(start.Name.Local); err != nil {
		return nil, err
	}
	return cmd, nil
}

// decodeDelProperty decodes a delProperty element.
func (d *Decoder) decodeDelProperty(start xml.StartElement) (Command, error) {
	attrs := newAttrSet(start)
	device, err := attrs.required("device")
	if err != nil {
		return nil, err
	}
	timestamp, err := attrs.timestamp()
	if err != nil {
		return nil, err
	}
	cmd := &DelProperty{
		Device:    device,
		Name:      attrs.optional("name"),
		Timestamp: timestamp,
		Message:   attrs.optional("message"),
	}
	if err := attrs.finish(); err != nil {
		return nil, err
	}
	if err := d.expectEnd(start.Name.Local); err != nil {
		return nil, err
	}
	return cmd, nil
}

// decodeMessage decodes a message element.
func (d *Decoder) decodeMessage(start xml.StartElement) (Command, error) {
	attrs := newAttrSet(start)
	timestamp, err := attrs.timestamp()
	if err != nil {
		return nil, err
	}
	cmd := &Message{
		Device:    attrs.optional("device"),
		Timestamp: timestamp,
		Message:   attrs.optional("message"),
	}
	if err := attrs.finish(); err != nil {
		return nil, err
	}
	if err := d.expectEnd(start.Name.Local); err != nil {
		return nil, err
	}
	return cmd, nil
}

// decodeEnableBlob decodes an enableBLOB element. The policy travels
// as the element's text content.
func (d *Decoder) decodeEnableBlob(start xml.StartElement) (Command, error) {
	attrs := newAttrSet(start)
	device, err := attrs.required("device")
	if err != nil {
		return nil, err
	}
	name := attrs.optional("name")
	if err := attrs.finish(); err != nil {
		return nil, err
	}
	text, err := d.textContent(start.Name.Local)
	if err != nil {
		return nil, err
	}
	enabled, err := ParseBlobEnable(text)
	if err != nil {
		return nil, &ValueError{Element: start.Name.Local, Value: text, Err: err}
	}
	return &EnableBlob{Device: device, Name: name, Enabled: enabled}, nil
}
