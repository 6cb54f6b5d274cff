package wire

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"strconv"
	"strings"
)

// DefBlobVector defines a BLOB property and its items. Item payloads
// only arrive through set elements, and only after the client opts in
// with enableBLOB.
type DefBlobVector struct {
	Device    string
	Name      string
	Label     *string
	Group     *string
	State     PropertyState
	Perm      PropertyPerm
	Timeout   *uint32
	Timestamp *Timestamp
	Message   *string

	Blobs []DefBlob
}

// DeviceName reports the addressed device.
func (c *DefBlobVector) DeviceName() string { return c.Device }

// DefBlob is one item of a BLOB property definition. Definitions carry
// no payload.
type DefBlob struct {
	Name  string
	Label *string
}

// SetBlobVector updates the payloads of an existing BLOB property.
type SetBlobVector struct {
	Device    string
	Name      string
	State     PropertyState
	Timeout   *uint32
	Timestamp *Timestamp
	Message   *string

	Blobs []OneBlob
}

// DeviceName reports the addressed device.
func (c *SetBlobVector) DeviceName() string { return c.Device }

// NewBlobVector uploads payloads to a writable BLOB property.
type NewBlobVector struct {
	Device    string
	Name      string
	Timestamp *Timestamp

	Blobs []OneBlob
}

// DeviceName reports the addressed device.
func (c *NewBlobVector) DeviceName() string { return c.Device }

// OneBlob is one named payload. Value holds the decoded bytes; Size is
// the decoded length claimed by the sender and Format a file-name
// suffix such as ".fits". EncLen, when present, is the sender's length
// of the base64 text.
type OneBlob struct {
	Name   string
	Size   uint64
	EncLen *uint64
	Format string
	Value  []byte
}

func (d *Decoder) decodeDefBlobVector(start xml.StartElement) (Command, error) {
	attrs := newAttrSet(start)
	cmd := &DefBlobVector{}
	var err error
	if cmd.Device, err = attrs.required("device"); err != nil {
		return nil, err
	}
	if cmd.Name, err = attrs.required("name"); err != nil {
		return nil, err
	}
	cmd.Label = attrs.optional("label")
	cmd.Group = attrs.optional("group")
	if cmd.State, err = attrs.state(); err != nil {
		return nil, err
	}
	if cmd.Perm, err = attrs.perm(); err != nil {
		return nil, err
	}
	if cmd.Timeout, err = attrs.timeout(); err != nil {
		return nil, err
	}
	if cmd.Timestamp, err = attrs.timestamp(); err != nil {
		return nil, err
	}
	cmd.Message = attrs.optional("message")
	if err := attrs.finish(); err != nil {
		return nil, err
	}
	err = d.childElements(start.Name.Local, func(child xml.StartElement) error {
		if child.Name.Local != "defBLOB" {
			return &UnexpectedTagError{Tag: child.Name.Local}
		}
		attrs := newAttrSet(child)
		item := DefBlob{}
		var err error
		if item.Name, err = attrs.required("name"); err != nil {
			return err
		}
		item.Label = attrs.optional("label")
		if err := attrs.finish(); err != nil {
			return err
		}
		if err := d.expectEnd(child.Name.Local); err != nil {
			return err
		}
		cmd.Blobs = append(cmd.Blobs, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

func (d *Decoder) decodeSetBlobVector(start xml.StartElement) (Command, error) {
	attrs := newAttrSet(start)
	cmd := &SetBlobVector{}
	var err error
	if cmd.Device, err = attrs.required("device"); err != nil {
		return nil, err
	}
	if cmd.Name, err = attrs.required("name"); err != nil {
		return nil, err
	}
	if cmd.State, err = attrs.state(); err != nil {
		return nil, err
	}
	if cmd.Timeout, err = attrs.timeout(); err != nil {
		return nil, err
	}
	if cmd.Timestamp, err = attrs.timestamp(); err != nil {
		return nil, err
	}
	cmd.Message = attrs.optional("message")
	if err := attrs.finish(); err != nil {
		return nil, err
	}
	if cmd.Blobs, err = d.decodeOneBlobs(start.Name.Local); err != nil {
		return nil, err
	}
	return cmd, nil
}

func (d *Decoder) decodeNewBlobVector(start xml.StartElement) (Command, error) {
	attrs := newAttrSet(start)
	cmd := &NewBlobVector{}
	var err error
	if cmd.Device, err = attrs.required("device"); err != nil {
		return nil, err
	}
	if cmd.Name, err = attrs.required("name"); err != nil {
		return nil, err
	}
	if cmd.Timestamp, err = attrs.timestamp(); err != nil {
		return nil, err
	}
	if err := attrs.finish(); err != nil {
		return nil, err
	}
	if cmd.Blobs, err = d.decodeOneBlobs(start.Name.Local); err != nil {
		return nil, err
	}
	return cmd, nil
}

func (d *Decoder) decodeOneBlobs(parent string) ([]OneBlob, error) {
	var items []OneBlob
	err := d.childElements(parent, func(child xml.StartElement) error {
		if child.Name.Local != "oneBLOB" {
			return &UnexpectedTagError{Tag: child.Name.Local}
		}
		item, err := d.decodeOneBlob(child)
		if err != nil {
			return err
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (d *Decoder) decodeOneBlob(start xml.StartElement) (OneBlob, error) {
	attrs := newAttrSet(start)
	item := OneBlob{}
	var err error
	if item.Name, err = attrs.required("name"); err != nil {
		return item, err
	}
	sizeRaw, err := attrs.required("size")
	if err != nil {
		return item, err
	}
	if item.Size, err = strconv.ParseUint(sizeRaw, 10, 64); err != nil {
		return item, &ValueError{Element: start.Name.Local, Attr: "size", Value: sizeRaw, Err: err}
	}
	if encRaw, ok := attrs.lookup("enclen"); ok {
		enc, err := strconv.ParseUint(encRaw, 10, 64)
		if err != nil {
			return item, &ValueError{Element: start.Name.Local, Attr: "enclen", Value: encRaw, Err: err}
		}
		item.EncLen = &enc
	}
	if item.Format, err = attrs.required("format"); err != nil {
		return item, err
	}
	if err := attrs.finish(); err != nil {
		return item, err
	}
	if item.Value, err = d.blobContent(start.Name.Local); err != nil {
		return item, err
	}
	return item, nil
}

// blobContent collects the element's content and decodes it as base64.
// Senders wrap the encoding across lines, so each line decodes on its
// own and the results concatenate.
func (d *Decoder) blobContent(element string) ([]byte, error) {
	var raw bytes.Buffer
	for {
		tok, err := d.xd.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			raw.Write(t)
		case xml.EndElement:
			return decodeBlobLines(element, raw.String())
		case xml.StartElement:
			return nil, &UnexpectedTagError{Tag: t.Name.Local}
		default:
		}
	}
}

func decodeBlobLines(element, raw string) ([]byte, error) {
	var out []byte
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		chunk, err := base64.StdEncoding.DecodeString(line)
		if err != nil {
			return nil, &ValueError{Element: element, Value: line, Err: err}
		}
		out = append(out, chunk...)
	}
	return out, nil
}

func (c *DefBlobVector) writeXML(w *elemWriter) {
	w.open("defBLOBVector")
	w.attr("device", c.Device)
	w.attr("name", c.Name)
	w.optAttr("label", c.Label)
	w.optAttr("group", c.Group)
	w.attr("state", c.State.String())
	w.attr("perm", c.Perm.String())
	w.timeoutAttr(c.Timeout)
	w.timestampAttr(c.Timestamp)
	w.optAttr("message", c.Message)
	w.content()
	for _, item := range c.Blobs {
		w.open("defBLOB")
		w.attr("name", item.Name)
		w.optAttr("label", item.Label)
		w.closeEmpty()
	}
	w.end("defBLOBVector")
}

func (c *SetBlobVector) writeXML(w *elemWriter) {
	w.open("setBLOBVector")
	w.attr("device", c.Device)
	w.attr("name", c.Name)
	w.attr("state", c.State.String())
	w.timeoutAttr(c.Timeout)
	w.timestampAttr(c.Timestamp)
	w.optAttr("message", c.Message)
	w.content()
	writeOneBlobs(w, c.Blobs)
	w.end("setBLOBVector")
}

func (c *NewBlobVector) writeXML(w *elemWriter) {
	w.open("newBLOBVector")
	w.attr("device", c.Device)
	w.attr("name", c.Name)
	w.timestampAttr(c.Timestamp)
	w.content()
	writeOneBlobs(w, c.Blobs)
	w.end("newBLOBVector")
}

func writeOneBlobs(w *elemWriter, items []OneBlob) {
	for _, item := range items {
		w.open("oneBLOB")
		w.attr("name", item.Name)
		w.attr("size", strconv.FormatUint(item.Size, 10))
		if item.EncLen != nil {
			w.attr("enclen", strconv.FormatUint(*item.EncLen, 10))
		}
		w.attr("format", item.Format)
		w.content()
		w.blobText(item.Value)
		w.end("oneBLOB")
	}
}
