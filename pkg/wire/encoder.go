package wire

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"io"
	"strconv"
)

// Encoder writes protocol elements to a stream. Each command is
// written as one element followed by a newline and flushed, so a
// command is on the wire when Encode returns.
type Encoder struct {
	bw *bufio.Writer
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{bw: bufio.NewWriter(w)}
}

// Encode serializes cmd and flushes it to the underlying writer.
func (e *Encoder) Encode(cmd Command) error {
	var ew elemWriter
	cmd.writeXML(&ew)
	if _, err := e.bw.Write(ew.buf.Bytes()); err != nil {
		return err
	}
	if err := e.bw.WriteByte('\n'); err != nil {
		return err
	}
	return e.bw.Flush()
}

// Marshal serializes cmd as a single XML element with no trailing
// newline. Serialization of a well-formed command cannot fail.
func Marshal(cmd Command) []byte {
	var ew elemWriter
	cmd.writeXML(&ew)
	return ew.buf.Bytes()
}

// Unmarshal decodes data holding exactly one protocol element.
func Unmarshal(data []byte) (Command, error) {
	d := NewDecoder(bytes.NewReader(data))
	cmd, err := d.Next()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if _, err := d.Next(); err != io.EOF {
		return nil, &UnexpectedEventError{Event: "data after element"}
	}
	return cmd, nil
}

// elemWriter builds one XML element. Attribute methods are only valid
// between open and content or closeEmpty. Writes into the buffer
// cannot fail, so the methods carry no errors.
type elemWriter struct {
	buf bytes.Buffer
}

// open starts an element's start tag.
func (w *elemWriter) open(name string) {
	w.buf.WriteByte('<')
	w.buf.WriteString(name)
}

// attr appends an escaped attribute.
func (w *elemWriter) attr(name, value string) {
	w.buf.WriteByte(' ')
	w.buf.WriteString(name)
	w.buf.WriteString(`="`)
	_ = xml.EscapeText(&w.buf, []byte(value))
	w.buf.WriteByte('"')
}

// optAttr appends the attribute when value is present.
func (w *elemWriter) optAttr(name string, value *string) {
	if value != nil {
		w.attr(name, *value)
	}
}

// timeoutAttr appends an optional timeout attribute.
func (w *elemWriter) timeoutAttr(value *uint32) {
	if value != nil {
		w.attr("timeout", strconv.FormatUint(uint64(*value), 10))
	}
}

// timestampAttr appends an optional timestamp attribute.
func (w *elemWriter) timestampAttr(value *Timestamp) {
	if value != nil {
		w.attr("timestamp", value.String())
	}
}

// numberAttr appends a numeric attribute.
func (w *elemWriter) numberAttr(name string, value float64) {
	w.attr(name, FormatNumber(value))
}

// optNumberAttr appends a numeric attribute when value is present.
func (w *elemWriter) optNumberAttr(name string, value *float64) {
	if value != nil {
		w.numberAttr(name, *value)
	}
}

// content closes the start tag, switching to element content.
func (w *elemWriter) content() {
	w.buf.WriteByte('>')
}

// closeEmpty closes the element with no content.
func (w *elemWriter) closeEmpty() {
	w.buf.WriteString("/>")
}

// text appends escaped character data.
func (w *elemWriter) text(value string) {
	_ = xml.EscapeText(&w.buf, []byte(value))
}

// blobText appends base64 content. Base64 needs no escaping.
func (w *elemWriter) blobText(value []byte) {
	enc := base64.NewEncoder(base64.StdEncoding, &w.buf)
	_, _ = enc.Write(value)
	_ = enc.Close()
}

// end appends the element's end tag.
func (w *elemWriter) end(name string) {
	w.buf.WriteString("</")
	w.buf.WriteString(name)
	w.buf.WriteByte('>')
}
