package transport

import (
	"bytes"
	"io"
)

// captureReader buffers everything read from the underlying stream so
// the connection can attribute raw bytes to the elements decoded from
// them. The decoder reports stream offsets; take returns the window
// for one element and releases everything before it, so the buffer
// never holds more than the decoder's read-ahead plus one element.
type captureReader struct {
	r    io.Reader
	buf  []byte
	base int64
}

func newCaptureReader(r io.Reader) *captureReader {
	return &captureReader{r: r}
}

func (cr *captureReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.buf = append(cr.buf, p[:n]...)
	}
	return n, err
}

// take copies the bytes spanning stream offsets [from, to) and drops
// the buffer up to to. Offsets already released yield their remaining
// suffix.
func (cr *captureReader) take(from, to int64) []byte {
	if from < cr.base {
		from = cr.base
	}
	if max := cr.base + int64(len(cr.buf)); to > max {
		to = max
	}
	if to <= from {
		return nil
	}
	out := append([]byte(nil), cr.buf[from-cr.base:to-cr.base]...)
	cr.buf = append(cr.buf[:0], cr.buf[to-cr.base:]...)
	cr.base = to
	return out
}

// captureWriter forwards writes to the underlying stream while keeping
// a copy, so the connection can log the exact bytes an encoder put on
// the wire. frame returns the bytes written since the last reset.
type captureWriter struct {
	w   io.Writer
	buf bytes.Buffer
}

func newCaptureWriter(w io.Writer) *captureWriter {
	return &captureWriter{w: w}
}

func (cw *captureWriter) Write(p []byte) (int, error) {
	cw.buf.Write(p)
	return cw.w.Write(p)
}

func (cw *captureWriter) frame() []byte {
	return cw.buf.Bytes()
}

func (cw *captureWriter) reset() {
	cw.buf.Reset()
}
