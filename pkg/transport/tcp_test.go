package transport

import (
	"bytes"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/twinkle-astronomy/indi-go/pkg/log"
	"github.com/twinkle-astronomy/indi-go/pkg/wire"
)

// capturingLogger captures log events for testing.
type capturingLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (l *capturingLogger) Log(event log.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *capturingLogger) Events() []log.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]log.Event(nil), l.events...)
}

func findFrameEvent(events []log.Event, dir log.Direction) *log.Event {
	for i := range events {
		if events[i].Frame != nil && events[i].Direction == dir {
			return &events[i]
		}
	}
	return nil
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.DialTimeout != 30*time.Second {
		t.Errorf("DialTimeout = %v, want 30s", cfg.DialTimeout)
	}
	if cfg.Logger == nil {
		t.Error("Logger not defaulted")
	}
	if cfg.ConnID == "" {
		t.Error("ConnID not generated")
	}

	custom := Config{DialTimeout: time.Second, ConnID: "conn-1"}.withDefaults()
	if custom.DialTimeout != time.Second {
		t.Errorf("DialTimeout = %v, want 1s", custom.DialTimeout)
	}
	if custom.ConnID != "conn-1" {
		t.Errorf("ConnID = %q, want %q", custom.ConnID, "conn-1")
	}
}

func TestTCPRoundTrip(t *testing.T) {
	a, b := net.Pipe()
	client := NewTCPConn(a, Config{})
	server := NewTCPConn(b, Config{})
	defer client.Shutdown()
	defer server.Shutdown()

	sent := make(chan struct{})
	go func() {
		defer close(sent)
		if err := client.Write(&wire.GetProperties{Version: "1.7"}); err != nil {
			t.Errorf("Write failed: %v", err)
		}
	}()

	cmd, err := server.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	<-sent

	get, ok := cmd.(*wire.GetProperties)
	if !ok {
		t.Fatalf("command type = %T, want *wire.GetProperties", cmd)
	}
	if get.Version != "1.7" {
		t.Errorf("Version = %q, want %q", get.Version, "1.7")
	}

	// Reply in the other direction.
	device := "Telescope"
	text := "parked"
	replied := make(chan struct{})
	go func() {
		defer close(replied)
		if err := server.Write(&wire.Message{Device: &device, Message: &text}); err != nil {
			t.Errorf("Write failed: %v", err)
		}
	}()

	cmd, err = client.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	<-replied

	msg, ok := cmd.(*wire.Message)
	if !ok {
		t.Fatalf("command type = %T, want *wire.Message", cmd)
	}
	if msg.DeviceName() != "Telescope" {
		t.Errorf("device = %q, want %q", msg.DeviceName(), "Telescope")
	}
	if msg.Message == nil || *msg.Message != "parked" {
		t.Errorf("message = %v, want %q", msg.Message, "parked")
	}
}

func TestTCPStreamingDecode(t *testing.T) {
	a, b := net.Pipe()
	client := NewTCPConn(a, Config{})
	defer client.Shutdown()

	// Element boundaries are independent of write boundaries: one
	// element split across two writes, then a second element in the
	// same write as the first's tail.
	go func() {
		b.Write([]byte(`<getProp`))
		b.Write([]byte("erties version=\"1.7\"/>\n<message message=\"telescope ready\"/>\n"))
		b.Close()
	}()

	first, err := client.Read()
	if err != nil {
		t.Fatalf("first Read failed: %v", err)
	}
	if _, ok := first.(*wire.GetProperties); !ok {
		t.Errorf("first command = %T, want *wire.GetProperties", first)
	}

	second, err := client.Read()
	if err != nil {
		t.Fatalf("second Read failed: %v", err)
	}
	msg, ok := second.(*wire.Message)
	if !ok {
		t.Fatalf("second command = %T, want *wire.Message", second)
	}
	if msg.Message == nil || *msg.Message != "telescope ready" {
		t.Errorf("message = %v, want %q", msg.Message, "telescope ready")
	}

	if _, err := client.Read(); err != io.EOF {
		t.Errorf("Read after peer close = %v, want io.EOF", err)
	}
}

func TestTCPWriteWireFormat(t *testing.T) {
	a, b := net.Pipe()
	client := NewTCPConn(a, Config{})
	defer client.Shutdown()

	got := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 4096)
		n, err := b.Read(buf)
		if err != nil {
			got <- nil
			return
		}
		got <- buf[:n]
	}()

	if err := client.Write(&wire.GetProperties{Version: "1.7"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data := <-got
	want := append(wire.Marshal(&wire.GetProperties{Version: "1.7"}), '\n')
	if !bytes.Equal(data, want) {
		t.Errorf("wire bytes = %q, want %q", data, want)
	}
}

func TestTCPShutdown(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()
	conn := NewTCPConn(a, Config{})

	if err := conn.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if err := conn.Shutdown(); err != nil {
		t.Errorf("second Shutdown = %v, want nil", err)
	}

	if _, err := conn.Read(); !errors.Is(err, ErrConnClosed) {
		t.Errorf("Read after Shutdown = %v, want ErrConnClosed", err)
	}
	if err := conn.Write(&wire.GetProperties{Version: "1.7"}); !errors.Is(err, ErrConnClosed) {
		t.Errorf("Write after Shutdown = %v, want ErrConnClosed", err)
	}
}

func TestTCPShutdownUnblocksRead(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()
	conn := NewTCPConn(a, Config{})

	errCh := make(chan error, 1)
	go func() {
		_, err := conn.Read()
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	conn.Shutdown()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrConnClosed) {
			t.Errorf("Read unblocked with %v, want ErrConnClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Read did not unblock after Shutdown")
	}
}

func TestTCPReadTimeout(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()
	conn := NewTCPConn(a, Config{ReadTimeout: 50 * time.Millisecond})
	defer conn.Shutdown()

	_, err := conn.Read()
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Errorf("Read error = %v, want deadline exceeded", err)
	}
}

func TestTCPDecodeErrorPassthrough(t *testing.T) {
	a, b := net.Pipe()
	conn := NewTCPConn(a, Config{})
	defer conn.Shutdown()

	go func() {
		b.Write([]byte("<bogusElement/>\n"))
	}()

	_, err := conn.Read()
	var tagErr *wire.UnexpectedTagError
	if !errors.As(err, &tagErr) {
		t.Fatalf("Read error = %v (%T), want *wire.UnexpectedTagError", err, err)
	}
	if tagErr.Tag != "bogusElement" {
		t.Errorf("Tag = %q, want %q", tagErr.Tag, "bogusElement")
	}
}

func TestTCPLogsFrames(t *testing.T) {
	clientLog := &capturingLogger{}
	serverLog := &capturingLogger{}

	a, b := net.Pipe()
	client := NewTCPConn(a, Config{ConnID: "conn-client", Logger: clientLog})
	server := NewTCPConn(b, Config{ConnID: "conn-server", Logger: serverLog})
	defer client.Shutdown()
	defer server.Shutdown()

	sent := make(chan struct{})
	go func() {
		defer close(sent)
		if err := client.Write(&wire.GetProperties{Version: "1.7"}); err != nil {
			t.Errorf("Write failed: %v", err)
		}
	}()
	if _, err := server.Read(); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	<-sent

	element := wire.Marshal(&wire.GetProperties{Version: "1.7"})

	out := findFrameEvent(clientLog.Events(), log.DirectionOut)
	if out == nil {
		t.Fatal("client logged no outbound frame event")
	}
	if out.ConnectionID != "conn-client" {
		t.Errorf("ConnectionID = %q, want %q", out.ConnectionID, "conn-client")
	}
	if out.Layer != log.LayerTransport {
		t.Errorf("Layer = %v, want LayerTransport", out.Layer)
	}
	if out.Category != log.CategoryMessage {
		t.Errorf("Category = %v, want CategoryMessage", out.Category)
	}
	if !bytes.Equal(out.Frame.Data, element) {
		t.Errorf("outbound Frame.Data = %q, want %q", out.Frame.Data, element)
	}

	in := findFrameEvent(serverLog.Events(), log.DirectionIn)
	if in == nil {
		t.Fatal("server logged no inbound frame event")
	}
	if in.ConnectionID != "conn-server" {
		t.Errorf("ConnectionID = %q, want %q", in.ConnectionID, "conn-server")
	}
	if !bytes.Equal(in.Frame.Data, element) {
		t.Errorf("inbound Frame.Data = %q, want %q", in.Frame.Data, element)
	}
}

func TestTCPLogsLifecycle(t *testing.T) {
	logger := &capturingLogger{}

	a, b := net.Pipe()
	defer b.Close()
	conn := NewTCPConn(a, Config{ConnID: "conn-life", Logger: logger})
	conn.Shutdown()

	events := logger.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	open := events[0]
	if open.Category != log.CategoryState || open.StateChange == nil {
		t.Fatalf("first event is not a state change: %+v", open)
	}
	if open.StateChange.NewState != "connected" {
		t.Errorf("NewState = %q, want %q", open.StateChange.NewState, "connected")
	}
	if open.StateChange.Entity != log.StateEntityConnection {
		t.Errorf("Entity = %v, want StateEntityConnection", open.StateChange.Entity)
	}

	closed := events[1]
	if closed.StateChange == nil {
		t.Fatalf("second event is not a state change: %+v", closed)
	}
	if closed.StateChange.OldState != "connected" || closed.StateChange.NewState != "closed" {
		t.Errorf("transition = %q -> %q, want connected -> closed",
			closed.StateChange.OldState, closed.StateChange.NewState)
	}
}

func TestCaptureReaderTake(t *testing.T) {
	cr := newCaptureReader(strings.NewReader("abcdefghij"))

	buf := make([]byte, 8)
	if _, err := io.ReadFull(cr, buf); err != nil {
		t.Fatalf("ReadFull failed: %v", err)
	}

	if got := cr.take(0, 6); string(got) != "abcdef" {
		t.Errorf("take(0, 6) = %q, want %q", got, "abcdef")
	}

	// The prefix is released; a window reaching back only yields the
	// unreleased suffix.
	if got := cr.take(0, 8); string(got) != "gh" {
		t.Errorf("take(0, 8) = %q, want %q", got, "gh")
	}

	if _, err := io.ReadFull(cr, buf[:2]); err != nil {
		t.Fatalf("ReadFull failed: %v", err)
	}
	if got := cr.take(8, 10); string(got) != "ij" {
		t.Errorf("take(8, 10) = %q, want %q", got, "ij")
	}

	if got := cr.take(10, 10); len(got) != 0 {
		t.Errorf("empty window = %q, want none", got)
	}
}

func TestCaptureWriterFrame(t *testing.T) {
	var sink bytes.Buffer
	cw := newCaptureWriter(&sink)

	cw.Write([]byte("<a"))
	cw.Write([]byte("/>"))
	if got := string(cw.frame()); got != "<a/>" {
		t.Errorf("frame = %q, want %q", got, "<a/>")
	}

	cw.reset()
	cw.Write([]byte("<b/>"))
	if got := string(cw.frame()); got != "<b/>" {
		t.Errorf("frame after reset = %q, want %q", got, "<b/>")
	}
	if sink.String() != "<a/><b/>" {
		t.Errorf("underlying stream = %q, want %q", sink.String(), "<a/><b/>")
	}
}
