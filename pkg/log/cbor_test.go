package log

import (
	"testing"
	"time"
)

func TestEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456789, time.UTC)
	original := Event{
		Timestamp:    ts,
		ConnectionID: "abc12345-def6-7890-abcd-ef1234567890",
		Direction:    DirectionOut,
		Layer:        LayerWire,
		Category:     CategoryMessage,
		RemoteAddr:   "192.168.1.100:7624",
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	// Compare fields
	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, original.Timestamp)
	}
	if decoded.ConnectionID != original.ConnectionID {
		t.Errorf("ConnectionID: got %q, want %q", decoded.ConnectionID, original.ConnectionID)
	}
	if decoded.Direction != original.Direction {
		t.Errorf("Direction: got %v, want %v", decoded.Direction, original.Direction)
	}
	if decoded.Layer != original.Layer {
		t.Errorf("Layer: got %v, want %v", decoded.Layer, original.Layer)
	}
	if decoded.Category != original.Category {
		t.Errorf("Category: got %v, want %v", decoded.Category, original.Category)
	}
	if decoded.RemoteAddr != original.RemoteAddr {
		t.Errorf("RemoteAddr: got %q, want %q", decoded.RemoteAddr, original.RemoteAddr)
	}
}

func TestTimestampNanosecondPrecision(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)
	original := Event{Timestamp: ts, ConnectionID: "conn-ns"}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !decoded.Timestamp.Equal(ts) {
		t.Errorf("Timestamp: got %v, want %v (nanoseconds lost)", decoded.Timestamp, ts)
	}
}

func TestFrameEventCBORRoundTrip(t *testing.T) {
	original := Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-123",
		Direction:    DirectionIn,
		Layer:        LayerTransport,
		Category:     CategoryMessage,
		Frame: &FrameEvent{
			Size:      256,
			Data:      []byte("<setSwitchVector device=\"Telescope\""),
			Truncated: true,
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if decoded.Frame == nil {
		t.Fatal("Frame is nil")
	}
	if decoded.Frame.Size != original.Frame.Size {
		t.Errorf("Frame.Size: got %d, want %d", decoded.Frame.Size, original.Frame.Size)
	}
	if string(decoded.Frame.Data) != string(original.Frame.Data) {
		t.Errorf("Frame.Data: got %q, want %q", decoded.Frame.Data, original.Frame.Data)
	}
	if decoded.Frame.Truncated != original.Frame.Truncated {
		t.Errorf("Frame.Truncated: got %v, want %v", decoded.Frame.Truncated, original.Frame.Truncated)
	}
}

func TestCommandEventCBORRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cmd  *CommandEvent
	}{
		{
			name: "set vector",
			cmd: &CommandEvent{
				Element:   "setNumberVector",
				Device:    "CCD Simulator",
				Property:  "CCD_EXPOSURE",
				State:     "Busy",
				ItemCount: 1,
			},
		},
		{
			name: "getProperties has no device",
			cmd:  &CommandEvent{Element: "getProperties"},
		},
		{
			name: "delProperty",
			cmd:  &CommandEvent{Element: "delProperty", Device: "Focuser"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := Event{
				Timestamp:    time.Now(),
				ConnectionID: "conn-123",
				Direction:    DirectionIn,
				Layer:        LayerWire,
				Category:     CategoryMessage,
				Command:      tt.cmd,
			}

			data, err := EncodeEvent(original)
			if err != nil {
				t.Fatalf("EncodeEvent failed: %v", err)
			}

			decoded, err := DecodeEvent(data)
			if err != nil {
				t.Fatalf("DecodeEvent failed: %v", err)
			}

			if decoded.Command == nil {
				t.Fatal("Command is nil")
			}
			if *decoded.Command != *tt.cmd {
				t.Errorf("Command: got %+v, want %+v", *decoded.Command, *tt.cmd)
			}
		})
	}
}

func TestDeviceMessageEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2026, 2, 2, 14, 30, 0, 0, time.UTC)
	original := Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-123",
		Direction:    DirectionIn,
		Layer:        LayerClient,
		Category:     CategoryMessage,
		DeviceMessage: &DeviceMessageEvent{
			Device:    "Telescope",
			Message:   "Slewing to target",
			Timestamp: ts,
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if decoded.DeviceMessage == nil {
		t.Fatal("DeviceMessage is nil")
	}
	if decoded.DeviceMessage.Device != original.DeviceMessage.Device {
		t.Errorf("Device: got %q, want %q", decoded.DeviceMessage.Device, original.DeviceMessage.Device)
	}
	if decoded.DeviceMessage.Message != original.DeviceMessage.Message {
		t.Errorf("Message: got %q, want %q", decoded.DeviceMessage.Message, original.DeviceMessage.Message)
	}
	if !decoded.DeviceMessage.Timestamp.Equal(ts) {
		t.Errorf("Timestamp: got %v, want %v", decoded.DeviceMessage.Timestamp, ts)
	}
}

func TestStateChangeEventCBORRoundTrip(t *testing.T) {
	original := Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-123",
		Direction:    DirectionIn,
		Layer:        LayerClient,
		Category:     CategoryState,
		StateChange: &StateChangeEvent{
			Entity:   StateEntityProperty,
			Name:     "Telescope.CONNECTION",
			OldState: "defined",
			NewState: "removed",
			Reason:   "delProperty",
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if decoded.StateChange == nil {
		t.Fatal("StateChange is nil")
	}
	if *decoded.StateChange != *original.StateChange {
		t.Errorf("StateChange: got %+v, want %+v", *decoded.StateChange, *original.StateChange)
	}
}

func TestErrorEventCBORRoundTrip(t *testing.T) {
	original := Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-123",
		Direction:    DirectionIn,
		Layer:        LayerWire,
		Category:     CategoryError,
		Error: &ErrorEventData{
			Layer:   LayerWire,
			Message: "missing attribute device on setNumberVector",
			Context: "read loop",
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if decoded.Error == nil {
		t.Fatal("Error is nil")
	}
	if *decoded.Error != *original.Error {
		t.Errorf("Error: got %+v, want %+v", *decoded.Error, *original.Error)
	}
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	if _, err := DecodeEvent([]byte("not cbor at all")); err == nil {
		t.Error("DecodeEvent accepted garbage input")
	}
}

func TestOmittedPayloadsStayNil(t *testing.T) {
	data, err := EncodeEvent(Event{Timestamp: time.Now(), ConnectionID: "c"})
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if decoded.Frame != nil || decoded.Command != nil || decoded.DeviceMessage != nil ||
		decoded.StateChange != nil || decoded.Error != nil {
		t.Errorf("payloads not nil: %+v", decoded)
	}
}
