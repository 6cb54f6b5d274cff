package log

import (
	"bytes"
	"testing"

	"github.com/twinkle-astronomy/indi-go/pkg/wire"
)

func TestDirectionString(t *testing.T) {
	tests := []struct {
		dir  Direction
		want string
	}{
		{DirectionIn, "IN"},
		{DirectionOut, "OUT"},
		{Direction(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		got := tt.dir.String()
		if got != tt.want {
			t.Errorf("Direction(%d).String() = %q, want %q", tt.dir, got, tt.want)
		}
	}
}

func TestLayerString(t *testing.T) {
	tests := []struct {
		layer Layer
		want  string
	}{
		{LayerTransport, "TRANSPORT"},
		{LayerWire, "WIRE"},
		{LayerClient, "CLIENT"},
		{Layer(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		got := tt.layer.String()
		if got != tt.want {
			t.Errorf("Layer(%d).String() = %q, want %q", tt.layer, got, tt.want)
		}
	}
}

func TestCategoryString(t *testing.T) {
	tests := []struct {
		cat  Category
		want string
	}{
		{CategoryMessage, "MESSAGE"},
		{CategoryState, "STATE"},
		{CategoryError, "ERROR"},
		{Category(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		got := tt.cat.String()
		if got != tt.want {
			t.Errorf("Category(%d).String() = %q, want %q", tt.cat, got, tt.want)
		}
	}
}

func TestStateEntityString(t *testing.T) {
	tests := []struct {
		entity StateEntity
		want   string
	}{
		{StateEntityConnection, "CONNECTION"},
		{StateEntityDevice, "DEVICE"},
		{StateEntityProperty, "PROPERTY"},
		{StateEntity(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		got := tt.entity.String()
		if got != tt.want {
			t.Errorf("StateEntity(%d).String() = %q, want %q", tt.entity, got, tt.want)
		}
	}
}

func TestDirectionValues(t *testing.T) {
	// Verify explicit values for wire stability
	if DirectionIn != 0 {
		t.Errorf("DirectionIn = %d, want 0", DirectionIn)
	}
	if DirectionOut != 1 {
		t.Errorf("DirectionOut = %d, want 1", DirectionOut)
	}
}

func TestLayerValues(t *testing.T) {
	// Verify explicit values for wire stability
	if LayerTransport != 0 {
		t.Errorf("LayerTransport = %d, want 0", LayerTransport)
	}
	if LayerWire != 1 {
		t.Errorf("LayerWire = %d, want 1", LayerWire)
	}
	if LayerClient != 2 {
		t.Errorf("LayerClient = %d, want 2", LayerClient)
	}
}

func TestCategoryValues(t *testing.T) {
	// Verify explicit values for wire stability
	if CategoryMessage != 0 {
		t.Errorf("CategoryMessage = %d, want 0", CategoryMessage)
	}
	if CategoryState != 1 {
		t.Errorf("CategoryState = %d, want 1", CategoryState)
	}
	if CategoryError != 2 {
		t.Errorf("CategoryError = %d, want 2", CategoryError)
	}
}

func TestStateEntityValues(t *testing.T) {
	// Verify explicit values for wire stability
	if StateEntityConnection != 0 {
		t.Errorf("StateEntityConnection = %d, want 0", StateEntityConnection)
	}
	if StateEntityDevice != 1 {
		t.Errorf("StateEntityDevice = %d, want 1", StateEntityDevice)
	}
	if StateEntityProperty != 2 {
		t.Errorf("StateEntityProperty = %d, want 2", StateEntityProperty)
	}
}

func TestNewFrameEventSmall(t *testing.T) {
	data := []byte("<getProperties version=\"1.7\"/>")
	ev := NewFrameEvent(data)

	if ev.Size != len(data) {
		t.Errorf("Size = %d, want %d", ev.Size, len(data))
	}
	if !bytes.Equal(ev.Data, data) {
		t.Errorf("Data = %q, want %q", ev.Data, data)
	}
	if ev.Truncated {
		t.Error("Truncated = true for small frame")
	}

	// The event holds its own copy.
	data[0] = 'X'
	if ev.Data[0] != '<' {
		t.Error("FrameEvent aliases caller's buffer")
	}
}

func TestNewFrameEventTruncates(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, MaxFrameCapture+1000)
	ev := NewFrameEvent(data)

	if ev.Size != len(data) {
		t.Errorf("Size = %d, want %d", ev.Size, len(data))
	}
	if len(ev.Data) != MaxFrameCapture {
		t.Errorf("len(Data) = %d, want %d", len(ev.Data), MaxFrameCapture)
	}
	if !ev.Truncated {
		t.Error("Truncated = false for oversize frame")
	}
}

func TestSummarizeCommand(t *testing.T) {
	name := "CCD_EXPOSURE"

	tests := []struct {
		name string
		cmd  wire.Command
		want CommandEvent
	}{
		{
			name: "getProperties",
			cmd:  &wire.GetProperties{Version: "1.7"},
			want: CommandEvent{Element: "getProperties"},
		},
		{
			name: "setNumberVector",
			cmd: &wire.SetNumberVector{
				Device: "CCD Simulator",
				Name:   "CCD_EXPOSURE",
				State:  wire.StateBusy,
				Numbers: []wire.SetOneNumber{
					{Name: "CCD_EXPOSURE_VALUE", Value: 2.5},
				},
			},
			want: CommandEvent{
				Element:   "setNumberVector",
				Device:    "CCD Simulator",
				Property:  "CCD_EXPOSURE",
				State:     "Busy",
				ItemCount: 1,
			},
		},
		{
			name: "defSwitchVector",
			cmd: &wire.DefSwitchVector{
				Device: "Telescope",
				Name:   "CONNECTION",
				State:  wire.StateIdle,
				Switches: []wire.DefSwitch{
					{Name: "CONNECT"}, {Name: "DISCONNECT"},
				},
			},
			want: CommandEvent{
				Element:   "defSwitchVector",
				Device:    "Telescope",
				Property:  "CONNECTION",
				State:     "Idle",
				ItemCount: 2,
			},
		},
		{
			name: "newSwitchVector has no state",
			cmd: &wire.NewSwitchVector{
				Device:   "Telescope",
				Name:     "CONNECTION",
				Switches: []wire.OneSwitch{{Name: "CONNECT", Value: wire.SwitchOn}},
			},
			want: CommandEvent{
				Element:   "newSwitchVector",
				Device:    "Telescope",
				Property:  "CONNECTION",
				ItemCount: 1,
			},
		},
		{
			name: "setBLOBVector keeps wire casing",
			cmd: &wire.SetBlobVector{
				Device: "CCD Simulator",
				Name:   "CCD1",
				State:  wire.StateOk,
				Blobs:  []wire.OneBlob{{Name: "CCD1"}},
			},
			want: CommandEvent{
				Element:   "setBLOBVector",
				Device:    "CCD Simulator",
				Property:  "CCD1",
				State:     "Ok",
				ItemCount: 1,
			},
		},
		{
			name: "delProperty with name",
			cmd:  &wire.DelProperty{Device: "Focuser", Name: &name},
			want: CommandEvent{Element: "delProperty", Device: "Focuser", Property: "CCD_EXPOSURE"},
		},
		{
			name: "enableBLOB",
			cmd:  &wire.EnableBlob{Device: "CCD Simulator", Enabled: wire.BlobAlso},
			want: CommandEvent{Element: "enableBLOB", Device: "CCD Simulator"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SummarizeCommand(tt.cmd)
			if *got != tt.want {
				t.Errorf("SummarizeCommand = %+v, want %+v", *got, tt.want)
			}
		})
	}
}
