package cli

import (
	"strings"
	"testing"

	"github.com/twinkle-astronomy/indi-go/pkg/model"
	"github.com/twinkle-astronomy/indi-go/pkg/wire"
)

func TestParseScope(t *testing.T) {
	tests := []struct {
		arg      string
		device   string
		property string
	}{
		{"Telescope", "Telescope", ""},
		{"Telescope.CONNECTION", "Telescope", "CONNECTION"},
		{"CCD.CCD_EXPOSURE", "CCD", "CCD_EXPOSURE"},
	}
	for _, tt := range tests {
		device, property := ParseScope(tt.arg)
		if device != tt.device || property != tt.property {
			t.Errorf("ParseScope(%q) = %q, %q, want %q, %q",
				tt.arg, device, property, tt.device, tt.property)
		}
	}
}

func TestParseSetArg(t *testing.T) {
	device, property, values, err := ParseSetArg("Telescope.EQUATORIAL_EOD_COORD.RA=5.5;DEC=-22.1")
	if err != nil {
		t.Fatalf("ParseSetArg() error = %v", err)
	}
	if device != "Telescope" {
		t.Errorf("device = %q", device)
	}
	if property != "EQUATORIAL_EOD_COORD" {
		t.Errorf("property = %q", property)
	}
	if len(values) != 2 || values["RA"] != "5.5" || values["DEC"] != "-22.1" {
		t.Errorf("values = %v", values)
	}
}

func TestParseSetArgSingleItem(t *testing.T) {
	device, property, values, err := ParseSetArg("Telescope.CONNECTION.CONNECT=On")
	if err != nil {
		t.Fatalf("ParseSetArg() error = %v", err)
	}
	if device != "Telescope" || property != "CONNECTION" {
		t.Errorf("target = %s.%s", device, property)
	}
	if len(values) != 1 || values["CONNECT"] != "On" {
		t.Errorf("values = %v", values)
	}
}

func TestParseSetArgErrors(t *testing.T) {
	bad := []string{
		"Telescope.CONNECTION.CONNECT",
		"Telescope.CONNECT=On",
		"CONNECT=On",
		"..=On",
		"Telescope.SLEW.RATE=1;=2",
	}
	for _, arg := range bad {
		if _, _, _, err := ParseSetArg(arg); err == nil {
			t.Errorf("ParseSetArg(%q) succeeded, want error", arg)
		}
	}
}

func TestParseAssignments(t *testing.T) {
	values, err := ParseAssignments([]string{"CONNECT=On", "PORT=/dev/ttyUSB0"})
	if err != nil {
		t.Fatalf("ParseAssignments() error = %v", err)
	}
	if values["CONNECT"] != "On" || values["PORT"] != "/dev/ttyUSB0" {
		t.Errorf("values = %v", values)
	}
	if _, err := ParseAssignments([]string{"CONNECT"}); err == nil {
		t.Error("bare item accepted, want error")
	}
}

func TestConvertValuesSwitch(t *testing.T) {
	p := &model.SwitchVector{
		Name: "CONNECTION",
		Values: map[string]model.Switch{
			"CONNECT":    {Value: wire.SwitchOff},
			"DISCONNECT": {Value: wire.SwitchOn},
		},
	}
	values, err := ConvertValues(p, map[string]string{"CONNECT": "on"})
	if err != nil {
		t.Fatalf("ConvertValues() error = %v", err)
	}
	if values["CONNECT"] != wire.SwitchOn {
		t.Errorf("CONNECT = %v", values["CONNECT"])
	}
	if _, err := ConvertValues(p, map[string]string{"CONNECT": "yes"}); err == nil {
		t.Error("bad switch value accepted, want error")
	}
}

func TestConvertValuesNumber(t *testing.T) {
	p := &model.NumberVector{
		Name:   "EQUATORIAL_EOD_COORD",
		Values: map[string]model.Number{"RA": {}, "DEC": {}},
	}
	values, err := ConvertValues(p, map[string]string{"RA": "5:30:00", "DEC": "-22.5"})
	if err != nil {
		t.Fatalf("ConvertValues() error = %v", err)
	}
	if values["RA"] != 5.5 {
		t.Errorf("RA = %v, want 5.5", values["RA"])
	}
	if values["DEC"] != -22.5 {
		t.Errorf("DEC = %v, want -22.5", values["DEC"])
	}
	if _, err := ConvertValues(p, map[string]string{"RA": "north"}); err == nil {
		t.Error("bad number accepted, want error")
	}
}

func TestConvertValuesText(t *testing.T) {
	p := &model.TextVector{
		Name:   "DEVICE_PORT",
		Values: map[string]model.Text{"PORT": {}},
	}
	values, err := ConvertValues(p, map[string]string{"PORT": "/dev/ttyUSB0"})
	if err != nil {
		t.Fatalf("ConvertValues() error = %v", err)
	}
	if values["PORT"] != "/dev/ttyUSB0" {
		t.Errorf("PORT = %v", values["PORT"])
	}
}

func TestConvertValuesRejectsLightsAndBlobs(t *testing.T) {
	light := &model.LightVector{Name: "WEATHER_STATUS", Values: map[string]model.Light{}}
	if _, err := ConvertValues(light, map[string]string{"RAIN": "Ok"}); err == nil {
		t.Error("light conversion succeeded, want error")
	}
	blob := &model.BlobVector{Name: "CCD1", Values: map[string]model.Blob{}}
	if _, err := ConvertValues(blob, map[string]string{"CCD1": "data"}); err == nil {
		t.Error("blob conversion succeeded, want error")
	}
}

func TestWriteParameterSortsItems(t *testing.T) {
	p := &model.NumberVector{
		Name: "EQUATORIAL_EOD_COORD",
		Values: map[string]model.Number{
			"RA":  {Value: 5.5},
			"DEC": {Value: -22.1},
		},
	}
	var sb strings.Builder
	WriteParameter(&sb, "Telescope", p)
	want := "Telescope.EQUATORIAL_EOD_COORD.DEC=-22.1\nTelescope.EQUATORIAL_EOD_COORD.RA=5.5\n"
	if sb.String() != want {
		t.Errorf("output = %q, want %q", sb.String(), want)
	}
}

func TestWriteParameterSwitchAndBlob(t *testing.T) {
	sw := &model.SwitchVector{
		Name:   "CONNECTION",
		Values: map[string]model.Switch{"CONNECT": {Value: wire.SwitchOn}},
	}
	var sb strings.Builder
	WriteParameter(&sb, "Telescope", sw)
	if got := sb.String(); got != "Telescope.CONNECTION.CONNECT=On\n" {
		t.Errorf("switch output = %q", got)
	}

	blob := &model.BlobVector{
		Name: "CCD1",
		Values: map[string]model.Blob{
			"CCD1": {Format: ".fits", Value: []byte("SIMPLE")},
		},
	}
	sb.Reset()
	WriteParameter(&sb, "CCD", blob)
	if got := sb.String(); got != "CCD.CCD1.CCD1=<6 bytes .fits>\n" {
		t.Errorf("blob output = %q", got)
	}

	empty := &model.BlobVector{
		Name:   "CCD1",
		Values: map[string]model.Blob{"CCD1": {}},
	}
	sb.Reset()
	WriteParameter(&sb, "CCD", empty)
	if got := sb.String(); got != "CCD.CCD1.CCD1=<no data>\n" {
		t.Errorf("empty blob output = %q", got)
	}
}
