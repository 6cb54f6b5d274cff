package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/twinkle-astronomy/indi-go/pkg/log"
)

func TestStatsCountsEvents(t *testing.T) {
	ts := time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)
	events := []log.Event{
		{
			Timestamp:    ts,
			ConnectionID: "conn-one",
			Direction:    log.DirectionOut,
			Layer:        log.LayerWire,
			Category:     log.CategoryMessage,
			RemoteAddr:   "10.0.0.5:7624",
			Command:      &log.CommandEvent{Element: "getProperties"},
		},
		{
			Timestamp:    ts.Add(time.Second),
			ConnectionID: "conn-one",
			Direction:    log.DirectionIn,
			Layer:        log.LayerWire,
			Category:     log.CategoryMessage,
			Command: &log.CommandEvent{
				Element:  "setNumberVector",
				Device:   "Telescope",
				Property: "EQUATORIAL_EOD_COORD",
			},
		},
		{
			Timestamp:    ts.Add(2 * time.Second),
			ConnectionID: "conn-one",
			Direction:    log.DirectionIn,
			Layer:        log.LayerWire,
			Category:     log.CategoryMessage,
			Command: &log.CommandEvent{
				Element:  "setNumberVector",
				Device:   "Telescope",
				Property: "EQUATORIAL_EOD_COORD",
			},
		},
		{
			Timestamp:    ts.Add(3 * time.Second),
			ConnectionID: "conn-two",
			Direction:    log.DirectionIn,
			Layer:        log.LayerClient,
			Category:     log.CategoryError,
			Error: &log.ErrorEventData{
				Layer:   log.LayerClient,
				Message: "update for unknown property",
			},
		},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Total Events: 4",
		"WIRE:",
		"CLIENT:",
		"MESSAGE:",
		"ERROR:",
		"setNumberVector:",
		"Telescope:",
		"Connections: 2",
		"Remote: 10.0.0.5:7624",
		"Errors: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestStatsEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	if !strings.Contains(buf.String(), "Total Events: 0") {
		t.Errorf("expected zero-event summary, got:\n%s", buf.String())
	}
}

func TestStatsMissingFile(t *testing.T) {
	var buf bytes.Buffer
	if err := RunStats("/nonexistent/file.ilog", &buf); err == nil {
		t.Error("expected error for missing file")
	}
}
