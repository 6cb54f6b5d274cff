package commands

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/twinkle-astronomy/indi-go/pkg/log"
)

func TestFilterByDevice(t *testing.T) {
	ts := time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)
	events := []log.Event{
		{
			Timestamp:    ts,
			ConnectionID: "abc",
			Layer:        log.LayerWire,
			Category:     log.CategoryMessage,
			Command:      &log.CommandEvent{Element: "setNumberVector", Device: "Telescope"},
		},
		{
			Timestamp:    ts.Add(time.Second),
			ConnectionID: "abc",
			Layer:        log.LayerWire,
			Category:     log.CategoryMessage,
			Command:      &log.CommandEvent{Element: "setBLOBVector", Device: "Camera"},
		},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.ilog")

	err := RunFilter(path, FilterOptions{Output: outPath, Device: "Camera"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	kept, err := log.ReadAll(outPath, log.Filter{})
	if err != nil {
		t.Fatalf("failed to read filtered file: %v", err)
	}
	if len(kept) != 1 {
		t.Fatalf("expected 1 event, got %d", len(kept))
	}
	if kept[0].Command == nil || kept[0].Command.Device != "Camera" {
		t.Errorf("wrong event kept: %+v", kept[0])
	}
}

func TestFilterByTimeRange(t *testing.T) {
	ts := time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, ConnectionID: "abc", Category: log.CategoryMessage, Command: &log.CommandEvent{Element: "getProperties"}},
		{Timestamp: ts.Add(time.Minute), ConnectionID: "abc", Category: log.CategoryMessage, Command: &log.CommandEvent{Element: "getProperties"}},
		{Timestamp: ts.Add(2 * time.Minute), ConnectionID: "abc", Category: log.CategoryMessage, Command: &log.CommandEvent{Element: "getProperties"}},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.ilog")

	err := RunFilter(path, FilterOptions{
		Output:    outPath,
		TimeStart: ts.Add(30 * time.Second).Format(time.RFC3339),
		TimeEnd:   ts.Add(90 * time.Second).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	kept, err := log.ReadAll(outPath, log.Filter{})
	if err != nil {
		t.Fatalf("failed to read filtered file: %v", err)
	}
	if len(kept) != 1 {
		t.Fatalf("expected 1 event in window, got %d", len(kept))
	}
	if !kept[0].Timestamp.Equal(ts.Add(time.Minute)) {
		t.Errorf("wrong event kept: %v", kept[0].Timestamp)
	}
}

func TestFilterInvalidTime(t *testing.T) {
	path := createTestLogFile(t, nil)
	outPath := filepath.Join(t.TempDir(), "filtered.ilog")

	err := RunFilter(path, FilterOptions{Output: outPath, TimeStart: "yesterday"})
	if err == nil {
		t.Error("expected error for invalid time")
	}
	if !strings.Contains(err.Error(), "time-start") {
		t.Errorf("expected time-start error, got: %v", err)
	}
}

func TestFilterInvalidLayer(t *testing.T) {
	path := createTestLogFile(t, nil)
	outPath := filepath.Join(t.TempDir(), "filtered.ilog")

	err := RunFilter(path, FilterOptions{Output: outPath, Layer: "kernel"})
	if err == nil {
		t.Error("expected error for invalid layer")
	}
}
