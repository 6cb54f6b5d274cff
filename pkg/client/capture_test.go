package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/twinkle-astronomy/indi-go/pkg/wire"
)

// seedCamera defines the standard CCD properties and returns the
// device handle.
func seedCamera(t *testing.T, c *Client, conn *scriptConn) *ActiveDevice {
	t.Helper()
	conn.push(&wire.DefNumberVector{
		Device: "CCD",
		Name:   "CCD_EXPOSURE",
		State:  wire.StateIdle,
		Perm:   wire.PermReadWrite,
		Numbers: []wire.DefNumber{
			{Name: "CCD_EXPOSURE_VALUE", Format: "%5.2f", Min: 0, Max: 3600, Step: 0.01, Value: 0},
		},
	})
	conn.push(&wire.DefBlobVector{
		Device: "CCD",
		Name:   "CCD1",
		State:  wire.StateIdle,
		Perm:   wire.PermReadOnly,
		Blobs:  []wire.DefBlob{{Name: "CCD1"}},
	})
	conn.push(&wire.DefSwitchVector{
		Device:   "CCD",
		Name:     "CCD_ABORT_EXPOSURE",
		State:    wire.StateIdle,
		Perm:     wire.PermReadWrite,
		Rule:     wire.RuleAtMostOne,
		Switches: []wire.DefSwitch{{Name: "ABORT", Value: wire.SwitchOff}},
	})

	dev, err := c.GetDevice(testCtx(t), "CCD")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	return dev
}

func setExposure(state wire.PropertyState, remaining float64) *wire.SetNumberVector {
	return &wire.SetNumberVector{
		Device:  "CCD",
		Name:    "CCD_EXPOSURE",
		State:   state,
		Numbers: []wire.SetOneNumber{{Name: "CCD_EXPOSURE_VALUE", Value: remaining}},
	}
}

func setImage(data []byte) *wire.SetBlobVector {
	return &wire.SetBlobVector{
		Device: "CCD",
		Name:   "CCD1",
		State:  wire.StateOk,
		Blobs: []wire.OneBlob{
			{Name: "CCD1", Size: uint64(len(data)), Format: ".fits", Value: data},
		},
	}
}

// expectAbort asserts the next written command stops the exposure.
func expectAbort(t *testing.T, conn *scriptConn) {
	t.Helper()
	nv, ok := conn.sent(t).(*wire.NewSwitchVector)
	if !ok || nv.Name != "CCD_ABORT_EXPOSURE" {
		t.Fatalf("expected abort, wrote %+v", nv)
	}
	if len(nv.Switches) != 1 || nv.Switches[0].Name != "ABORT" || nv.Switches[0].Value != wire.SwitchOn {
		t.Errorf("abort items = %+v", nv.Switches)
	}
}

func TestCaptureImage(t *testing.T) {
	c, conn := newTestClient(t)
	dev := seedCamera(t, c, conn)

	trigger := make(chan wire.Command, 1)
	go func() {
		cmd := <-conn.wrote
		trigger <- cmd
		conn.push(setExposure(wire.StateBusy, 2))
		conn.push(setExposure(wire.StateBusy, 1))
		conn.push(setExposure(wire.StateBusy, 0))
		conn.push(setImage([]byte("FITS-DATA")))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	img, err := dev.CaptureImage(ctx, 2)
	if err != nil {
		t.Fatalf("CaptureImage: %v", err)
	}
	if string(img.Value) != "FITS-DATA" {
		t.Errorf("image = %q", img.Value)
	}
	if img.Format != ".fits" || img.Size != 9 {
		t.Errorf("format = %q size = %d", img.Format, img.Size)
	}

	nv, ok := (<-trigger).(*wire.NewNumberVector)
	if !ok {
		t.Fatal("capture did not send newNumberVector")
	}
	if nv.Device != "CCD" || nv.Name != "CCD_EXPOSURE" {
		t.Errorf("trigger = %s.%s", nv.Device, nv.Name)
	}
	if len(nv.Numbers) != 1 || nv.Numbers[0].Name != "CCD_EXPOSURE_VALUE" || nv.Numbers[0].Value != 2 {
		t.Errorf("trigger items = %+v", nv.Numbers)
	}

	// A completed exposure must not be aborted.
	conn.quiet(t)
}

func TestCaptureCanceledWhenIdle(t *testing.T) {
	c, conn := newTestClient(t)
	dev := seedCamera(t, c, conn)

	go func() {
		<-conn.wrote
		conn.push(setExposure(wire.StateBusy, 5))
		conn.push(setExposure(wire.StateIdle, 5))
	}()

	_, err := dev.CaptureImage(testCtx(t), 5)
	if !errors.Is(err, ErrCaptureCanceled) {
		t.Fatalf("err = %v, want ErrCaptureCanceled", err)
	}
	expectAbort(t, conn)
}

func TestCaptureSuperseded(t *testing.T) {
	c, conn := newTestClient(t)
	dev := seedCamera(t, c, conn)

	go func() {
		<-conn.wrote
		// Another client started a longer exposure; remaining time
		// jumps past ours.
		conn.push(setExposure(wire.StateBusy, 9.9))
	}()

	_, err := dev.CaptureImage(testCtx(t), 5)
	if !errors.Is(err, ErrCaptureCanceled) {
		t.Fatalf("err = %v, want ErrCaptureCanceled", err)
	}
	expectAbort(t, conn)
}

func TestCaptureToleratesDownwardSkips(t *testing.T) {
	c, conn := newTestClient(t)
	dev := seedCamera(t, c, conn)

	go func() {
		<-conn.wrote
		// A lagging link can drop ticks; big downward jumps are not
		// cancellation.
		conn.push(setExposure(wire.StateBusy, 5))
		conn.push(setExposure(wire.StateBusy, 1.5))
		conn.push(setExposure(wire.StateBusy, 0))
		conn.push(setImage([]byte("IMG")))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	img, err := dev.CaptureImage(ctx, 5)
	if err != nil {
		t.Fatalf("CaptureImage: %v", err)
	}
	if string(img.Value) != "IMG" {
		t.Errorf("image = %q", img.Value)
	}
}

func TestCaptureContextCancelAborts(t *testing.T) {
	c, conn := newTestClient(t)
	dev := seedCamera(t, c, conn)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-conn.wrote
		conn.push(setExposure(wire.StateBusy, 5))
		cancel()
	}()

	_, err := dev.CaptureImage(ctx, 5)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	expectAbort(t, conn)
}

func TestCaptureRejectsEmptyImage(t *testing.T) {
	c, conn := newTestClient(t)
	dev := seedCamera(t, c, conn)

	go func() {
		<-conn.wrote
		conn.push(setExposure(wire.StateBusy, 0))
		conn.push(setImage(nil))
	}()

	_, err := dev.CaptureImage(testCtx(t), 1)
	if err == nil {
		t.Fatal("empty image update accepted")
	}
	if errors.Is(err, ErrCaptureCanceled) {
		t.Errorf("err = %v, should not be a cancellation", err)
	}
	// The countdown completed; nothing to abort.
	conn.quiet(t)
}
