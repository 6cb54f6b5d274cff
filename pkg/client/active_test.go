package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/twinkle-astronomy/indi-go/pkg/model"
	"github.com/twinkle-astronomy/indi-go/pkg/notify"
	"github.com/twinkle-astronomy/indi-go/pkg/wire"
)

// telescope seeds a device with a CONNECTION property and returns its
// handle.
func telescope(t *testing.T, c *Client, conn *scriptConn, state wire.PropertyState, connected bool) *ActiveDevice {
	t.Helper()
	conn.push(defConnection("Telescope", state, connected))
	dev, err := c.GetDevice(testCtx(t), "Telescope")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	return dev
}

func TestChangeSendsAndConfirms(t *testing.T) {
	c, conn := newTestClient(t)
	dev := telescope(t, c, conn, wire.StateIdle, false)

	sent := make(chan wire.Command, 1)
	go func() {
		cmd := <-conn.wrote
		sent <- cmd
		conn.push(setConnection("Telescope", wire.StateBusy, true))
		conn.push(setConnection("Telescope", wire.StateOk, true))
	}()

	got, err := dev.Change(testCtx(t), "CONNECTION", map[string]any{"CONNECT": true})
	if err != nil {
		t.Fatalf("Change: %v", err)
	}
	if got.ParamState() != wire.StateOk {
		t.Errorf("state = %v, want Ok", got.ParamState())
	}
	switches, err := model.Switches(got)
	if err != nil {
		t.Fatalf("switches: %v", err)
	}
	if !switches["CONNECT"].On() {
		t.Error("CONNECT not set in confirmed snapshot")
	}

	nv, ok := (<-sent).(*wire.NewSwitchVector)
	if !ok {
		t.Fatal("change did not send newSwitchVector")
	}
	if nv.Device != "Telescope" || nv.Name != "CONNECTION" {
		t.Errorf("sent %s.%s", nv.Device, nv.Name)
	}
	if len(nv.Switches) != 1 || nv.Switches[0].Name != "CONNECT" || nv.Switches[0].Value != wire.SwitchOn {
		t.Errorf("sent items = %+v, want the desired item only", nv.Switches)
	}
}

func TestChangeAlreadySatisfied(t *testing.T) {
	c, conn := newTestClient(t)
	dev := telescope(t, c, conn, wire.StateOk, true)

	got, err := dev.Change(testCtx(t), "CONNECTION", map[string]any{"CONNECT": true})
	if err != nil {
		t.Fatalf("Change: %v", err)
	}
	if got.ParamState() != wire.StateOk {
		t.Errorf("state = %v", got.ParamState())
	}
	conn.quiet(t)
}

func TestChangeWaitsOutBusy(t *testing.T) {
	c, conn := newTestClient(t)
	dev := telescope(t, c, conn, wire.StateIdle, false)

	type result struct {
		p   model.Parameter
		err error
	}
	done := make(chan result, 1)
	go func() {
		p, err := dev.Change(testCtx(t), "CONNECTION", map[string]any{"CONNECT": true})
		done <- result{p, err}
	}()

	conn.sent(t) // the newSwitchVector

	// A Busy echo already carries the requested values, but the device
	// has not finished acting on them.
	conn.push(setConnection("Telescope", wire.StateBusy, true))
	select {
	case r := <-done:
		t.Fatalf("change completed on a Busy echo: %+v, %v", r.p, r.err)
	case <-time.After(75 * time.Millisecond):
	}

	conn.push(setConnection("Telescope", wire.StateOk, true))
	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("Change: %v", r.err)
		}
		if r.p.ParamState() != wire.StateOk {
			t.Errorf("state = %v", r.p.ParamState())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("change did not complete after the Ok echo")
	}
}

func TestChangeAlertFails(t *testing.T) {
	c, conn := newTestClient(t)
	dev := telescope(t, c, conn, wire.StateIdle, false)

	go func() {
		<-conn.wrote
		conn.push(setConnection("Telescope", wire.StateAlert, false))
	}()

	_, err := dev.Change(testCtx(t), "CONNECTION", map[string]any{"CONNECT": true})
	if !errors.Is(err, ErrPropertyAlert) {
		t.Errorf("err = %v, want ErrPropertyAlert", err)
	}
}

func TestChangeCallerDeadline(t *testing.T) {
	c, conn := newTestClient(t)
	dev := telescope(t, c, conn, wire.StateIdle, false)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// No echo ever arrives.
	_, err := dev.Change(ctx, "CONNECTION", map[string]any{"CONNECT": true})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
	conn.sent(t)
}

func TestChangePropertyRemovedMidWait(t *testing.T) {
	c, conn := newTestClient(t)
	dev := telescope(t, c, conn, wire.StateIdle, false)

	go func() {
		<-conn.wrote
		conn.push(&wire.DelProperty{Device: "Telescope", Name: strptr("CONNECTION")})
	}()

	_, err := dev.Change(testCtx(t), "CONNECTION", map[string]any{"CONNECT": true})
	if !errors.Is(err, ErrPropertyNotFound) {
		t.Errorf("err = %v, want ErrPropertyNotFound", err)
	}
	if !errors.Is(err, notify.ErrClosed) {
		t.Errorf("err = %v, want ErrClosed in chain", err)
	}
}

func TestChangeDisconnectMidWait(t *testing.T) {
	c, conn := newTestClient(t)
	dev := telescope(t, c, conn, wire.StateIdle, false)

	go func() {
		<-conn.wrote
		conn.fail(errors.New("wire: unreadable"))
	}()

	_, err := dev.Change(testCtx(t), "CONNECTION", map[string]any{"CONNECT": true})
	if !errors.Is(err, ErrDisconnected) {
		t.Errorf("err = %v, want ErrDisconnected", err)
	}
}

func TestParameterWaitsForDefinition(t *testing.T) {
	c, conn := newTestClient(t)
	dev := telescope(t, c, conn, wire.StateIdle, false)

	go func() {
		time.Sleep(20 * time.Millisecond)
		conn.push(defNumber("Telescope", "SLEW_RATE", "RATE", 3))
	}()

	p, err := dev.Parameter(testCtx(t), "SLEW_RATE")
	if err != nil {
		t.Fatalf("Parameter: %v", err)
	}
	nums, err := model.Numbers(p.Snapshot())
	if err != nil {
		t.Fatalf("numbers: %v", err)
	}
	if nums["RATE"].Value != 3 {
		t.Errorf("RATE = %v", nums["RATE"].Value)
	}
}

func TestParameterNotFound(t *testing.T) {
	c, conn := newTestClient(t)
	dev := telescope(t, c, conn, wire.StateIdle, false)

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	_, err := dev.Parameter(ctx, "TRACKING")
	if !errors.Is(err, ErrPropertyNotFound) {
		t.Errorf("err = %v, want ErrPropertyNotFound", err)
	}
}

func TestSetSendsWithoutConfirmation(t *testing.T) {
	c, conn := newTestClient(t)
	dev := telescope(t, c, conn, wire.StateIdle, false)

	p, err := dev.Parameter(testCtx(t), "CONNECTION")
	if err != nil {
		t.Fatalf("Parameter: %v", err)
	}
	if err := p.Set(map[string]any{"CONNECT": true}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	nv, ok := conn.sent(t).(*wire.NewSwitchVector)
	if !ok {
		t.Fatal("Set did not send newSwitchVector")
	}
	if nv.Name != "CONNECTION" {
		t.Errorf("sent property = %q", nv.Name)
	}
}

func TestBatchAppliesAll(t *testing.T) {
	c, conn := newTestClient(t)
	dev := telescope(t, c, conn, wire.StateIdle, false)
	conn.push(defNumber("Telescope", "SLEW_RATE", "RATE", 3))
	if _, err := dev.Parameter(testCtx(t), "SLEW_RATE"); err != nil {
		t.Fatalf("Parameter: %v", err)
	}

	go func() {
		for range 2 {
			switch (<-conn.wrote).(type) {
			case *wire.NewSwitchVector:
				conn.push(setConnection("Telescope", wire.StateOk, true))
			case *wire.NewNumberVector:
				conn.push(&wire.SetNumberVector{
					Device:  "Telescope",
					Name:    "SLEW_RATE",
					State:   wire.StateOk,
					Numbers: []wire.SetOneNumber{{Name: "RATE", Value: 5}},
				})
			}
		}
	}()

	err := dev.Batch(testCtx(t), map[string]map[string]any{
		"CONNECTION": {"CONNECT": true},
		"SLEW_RATE":  {"RATE": 5.0},
	})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}

	cell, _ := dev.Device().Parameter("SLEW_RATE")
	nums, err := model.Numbers(cell.Get())
	if err != nil {
		t.Fatalf("numbers: %v", err)
	}
	if nums["RATE"].Value != 5 {
		t.Errorf("RATE = %v, want 5", nums["RATE"].Value)
	}
}

func TestBatchReportsEachFailure(t *testing.T) {
	c, conn := newTestClient(t)
	dev := telescope(t, c, conn, wire.StateIdle, false)

	go func() {
		<-conn.wrote
		conn.push(setConnection("Telescope", wire.StateOk, true))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err := dev.Batch(ctx, map[string]map[string]any{
		"CONNECTION": {"CONNECT": true},
		"MISSING":    {"X": 1.0},
	})
	if !errors.Is(err, ErrPropertyNotFound) {
		t.Errorf("err = %v, want ErrPropertyNotFound", err)
	}

	// The failing entry does not hold back the good one.
	cell, _ := dev.Device().Parameter("CONNECTION")
	switches, serr := model.Switches(cell.Get())
	if serr != nil {
		t.Fatalf("switches: %v", serr)
	}
	if !switches["CONNECT"].On() {
		t.Error("good change not applied")
	}
}

func TestEnableBlob(t *testing.T) {
	c, conn := newTestClient(t)
	conn.push(&wire.DefBlobVector{
		Device: "CCD",
		Name:   "CCD1",
		State:  wire.StateIdle,
		Perm:   wire.PermReadOnly,
		Blobs:  []wire.DefBlob{{Name: "CCD1"}},
	})
	dev, err := c.GetDevice(testCtx(t), "CCD")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}

	if err := dev.EnableBlob(testCtx(t), wire.BlobOnly, strptr("CCD1")); err != nil {
		t.Fatalf("EnableBlob: %v", err)
	}
	eb, ok := conn.sent(t).(*wire.EnableBlob)
	if !ok {
		t.Fatal("no enableBLOB written")
	}
	if eb.Device != "CCD" || eb.Name == nil || *eb.Name != "CCD1" || eb.Enabled != wire.BlobOnly {
		t.Errorf("sent %+v", eb)
	}

	if err := dev.EnableBlob(testCtx(t), wire.BlobAlso, nil); err != nil {
		t.Fatalf("EnableBlob unscoped: %v", err)
	}
	eb, ok = conn.sent(t).(*wire.EnableBlob)
	if !ok {
		t.Fatal("no enableBLOB written")
	}
	if eb.Name != nil || eb.Enabled != wire.BlobAlso {
		t.Errorf("sent %+v", eb)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	if err := dev.EnableBlob(ctx, wire.BlobOnly, strptr("NOPE")); !errors.Is(err, ErrPropertyNotFound) {
		t.Errorf("err = %v, want ErrPropertyNotFound", err)
	}
	conn.quiet(t)
}
