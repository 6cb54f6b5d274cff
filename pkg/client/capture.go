package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/twinkle-astronomy/indi-go/pkg/model"
	"github.com/twinkle-astronomy/indi-go/pkg/notify"
	"github.com/twinkle-astronomy/indi-go/pkg/wire"
)

// Standard CCD driver property names.
const (
	exposureProperty = "CCD_EXPOSURE"
	blobProperty     = "CCD1"
	abortProperty    = "CCD_ABORT_EXPOSURE"
	abortItem        = "ABORT"
)

const (
	// blobWait bounds the gap between the countdown reaching zero and
	// the image update arriving.
	blobWait = 60 * time.Second

	// supersedeSlack is how far the remaining time may move upward
	// between ticks before we conclude another exposure replaced ours.
	supersedeSlack = 1.1
)

// CaptureImage exposes the camera for exposureSeconds and returns the
// resulting image. It drives the standard CCD_EXPOSURE and CCD1
// properties; the caller must have enabled blobs on the connection
// (EnableBlob with BlobAlso or BlobOnly) or the image never arrives.
func (d *ActiveDevice) CaptureImage(ctx context.Context, exposureSeconds float64) (model.Blob, error) {
	return d.CaptureImageParam(ctx, exposureSeconds, exposureProperty, blobProperty)
}

// CaptureImageParam is CaptureImage with explicit trigger and blob
// properties, for guide chips (GUIDER_EXPOSURE, CCD2) and cameras
// with nonstandard names.
//
// The exposure is not a change-and-confirm operation: the trigger's
// echo stays Busy for the whole exposure. Instead the remaining-time
// countdown is tracked until it reaches zero, then the next blob
// update carries the image. A countdown that goes Idle was canceled
// on the device; one that jumps upward was superseded by another
// exposure. On every exit except a completed countdown the exposure
// is aborted so the device is not left mid-command.
func (d *ActiveDevice) CaptureImageParam(ctx context.Context, exposureSeconds float64, triggerProp, blobProp string) (model.Blob, error) {
	trigger, err := d.Parameter(ctx, triggerProp)
	if err != nil {
		return model.Blob{}, err
	}
	blob, err := d.Parameter(ctx, blobProp)
	if err != nil {
		return model.Blob{}, err
	}

	// Subscribe to both before the trigger goes out so neither the
	// countdown echo nor the image update can slip past unobserved.
	countdown := trigger.Cell().Changes()
	images := blob.Cell().Changes()

	nums, err := model.Numbers(trigger.Snapshot())
	if err != nil {
		return model.Blob{}, fmt.Errorf("capture %s.%s: %w", d.Name(), triggerProp, err)
	}
	item, err := countdownItem(nums, triggerProp)
	if err != nil {
		return model.Blob{}, fmt.Errorf("capture %s.%s: %w", d.Name(), triggerProp, err)
	}

	if err := trigger.Set(map[string]any{item: exposureSeconds}); err != nil {
		return model.Blob{}, err
	}

	if err := d.watchCountdown(ctx, countdown, item, exposureSeconds); err != nil {
		return model.Blob{}, fmt.Errorf("capture %s.%s: %w", d.Name(), triggerProp, err)
	}

	img, err := awaitImage(ctx, images, blobProp)
	if err != nil {
		if errors.Is(err, notify.ErrClosed) {
			err = fmt.Errorf("%w: %w", d.client.closeCause(ErrPropertyNotFound), err)
		}
		return model.Blob{}, fmt.Errorf("capture %s.%s: %w", d.Name(), blobProp, err)
	}
	return img, nil
}

// watchCountdown follows the remaining-time ticks until they reach
// zero. Any other outcome aborts the exposure.
func (d *ActiveDevice) watchCountdown(ctx context.Context, stream *notify.Stream[model.Parameter], item string, exposureSeconds float64) error {
	waitCtx, cancel := context.WithTimeout(ctx, time.Duration(math.Ceil(exposureSeconds)+10)*time.Second)
	defer cancel()

	finished := false
	defer func() {
		if !finished {
			d.abortExposure()
		}
	}()

	previous := exposureSeconds
	_, err := notify.Wait(waitCtx, stream, func(snap notify.Snapshot[model.Parameter]) (model.Parameter, bool, error) {
		// Drivers park the trigger Idle when the exposure is canceled.
		if snap.Value.ParamState() == wire.StateIdle {
			return nil, false, fmt.Errorf("%w: device went idle", ErrCaptureCanceled)
		}
		nums, err := model.Numbers(snap.Value)
		if err != nil {
			return nil, false, err
		}
		num, ok := nums[item]
		if !ok {
			return nil, false, fmt.Errorf("countdown item %q disappeared", item)
		}
		remaining := num.Value
		if remaining == 0 {
			return snap.Value, true, nil
		}
		// An upward jump means another exposure replaced ours.
		// Downward skips happen on lagging links and are fine.
		if remaining > previous+supersedeSlack {
			return nil, false, fmt.Errorf("%w: superseded by a %gs exposure", ErrCaptureCanceled, remaining)
		}
		previous = remaining
		return nil, false, nil
	})
	if err != nil {
		if errors.Is(err, notify.ErrClosed) {
			err = fmt.Errorf("%w: %w", d.client.closeCause(ErrPropertyNotFound), err)
		}
		return err
	}
	finished = true
	return nil
}

// abortExposure asks the device to stop the running exposure. Best
// effort; the connection may already be gone.
func (d *ActiveDevice) abortExposure() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	param, err := d.Parameter(ctx, abortProperty)
	if err != nil {
		return
	}
	_ = param.Set(map[string]any{abortItem: true})
}

// awaitImage returns the image bytes from the next blob update.
func awaitImage(ctx context.Context, stream *notify.Stream[model.Parameter], blobProp string) (model.Blob, error) {
	waitCtx, cancel := context.WithTimeout(ctx, blobWait)
	defer cancel()

	return notify.Wait(waitCtx, stream, func(snap notify.Snapshot[model.Parameter]) (model.Blob, bool, error) {
		blobs, err := model.Blobs(snap.Value)
		if err != nil {
			return model.Blob{}, false, err
		}
		img, err := blobItem(blobs, blobProp)
		if err != nil {
			return model.Blob{}, false, err
		}
		if len(img.Value) == 0 {
			return model.Blob{}, false, errors.New("update carried no image data")
		}
		return img, true, nil
	})
}

// countdownItem picks the remaining-time item of a trigger property.
// Standard triggers carry exactly one number (CCD_EXPOSURE holds only
// CCD_EXPOSURE_VALUE); the NAME_VALUE convention is the fallback.
func countdownItem(nums map[string]model.Number, prop string) (string, error) {
	if len(nums) == 1 {
		for name := range nums {
			return name, nil
		}
	}
	if _, ok := nums[prop+"_VALUE"]; ok {
		return prop + "_VALUE", nil
	}
	return "", errors.New("no remaining-time item")
}

// blobItem picks the image item out of a blob update. Standard
// drivers name the item after the property (CCD1 holds CCD1).
func blobItem(blobs map[string]model.Blob, prop string) (model.Blob, error) {
	if b, ok := blobs[prop]; ok {
		return b, nil
	}
	if len(blobs) == 1 {
		for _, b := range blobs {
			return b, nil
		}
	}
	return model.Blob{}, fmt.Errorf("no %s item in blob update", prop)
}
