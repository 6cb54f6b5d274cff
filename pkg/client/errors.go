package client

import (
	"errors"
	"fmt"
)

// Client operation errors.
var (
	// ErrDeviceNotFound is returned when the named device does not
	// appear within the wait bounds.
	ErrDeviceNotFound = errors.New("client: device not found")

	// ErrPropertyNotFound is returned when a property is not defined
	// on the device, or is removed while an operation waits on it.
	ErrPropertyNotFound = errors.New("client: property not found")

	// ErrPropertyAlert is returned when the device flags a property
	// Alert while a change is waiting for confirmation.
	ErrPropertyAlert = errors.New("client: property in alert state")

	// ErrDisconnected is returned once the connection is gone and the
	// client has been torn down.
	ErrDisconnected = errors.New("client: disconnected")

	// ErrParameterMissing is the cause inside an UpdateError when a
	// value update targets a property that was never defined.
	ErrParameterMissing = errors.New("client: parameter not defined")

	// ErrCaptureCanceled is returned when an exposure ends without
	// producing an image: the device went Idle, another exposure
	// superseded this one, or the caller canceled.
	ErrCaptureCanceled = errors.New("client: capture canceled")
)

// UpdateError reports a received command the store could not apply.
// The command is dropped and the reader loop keeps running.
type UpdateError struct {
	Device   string
	Property string
	Err      error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("update %s.%s: %v", e.Device, e.Property, e.Err)
}

func (e *UpdateError) Unwrap() error { return e.Err }
