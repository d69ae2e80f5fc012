package device

import (
	"context"
	"errors"

	"visionserver/internal/model"
)

var (
	ErrDeviceBusy        = errors.New("device busy")
	ErrDeviceUnknown     = errors.New("device unknown")
	ErrDeviceUnavailable = errors.New("device unavailable")
	ErrNotConnected      = errors.New("camera not connected")
)

// Camera is the capture capability behind a device. Implementations: the
// directory-backed Simulator and the gocv Webcam driver.
type Camera interface {
	Connect() error
	// Capture acquires one frame. It must honor ctx cancellation; a canceled
	// capture returns ctx.Err().
	Capture(ctx context.Context) (*model.Frame, error)
	Connected() bool
	Close() error
}
