package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"visionserver/internal/model"
)

// Webcam captures frames from a local video device through gocv. Frames are
// JPEG-encoded before they enter the pipeline.
type Webcam struct {
	id       string
	deviceID int

	mu        sync.Mutex
	capture   *gocv.VideoCapture
	connected bool
}

func NewWebcam(id string, deviceID int) *Webcam {
	return &Webcam{id: id, deviceID: deviceID}
}

func (w *Webcam) Connect() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	capture, err := gocv.OpenVideoCapture(w.deviceID)
	if err != nil {
		return fmt.Errorf("failed to open video device %d: %w", w.deviceID, err)
	}
	w.capture = capture
	w.connected = true
	return nil
}

func (w *Webcam) Connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connected
}

func (w *Webcam) Capture(ctx context.Context) (*model.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.connected || w.capture == nil {
		return nil, ErrNotConnected
	}

	img := gocv.NewMat()
	defer img.Close()

	if ok := w.capture.Read(&img); !ok || img.Empty() {
		return nil, fmt.Errorf("%w: no frame from device %d", ErrDeviceUnavailable, w.deviceID)
	}

	buf, err := gocv.IMEncode(".jpg", img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	now := time.Now()
	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())

	return &model.Frame{
		Device:    w.id,
		Filename:  fmt.Sprintf("%s_%s.jpg", w.id, now.Format("20060102150405.000")),
		Data:      data,
		Timestamp: now,
	}, nil
}

func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.connected = false
	if w.capture != nil {
		err := w.capture.Close()
		w.capture = nil
		return err
	}
	return nil
}
