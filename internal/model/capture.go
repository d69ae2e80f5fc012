package model

import "time"

// CaptureRequest is one unit of work created by a trigger. It is immutable
// after creation and consumed exactly once by the dispatcher.
type CaptureRequest struct {
	CorrelationID string    `json:"correlation_id"`
	Device        string    `json:"device"`
	Threshold     float64   `json:"threshold"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// Frame is a single captured image.
type Frame struct {
	Device    string
	Filename  string
	Path      string
	Data      []byte
	Timestamp time.Time
}
