package model

import "time"

// Verdict is the final pass/fail decision for one capture.
type Verdict string

const (
	VerdictPass Verdict = "PASS"
	VerdictFail Verdict = "FAIL"
)

// InferenceOutcome is the raw model output for one frame. It only lives
// between dispatch and post-processing.
type InferenceOutcome struct {
	CorrelationID string
	Confidence    float64
	Labels        []string
	Raw           []byte
	Elapsed       time.Duration
}

// Result is the immutable, persisted outcome of one capture cycle.
// Confidence and Threshold are always recorded together so the verdict can
// be re-derived after the global threshold changes.
type Result struct {
	ID            int64     `json:"id"`
	CorrelationID string    `json:"correlation_id"`
	Device        string    `json:"device"`
	Timestamp     time.Time `json:"timestamp"`
	ImagePath     string    `json:"image_path"`
	ProcessedPath string    `json:"processed_path"`
	Verdict       Verdict   `json:"result"`
	Confidence    float64   `json:"confidence"`
	Threshold     float64   `json:"threshold"`
	Labels        []string  `json:"labels,omitempty"`
}
