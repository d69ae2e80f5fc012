// Package postprocess turns raw inference output into a final verdict and
// produces the annotated copy of the captured image.
package postprocess

import (
	"time"

	"visionserver/internal/model"
)

// Evaluate applies the confidence threshold to raw model output. A
// confidence exactly at the threshold passes. No side effects; persistence
// and broadcast happen in the caller.
func Evaluate(req *model.CaptureRequest, outcome *model.InferenceOutcome) model.Result {
	verdict := model.VerdictFail
	if outcome.Confidence >= req.Threshold {
		verdict = model.VerdictPass
	}

	return model.Result{
		CorrelationID: req.CorrelationID,
		Device:        req.Device,
		Timestamp:     time.Now(),
		Verdict:       verdict,
		Confidence:    outcome.Confidence,
		Threshold:     req.Threshold,
		Labels:        outcome.Labels,
	}
}
