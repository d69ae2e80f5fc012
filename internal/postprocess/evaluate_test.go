package postprocess

import (
	"testing"

	"visionserver/internal/model"
)

func TestEvaluate_ThresholdBoundary(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		threshold  float64
		expected   model.Verdict
	}{
		{"well above threshold", 0.82, 0.5, model.VerdictPass},
		{"below threshold", 0.82, 0.9, model.VerdictFail},
		{"exactly at threshold passes", 0.5, 0.5, model.VerdictPass},
		{"zero confidence zero threshold", 0.0, 0.0, model.VerdictPass},
		{"just below threshold", 0.4999, 0.5, model.VerdictFail},
		{"full confidence full threshold", 1.0, 1.0, model.VerdictPass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &model.CaptureRequest{
				CorrelationID: "corr-1",
				Device:        "cam-1",
				Threshold:     tt.threshold,
			}
			outcome := &model.InferenceOutcome{Confidence: tt.confidence}

			result := Evaluate(req, outcome)

			if result.Verdict != tt.expected {
				t.Errorf("Evaluate(confidence=%v, threshold=%v) = %s, expected %s",
					tt.confidence, tt.threshold, result.Verdict, tt.expected)
			}
		})
	}
}

func TestEvaluate_RecordsThresholdWithConfidence(t *testing.T) {
	req := &model.CaptureRequest{
		CorrelationID: "corr-2",
		Device:        "cam-1",
		Threshold:     0.5,
	}
	outcome := &model.InferenceOutcome{Confidence: 0.82}

	result := Evaluate(req, outcome)

	if result.Confidence != 0.82 {
		t.Errorf("Expected confidence 0.82, got %v", result.Confidence)
	}
	if result.Threshold != 0.5 {
		t.Errorf("Expected threshold 0.5, got %v", result.Threshold)
	}
	if result.Device != "cam-1" {
		t.Errorf("Expected device cam-1, got %s", result.Device)
	}
	if result.CorrelationID != "corr-2" {
		t.Errorf("Expected correlation id corr-2, got %s", result.CorrelationID)
	}
	if result.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}
