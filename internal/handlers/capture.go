package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"visionserver/internal/device"
	"visionserver/internal/logger"
	"visionserver/internal/orchestrator"
	"visionserver/internal/queue"
)

type captureRequestBody struct {
	ConfidenceThreshold *float64 `json:"confidence_threshold"`
}

// CaptureHandler triggers one capture for the primary device. The response
// is an acknowledgment; the result arrives on the event stream, and the
// result store stays authoritative for anyone who missed it.
func CaptureHandler(orch *orchestrator.Orchestrator, logs *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threshold := orch.DefaultThreshold()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read request body")
			return
		}
		if len(body) > 0 {
			var payload captureRequestBody
			if err := json.Unmarshal(body, &payload); err != nil {
				writeError(w, http.StatusBadRequest, "malformed request body")
				return
			}
			if payload.ConfidenceThreshold != nil {
				threshold = *payload.ConfidenceThreshold
			}
		}

		req, err := orch.Trigger(orch.PrimaryDevice(), threshold)
		if err != nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, orchestrator.ErrInvalidThreshold):
				status = http.StatusBadRequest
			case errors.Is(err, device.ErrDeviceUnknown):
				status = http.StatusNotFound
			case errors.Is(err, device.ErrDeviceBusy):
				status = http.StatusConflict
			case errors.Is(err, device.ErrDeviceUnavailable):
				status = http.StatusServiceUnavailable
			case errors.Is(err, queue.ErrQueueFull), errors.Is(err, queue.ErrQueueClosed):
				status = http.StatusTooManyRequests
			}
			writeError(w, status, err.Error())
			return
		}

		logs.Info("api", "Capture accepted for %s (%s)", req.Device, req.CorrelationID)
		writeJSON(w, http.StatusAccepted, map[string]any{
			"success":        true,
			"correlation_id": req.CorrelationID,
		})
	}
}
