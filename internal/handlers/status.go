package handlers

import (
	"net/http"

	"visionserver/internal/orchestrator"
)

// StatusHandler reports service and backend availability.
func StatusHandler(orch *orchestrator.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := orch.Status()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":           "online",
			"camera_connected": status.CameraConnected,
			"model_loaded":     status.ModelLoaded,
		})
	}
}

// HealthHandler is the liveness probe.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "healthy",
		})
	}
}
