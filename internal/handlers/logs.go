package handlers

import (
	"net/http"

	"visionserver/internal/logger"
)

// GetLogsHandler returns the current contents of the log ring buffer.
func GetLogsHandler(logs *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"logs":    logs.Snapshot(),
		})
	}
}
