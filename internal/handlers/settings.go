package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"visionserver/internal/logger"
	"visionserver/internal/settings"
)

// GetSettingsHandler returns all stored settings.
func GetSettingsHandler(store *settings.Store, logs *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := store.All()
		if err != nil {
			logs.Error("api", "Failed to load settings: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to load settings")
			return
		}

		// Expose the threshold as a number, everything else verbatim.
		out := make(map[string]any, len(all))
		for k, v := range all {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				out[k] = f
			} else {
				out[k] = v
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"settings": out,
		})
	}
}

type updateSettingsBody struct {
	ConfidenceThreshold *float64 `json:"confidence_threshold"`
}

// UpdateSettingsHandler validates and persists setting updates. An invalid
// threshold is rejected without mutating anything.
func UpdateSettingsHandler(store *settings.Store, logs *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body updateSettingsBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}
		if body.ConfidenceThreshold == nil {
			writeError(w, http.StatusBadRequest, "no settings provided")
			return
		}

		threshold := *body.ConfidenceThreshold
		if threshold < 0 || threshold > 1 {
			writeError(w, http.StatusBadRequest, "confidence threshold must be between 0 and 1")
			return
		}

		value := strconv.FormatFloat(threshold, 'f', -1, 64)
		if err := store.Set(settings.KeyConfidenceThreshold, value, ""); err != nil {
			logs.Error("api", "Failed to update settings: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}

		logs.Info("api", "Updated confidence threshold to %.2f", threshold)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"settings": map[string]any{
				settings.KeyConfidenceThreshold: threshold,
			},
		})
	}
}
