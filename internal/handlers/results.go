package handlers

import (
	"net/http"
	"strconv"

	"visionserver/internal/logger"
	"visionserver/internal/model"
	"visionserver/internal/repository"
)

// GetResultsHandler returns the most recent persisted results, newest first.
func GetResultsHandler(results repository.ResultRepository, logs *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}

		recent, err := results.GetRecent(limit)
		if err != nil {
			logs.Error("api", "Failed to query results: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to query results")
			return
		}
		if recent == nil {
			recent = []model.Result{}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"results": recent,
		})
	}
}
