package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"

	"visionserver/internal/config"
)

// ImageHandler serves original and processed capture images by filename.
func ImageHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		kind := vars["kind"]
		name := vars["name"]

		var dir string
		switch kind {
		case "original":
			dir = cfg.ImageDirectory
		case "processed":
			dir = cfg.ProcessedDir
		default:
			writeError(w, http.StatusNotFound, "unknown image kind")
			return
		}

		// Reject anything that is not a bare filename.
		if name == "" || name != filepath.Base(name) {
			writeError(w, http.StatusBadRequest, "invalid image name")
			return
		}

		http.ServeFile(w, r, filepath.Join(dir, name))
	}
}
