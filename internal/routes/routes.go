package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"visionserver/internal/broadcast"
	"visionserver/internal/config"
	"visionserver/internal/handlers"
	"visionserver/internal/logger"
	"visionserver/internal/middleware"
	"visionserver/internal/orchestrator"
	"visionserver/internal/repository"
	"visionserver/internal/settings"
)

// Setup registers API endpoints, the websocket event stream and image
// serving, and wraps the router with the CORS middleware.
func Setup(orch *orchestrator.Orchestrator, hub *broadcast.Hub, store *settings.Store,
	results repository.ResultRepository, logs *logger.Logger, cfg *config.Config) http.Handler {

	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/capture", handlers.CaptureHandler(orch, logs)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/settings", handlers.GetSettingsHandler(store, logs)).Methods(http.MethodGet)
	api.HandleFunc("/settings", handlers.UpdateSettingsHandler(store, logs)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/results", handlers.GetResultsHandler(results, logs)).Methods(http.MethodGet)
	api.HandleFunc("/logs", handlers.GetLogsHandler(logs)).Methods(http.MethodGet)
	api.HandleFunc("/status", handlers.StatusHandler(orch)).Methods(http.MethodGet)
	api.HandleFunc("/health", handlers.HealthHandler()).Methods(http.MethodGet)
	api.HandleFunc("/images/{kind}/{name}", handlers.ImageHandler(cfg)).Methods(http.MethodGet)

	router.HandleFunc("/ws", handlers.EventStreamHandler(hub, logs))

	return middleware.CORS(router)
}
