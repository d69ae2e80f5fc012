package app

import (
	"fmt"
	"net/http"
	"strconv"

	"visionserver/internal/broadcast"
	"visionserver/internal/config"
	"visionserver/internal/device"
	"visionserver/internal/inference"
	"visionserver/internal/logger"
	"visionserver/internal/model"
	"visionserver/internal/orchestrator"
	"visionserver/internal/postprocess"
	"visionserver/internal/queue"
	"visionserver/internal/repository/sqlite"
	"visionserver/internal/routes"
	"visionserver/internal/settings"
	"visionserver/internal/trigger"
)

type App struct {
	config       *config.Config
	logger       *logger.Logger
	db           *sqlite.DB
	hub          *broadcast.Hub
	orchestrator *orchestrator.Orchestrator
	results      *sqlite.ResultRepository
	settings     *settings.Store
	mqttSource   *trigger.MQTTSource
	camera       device.Camera
	model        inference.Model
}

func NewApp() (*App, error) {
	cfg := config.Load()

	logs, err := logger.New(cfg.LogDirectory, cfg.LogBufferLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	resultRepo := sqlite.NewResultRepository(db)
	settingsRepo := sqlite.NewSettingsRepository(db)

	store := settings.NewStore(settingsRepo)
	defaultThreshold := strconv.FormatFloat(cfg.DefaultThreshold, 'f', -1, 64)
	if err := store.Seed(settings.KeyConfidenceThreshold, defaultThreshold,
		"Minimum confidence for a PASS verdict"); err != nil {
		return nil, fmt.Errorf("failed to seed settings: %w", err)
	}

	var camera device.Camera
	switch cfg.CameraDriver {
	case "webcam":
		camera = device.NewWebcam(cfg.PrimaryDevice, cfg.CameraDeviceID)
	default:
		camera = device.NewSimulator(cfg.PrimaryDevice, cfg.ImageDirectory)
	}

	registry := device.NewRegistry()
	registry.Register(cfg.PrimaryDevice, camera)

	mdl := inference.NewSimulatedModel()

	processor, err := postprocess.NewProcessor(cfg.ImageDirectory, cfg.ProcessedDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize post-processor: %w", err)
	}

	hub := broadcast.NewHub(logs)
	taskQueue := queue.New(cfg.QueueCapacity)

	orch := orchestrator.New(registry, taskQueue, hub, processor, mdl,
		resultRepo, store, logs, cfg)

	return &App{
		config:       cfg,
		logger:       logs,
		db:           db,
		hub:          hub,
		orchestrator: orch,
		results:      resultRepo,
		settings:     store,
		camera:       camera,
		model:        mdl,
	}, nil
}

// Run starts background services and serves HTTP until the listener fails.
func (a *App) Run() error {
	go a.hub.Run()

	// Every log append from here on also reaches stream subscribers.
	a.logger.SetSink(func(entry model.LogEntry) {
		a.hub.Publish(model.Event{Name: model.EventLogMessage, Data: entry})
	})

	if err := a.camera.Connect(); err != nil {
		a.logger.Warning("camera", "Camera %s not connected: %v", a.config.PrimaryDevice, err)
	} else {
		a.logger.Info("camera", "Camera %s connected (%s driver)", a.config.PrimaryDevice, a.config.CameraDriver)
	}

	if err := a.model.Load(); err != nil {
		a.logger.Warning("inference", "Model not loaded: %v", err)
	} else {
		a.logger.Info("inference", "Model loaded")
	}

	a.orchestrator.Run()
	a.orchestrator.RefreshStatus()

	if a.config.MQTTBroker != "" {
		source, err := trigger.NewMQTTSource(a.config.MQTTBroker, a.config.MQTTClientID,
			a.config.MQTTTopic, a.orchestrator, a.logger)
		if err != nil {
			a.logger.Warning("trigger", "MQTT trigger source disabled: %v", err)
		} else {
			a.mqttSource = source
		}
	}

	router := routes.Setup(a.orchestrator, a.hub, a.settings, a.results, a.logger, a.config)

	a.logger.Info("app", "Vision server listening on :%d", a.config.Port)
	a.logger.Info("app", "Images: %s, processed: %s, database: %s",
		a.config.ImageDirectory, a.config.ProcessedDir, a.config.DBPath)

	return http.ListenAndServe(fmt.Sprintf(":%d", a.config.Port), router)
}

// Shutdown stops the pipeline and releases resources.
func (a *App) Shutdown() {
	if a.mqttSource != nil {
		a.mqttSource.Close()
	}
	a.orchestrator.Stop()
	a.hub.Stop()
	a.camera.Close()
	a.db.Close()
}
