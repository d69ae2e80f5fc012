package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port int

	// Capture devices
	PrimaryDevice  string
	CameraDriver   string // "simulator" or "webcam"
	CameraDeviceID int    // webcam driver only
	ImageDirectory string
	ProcessedDir   string

	// Persistence
	DBPath string

	// Pipeline
	QueueCapacity    int // per device
	PipelineWorkers  int
	CaptureTimeout   int // seconds
	InferenceTimeout int // seconds

	// Settings defaults
	DefaultThreshold float64

	// Logging
	LogDirectory   string
	LogBufferLimit int

	// Optional PLC trigger source; disabled when broker is empty
	MQTTBroker   string
	MQTTClientID string
	MQTTTopic    string
}

func Load() *Config {
	// Load .env if present; real env vars win either way
	_ = godotenv.Load()

	return &Config{
		Port:             getEnvAsInt("PORT", 8080),
		PrimaryDevice:    getEnv("PRIMARY_DEVICE", "cam-1"),
		CameraDriver:     getEnv("CAMERA_DRIVER", "simulator"),
		CameraDeviceID:   getEnvAsInt("CAMERA_DEVICE_ID", 0),
		ImageDirectory:   getEnv("IMAGE_DIR", filepath.Join("data", "images")),
		ProcessedDir:     getEnv("PROCESSED_DIR", filepath.Join("data", "processed_images")),
		DBPath:           getEnv("DB_PATH", filepath.Join("data", "vision_system.db")),
		QueueCapacity:    getEnvAsInt("QUEUE_CAPACITY", 4),
		PipelineWorkers:  getEnvAsInt("PIPELINE_WORKERS", 2),
		CaptureTimeout:   getEnvAsInt("CAPTURE_TIMEOUT", 5),
		InferenceTimeout: getEnvAsInt("INFERENCE_TIMEOUT", 10),
		DefaultThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.5),
		LogDirectory:     getEnv("LOG_DIR", filepath.Join(".", "logs")),
		LogBufferLimit:   getEnvAsInt("LOG_BUFFER_LIMIT", 100),
		MQTTBroker:       getEnv("MQTT_BROKER", ""),
		MQTTClientID:     getEnv("MQTT_CLIENT_ID", "visionserver"),
		MQTTTopic:        getEnv("MQTT_TOPIC", "vision/trigger/#"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
