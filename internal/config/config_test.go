package config

import (
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, expected 8080", cfg.Port)
	}
	if cfg.PrimaryDevice != "cam-1" {
		t.Errorf("PrimaryDevice = %s, expected cam-1", cfg.PrimaryDevice)
	}
	if cfg.CameraDriver != "simulator" {
		t.Errorf("CameraDriver = %s, expected simulator", cfg.CameraDriver)
	}
	if cfg.QueueCapacity != 4 {
		t.Errorf("QueueCapacity = %d, expected 4", cfg.QueueCapacity)
	}
	if cfg.PipelineWorkers != 2 {
		t.Errorf("PipelineWorkers = %d, expected 2", cfg.PipelineWorkers)
	}
	if cfg.DefaultThreshold != 0.5 {
		t.Errorf("DefaultThreshold = %v, expected 0.5", cfg.DefaultThreshold)
	}
	if cfg.DBPath != filepath.Join("data", "vision_system.db") {
		t.Errorf("DBPath = %s", cfg.DBPath)
	}
	if cfg.MQTTBroker != "" {
		t.Errorf("MQTTBroker = %s, expected empty (disabled)", cfg.MQTTBroker)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PRIMARY_DEVICE", "line-2-cam")
	t.Setenv("QUEUE_CAPACITY", "8")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.75")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, expected 9090", cfg.Port)
	}
	if cfg.PrimaryDevice != "line-2-cam" {
		t.Errorf("PrimaryDevice = %s", cfg.PrimaryDevice)
	}
	if cfg.QueueCapacity != 8 {
		t.Errorf("QueueCapacity = %d, expected 8", cfg.QueueCapacity)
	}
	if cfg.DefaultThreshold != 0.75 {
		t.Errorf("DefaultThreshold = %v, expected 0.75", cfg.DefaultThreshold)
	}
}

func TestLoad_MalformedEnvFallsBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("CONFIDENCE_THRESHOLD", "high")

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, expected default 8080", cfg.Port)
	}
	if cfg.DefaultThreshold != 0.5 {
		t.Errorf("DefaultThreshold = %v, expected default 0.5", cfg.DefaultThreshold)
	}
}
