package config

import (
	"testing"
	"time"

	"github.com/devkit-go/devkit/internal/bytesize"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level INFO, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format text, got %q", cfg.Logging.Format)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Expected default store backend memory, got %q", cfg.Store.Backend)
	}
	if cfg.Admin.Username != "admin" {
		t.Errorf("Expected default admin username, got %q", cfg.Admin.Username)
	}
	if cfg.Telemetry.Endpoint != "localhost:4317" {
		t.Errorf("Expected default OTLP endpoint, got %q", cfg.Telemetry.Endpoint)
	}
	if cfg.Telemetry.SampleRate != 1.0 {
		t.Errorf("Expected default sample rate 1.0, got %v", cfg.Telemetry.SampleRate)
	}
	if cfg.ControlPlane.Port != 8080 {
		t.Errorf("Expected default control plane port 8080, got %d", cfg.ControlPlane.Port)
	}
}

func TestApplyDefaults_LevelNormalized(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "debug"}}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level normalized to DEBUG, got %q", cfg.Logging.Level)
	}
}

func TestApplyDefaults_MemDriverSize(t *testing.T) {
	cfg := &Config{
		Drivers: []DriverConfig{
			{Name: "mem0", Type: "mem"},
			{Name: "mem1", Type: "mem", Size: 4 * bytesize.KiB},
			{Name: "null", Type: "null"},
		},
	}
	ApplyDefaults(cfg)

	if cfg.Drivers[0].Size != 64*bytesize.KiB {
		t.Errorf("Expected default mem size 64Ki, got %d", cfg.Drivers[0].Size)
	}
	if cfg.Drivers[1].Size != 4*bytesize.KiB {
		t.Errorf("Expected explicit mem size preserved, got %d", cfg.Drivers[1].Size)
	}
	if cfg.Drivers[2].Size != 0 {
		t.Errorf("Expected null driver size untouched, got %d", cfg.Drivers[2].Size)
	}
}

func TestApplyDefaults_ExplicitValuesPreserved(t *testing.T) {
	cfg := &Config{
		Logging:         LoggingConfig{Level: "WARN", Format: "json", Output: "stderr"},
		ShutdownTimeout: 5 * time.Second,
	}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "WARN" || cfg.Logging.Format != "json" || cfg.Logging.Output != "stderr" {
		t.Errorf("Expected explicit logging values preserved, got %+v", cfg.Logging)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected explicit shutdown timeout preserved, got %v", cfg.ShutdownTimeout)
	}
}

func TestGetDefaultConfig_Validates(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Fatalf("Default config must validate, got: %v", err)
	}
	if len(cfg.Drivers) == 0 {
		t.Error("Expected default config to declare drivers")
	}
}
