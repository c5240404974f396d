package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	err := Validate(cfg)
	if err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log format")
	}
}

func TestValidate_InvalidStoreBackend(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Store.Backend = "redis"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for unknown store backend")
	}
}

func TestValidate_BadgerRequiresPath(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Store.Backend = "badger"
	cfg.Store.Path = ""

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for badger backend without path")
	}
	if !strings.Contains(err.Error(), "store.path") {
		t.Errorf("Expected store.path error, got: %v", err)
	}
}

func TestValidate_DuplicateDriverNames(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Drivers = []DriverConfig{
		{Name: "mem0", Type: "mem"},
		{Name: "mem0", Type: "null"},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for duplicate driver names")
	}
	if !strings.Contains(err.Error(), "duplicate driver name") {
		t.Errorf("Expected duplicate name error, got: %v", err)
	}
}

func TestValidate_DuplicateExplicitMajors(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Drivers = []DriverConfig{
		{Name: "a", Type: "null", Major: 10},
		{Name: "b", Type: "null", Major: 10},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for duplicate explicit majors")
	}
}

func TestValidate_AutoMajorsMayRepeat(t *testing.T) {
	// Major 0 requests auto allocation; several drivers may use it.
	cfg := GetDefaultConfig()
	cfg.Drivers = []DriverConfig{
		{Name: "a", Type: "null"},
		{Name: "b", Type: "null"},
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected auto-major drivers to validate, got: %v", err)
	}
}

func TestValidate_InvalidDriverType(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Drivers = []DriverConfig{
		{Name: "x", Type: "tape"},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for unknown driver type")
	}
}

func TestValidate_DuplicateNodesUnderDriver(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Drivers = []DriverConfig{
		{
			Name: "x",
			Type: "null",
			Nodes: []NodeConfig{
				{Kind: "c", Minor: 1},
				{Kind: "c", Minor: 1},
			},
		},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for duplicate nodes")
	}
}

func TestValidate_InvalidNodeKind(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Drivers = []DriverConfig{
		{
			Name:  "x",
			Type:  "null",
			Nodes: []NodeConfig{{Kind: "p", Minor: 0}},
		},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid node kind")
	}
}
