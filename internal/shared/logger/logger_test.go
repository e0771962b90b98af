package logger

import (
	"testing"

	"go.uber.org/zap"
)

func TestNew_LevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	log, err := New("market-service", "prod")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if log.Core().Enabled(zap.InfoLevel) {
		t.Error("Expected info to be disabled at warn level")
	}
	if !log.Core().Enabled(zap.WarnLevel) {
		t.Error("Expected warn to be enabled")
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	if _, err := New("market-service", "local"); err == nil {
		t.Error("expected error for unknown level")
	}
}
