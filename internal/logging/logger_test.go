package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_CreatesDirAndLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	log, err := NewLogger(dir, "debug", false)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	// Directory should exist
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("log dir missing: %v", err)
	}

	log.Debug("test_message_from_logging_test")
	_ = log.Sync()

	raw, err := os.ReadFile(filepath.Join(dir, "statuswatch.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(raw), "test_message_from_logging_test") || !strings.Contains(string(raw), `"service":"statuswatch"`) {
		t.Fatalf("unexpected log contents: %s", raw)
	}
}

func TestNewLogger_LevelFiltersAndFallsBack(t *testing.T) {
	dir := t.TempDir()
	log, err := NewLogger(dir, "warn", false)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	log.Info("should_be_dropped")
	log.Warn("should_be_kept")
	_ = log.Sync()

	raw, _ := os.ReadFile(filepath.Join(dir, "statuswatch.log"))
	if strings.Contains(string(raw), "should_be_dropped") || !strings.Contains(string(raw), "should_be_kept") {
		t.Fatalf("level not applied: %s", raw)
	}

	if _, err := NewLogger(t.TempDir(), "loud", false); err != nil {
		t.Fatalf("unknown level should fall back, got %v", err)
	}
}
