package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, NewTextFormatter())
	logger.SetLevel(DebugLevel)

	logger.Debug("Debug message", String("key", "value"))
	logger.Info("Info message", Int("count", 42))
	logger.Warn("Warning message", Bool("flag", true))
	logger.Error("Error message", ErrorField(errors.New("test error")))

	output := buf.String()
	for _, want := range []string{
		"Debug message", "Info message", "Warning message", "Error message",
		"key=value", "count=42", "flag=true", "error=test error",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output", want)
		}
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, NewTextFormatter())
	logger.SetLevel(WarnLevel)

	logger.Debug("Debug message")
	logger.Info("Info message")
	logger.Warn("Warning message")
	logger.Error("Error message")

	output := buf.String()
	if strings.Contains(output, "Debug message") || strings.Contains(output, "Info message") {
		t.Error("messages below the level should be suppressed")
	}
	if !strings.Contains(output, "Warning message") || !strings.Contains(output, "Error message") {
		t.Error("messages at or above the level should pass")
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, NewJSONFormatter())

	logger.Info("structured line", String("session_id", "s-1"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "structured line" {
		t.Errorf("wrong message: %v", entry["msg"])
	}
	if entry["session_id"] != "s-1" {
		t.Errorf("field lost: %v", entry["session_id"])
	}
}

func TestWithFieldsAndContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, NewTextFormatter()).WithFields(String("component", "registry"))

	ctx := ContextWithRequestID(context.Background(), "req-1")
	logger.WithContext(ctx).Info("session registered")

	output := buf.String()
	if !strings.Contains(output, "registry: session registered") {
		t.Error("component prefix missing")
	}
	if !strings.Contains(output, "req-1") {
		t.Error("request id from context missing")
	}
}

func TestLegacyAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, NewTextFormatter())

	NewLegacyAdapter(logger).Info("connected to %s as %s", "data://live", "s-1")

	if !strings.Contains(buf.String(), "connected to data://live as s-1") {
		t.Errorf("printf formatting lost: %s", buf.String())
	}
}
