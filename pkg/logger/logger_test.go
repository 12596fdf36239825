package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewDefaultTagsComponent(t *testing.T) {
	log := NewDefault("harness")
	var buf bytes.Buffer
	log.SetOutput(&buf)

	log.Info("hello")

	if !strings.Contains(buf.String(), "component=harness") {
		t.Fatalf("expected component field in output, got %q", buf.String())
	}
}

func TestJSONFormatIncludesFields(t *testing.T) {
	log := New(LoggingConfig{Level: "debug", Format: "json"})
	var buf bytes.Buffer
	log.SetOutput(&buf)

	log.WithField("flag", "search").Info("toggled")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["flag"] != "search" {
		t.Errorf("flag field = %v, want search", entry["flag"])
	}
	if entry["msg"] != "toggled" {
		t.Errorf("msg = %v, want toggled", entry["msg"])
	}
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	log := New(LoggingConfig{Level: "nope", Format: "text"})
	var buf bytes.Buffer
	log.SetOutput(&buf)

	log.Debug("hidden")
	log.Info("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line logged at fallback info level: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("info line missing: %q", out)
	}
}

func TestWithContextAttachesTraceID(t *testing.T) {
	log := New(LoggingConfig{Level: "info", Format: "json"})
	var buf bytes.Buffer
	log.SetOutput(&buf)

	ctx := WithTraceID(context.Background(), "trace-123")
	log.WithContext(ctx).Info("request handled")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["trace_id"] != "trace-123" {
		t.Errorf("trace_id = %v, want trace-123", entry["trace_id"])
	}
}

func TestTraceIDFromContextMissing(t *testing.T) {
	if id := TraceIDFromContext(context.Background()); id != "" {
		t.Fatalf("expected empty trace ID, got %q", id)
	}
}

func TestNewTraceIDUnique(t *testing.T) {
	a, b := NewTraceID(), NewTraceID()
	if a == "" || a == b {
		t.Fatalf("trace IDs not unique: %q %q", a, b)
	}
}
