package jsonlog

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

func emitOne(t *testing.T, payload map[string]any) (string, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	emitter := NewEmitterWithClock(&buf, fixedClock{t: time.UnixMilli(1700000000000)})
	emitter.Emit(payload)

	line := buf.String()
	if !strings.HasSuffix(line, "\n") {
		t.Fatalf("Expected trailing newline, got %q", line)
	}
	line = strings.TrimSuffix(line, "\n")

	var decoded map[string]any
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("Emitted line is not valid JSON: %v (%q)", err, line)
	}
	return line, decoded
}

func TestEmit_FillsTimestampAndSource(t *testing.T) {
	_, decoded := emitOne(t, map[string]any{"event": "test_event"})

	ts, ok := decoded["timestamp"].(float64)
	if !ok {
		t.Fatalf("Expected numeric timestamp, got %T", decoded["timestamp"])
	}
	if int64(ts) != 1700000000000 {
		t.Errorf("Expected timestamp 1700000000000, got %d", int64(ts))
	}
	if ts != float64(int64(ts)) {
		t.Errorf("Expected integer timestamp, got %v", ts)
	}
	if decoded["source"] != DefaultSource {
		t.Errorf("Expected source '%s', got '%v'", DefaultSource, decoded["source"])
	}
}

func TestEmit_DoesNotOverrideExistingFields(t *testing.T) {
	_, decoded := emitOne(t, map[string]any{
		"event":     "test_event",
		"timestamp": int64(42),
		"source":    "other",
	})

	if ts := decoded["timestamp"].(float64); int64(ts) != 42 {
		t.Errorf("Expected timestamp 42 to be preserved, got %d", int64(ts))
	}
	if decoded["source"] != "other" {
		t.Errorf("Expected source 'other' to be preserved, got '%v'", decoded["source"])
	}
}

func TestEmit_CompactSingleLine(t *testing.T) {
	line, _ := emitOne(t, map[string]any{"event": "test_event", "n": 1})

	if strings.Contains(line, " ") {
		t.Errorf("Expected compact JSON without whitespace, got %q", line)
	}
	if strings.Contains(line, "\n") {
		t.Errorf("Expected a single line, got %q", line)
	}
}

func TestEmit_OneLinePerCall(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewEmitterWithClock(&buf, fixedClock{t: time.UnixMilli(1)})

	emitter.Emit(map[string]any{"event": "first"})
	emitter.Emit(map[string]any{"event": "second"})

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	for _, line := range lines {
		var decoded map[string]any
		if err := json.Unmarshal([]byte(line), &decoded); err != nil {
			t.Errorf("Line is not valid JSON: %v (%q)", err, line)
		}
	}
}

func TestEmit_CommonFields(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewEmitterWithClock(&buf, fixedClock{t: time.UnixMilli(1)})
	emitter.SetCommonField("runId", "run-123")
	emitter.SetCommonField("project", "common-proj")

	emitter.Emit(map[string]any{"event": "tagged", "project": "explicit-proj"})

	var decoded map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &decoded); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if decoded["runId"] != "run-123" {
		t.Errorf("Expected common field runId='run-123', got '%v'", decoded["runId"])
	}
	// Payload values win over common fields
	if decoded["project"] != "explicit-proj" {
		t.Errorf("Expected payload project to win, got '%v'", decoded["project"])
	}
}

func TestEmit_UnmarshalableValueDegrades(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewEmitterWithClock(&buf, fixedClock{t: time.UnixMilli(1)})

	// Channels cannot be marshaled; the emitter must still produce a line
	emitter.Emit(map[string]any{"event": "bad", "ch": make(chan int)})

	var decoded map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &decoded); err != nil {
		t.Fatalf("Expected a valid degraded line, got %v (%q)", err, buf.String())
	}
	if decoded["event"] != "log_marshal_error" {
		t.Errorf("Expected event 'log_marshal_error', got '%v'", decoded["event"])
	}
	if decoded["source"] != DefaultSource {
		t.Errorf("Expected source '%s', got '%v'", DefaultSource, decoded["source"])
	}
}
