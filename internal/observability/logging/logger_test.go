package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewJSONLoggerToWritesServiceField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLoggerTo(&buf, "api", "warn")

	logger.Info("dropped")
	logger.Warn("qa_event_persist_failed", "user_id", "u1")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected only the warn line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["service"] != "api" || entry["msg"] != "qa_event_persist_failed" || entry["user_id"] != "u1" {
		t.Fatalf("unexpected entry %v", entry)
	}
}
