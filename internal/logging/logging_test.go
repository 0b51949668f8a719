package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelInfo, "json")
	l.Info("signed in", "user_id", "u-1")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "signed in" || rec["user_id"] != "u-1" {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestNew_TextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelWarn, "text")
	l.Info("dropped")
	l.Warn("kept", "k", "v")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info record should be filtered: %q", out)
	}
	if !strings.Contains(out, "kept") || !strings.Contains(out, "k=v") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Error("Discard logger should not be enabled for any level")
	}
}
