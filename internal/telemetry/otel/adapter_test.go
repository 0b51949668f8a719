package otel

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"authcore/internal/telemetry"
)

func TestNewSink_NilProvider_ReturnsNoop(t *testing.T) {
	s := NewSink(nil)
	if _, ok := s.(telemetry.NopSink); !ok {
		t.Fatalf("NewSink(nil) = %T, want NopSink", s)
	}
}

func TestNewSink_RealProvider(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	s := NewSink(provider)
	if err := s.Track(context.Background(), telemetry.Event{Name: telemetry.EventSignedUp}); err != nil {
		t.Errorf("Track: %v", err)
	}
}

// recordCapture stores the Records passed to Emit for assertion.
type recordCapture struct {
	recs []otellog.Record
}

func (r *recordCapture) Emit(ctx context.Context, rec otellog.Record) {
	r.recs = append(r.recs, rec)
}

func attrsOf(rec otellog.Record) map[string]string {
	attrs := make(map[string]string)
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})
	return attrs
}

func TestTrack_AttributeAndBodyMapping(t *testing.T) {
	cap := &recordCapture{}
	s := NewSinkWithLogger(cap)
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	err := s.Track(context.Background(), telemetry.Event{
		Name:       telemetry.EventSignedUp,
		UserID:     "user1",
		PlatformID: "plat1",
		ProjectID:  "proj1",
		Payload:    map[string]string{"email": "ada@example.com"},
		Timestamp:  ts,
	})
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if len(cap.recs) != 1 {
		t.Fatalf("records = %d, want 1", len(cap.recs))
	}
	rec := cap.recs[0]
	if !rec.Timestamp().Equal(ts) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp(), ts)
	}
	if rec.EventName() != telemetry.EventSignedUp {
		t.Errorf("event name = %q", rec.EventName())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body().AsBytes(), &body); err != nil || body["email"] != "ada@example.com" {
		t.Errorf("body = %s (%v)", rec.Body().AsBytes(), err)
	}
	want := map[string]string{
		"kind": "track", "event_type": telemetry.EventSignedUp, "source": telemetry.Source,
		"user_id": "user1", "platform_id": "plat1", "project_id": "proj1",
	}
	got := attrsOf(rec)
	for k, v := range want {
		if got[k] != v {
			t.Errorf("attr %s = %q, want %q", k, got[k], v)
		}
	}
}

func TestIdentify_OmitsEmptyIDs(t *testing.T) {
	cap := &recordCapture{}
	if err := NewSinkWithLogger(cap).Identify(context.Background(), telemetry.Identity{UserID: "u1"}); err != nil {
		t.Fatalf("Identify: %v", err)
	}
	got := attrsOf(cap.recs[0])
	if got["kind"] != telemetry.KindIdentify {
		t.Errorf("kind = %q", got["kind"])
	}
	if _, ok := got["platform_id"]; ok {
		t.Error("platform_id should be omitted when empty")
	}
	if cap.recs[0].Timestamp().IsZero() {
		t.Error("timestamp should be set")
	}
}
