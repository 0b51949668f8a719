package otel

import (
	"context"
	"encoding/json"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"authcore/internal/telemetry"
)

// RecordEmitter is the part of an OTel logger the sink uses.
type RecordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewSink returns a telemetry.Sink that sends identify and track calls as OTel log records via provider.
// If provider is nil, returns a no-op sink.
func NewSink(provider *sdklog.LoggerProvider) telemetry.Sink {
	if provider == nil {
		return telemetry.NopSink{}
	}
	return NewSinkWithLogger(provider.Logger("authcore.telemetry"))
}

// NewSinkWithLogger returns a sink emitting to l.
func NewSinkWithLogger(l RecordEmitter) telemetry.Sink {
	return &otelSink{logger: l}
}

type otelSink struct {
	logger RecordEmitter
}

func (s *otelSink) Identify(ctx context.Context, id telemetry.Identity) error {
	return s.emit(ctx, telemetry.IdentifyEnvelope(id))
}

func (s *otelSink) Track(ctx context.Context, ev telemetry.Event) error {
	return s.emit(ctx, telemetry.TrackEnvelope(ev))
}

// emit converts the envelope to a log record: properties become the JSON body, ids become attributes.
func (s *otelSink) emit(ctx context.Context, env telemetry.Envelope) error {
	rec := otellog.Record{}
	rec.SetTimestamp(env.CreatedAt)
	if rec.Timestamp().IsZero() {
		rec.SetTimestamp(time.Now().UTC())
	}
	rec.SetEventName(env.EventType)
	if len(env.Properties) > 0 {
		body, err := json.Marshal(env.Properties)
		if err != nil {
			return err
		}
		rec.SetBody(otellog.BytesValue(body))
	}
	rec.AddAttributes(
		otellog.String("kind", env.Kind),
		otellog.String("event_type", env.EventType),
		otellog.String("source", env.Source),
	)
	if env.UserID != "" {
		rec.AddAttributes(otellog.String("user_id", env.UserID))
	}
	if env.PlatformID != "" {
		rec.AddAttributes(otellog.String("platform_id", env.PlatformID))
	}
	if env.ProjectID != "" {
		rec.AddAttributes(otellog.String("project_id", env.ProjectID))
	}
	s.logger.Emit(ctx, rec)
	return nil
}
