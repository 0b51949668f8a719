// Package telemetry defines product telemetry (identify and track calls) and its sinks.
// Telemetry is best effort: callers log sink errors and carry on.
package telemetry

import (
	"context"
	"fmt"
	"time"
)

// EventSignedUp is tracked once for every account created through sign-up.
const EventSignedUp = "signed.up"

// Source is reported on every envelope.
const Source = "authcore"

// Identity describes the user behind later events.
type Identity struct {
	UserID      string
	PlatformID  string
	ProjectID   string
	Email       string
	FirstName   string
	LastName    string
	TrackEvents bool
	NewsLetter  bool
	CreatedAt   time.Time
}

// Event is a named product event scoped to a project.
type Event struct {
	Name       string
	UserID     string
	PlatformID string
	ProjectID  string
	Payload    map[string]string
	Timestamp  time.Time
}

// Sink receives identify and track calls.
type Sink interface {
	Identify(ctx context.Context, id Identity) error
	Track(ctx context.Context, ev Event) error
}

// Sequencer is implemented by sinks that deliver an identify and the events that follow it as one
// ordered unit, for example by handing the whole unit to a single goroutine.
type Sequencer interface {
	Sequence(ctx context.Context, id Identity, events ...Event) error
}

// Sequence delivers id and then each event in order, stopping at the first error, so no event
// reaches the sink for a user whose identify failed. Sinks implementing Sequencer get the whole unit.
func Sequence(ctx context.Context, sink Sink, id Identity, events ...Event) error {
	if sq, ok := sink.(Sequencer); ok {
		return sq.Sequence(ctx, id, events...)
	}
	return sequence(ctx, sink, id, events)
}

func sequence(ctx context.Context, sink Sink, id Identity, events []Event) error {
	if err := sink.Identify(ctx, id); err != nil {
		return err
	}
	for _, ev := range events {
		if err := sink.Track(ctx, ev); err != nil {
			return fmt.Errorf("track %s: %w", ev.Name, err)
		}
	}
	return nil
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Identify(context.Context, Identity) error { return nil }
func (NopSink) Track(context.Context, Event) error       { return nil }

// Envelope kinds.
const (
	KindIdentify = "identify"
	KindTrack    = "track"
)

// Envelope is the JSON form of an identify or track call, as written to Kafka and pushed to Loki.
type Envelope struct {
	Kind       string            `json:"kind"`
	EventType  string            `json:"eventType"`
	Source     string            `json:"source"`
	UserID     string            `json:"userId"`
	PlatformID string            `json:"platformId,omitempty"`
	ProjectID  string            `json:"projectId,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// IdentifyEnvelope converts id to an Envelope.
func IdentifyEnvelope(id Identity) Envelope {
	props := map[string]string{
		"email":       id.Email,
		"firstName":   id.FirstName,
		"lastName":    id.LastName,
		"trackEvents": boolString(id.TrackEvents),
		"newsLetter":  boolString(id.NewsLetter),
	}
	if !id.CreatedAt.IsZero() {
		props["created"] = id.CreatedAt.UTC().Format(time.RFC3339)
	}
	return Envelope{
		Kind:       KindIdentify,
		EventType:  KindIdentify,
		Source:     Source,
		UserID:     id.UserID,
		PlatformID: id.PlatformID,
		ProjectID:  id.ProjectID,
		Properties: props,
		CreatedAt:  time.Now().UTC(),
	}
}

// TrackEnvelope converts ev to an Envelope. A zero Timestamp becomes now.
func TrackEnvelope(ev Event) Envelope {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return Envelope{
		Kind:       KindTrack,
		EventType:  ev.Name,
		Source:     Source,
		UserID:     ev.UserID,
		PlatformID: ev.PlatformID,
		ProjectID:  ev.ProjectID,
		Properties: ev.Payload,
		CreatedAt:  ts.UTC(),
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
