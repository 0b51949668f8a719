// Package producer publishes telemetry envelopes to Kafka for the telemetry worker.
package producer

import (
	"authcore/internal/telemetry"
)

// Producer is a telemetry.Sink backed by a message broker. Callers use it best effort: log and ignore errors.
type Producer interface {
	telemetry.Sink
	// Close flushes and releases resources (e.g. Kafka writer). Safe to call if already closed.
	Close() error
}
