// Package worker moves telemetry envelopes from Kafka to Loki.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
)

const (
	defaultPushTimeout = 10 * time.Second
	defaultReadBackoff = time.Second
)

// MessageReader is the part of *kafka.Reader the worker uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Pusher ships one raw envelope, e.g. *loki.Client.
type Pusher interface {
	PushEnvelopeJSON(ctx context.Context, rawJSON []byte) error
}

// Metrics are the worker's Prometheus collectors.
type Metrics struct {
	Messages     *prometheus.CounterVec
	ReadErrors   prometheus.Counter
	PushDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authcore_telemetry_messages_total",
				Help: "Telemetry messages handled, by result",
			},
			[]string{"result"},
		),
		ReadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authcore_telemetry_read_errors_total",
			Help: "Kafka read errors",
		}),
		PushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "authcore_telemetry_push_duration_seconds",
			Help:    "Loki push latency",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.Messages, m.ReadErrors, m.PushDuration)
	return m
}

// Worker reads envelopes and pushes each one. A failed push is counted and dropped.
type Worker struct {
	reader      MessageReader
	pusher      Pusher
	metrics     *Metrics
	logger      *slog.Logger
	pushTimeout time.Duration
	readBackoff time.Duration
}

// New returns a worker. metrics must come from NewMetrics.
func New(reader MessageReader, pusher Pusher, metrics *Metrics, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		reader:      reader,
		pusher:      pusher,
		metrics:     metrics,
		logger:      logger,
		pushTimeout: defaultPushTimeout,
		readBackoff: defaultReadBackoff,
	}
}

// Run consumes until ctx is cancelled, then returns nil.
func (w *Worker) Run(ctx context.Context) error {
	for {
		msg, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.metrics.ReadErrors.Inc()
			w.logger.WarnContext(ctx, "worker: kafka read error", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(w.readBackoff):
			}
			continue
		}
		w.handle(ctx, msg)
	}
}

func (w *Worker) handle(ctx context.Context, msg kafka.Message) {
	pushCtx, cancel := context.WithTimeout(ctx, w.pushTimeout)
	defer cancel()
	start := time.Now()
	err := w.pusher.PushEnvelopeJSON(pushCtx, msg.Value)
	w.metrics.PushDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		w.metrics.Messages.WithLabelValues("failed").Inc()
		w.logger.WarnContext(ctx, "worker: loki push failed", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		return
	}
	w.metrics.Messages.WithLabelValues("pushed").Inc()
}
