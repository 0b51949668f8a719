// Worker consumes telemetry envelopes from Kafka, pushes them to Loki and serves Prometheus metrics.
// Set KAFKA_BROKERS, TELEMETRY_KAFKA_TOPIC, KAFKA_GROUP_ID, LOKI_URL and optionally METRICS_ADDR.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"authcore/internal/config"
	"authcore/internal/logging"
	"authcore/internal/telemetry/loki"
	"authcore/internal/telemetry/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg.SlogLevel(), cfg.LogFormat)

	brokers := cfg.TelemetryKafkaBrokersList()
	if len(brokers) == 0 {
		logger.Error("worker: KAFKA_BROKERS is required")
		os.Exit(1)
	}
	lokiClient, err := loki.NewClient(cfg.LokiURL, nil)
	if err != nil {
		logger.Error("worker: LOKI_URL is required", "error", err)
		os.Exit(1)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          cfg.TelemetryKafkaTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := worker.NewMetrics(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker: metrics server failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("worker: consuming", "topic", cfg.TelemetryKafkaTopic, "group", cfg.KafkaGroupID, "loki", cfg.LokiURL, "metrics", cfg.MetricsAddr)
	if err := worker.New(reader, lokiClient, metrics, logger).Run(ctx); err != nil {
		logger.Error("worker: stopped with error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	logger.Info("worker: stopped")
}
