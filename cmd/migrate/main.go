// migrate runs DB migrations from embedded SQL; use with go run ./cmd/migrate [-direction up|down].
package main

import (
	"flag"
	"fmt"
	"os"

	"authcore/internal/config"
	"authcore/internal/db/migrate"
	"authcore/internal/logging"
)

func main() {
	direction := flag.String("direction", migrate.DirectionUp, "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg.SlogLevel(), cfg.LogFormat)
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is not set; create a .env or set DATABASE_URL")
		os.Exit(1)
	}

	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		logger.Error("migrate failed", "direction", *direction, "error", err)
		os.Exit(1)
	}
	version, dirty, ok, err := migrate.Version(cfg.DatabaseURL)
	if err != nil {
		logger.Warn("migrate: could not read schema version", "error", err)
		return
	}
	if !ok {
		logger.Info("migrate: no migrations applied")
		return
	}
	logger.Info("migrate: done", "direction", *direction, "version", version, "dirty", dirty)
}
