// Package app builds the authentication core and its collaborators from configuration.
package app

import (
	"context"
	"crypto"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"authcore/internal/audit"
	auditrepo "authcore/internal/audit/repository"
	"authcore/internal/config"
	"authcore/internal/db"
	"authcore/internal/health"
	"authcore/internal/identity/hooks"
	identityservice "authcore/internal/identity/service"
	platformsettingsrepo "authcore/internal/platformsettings/repository"
	policyengine "authcore/internal/policy/engine"
	policyrepo "authcore/internal/policy/repository"
	projectrepo "authcore/internal/project/repository"
	projectmemberrepo "authcore/internal/projectmember/repository"
	"authcore/internal/security"
	"authcore/internal/telemetry"
	telemetryotel "authcore/internal/telemetry/otel"
	"authcore/internal/telemetry/producer"
	userrepo "authcore/internal/user/repository"
	userservice "authcore/internal/user/service"
)

// redisKeyPrefix namespaces every key authcore writes to Redis.
const redisKeyPrefix = "authcore:"

// App is the wired authentication core.
type App struct {
	Auth   *identityservice.AuthService
	Tokens *security.TokenProvider
	// Policies evaluates sign-up admission policies.
	Policies *policyengine.OPAEvaluator
	Health   *health.Checker

	closers []func(context.Context) error
}

// New opens the database from cfg.DatabaseURL and wires the core. Call Close when done.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a, err := NewWithDB(ctx, cfg, conn, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	// The database outlives everything built on it.
	a.closers = append([]func(context.Context) error{func(context.Context) error { return conn.Close() }}, a.closers...)
	return a, nil
}

// NewWithDB wires the core on an open database. The caller keeps ownership of conn.
func NewWithDB(ctx context.Context, cfg *config.Config, conn *sql.DB, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close(context.Background())
		}
	}()

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.OTLPInsecure)
	if err != nil {
		return nil, fmt.Errorf("otel providers: %w", err)
	}
	providers.SetGlobal()
	a.closers = append(a.closers, providers.Shutdown)

	tokens, err := tokenProvider(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Tokens = tokens

	hasher := security.NewPasswordHasher(cfg.PasswordHashAlgorithm, cfg.BcryptCost)
	users := userrepo.NewPostgresRepository(conn)
	projects := projectrepo.NewPostgresRepository(conn)
	members := projectmemberrepo.NewPostgresRepository(conn)
	auditLog := audit.NewLogger(auditrepo.NewPostgresRepository(conn), logger)
	a.Policies = policyengine.NewOPAEvaluator(policyrepo.NewPostgresRepository(conn))
	a.Health = health.NewChecker(conn, a.Policies)

	var flags identityservice.FlagStore = platformsettingsrepo.NewPostgresRepository(conn)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
		flags = platformsettingsrepo.NewCachedFlags(flags, rdb, redisKeyPrefix, logger)
	}

	community := hooks.NewCommunity(projects, members, tokens, auditLog, logger)
	var pipeline identityservice.Hooks = community
	if cfg.Edition == config.EditionPlatform {
		pipeline = hooks.NewPlatform(community, users, logger)
	}

	sink := telemetrySink(cfg, providers, logger, a)

	a.Auth = identityservice.NewAuthService(identityservice.Deps{
		Directory: userservice.NewDirectory(users, hasher),
		Hasher:    hasher,
		DummyHash: hasher.DummyHash(),
		Flags:     flags,
		Policy:    identityservice.SignUpPolicy{Enabled: cfg.SignUpEnabled},
		Evaluator: a.Policies,
		Hooks:     pipeline,
		Telemetry: sink,
		Audit:     auditLog,
		Logger:    logger,
	})
	logger.Info("authcore: core ready", "edition", cfg.Edition, "sign_up_enabled", cfg.SignUpEnabled, "hash", hasher.Algorithm())
	ok = true
	return a, nil
}

// telemetrySink picks Kafka when brokers are configured, otherwise OTel logs, and makes it asynchronous.
func telemetrySink(cfg *config.Config, providers *telemetryotel.Providers, logger *slog.Logger, a *App) telemetry.Sink {
	var next telemetry.Sink
	if p := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic, logger); p != nil {
		a.closers = append(a.closers, func(context.Context) error { return p.Close() })
		next = p
	} else {
		next = telemetryotel.NewSink(providers.LoggerProvider)
	}
	async := telemetry.NewAsyncSink(next, logger)
	// Registered last so it drains before the sink it feeds is closed.
	a.closers = append(a.closers, func(ctx context.Context) error {
		drainCtx, cancel := context.WithTimeout(ctx, telemetry.ShutdownDrainDuration)
		defer cancel()
		return async.Close(drainCtx)
	})
	return async
}

func tokenProvider(cfg *config.Config, logger *slog.Logger) (*security.TokenProvider, error) {
	var (
		priv crypto.Signer
		pub  crypto.PublicKey
		err  error
	)
	if cfg.JWTPrivateKey != "" {
		if priv, err = security.ParsePrivateKey(cfg.JWTPrivateKey); err != nil {
			return nil, fmt.Errorf("jwt private key: %w", err)
		}
		if pub, err = security.ParsePublicKey(cfg.JWTPublicKey); err != nil {
			return nil, fmt.Errorf("jwt public key: %w", err)
		}
	} else {
		logger.Warn("authcore: JWT_PRIVATE_KEY not set, using an ephemeral signing key")
		if priv, pub, err = security.GenerateEphemeralKey(); err != nil {
			return nil, err
		}
	}
	return security.NewTokenProvider(priv, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
}

// Close releases resources in reverse order of acquisition and returns every error joined.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
