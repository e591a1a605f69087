package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/streamlink/internal/adapters/driven/auth"
	"github.com/custodia-labs/streamlink/internal/adapters/driven/crypto"
	"github.com/custodia-labs/streamlink/internal/adapters/driven/memory"
	"github.com/custodia-labs/streamlink/internal/adapters/driven/platforms"
	"github.com/custodia-labs/streamlink/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/streamlink/internal/adapters/driven/redis"
	"github.com/custodia-labs/streamlink/internal/config"
	"github.com/custodia-labs/streamlink/internal/core/domain"
	"github.com/custodia-labs/streamlink/internal/core/ports/driven"
	"github.com/custodia-labs/streamlink/internal/core/ports/driving"
	"github.com/custodia-labs/streamlink/internal/core/services"
	"github.com/custodia-labs/streamlink/internal/logger"
)

// app holds the wired adapters and services shared by serve and sweep.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	db          *postgres.DB
	redisClient *redis.Client
	redisLock   *redisadapter.Lock

	lock      driven.DistributedLock
	registry  *platforms.Registry
	states    *services.StateService
	vault     *services.TokenVault
	refresher *services.Refresher

	authService    driving.AuthService
	oauthService   driving.OAuthService
	accountService driving.AccountService
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: logger.DefaultServiceName,
		Version:     version,
		Environment: cfg.Environment,
	})
}

func newApp(ctx context.Context, cfg *config.Config, l *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: l}
	if err := a.wire(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	cfg, l := a.cfg, a.logger
	var err error

	// ===== PostgreSQL =====
	l.Info("connecting to postgres")
	a.db, err = postgres.Connect(ctx, postgres.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.DB.ConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err = a.db.Migrate(ctx); err != nil {
		return err
	}

	// ===== Redis (optional) =====
	if cfg.RedisURL != "" {
		l.Info("connecting to redis")
		opts, perr := redis.ParseURL(cfg.RedisURL)
		if perr != nil {
			return fmt.Errorf("parse REDIS_URL: %w", perr)
		}
		a.redisClient = redis.NewClient(opts)
		a.redisLock = redisadapter.NewLock(a.redisClient)
		if err = a.redisLock.Ping(ctx); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
	}

	// ===== State store =====
	var stateStore driven.StateStore
	switch cfg.StateBackend {
	case config.StateBackendRedis:
		stateStore = redisadapter.NewStateStore(a.redisClient)
	case config.StateBackendPostgres:
		stateStore = postgres.NewStateStore(a.db.DB)
	default:
		stateStore = memory.NewStateStore()
	}
	l.Info("authorization state store selected", "backend", cfg.StateBackend)

	// ===== Distributed lock (Redis if available, otherwise PostgreSQL advisory locks) =====
	if a.redisLock != nil {
		a.lock = a.redisLock
		l.Info("using redis distributed lock")
	} else {
		a.lock = postgres.NewAdvisoryLock(a.db)
		l.Info("using postgres advisory lock")
	}

	// ===== Token encryption =====
	cipher, err := crypto.NewSecretEncryptorFromMaster(cfg.TokenEncryptionKey)
	if err != nil {
		return fmt.Errorf("token encryption: %w", err)
	}

	// ===== Platforms =====
	a.registry = platforms.NewRegistryFromCredentials(platformCredentials(cfg),
		platforms.WithTimeout(cfg.PlatformTimeout),
		platforms.WithLogger(l),
	)
	if len(a.registry.Platforms()) == 0 {
		l.Warn("no platform credentials configured; every platform is unsupported")
	} else {
		l.Info("platforms configured", "platforms", a.registry.Platforms())
	}

	// ===== Services =====
	a.states = services.NewStateService(stateStore)
	a.vault = services.NewTokenVault(postgres.NewAccountStore(a.db), cipher)
	a.refresher = services.NewRefresher(services.RefresherConfig{
		Vault:       a.vault,
		Registry:    a.registry,
		Lock:        a.lock,
		Logger:      l,
		Buffer:      cfg.RefreshBuffer,
		Concurrency: cfg.RefreshConcurrency,
	})
	a.authService = services.NewAuthService(auth.NewAdapter(cfg.JWTSecret, cfg.JWTIssuer))
	a.oauthService = services.NewOAuthService(services.OAuthServiceConfig{
		Registry:  a.registry,
		States:    a.states,
		Vault:     a.vault,
		Refresher: a.refresher,
		BaseURL:   cfg.BaseURL,
		Logger:    l,
	})
	a.accountService = services.NewAccountService(a.vault, a.refresher, a.registry, l)

	return nil
}

// newScheduler registers the background sweeps.
// The state sweep only needs coordination when the store is shared between instances.
func (a *app) newScheduler() (*services.Scheduler, error) {
	s := services.NewScheduler(services.SchedulerConfig{
		Lock:         a.lock,
		Logger:       a.logger,
		LockRequired: a.cfg.SchedulerLockRequired,
	})

	shared := a.cfg.StateBackend != config.StateBackendMemory
	jobs := []services.Job{
		services.StateSweepJob(a.states, a.cfg.StateSweepInterval, shared, a.logger),
		services.RefreshSweepJob(a.refresher, a.cfg.RefreshSweepInterval, a.logger),
	}
	for _, job := range jobs {
		if err := s.Register(job); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Close releases connections. It is safe on a partially built app.
func (a *app) Close() error {
	var errs []error
	if a.redisClient != nil {
		errs = append(errs, a.redisClient.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func platformCredentials(cfg *config.Config) map[domain.Platform]platforms.Credentials {
	return map[domain.Platform]platforms.Credentials{
		domain.PlatformTwitch:  {ClientID: cfg.Twitch.ClientID, ClientSecret: cfg.Twitch.ClientSecret},
		domain.PlatformYouTube: {ClientID: cfg.YouTube.ClientID, ClientSecret: cfg.YouTube.ClientSecret},
		domain.PlatformKick:    {ClientID: cfg.Kick.ClientID, ClientSecret: cfg.Kick.ClientSecret},
	}
}
