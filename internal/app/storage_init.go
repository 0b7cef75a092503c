package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cafecart/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/cafecart/internal/health"
	"github.com/vladislavdragonenkov/cafecart/internal/storage/memory"
	"github.com/vladislavdragonenkov/cafecart/internal/storage/postgres"
	"github.com/vladislavdragonenkov/cafecart/internal/storage/redis"
)

// runtimeDependencies - хранилище зеркал, выбранное конфигурацией.
type runtimeDependencies struct {
	mirrorRepo     domain.MirrorRepository
	storageChecker healthcheck.Checker
	closeFn        func() error
}

func (d *runtimeDependencies) close(logger *log.Entry) {
	if d == nil || d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
	}
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	if driver == "" {
		driver = StorageDriverMemory
	}

	switch driver {
	case StorageDriverMemory:
		logger.Info("using in-memory cart mirror storage")
		return &runtimeDependencies{
			mirrorRepo: memory.NewMirrorRepository(),
			storageChecker: healthcheck.NewPingChecker("storage", func(context.Context) error {
				return nil
			}),
		}, nil

	case StorageDriverPostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return nil, errors.New("postgres storage requires dsn")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply postgres migrations: %w", err)
			}
		}
		logger.Info("using postgres cart mirror storage")
		return &runtimeDependencies{
			mirrorRepo:     postgres.NewMirrorRepository(store),
			storageChecker: healthcheck.NewPingChecker("storage", store.Ping),
			closeFn:        store.Close,
		}, nil

	case StorageDriverRedis:
		if strings.TrimSpace(cfg.RedisURL) == "" {
			return nil, errors.New("redis storage requires url")
		}
		client, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		if err := client.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		logger.WithField("mirror_ttl", cfg.MirrorTTL).Info("using redis cart mirror storage")
		return &runtimeDependencies{
			mirrorRepo:     redis.NewMirrorRepository(client, cfg.MirrorTTL),
			storageChecker: healthcheck.NewPingChecker("storage", client.Ping),
			closeFn:        client.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
