package app

import (
	"context"
	"os"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cafecart/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/cafecart/internal/health"
)

func TestInitRuntimeDependencies_Memory(t *testing.T) {
	for _, driver := range []string{"", "memory", " MEMORY "} {
		cfg := DefaultConfig()
		cfg.StorageDriver = driver

		deps, err := initRuntimeDependencies(context.Background(), cfg, log.WithField("test", "storage"))
		if err != nil {
			t.Fatalf("driver %q: unexpected error: %v", driver, err)
		}
		if deps.mirrorRepo == nil {
			t.Fatalf("driver %q: expected mirror repository", driver)
		}
		if check := deps.storageChecker.Check(context.Background()); check.Status != healthcheck.StatusHealthy {
			t.Fatalf("driver %q: expected healthy storage, got %+v", driver, check)
		}
		deps.close(log.WithField("test", "storage"))
	}
}

func TestInitRuntimeDependencies_MemoryRoundTrip(t *testing.T) {
	deps, err := initRuntimeDependencies(context.Background(), DefaultConfig(), log.WithField("test", "storage"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	mirror := domain.CartMirror{SessionID: "s-1", Lines: []domain.CartLine{{ID: "c1", Name: "Tea", Price: 2.5, Quantity: 1}}}
	if err := deps.mirrorRepo.Save(ctx, mirror); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := deps.mirrorRepo.Get(ctx, "s-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Lines) != 1 || got.Lines[0].ID != "c1" {
		t.Fatalf("unexpected mirror: %+v", got)
	}
}

func TestInitRuntimeDependencies_Errors(t *testing.T) {
	tests := map[string]struct {
		cfg     Config
		wantErr string
	}{
		"unsupported driver": {
			cfg:     Config{StorageDriver: "mongo"},
			wantErr: "unsupported storage driver",
		},
		"postgres without dsn": {
			cfg:     Config{StorageDriver: StorageDriverPostgres},
			wantErr: "postgres storage requires dsn",
		},
		"redis without url": {
			cfg:     Config{StorageDriver: StorageDriverRedis},
			wantErr: "redis storage requires url",
		},
		"redis bad url": {
			cfg:     Config{StorageDriver: StorageDriverRedis, RedisURL: "not-a-url"},
			wantErr: "redis",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			deps, err := initRuntimeDependencies(context.Background(), tc.cfg, log.WithField("test", "storage"))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
			if deps != nil {
				t.Fatalf("expected nil dependencies, got %+v", deps)
			}
		})
	}
}

func TestInitRuntimeDependencies_Postgres(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("CAFECART_POSTGRES_TEST_DSN"))
	if dsn == "" {
		t.Skip("CAFECART_POSTGRES_TEST_DSN is not set")
	}

	cfg := DefaultConfig()
	cfg.StorageDriver = StorageDriverPostgres
	cfg.PostgresDSN = dsn

	deps, err := initRuntimeDependencies(context.Background(), cfg, log.WithField("test", "postgres-init"))
	if err != nil {
		t.Fatalf("init postgres: %v", err)
	}
	defer deps.close(log.WithField("test", "postgres-init"))

	if check := deps.storageChecker.Check(context.Background()); check.Status != healthcheck.StatusHealthy {
		t.Fatalf("expected healthy storage checker, got %+v", check)
	}
}

func TestRuntimeDependencies_CloseNil(_ *testing.T) {
	var deps *runtimeDependencies
	deps.close(log.WithField("test", "storage"))
}
