package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/cafecart/internal/storage/postgres"
)

type fakeMigrator struct {
	upSteps   []int
	downSteps []int
	upErr     error
	statusErr error
}

func (f *fakeMigrator) MigrateUp(_ context.Context, steps int) error {
	f.upSteps = append(f.upSteps, steps)
	return f.upErr
}

func (f *fakeMigrator) MigrateDown(_ context.Context, steps int) error {
	f.downSteps = append(f.downSteps, steps)
	return nil
}

func (f *fakeMigrator) MigrationStatus(context.Context) (int64, int, error) {
	return 1, 1, f.statusErr
}

func noEnv(string) string { return "" }

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"-direction= DOWN ", "-steps=2", "-dsn=postgres://flag"}, noEnv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.direction != "down" || opts.steps != 2 || opts.dsn != "postgres://flag" {
		t.Fatalf("unexpected options: %+v", opts)
	}

	opts, err = parseOptions(nil, func(key string) string {
		if key == envPostgresDSN {
			return " postgres://env "
		}
		return ""
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.direction != "up" || opts.dsn != "postgres://env" {
		t.Fatalf("unexpected options from env: %+v", opts)
	}

	if _, err := parseOptions(nil, noEnv); !errors.Is(err, errMissingDSN) {
		t.Fatalf("expected missing dsn error, got %v", err)
	}
	if _, err := parseOptions([]string{"-steps=many"}, noEnv); err == nil {
		t.Fatal("expected flag parse error")
	}
}

func TestMigrate_Directions(t *testing.T) {
	ctx := context.Background()

	m := &fakeMigrator{}
	var out bytes.Buffer
	if err := migrate(ctx, m, options{direction: "up"}, &out); err != nil {
		t.Fatalf("up: %v", err)
	}
	if len(m.upSteps) != 1 || m.upSteps[0] != 0 {
		t.Fatalf("expected up with all steps, got %v", m.upSteps)
	}
	if !strings.Contains(out.String(), "migrate up ok: version=1 applied=1") {
		t.Fatalf("unexpected output: %q", out.String())
	}

	if err := migrate(ctx, m, options{direction: "down"}, &out); err != nil {
		t.Fatalf("down: %v", err)
	}
	if len(m.downSteps) != 1 || m.downSteps[0] != 1 {
		t.Fatalf("expected down by one step, got %v", m.downSteps)
	}

	if err := migrate(ctx, m, options{direction: "status"}, &out); err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(m.upSteps) != 1 || len(m.downSteps) != 1 {
		t.Fatal("status must not migrate")
	}
}

func TestMigrate_Errors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	if err := migrate(ctx, &fakeMigrator{}, options{direction: "sideways"}, &bytes.Buffer{}); err == nil ||
		!strings.Contains(err.Error(), "unsupported direction") {
		t.Fatalf("expected unsupported direction error, got %v", err)
	}
	if err := migrate(ctx, &fakeMigrator{upErr: boom}, options{direction: "up"}, &bytes.Buffer{}); !errors.Is(err, boom) {
		t.Fatalf("expected up error, got %v", err)
	}
	if err := migrate(ctx, &fakeMigrator{statusErr: boom}, options{direction: "status"}, &bytes.Buffer{}); !errors.Is(err, boom) {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestMigrate_Postgres(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("CAFECART_POSTGRES_TEST_DSN"))
	if dsn == "" {
		t.Skip("CAFECART_POSTGRES_TEST_DSN is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer store.Close()

	var out bytes.Buffer
	for _, direction := range []string{"up", "status", "down", "up"} {
		if err := migrate(ctx, store, options{direction: direction}, &out); err != nil {
			t.Fatalf("%s: %v", direction, err)
		}
	}
}

func TestMainMissingDSNExits(t *testing.T) {
	if os.Getenv("MIGRATE_TEST_EXIT") == "1" {
		os.Args = []string{"migrate", "-direction=status"}
		_ = os.Unsetenv(envPostgresDSN)
		main()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestMainMissingDSNExits")
	cmd.Env = append(os.Environ(), "MIGRATE_TEST_EXIT=1", envPostgresDSN+"=")
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected subprocess to exit with error")
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() == 0 {
		t.Fatalf("expected non-zero exit code, got %v", err)
	}
}
