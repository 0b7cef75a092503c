package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"
)

// relationExists проверяет наличие таблицы или индекса в схеме public.
func relationExists(t *testing.T, ctx context.Context, db *sql.DB, name string) bool {
	t.Helper()

	var regclass sql.NullString
	if err := db.QueryRowContext(ctx, `SELECT to_regclass($1)::text`, "public."+name).Scan(&regclass); err != nil {
		t.Fatalf("lookup %s: %v", name, err)
	}
	return regclass.Valid
}

func assertSchema(t *testing.T, ctx context.Context, store *Store, wantVersion int64, wantTable, wantIndex bool) {
	t.Helper()

	version, count, err := store.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("migration status: %v", err)
	}
	if version != wantVersion || int64(count) != wantVersion {
		t.Fatalf("unexpected status: version=%d count=%d, want %d", version, count, wantVersion)
	}
	if got := relationExists(t, ctx, store.DB(), "cart_mirrors"); got != wantTable {
		t.Fatalf("cart_mirrors exists=%v, want %v (version %d)", got, wantTable, version)
	}
	if got := relationExists(t, ctx, store.DB(), "idx_cart_mirrors_updated_at"); got != wantIndex {
		t.Fatalf("idx_cart_mirrors_updated_at exists=%v, want %v (version %d)", got, wantIndex, version)
	}
}

func TestMigrator_CartMirrorsSchemaLifecycle(t *testing.T) {
	store := openRawPostgresStoreForIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := store.MigrateDown(ctx, 100); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	assertSchema(t, ctx, store, 0, false, false)

	if err := store.MigrateUp(ctx, 1); err != nil {
		t.Fatalf("migrate up 1: %v", err)
	}
	assertSchema(t, ctx, store, 1, true, false)

	if err := store.MigrateUp(ctx, 0); err != nil {
		t.Fatalf("migrate up all: %v", err)
	}
	assertSchema(t, ctx, store, 2, true, true)

	if err := store.MigrateUp(ctx, 0); err != nil {
		t.Fatalf("repeated migrate up: %v", err)
	}
	assertSchema(t, ctx, store, 2, true, true)

	var name string
	if err := store.DB().QueryRowContext(ctx, `SELECT name FROM schema_migrations WHERE version = 2`).Scan(&name); err != nil {
		t.Fatalf("read migration name: %v", err)
	}
	if name != "cart_mirrors_updated_at_idx" {
		t.Fatalf("unexpected migration name %q", name)
	}

	var linesDefault string
	if err := store.DB().QueryRowContext(ctx, `
		INSERT INTO cart_mirrors (session_id) VALUES ('defaults-check')
		RETURNING lines::text`).Scan(&linesDefault); err != nil {
		t.Fatalf("insert with defaults: %v", err)
	}
	if linesDefault != "[]" {
		t.Fatalf("expected empty lines by default, got %s", linesDefault)
	}

	if err := store.MigrateDown(ctx, 1); err != nil {
		t.Fatalf("migrate down 1: %v", err)
	}
	assertSchema(t, ctx, store, 1, true, false)

	if err := store.MigrateDown(ctx, 0); err != nil {
		t.Fatalf("migrate down default step: %v", err)
	}
	assertSchema(t, ctx, store, 0, false, false)

	if err := store.MigrateDown(ctx, 1); err != nil {
		t.Fatalf("migrate down on empty schema: %v", err)
	}
}

func TestMigrator_NilStoreGuards(t *testing.T) {
	var nilStore *Store
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := nilStore.MigrateUp(ctx, 0); err == nil {
		t.Fatal("expected error for nil store MigrateUp")
	}
	if err := nilStore.MigrateDown(ctx, 1); err == nil {
		t.Fatal("expected error for nil store MigrateDown")
	}
	if _, _, err := nilStore.MigrationStatus(ctx); err == nil {
		t.Fatal("expected error for nil store MigrationStatus")
	}
}
