package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vladislavdragonenkov/cafecart/internal/domain"
)

const createSnapshotsSQL = `
CREATE TABLE IF NOT EXISTS cart_snapshots (
    slot       TEXT PRIMARY KEY,
    payload    BLOB NOT NULL,
    updated_at TEXT NOT NULL
);
`

// SnapshotStore - файловое хранилище слотов снапшотов на SQLite.
// Для cartctl играет роль localStorage браузера.
type SnapshotStore struct {
	db *sql.DB
}

// DefaultDBPath возвращает путь по умолчанию (~/.local/share/cartctl/cart.db).
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "cartctl", "cart.db"), nil
}

// Open открывает (или создаёт) базу по пути dbPath и гарантирует наличие схемы.
// ":memory:" поддерживается для тестов.
func Open(dbPath string) (*SnapshotStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite и :memory: - каждое соединение видит свою базу.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createSnapshotsSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &SnapshotStore{db: db}, nil
}

// Get возвращает содержимое слота или ErrSnapshotNotFound.
func (s *SnapshotStore) Get(ctx context.Context, slot string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM cart_snapshots WHERE slot = ?`, slot).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("load snapshot %s: %w", slot, err)
	}
	return payload, nil
}

// Put перезаписывает слот.
func (s *SnapshotStore) Put(ctx context.Context, slot string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cart_snapshots (slot, payload, updated_at)
		VALUES (?, ?, ?)`,
		slot, data, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", slot, err)
	}
	return nil
}

// Delete удаляет слот.
func (s *SnapshotStore) Delete(ctx context.Context, slot string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cart_snapshots WHERE slot = ?`, slot); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", slot, err)
	}
	return nil
}

// Close закрывает базу.
func (s *SnapshotStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ domain.SnapshotStore = (*SnapshotStore)(nil)
