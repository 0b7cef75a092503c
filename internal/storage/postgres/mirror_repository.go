package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/cafecart/internal/domain"
)

type mirrorRepository struct {
	db *sql.DB
}

// NewMirrorRepository создаёт PostgreSQL-реализацию MirrorRepository.
func NewMirrorRepository(store *Store) domain.MirrorRepository {
	return &mirrorRepository{db: store.DB()}
}

func (r *mirrorRepository) Save(ctx context.Context, mirror domain.CartMirror) error {
	if mirror.SessionID == "" {
		return domain.ErrSessionRequired
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if mirror.UpdatedAt.IsZero() {
		mirror.UpdatedAt = time.Now().UTC()
	}

	cart := mirror.Cart()
	payload, err := domain.MarshalSnapshot(cart)
	if err != nil {
		return fmt.Errorf("marshal mirror lines: %w", err)
	}

	// Last writer wins: версий нет, просто перезаписываем строку.
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_mirrors (session_id, lines, total_items, total_amount, updated_at)
		VALUES ($1, $2::jsonb, $3, $4, $5)
		ON CONFLICT (session_id) DO UPDATE SET
			lines = EXCLUDED.lines,
			total_items = EXCLUDED.total_items,
			total_amount = EXCLUDED.total_amount,
			updated_at = EXCLUDED.updated_at
	`, mirror.SessionID, string(payload), cart.TotalItemCount(), cart.TotalAmount(), mirror.UpdatedAt); err != nil {
		return fmt.Errorf("upsert cart mirror: %w", err)
	}

	return nil
}

func (r *mirrorRepository) Get(ctx context.Context, sessionID string) (domain.CartMirror, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		mirror  domain.CartMirror
		payload []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT session_id, lines, updated_at
		FROM cart_mirrors
		WHERE session_id = $1
	`, sessionID).Scan(&mirror.SessionID, &payload, &mirror.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CartMirror{}, domain.ErrMirrorNotFound
		}
		return domain.CartMirror{}, fmt.Errorf("select cart mirror: %w", err)
	}

	if err := json.Unmarshal(payload, &mirror.Lines); err != nil {
		return domain.CartMirror{}, fmt.Errorf("decode cart mirror lines: %w", err)
	}
	if mirror.Lines == nil {
		mirror.Lines = []domain.CartLine{}
	}

	return mirror, nil
}

func (r *mirrorRepository) Delete(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_mirrors WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete cart mirror: %w", err)
	}
	return nil
}

var _ domain.MirrorRepository = (*mirrorRepository)(nil)
