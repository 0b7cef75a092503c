package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vladislavdragonenkov/cafecart/internal/domain"
)

const mirrorKeyPrefix = "cafecart:mirror:"

// mirrorRecord - формат хранения зеркала в Redis.
type mirrorRecord struct {
	Lines     []domain.CartLine `json:"lines"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type mirrorRepository struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewMirrorRepository создаёт Redis-реализацию MirrorRepository.
// Ключи живут ttl (обычно равен времени жизни cookie-сессии); ttl<=0 - без истечения.
func NewMirrorRepository(client *Client, ttl time.Duration) domain.MirrorRepository {
	if ttl < 0 {
		ttl = 0
	}
	return &mirrorRepository{rdb: client.rdb, ttl: ttl}
}

func mirrorKey(sessionID string) string {
	return mirrorKeyPrefix + sessionID
}

func (r *mirrorRepository) Save(ctx context.Context, mirror domain.CartMirror) error {
	if mirror.SessionID == "" {
		return domain.ErrSessionRequired
	}
	if mirror.UpdatedAt.IsZero() {
		mirror.UpdatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(mirrorRecord{Lines: mirror.Cart().Lines, UpdatedAt: mirror.UpdatedAt})
	if err != nil {
		return fmt.Errorf("marshal cart mirror: %w", err)
	}
	if err := r.rdb.Set(ctx, mirrorKey(mirror.SessionID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("set cart mirror: %w", err)
	}
	return nil
}

func (r *mirrorRepository) Get(ctx context.Context, sessionID string) (domain.CartMirror, error) {
	payload, err := r.rdb.Get(ctx, mirrorKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.CartMirror{}, domain.ErrMirrorNotFound
		}
		return domain.CartMirror{}, fmt.Errorf("get cart mirror: %w", err)
	}

	var record mirrorRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return domain.CartMirror{}, fmt.Errorf("decode cart mirror: %w", err)
	}
	if record.Lines == nil {
		record.Lines = []domain.CartLine{}
	}

	return domain.CartMirror{
		SessionID: sessionID,
		Lines:     record.Lines,
		UpdatedAt: record.UpdatedAt,
	}, nil
}

func (r *mirrorRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, mirrorKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete cart mirror: %w", err)
	}
	return nil
}

var _ domain.MirrorRepository = (*mirrorRepository)(nil)
