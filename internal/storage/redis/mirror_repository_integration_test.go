package redis

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/cafecart/internal/domain"
)

func openRedisForIntegrationTest(t *testing.T) *Client {
	t.Helper()

	url := strings.TrimSpace(os.Getenv("CAFECART_REDIS_TEST_URL"))
	if url == "" {
		url = "redis://localhost:6379/15"
	}

	client, err := NewClient(url)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		t.Skipf("redis is not available for integration tests: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestMirrorRepository_RedisSaveGetDelete(t *testing.T) {
	client := openRedisForIntegrationTest(t)
	repo := NewMirrorRepository(client, time.Minute)
	ctx := context.Background()

	sessionID := "it-" + time.Now().Format("150405.000000000")
	mirror := domain.CartMirror{
		SessionID: sessionID,
		Lines:     []domain.CartLine{{ID: "a", Name: "Tea", Price: 20, Quantity: 2}},
	}
	require.NoError(t, repo.Save(ctx, mirror))

	stored, err := repo.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, mirror.Lines, stored.Lines)
	assert.False(t, stored.UpdatedAt.IsZero())

	ttl, err := client.rdb.TTL(ctx, mirrorKey(sessionID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, repo.Delete(ctx, sessionID))
	_, err = repo.Get(ctx, sessionID)
	assert.ErrorIs(t, err, domain.ErrMirrorNotFound)
}

func TestMirrorRepository_RedisRequiresSession(t *testing.T) {
	repo := &mirrorRepository{}
	err := repo.Save(context.Background(), domain.CartMirror{})
	assert.ErrorIs(t, err, domain.ErrSessionRequired)
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient("://not-a-url")
	assert.Error(t, err)
}
