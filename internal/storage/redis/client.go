package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// Client оборачивает go-redis клиент.
type Client struct {
	rdb *goredis.Client
}

// NewClient создаёт клиента по URL вида redis://localhost:6379/0.
func NewClient(redisURL string) (*Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Client{rdb: goredis.NewClient(opts)}, nil
}

// Ping проверяет соединение; используется health-чекером.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close закрывает соединение.
func (c *Client) Close() error {
	return c.rdb.Close()
}
