package app

import "time"

// Драйверы хранилища серверных зеркал корзин.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
	StorageDriverRedis    = "redis"
)

// Config описывает настройки запуска cart-server.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool
	RedisURL            string
	MirrorTTL           time.Duration

	// KafkaBrokers - список брокеров через запятую; пусто - события не публикуются.
	KafkaBrokers string

	SessionSecret string
	SessionMaxAge time.Duration
	SessionSecure bool

	// RateLimitRPS <= 0 выключает ограничение частоты запросов.
	RateLimitRPS   float64
	RateLimitBurst int
}

// DefaultConfig возвращает настройки для локального запуска.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		GRPCAddr:            ":50051",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		RedisURL:            "redis://localhost:6379/0",
		MirrorTTL:           7 * 24 * time.Hour,
		SessionMaxAge:       7 * 24 * time.Hour,
		RateLimitRPS:        5,
		RateLimitBurst:      20,
	}
}
