package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/cafecart/internal/app"
)

const (
	envLogLevel            = "CAFECART_LOG_LEVEL"
	envHTTPAddr            = "CAFECART_HTTP_ADDR"
	envGRPCAddr            = "CAFECART_GRPC_ADDR"
	envMetricsAddr         = "CAFECART_METRICS_ADDR"
	envStorageDriver       = "CAFECART_STORAGE_DRIVER"
	envPostgresDSN         = "CAFECART_POSTGRES_DSN"
	envPostgresAutoMigrate = "CAFECART_POSTGRES_AUTO_MIGRATE"
	envRedisURL            = "CAFECART_REDIS_URL"
	envMirrorTTL           = "CAFECART_MIRROR_TTL"
	envKafkaBrokers        = "KAFKA_BROKERS"
	envSessionSecret       = "CAFECART_SESSION_SECRET"
	envSessionMaxAge       = "CAFECART_SESSION_MAX_AGE"
	envSessionSecure       = "CAFECART_SESSION_SECURE"
	envRateLimitRPS        = "CAFECART_RATE_LIMIT_RPS"
	envRateLimitBurst      = "CAFECART_RATE_LIMIT_BURST"
)

type envLookup func(key string) (string, bool)

// readConfigFromEnv накладывает переменные окружения на DefaultConfig.
// Некорректные значения не валят запуск: остаётся значение по умолчанию, а в warnings попадает причина.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	warn := func(key string, err error) {
		warnings = append(warnings, fmt.Sprintf("ignore %s: %v", key, err))
	}

	setString := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	setString(envHTTPAddr, &cfg.HTTPAddr)
	setString(envGRPCAddr, &cfg.GRPCAddr)
	setString(envMetricsAddr, &cfg.MetricsAddr)
	setString(envPostgresDSN, &cfg.PostgresDSN)
	setString(envRedisURL, &cfg.RedisURL)
	setString(envKafkaBrokers, &cfg.KafkaBrokers)
	setString(envSessionSecret, &cfg.SessionSecret)

	if v, ok := lookup(envStorageDriver); ok && strings.TrimSpace(v) != "" {
		cfg.StorageDriver = strings.ToLower(strings.TrimSpace(v))
	}

	if v, ok := lookup(envPostgresAutoMigrate); ok {
		if parsed, err := parseBool(v); err != nil {
			warn(envPostgresAutoMigrate, err)
		} else {
			cfg.PostgresAutoMigrate = parsed
		}
	}
	if v, ok := lookup(envSessionSecure); ok {
		if parsed, err := parseBool(v); err != nil {
			warn(envSessionSecure, err)
		} else {
			cfg.SessionSecure = parsed
		}
	}

	positive := func(d time.Duration) bool { return d > 0 }
	if v, ok := lookup(envMirrorTTL); ok {
		// 0 означает хранение без срока.
		if parsed, err := parseDuration(v, func(d time.Duration) bool { return d >= 0 }, "must be >= 0"); err != nil {
			warn(envMirrorTTL, err)
		} else {
			cfg.MirrorTTL = parsed
		}
	}
	if v, ok := lookup(envSessionMaxAge); ok {
		if parsed, err := parseDuration(v, positive, "must be > 0"); err != nil {
			warn(envSessionMaxAge, err)
		} else {
			cfg.SessionMaxAge = parsed
		}
	}

	if v, ok := lookup(envRateLimitRPS); ok {
		if parsed, err := parseFloat(v, func(f float64) bool { return f >= 0 }, "must be >= 0"); err != nil {
			warn(envRateLimitRPS, err)
		} else {
			cfg.RateLimitRPS = parsed
		}
	}
	if v, ok := lookup(envRateLimitBurst); ok {
		if parsed, err := parseInt(v, func(n int) bool { return n > 0 }, "must be > 0"); err != nil {
			warn(envRateLimitBurst, err)
		} else {
			cfg.RateLimitBurst = parsed
		}
	}

	return cfg, warnings
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid int value %q: %w", raw, err)
	}
	if !valid(value) {
		return 0, fmt.Errorf("value %d %s", value, rule)
	}
	return value, nil
}

func parseFloat(raw string, valid func(float64) bool, rule string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value %q: %w", raw, err)
	}
	if !valid(value) {
		return 0, fmt.Errorf("value %v %s", value, rule)
	}
	return value, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration value %q: %w", raw, err)
	}
	if !valid(value) {
		return 0, fmt.Errorf("value %s %s", value, rule)
	}
	return value, nil
}
