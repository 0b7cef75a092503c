package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vladislavdragonenkov/cafecart/internal/domain"
	"github.com/vladislavdragonenkov/cafecart/internal/service/cartsync"
)

// Config - настройки cartctl. Источники по приоритету: флаги, файл
// ~/.config/cartctl/config.yaml, значения по умолчанию.
type Config struct {
	// Server - базовый URL cart-server.
	Server string `yaml:"server"`
	// DBPath - файл SQLite со снапшотом корзины; пусто - путь по умолчанию.
	DBPath string `yaml:"db_path"`
	Slot   string `yaml:"slot"`

	LogLevel     string        `yaml:"log_level"`
	SyncInterval time.Duration `yaml:"sync_interval"`
	SyncTimeout  time.Duration `yaml:"sync_timeout"`

	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig - параметры circuit breaker вокруг синхронизации.
type BreakerConfig struct {
	ConsecutiveFailures uint32        `yaml:"consecutive_failures"`
	OpenTimeout         time.Duration `yaml:"open_timeout"`
}

// DefaultConfig возвращает настройки для локального cart-server.
func DefaultConfig() Config {
	return Config{
		Server:       "http://localhost:8080",
		Slot:         domain.DefaultSnapshotSlot,
		LogLevel:     "warn",
		SyncInterval: cartsync.DefaultInterval,
		SyncTimeout:  10 * time.Second,
		Breaker: BreakerConfig{
			ConsecutiveFailures: 5,
			OpenTimeout:         30 * time.Second,
		},
	}
}

// DefaultConfigPath возвращает ~/.config/cartctl/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "cartctl", "config.yaml")
}

// LoadConfig читает YAML поверх DefaultConfig. Отсутствующий файл не ошибка.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultConfigPath()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}
