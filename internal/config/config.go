package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	ServiceName string `env:"SERVICE_NAME,default=inventory-service"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
	HTTPPort    int    `env:"HTTP_PORT,default=8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL"`

	// Shortage monitoring: records at or below the threshold are reported.
	ShortageThreshold int64         `env:"SHORTAGE_THRESHOLD,default=1"`
	ShortageInterval  time.Duration `env:"SHORTAGE_INTERVAL,default=5m"`

	BarcodeCacheTTL   time.Duration `env:"BARCODE_CACHE_TTL,default=10m"`
	IdempotencyKeyTTL time.Duration `env:"IDEMPOTENCY_KEY_TTL,default=24h"`
}

func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("http port must be between 1 and 65535, got %d", c.HTTPPort)
	}

	if c.ShortageThreshold < 0 {
		return fmt.Errorf("shortage threshold must be non-negative, got %d", c.ShortageThreshold)
	}

	if c.ShortageInterval < 10*time.Second || c.ShortageInterval > time.Hour {
		return fmt.Errorf("shortage interval must be between 10 seconds and 1 hour, got %v", c.ShortageInterval)
	}

	return nil
}
