package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SurMis1/locofly-inventory/internal/domain"
)

// BarcodeCache is a read-through cache in front of a BarcodeRepository.
// The barcode master is static reference data, so entries are cached with a
// TTL and never invalidated explicitly. Cache failures degrade to direct
// repository reads.
type BarcodeCache struct {
	inner  domain.BarcodeRepository
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

func NewBarcodeCache(inner domain.BarcodeRepository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *BarcodeCache {
	return &BarcodeCache{
		inner:  inner,
		client: client,
		prefix: "inventory:barcode:",
		ttl:    ttl,
		logger: logger,
	}
}

func (c *BarcodeCache) FindItemName(ctx context.Context, barcode string) (string, error) {
	key := c.prefix + barcode

	itemName, err := c.client.Get(ctx, key).Result()
	if err == nil {
		return itemName, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.Warn("barcode cache read failed", "barcode", barcode, "error", err)
	}

	itemName, err = c.inner.FindItemName(ctx, barcode)
	if err != nil {
		return "", err
	}

	if err := c.client.Set(ctx, key, itemName, c.ttl).Err(); err != nil {
		c.logger.Warn("barcode cache write failed", "barcode", barcode, "error", err)
	}
	return itemName, nil
}

func (c *BarcodeCache) List(ctx context.Context) ([]*domain.BarcodeEntry, error) {
	return c.inner.List(ctx)
}
