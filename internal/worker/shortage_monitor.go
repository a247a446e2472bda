package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SurMis1/locofly-inventory/internal/domain"
)

// ShortageMonitor periodically scans for records at or below the configured
// threshold and logs them for reconciliation. Read-only; it never mutates
// inventory.
type ShortageMonitor struct {
	inventoryRepo domain.InventoryRepository
	logger        *slog.Logger
	threshold     decimal.Decimal
	interval      time.Duration
}

func NewShortageMonitor(
	inventoryRepo domain.InventoryRepository,
	logger *slog.Logger,
	threshold decimal.Decimal,
	interval time.Duration,
) *ShortageMonitor {
	return &ShortageMonitor{
		inventoryRepo: inventoryRepo,
		logger:        logger,
		threshold:     threshold,
		interval:      interval,
	}
}

func (w *ShortageMonitor) Start(ctx context.Context) {
	w.logger.Info("shortage monitor starting",
		"interval", w.interval,
		"threshold", w.threshold.String(),
	)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("shortage monitor shutting down")
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

func (w *ShortageMonitor) check(ctx context.Context) {
	records, err := w.inventoryRepo.Shortage(ctx, w.threshold)
	if err != nil {
		w.logger.Error("shortage scan failed", "error", err)
		return
	}

	for _, rec := range records {
		w.logger.Warn("low stock",
			"location_id", rec.LocationID,
			"item_name", rec.ItemName,
			"quantity", rec.Quantity.String(),
			"updated_at", rec.UpdatedAt,
		)
	}
}
