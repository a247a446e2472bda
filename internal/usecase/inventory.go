package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/SurMis1/locofly-inventory/internal/domain"
)

type InventoryUseCase interface {
	ApplyMutation(ctx context.Context, input MutationInput) (*domain.InventoryRecord, error)
	GetRecord(ctx context.Context, locationID, itemName string) (*domain.InventoryRecord, error)
	ListLocations(ctx context.Context) ([]string, error)
	LocationItems(ctx context.Context, locationID string) ([]*domain.LocationItem, error)
	CreateLocation(ctx context.Context, locationID string) error
	ShortageReport(ctx context.Context, threshold decimal.Decimal) ([]*domain.InventoryRecord, error)
	QueryLog(ctx context.Context, filter domain.LogFilter) ([]*domain.LogEntry, error)
}

// MutationInput identifies the target pair and the requested change. Exactly
// one of ItemName or Barcode must be set; a barcode is resolved to its item
// name before the mutation is applied. IdempotencyKey is optional.
type MutationInput struct {
	LocationID     string
	ItemName       string
	Barcode        string
	Change         domain.Change
	IdempotencyKey string
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type TxManager interface {
	DoWithTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}

type TxInventoryRepository interface {
	domain.InventoryRepository
	FindForUpdate(ctx context.Context, tx pgx.Tx, locationID, itemName string) (*domain.InventoryRecord, error)
	InsertWithTx(ctx context.Context, tx pgx.Tx, rec *domain.InventoryRecord) error
	UpdateWithTx(ctx context.Context, tx pgx.Tx, rec *domain.InventoryRecord) error
}

type TxLogRepository interface {
	domain.LogRepository
	AppendWithTx(ctx context.Context, tx pgx.Tx, entry *domain.LogEntry) error
}

const mutationInFlight = "processing"

type inventoryUseCase struct {
	inventoryRepo  TxInventoryRepository
	logRepo        TxLogRepository
	barcodeRepo    domain.BarcodeRepository
	idempotency    IdempotencyStore
	txManager      TxManager
	idempotencyTTL time.Duration
}

func NewInventoryUseCase(
	inventoryRepo TxInventoryRepository,
	logRepo TxLogRepository,
	barcodeRepo domain.BarcodeRepository,
	idempotency IdempotencyStore,
	txManager TxManager,
	idempotencyTTL time.Duration,
) InventoryUseCase {
	return &inventoryUseCase{
		inventoryRepo:  inventoryRepo,
		logRepo:        logRepo,
		barcodeRepo:    barcodeRepo,
		idempotency:    idempotency,
		txManager:      txManager,
		idempotencyTTL: idempotencyTTL,
	}
}

// ApplyMutation applies one change to one (location, item) pair and appends
// exactly one change-log entry in the same transaction. It returns the record
// as committed. domain.ErrMutationConflict means the caller may retry.
func (uc *inventoryUseCase) ApplyMutation(ctx context.Context, input MutationInput) (*domain.InventoryRecord, error) {
	locationID := strings.TrimSpace(input.LocationID)
	if locationID == "" {
		return nil, domain.ErrEmptyLocationID
	}

	itemName := strings.TrimSpace(input.ItemName)
	if itemName == "" {
		barcode := strings.TrimSpace(input.Barcode)
		if barcode == "" {
			return nil, domain.ErrEmptyItemName
		}
		resolved, err := uc.barcodeRepo.FindItemName(ctx, barcode)
		if err != nil {
			return nil, err
		}
		itemName = resolved
	}

	var lockAcquired bool
	if input.IdempotencyKey != "" {
		locked, err := uc.idempotency.SetNX(ctx, input.IdempotencyKey, mutationInFlight, uc.idempotencyTTL)
		if err != nil {
			return nil, err
		}
		if !locked {
			val, err := uc.idempotency.Get(ctx, input.IdempotencyKey)
			if err != nil || val == mutationInFlight {
				return nil, domain.ErrIdempotencyInFlight
			}
			// Replay: the mutation already committed, return its outcome.
			return uc.inventoryRepo.Find(ctx, locationID, itemName)
		}
		lockAcquired = true
	}

	var committed bool
	defer func() {
		if lockAcquired && !committed {
			_ = uc.idempotency.Del(context.Background(), input.IdempotencyKey)
		}
	}()

	var rec *domain.InventoryRecord
	err := uc.txManager.DoWithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		existing, err := uc.inventoryRepo.FindForUpdate(ctx, tx, locationID, itemName)
		if err != nil {
			return err
		}

		var oldQuantity *decimal.Decimal
		if existing != nil {
			oldQuantity = &existing.Quantity
		}

		newQuantity, action, err := domain.ApplyChange(oldQuantity, input.Change)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		rec = &domain.InventoryRecord{
			LocationID: locationID,
			ItemName:   itemName,
			Quantity:   newQuantity,
			UpdatedAt:  now,
		}

		if action == domain.ActionInsert {
			if err := uc.inventoryRepo.InsertWithTx(ctx, tx, rec); err != nil {
				return err
			}
		} else {
			if err := uc.inventoryRepo.UpdateWithTx(ctx, tx, rec); err != nil {
				return err
			}
		}

		return uc.logRepo.AppendWithTx(ctx, tx, &domain.LogEntry{
			LocationID:  locationID,
			ItemName:    itemName,
			OldQuantity: oldQuantity,
			NewQuantity: newQuantity,
			Action:      action,
			ActionTime:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	committed = true
	if input.IdempotencyKey != "" {
		_ = uc.idempotency.Set(ctx, input.IdempotencyKey, "done", uc.idempotencyTTL)
	}

	return rec, nil
}

func (uc *inventoryUseCase) GetRecord(ctx context.Context, locationID, itemName string) (*domain.InventoryRecord, error) {
	if strings.TrimSpace(locationID) == "" {
		return nil, domain.ErrEmptyLocationID
	}
	if strings.TrimSpace(itemName) == "" {
		return nil, domain.ErrEmptyItemName
	}
	return uc.inventoryRepo.Find(ctx, strings.TrimSpace(locationID), strings.TrimSpace(itemName))
}

func (uc *inventoryUseCase) ListLocations(ctx context.Context) ([]string, error) {
	return uc.inventoryRepo.ListLocations(ctx)
}

func (uc *inventoryUseCase) LocationItems(ctx context.Context, locationID string) ([]*domain.LocationItem, error) {
	if strings.TrimSpace(locationID) == "" {
		return nil, domain.ErrEmptyLocationID
	}
	return uc.inventoryRepo.ListByLocation(ctx, strings.TrimSpace(locationID))
}

func (uc *inventoryUseCase) CreateLocation(ctx context.Context, locationID string) error {
	if strings.TrimSpace(locationID) == "" {
		return domain.ErrEmptyLocationID
	}
	return uc.inventoryRepo.CreateLocation(ctx, strings.TrimSpace(locationID))
}

func (uc *inventoryUseCase) ShortageReport(ctx context.Context, threshold decimal.Decimal) ([]*domain.InventoryRecord, error) {
	if threshold.IsNegative() {
		return nil, domain.ErrNegativeThreshold
	}
	return uc.inventoryRepo.Shortage(ctx, threshold)
}

func (uc *inventoryUseCase) QueryLog(ctx context.Context, filter domain.LogFilter) ([]*domain.LogEntry, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return uc.logRepo.Query(ctx, filter)
}
