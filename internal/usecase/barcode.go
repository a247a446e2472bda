package usecase

import (
	"context"
	"strings"

	"github.com/SurMis1/locofly-inventory/internal/domain"
)

type BarcodeUseCase interface {
	Resolve(ctx context.Context, barcode string) (string, error)
	ListBarcodes(ctx context.Context) ([]*domain.BarcodeEntry, error)
	ItemLocations(ctx context.Context, itemName string) ([]*domain.InventoryRecord, error)
}

type barcodeUseCase struct {
	barcodeRepo   domain.BarcodeRepository
	inventoryRepo domain.InventoryRepository
}

func NewBarcodeUseCase(barcodeRepo domain.BarcodeRepository, inventoryRepo domain.InventoryRepository) BarcodeUseCase {
	return &barcodeUseCase{
		barcodeRepo:   barcodeRepo,
		inventoryRepo: inventoryRepo,
	}
}

// Resolve maps a scanned barcode to its item name by exact match.
func (uc *barcodeUseCase) Resolve(ctx context.Context, barcode string) (string, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return "", domain.ErrEmptyBarcode
	}
	return uc.barcodeRepo.FindItemName(ctx, barcode)
}

func (uc *barcodeUseCase) ListBarcodes(ctx context.Context) ([]*domain.BarcodeEntry, error) {
	return uc.barcodeRepo.List(ctx)
}

// ItemLocations returns every location holding the item, for the picker flow
// that follows a successful resolve.
func (uc *barcodeUseCase) ItemLocations(ctx context.Context, itemName string) ([]*domain.InventoryRecord, error) {
	itemName = strings.TrimSpace(itemName)
	if itemName == "" {
		return nil, domain.ErrEmptyItemName
	}
	return uc.inventoryRepo.ListByItem(ctx, itemName)
}
