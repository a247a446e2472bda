package domain

import "context"

// BarcodeEntry maps one scannable barcode to an item name. Reference data,
// administered outside the mutation flow.
type BarcodeEntry struct {
	Barcode  string
	ItemName string
}

type BarcodeRepository interface {
	// FindItemName resolves a barcode by exact, case-sensitive match.
	// Returns ErrBarcodeNotFound when no entry exists.
	FindItemName(ctx context.Context, barcode string) (string, error)

	// List returns the full barcode master ordered by item name.
	List(ctx context.Context) ([]*BarcodeEntry, error)
}
