package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// InventoryRecord is the current quantity of one item at one location.
// At most one record exists per (location_id, item_name) pair.
type InventoryRecord struct {
	LocationID string
	ItemName   string
	Quantity   decimal.Decimal
	UpdatedAt  time.Time
}

// LocationItem is an inventory record joined with its barcode, if one is
// registered for the item.
type LocationItem struct {
	ItemName  string
	Quantity  decimal.Decimal
	UpdatedAt time.Time
	Barcode   *string
}

type ChangeKind int

const (
	ChangeSet ChangeKind = iota
	ChangeAdjust
	ChangeRemove
)

// Change describes a single requested mutation: an absolute set, a relative
// adjustment, or a removal (which zeroes the quantity but keeps the row).
type Change struct {
	Kind   ChangeKind
	Amount decimal.Decimal
}

func SetQuantity(q decimal.Decimal) Change {
	return Change{Kind: ChangeSet, Amount: q}
}

func AdjustQuantity(delta decimal.Decimal) Change {
	return Change{Kind: ChangeAdjust, Amount: delta}
}

func Remove() Change {
	return Change{Kind: ChangeRemove}
}

// ApplyChange computes the outcome of a change against the current quantity.
// old is nil when no record exists yet for the pair.
func ApplyChange(old *decimal.Decimal, change Change) (decimal.Decimal, Action, error) {
	switch change.Kind {
	case ChangeSet:
		if change.Amount.IsNegative() {
			return decimal.Decimal{}, "", ErrNegativeQuantity
		}
		if old == nil {
			return change.Amount, ActionInsert, nil
		}
		return change.Amount, ActionUpdate, nil

	case ChangeAdjust:
		base := decimal.Zero
		action := ActionInsert
		if old != nil {
			base = *old
			action = ActionUpdate
		}
		result := base.Add(change.Amount)
		if result.IsNegative() {
			return decimal.Decimal{}, "", ErrNegativeQuantity
		}
		return result, action, nil

	case ChangeRemove:
		if old == nil {
			return decimal.Decimal{}, "", ErrRecordNotFound
		}
		return decimal.Zero, ActionDelete, nil

	default:
		return decimal.Decimal{}, "", ErrInvalidChange
	}
}

type InventoryRepository interface {
	// Find returns the record for the pair, or ErrRecordNotFound.
	Find(ctx context.Context, locationID, itemName string) (*InventoryRecord, error)

	// ListLocations returns distinct location ids in ascending order.
	ListLocations(ctx context.Context) ([]string, error)

	// ListByLocation returns all items at a location with barcodes joined,
	// ordered by item name. Location sentinel rows are excluded.
	ListByLocation(ctx context.Context, locationID string) ([]*LocationItem, error)

	// ListByItem returns every location holding the item, most recently
	// updated first.
	ListByItem(ctx context.Context, itemName string) ([]*InventoryRecord, error)

	// CreateLocation registers a location by inserting its sentinel row.
	// Creating an existing location is a no-op.
	CreateLocation(ctx context.Context, locationID string) error

	// Shortage returns records with quantity at or below the threshold,
	// lowest quantity first.
	Shortage(ctx context.Context, threshold decimal.Decimal) ([]*InventoryRecord, error)
}
