package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Action is the mutation kind recorded in the change log. The values match
// the inventory_log.action column vocabulary.
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// LogEntry is one immutable change-log record. Entries are written in the
// same transaction as the inventory mutation they describe and are never
// updated or deleted.
type LogEntry struct {
	ID          int64
	LocationID  string
	ItemName    string
	OldQuantity *decimal.Decimal // nil when the record did not previously exist
	NewQuantity decimal.Decimal
	Action      Action
	ActionTime  time.Time
}

// LogFilter narrows a change-log query. Zero values leave the dimension
// unbounded. From is inclusive, To is exclusive.
type LogFilter struct {
	LocationID string
	ItemName   string
	From       time.Time
	To         time.Time
	Limit      int
}

func (f LogFilter) Validate() error {
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return ErrInvalidTimeRange
	}
	return nil
}

type LogRepository interface {
	// Query returns matching entries ordered by action_time ascending, ties
	// broken by id ascending. Each call re-runs the query.
	Query(ctx context.Context, filter LogFilter) ([]*LogEntry, error)
}
