package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/SurMis1/locofly-inventory/internal/domain"
)

type PostgresLogRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresLogRepository(pool *pgxpool.Pool) *PostgresLogRepository {
	return &PostgresLogRepository{pool: pool}
}

// AppendWithTx writes one change-log entry inside the mutation's transaction,
// so the entry commits or aborts together with the inventory write.
func (r *PostgresLogRepository) AppendWithTx(ctx context.Context, tx pgx.Tx, entry *domain.LogEntry) error {
	query := `
		INSERT INTO inventory_log
			(location_id, item_name, old_quantity, new_quantity, action, action_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	old := decimal.NullDecimal{}
	if entry.OldQuantity != nil {
		old = decimal.NewNullDecimal(*entry.OldQuantity)
	}

	err := tx.QueryRow(ctx, query,
		entry.LocationID,
		entry.ItemName,
		old,
		entry.NewQuantity,
		string(entry.Action),
		entry.ActionTime,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("append log entry: %w", err)
	}
	return nil
}

func (r *PostgresLogRepository) Query(ctx context.Context, filter domain.LogFilter) ([]*domain.LogEntry, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.LocationID != "" {
		conditions = append(conditions, "location_id = "+arg(filter.LocationID))
	}
	if filter.ItemName != "" {
		conditions = append(conditions, "item_name = "+arg(filter.ItemName))
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, "action_time >= "+arg(filter.From))
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "action_time < "+arg(filter.To))
	}

	query := `
		SELECT id, location_id, item_name, old_quantity, new_quantity, action, action_time
		FROM inventory_log
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY action_time, id"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query log: %w", err)
	}
	defer rows.Close()

	var entries []*domain.LogEntry
	for rows.Next() {
		var (
			entry  domain.LogEntry
			old    decimal.NullDecimal
			action string
		)
		err := rows.Scan(
			&entry.ID,
			&entry.LocationID,
			&entry.ItemName,
			&old,
			&entry.NewQuantity,
			&action,
			&entry.ActionTime,
		)
		if err != nil {
			return nil, err
		}
		if old.Valid {
			entry.OldQuantity = &old.Decimal
		}
		entry.Action = domain.Action(action)
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
