package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/SurMis1/locofly-inventory/internal/domain"
)

type PostgresInventoryRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresInventoryRepository(pool *pgxpool.Pool) *PostgresInventoryRepository {
	return &PostgresInventoryRepository{pool: pool}
}

func (r *PostgresInventoryRepository) Find(ctx context.Context, locationID, itemName string) (*domain.InventoryRecord, error) {
	query := `
		SELECT location_id, item_name, quantity, updated_at
		FROM inventory
		WHERE location_id = $1 AND item_name = $2
	`
	var rec domain.InventoryRecord
	err := r.pool.QueryRow(ctx, query, locationID, itemName).Scan(
		&rec.LocationID,
		&rec.ItemName,
		&rec.Quantity,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("find inventory record: %w", err)
	}
	return &rec, nil
}

// FindForUpdate reads the record inside tx with a row lock held until the
// transaction ends. Returns (nil, nil) when the pair has no record yet; an
// absent row cannot be locked, so a racing first insert surfaces later as a
// unique violation.
func (r *PostgresInventoryRepository) FindForUpdate(ctx context.Context, tx pgx.Tx, locationID, itemName string) (*domain.InventoryRecord, error) {
	query := `
		SELECT location_id, item_name, quantity, updated_at
		FROM inventory
		WHERE location_id = $1 AND item_name = $2
		FOR UPDATE
	`
	var rec domain.InventoryRecord
	err := tx.QueryRow(ctx, query, locationID, itemName).Scan(
		&rec.LocationID,
		&rec.ItemName,
		&rec.Quantity,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock inventory record: %w", err)
	}
	return &rec, nil
}

// InsertWithTx creates the first record for a pair. A concurrent first insert
// hits the (location_id, item_name) unique constraint and is translated to a
// retryable conflict by the tx manager.
func (r *PostgresInventoryRepository) InsertWithTx(ctx context.Context, tx pgx.Tx, rec *domain.InventoryRecord) error {
	query := `
		INSERT INTO inventory (location_id, item_name, quantity, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := tx.Exec(ctx, query, rec.LocationID, rec.ItemName, rec.Quantity, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert inventory record: %w", err)
	}
	return nil
}

// UpdateWithTx rewrites quantity and updated_at for a row already locked by
// FindForUpdate in the same transaction.
func (r *PostgresInventoryRepository) UpdateWithTx(ctx context.Context, tx pgx.Tx, rec *domain.InventoryRecord) error {
	query := `
		UPDATE inventory
		SET quantity = $3, updated_at = $4
		WHERE location_id = $1 AND item_name = $2
	`
	result, err := tx.Exec(ctx, query, rec.LocationID, rec.ItemName, rec.Quantity, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update inventory record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *PostgresInventoryRepository) ListLocations(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT location_id
		FROM inventory
		ORDER BY location_id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var locations []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		locations = append(locations, id)
	}
	return locations, rows.Err()
}

func (r *PostgresInventoryRepository) ListByLocation(ctx context.Context, locationID string) ([]*domain.LocationItem, error) {
	query := `
		SELECT i.item_name, i.quantity, i.updated_at, b.barcode
		FROM inventory i
		LEFT JOIN barcode_master b ON b.item_name = i.item_name
		WHERE i.location_id = $1 AND i.item_name <> ''
		ORDER BY i.item_name
	`
	rows, err := r.pool.Query(ctx, query, locationID)
	if err != nil {
		return nil, fmt.Errorf("list location items: %w", err)
	}
	defer rows.Close()

	var items []*domain.LocationItem
	for rows.Next() {
		var item domain.LocationItem
		if err := rows.Scan(&item.ItemName, &item.Quantity, &item.UpdatedAt, &item.Barcode); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (r *PostgresInventoryRepository) ListByItem(ctx context.Context, itemName string) ([]*domain.InventoryRecord, error) {
	query := `
		SELECT location_id, item_name, quantity, updated_at
		FROM inventory
		WHERE item_name = $1 AND item_name <> ''
		ORDER BY updated_at DESC
	`
	rows, err := r.pool.Query(ctx, query, itemName)
	if err != nil {
		return nil, fmt.Errorf("list item locations: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// CreateLocation inserts the blank-item sentinel row that makes an empty
// location visible to ListLocations.
func (r *PostgresInventoryRepository) CreateLocation(ctx context.Context, locationID string) error {
	query := `
		INSERT INTO inventory (location_id, item_name, quantity, updated_at)
		VALUES ($1, '', 0, NOW())
		ON CONFLICT (location_id, item_name) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, locationID); err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

func (r *PostgresInventoryRepository) Shortage(ctx context.Context, threshold decimal.Decimal) ([]*domain.InventoryRecord, error) {
	query := `
		SELECT location_id, item_name, quantity, updated_at
		FROM inventory
		WHERE quantity <= $1 AND item_name <> ''
		ORDER BY quantity, updated_at
	`
	rows, err := r.pool.Query(ctx, query, threshold)
	if err != nil {
		return nil, fmt.Errorf("shortage report: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]*domain.InventoryRecord, error) {
	var records []*domain.InventoryRecord
	for rows.Next() {
		var rec domain.InventoryRecord
		if err := rows.Scan(&rec.LocationID, &rec.ItemName, &rec.Quantity, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
