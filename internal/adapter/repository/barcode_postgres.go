package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SurMis1/locofly-inventory/internal/domain"
)

type PostgresBarcodeRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresBarcodeRepository(pool *pgxpool.Pool) *PostgresBarcodeRepository {
	return &PostgresBarcodeRepository{pool: pool}
}

func (r *PostgresBarcodeRepository) FindItemName(ctx context.Context, barcode string) (string, error) {
	query := `
		SELECT item_name
		FROM barcode_master
		WHERE barcode = $1
	`
	var itemName string
	err := r.pool.QueryRow(ctx, query, barcode).Scan(&itemName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrBarcodeNotFound
		}
		return "", fmt.Errorf("resolve barcode: %w", err)
	}
	return itemName, nil
}

func (r *PostgresBarcodeRepository) List(ctx context.Context) ([]*domain.BarcodeEntry, error) {
	query := `
		SELECT barcode, item_name
		FROM barcode_master
		ORDER BY item_name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list barcodes: %w", err)
	}
	defer rows.Close()

	var entries []*domain.BarcodeEntry
	for rows.Next() {
		var entry domain.BarcodeEntry
		if err := rows.Scan(&entry.Barcode, &entry.ItemName); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
