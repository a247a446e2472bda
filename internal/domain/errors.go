package domain

import "errors"

var (
	ErrBarcodeNotFound = errors.New("barcode not found")
	ErrRecordNotFound  = errors.New("inventory record not found")
)

var (
	ErrEmptyBarcode      = errors.New("barcode cannot be empty")
	ErrEmptyLocationID   = errors.New("location id cannot be empty")
	ErrEmptyItemName     = errors.New("item name cannot be empty")
	ErrNegativeQuantity  = errors.New("quantity must be non-negative")
	ErrInvalidChange     = errors.New("invalid change kind")
	ErrInvalidTimeRange  = errors.New("time range start must not be after end")
	ErrNegativeThreshold = errors.New("threshold must be non-negative")
)

var (
	ErrMutationConflict     = errors.New("concurrent modification detected")
	ErrIdempotencyInFlight  = errors.New("mutation with this idempotency key is in flight")
	ErrIdempotencyKeyExists = errors.New("idempotency key already processed")
)
