package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/SurMis1/locofly-inventory/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// mockInventoryRepository is an in-memory test double for
// TxInventoryRepository. The tx argument is ignored.
type mockInventoryRepository struct {
	records   map[string]*domain.InventoryRecord
	findErr   error
	insertErr error
	updateErr error
}

func newMockInventoryRepository() *mockInventoryRepository {
	return &mockInventoryRepository{records: make(map[string]*domain.InventoryRecord)}
}

func recordKey(locationID, itemName string) string {
	return locationID + "|" + itemName
}

func (m *mockInventoryRepository) seed(locationID, itemName string, quantity decimal.Decimal) {
	m.records[recordKey(locationID, itemName)] = &domain.InventoryRecord{
		LocationID: locationID,
		ItemName:   itemName,
		Quantity:   quantity,
		UpdatedAt:  time.Now().UTC(),
	}
}

func (m *mockInventoryRepository) Find(ctx context.Context, locationID, itemName string) (*domain.InventoryRecord, error) {
	rec, ok := m.records[recordKey(locationID, itemName)]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	copied := *rec
	return &copied, nil
}

func (m *mockInventoryRepository) FindForUpdate(ctx context.Context, tx pgx.Tx, locationID, itemName string) (*domain.InventoryRecord, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	rec, ok := m.records[recordKey(locationID, itemName)]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (m *mockInventoryRepository) InsertWithTx(ctx context.Context, tx pgx.Tx, rec *domain.InventoryRecord) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	key := recordKey(rec.LocationID, rec.ItemName)
	if _, exists := m.records[key]; exists {
		return domain.ErrMutationConflict
	}
	copied := *rec
	m.records[key] = &copied
	return nil
}

func (m *mockInventoryRepository) UpdateWithTx(ctx context.Context, tx pgx.Tx, rec *domain.InventoryRecord) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	key := recordKey(rec.LocationID, rec.ItemName)
	if _, exists := m.records[key]; !exists {
		return domain.ErrRecordNotFound
	}
	copied := *rec
	m.records[key] = &copied
	return nil
}

func (m *mockInventoryRepository) ListLocations(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (m *mockInventoryRepository) ListByLocation(ctx context.Context, locationID string) ([]*domain.LocationItem, error) {
	return nil, nil
}

func (m *mockInventoryRepository) ListByItem(ctx context.Context, itemName string) ([]*domain.InventoryRecord, error) {
	return nil, nil
}

func (m *mockInventoryRepository) CreateLocation(ctx context.Context, locationID string) error {
	return nil
}

func (m *mockInventoryRepository) Shortage(ctx context.Context, threshold decimal.Decimal) ([]*domain.InventoryRecord, error) {
	return nil, nil
}

// mockLogRepository records appended entries.
type mockLogRepository struct {
	entries   []*domain.LogEntry
	appendErr error
}

func (m *mockLogRepository) AppendWithTx(ctx context.Context, tx pgx.Tx, entry *domain.LogEntry) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	copied := *entry
	copied.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, &copied)
	return nil
}

func (m *mockLogRepository) Query(ctx context.Context, filter domain.LogFilter) ([]*domain.LogEntry, error) {
	return m.entries, nil
}

type mockBarcodeRepository struct {
	mappings map[string]string
}

func (m *mockBarcodeRepository) FindItemName(ctx context.Context, barcode string) (string, error) {
	itemName, ok := m.mappings[barcode]
	if !ok {
		return "", domain.ErrBarcodeNotFound
	}
	return itemName, nil
}

func (m *mockBarcodeRepository) List(ctx context.Context) ([]*domain.BarcodeEntry, error) {
	entries := make([]*domain.BarcodeEntry, 0, len(m.mappings))
	for barcode, itemName := range m.mappings {
		entries = append(entries, &domain.BarcodeEntry{Barcode: barcode, ItemName: itemName})
	}
	return entries, nil
}

// mockTxManager runs the function with a nil tx. Mutations before a failing
// step are not rolled back, which is fine because validation happens before
// any write.
type mockTxManager struct {
	txErr error
}

func (m *mockTxManager) DoWithTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	return fn(ctx, nil)
}

type mockIdempotencyStore struct {
	values map[string]string
}

func newMockIdempotencyStore() *mockIdempotencyStore {
	return &mockIdempotencyStore{values: make(map[string]string)}
}

func (m *mockIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	val, ok := m.values[key]
	if !ok {
		return "", errors.New("key not found")
	}
	return val, nil
}

func (m *mockIdempotencyStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if _, exists := m.values[key]; exists {
		return false, nil
	}
	m.values[key] = value
	return true, nil
}

func (m *mockIdempotencyStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.values[key] = value
	return nil
}

func (m *mockIdempotencyStore) Del(ctx context.Context, key string) error {
	delete(m.values, key)
	return nil
}

type fixture struct {
	uc        InventoryUseCase
	inventory *mockInventoryRepository
	log       *mockLogRepository
	barcodes  *mockBarcodeRepository
	idem      *mockIdempotencyStore
	tx        *mockTxManager
}

func newFixture() *fixture {
	f := &fixture{
		inventory: newMockInventoryRepository(),
		log:       &mockLogRepository{},
		barcodes:  &mockBarcodeRepository{mappings: map[string]string{"012345": "WIDGET"}},
		idem:      newMockIdempotencyStore(),
		tx:        &mockTxManager{},
	}
	f.uc = NewInventoryUseCase(f.inventory, f.log, f.barcodes, f.idem, f.tx, time.Hour)
	return f
}

func TestApplyMutationLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// First mutation creates the record.
	rec, err := f.uc.ApplyMutation(ctx, MutationInput{
		LocationID: "W1",
		ItemName:   "WIDGET",
		Change:     domain.SetQuantity(dec("10")),
	})
	if err != nil {
		t.Fatalf("set: unexpected error: %v", err)
	}
	if !rec.Quantity.Equal(dec("10")) {
		t.Errorf("set: quantity = %s, want 10", rec.Quantity)
	}
	if len(f.log.entries) != 1 {
		t.Fatalf("set: log entries = %d, want 1", len(f.log.entries))
	}
	first := f.log.entries[0]
	if first.Action != domain.ActionInsert {
		t.Errorf("set: action = %q, want insert", first.Action)
	}
	if first.OldQuantity != nil {
		t.Errorf("set: old quantity = %s, want nil", first.OldQuantity)
	}
	if !first.NewQuantity.Equal(dec("10")) {
		t.Errorf("set: new quantity = %s, want 10", first.NewQuantity)
	}

	// Adjustment against the existing record.
	rec, err = f.uc.ApplyMutation(ctx, MutationInput{
		LocationID: "W1",
		ItemName:   "WIDGET",
		Change:     domain.AdjustQuantity(dec("-3")),
	})
	if err != nil {
		t.Fatalf("adjust: unexpected error: %v", err)
	}
	if !rec.Quantity.Equal(dec("7")) {
		t.Errorf("adjust: quantity = %s, want 7", rec.Quantity)
	}
	second := f.log.entries[1]
	if second.Action != domain.ActionUpdate {
		t.Errorf("adjust: action = %q, want update", second.Action)
	}
	if second.OldQuantity == nil || !second.OldQuantity.Equal(dec("10")) {
		t.Errorf("adjust: old quantity = %v, want 10", second.OldQuantity)
	}

	// Over-adjusting fails and leaves state and log untouched.
	_, err = f.uc.ApplyMutation(ctx, MutationInput{
		LocationID: "W1",
		ItemName:   "WIDGET",
		Change:     domain.AdjustQuantity(dec("-20")),
	})
	if !errors.Is(err, domain.ErrNegativeQuantity) {
		t.Fatalf("over-adjust: error = %v, want ErrNegativeQuantity", err)
	}
	if len(f.log.entries) != 2 {
		t.Errorf("over-adjust: log entries = %d, want 2", len(f.log.entries))
	}
	current, err := f.uc.GetRecord(ctx, "W1", "WIDGET")
	if err != nil {
		t.Fatalf("get: unexpected error: %v", err)
	}
	if !current.Quantity.Equal(dec("7")) {
		t.Errorf("over-adjust: quantity = %s, want 7", current.Quantity)
	}

	// Removal zeroes the quantity but keeps the row.
	rec, err = f.uc.ApplyMutation(ctx, MutationInput{
		LocationID: "W1",
		ItemName:   "WIDGET",
		Change:     domain.Remove(),
	})
	if err != nil {
		t.Fatalf("remove: unexpected error: %v", err)
	}
	if !rec.Quantity.IsZero() {
		t.Errorf("remove: quantity = %s, want 0", rec.Quantity)
	}
	third := f.log.entries[2]
	if third.Action != domain.ActionDelete {
		t.Errorf("remove: action = %q, want delete", third.Action)
	}
	if third.OldQuantity == nil || !third.OldQuantity.Equal(dec("7")) {
		t.Errorf("remove: old quantity = %v, want 7", third.OldQuantity)
	}
	if _, err := f.uc.GetRecord(ctx, "W1", "WIDGET"); err != nil {
		t.Errorf("remove: record should survive as soft-deleted, got %v", err)
	}
}

func TestApplyMutationValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   MutationInput
		wantErr error
	}{
		{
			name:    "empty location",
			input:   MutationInput{ItemName: "WIDGET", Change: domain.SetQuantity(dec("1"))},
			wantErr: domain.ErrEmptyLocationID,
		},
		{
			name:    "whitespace location",
			input:   MutationInput{LocationID: "   ", ItemName: "WIDGET", Change: domain.SetQuantity(dec("1"))},
			wantErr: domain.ErrEmptyLocationID,
		},
		{
			name:    "neither item nor barcode",
			input:   MutationInput{LocationID: "W1", Change: domain.SetQuantity(dec("1"))},
			wantErr: domain.ErrEmptyItemName,
		},
		{
			name:    "unknown barcode",
			input:   MutationInput{LocationID: "W1", Barcode: "999999", Change: domain.SetQuantity(dec("1"))},
			wantErr: domain.ErrBarcodeNotFound,
		},
		{
			name:    "negative set",
			input:   MutationInput{LocationID: "W1", ItemName: "WIDGET", Change: domain.SetQuantity(dec("-5"))},
			wantErr: domain.ErrNegativeQuantity,
		},
		{
			name:    "remove of absent record",
			input:   MutationInput{LocationID: "W1", ItemName: "GADGET", Change: domain.Remove()},
			wantErr: domain.ErrRecordNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.uc.ApplyMutation(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ApplyMutation() error = %v, want %v", err, tt.wantErr)
			}
			if len(f.log.entries) != 0 {
				t.Errorf("failed mutation wrote %d log entries", len(f.log.entries))
			}
		})
	}
}

func TestApplyMutationResolvesBarcode(t *testing.T) {
	f := newFixture()

	rec, err := f.uc.ApplyMutation(context.Background(), MutationInput{
		LocationID: "W1",
		Barcode:    "012345",
		Change:     domain.SetQuantity(dec("5")),
	})
	if err != nil {
		t.Fatalf("ApplyMutation() unexpected error: %v", err)
	}
	if rec.ItemName != "WIDGET" {
		t.Errorf("item name = %q, want WIDGET", rec.ItemName)
	}
	if f.log.entries[0].ItemName != "WIDGET" {
		t.Errorf("log item name = %q, want WIDGET", f.log.entries[0].ItemName)
	}
}

func TestApplyMutationSetIsIdempotentOnState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	input := MutationInput{
		LocationID: "W1",
		ItemName:   "WIDGET",
		Change:     domain.SetQuantity(dec("10")),
	}

	for i := 0; i < 2; i++ {
		if _, err := f.uc.ApplyMutation(ctx, input); err != nil {
			t.Fatalf("ApplyMutation() #%d unexpected error: %v", i+1, err)
		}
	}

	rec, err := f.uc.GetRecord(ctx, "W1", "WIDGET")
	if err != nil {
		t.Fatalf("GetRecord() unexpected error: %v", err)
	}
	if !rec.Quantity.Equal(dec("10")) {
		t.Errorf("quantity = %s, want 10", rec.Quantity)
	}
	if len(f.log.entries) != 2 {
		t.Fatalf("log entries = %d, want 2", len(f.log.entries))
	}
	if f.log.entries[0].Action != domain.ActionInsert || f.log.entries[1].Action != domain.ActionUpdate {
		t.Errorf("actions = %q, %q, want insert, update", f.log.entries[0].Action, f.log.entries[1].Action)
	}
}

func TestApplyMutationConflictPropagates(t *testing.T) {
	f := newFixture()
	f.tx.txErr = domain.ErrMutationConflict

	_, err := f.uc.ApplyMutation(context.Background(), MutationInput{
		LocationID: "W1",
		ItemName:   "WIDGET",
		Change:     domain.SetQuantity(dec("1")),
	})
	if !errors.Is(err, domain.ErrMutationConflict) {
		t.Errorf("ApplyMutation() error = %v, want ErrMutationConflict", err)
	}
}

func TestApplyMutationIdempotencyKey(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	input := MutationInput{
		LocationID:     "W1",
		ItemName:       "WIDGET",
		Change:         domain.AdjustQuantity(dec("10")),
		IdempotencyKey: "req-1",
	}

	if _, err := f.uc.ApplyMutation(ctx, input); err != nil {
		t.Fatalf("first call: unexpected error: %v", err)
	}

	// Replay with the same key returns the committed record without a
	// second log entry or a second adjustment.
	rec, err := f.uc.ApplyMutation(ctx, input)
	if err != nil {
		t.Fatalf("replay: unexpected error: %v", err)
	}
	if !rec.Quantity.Equal(dec("10")) {
		t.Errorf("replay: quantity = %s, want 10", rec.Quantity)
	}
	if len(f.log.entries) != 1 {
		t.Errorf("replay: log entries = %d, want 1", len(f.log.entries))
	}
}

func TestApplyMutationIdempotencyInFlight(t *testing.T) {
	f := newFixture()
	f.idem.values["req-1"] = mutationInFlight

	_, err := f.uc.ApplyMutation(context.Background(), MutationInput{
		LocationID:     "W1",
		ItemName:       "WIDGET",
		Change:         domain.SetQuantity(dec("1")),
		IdempotencyKey: "req-1",
	})
	if !errors.Is(err, domain.ErrIdempotencyInFlight) {
		t.Errorf("ApplyMutation() error = %v, want ErrIdempotencyInFlight", err)
	}
}

func TestApplyMutationReleasesKeyOnFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.uc.ApplyMutation(ctx, MutationInput{
		LocationID:     "W1",
		ItemName:       "WIDGET",
		Change:         domain.AdjustQuantity(dec("-5")),
		IdempotencyKey: "req-1",
	})
	if !errors.Is(err, domain.ErrNegativeQuantity) {
		t.Fatalf("ApplyMutation() error = %v, want ErrNegativeQuantity", err)
	}

	// The key must be free for a corrected retry.
	if _, err := f.uc.ApplyMutation(ctx, MutationInput{
		LocationID:     "W1",
		ItemName:       "WIDGET",
		Change:         domain.AdjustQuantity(dec("5")),
		IdempotencyKey: "req-1",
	}); err != nil {
		t.Errorf("retry after failure: unexpected error: %v", err)
	}
}

func TestQueryLogValidatesFilter(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	_, err := f.uc.QueryLog(context.Background(), domain.LogFilter{From: now, To: now.Add(-time.Minute)})
	if !errors.Is(err, domain.ErrInvalidTimeRange) {
		t.Errorf("QueryLog() error = %v, want ErrInvalidTimeRange", err)
	}
}

func TestShortageReportRejectsNegativeThreshold(t *testing.T) {
	f := newFixture()

	_, err := f.uc.ShortageReport(context.Background(), dec("-1"))
	if !errors.Is(err, domain.ErrNegativeThreshold) {
		t.Errorf("ShortageReport() error = %v, want ErrNegativeThreshold", err)
	}
}

func TestCreateLocationValidation(t *testing.T) {
	f := newFixture()

	if err := f.uc.CreateLocation(context.Background(), " "); !errors.Is(err, domain.ErrEmptyLocationID) {
		t.Errorf("CreateLocation() error = %v, want ErrEmptyLocationID", err)
	}
}
