package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SurMis1/locofly-inventory/internal/domain"
	"github.com/SurMis1/locofly-inventory/internal/usecase"
)

type Handler struct {
	inventoryUC usecase.InventoryUseCase
	barcodeUC   usecase.BarcodeUseCase
	logger      *slog.Logger
}

func NewHandler(inventoryUC usecase.InventoryUseCase, barcodeUC usecase.BarcodeUseCase, logger *slog.Logger) *Handler {
	return &Handler{
		inventoryUC: inventoryUC,
		barcodeUC:   barcodeUC,
		logger:      logger,
	}
}

// Router returns an http.Handler with all inventory routes configured.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// Barcode master and picker lookups
	mux.HandleFunc("GET /v1/barcodes", h.handleListBarcodes)
	mux.HandleFunc("GET /v1/barcodes/{barcode}", h.handleResolveBarcode)
	mux.HandleFunc("GET /v1/items/{item}/locations", h.handleItemLocations)

	// Locations and records
	mux.HandleFunc("GET /v1/locations", h.handleListLocations)
	mux.HandleFunc("POST /v1/locations", h.handleCreateLocation)
	mux.HandleFunc("GET /v1/locations/{location}/items", h.handleLocationItems)
	mux.HandleFunc("GET /v1/locations/{location}/items/{item}", h.handleGetRecord)
	mux.HandleFunc("POST /v1/locations/{location}/mutations", h.handleApplyMutation)

	// Change log and reporting
	mux.HandleFunc("GET /v1/log", h.handleQueryLog)
	mux.HandleFunc("GET /v1/shortages", h.handleShortages)

	return mux
}

type recordResponse struct {
	LocationID string          `json:"location_id"`
	ItemName   string          `json:"item_name"`
	Quantity   decimal.Decimal `json:"quantity"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func toRecordResponse(rec *domain.InventoryRecord) recordResponse {
	return recordResponse{
		LocationID: rec.LocationID,
		ItemName:   rec.ItemName,
		Quantity:   rec.Quantity,
		UpdatedAt:  rec.UpdatedAt,
	}
}

func toRecordResponses(recs []*domain.InventoryRecord) []recordResponse {
	out := make([]recordResponse, len(recs))
	for i, rec := range recs {
		out[i] = toRecordResponse(rec)
	}
	return out
}

func (h *Handler) handleListBarcodes(w http.ResponseWriter, r *http.Request) {
	entries, err := h.barcodeUC.ListBarcodes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	type barcodeResponse struct {
		Barcode  string `json:"barcode"`
		ItemName string `json:"item_name"`
	}
	out := make([]barcodeResponse, len(entries))
	for i, entry := range entries {
		out[i] = barcodeResponse{Barcode: entry.Barcode, ItemName: entry.ItemName}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleResolveBarcode(w http.ResponseWriter, r *http.Request) {
	itemName, err := h.barcodeUC.Resolve(r.Context(), r.PathValue("barcode"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"item_name": itemName})
}

func (h *Handler) handleItemLocations(w http.ResponseWriter, r *http.Request) {
	records, err := h.barcodeUC.ItemLocations(r.Context(), r.PathValue("item"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordResponses(records))
}

func (h *Handler) handleListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.inventoryUC.ListLocations(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{"locations": locations})
}

func (h *Handler) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LocationID string `json:"location_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := h.inventoryUC.CreateLocation(r.Context(), req.LocationID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"location_id": req.LocationID})
}

func (h *Handler) handleLocationItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventoryUC.LocationItems(r.Context(), r.PathValue("location"))
	if err != nil {
		writeError(w, err)
		return
	}

	type itemResponse struct {
		ItemName  string          `json:"item_name"`
		Quantity  decimal.Decimal `json:"quantity"`
		UpdatedAt time.Time       `json:"updated_at"`
		Barcode   *string         `json:"barcode,omitempty"`
	}
	out := make([]itemResponse, len(items))
	for i, item := range items {
		out[i] = itemResponse{
			ItemName:  item.ItemName,
			Quantity:  item.Quantity,
			UpdatedAt: item.UpdatedAt,
			Barcode:   item.Barcode,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.inventoryUC.GetRecord(r.Context(), r.PathValue("location"), r.PathValue("item"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordResponse(rec))
}

type mutationRequest struct {
	ItemName       string           `json:"item_name"`
	Barcode        string           `json:"barcode"`
	Type           string           `json:"type"`
	Quantity       *decimal.Decimal `json:"quantity"`
	Delta          *decimal.Decimal `json:"delta"`
	IdempotencyKey string           `json:"idempotency_key"`
}

func (req *mutationRequest) change() (domain.Change, error) {
	switch req.Type {
	case "set":
		if req.Quantity == nil {
			return domain.Change{}, errors.New("'quantity' is required for type 'set'")
		}
		return domain.SetQuantity(*req.Quantity), nil
	case "adjust":
		if req.Delta == nil {
			return domain.Change{}, errors.New("'delta' is required for type 'adjust'")
		}
		return domain.AdjustQuantity(*req.Delta), nil
	case "remove":
		return domain.Remove(), nil
	default:
		return domain.Change{}, errors.New("'type' must be one of set, adjust, remove")
	}
}

func (h *Handler) handleApplyMutation(w http.ResponseWriter, r *http.Request) {
	var req mutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	change, err := req.change()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	rec, err := h.inventoryUC.ApplyMutation(r.Context(), usecase.MutationInput{
		LocationID:     r.PathValue("location"),
		ItemName:       req.ItemName,
		Barcode:        req.Barcode,
		Change:         change,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordResponse(rec))
}

type logEntryResponse struct {
	ID          int64            `json:"id"`
	LocationID  string           `json:"location_id"`
	ItemName    string           `json:"item_name"`
	OldQuantity *decimal.Decimal `json:"old_quantity"`
	NewQuantity decimal.Decimal  `json:"new_quantity"`
	Action      string           `json:"action"`
	ActionTime  time.Time        `json:"action_time"`
}

func (h *Handler) handleQueryLog(w http.ResponseWriter, r *http.Request) {
	filter := domain.LogFilter{
		LocationID: r.URL.Query().Get("location"),
		ItemName:   r.URL.Query().Get("item"),
	}

	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "'from' must be an RFC 3339 timestamp"})
			return
		}
		filter.From = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "'to' must be an RFC 3339 timestamp"})
			return
		}
		filter.To = t
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "'limit' must be a positive integer"})
			return
		}
		filter.Limit = limit
	}

	entries, err := h.inventoryUC.QueryLog(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]logEntryResponse, len(entries))
	for i, entry := range entries {
		out[i] = logEntryResponse{
			ID:          entry.ID,
			LocationID:  entry.LocationID,
			ItemName:    entry.ItemName,
			OldQuantity: entry.OldQuantity,
			NewQuantity: entry.NewQuantity,
			Action:      string(entry.Action),
			ActionTime:  entry.ActionTime,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleShortages(w http.ResponseWriter, r *http.Request) {
	threshold := decimal.NewFromInt(1)
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		t, err := decimal.NewFromString(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "'threshold' must be a number"})
			return
		}
		threshold = t
	}

	records, err := h.inventoryUC.ShortageReport(r.Context(), threshold)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordResponses(records))
}
