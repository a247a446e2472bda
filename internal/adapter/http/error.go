package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/SurMis1/locofly-inventory/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors to HTTP status codes. Validation failures are
// 400 (fix your input), conflicts are 409 (retry the operation), and anything
// unrecognized becomes an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	var status int
	message := err.Error()

	switch {
	case errors.Is(err, domain.ErrBarcodeNotFound),
		errors.Is(err, domain.ErrRecordNotFound):
		status = http.StatusNotFound

	case errors.Is(err, domain.ErrEmptyBarcode),
		errors.Is(err, domain.ErrEmptyLocationID),
		errors.Is(err, domain.ErrEmptyItemName),
		errors.Is(err, domain.ErrNegativeQuantity),
		errors.Is(err, domain.ErrInvalidChange),
		errors.Is(err, domain.ErrInvalidTimeRange),
		errors.Is(err, domain.ErrNegativeThreshold):
		status = http.StatusBadRequest

	case errors.Is(err, domain.ErrMutationConflict),
		errors.Is(err, domain.ErrIdempotencyInFlight),
		errors.Is(err, domain.ErrIdempotencyKeyExists):
		status = http.StatusConflict

	default:
		status = http.StatusInternalServerError
		message = "internal server error"
	}

	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
