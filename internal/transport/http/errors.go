package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lsei27/cater-sklad-sub000/internal/domain"
)

const (
	codeNotFound              = "not_found"
	codeEventNotFound         = "event_not_found"
	codeItemNotFound          = "item_not_found"
	codeInvalidRequestBody    = "invalid_request_body"
	codeInvalidID             = "invalid_id"
	codeInvalidQuantity       = "invalid_quantity"
	codeDuplicateItem         = "duplicate_item"
	codeNoItems               = "no_items"
	codeNameRequired          = "name_required"
	codeInvalidWindow         = "invalid_window"
	codeInvalidReturnDelay    = "invalid_return_delay"
	codeInvalidReason         = "invalid_reason"
	codeIdempotencyRequired   = "idempotency_key_required"
	codeEventReadOnly         = "event_read_only"
	codeEventCancelled        = "event_cancelled"
	codeEventNotIssued        = "event_not_issued"
	codeNothingToExport       = "nothing_to_export"
	codeNoExport              = "no_export"
	codeExportRevisionNeeded  = "export_needs_revision"
	codeInsufficientStock     = "insufficient_stock"
	codeRoleCategoryViolation = "role_category_violation"
	codeInternalError         = "internal_error"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	ItemID    string `json:"item_id,omitempty"`
	Available *int   `json:"available,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorResponse(w, status, errorResponse{Error: msg, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(resp)
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// respondError translates core failures into the HTTP error taxonomy:
// not-found 404, validation 400, policy 403, state and capacity conflicts
// 409. Insufficient-stock responses carry the offending item and the true
// available quantity.
func respondError(w http.ResponseWriter, err error) {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		available := insufficient.Available
		writeErrorResponse(w, http.StatusConflict, errorResponse{
			Error:     insufficient.Error(),
			Code:      codeInsufficientStock,
			ItemID:    insufficient.ItemID,
			Available: &available,
		})
		return
	}
	var roleErr *domain.RoleCategoryError
	if errors.As(err, &roleErr) {
		writeErrorResponse(w, http.StatusForbidden, errorResponse{
			Error:  roleErr.Error(),
			Code:   codeRoleCategoryViolation,
			ItemID: roleErr.ItemID,
		})
		return
	}

	status, code := http.StatusInternalServerError, codeInternalError
	switch {
	case errors.Is(err, domain.ErrEventNotFound):
		status, code = http.StatusNotFound, codeEventNotFound
	case errors.Is(err, domain.ErrItemNotFound):
		status, code = http.StatusNotFound, codeItemNotFound
	case errors.Is(err, domain.ErrInvalidID):
		status, code = http.StatusBadRequest, codeInvalidID
	case errors.Is(err, domain.ErrInvalidQuantity):
		status, code = http.StatusBadRequest, codeInvalidQuantity
	case errors.Is(err, domain.ErrDuplicateItem):
		status, code = http.StatusBadRequest, codeDuplicateItem
	case errors.Is(err, domain.ErrNoItems):
		status, code = http.StatusBadRequest, codeNoItems
	case errors.Is(err, domain.ErrNameRequired):
		status, code = http.StatusBadRequest, codeNameRequired
	case errors.Is(err, domain.ErrInvalidWindow):
		status, code = http.StatusBadRequest, codeInvalidWindow
	case errors.Is(err, domain.ErrInvalidReturnDelay):
		status, code = http.StatusBadRequest, codeInvalidReturnDelay
	case errors.Is(err, domain.ErrInvalidReason):
		status, code = http.StatusBadRequest, codeInvalidReason
	case errors.Is(err, domain.ErrIdempotencyKeyRequired):
		status, code = http.StatusBadRequest, codeIdempotencyRequired
	case errors.Is(err, domain.ErrEventReadOnly):
		status, code = http.StatusConflict, codeEventReadOnly
	case errors.Is(err, domain.ErrEventCancelled):
		status, code = http.StatusConflict, codeEventCancelled
	case errors.Is(err, domain.ErrEventNotIssued):
		status, code = http.StatusConflict, codeEventNotIssued
	case errors.Is(err, domain.ErrNothingToExport):
		status, code = http.StatusConflict, codeNothingToExport
	case errors.Is(err, domain.ErrNoExport):
		status, code = http.StatusConflict, codeNoExport
	case errors.Is(err, domain.ErrExportRevisionNeeded):
		status, code = http.StatusConflict, codeExportRevisionNeeded
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeError(w, status, code, msg)
}
