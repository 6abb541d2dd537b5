package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lsei27/cater-sklad-sub000/internal/app"
	"github.com/lsei27/cater-sklad-sub000/internal/domain"
)

// AdminAPI maintains reference data (items, categories, events).
type AdminAPI interface {
	CreateCategory(ctx context.Context, in app.CreateCategoryInput) (domain.Category, error)
	CreateItem(ctx context.Context, in app.CreateItemInput) (domain.InventoryItem, error)
	ListItems(ctx context.Context) ([]domain.InventoryItem, error)
	CreateEvent(ctx context.Context, in app.CreateEventInput) (domain.Event, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
}

// LedgerAPI posts and reads manual stock adjustments.
type LedgerAPI interface {
	PostAdjustment(ctx context.Context, in app.AdjustmentInput) (domain.LedgerEntry, error)
	ListLedger(ctx context.Context, itemID string) ([]domain.LedgerEntry, error)
}

func HandleCreateCategory(svc AdminAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCategoryRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		category, err := svc.CreateCategory(r.Context(), app.CreateCategoryInput{
			Name:     req.Name,
			ParentID: req.ParentID,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, categoryResponse{
			ID:       category.ID,
			Name:     category.Name,
			ParentID: category.ParentID,
		})
	}
}

func HandleCreateItem(svc AdminAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createItemRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		item, err := svc.CreateItem(r.Context(), app.CreateItemInput{
			Name:            req.Name,
			Unit:            req.Unit,
			CategoryID:      req.CategoryID,
			ReturnDelayDays: req.ReturnDelayDays,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toItemResponse(item))
	}
}

func HandleListItems(svc AdminAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListItems(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}

		resp := make([]itemResponse, 0, len(items))
		for _, it := range items {
			resp = append(resp, toItemResponse(it))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func HandleCreateEvent(svc AdminAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createEventRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		event, err := svc.CreateEvent(r.Context(), app.CreateEventInput{
			Name:       req.Name,
			Location:   req.Location,
			DeliveryAt: req.DeliveryAt,
			PickupAt:   req.PickupAt,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toEventResponse(event))
	}
}

func HandleListEvents(svc AdminAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := svc.ListEvents(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}

		resp := make([]eventResponse, 0, len(events))
		for _, e := range events {
			resp = append(resp, toEventResponse(e))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func HandleGetEvent(svc AdminAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponse(event))
	}
}

func HandlePostAdjustment(svc LedgerAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req adjustmentRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		entry, err := svc.PostAdjustment(r.Context(), app.AdjustmentInput{
			ItemID: chi.URLParam(r, "id"),
			Delta:  req.Delta,
			Reason: domain.LedgerReason(req.Reason),
			Note:   req.Note,
			Actor:  actorFrom(r),
		})
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toLedgerResponse(entry))
	}
}

func HandleListLedger(svc LedgerAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := svc.ListLedger(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}

		resp := make([]ledgerEntryResponse, 0, len(entries))
		for _, e := range entries {
			resp = append(resp, toLedgerResponse(e))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type createCategoryRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

type categoryResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}

type createItemRequest struct {
	Name            string `json:"name"`
	Unit            string `json:"unit"`
	CategoryID      string `json:"category_id"`
	ReturnDelayDays int    `json:"return_delay_days"`
}

type itemResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Unit            string `json:"unit"`
	CategoryID      string `json:"category_id,omitempty"`
	ReturnDelayDays int    `json:"return_delay_days"`
	Active          bool   `json:"active"`
}

func toItemResponse(it domain.InventoryItem) itemResponse {
	return itemResponse{
		ID:              it.ID,
		Name:            it.Name,
		Unit:            it.Unit,
		CategoryID:      it.CategoryID,
		ReturnDelayDays: it.ReturnDelayDays,
		Active:          it.Active,
	}
}

type createEventRequest struct {
	Name       string    `json:"name"`
	Location   string    `json:"location"`
	DeliveryAt time.Time `json:"delivery_at"`
	PickupAt   time.Time `json:"pickup_at"`
}

type eventResponse struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Location            string    `json:"location,omitempty"`
	DeliveryAt          time.Time `json:"delivery_at"`
	PickupAt            time.Time `json:"pickup_at"`
	Status              string    `json:"status"`
	ExportNeedsRevision bool      `json:"export_needs_revision"`
}

func toEventResponse(e domain.Event) eventResponse {
	return eventResponse{
		ID:                  e.ID,
		Name:                e.Name,
		Location:            e.Location,
		DeliveryAt:          e.DeliveryAt,
		PickupAt:            e.PickupAt,
		Status:              string(e.Status),
		ExportNeedsRevision: e.ExportNeedsRevision,
	}
}

type adjustmentRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
	Note   string `json:"note"`
}

type ledgerEntryResponse struct {
	ID        int64     `json:"id"`
	ItemID    string    `json:"item_id"`
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
	EventID   *string   `json:"event_id,omitempty"`
	CreatedBy string    `json:"created_by,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toLedgerResponse(e domain.LedgerEntry) ledgerEntryResponse {
	return ledgerEntryResponse{
		ID:        e.ID,
		ItemID:    e.ItemID,
		Delta:     e.Delta,
		Reason:    string(e.Reason),
		EventID:   e.EventID,
		CreatedBy: e.CreatedBy,
		Note:      e.Note,
		CreatedAt: e.CreatedAt,
	}
}
