package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lsei27/cater-sklad-sub000/internal/app"
)

// Reserver is the minimal interface needed to place reservations.
type Reserver interface {
	Reserve(ctx context.Context, eventID string, actor app.Actor, lines []app.ReserveLine) (app.ReserveResult, error)
}

// HandleReserve runs the reservation protocol for one event. The whole
// batch succeeds or fails together.
func HandleReserve(svc Reserver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "id")

		var req reserveRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		lines := make([]app.ReserveLine, 0, len(req.Items))
		for _, it := range req.Items {
			lines = append(lines, app.ReserveLine{ItemID: it.ItemID, Quantity: it.Quantity})
		}

		result, err := svc.Reserve(r.Context(), eventID, actorFrom(r), lines)
		if err != nil {
			respondError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, reserveResponse{
			State:     string(result.State),
			ExpiresAt: result.ExpiresAt,
		})
	}
}

type reserveRequest struct {
	Items []reserveItem `json:"items"`
}

type reserveItem struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type reserveResponse struct {
	State     string     `json:"state"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
