package http

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/lsei27/cater-sklad-sub000/internal/domain"
)

// AvailabilityReader is the minimal interface needed to answer availability
// queries.
type AvailabilityReader interface {
	AvailabilityBatch(ctx context.Context, eventID string, itemIDs []string) (map[string]domain.Availability, error)
}

// HandleAvailability returns the availability of the requested items from
// the event's point of view.
func HandleAvailability(svc AvailabilityReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "id")

		itemIDs := parseItemIDs(r.URL.Query().Get("items"))
		if len(itemIDs) == 0 {
			writeError(w, http.StatusBadRequest, codeNoItems, "items query parameter is required")
			return
		}

		result, err := svc.AvailabilityBatch(r.Context(), eventID, itemIDs)
		if err != nil {
			respondError(w, err)
			return
		}

		resp := availabilityResponse{EventID: eventID}
		for itemID, av := range result {
			resp.Items = append(resp.Items, itemAvailability{
				ItemID:    itemID,
				Physical:  av.Physical,
				Blocked:   av.Blocked,
				Available: av.Available,
			})
		}
		sort.Slice(resp.Items, func(i, j int) bool { return resp.Items[i].ItemID < resp.Items[j].ItemID })

		writeJSON(w, http.StatusOK, resp)
	}
}

func parseItemIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

type availabilityResponse struct {
	EventID string             `json:"event_id"`
	Items   []itemAvailability `json:"items"`
}

type itemAvailability struct {
	ItemID    string `json:"item_id"`
	Physical  int    `json:"physical"`
	Blocked   int    `json:"blocked"`
	Available int    `json:"available"`
}
