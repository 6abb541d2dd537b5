package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lsei27/cater-sklad-sub000/internal/app"
	"github.com/lsei27/cater-sklad-sub000/internal/domain"
)

// LifecycleRunner drives event status transitions.
type LifecycleRunner interface {
	Confirm(ctx context.Context, eventID string) (domain.Event, error)
	Export(ctx context.Context, eventID string, actor app.Actor) (app.ExportResult, error)
	Issue(ctx context.Context, eventID string, actor app.Actor, idempotencyKey string, lines []app.IssueLine) (app.IssueResult, error)
	ReturnAndClose(ctx context.Context, eventID string, actor app.Actor, idempotencyKey string, lines []app.ReturnLine) (app.CloseResult, error)
	Cancel(ctx context.Context, eventID string) (domain.Event, error)
}

// HandleConfirm flips the event's draft reservations to confirmed.
func HandleConfirm(svc LifecycleRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := svc.Confirm(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, eventStatusResponse{ID: event.ID, Status: string(event.Status)})
	}
}

// HandleExport snapshots confirmed reservations for the warehouse.
func HandleExport(svc LifecycleRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.Export(r.Context(), chi.URLParam(r, "id"), actorFrom(r))
		if err != nil {
			respondError(w, err)
			return
		}

		resp := exportResponse{
			EventID:   result.Export.EventID,
			Version:   result.Export.Version,
			CreatedAt: result.Export.CreatedAt,
		}
		for _, l := range result.Lines {
			resp.Lines = append(resp.Lines, exportLine{ItemID: l.ItemID, Quantity: l.Quantity})
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

// HandleIssue marks exported stock as handed out.
func HandleIssue(svc LifecycleRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(idempotencyHeader)
		if key == "" {
			writeError(w, http.StatusBadRequest, codeIdempotencyRequired, domain.ErrIdempotencyKeyRequired.Error())
			return
		}

		var req issueRequest
		if err := decodeOptionalBody(r.Body, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		lines := make([]app.IssueLine, 0, len(req.Items))
		for _, it := range req.Items {
			lines = append(lines, app.IssueLine{ItemID: it.ItemID, Quantity: it.Quantity})
		}

		result, err := svc.Issue(r.Context(), chi.URLParam(r, "id"), actorFrom(r), key, lines)
		if err != nil {
			respondError(w, err)
			return
		}

		resp := issueResponse{Status: string(domain.StatusIssued)}
		for _, rec := range result.Issued {
			resp.Issued = append(resp.Issued, issueItem{ItemID: rec.ItemID, Quantity: rec.Quantity})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleClose records returns and closes the event.
func HandleClose(svc LifecycleRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(idempotencyHeader)
		if key == "" {
			writeError(w, http.StatusBadRequest, codeIdempotencyRequired, domain.ErrIdempotencyKeyRequired.Error())
			return
		}

		var req closeRequest
		if err := decodeOptionalBody(r.Body, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		lines := make([]app.ReturnLine, 0, len(req.Items))
		for _, it := range req.Items {
			lines = append(lines, app.ReturnLine{ItemID: it.ItemID, Returned: it.Returned, Broken: it.Broken})
		}

		result, err := svc.ReturnAndClose(r.Context(), chi.URLParam(r, "id"), actorFrom(r), key, lines)
		if err != nil {
			respondError(w, err)
			return
		}

		resp := closeResponse{
			Status:        string(domain.StatusClosed),
			AlreadyClosed: result.AlreadyClosed,
		}
		for _, e := range result.Posted {
			resp.Postings = append(resp.Postings, ledgerPosting{
				ItemID: e.ItemID,
				Delta:  e.Delta,
				Reason: string(e.Reason),
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleCancel moves an event to CANCELLED, releasing its claims.
func HandleCancel(svc LifecycleRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := svc.Cancel(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, eventStatusResponse{ID: event.ID, Status: string(event.Status)})
	}
}

// decodeOptionalBody tolerates an empty body; issue and close accept one.
func decodeOptionalBody(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && err != io.EOF {
		return err
	}
	return nil
}

type eventStatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type exportResponse struct {
	EventID   string       `json:"event_id"`
	Version   int          `json:"version"`
	CreatedAt time.Time    `json:"created_at"`
	Lines     []exportLine `json:"lines"`
}

type exportLine struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type issueRequest struct {
	Items []issueItem `json:"items"`
}

type issueItem struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type issueResponse struct {
	Status string      `json:"status"`
	Issued []issueItem `json:"issued,omitempty"`
}

type closeRequest struct {
	Items []closeItem `json:"items"`
}

type closeItem struct {
	ItemID   string `json:"item_id"`
	Returned int    `json:"returned"`
	Broken   int    `json:"broken"`
}

type closeResponse struct {
	Status        string          `json:"status"`
	AlreadyClosed bool            `json:"already_closed"`
	Postings      []ledgerPosting `json:"postings,omitempty"`
}

type ledgerPosting struct {
	ItemID string `json:"item_id"`
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}
