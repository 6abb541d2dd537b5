package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Services bundles everything the router needs.
type Services struct {
	Availability AvailabilityReader
	Reservations Reserver
	Lifecycle    LifecycleRunner
	Admin        AdminAPI
	Ledger       LedgerAPI
}

// NewRouter wires all routes and middleware.
func NewRouter(svcs Services, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", idempotencyHeader, actorIDHeader, actorRoleHeader},
	}))

	r.Get("/health", HealthHandler)

	r.Route("/events", func(r chi.Router) {
		r.Get("/", HandleListEvents(svcs.Admin))
		r.Post("/", HandleCreateEvent(svcs.Admin))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", HandleGetEvent(svcs.Admin))
			r.Get("/availability", HandleAvailability(svcs.Availability))
			r.Post("/reserve", HandleReserve(svcs.Reservations))
			r.Post("/confirm", HandleConfirm(svcs.Lifecycle))
			r.Post("/export", HandleExport(svcs.Lifecycle))
			r.Post("/issue", HandleIssue(svcs.Lifecycle))
			r.Post("/close", HandleClose(svcs.Lifecycle))
			r.Post("/cancel", HandleCancel(svcs.Lifecycle))
		})
	})

	r.Route("/items", func(r chi.Router) {
		r.Get("/", HandleListItems(svcs.Admin))
		r.Post("/", HandleCreateItem(svcs.Admin))
		r.Post("/{id}/adjustments", HandlePostAdjustment(svcs.Ledger))
		r.Get("/{id}/ledger", HandleListLedger(svcs.Ledger))
	})

	r.Post("/categories", HandleCreateCategory(svcs.Admin))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})

	return r
}
