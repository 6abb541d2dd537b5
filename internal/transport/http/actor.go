package http

import (
	"net/http"

	"github.com/lsei27/cater-sklad-sub000/internal/app"
)

const (
	actorIDHeader     = "X-Actor-ID"
	actorRoleHeader   = "X-Actor-Role"
	idempotencyHeader = "Idempotency-Key"
)

// actorFrom reads the caller identity forwarded by the auth layer.
// Authentication itself is out of scope; an empty role is simply
// unrestricted.
func actorFrom(r *http.Request) app.Actor {
	return app.Actor{
		ID:   r.Header.Get(actorIDHeader),
		Role: r.Header.Get(actorRoleHeader),
	}
}
