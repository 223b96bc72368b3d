package notify

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"facilitybooking/internal/api"
)

type Handlers struct {
	Store *Repository
}

// List returns the caller's notifications, newest first.
func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}

	items, err := h.Store.ListByAccount(r.Context(), actor.AccountID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if items == nil {
		items = []Notification{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

// MarkRead flips one of the caller's notifications to READ. Marking someone
// else's notification is a silent no-op by the owner scope on the update.
func (h Handlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	if err := h.Store.MarkRead(r.Context(), actor.AccountID, id); err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"status": StatusRead})
}
