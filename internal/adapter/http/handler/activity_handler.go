package handler

import (
	"net/http"

	"github.com/iho/oilledger/internal/adapter/http/dto"
	"github.com/iho/oilledger/internal/usecase"
)

// ActivityHandler serves the operator activity trail.
type ActivityHandler struct {
	activity activityService
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(activity activityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// List lists activity entries, optionally by actor_id and action.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	entries, err := h.activity.List(r.Context(), usecase.ActivityFilter{
		ActorID: q.Get("actor_id"),
		Action:  q.Get("action"),
		Limit:   parseIntQuery(r, "limit", 50),
		Offset:  parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, r, "failed to list activity", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ActivityFromDomain(entries))
}
