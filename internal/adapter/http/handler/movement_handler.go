package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/oilledger/internal/adapter/http/dto"
	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

// MovementHandler handles vehicle movement requests.
type MovementHandler struct {
	movements movementService
}

// NewMovementHandler creates a new MovementHandler.
func NewMovementHandler(movements movementService) *MovementHandler {
	return &MovementHandler{movements: movements}
}

// Create records a vehicle movement.
func (h *MovementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.MovementRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.movements.CreateMovement(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to create vehicle movement", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.MovementWriteFromResult(result))
}

// Update edits a movement. Internal movements push the shared fields back to
// their sale or purchase.
func (h *MovementHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.MovementRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.movements.UpdateMovement(r.Context(), chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to update vehicle movement", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MovementWriteFromResult(result))
}

// Delete removes an external movement.
func (h *MovementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.movements.DeleteMovement(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, "failed to delete vehicle movement", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get retrieves a movement by ID.
func (h *MovementHandler) Get(w http.ResponseWriter, r *http.Request) {
	movement, err := h.movements.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get vehicle movement", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MovementFromDomain(movement))
}

// List lists movements filtered by type and driver.
func (h *MovementHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	movements, err := h.movements.List(r.Context(), usecase.MovementFilter{
		Type:     domain.MovementType(q.Get("type")),
		DriverID: q.Get("driver_id"),
		Limit:    parseIntQuery(r, "limit", 20),
		Offset:   parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, r, "failed to list vehicle movements", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MovementsFromDomain(movements))
}

// EstimateFreight quotes freight for a quantity at the configured rate.
func (h *MovementHandler) EstimateFreight(w http.ResponseWriter, r *http.Request) {
	quantity, err := parseDecimalQuery(r, "quantity")
	if err != nil {
		writeDomainError(w, r, "invalid quantity", err)
		return
	}

	freight, err := h.movements.EstimateFreight(quantity)
	if err != nil {
		writeDomainError(w, r, "failed to estimate freight", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.FreightEstimateResponse{
		Quantity: quantity,
		Rate:     h.movements.FreightRate(),
		Freight:  freight,
	})
}
