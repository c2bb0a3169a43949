package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/oilledger/internal/adapter/http/dto"
)

// OilTypeHandler handles the oil type catalogue.
type OilTypeHandler struct {
	oilTypes oilTypeService
}

// NewOilTypeHandler creates a new OilTypeHandler.
func NewOilTypeHandler(oilTypes oilTypeService) *OilTypeHandler {
	return &OilTypeHandler{oilTypes: oilTypes}
}

// Create creates a new oil type.
func (h *OilTypeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateOilTypeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	oilType, err := h.oilTypes.CreateOilType(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to create oil type", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.OilTypeFromDomain(oilType))
}

// Get retrieves an oil type by ID.
func (h *OilTypeHandler) Get(w http.ResponseWriter, r *http.Request) {
	oilType, err := h.oilTypes.GetOilType(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get oil type", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.OilTypeFromDomain(oilType))
}

// Update edits an oil type.
func (h *OilTypeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateOilTypeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	oilType, err := h.oilTypes.UpdateOilType(r.Context(), chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to update oil type", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.OilTypeFromDomain(oilType))
}

// List lists oil types.
func (h *OilTypeHandler) List(w http.ResponseWriter, r *http.Request) {
	oilTypes, err := h.oilTypes.ListOilTypes(r.Context(), parseIntQuery(r, "limit", 20), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, r, "failed to list oil types", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.OilTypesFromDomain(oilTypes))
}
