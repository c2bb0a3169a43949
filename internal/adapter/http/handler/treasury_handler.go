package handler

import (
	"net/http"

	"github.com/iho/oilledger/internal/adapter/http/dto"
	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

// TreasuryHandler handles treasury postings.
type TreasuryHandler struct {
	treasury treasuryService
}

// NewTreasuryHandler creates a new TreasuryHandler.
func NewTreasuryHandler(treasury treasuryService) *TreasuryHandler {
	return &TreasuryHandler{treasury: treasury}
}

// Post records a treasury movement and applies its balance effect.
func (h *TreasuryHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req dto.PostTreasuryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	movement, err := h.treasury.Post(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to post treasury movement", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TreasuryMovementFromDomain(movement))
}

// List lists treasury movements with income and expense totals.
func (h *TreasuryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	list, err := h.treasury.List(r.Context(), usecase.TreasuryFilter{
		ClientID:        q.Get("client_id"),
		DriverID:        q.Get("driver_id"),
		TransactionType: domain.TransactionType(q.Get("transaction_type")),
		Limit:           parseIntQuery(r, "limit", 20),
		Offset:          parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, r, "failed to list treasury movements", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TreasuryListFromResult(list))
}
