package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/oilledger/internal/adapter/http/dto"
	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

// CommerceHandler serves one kind of commerce record, sales or purchases.
type CommerceHandler struct {
	commerce commerceService
	kind     domain.OperationType
}

// NewSaleHandler creates a CommerceHandler for sales.
func NewSaleHandler(commerce commerceService) *CommerceHandler {
	return &CommerceHandler{commerce: commerce, kind: domain.OperationSale}
}

// NewPurchaseHandler creates a CommerceHandler for purchases.
func NewPurchaseHandler(commerce commerceService) *CommerceHandler {
	return &CommerceHandler{commerce: commerce, kind: domain.OperationPurchase}
}

func (h *CommerceHandler) create(ctx context.Context, input usecase.CommerceInput) (*usecase.CommerceResult, error) {
	if h.kind == domain.OperationPurchase {
		return h.commerce.CreatePurchase(ctx, input)
	}
	return h.commerce.CreateSale(ctx, input)
}

func (h *CommerceHandler) update(ctx context.Context, id string, input usecase.CommerceInput) (*usecase.CommerceResult, error) {
	if h.kind == domain.OperationPurchase {
		return h.commerce.UpdatePurchase(ctx, id, input)
	}
	return h.commerce.UpdateSale(ctx, id, input)
}

func (h *CommerceHandler) delete(ctx context.Context, id string) error {
	if h.kind == domain.OperationPurchase {
		return h.commerce.DeletePurchase(ctx, id)
	}
	return h.commerce.DeleteSale(ctx, id)
}

// Create records a new sale or purchase and its internal movement.
func (h *CommerceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CommerceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.create(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to create "+string(h.kind), err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CommerceWriteFromResult(result))
}

// Update edits a record and propagates the shared fields to its movement.
func (h *CommerceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.CommerceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.update(r.Context(), chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to update "+string(h.kind), err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CommerceWriteFromResult(result))
}

// Delete removes a record together with its internal movement.
func (h *CommerceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, "failed to delete "+string(h.kind), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get retrieves a record by ID.
func (h *CommerceHandler) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.commerce.Get(r.Context(), h.kind, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get "+string(h.kind), err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CommerceFromDomain(record))
}

// List lists records, optionally for one client.
func (h *CommerceHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.commerce.List(r.Context(), usecase.CommerceFilter{
		Kind:     h.kind,
		ClientID: r.URL.Query().Get("client_id"),
		Limit:    parseIntQuery(r, "limit", 20),
		Offset:   parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, r, "failed to list "+string(h.kind)+"s", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CommerceListFromDomain(records))
}
