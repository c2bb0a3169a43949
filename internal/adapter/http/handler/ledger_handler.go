package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/oilledger/internal/adapter/http/dto"
	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

// LedgerHandler exposes the balance ledger, its verification and the
// identifier sequences.
type LedgerHandler struct {
	ledger         ledgerService
	reconciliation reconciliationService
	sequences      sequenceService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledger ledgerService, reconciliation reconciliationService, sequences sequenceService) *LedgerHandler {
	return &LedgerHandler{
		ledger:         ledger,
		reconciliation: reconciliation,
		sequences:      sequences,
	}
}

// ApplyChange applies a signed delta to one balance.
func (h *LedgerHandler) ApplyChange(w http.ResponseWriter, r *http.Request) {
	var req dto.BalanceChangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	change, err := h.ledger.ApplyChange(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to apply balance change", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.BalanceChangeFromResult(change))
}

// SubjectLogs returns a handler listing the change log of the subject named
// by the {id} URL parameter.
func (h *LedgerHandler) SubjectLogs(subjectType domain.SubjectType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logs, err := h.ledger.ListLogs(r.Context(), usecase.ListLogsInput{
			Subject: domain.Subject{Type: subjectType, ID: chi.URLParam(r, "id")},
			Limit:   parseIntQuery(r, "limit", 50),
			Offset:  parseIntQuery(r, "offset", 0),
		})
		if err != nil {
			writeDomainError(w, r, "failed to list balance logs", err)
			return
		}

		writeJSON(w, http.StatusOK, dto.BalanceLogsFromDomain(logs))
	}
}

// Verify replays every balance chain and reports discrepancies.
func (h *LedgerHandler) Verify(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciliation.VerifyAll(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to verify ledger", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromReport(report))
}

// NextID allocates the next identifier of a series.
func (h *LedgerHandler) NextID(w http.ResponseWriter, r *http.Request) {
	prefix := chi.URLParam(r, "prefix")

	id, err := h.sequences.Allocate(r.Context(), prefix)
	if err != nil {
		writeDomainError(w, r, "failed to allocate identifier", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.SequenceResponse{Prefix: prefix, ID: id})
}
