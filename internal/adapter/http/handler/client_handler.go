package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/oilledger/internal/adapter/http/dto"
)

// ClientHandler handles client-related HTTP requests.
type ClientHandler struct {
	clients    clientService
	statements statementService
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(clients clientService, statements statementService) *ClientHandler {
	return &ClientHandler{clients: clients, statements: statements}
}

// Create creates a new client.
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateClientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	client, err := h.clients.CreateClient(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to create client", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ClientFromDomain(client))
}

// Get retrieves a client by ID.
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	client, err := h.clients.GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get client", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ClientFromDomain(client))
}

// List lists clients.
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	clients, err := h.clients.ListClients(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, r, "failed to list clients", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ClientsFromDomain(clients))
}

// Update edits a client's profile.
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateClientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	client, err := h.clients.UpdateClient(r.Context(), chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to update client", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ClientFromDomain(client))
}

// AdjustBalance sets a client's balance to an absolute value.
func (h *ClientHandler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	var req dto.AdjustBalanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	change, err := h.clients.AdjustBalance(r.Context(), chi.URLParam(r, "id"), req.Balance, req.Note)
	if err != nil {
		writeDomainError(w, r, "failed to adjust balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceChangeFromResult(change))
}

// Statement returns the client's account statement.
func (h *ClientHandler) Statement(w http.ResponseWriter, r *http.Request) {
	statement, err := h.statements.ClientStatement(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to build statement", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.StatementFromDomain(statement))
}
