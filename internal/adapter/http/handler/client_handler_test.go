package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/oilledger/internal/adapter/http/dto"
	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/usecase"
)

type clientServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateClientInput) (*domain.Client, error)
	getFn    func(ctx context.Context, id string) (*domain.Client, error)
	listFn   func(ctx context.Context, limit, offset int) ([]*domain.Client, error)
	updateFn func(ctx context.Context, id string, input usecase.UpdateClientInput) (*domain.Client, error)
	adjustFn func(ctx context.Context, id string, target decimal.Decimal, note string) (*usecase.BalanceChange, error)
}

func (s *clientServiceStub) CreateClient(ctx context.Context, input usecase.CreateClientInput) (*domain.Client, error) {
	return s.createFn(ctx, input)
}

func (s *clientServiceStub) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	return s.getFn(ctx, id)
}

func (s *clientServiceStub) ListClients(ctx context.Context, limit, offset int) ([]*domain.Client, error) {
	return s.listFn(ctx, limit, offset)
}

func (s *clientServiceStub) UpdateClient(ctx context.Context, id string, input usecase.UpdateClientInput) (*domain.Client, error) {
	return s.updateFn(ctx, id, input)
}

func (s *clientServiceStub) AdjustBalance(ctx context.Context, id string, target decimal.Decimal, note string) (*usecase.BalanceChange, error) {
	return s.adjustFn(ctx, id, target, note)
}

type statementServiceStub struct {
	fn func(ctx context.Context, clientID string) (*domain.Statement, error)
}

func (s *statementServiceStub) ClientStatement(ctx context.Context, clientID string) (*domain.Statement, error) {
	return s.fn(ctx, clientID)
}

func clientRouter(h *ClientHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/clients", h.Create)
	r.Get("/clients", h.List)
	r.Get("/clients/{id}", h.Get)
	r.Put("/clients/{id}", h.Update)
	r.Put("/clients/{id}/balance", h.AdjustBalance)
	r.Get("/clients/{id}/statement", h.Statement)
	return r
}

func TestClientHandler_Create_Success(t *testing.T) {
	var captured usecase.CreateClientInput
	h := NewClientHandler(&clientServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateClientInput) (*domain.Client, error) {
			captured = input
			return &domain.Client{ID: "CL-001", Name: input.Name, Balance: input.OpeningBalance}, nil
		},
	}, nil)

	body, _ := json.Marshal(dto.CreateClientRequest{Name: "Delta Fuel", OpeningBalance: decimal.NewFromInt(100)})
	req := httptest.NewRequest(http.MethodPost, "/clients", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	clientRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Name != "Delta Fuel" || !captured.OpeningBalance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.ClientResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "CL-001" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestClientHandler_Create_InvalidBody(t *testing.T) {
	h := NewClientHandler(&clientServiceStub{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/clients", strings.NewReader("{"))
	rec := httptest.NewRecorder()

	clientRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestClientHandler_Create_ValidationError(t *testing.T) {
	h := NewClientHandler(&clientServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateClientInput) (*domain.Client, error) {
			return nil, domain.NewValidationError("name", "is required")
		},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/clients", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	clientRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestClientHandler_Get_NotFound(t *testing.T) {
	var gotID string
	h := NewClientHandler(&clientServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Client, error) {
			gotID = id
			return nil, domain.ErrClientNotFound
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/clients/CL-404", nil)
	rec := httptest.NewRecorder()

	clientRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound || gotID != "CL-404" {
		t.Fatalf("expected 404 for CL-404, got %d for %q", rec.Code, gotID)
	}
}

func TestClientHandler_List_PassesPagination(t *testing.T) {
	var gotLimit, gotOffset int
	h := NewClientHandler(&clientServiceStub{
		listFn: func(ctx context.Context, limit, offset int) ([]*domain.Client, error) {
			gotLimit, gotOffset = limit, offset
			return []*domain.Client{{ID: "CL-001"}, {ID: "CL-002"}}, nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/clients?limit=5&offset=10", nil)
	rec := httptest.NewRecorder()

	clientRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || gotLimit != 5 || gotOffset != 10 {
		t.Fatalf("unexpected list call: status=%d limit=%d offset=%d", rec.Code, gotLimit, gotOffset)
	}

	var resp []dto.ClientResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || len(resp) != 2 {
		t.Fatalf("unexpected body %s (%v)", rec.Body.String(), err)
	}
}

func TestClientHandler_Update(t *testing.T) {
	h := NewClientHandler(&clientServiceStub{
		updateFn: func(ctx context.Context, id string, input usecase.UpdateClientInput) (*domain.Client, error) {
			return &domain.Client{ID: id, Name: input.Name}, nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodPut, "/clients/CL-003", strings.NewReader(`{"name":"Renamed"}`))
	rec := httptest.NewRecorder()

	clientRouter(h).ServeHTTP(rec, req)

	var resp dto.ClientResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if rec.Code != http.StatusOK || resp.ID != "CL-003" || resp.Name != "Renamed" {
		t.Fatalf("unexpected update response %d %+v", rec.Code, resp)
	}
}

func TestClientHandler_AdjustBalance(t *testing.T) {
	var gotTarget decimal.Decimal
	var gotNote string
	h := NewClientHandler(&clientServiceStub{
		adjustFn: func(ctx context.Context, id string, target decimal.Decimal, note string) (*usecase.BalanceChange, error) {
			gotTarget, gotNote = target, note
			return &usecase.BalanceChange{Previous: decimal.NewFromInt(10), New: target}, nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodPut, "/clients/CL-001/balance", strings.NewReader(`{"balance":"250.75","note":"audit"}`))
	rec := httptest.NewRecorder()

	clientRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !gotTarget.Equal(decimal.RequireFromString("250.75")) || gotNote != "audit" {
		t.Fatalf("unexpected adjust call %s %q", gotTarget, gotNote)
	}
}

func TestClientHandler_Statement(t *testing.T) {
	h := NewClientHandler(nil, &statementServiceStub{
		fn: func(ctx context.Context, clientID string) (*domain.Statement, error) {
			return &domain.Statement{ClientID: clientID, FinalBalance: decimal.NewFromInt(42)}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/clients/CL-009/statement", nil)
	rec := httptest.NewRecorder()

	clientRouter(h).ServeHTTP(rec, req)

	var resp dto.StatementResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if rec.Code != http.StatusOK || resp.ClientID != "CL-009" || !resp.FinalBalance.Equal(decimal.NewFromInt(42)) {
		t.Fatalf("unexpected statement response %d %+v", rec.Code, resp)
	}
}
