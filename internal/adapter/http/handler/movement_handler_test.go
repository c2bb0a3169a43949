package handler

import (
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

type movementServiceStub struct {
	createFn func(ctx context.Context, input usecase.MovementInput) (*usecase.MovementResult, error)
	updateFn func(ctx context.Context, id string, input usecase.MovementInput) (*usecase.MovementResult, error)
	deleteFn func(ctx context.Context, id string) error
	filter   usecase.MovementFilter
	rate     decimal.Decimal
}

func (s *movementServiceStub) CreateMovement(ctx context.Context, input usecase.MovementInput) (*usecase.MovementResult, error) {
	return s.createFn(ctx, input)
}

func (s *movementServiceStub) UpdateMovement(ctx context.Context, id string, input usecase.MovementInput) (*usecase.MovementResult, error) {
	return s.updateFn(ctx, id, input)
}

func (s *movementServiceStub) DeleteMovement(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func (s *movementServiceStub) Get(ctx context.Context, id string) (*domain.VehicleMovement, error) {
	return nil, domain.ErrMovementNotFound
}

func (s *movementServiceStub) List(ctx context.Context, filter usecase.MovementFilter) ([]*domain.VehicleMovement, error) {
	s.filter = filter
	return nil, nil
}

func (s *movementServiceStub) EstimateFreight(quantity decimal.Decimal) (decimal.Decimal, error) {
	if !quantity.IsPositive() {
		return decimal.Zero, domain.NewValidationError("quantity", "must be greater than zero")
	}
	return quantity.Mul(s.rate), nil
}

func (s *movementServiceStub) FreightRate() decimal.Decimal {
	return s.rate
}

func movementRouter(h *MovementHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/vehicle-movements", h.Create)
	r.Get("/vehicle-movements", h.List)
	r.Get("/vehicle-movements/{id}", h.Get)
	r.Put("/vehicle-movements/{id}", h.Update)
	r.Delete("/vehicle-movements/{id}", h.Delete)
	r.Get("/freight-estimate", h.EstimateFreight)
	return r
}

func TestMovementHandler_Create(t *testing.T) {
	var captured usecase.MovementInput
	h := NewMovementHandler(&movementServiceStub{
		createFn: func(ctx context.Context, input usecase.MovementInput) (*usecase.MovementResult, error) {
			captured = input
			return &usecase.MovementResult{
				Movement: &domain.VehicleMovement{ID: "VEe-001", Type: input.Type, DriverID: input.DriverID},
				Sync:     usecase.SyncSkipped,
			}, nil
		},
	})

	body := `{"movement_type":"external","driver_id":"DR-001","quantity":"8","client_freight":"50"}`
	req := httptest.NewRequest(http.MethodPost, "/vehicle-movements", strings.NewReader(body))
	rec := httptest.NewRecorder()
	movementRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Type != domain.MovementTypeExternal || !captured.ClientFreight.Valid || captured.DriverFreight.Valid {
		t.Fatalf("unexpected input %+v", captured)
	}

	var resp dto.MovementResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.ID != "VEe-001" || resp.Sync != usecase.SyncSkipped {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestMovementHandler_UpdateDuplicateInternal(t *testing.T) {
	h := NewMovementHandler(&movementServiceStub{
		updateFn: func(ctx context.Context, id string, input usecase.MovementInput) (*usecase.MovementResult, error) {
			return nil, domain.NewValidationError("operation_id", "already has an internal movement")
		},
	})

	req := httptest.NewRequest(http.MethodPut, "/vehicle-movements/VEi-002", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	movementRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestMovementHandler_GetNotFound(t *testing.T) {
	h := NewMovementHandler(&movementServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/vehicle-movements/VEi-404", nil)
	rec := httptest.NewRecorder()
	movementRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestMovementHandler_ListByType(t *testing.T) {
	stub := &movementServiceStub{}
	h := NewMovementHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/vehicle-movements?type=internal&driver_id=DR-003", nil)
	rec := httptest.NewRecorder()
	movementRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || stub.filter.Type != domain.MovementTypeInternal || stub.filter.DriverID != "DR-003" {
		t.Fatalf("unexpected list call %d %+v", rec.Code, stub.filter)
	}
}

func TestMovementHandler_EstimateFreight(t *testing.T) {
	h := NewMovementHandler(&movementServiceStub{rate: decimal.NewFromInt(10)})

	req := httptest.NewRequest(http.MethodGet, "/freight-estimate?quantity=2.5", nil)
	rec := httptest.NewRecorder()
	movementRouter(h).ServeHTTP(rec, req)

	var resp dto.FreightEstimateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if rec.Code != http.StatusOK || !resp.Freight.Equal(decimal.NewFromInt(25)) || !resp.Rate.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected estimate %d %+v", rec.Code, resp)
	}

	for _, q := range []string{"", "?quantity=abc", "?quantity=0"} {
		req = httptest.NewRequest(http.MethodGet, "/freight-estimate"+q, nil)
		rec = httptest.NewRecorder()
		movementRouter(h).ServeHTTP(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%q: expected 422, got %d", q, rec.Code)
		}
	}
}

func TestMovementHandler_Delete(t *testing.T) {
	h := NewMovementHandler(&movementServiceStub{
		deleteFn: func(ctx context.Context, id string) error {
			switch id {
			case "VEi-001":
				return domain.ErrInternalMovementDelete
			case "VEe-404":
				return domain.ErrMovementNotFound
			}
			return nil
		},
	})

	tests := []struct {
		id     string
		status int
	}{
		{"VEe-001", http.StatusNoContent},
		{"VEi-001", http.StatusConflict},
		{"VEe-404", http.StatusNotFound},
	}

	for _, tc := range tests {
		rec := httptest.NewRecorder()
		movementRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/vehicle-movements/"+tc.id, nil))
		if rec.Code != tc.status {
			t.Fatalf("DELETE %s: expected %d, got %d", tc.id, tc.status, rec.Code)
		}
	}
}
