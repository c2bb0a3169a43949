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

type driverServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateDriverInput) (*domain.Driver, error)
	getFn    func(ctx context.Context, id string) (*domain.Driver, error)
	listFn   func(ctx context.Context, limit, offset int) ([]*domain.Driver, error)
	updateFn func(ctx context.Context, id string, input usecase.UpdateDriverInput) (*domain.Driver, error)
}

func (s *driverServiceStub) CreateDriver(ctx context.Context, input usecase.CreateDriverInput) (*domain.Driver, error) {
	return s.createFn(ctx, input)
}

func (s *driverServiceStub) GetDriver(ctx context.Context, id string) (*domain.Driver, error) {
	return s.getFn(ctx, id)
}

func (s *driverServiceStub) ListDrivers(ctx context.Context, limit, offset int) ([]*domain.Driver, error) {
	return s.listFn(ctx, limit, offset)
}

func (s *driverServiceStub) UpdateDriver(ctx context.Context, id string, input usecase.UpdateDriverInput) (*domain.Driver, error) {
	return s.updateFn(ctx, id, input)
}

type oilTypeServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateOilTypeInput) (*domain.OilType, error)
	getFn    func(ctx context.Context, id string) (*domain.OilType, error)
	listFn   func(ctx context.Context, limit, offset int) ([]*domain.OilType, error)
	updateFn func(ctx context.Context, id string, input usecase.UpdateOilTypeInput) (*domain.OilType, error)
}

func (s *oilTypeServiceStub) CreateOilType(ctx context.Context, input usecase.CreateOilTypeInput) (*domain.OilType, error) {
	return s.createFn(ctx, input)
}

func (s *oilTypeServiceStub) GetOilType(ctx context.Context, id string) (*domain.OilType, error) {
	return s.getFn(ctx, id)
}

func (s *oilTypeServiceStub) ListOilTypes(ctx context.Context, limit, offset int) ([]*domain.OilType, error) {
	return s.listFn(ctx, limit, offset)
}

func (s *oilTypeServiceStub) UpdateOilType(ctx context.Context, id string, input usecase.UpdateOilTypeInput) (*domain.OilType, error) {
	return s.updateFn(ctx, id, input)
}

func TestDriverHandler_CreateAndGet(t *testing.T) {
	h := NewDriverHandler(&driverServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateDriverInput) (*domain.Driver, error) {
			if input.VehicleNumber != "TRK-7" || !input.OpeningBalance.Equal(decimal.NewFromInt(-40)) {
				t.Errorf("unexpected input %+v", input)
			}
			return &domain.Driver{ID: "DR-001", Name: input.Name, VehicleNumber: input.VehicleNumber, Balance: input.OpeningBalance}, nil
		},
		getFn: func(ctx context.Context, id string) (*domain.Driver, error) {
			return nil, domain.ErrDriverNotFound
		},
	})

	r := chi.NewRouter()
	r.Post("/drivers", h.Create)
	r.Get("/drivers/{id}", h.Get)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/drivers",
		strings.NewReader(`{"name":"Karim","vehicle_number":"TRK-7","opening_balance":"-40"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.DriverResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "DR-001" || !resp.Balance.Equal(decimal.NewFromInt(-40)) {
		t.Fatalf("unexpected response %+v", resp)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/drivers/DR-404", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDriverHandler_ListPassesPaging(t *testing.T) {
	h := NewDriverHandler(&driverServiceStub{
		listFn: func(ctx context.Context, limit, offset int) ([]*domain.Driver, error) {
			if limit != 5 || offset != 10 {
				t.Errorf("expected limit 5 offset 10, got %d %d", limit, offset)
			}
			return []*domain.Driver{{ID: "DR-011"}}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/drivers?limit=5&offset=10", nil))

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "DR-011") {
		t.Fatalf("unexpected list response %d: %s", rec.Code, rec.Body.String())
	}
}

func TestOilTypeHandler_CreateValidationError(t *testing.T) {
	h := NewOilTypeHandler(&oilTypeServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateOilTypeInput) (*domain.OilType, error) {
			return nil, domain.NewValidationError("price_per_liter", "must not be negative")
		},
		listFn: func(ctx context.Context, limit, offset int) ([]*domain.OilType, error) {
			return []*domain.OilType{{ID: "OT-001", Name: "Diesel", PricePerLiter: decimal.RequireFromString("5.25")}}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/oil-types", strings.NewReader(`{"name":"Diesel","price_per_liter":"-1"}`)))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	var errResp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(errResp.Fields) != 1 || errResp.Fields[0].Field != "price_per_liter" {
		t.Fatalf("expected field detail, got %+v", errResp)
	}

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/oil-types", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"price_per_liter":"5.25"`) {
		t.Fatalf("unexpected list response %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDriverHandler_Update(t *testing.T) {
	h := NewDriverHandler(&driverServiceStub{
		updateFn: func(ctx context.Context, id string, input usecase.UpdateDriverInput) (*domain.Driver, error) {
			if id == "DR-404" {
				return nil, domain.ErrDriverNotFound
			}
			if input.VehicleNumber == "" {
				return nil, domain.NewValidationError("vehicle_number", "is required")
			}
			return &domain.Driver{ID: id, Name: input.Name, VehicleNumber: input.VehicleNumber, Balance: decimal.NewFromInt(12)}, nil
		},
	})

	r := chi.NewRouter()
	r.Put("/drivers/{id}", h.Update)

	tests := []struct {
		path, body string
		status     int
	}{
		{"/drivers/DR-001", `{"name":"Karim","vehicle_number":"TRK-8"}`, http.StatusOK},
		{"/drivers/DR-001", `{"name":"Karim"}`, http.StatusUnprocessableEntity},
		{"/drivers/DR-404", `{"name":"Ghost","vehicle_number":"X"}`, http.StatusNotFound},
	}

	for _, tc := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, tc.path, strings.NewReader(tc.body)))
		if rec.Code != tc.status {
			t.Fatalf("PUT %s %s: expected %d, got %d", tc.path, tc.body, tc.status, rec.Code)
		}
		if tc.status == http.StatusOK && !strings.Contains(rec.Body.String(), `"vehicle_number":"TRK-8"`) {
			t.Fatalf("unexpected body %s", rec.Body.String())
		}
	}
}

func TestOilTypeHandler_GetAndUpdate(t *testing.T) {
	var captured usecase.UpdateOilTypeInput
	h := NewOilTypeHandler(&oilTypeServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.OilType, error) {
			if id != "OT-001" {
				return nil, domain.ErrOilTypeNotFound
			}
			return &domain.OilType{ID: id, Name: "Diesel", PricePerLiter: decimal.RequireFromString("5.25")}, nil
		},
		updateFn: func(ctx context.Context, id string, input usecase.UpdateOilTypeInput) (*domain.OilType, error) {
			captured = input
			return &domain.OilType{ID: id, Name: input.Name, PricePerLiter: input.PricePerLiter, CurrentQuantity: input.CurrentQuantity}, nil
		},
	})

	r := chi.NewRouter()
	r.Get("/oil-types/{id}", h.Get)
	r.Put("/oil-types/{id}", h.Update)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oil-types/OT-001", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"price_per_liter":"5.25"`) {
		t.Fatalf("unexpected get response %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oil-types/OT-404", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/oil-types/OT-001",
		strings.NewReader(`{"name":"Diesel B7","price_per_liter":"5.40","current_quantity":"900"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Name != "Diesel B7" || !captured.PricePerLiter.Equal(decimal.RequireFromString("5.40")) ||
		!captured.CurrentQuantity.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("unexpected input %+v", captured)
	}
}
