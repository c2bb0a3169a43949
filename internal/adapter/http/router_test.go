package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/oilledger/internal/adapter/http/handler"
	apimiddleware "github.com/iho/oilledger/internal/adapter/http/middleware"
	"github.com/iho/oilledger/internal/adapter/repository/memory"
	"github.com/iho/oilledger/internal/app"
	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/infrastructure/auth"
	"github.com/iho/oilledger/internal/infrastructure/metrics"
)

const testIdempotencyKey = "8a4e1f0c-2b7d-4c55-9f31-0d6b1e2a7c90"

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1, nil)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_IdempotentClientCreateReplays(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = memory.NewIdempotencyStore()
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/clients", strings.NewReader(`{"name":"Delta Fuel"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(apimiddleware.IdempotencyKeyHeader, testIdempotencyKey)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", first.Code, first.Body.String())
	}

	second := send()
	if second.Code != http.StatusCreated || second.Header().Get(apimiddleware.IdempotencyReplayHeader) != "true" {
		t.Fatalf("expected replayed 201, got %d %v", second.Code, second.Header())
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replayed body differs:\n%s\n%s", first.Body.String(), second.Body.String())
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil))

	var clients []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &clients); err != nil {
		t.Fatalf("decode clients: %v", err)
	}
	if len(clients) != 1 {
		t.Fatalf("expected one client after replay, got %d", len(clients))
	}
}

func TestNewRouter_SaleCreatesInternalMovement(t *testing.T) {
	router := NewRouter(newRouterConfig())

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("POST %s: expected 201, got %d: %s", path, rec.Code, rec.Body.String())
		}
		return rec
	}

	post("/api/v1/clients", `{"name":"Delta Fuel"}`)
	post("/api/v1/drivers", `{"name":"Karim","vehicle_number":"TRK-1"}`)
	post("/api/v1/oil-types", `{"name":"Diesel","price_per_liter":"5.00"}`)
	sale := post("/api/v1/sales", `{
		"date":"2026-05-04","client_id":"CL-001","oil_type_id":"OT-001","driver_id":"DR-001",
		"quantity":"10","price":"4.10","driver_freight":"80","client_freight":"120"
	}`)

	var body struct {
		ID   string `json:"id"`
		Sync string `json:"movement_sync"`
	}
	if err := json.Unmarshal(sale.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode sale: %v", err)
	}
	if body.ID != "SL-001" || body.Sync != "created" {
		t.Fatalf("unexpected sale response %+v", body)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/vehicle-movements/VEi-001", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"operation_id":"SL-001"`) {
		t.Fatalf("expected synchronized movement, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_EnforcesRoleCapabilities(t *testing.T) {
	jwtManager := auth.NewJWTManager("router-secret", time.Hour)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.JWTManager = jwtManager
	}))

	token := func(role domain.Role) string {
		tok, err := jwtManager.Generate(domain.Actor{ID: "u-" + string(role), Role: role})
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		return "Bearer " + tok
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		auth   string
		status int
	}{
		{"anonymous read", http.MethodGet, "/api/v1/clients", "", "", http.StatusUnauthorized},
		{"viewer reads clients", http.MethodGet, "/api/v1/clients", "", token(domain.RoleViewer), http.StatusOK},
		{"viewer cannot create clients", http.MethodPost, "/api/v1/clients", `{"name":"x"}`, token(domain.RoleViewer), http.StatusForbidden},
		{"client manager creates clients", http.MethodPost, "/api/v1/clients", `{"name":"x"}`, token(domain.RoleClientManager), http.StatusCreated},
		{"vehicle manager cannot post treasury", http.MethodPost, "/api/v1/treasury/movements", `{}`, token(domain.RoleVehicleManager), http.StatusForbidden},
		{"manager cannot allocate ids", http.MethodPost, "/api/v1/sequences/CL-/next", "", token(domain.RoleManager), http.StatusForbidden},
		{"admin allocates ids", http.MethodPost, "/api/v1/sequences/CL-/next", "", token(domain.RoleAdmin), http.StatusCreated},
		{"viewer cannot read the ledger", http.MethodGet, "/api/v1/ledger/verify", "", token(domain.RoleViewer), http.StatusForbidden},
		{"manager verifies the ledger", http.MethodGet, "/api/v1/ledger/verify", "", token(domain.RoleManager), http.StatusOK},
		{"manager cannot delete sales", http.MethodDelete, "/api/v1/sales/SL-001", "", token(domain.RoleManager), http.StatusForbidden},
		{"admin deletes a missing sale", http.MethodDelete, "/api/v1/sales/SL-404", "", token(domain.RoleAdmin), http.StatusNotFound},
		{"manager cannot read activity", http.MethodGet, "/api/v1/activity", "", token(domain.RoleManager), http.StatusForbidden},
		{"admin reads activity", http.MethodGet, "/api/v1/activity", "", token(domain.RoleAdmin), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestNewRouter_MetricsEndpointExposesRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.Metrics = m
		cfg.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/clients/CL-404", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(rec.Body.String(), `path="/api/v1/clients/{id}"`) {
		t.Fatalf("expected route pattern label in metrics output:\n%s", rec.Body.String())
	}
}

func TestNewRouter_CORSPreflight(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.CORSOrigins = []string{"https://ops.example.com"}
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sales", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://ops.example.com" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Routes)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/clients/",
		"PUT /api/v1/clients/{id}/balance",
		"GET /api/v1/clients/{id}/statement",
		"GET /api/v1/drivers/{id}/balance-logs",
		"POST /api/v1/oil-types/",
		"GET /api/v1/oil-types/{id}",
		"PUT /api/v1/oil-types/{id}",
		"PUT /api/v1/drivers/{id}",
		"PUT /api/v1/sales/{id}",
		"PUT /api/v1/purchases/{id}",
		"DELETE /api/v1/sales/{id}",
		"DELETE /api/v1/purchases/{id}",
		"POST /api/v1/vehicle-movements/",
		"DELETE /api/v1/vehicle-movements/{id}",
		"GET /api/v1/freight-estimate",
		"POST /api/v1/treasury/movements/",
		"POST /api/v1/ledger/balance-changes",
		"GET /api/v1/ledger/verify",
		"POST /api/v1/sequences/{prefix}/next",
		"GET /api/v1/activity",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func TestNewRouter_RecordsAuthenticatedActivity(t *testing.T) {
	jwtManager := auth.NewJWTManager("router-secret", time.Hour)
	s := app.NewServices(app.MemoryRepositories(memory.NewStore()), app.Options{
		Logger:         zerolog.Nop(),
		Cache:          memory.NewCache(),
		ActivityWindow: time.Minute,
	})
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.JWTManager = jwtManager
		cfg.ActivityRecorder = s.Activity
		cfg.ActivityHandler = handler.NewActivityHandler(s.Activity)
	}))

	tok, err := jwtManager.Generate(domain.Actor{ID: "u-9", Name: "Lina", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	send := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	send(http.MethodGet, "/api/v1/clients", "")
	send(http.MethodGet, "/api/v1/clients", "")
	if rec := send(http.MethodPost, "/api/v1/clients", `{"name":"Delta Fuel"}`); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec := send(http.MethodGet, "/api/v1/activity?actor_id=u-9", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var entries []struct {
		Action string `json:"action"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode activity: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected one view and one create, got %+v", entries)
	}
	if entries[0].Action != "clients.create" || entries[1].Action != "clients.view" || entries[0].Status != "success" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	s := app.NewServices(app.MemoryRepositories(memory.NewStore()), app.Options{
		FreightRate: decimal.NewFromInt(10),
		Logger:      zerolog.Nop(),
	})

	cfg := RouterConfig{
		ClientHandler:   handler.NewClientHandler(s.Clients, s.Statements),
		DriverHandler:   handler.NewDriverHandler(s.Drivers),
		OilTypeHandler:  handler.NewOilTypeHandler(s.OilTypes),
		SaleHandler:     handler.NewSaleHandler(s.Commerce),
		PurchaseHandler: handler.NewPurchaseHandler(s.Commerce),
		MovementHandler: handler.NewMovementHandler(s.Movements),
		TreasuryHandler: handler.NewTreasuryHandler(s.Treasury),
		LedgerHandler:   handler.NewLedgerHandler(s.Ledger, s.Reconciliation, s.Allocator),
		ActivityHandler: handler.NewActivityHandler(s.Activity),
		HealthHandler: handler.NewHealthHandler(handler.ReadinessCheck{
			Name:  "store",
			Check: func(context.Context) error { return nil },
		}),
		Logger: zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}
