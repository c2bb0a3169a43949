package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/oilledger/internal/adapter/http/dto"
)

// DriverHandler handles driver-related HTTP requests.
type DriverHandler struct {
	drivers driverService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(drivers driverService) *DriverHandler {
	return &DriverHandler{drivers: drivers}
}

// Create creates a new driver.
func (h *DriverHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDriverRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	driver, err := h.drivers.CreateDriver(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to create driver", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.DriverFromDomain(driver))
}

// Get retrieves a driver by ID.
func (h *DriverHandler) Get(w http.ResponseWriter, r *http.Request) {
	driver, err := h.drivers.GetDriver(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get driver", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DriverFromDomain(driver))
}

// Update edits a driver's profile.
func (h *DriverHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateDriverRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	driver, err := h.drivers.UpdateDriver(r.Context(), chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to update driver", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DriverFromDomain(driver))
}

// List lists drivers.
func (h *DriverHandler) List(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.drivers.ListDrivers(r.Context(), parseIntQuery(r, "limit", 20), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, r, "failed to list drivers", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DriversFromDomain(drivers))
}
