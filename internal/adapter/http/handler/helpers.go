package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/oilledger/internal/adapter/http/dto"
	"github.com/iho/oilledger/internal/domain"
)

// retryAfterSeconds is advertised on 503 responses caused by transient
// storage failures.
const retryAfterSeconds = "1"

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	var verr *domain.ValidationError

	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidPrefix),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrUnknownSubjectType),
		errors.Is(err, domain.ErrMovementOperationRequired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInternalMovementExists),
		errors.Is(err, domain.ErrInternalMovementDelete):
		return http.StatusConflict
	case domain.IsTransientStorageError(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError renders err with the status mapDomainError picks.
// Validation failures carry their field list; 5xx responses never leak the
// underlying storage error to the caller.
func writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := mapDomainError(err)

	resp := dto.ErrorResponse{Error: message, Message: err.Error()}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}

	switch status {
	case http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", retryAfterSeconds)
		resp.Message = "storage temporarily unavailable, retry the request"
	case http.StatusInternalServerError:
		resp.Message = "internal error"
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(message)
	}

	writeJSON(w, status, resp)
}

// decodeJSON decodes the request body into dst, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}

	return true
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseDecimalQuery parses a decimal query parameter. A missing value is an
// error.
func parseDecimalQuery(r *http.Request, key string) (decimal.Decimal, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return decimal.Zero, domain.NewValidationError(key, "is required")
	}

	d, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, domain.NewValidationError(key, "must be a decimal number")
	}

	return d, nil
}
