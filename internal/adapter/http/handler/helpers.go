package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/iho/cardledger/internal/adapter/http/dto"
	"github.com/iho/cardledger/internal/adapter/http/middleware"
	"github.com/iho/cardledger/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError writes err with the status mapDomainError picks for it.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, mapDomainError(err), message, err.Error())
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownJobType):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrJobNotCancellable):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotRevolvingCredit):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidInstallments):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
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

// requireOwner writes 401 and returns false when the request carries no owner.
func requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := middleware.OwnerID(r)
	if owner == "" {
		writeError(w, http.StatusUnauthorized, "owner required", "authenticate or send "+middleware.OwnerIDHeader)
		return "", false
	}
	return owner, true
}

// visibleTo reports whether a resource owned by resourceOwner may be shown on
// this request. Requests without an owner see everything.
func visibleTo(r *http.Request, resourceOwner string) bool {
	owner := middleware.OwnerID(r)
	return owner == "" || owner == resourceOwner
}
