package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"arena_server/services"
)

// writeJSON encodes a success payload.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError maps the service failure taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrNotInQueue),
		errors.Is(err, services.ErrInsufficientPlayers),
		errors.Is(err, services.ErrNoEligiblePlayers):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrAlreadyQueued),
		errors.Is(err, services.ErrQueueFull):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrUpstreamUnavailable):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
