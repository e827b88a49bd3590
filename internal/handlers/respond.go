package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"event-checkout-platform/internal/models"
)

// respondJSON writes a JSON response with the given status
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Warning: failed to encode response: %v", err)
	}
}

// errorResponse is the uniform error body
type errorResponse struct {
	Error string `json:"error"`
}

// respondError maps domain errors onto HTTP statuses. Validation failures
// are 400, rejections and state conflicts 409, missing resources 404,
// anything else 500 with the detail kept out of the response.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrIntentNotFound),
		errors.Is(err, models.ErrCouponNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrSoldOut),
		errors.Is(err, models.ErrCouponRejected),
		errors.Is(err, models.ErrOrderTerminal),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrDuplicateEntry):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		log.Printf("Internal error: %v", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
