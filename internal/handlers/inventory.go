package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"event-checkout-platform/internal/models"
	"event-checkout-platform/internal/services"
)

// InventoryHandler seeds and inspects the availability counters behind the
// reservation holds. Management only.
type InventoryHandler struct {
	holds *services.InventoryHolds
}

// NewInventoryHandler creates a new inventory handler. holds may be nil
// when no Redis is configured; the endpoints then answer 503.
func NewInventoryHandler(holds *services.InventoryHolds) *InventoryHandler {
	return &InventoryHandler{holds: holds}
}

// seedRequest sets the availability counter for one ticket type
type seedRequest struct {
	EventID      int `json:"event_id"`
	TicketTypeID int `json:"ticket_type_id"`
	Quantity     int `json:"quantity"`
}

// Seed handles PUT /api/manage/inventory
func (h *InventoryHandler) Seed(w http.ResponseWriter, r *http.Request) {
	if h.holds == nil {
		respondJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "inventory tracking is not configured"})
		return
	}

	var req seedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fmt.Errorf("%w: malformed request body", models.ErrInvalidInput))
		return
	}
	if req.EventID <= 0 || req.TicketTypeID <= 0 || req.Quantity < 0 {
		respondError(w, fmt.Errorf("%w: event_id, ticket_type_id and a non-negative quantity are required", models.ErrInvalidInput))
		return
	}

	if err := h.holds.SetAvailable(r.Context(), req.EventID, req.TicketTypeID, req.Quantity); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// availabilityResponse reports one counter
type availabilityResponse struct {
	EventID      int  `json:"event_id"`
	TicketTypeID int  `json:"ticket_type_id"`
	Available    int  `json:"available"`
	Tracked      bool `json:"tracked"`
}

// Availability handles GET /api/manage/inventory with event_id and
// ticket_type_id query params
func (h *InventoryHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if h.holds == nil {
		respondJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "inventory tracking is not configured"})
		return
	}

	eventID := queryInt(r, "event_id")
	ticketTypeID := queryInt(r, "ticket_type_id")
	if eventID <= 0 || ticketTypeID <= 0 {
		respondError(w, fmt.Errorf("%w: event_id and ticket_type_id query params are required", models.ErrInvalidInput))
		return
	}

	available, tracked, err := h.holds.Available(r.Context(), eventID, ticketTypeID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, availabilityResponse{
		EventID:      eventID,
		TicketTypeID: ticketTypeID,
		Available:    available,
		Tracked:      tracked,
	})
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}
