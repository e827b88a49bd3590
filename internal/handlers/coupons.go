package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"event-checkout-platform/internal/models"
	"event-checkout-platform/internal/services"
)

// CouponHandler handles the public coupon preview and the token-guarded
// management CRUD
type CouponHandler struct {
	checkout *services.CheckoutService
	coupons  *services.CouponService
}

// NewCouponHandler creates a new coupon handler
func NewCouponHandler(checkout *services.CheckoutService, coupons *services.CouponService) *CouponHandler {
	return &CouponHandler{checkout: checkout, coupons: coupons}
}

// previewRequest carries a coupon attempt against a cart
type previewRequest struct {
	Code string              `json:"code"`
	Cart models.CartSnapshot `json:"cart"`
}

// Preview handles POST /api/coupons/preview. A rejected coupon is a 200
// with status "rejected", not an error: the buyer sees the reason and the
// unchanged total.
func (h *CouponHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fmt.Errorf("%w: malformed request body", models.ErrInvalidInput))
		return
	}

	application, err := h.checkout.PreviewCoupon(req.Code, &req.Cart)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, application)
}

// Create handles POST /api/manage/coupons
func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CouponCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fmt.Errorf("%w: malformed request body", models.ErrInvalidInput))
		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %s", models.ErrInvalidInput, err.Error()))
		return
	}

	coupon, err := h.coupons.CreateCoupon(&req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, coupon)
}

// Update handles PUT /api/manage/coupons/{id}
func (h *CouponHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := couponID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req models.CouponUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fmt.Errorf("%w: malformed request body", models.ErrInvalidInput))
		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %s", models.ErrInvalidInput, err.Error()))
		return
	}

	coupon, err := h.coupons.UpdateCoupon(id, &req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, coupon)
}

// setActiveRequest toggles a coupon on or off
type setActiveRequest struct {
	Active bool `json:"active"`
}

// SetActive handles PATCH /api/manage/coupons/{id}/active
func (h *CouponHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := couponID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fmt.Errorf("%w: malformed request body", models.ErrInvalidInput))
		return
	}

	if err := h.coupons.SetCouponActive(id, req.Active); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// ListByEvent handles GET /api/manage/events/{eventID}/coupons
func (h *CouponHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.Atoi(chi.URLParam(r, "eventID"))
	if err != nil || eventID <= 0 {
		respondError(w, fmt.Errorf("%w: invalid event id", models.ErrInvalidInput))
		return
	}

	coupons, err := h.coupons.ListCoupons(eventID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, coupons)
}

func couponID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid coupon id", models.ErrInvalidInput)
	}
	return id, nil
}
