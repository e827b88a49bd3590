package services

import (
	"errors"
	"fmt"

	"event-checkout-platform/internal/models"
)

// CouponStatus mirrors the checkout-visible lifecycle of a coupon attempt
type CouponStatus string

const (
	CouponApplied  CouponStatus = "applied"
	CouponRejected CouponStatus = "rejected"
)

// CouponApplication is the outcome of applying a coupon code to a cart.
// A rejection is a normal outcome, not an error: the totals are left
// untouched and the reason is surfaced to the buyer.
type CouponApplication struct {
	Status         CouponStatus   `json:"status"`
	Coupon         *models.Coupon `json:"coupon,omitempty"`
	DiscountAmount int            `json:"discount_amount"`
	TotalAmount    int            `json:"total_amount"`
	Reason         string         `json:"reason,omitempty"`
}

// CouponService validates coupon codes against an event's cart and computes
// discounts. It also carries the management CRUD used by organizers.
type CouponService struct {
	couponRepo CouponStore
}

// NewCouponService creates a new coupon service
func NewCouponService(couponRepo CouponStore) *CouponService {
	return &CouponService{couponRepo: couponRepo}
}

// Apply looks up the normalized code for the cart's event and computes the
// discount. Only infrastructure faults return an error; unknown or inactive
// codes come back as a rejected application with the raw total unchanged.
// Applying a coupon replaces any prior discount entirely -- there is no
// stacking, the returned totals are always computed from the raw sum.
func (s *CouponService) Apply(code string, cart *models.CartSnapshot) (*CouponApplication, error) {
	raw := cart.RawTotal()

	normalized := models.NormalizeCouponCode(code)
	if normalized == "" {
		return rejected(raw, "coupon code is required"), nil
	}

	coupon, err := s.couponRepo.GetByCode(cart.EventID, normalized)
	if err != nil {
		if errors.Is(err, models.ErrCouponNotFound) {
			return rejected(raw, "coupon not found"), nil
		}
		return nil, fmt.Errorf("coupon lookup failed: %w", err)
	}

	if !coupon.Active {
		return rejected(raw, "coupon is not active"), nil
	}

	// A stored coupon that no longer passes validation (e.g. percent
	// above 100) is rejected before any discount is computed.
	if err := coupon.Validate(); err != nil {
		return rejected(raw, err.Error()), nil
	}

	discount := coupon.DiscountAmount(raw)

	return &CouponApplication{
		Status:         CouponApplied,
		Coupon:         coupon,
		DiscountAmount: discount,
		TotalAmount:    raw - discount,
	}, nil
}

func rejected(rawTotal int, reason string) *CouponApplication {
	return &CouponApplication{
		Status:      CouponRejected,
		TotalAmount: rawTotal,
		Reason:      reason,
	}
}

// CreateCoupon creates a coupon for an event (management path)
func (s *CouponService) CreateCoupon(req *models.CouponCreateRequest) (*models.Coupon, error) {
	return s.couponRepo.Create(req)
}

// UpdateCoupon updates a coupon's kind and value (management path)
func (s *CouponService) UpdateCoupon(id int, req *models.CouponUpdateRequest) (*models.Coupon, error) {
	return s.couponRepo.Update(id, req)
}

// SetCouponActive toggles a coupon on or off (management path)
func (s *CouponService) SetCouponActive(id int, active bool) error {
	return s.couponRepo.SetActive(id, active)
}

// ListCoupons retrieves the coupons configured for an event
func (s *CouponService) ListCoupons(eventID int) ([]*models.Coupon, error) {
	return s.couponRepo.ListByEvent(eventID)
}
