package models

import (
	"errors"
	"strings"
	"time"
)

// DiscountKind represents how a coupon's value is applied
type DiscountKind string

const (
	DiscountPercent DiscountKind = "percent"
	DiscountFixed   DiscountKind = "fixed"
)

// Coupon represents a discount coupon scoped to one event
type Coupon struct {
	ID        int          `json:"id" db:"id"`
	EventID   int          `json:"event_id" db:"event_id"`
	Code      string       `json:"code" db:"code"`
	Kind      DiscountKind `json:"kind" db:"kind"`
	Value     int          `json:"value" db:"value"` // percent points or cents
	Active    bool         `json:"active" db:"active"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}

// CouponCreateRequest represents the data needed to create a coupon
type CouponCreateRequest struct {
	EventID int          `json:"event_id"`
	Code    string       `json:"code"`
	Kind    DiscountKind `json:"kind"`
	Value   int          `json:"value"`
}

// CouponUpdateRequest represents the data that can be updated for a coupon
type CouponUpdateRequest struct {
	Kind  DiscountKind `json:"kind"`
	Value int          `json:"value"`
}

// NormalizeCouponCode trims surrounding whitespace and upper-cases the code.
// Lookups always run against the normalized form.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// DiscountAmount computes the discount in cents against a raw total.
// Percent coupons take value% of the raw total; fixed coupons take their
// value, capped at the raw total so the result never goes negative.
func (c *Coupon) DiscountAmount(rawTotal int) int {
	if rawTotal <= 0 {
		return 0
	}

	switch c.Kind {
	case DiscountPercent:
		return rawTotal * c.Value / 100
	case DiscountFixed:
		if c.Value > rawTotal {
			return rawTotal
		}
		return c.Value
	default:
		return 0
	}
}

// Validate validates the coupon data
func (c *Coupon) Validate() error {
	return validateCouponFields(c.Code, c.Kind, c.Value)
}

// Validate validates coupon creation data
func (req *CouponCreateRequest) Validate() error {
	if req.EventID <= 0 {
		return errors.New("event id is required")
	}
	return validateCouponFields(req.Code, req.Kind, req.Value)
}

// Validate validates coupon update data
func (req *CouponUpdateRequest) Validate() error {
	return validateCouponFields("placeholder", req.Kind, req.Value)
}

func validateCouponFields(code string, kind DiscountKind, value int) error {
	if strings.TrimSpace(code) == "" {
		return errors.New("coupon code is required")
	}

	switch kind {
	case DiscountPercent:
		if value <= 0 || value > 100 {
			return errors.New("percent coupon value must be between 1 and 100")
		}
	case DiscountFixed:
		if value <= 0 {
			return errors.New("fixed coupon value must be positive")
		}
	default:
		return errors.New("invalid coupon kind")
	}

	return nil
}
