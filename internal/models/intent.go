package models

import (
	"errors"
	"time"
)

// PaymentIntent is a provider-issued artifact representing a pending
// payment channel tied to exactly one order. The code is an opaque string;
// this service renders it but never interprets it.
type PaymentIntent struct {
	ID        string    `json:"id" db:"id"`
	OrderID   int       `json:"order_id" db:"order_id"`
	Provider  string    `json:"provider" db:"provider"`
	Code      string    `json:"code" db:"code"`
	Status    string    `json:"status" db:"status"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsExpired returns true if the intent's own expiry has passed
func (i *PaymentIntent) IsExpired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Validate validates the payment intent data
func (i *PaymentIntent) Validate() error {
	if i.ID == "" {
		return errors.New("intent id is required")
	}

	if i.OrderID <= 0 {
		return errors.New("intent order id is required")
	}

	if i.Provider == "" {
		return errors.New("intent provider is required")
	}

	if i.Code == "" {
		return errors.New("intent code is required")
	}

	return nil
}
