package models

import "fmt"

// Buyer carries the purchaser's contact data as entered at checkout. Some
// fields may already exist on the buyer's saved account profile; the
// autosaver persists only the missing ones.
type Buyer struct {
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Email      string `json:"email"`
	TaxID      string `json:"tax_id"`
	Phone      string `json:"phone"`
	PostalCode string `json:"postal_code"`
}

// FullName returns the buyer's display name
func (b *Buyer) FullName() string {
	if b.Surname == "" {
		return b.Name
	}
	return b.Name + " " + b.Surname
}

// CreateOrderRequest is the submission payload for the checkout pipeline
type CreateOrderRequest struct {
	Cart          CartSnapshot    `json:"cart"`
	Buyer         Buyer           `json:"buyer"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Participants  ParticipantList `json:"participants"`
	CouponCode    string          `json:"coupon_code,omitempty"`
}

// Validate runs the local validation gate. Requests failing here are
// rejected before any network or database side effect.
func (req *CreateOrderRequest) Validate() error {
	if err := req.Cart.Validate(); err != nil {
		return fmt.Errorf("invalid cart: %w", err)
	}

	if err := validatePaymentMethod(req.PaymentMethod); err != nil {
		return err
	}

	if err := validateBuyerInfo(req.Buyer.Email, req.Buyer.Name); err != nil {
		return err
	}

	if err := req.Participants.Validate(&req.Cart); err != nil {
		return fmt.Errorf("incomplete participant assignment: %w", err)
	}

	return nil
}
