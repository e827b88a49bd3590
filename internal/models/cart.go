package models

import (
	"errors"
	"time"
)

// CartSnapshot is an immutable view of the buyer's ticket selection,
// produced by the catalog/cart layer upstream of checkout. The pipeline
// validates it and copies it onto the order; it is never mutated here.
type CartSnapshot struct {
	EventID   int        `json:"event_id"`
	EventSlug string     `json:"event_slug"`
	EventName string     `json:"event_name"`
	EventDate time.Time  `json:"event_date"`
	Items     []CartItem `json:"items"`
}

// CartItem represents one ticket-type line in the cart
type CartItem struct {
	TicketTypeID int    `json:"ticket_type_id"`
	Name         string `json:"name"`
	UnitPrice    int    `json:"unit_price"` // in cents
	Quantity     int    `json:"quantity"`
}

// TotalUnits returns the number of individual ticket units in the cart
func (c *CartSnapshot) TotalUnits() int {
	units := 0
	for _, item := range c.Items {
		units += item.Quantity
	}
	return units
}

// RawTotal returns the undiscounted total in cents
func (c *CartSnapshot) RawTotal() int {
	total := 0
	for _, item := range c.Items {
		total += item.UnitPrice * item.Quantity
	}
	return total
}

// Validate validates the cart snapshot
func (c *CartSnapshot) Validate() error {
	if c.EventID <= 0 {
		return errors.New("event id is required")
	}

	if len(c.Items) == 0 {
		return errors.New("cart must contain at least one item")
	}

	for _, item := range c.Items {
		if item.TicketTypeID <= 0 {
			return errors.New("ticket type id is required for every cart item")
		}
		if item.Quantity <= 0 {
			return errors.New("cart item quantity must be positive")
		}
		if item.UnitPrice < 0 {
			return errors.New("cart item price cannot be negative")
		}
	}

	// Maximum order amount of $100,000 (10,000,000 cents)
	if c.RawTotal() > 10000000 {
		return errors.New("cart total cannot exceed $100,000")
	}

	return nil
}
