package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"event-checkout-platform/internal/models"
)

// MockPaymentProvider simulates the payment provider for development and
// tests. Card charges approve unless the buyer email contains "decline";
// PIX intents get a synthetic code and a 15 minute expiry.
type MockPaymentProvider struct {
	// FailWith, when set, makes every call return this error
	FailWith error
}

// ChargeCard simulates a synchronous card charge
func (m *MockPaymentProvider) ChargeCard(ctx context.Context, order *models.Order) (*CardChargeResult, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	if strings.Contains(order.BuyerEmail, "decline") {
		return &CardChargeResult{
			Approved:  false,
			Reference: "mock_" + uuid.New().String(),
			Reason:    "card declined",
		}, nil
	}

	return &CardChargeResult{
		Approved:  true,
		Reference: "mock_" + uuid.New().String(),
	}, nil
}

// CreatePixIntent simulates issuing a PIX payment channel
func (m *MockPaymentProvider) CreatePixIntent(ctx context.Context, order *models.Order) (*models.PaymentIntent, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	expiresAt := time.Now().Add(15 * time.Minute)
	if order.ReservationExpiresAt != nil {
		expiresAt = *order.ReservationExpiresAt
	}

	return &models.PaymentIntent{
		ID:        uuid.New().String(),
		OrderID:   order.ID,
		Provider:  "pix",
		Code:      fmt.Sprintf("00020126MOCK%s5204000053039865802BR", order.Code),
		Status:    "pending",
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// NoopHolds disables inventory holds when no Redis is configured. Every
// reservation succeeds and nothing is tracked.
type NoopHolds struct{}

// Reserve always succeeds
func (NoopHolds) Reserve(ctx context.Context, orderCode string, eventID int, items []models.CartItem, ttl time.Duration) error {
	return nil
}

// Release is a no-op
func (NoopHolds) Release(ctx context.Context, orderCode string) error { return nil }

// Confirm is a no-op
func (NoopHolds) Confirm(ctx context.Context, orderCode string) error { return nil }
