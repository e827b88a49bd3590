package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/skip2/go-qrcode"
	"golang.org/x/sync/singleflight"

	"event-checkout-platform/internal/models"
)

// PaymentIntentService issues and renders provider payment intents. Intent
// creation is idempotent per order: repeated requests for the same order
// return the already-issued intent instead of asking the provider again.
type PaymentIntentService struct {
	intentRepo IntentStore
	orderRepo  OrderStore
	provider   PaymentProvider

	// group collapses concurrent first requests for the same order so
	// only one provider-side channel is ever minted
	group singleflight.Group
}

// NewPaymentIntentService creates a new payment intent service
func NewPaymentIntentService(intentRepo IntentStore, orderRepo OrderStore, provider PaymentProvider) *PaymentIntentService {
	return &PaymentIntentService{
		intentRepo: intentRepo,
		orderRepo:  orderRepo,
		provider:   provider,
	}
}

// EnsureIntent returns the order's payment intent, creating one through
// the provider only if none exists yet. Two racing requests both get the
// same intent: concurrent callers for one order share a single provider
// call, and the database keeps one row per order so a loser of the
// insert race (e.g. across instances) still reads back the winner's.
func (s *PaymentIntentService) EnsureIntent(ctx context.Context, orderID int) (*models.PaymentIntent, error) {
	result, err, _ := s.group.Do(strconv.Itoa(orderID), func() (any, error) {
		return s.ensureIntent(ctx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.PaymentIntent), nil
}

func (s *PaymentIntentService) ensureIntent(ctx context.Context, orderID int) (*models.PaymentIntent, error) {
	existing, err := s.intentRepo.GetByOrderID(orderID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, models.ErrIntentNotFound) {
		return nil, fmt.Errorf("intent lookup failed: %w", err)
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	if order.IsTerminal() {
		return nil, fmt.Errorf("%w: order %s", models.ErrOrderTerminal, order.Code)
	}
	if order.PaymentMethod != models.MethodPix {
		return nil, fmt.Errorf("%w: order %s is not a pix order", models.ErrInvalidInput, order.Code)
	}

	intent, err := s.provider.CreatePixIntent(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	stored, err := s.intentRepo.Create(intent)
	if err != nil {
		return nil, fmt.Errorf("failed to store payment intent: %w", err)
	}

	// First intent moves the order into the waiting-for-payment state. A
	// concurrent request may have done this already; that is not a fault.
	err = s.orderRepo.TransitionStatus(order.ID, models.StatusCreated, models.StatusPendingPayment)
	if err != nil && !errors.Is(err, models.ErrInvalidTransition) && !errors.Is(err, models.ErrOrderTerminal) {
		log.Printf("Warning: failed to mark order %s pending payment: %v", order.Code, err)
	}

	return stored, nil
}

// GetIntent retrieves an intent by its provider-issued id
func (s *PaymentIntentService) GetIntent(id string) (*models.PaymentIntent, error) {
	return s.intentRepo.GetByID(id)
}

// GetIntentForOrder retrieves the intent tied to an order, if any
func (s *PaymentIntentService) GetIntentForOrder(orderID int) (*models.PaymentIntent, error) {
	return s.intentRepo.GetByOrderID(orderID)
}

// RenderQR encodes the intent's opaque payment code as a QR PNG of the
// given pixel size
func (s *PaymentIntentService) RenderQR(intent *models.PaymentIntent, size int) ([]byte, error) {
	if intent.Code == "" {
		return nil, fmt.Errorf("%w: intent %s has no payment code", models.ErrInvalidInput, intent.ID)
	}
	if size <= 0 {
		size = 256
	}

	png, err := qrcode.Encode(intent.Code, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}

	return png, nil
}
