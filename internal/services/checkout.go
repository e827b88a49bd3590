package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"event-checkout-platform/internal/models"
)

// CheckoutService runs the order submission pipeline: validation, coupon
// application, inventory holds, persistence, payment kickoff and lifecycle
// events. All amounts are recomputed server-side from the cart snapshot.
type CheckoutService struct {
	orderRepo  OrderStore
	intentRepo IntentStore
	coupons    *CouponService
	provider   PaymentProvider
	holds      HoldStore
	publisher  EventPublisher
	autosaver  *ProfileAutosaver

	reservationWindow time.Duration
	now               func() time.Time
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	orderRepo OrderStore,
	intentRepo IntentStore,
	coupons *CouponService,
	provider PaymentProvider,
	holds HoldStore,
	publisher EventPublisher,
	autosaver *ProfileAutosaver,
	reservationWindow time.Duration,
) *CheckoutService {
	return &CheckoutService{
		orderRepo:         orderRepo,
		intentRepo:        intentRepo,
		coupons:           coupons,
		provider:          provider,
		holds:             holds,
		publisher:         publisher,
		autosaver:         autosaver,
		reservationWindow: reservationWindow,
		now:               time.Now,
	}
}

// PreviewCoupon applies a coupon to the cart without creating anything.
// Used by the checkout page to show updated totals.
func (s *CheckoutService) PreviewCoupon(code string, cart *models.CartSnapshot) (*CouponApplication, error) {
	if err := cart.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidInput, err.Error())
	}
	return s.coupons.Apply(code, cart)
}

// SubmitOrder validates the request as a whole, reserves inventory,
// persists the order and kicks off payment. Nothing is reserved or stored
// until every gate passes. Card payments settle inline; PIX orders come
// back in their initial state and move forward once an intent is issued.
func (s *CheckoutService) SubmitOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidInput, err.Error())
	}

	rawTotal := req.Cart.RawTotal()
	discount := 0
	couponCode := ""

	if req.CouponCode != "" {
		application, err := s.coupons.Apply(req.CouponCode, &req.Cart)
		if err != nil {
			return nil, fmt.Errorf("failed to apply coupon: %w", err)
		}
		// A coupon that no longer applies blocks submission so the buyer
		// never pays a total they did not see
		if application.Status == CouponRejected {
			return nil, fmt.Errorf("%w: %s", models.ErrCouponRejected, application.Reason)
		}
		discount = application.DiscountAmount
		couponCode = application.Coupon.Code
	}

	now := s.now()
	expiresAt := now.Add(s.reservationWindow)

	order := &models.Order{
		Code:                 models.GenerateOrderCode(),
		EventID:              req.Cart.EventID,
		EventName:            req.Cart.EventName,
		EventStartDate:       req.Cart.EventDate,
		BuyerName:            req.Buyer.FullName(),
		BuyerEmail:           req.Buyer.Email,
		PaymentMethod:        req.PaymentMethod,
		PaymentStatus:        models.StatusCreated,
		TotalAmount:          rawTotal - discount,
		DiscountAmount:       discount,
		CouponCode:           couponCode,
		ReservationExpiresAt: &expiresAt,
		CreatedAt:            now,
	}

	// Hold TTL outlives the reservation window so the sweep, not a silent
	// key eviction, is what releases inventory
	holdTTL := s.reservationWindow * 2
	if err := s.holds.Reserve(ctx, order.Code, order.EventID, req.Cart.Items, holdTTL); err != nil {
		if errors.Is(err, models.ErrSoldOut) {
			return nil, models.ErrSoldOut
		}
		return nil, fmt.Errorf("failed to reserve inventory: %w", err)
	}

	created, err := s.orderRepo.Create(order, req.Cart.Items, req.Participants)
	if err != nil {
		if releaseErr := s.holds.Release(ctx, order.Code); releaseErr != nil {
			log.Printf("Warning: failed to release hold for order %s: %v", order.Code, releaseErr)
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if s.autosaver != nil {
		s.autosaver.SaveInBackground(req.Buyer)
	}

	s.publish(QueueOrderCreated, created)

	if created.PaymentMethod == models.MethodCard {
		return s.settleCard(ctx, created)
	}

	return created, nil
}

// settleCard charges the card synchronously and moves the order to its
// terminal state
func (s *CheckoutService) settleCard(ctx context.Context, order *models.Order) (*models.Order, error) {
	result, err := s.provider.ChargeCard(ctx, order)
	if err != nil {
		// The order stays in its initial state; the expiry sweep will
		// reclaim the hold if no retry lands
		return order, fmt.Errorf("card charge failed: %w", err)
	}

	if result.Approved {
		if err := s.orderRepo.TransitionStatus(order.ID, order.PaymentStatus, models.StatusPaid); err != nil {
			return order, fmt.Errorf("failed to mark order paid: %w", err)
		}
		order.PaymentStatus = models.StatusPaid
		if err := s.holds.Confirm(ctx, order.Code); err != nil {
			log.Printf("Warning: failed to confirm hold for order %s: %v", order.Code, err)
		}
		s.publish(QueueOrderPaid, order)
		return order, nil
	}

	if err := s.orderRepo.TransitionStatus(order.ID, order.PaymentStatus, models.StatusFailed); err != nil {
		return order, fmt.Errorf("failed to mark order failed: %w", err)
	}
	order.PaymentStatus = models.StatusFailed
	if err := s.holds.Release(ctx, order.Code); err != nil {
		log.Printf("Warning: failed to release hold for order %s: %v", order.Code, err)
	}
	s.publish(QueueOrderFailed, order)

	return order, nil
}

// GetOrder retrieves an order by id
func (s *CheckoutService) GetOrder(id int) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// GetOrderByCode retrieves an order by its public code
func (s *CheckoutService) GetOrderByCode(code string) (*models.Order, error) {
	return s.orderRepo.GetByCode(code)
}

// ListEventOrders retrieves an event's orders, newest first (management
// path)
func (s *CheckoutService) ListEventOrders(eventID, limit, offset int) ([]*models.Order, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.orderRepo.GetByEvent(eventID, limit, offset)
}

// OrderDetail bundles an order with its lines and participant list
type OrderDetail struct {
	Order        *models.Order          `json:"order"`
	Items        []models.OrderItem     `json:"items"`
	Participants models.ParticipantList `json:"participants"`
}

// GetOrderDetail retrieves an order with its items and participants
func (s *CheckoutService) GetOrderDetail(id int) (*OrderDetail, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	items, err := s.orderRepo.GetItems(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}

	participants, err := s.orderRepo.GetParticipants(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}

	return &OrderDetail{Order: order, Items: items, Participants: participants}, nil
}

// ConfirmPayment handles the provider webhook for asynchronous payments.
// Confirmation always beats expiry: a paid notification that races the
// sweep wins whenever the order has not already reached a terminal state.
func (s *CheckoutService) ConfirmPayment(ctx context.Context, intentID string, providerStatus string) (*models.Order, error) {
	intent, err := s.intentRepo.GetByID(intentID)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(intent.OrderID)
	if err != nil {
		return nil, err
	}

	var target models.PaymentStatus
	switch providerStatus {
	case "paid", "approved":
		target = models.StatusPaid
	case "failed", "declined":
		target = models.StatusFailed
	default:
		return nil, fmt.Errorf("%w: unknown provider status %q", models.ErrInvalidInput, providerStatus)
	}

	err = s.orderRepo.TransitionStatus(order.ID, order.PaymentStatus, target)
	if errors.Is(err, models.ErrOrderTerminal) {
		// Someone else settled first; the webhook retry is a no-op
		return s.orderRepo.GetByID(order.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to transition order %s: %w", order.Code, err)
	}
	order.PaymentStatus = target

	if err := s.intentRepo.UpdateStatus(intent.ID, string(target)); err != nil {
		log.Printf("Warning: failed to update intent %s status: %v", intent.ID, err)
	}

	if target == models.StatusPaid {
		if err := s.holds.Confirm(ctx, order.Code); err != nil {
			log.Printf("Warning: failed to confirm hold for order %s: %v", order.Code, err)
		}
		s.publish(QueueOrderPaid, order)
	} else {
		if err := s.holds.Release(ctx, order.Code); err != nil {
			log.Printf("Warning: failed to release hold for order %s: %v", order.Code, err)
		}
		s.publish(QueueOrderFailed, order)
	}

	return order, nil
}

// ExpireOrder moves an order past its reservation deadline into the
// expired state and returns the inventory. Returns false without error
// when a racing confirmation already settled the order.
func (s *CheckoutService) ExpireOrder(ctx context.Context, order *models.Order) (bool, error) {
	err := s.orderRepo.TransitionStatus(order.ID, order.PaymentStatus, models.StatusExpired)
	if errors.Is(err, models.ErrOrderTerminal) {
		return false, nil
	}
	if errors.Is(err, models.ErrInvalidTransition) {
		// Status moved under us (e.g. an intent was issued between the
		// sweep's read and write); re-read once and retry from there
		fresh, readErr := s.orderRepo.GetByID(order.ID)
		if readErr != nil {
			return false, readErr
		}
		if fresh.PaymentStatus.IsTerminal() {
			return false, nil
		}
		if err := s.orderRepo.TransitionStatus(fresh.ID, fresh.PaymentStatus, models.StatusExpired); err != nil {
			if errors.Is(err, models.ErrOrderTerminal) {
				return false, nil
			}
			return false, fmt.Errorf("failed to expire order %s: %w", order.Code, err)
		}
	} else if err != nil {
		return false, fmt.Errorf("failed to expire order %s: %w", order.Code, err)
	}

	order.PaymentStatus = models.StatusExpired

	if err := s.holds.Release(ctx, order.Code); err != nil {
		log.Printf("Warning: failed to release hold for order %s: %v", order.Code, err)
	}
	s.publish(QueueOrderExpired, order)

	return true, nil
}

func (s *CheckoutService) publish(queue string, order *models.Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(queue, newOrderEvent(order)); err != nil {
		log.Printf("Warning: failed to publish %s event for order %s: %v", queue, order.Code, err)
	}
}
