package services

import (
	"context"
	"time"

	"event-checkout-platform/internal/models"
)

// OrderStore is the order persistence interface consumed by the checkout
// pipeline
type OrderStore interface {
	Create(order *models.Order, items []models.CartItem, participants models.ParticipantList) (*models.Order, error)
	GetByID(id int) (*models.Order, error)
	GetByCode(code string) (*models.Order, error)
	GetItems(orderID int) ([]models.OrderItem, error)
	GetParticipants(orderID int) (models.ParticipantList, error)
	TransitionStatus(id int, from, to models.PaymentStatus) error
	FindExpired(now time.Time, limit int) ([]*models.Order, error)
	GetByEvent(eventID int, limit, offset int) ([]*models.Order, error)
}

// IntentStore is the payment intent persistence interface
type IntentStore interface {
	GetByOrderID(orderID int) (*models.PaymentIntent, error)
	GetByID(id string) (*models.PaymentIntent, error)
	Create(intent *models.PaymentIntent) (*models.PaymentIntent, error)
	UpdateStatus(id string, status string) error
}

// CouponStore is the coupon persistence interface
type CouponStore interface {
	GetByCode(eventID int, code string) (*models.Coupon, error)
	Create(req *models.CouponCreateRequest) (*models.Coupon, error)
	Update(id int, req *models.CouponUpdateRequest) (*models.Coupon, error)
	SetActive(id int, active bool) error
	ListByEvent(eventID int) ([]*models.Coupon, error)
}

// CardChargeResult is the provider's synchronous answer to a card charge
type CardChargeResult struct {
	Approved  bool
	Reference string
	Reason    string
}

// PaymentProvider is the opaque payment provider: synchronous card charges
// and asynchronous PIX intents. Settlement details are not modeled here.
type PaymentProvider interface {
	ChargeCard(ctx context.Context, order *models.Order) (*CardChargeResult, error)
	CreatePixIntent(ctx context.Context, order *models.Order) (*models.PaymentIntent, error)
}

// AccountClient talks to the external account-profile service
type AccountClient interface {
	GetSettings(ctx context.Context, email string) (map[string]string, error)
	UpdateSettings(ctx context.Context, email string, fields map[string]string) error
}

// EventPublisher emits order lifecycle events for downstream consumers
// (ticket issuance, notifications, analytics)
type EventPublisher interface {
	Publish(queue string, payload any) error
	Close() error
}

// HoldStore keeps time-bounded inventory holds while an order awaits
// payment
type HoldStore interface {
	Reserve(ctx context.Context, orderCode string, eventID int, items []models.CartItem, ttl time.Duration) error
	Release(ctx context.Context, orderCode string) error
	Confirm(ctx context.Context, orderCode string) error
}

// Lifecycle event queue names
const (
	QueueOrderCreated = "order.created"
	QueueOrderPaid    = "order.paid"
	QueueOrderExpired = "order.expired"
	QueueOrderFailed  = "order.failed"
)

// OrderEvent is the payload published on order lifecycle queues
type OrderEvent struct {
	OrderID       int    `json:"order_id"`
	OrderCode     string `json:"order_code"`
	EventID       int    `json:"event_id"`
	BuyerEmail    string `json:"buyer_email"`
	PaymentMethod string `json:"payment_method"`
	PaymentStatus string `json:"payment_status"`
	TotalAmount   int    `json:"total_amount"`
}

func newOrderEvent(order *models.Order) OrderEvent {
	return OrderEvent{
		OrderID:       order.ID,
		OrderCode:     order.Code,
		EventID:       order.EventID,
		BuyerEmail:    order.BuyerEmail,
		PaymentMethod: string(order.PaymentMethod),
		PaymentStatus: string(order.PaymentStatus),
		TotalAmount:   order.TotalAmount,
	}
}
