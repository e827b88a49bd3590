package models

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

// PaymentMethod represents how the buyer pays for an order
type PaymentMethod string

const (
	MethodCard PaymentMethod = "card"
	MethodPix  PaymentMethod = "pix"
)

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	StatusCreated        PaymentStatus = "created"
	StatusPendingPayment PaymentStatus = "pending_payment"
	StatusPaid           PaymentStatus = "paid"
	StatusExpired        PaymentStatus = "expired"
	StatusFailed         PaymentStatus = "failed"
)

// Order represents a time-bounded inventory reservation awaiting payment
type Order struct {
	ID                   int           `json:"id" db:"id"`
	Code                 string        `json:"code" db:"code"`
	EventID              int           `json:"event_id" db:"event_id"`
	EventName            string        `json:"event_name" db:"event_name"`
	EventStartDate       time.Time     `json:"event_start_date" db:"event_start_date"`
	BuyerName            string        `json:"buyer_name" db:"buyer_name"`
	BuyerEmail           string        `json:"buyer_email" db:"buyer_email"`
	PaymentMethod        PaymentMethod `json:"payment_method" db:"payment_method"`
	PaymentStatus        PaymentStatus `json:"payment_status" db:"payment_status"`
	TotalAmount          int           `json:"total_amount" db:"total_amount"` // in cents
	DiscountAmount       int           `json:"discount_amount" db:"discount_amount"`
	CouponCode           string        `json:"coupon_code,omitempty" db:"coupon_code"`
	ReservationExpiresAt *time.Time    `json:"reservation_expires_at,omitempty" db:"reservation_expires_at"`
	CreatedAt            time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at" db:"updated_at"`
}

// OrderItem is a purchased line item frozen from the cart snapshot
type OrderItem struct {
	ID           int    `json:"id" db:"id"`
	OrderID      int    `json:"order_id" db:"order_id"`
	TicketTypeID int    `json:"ticket_type_id" db:"ticket_type_id"`
	Name         string `json:"name" db:"name"`
	UnitPrice    int    `json:"unit_price" db:"unit_price"`
	Quantity     int    `json:"quantity" db:"quantity"`
}

var (
	// Order code format: ORD-YYYYMMDD-XXXXXX (e.g., ORD-20240101-123456)
	orderCodeRegex = regexp.MustCompile(`^ORD-\d{8}-\d{6}$`)
	// Buyer email validation for orders
	orderEmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// validStatusTransitions defines the one-directional status machine.
// Terminal states have no outgoing edges. A created order can expire
// without ever reaching pending_payment when the buyer abandons checkout
// before a payment instrument is issued.
var validStatusTransitions = map[PaymentStatus][]PaymentStatus{
	StatusCreated:        {StatusPendingPayment, StatusPaid, StatusExpired, StatusFailed},
	StatusPendingPayment: {StatusPaid, StatusExpired, StatusFailed},
	StatusPaid:           {},
	StatusExpired:        {},
	StatusFailed:         {},
}

// IsTerminal returns true if no further status changes are expected
func (s PaymentStatus) IsTerminal() bool {
	return s == StatusPaid || s == StatusExpired || s == StatusFailed
}

// CanTransitionTo reports whether the status machine allows moving from s
// to next
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range validStatusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal returns true if the order reached a final payment state
func (o *Order) IsTerminal() bool {
	return o.PaymentStatus.IsTerminal()
}

// IsPaid returns true if the order has been paid
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == StatusPaid
}

// Validate validates the order data
func (o *Order) Validate() error {
	if err := o.validateCode(); err != nil {
		return err
	}

	if err := validateOrderAmounts(o.TotalAmount, o.DiscountAmount); err != nil {
		return err
	}

	if err := validatePaymentMethod(o.PaymentMethod); err != nil {
		return err
	}

	if err := validatePaymentStatus(o.PaymentStatus); err != nil {
		return err
	}

	if err := validateBuyerInfo(o.BuyerEmail, o.BuyerName); err != nil {
		return err
	}

	if o.ReservationExpiresAt != nil && !o.ReservationExpiresAt.After(o.CreatedAt) {
		return errors.New("reservation expiry must be after creation time")
	}

	return nil
}

func (o *Order) validateCode() error {
	if o.Code == "" {
		return errors.New("order code is required")
	}

	if !orderCodeRegex.MatchString(o.Code) {
		return errors.New("order code format is invalid")
	}

	return nil
}

func validateOrderAmounts(totalAmount, discountAmount int) error {
	if totalAmount < 0 {
		return errors.New("total amount cannot be negative")
	}

	if discountAmount < 0 {
		return errors.New("discount amount cannot be negative")
	}

	// Maximum order amount of $100,000 (10,000,000 cents)
	if totalAmount > 10000000 {
		return errors.New("total amount cannot exceed $100,000")
	}

	return nil
}

func validatePaymentMethod(method PaymentMethod) error {
	switch method {
	case MethodCard, MethodPix:
		return nil
	default:
		return errors.New("invalid payment method")
	}
}

func validatePaymentStatus(status PaymentStatus) error {
	switch status {
	case StatusCreated, StatusPendingPayment, StatusPaid, StatusExpired, StatusFailed:
		return nil
	default:
		return errors.New("invalid payment status")
	}
}

func validateBuyerInfo(buyerEmail, buyerName string) error {
	if buyerEmail == "" {
		return errors.New("buyer email is required")
	}

	if buyerName == "" {
		return errors.New("buyer name is required")
	}

	if len(buyerEmail) > 255 {
		return errors.New("buyer email must be less than 255 characters")
	}

	if len(buyerName) > 255 {
		return errors.New("buyer name must be less than 255 characters")
	}

	if !orderEmailRegex.MatchString(buyerEmail) {
		return errors.New("buyer email format is invalid")
	}

	if strings.TrimSpace(buyerName) == "" {
		return errors.New("buyer name cannot be only whitespace")
	}

	return nil
}

// GenerateOrderCode generates a unique order code
func GenerateOrderCode() string {
	now := time.Now()
	dateStr := now.Format("20060102")

	// Generate a 6-digit random number using crypto/rand for better uniqueness
	max := big.NewInt(1000000)
	randomNum, err := rand.Int(rand.Reader, max)
	if err != nil {
		// Fallback to timestamp-based generation if crypto/rand fails
		timestamp := now.UnixNano()
		randomPart := timestamp % 1000000
		return fmt.Sprintf("ORD-%s-%06d", dateStr, randomPart)
	}

	return fmt.Sprintf("ORD-%s-%06d", dateStr, randomNum.Int64())
}

// GetStatusDisplayName returns a human-readable status name
func (o *Order) GetStatusDisplayName() string {
	switch o.PaymentStatus {
	case StatusCreated:
		return "Created"
	case StatusPendingPayment:
		return "Awaiting Payment"
	case StatusPaid:
		return "Paid"
	case StatusExpired:
		return "Expired"
	case StatusFailed:
		return "Failed"
	default:
		return string(o.PaymentStatus)
	}
}

// TotalAmountInCurrency returns the total amount in the main currency unit
func (o *Order) TotalAmountInCurrency() float64 {
	return float64(o.TotalAmount) / 100.0
}
