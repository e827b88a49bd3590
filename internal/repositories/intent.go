package repositories

import (
	"database/sql"
	"fmt"

	"event-checkout-platform/internal/models"
)

// PaymentIntentRepository handles payment intent persistence
type PaymentIntentRepository struct {
	db *sql.DB
}

// NewPaymentIntentRepository creates a new payment intent repository
func NewPaymentIntentRepository(db *sql.DB) *PaymentIntentRepository {
	return &PaymentIntentRepository{db: db}
}

// GetByOrderID retrieves the payment intent tied to an order
func (r *PaymentIntentRepository) GetByOrderID(orderID int) (*models.PaymentIntent, error) {
	query := `
		SELECT id, order_id, provider, code, status, expires_at, created_at
		FROM payment_intents
		WHERE order_id = $1`

	intent := &models.PaymentIntent{}
	var expiresAt sql.NullTime

	err := r.db.QueryRow(query, orderID).Scan(
		&intent.ID,
		&intent.OrderID,
		&intent.Provider,
		&intent.Code,
		&intent.Status,
		&expiresAt,
		&intent.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrIntentNotFound
		}
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	if expiresAt.Valid {
		intent.ExpiresAt = expiresAt.Time
	}

	return intent, nil
}

// Create stores a payment intent for an order. The unique constraint on
// order_id makes this idempotent under concurrent requests: when two
// writers race, exactly one row wins and both callers read it back. The
// returned intent is therefore always the order's single channel, not
// necessarily the one passed in.
func (r *PaymentIntentRepository) Create(intent *models.PaymentIntent) (*models.PaymentIntent, error) {
	if err := intent.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	_, err := r.db.Exec(`
		INSERT INTO payment_intents (id, order_id, provider, code, status, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (order_id) DO NOTHING`,
		intent.ID,
		intent.OrderID,
		intent.Provider,
		intent.Code,
		intent.Status,
		sql.NullTime{Time: intent.ExpiresAt, Valid: !intent.ExpiresAt.IsZero()},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return r.GetByOrderID(intent.OrderID)
}

// UpdateStatus updates the provider-reported status of an intent
func (r *PaymentIntentRepository) UpdateStatus(id string, status string) error {
	result, err := r.db.Exec(`UPDATE payment_intents SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update intent status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return models.ErrIntentNotFound
	}

	return nil
}

// GetByID retrieves a payment intent by its provider-issued id
func (r *PaymentIntentRepository) GetByID(id string) (*models.PaymentIntent, error) {
	query := `
		SELECT id, order_id, provider, code, status, expires_at, created_at
		FROM payment_intents
		WHERE id = $1`

	intent := &models.PaymentIntent{}
	var expiresAt sql.NullTime

	err := r.db.QueryRow(query, id).Scan(
		&intent.ID,
		&intent.OrderID,
		&intent.Provider,
		&intent.Code,
		&intent.Status,
		&expiresAt,
		&intent.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrIntentNotFound
		}
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	if expiresAt.Valid {
		intent.ExpiresAt = expiresAt.Time
	}

	return intent, nil
}
