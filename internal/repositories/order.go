package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"event-checkout-platform/internal/models"
)

// OrderRepository handles order data operations
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, code, event_id, event_name, event_start_date, buyer_name, buyer_email,
	payment_method, payment_status, total_amount, discount_amount, coupon_code,
	reservation_expires_at, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	order := &models.Order{}
	var couponCode sql.NullString
	var eventStart sql.NullTime
	var expiresAt sql.NullTime

	err := row.Scan(
		&order.ID,
		&order.Code,
		&order.EventID,
		&order.EventName,
		&eventStart,
		&order.BuyerName,
		&order.BuyerEmail,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&order.TotalAmount,
		&order.DiscountAmount,
		&couponCode,
		&expiresAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if couponCode.Valid {
		order.CouponCode = couponCode.String
	}
	if eventStart.Valid {
		order.EventStartDate = eventStart.Time
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		order.ReservationExpiresAt = &t
	}

	return order, nil
}

// Create inserts the order together with its frozen line items and
// participant assignments in one transaction. The caller supplies the order
// code so that inventory holds can be keyed by it before the insert.
func (r *OrderRepository) Create(order *models.Order, items []models.CartItem, participants models.ParticipantList) (*models.Order, error) {
	if err := order.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (code, event_id, event_name, event_start_date, buyer_name, buyer_email,
			payment_method, payment_status, total_amount, discount_amount, coupon_code,
			reservation_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + orderColumns

	now := time.Now()
	var couponCode sql.NullString
	if order.CouponCode != "" {
		couponCode = sql.NullString{String: order.CouponCode, Valid: true}
	}
	var expiresAt sql.NullTime
	if order.ReservationExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *order.ReservationExpiresAt, Valid: true}
	}

	created, err := scanOrder(tx.QueryRow(
		query,
		order.Code,
		order.EventID,
		order.EventName,
		sql.NullTime{Time: order.EventStartDate, Valid: !order.EventStartDate.IsZero()},
		order.BuyerName,
		order.BuyerEmail,
		order.PaymentMethod,
		order.PaymentStatus,
		order.TotalAmount,
		order.DiscountAmount,
		couponCode,
		expiresAt,
		now,
		now,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range items {
		_, err = tx.Exec(`
			INSERT INTO order_items (order_id, ticket_type_id, name, unit_price, quantity)
			VALUES ($1, $2, $3, $4, $5)`,
			created.ID, item.TicketTypeID, item.Name, item.UnitPrice, item.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	for i, p := range participants {
		_, err = tx.Exec(`
			INSERT INTO order_participants (order_id, position, ticket_type_id, email)
			VALUES ($1, $2, $3, $4)`,
			created.ID, i, p.TicketTypeID, p.Email,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert order participant: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order creation: %w", err)
	}

	return created, nil
}

// GetByID retrieves an order by ID
func (r *OrderRepository) GetByID(id int) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return order, nil
}

// GetByCode retrieves an order by its public code
func (r *OrderRepository) GetByCode(code string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE code = $1`

	order, err := scanOrder(r.db.QueryRow(query, code))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by code: %w", err)
	}

	return order, nil
}

// GetItems retrieves the frozen line items of an order
func (r *OrderRepository) GetItems(orderID int) ([]models.OrderItem, error) {
	rows, err := r.db.Query(`
		SELECT id, order_id, ticket_type_id, name, unit_price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.TicketTypeID, &item.Name, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// GetParticipants retrieves the participant assignment of an order in
// slot order
func (r *OrderRepository) GetParticipants(orderID int) (models.ParticipantList, error) {
	rows, err := r.db.Query(`
		SELECT ticket_type_id, email
		FROM order_participants
		WHERE order_id = $1
		ORDER BY position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order participants: %w", err)
	}
	defer rows.Close()

	var participants models.ParticipantList
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.TicketTypeID, &p.Email); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}

	return participants, rows.Err()
}

// TransitionStatus moves an order from one status to another with an
// optimistic check: the UPDATE only applies while the order still holds the
// expected current status. This is what keeps the expiry sweep and the
// payment confirmation callback from clobbering each other -- a transition
// to expired is rejected once a concurrent writer has marked the order paid.
func (r *OrderRepository) TransitionStatus(id int, from, to models.PaymentStatus) error {
	if !from.CanTransitionTo(to) {
		return models.ErrInvalidTransition
	}

	result, err := r.db.Exec(`
		UPDATE orders
		SET payment_status = $3, updated_at = $4
		WHERE id = $1 AND payment_status = $2`,
		id, from, to, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to transition order status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		// The guard did not match: either the order is gone or another
		// writer got there first. Report which.
		current, err := r.GetByID(id)
		if err != nil {
			return err
		}
		if current.IsTerminal() {
			return models.ErrOrderTerminal
		}
		return models.ErrInvalidTransition
	}

	return nil
}

// FindExpired returns non-terminal orders whose reservation window has
// lapsed. Used by the expiry sweep.
func (r *OrderRepository) FindExpired(now time.Time, limit int) ([]*models.Order, error) {
	rows, err := r.db.Query(`
		SELECT `+orderColumns+`
		FROM orders
		WHERE payment_status IN ($1, $2)
		  AND reservation_expires_at IS NOT NULL
		  AND reservation_expires_at <= $3
		ORDER BY reservation_expires_at
		LIMIT $4`,
		models.StatusCreated, models.StatusPendingPayment, now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expired order: %w", err)
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

// GetByEvent retrieves orders for an event with pagination
func (r *OrderRepository) GetByEvent(eventID int, limit, offset int) ([]*models.Order, error) {
	rows, err := r.db.Query(`
		SELECT `+orderColumns+`
		FROM orders
		WHERE event_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		eventID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query event orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}
