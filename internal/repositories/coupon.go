package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"event-checkout-platform/internal/models"
)

// CouponRepository handles coupon data operations (the management path;
// checkout only reads through GetByCode)
type CouponRepository struct {
	db *sql.DB
}

// NewCouponRepository creates a new coupon repository
func NewCouponRepository(db *sql.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

const couponColumns = `id, event_id, code, kind, value, active, created_at, updated_at`

func scanCoupon(row interface{ Scan(...any) error }) (*models.Coupon, error) {
	coupon := &models.Coupon{}
	err := row.Scan(
		&coupon.ID,
		&coupon.EventID,
		&coupon.Code,
		&coupon.Kind,
		&coupon.Value,
		&coupon.Active,
		&coupon.CreatedAt,
		&coupon.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return coupon, nil
}

// GetByCode retrieves a coupon by event and normalized code
func (r *CouponRepository) GetByCode(eventID int, code string) (*models.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE event_id = $1 AND code = $2`

	coupon, err := scanCoupon(r.db.QueryRow(query, eventID, models.NormalizeCouponCode(code)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}

	return coupon, nil
}

// Create creates a new coupon with the code stored in normalized form
func (r *CouponRepository) Create(req *models.CouponCreateRequest) (*models.Coupon, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO coupons (event_id, code, kind, value, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, $5)
		RETURNING ` + couponColumns

	coupon, err := scanCoupon(r.db.QueryRow(
		query,
		req.EventID,
		models.NormalizeCouponCode(req.Code),
		req.Kind,
		req.Value,
		time.Now(),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	return coupon, nil
}

// Update updates a coupon's kind and value
func (r *CouponRepository) Update(id int, req *models.CouponUpdateRequest) (*models.Coupon, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE coupons
		SET kind = $2, value = $3, updated_at = $4
		WHERE id = $1
		RETURNING ` + couponColumns

	coupon, err := scanCoupon(r.db.QueryRow(query, id, req.Kind, req.Value, time.Now()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to update coupon: %w", err)
	}

	return coupon, nil
}

// SetActive toggles a coupon's active flag
func (r *CouponRepository) SetActive(id int, active bool) error {
	result, err := r.db.Exec(`UPDATE coupons SET active = $2, updated_at = $3 WHERE id = $1`,
		id, active, time.Now())
	if err != nil {
		return fmt.Errorf("failed to toggle coupon: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return models.ErrCouponNotFound
	}

	return nil
}

// ListByEvent retrieves all coupons configured for an event
func (r *CouponRepository) ListByEvent(eventID int) ([]*models.Coupon, error) {
	rows, err := r.db.Query(`SELECT `+couponColumns+` FROM coupons WHERE event_id = $1 ORDER BY created_at DESC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	defer rows.Close()

	var coupons []*models.Coupon
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, coupon)
	}

	return coupons, rows.Err()
}
