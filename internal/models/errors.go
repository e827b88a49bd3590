package models

import "errors"

// Common errors used throughout the application
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrIntentNotFound    = errors.New("payment intent not found")
	ErrCouponNotFound    = errors.New("coupon not found")
	ErrCouponInactive    = errors.New("coupon is not active")
	ErrCouponRejected    = errors.New("coupon rejected")
	ErrSoldOut           = errors.New("not enough tickets available")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrOrderTerminal     = errors.New("order already reached a terminal state")
	ErrDuplicateEntry    = errors.New("duplicate entry")
	ErrInvalidInput      = errors.New("invalid input")
)
