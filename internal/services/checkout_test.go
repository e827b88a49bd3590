package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-checkout-platform/internal/models"
)

func TestSubmitOrderValidationBlocksAllSideEffects(t *testing.T) {
	checkout, orders, _, _, holds, publisher := newTestCheckout()

	req := validRequest(models.MethodPix)
	req.Participants[1].Email = "" // one empty slot blocks submission

	_, err := checkout.SubmitOrder(context.Background(), req)
	require.ErrorIs(t, err, models.ErrInvalidInput)

	assert.Empty(t, holds.reserved, "nothing should be reserved")
	assert.Empty(t, publisher.events, "nothing should be published")
	assert.Empty(t, orders.orders, "nothing should be stored")
}

func TestSubmitOrderSoldOut(t *testing.T) {
	checkout, orders, _, _, holds, _ := newTestCheckout()
	holds.soldOut = true

	_, err := checkout.SubmitOrder(context.Background(), validRequest(models.MethodPix))
	require.ErrorIs(t, err, models.ErrSoldOut)
	assert.Empty(t, orders.orders)
}

func TestSubmitOrderPixStaysInInitialState(t *testing.T) {
	checkout, _, _, _, holds, publisher := newTestCheckout()

	order, err := checkout.SubmitOrder(context.Background(), validRequest(models.MethodPix))
	require.NoError(t, err)

	assert.Equal(t, models.StatusCreated, order.PaymentStatus)
	assert.Equal(t, 10000, order.TotalAmount)
	assert.Equal(t, 0, order.DiscountAmount)
	assert.Regexp(t, `^ORD-\d{8}-\d{6}$`, order.Code)
	require.NotNil(t, order.ReservationExpiresAt)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), *order.ReservationExpiresAt, 2*time.Second)

	assert.Equal(t, []string{order.Code}, holds.reserved)
	assert.Equal(t, []string{QueueOrderCreated}, publisher.queues())
}

func TestSubmitOrderCardApprovedSettlesInline(t *testing.T) {
	checkout, _, _, _, holds, publisher := newTestCheckout()

	order, err := checkout.SubmitOrder(context.Background(), validRequest(models.MethodCard))
	require.NoError(t, err)

	assert.Equal(t, models.StatusPaid, order.PaymentStatus)
	assert.Equal(t, []string{order.Code}, holds.confirmed)
	assert.Empty(t, holds.released)
	assert.Equal(t, []string{QueueOrderCreated, QueueOrderPaid}, publisher.queues())
}

func TestSubmitOrderCardDeclinedReleasesHold(t *testing.T) {
	checkout, _, _, _, holds, publisher := newTestCheckout()

	req := validRequest(models.MethodCard)
	req.Buyer.Email = "decline@example.com"
	req.Participants[0].Email = req.Buyer.Email

	order, err := checkout.SubmitOrder(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, models.StatusFailed, order.PaymentStatus)
	assert.Equal(t, []string{order.Code}, holds.released)
	assert.Empty(t, holds.confirmed)
	assert.Equal(t, []string{QueueOrderCreated, QueueOrderFailed}, publisher.queues())
}

func TestSubmitOrderAppliesCoupon(t *testing.T) {
	checkout, _, _, coupons, _, _ := newTestCheckout()
	coupons.seed(&models.Coupon{EventID: 42, Code: "TESTE10", Kind: models.DiscountPercent, Value: 10, Active: true})

	req := validRequest(models.MethodPix)
	req.CouponCode = " teste10 "

	order, err := checkout.SubmitOrder(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 9000, order.TotalAmount)
	assert.Equal(t, 1000, order.DiscountAmount)
	assert.Equal(t, "TESTE10", order.CouponCode)
}

func TestSubmitOrderRejectedCouponBlocksSubmission(t *testing.T) {
	checkout, orders, _, _, holds, _ := newTestCheckout()

	req := validRequest(models.MethodPix)
	req.CouponCode = "NOPE"

	_, err := checkout.SubmitOrder(context.Background(), req)
	require.ErrorIs(t, err, models.ErrCouponRejected)

	assert.Empty(t, holds.reserved)
	assert.Empty(t, orders.orders)
}

func TestConfirmPaymentMarksOrderPaid(t *testing.T) {
	checkout, _, intents, _, holds, publisher := newTestCheckout()

	order, err := checkout.SubmitOrder(context.Background(), validRequest(models.MethodPix))
	require.NoError(t, err)

	intent := &models.PaymentIntent{ID: "int_1", OrderID: order.ID, Provider: "pix", Code: "payload", Status: "pending"}
	_, err = intents.Create(intent)
	require.NoError(t, err)

	confirmed, err := checkout.ConfirmPayment(context.Background(), "int_1", "paid")
	require.NoError(t, err)

	assert.Equal(t, models.StatusPaid, confirmed.PaymentStatus)
	assert.Contains(t, holds.confirmed, order.Code)
	assert.Contains(t, publisher.queues(), QueueOrderPaid)

	stored, err := intents.GetByID("int_1")
	require.NoError(t, err)
	assert.Equal(t, "paid", stored.Status)
}

func TestConfirmPaymentIsIdempotentOnTerminalOrder(t *testing.T) {
	checkout, _, intents, _, holds, _ := newTestCheckout()

	order, err := checkout.SubmitOrder(context.Background(), validRequest(models.MethodPix))
	require.NoError(t, err)

	_, err = intents.Create(&models.PaymentIntent{ID: "int_1", OrderID: order.ID, Provider: "pix", Code: "payload", Status: "pending"})
	require.NoError(t, err)

	_, err = checkout.ConfirmPayment(context.Background(), "int_1", "paid")
	require.NoError(t, err)

	// Webhook retry after the order already settled
	again, err := checkout.ConfirmPayment(context.Background(), "int_1", "paid")
	require.NoError(t, err)

	assert.Equal(t, models.StatusPaid, again.PaymentStatus)
	assert.Len(t, holds.confirmed, 1, "holds confirmed once, not per retry")
}

func TestExpireOrderReleasesInventory(t *testing.T) {
	checkout, _, _, _, holds, publisher := newTestCheckout()

	order, err := checkout.SubmitOrder(context.Background(), validRequest(models.MethodPix))
	require.NoError(t, err)

	expired, err := checkout.ExpireOrder(context.Background(), order)
	require.NoError(t, err)

	assert.True(t, expired)
	assert.Contains(t, holds.released, order.Code)
	assert.Contains(t, publisher.queues(), QueueOrderExpired)
}

func TestConfirmationBeatsExpiry(t *testing.T) {
	checkout, _, intents, _, holds, publisher := newTestCheckout()

	order, err := checkout.SubmitOrder(context.Background(), validRequest(models.MethodPix))
	require.NoError(t, err)

	_, err = intents.Create(&models.PaymentIntent{ID: "int_1", OrderID: order.ID, Provider: "pix", Code: "payload", Status: "pending"})
	require.NoError(t, err)

	// The payment lands first
	_, err = checkout.ConfirmPayment(context.Background(), "int_1", "paid")
	require.NoError(t, err)

	// The sweep arrives late holding a stale snapshot of the order
	expired, err := checkout.ExpireOrder(context.Background(), order)
	require.NoError(t, err)

	assert.False(t, expired, "expiry must lose to a prior confirmation")
	assert.Empty(t, holds.released)
	assert.NotContains(t, publisher.queues(), QueueOrderExpired)

	final, err := checkout.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, final.PaymentStatus)
}

func TestGetOrderDetail(t *testing.T) {
	checkout, _, _, _, _, _ := newTestCheckout()

	order, err := checkout.SubmitOrder(context.Background(), validRequest(models.MethodPix))
	require.NoError(t, err)

	detail, err := checkout.GetOrderDetail(order.ID)
	require.NoError(t, err)

	assert.Equal(t, order.ID, detail.Order.ID)
	assert.Len(t, detail.Items, 2)
	assert.Len(t, detail.Participants, 3)
	assert.Equal(t, "maria@example.com", detail.Participants[0].Email)
}

func TestPreviewCouponLeavesNothingBehind(t *testing.T) {
	checkout, orders, _, coupons, holds, _ := newTestCheckout()
	coupons.seed(&models.Coupon{EventID: 42, Code: "TESTE10", Kind: models.DiscountPercent, Value: 10, Active: true})

	cart := validCart()
	application, err := checkout.PreviewCoupon("TESTE10", &cart)
	require.NoError(t, err)

	assert.Equal(t, CouponApplied, application.Status)
	assert.Equal(t, 9000, application.TotalAmount)
	assert.Empty(t, orders.orders)
	assert.Empty(t, holds.reserved)
}
