package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"event-checkout-platform/internal/models"
)

// fakeOrderStore is an in-memory OrderStore with the same conditional
// transition semantics as the database layer
type fakeOrderStore struct {
	mu           sync.Mutex
	nextID       int
	orders       map[int]*models.Order
	items        map[int][]models.OrderItem
	participants map[int]models.ParticipantList
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		nextID:       1,
		orders:       make(map[int]*models.Order),
		items:        make(map[int][]models.OrderItem),
		participants: make(map[int]models.ParticipantList),
	}
}

func (f *fakeOrderStore) Create(order *models.Order, items []models.CartItem, participants models.ParticipantList) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored := *order
	stored.ID = f.nextID
	f.nextID++
	stored.UpdatedAt = stored.CreatedAt
	f.orders[stored.ID] = &stored

	orderItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, models.OrderItem{
			OrderID:      stored.ID,
			TicketTypeID: item.TicketTypeID,
			Name:         item.Name,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
		})
	}
	f.items[stored.ID] = orderItems
	f.participants[stored.ID] = participants

	copied := stored
	return &copied, nil
}

func (f *fakeOrderStore) GetByID(id int) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrderStore) GetByCode(code string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, order := range f.orders {
		if order.Code == code {
			copied := *order
			return &copied, nil
		}
	}
	return nil, models.ErrOrderNotFound
}

func (f *fakeOrderStore) GetItems(orderID int) ([]models.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[orderID], nil
}

func (f *fakeOrderStore) GetParticipants(orderID int) (models.ParticipantList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.participants[orderID], nil
}

func (f *fakeOrderStore) TransitionStatus(id int, from, to models.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[id]
	if !ok {
		return models.ErrOrderNotFound
	}
	if order.PaymentStatus != from {
		if order.PaymentStatus.IsTerminal() {
			return models.ErrOrderTerminal
		}
		return models.ErrInvalidTransition
	}
	if !from.CanTransitionTo(to) {
		return models.ErrInvalidTransition
	}
	order.PaymentStatus = to
	order.UpdatedAt = time.Now()
	return nil
}

func (f *fakeOrderStore) FindExpired(now time.Time, limit int) ([]*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var overdue []*models.Order
	for _, order := range f.orders {
		if order.PaymentStatus.IsTerminal() {
			continue
		}
		if order.ReservationExpiresAt != nil && order.ReservationExpiresAt.Before(now) {
			copied := *order
			overdue = append(overdue, &copied)
		}
		if len(overdue) >= limit {
			break
		}
	}
	return overdue, nil
}

func (f *fakeOrderStore) GetByEvent(eventID int, limit, offset int) ([]*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Order
	for _, order := range f.orders {
		if order.EventID == eventID {
			copied := *order
			out = append(out, &copied)
		}
	}
	return out, nil
}

// fakeIntentStore is an in-memory IntentStore enforcing one intent per
// order
type fakeIntentStore struct {
	mu      sync.Mutex
	intents map[string]*models.PaymentIntent
}

func newFakeIntentStore() *fakeIntentStore {
	return &fakeIntentStore{intents: make(map[string]*models.PaymentIntent)}
}

func (f *fakeIntentStore) GetByOrderID(orderID int) (*models.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, intent := range f.intents {
		if intent.OrderID == orderID {
			copied := *intent
			return &copied, nil
		}
	}
	return nil, models.ErrIntentNotFound
}

func (f *fakeIntentStore) GetByID(id string) (*models.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	intent, ok := f.intents[id]
	if !ok {
		return nil, models.ErrIntentNotFound
	}
	copied := *intent
	return &copied, nil
}

func (f *fakeIntentStore) Create(intent *models.PaymentIntent) (*models.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.intents {
		if existing.OrderID == intent.OrderID {
			copied := *existing
			return &copied, nil
		}
	}
	stored := *intent
	f.intents[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

func (f *fakeIntentStore) UpdateStatus(id string, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	intent, ok := f.intents[id]
	if !ok {
		return models.ErrIntentNotFound
	}
	intent.Status = status
	return nil
}

// fakeCouponStore serves coupons from a map keyed by event id and code
type fakeCouponStore struct {
	mu      sync.Mutex
	nextID  int
	coupons map[string]*models.Coupon
}

func newFakeCouponStore() *fakeCouponStore {
	return &fakeCouponStore{nextID: 1, coupons: make(map[string]*models.Coupon)}
}

func couponKey(eventID int, code string) string {
	return fmt.Sprintf("%d:%s", eventID, code)
}

func (f *fakeCouponStore) seed(coupon *models.Coupon) {
	f.mu.Lock()
	defer f.mu.Unlock()
	coupon.ID = f.nextID
	f.nextID++
	f.coupons[couponKey(coupon.EventID, coupon.Code)] = coupon
}

func (f *fakeCouponStore) GetByCode(eventID int, code string) (*models.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	coupon, ok := f.coupons[couponKey(eventID, code)]
	if !ok {
		return nil, models.ErrCouponNotFound
	}
	copied := *coupon
	return &copied, nil
}

func (f *fakeCouponStore) Create(req *models.CouponCreateRequest) (*models.Coupon, error) {
	coupon := &models.Coupon{
		EventID: req.EventID,
		Code:    models.NormalizeCouponCode(req.Code),
		Kind:    req.Kind,
		Value:   req.Value,
		Active:  true,
	}
	f.seed(coupon)
	return coupon, nil
}

func (f *fakeCouponStore) Update(id int, req *models.CouponUpdateRequest) (*models.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, coupon := range f.coupons {
		if coupon.ID == id {
			coupon.Kind = req.Kind
			coupon.Value = req.Value
			copied := *coupon
			return &copied, nil
		}
	}
	return nil, models.ErrCouponNotFound
}

func (f *fakeCouponStore) SetActive(id int, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, coupon := range f.coupons {
		if coupon.ID == id {
			coupon.Active = active
			return nil
		}
	}
	return models.ErrCouponNotFound
}

func (f *fakeCouponStore) ListByEvent(eventID int) ([]*models.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Coupon
	for _, coupon := range f.coupons {
		if coupon.EventID == eventID {
			copied := *coupon
			out = append(out, &copied)
		}
	}
	return out, nil
}

// fakeHolds records hold operations for assertions
type fakeHolds struct {
	mu        sync.Mutex
	soldOut   bool
	reserved  []string
	released  []string
	confirmed []string
}

func (f *fakeHolds) Reserve(ctx context.Context, orderCode string, eventID int, items []models.CartItem, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.soldOut {
		return models.ErrSoldOut
	}
	f.reserved = append(f.reserved, orderCode)
	return nil
}

func (f *fakeHolds) Release(ctx context.Context, orderCode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, orderCode)
	return nil
}

func (f *fakeHolds) Confirm(ctx context.Context, orderCode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, orderCode)
	return nil
}

// capturePublisher records published events for assertions
type capturePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	Queue   string
	Payload any
}

func (p *capturePublisher) Publish(queue string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Queue: queue, Payload: payload})
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) queues() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Queue)
	}
	return out
}

// validCart returns a two-line cart used across tests
func validCart() models.CartSnapshot {
	return models.CartSnapshot{
		EventID:   42,
		EventSlug: "summer-fest",
		EventName: "Summer Fest",
		EventDate: time.Now().Add(30 * 24 * time.Hour),
		Items: []models.CartItem{
			{TicketTypeID: 1, Name: "General Admission", UnitPrice: 5000, Quantity: 1},
			{TicketTypeID: 2, Name: "VIP", UnitPrice: 2500, Quantity: 2},
		},
	}
}

// validRequest returns a complete, submittable order request
func validRequest(method models.PaymentMethod) *models.CreateOrderRequest {
	cart := validCart()
	buyer := models.Buyer{
		Name:    "Maria",
		Surname: "Silva",
		Email:   "maria@example.com",
	}
	participants := models.NewParticipantList(&cart, buyer.Email)
	for i := range participants {
		if participants[i].Email == "" {
			participants[i].Email = fmt.Sprintf("guest%d@example.com", i)
		}
	}
	return &models.CreateOrderRequest{
		Cart:          cart,
		Buyer:         buyer,
		PaymentMethod: method,
		Participants:  participants,
	}
}

// newTestCheckout wires a checkout service over fakes
func newTestCheckout() (*CheckoutService, *fakeOrderStore, *fakeIntentStore, *fakeCouponStore, *fakeHolds, *capturePublisher) {
	orders := newFakeOrderStore()
	intents := newFakeIntentStore()
	coupons := newFakeCouponStore()
	holds := &fakeHolds{}
	publisher := &capturePublisher{}

	checkout := NewCheckoutService(
		orders,
		intents,
		NewCouponService(coupons),
		&MockPaymentProvider{},
		holds,
		publisher,
		nil,
		15*time.Minute,
	)
	return checkout, orders, intents, coupons, holds, publisher
}
