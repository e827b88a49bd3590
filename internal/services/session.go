package services

import (
	"context"
	"log"
	"sync"
	"time"

	"event-checkout-platform/internal/models"
)

// CheckoutSession drives the confirmation screen for one pending order: a
// countdown toward the reservation deadline and a poller watching for the
// payment to land. Whichever finishes first finalizes the session; the
// other side is torn down. A session finalizes at most once.
type CheckoutSession struct {
	OrderID int

	checkout *CheckoutService
	expiry   ExpiryCandidate

	countdown *Countdown
	poller    *ConfirmationPoller

	onUpdate func(order *models.Order)

	mu        sync.Mutex
	finalized bool
	done      chan struct{}
}

// SessionConfig holds the tick and poll cadence for checkout sessions
type SessionConfig struct {
	TickInterval time.Duration
	PollInterval time.Duration
}

// NewCheckoutSession builds a session for the order. The reservation
// deadline is resolved once, from the strongest available source, and
// reused for the session's whole life. When a session replaces an earlier
// one for the same order, the earlier session's deadline is passed in as
// prior so it participates in resolution as the previously-resolved
// source. When no source yields a deadline the countdown is omitted and
// only the poller runs.
func NewCheckoutSession(checkout *CheckoutService, order *models.Order, intent *models.PaymentIntent, window time.Duration, cfg SessionConfig, onUpdate func(*models.Order), prior ...ExpiryCandidate) *CheckoutSession {
	s := &CheckoutSession{
		OrderID:  order.ID,
		checkout: checkout,
		onUpdate: onUpdate,
		done:     make(chan struct{}),
	}

	candidates := []ExpiryCandidate{}
	if order.ReservationExpiresAt != nil {
		candidates = append(candidates, ExpiryCandidate{Source: SourceExplicit, At: *order.ReservationExpiresAt})
	}
	for _, p := range prior {
		if p.Source != SourceNone && !p.At.IsZero() {
			candidates = append(candidates, ExpiryCandidate{Source: SourceResolved, At: p.At})
		}
	}
	if intent != nil && !intent.ExpiresAt.IsZero() {
		candidates = append(candidates, ExpiryCandidate{Source: SourceIntent, At: intent.ExpiresAt})
	}
	if !order.CreatedAt.IsZero() && window > 0 {
		candidates = append(candidates, FallbackExpiry(order.CreatedAt, window))
	}

	if resolved, ok := ResolveExpiry(candidates...); ok {
		s.expiry = resolved
		s.countdown = NewCountdown(resolved.At, cfg.TickInterval, nil, s.onLocalExpire)
	}

	s.poller = NewConfirmationPoller(
		cfg.PollInterval,
		func(ctx context.Context) (*models.Order, error) { return checkout.GetOrder(order.ID) },
		s.onPolledStatus,
		func(err error) { log.Printf("Warning: status poll failed for order %d: %v", order.ID, err) },
	)

	return s
}

// Expiry returns the resolved deadline and its source. Source is
// SourceNone when the session runs without a countdown.
func (s *CheckoutSession) Expiry() ExpiryCandidate {
	return s.expiry
}

// Remaining returns the time left on the countdown, or zero when no
// deadline was resolved
func (s *CheckoutSession) Remaining() time.Duration {
	if s.countdown == nil {
		return 0
	}
	return s.countdown.Remaining()
}

// Start runs the countdown and poller on their own goroutines
func (s *CheckoutSession) Start(ctx context.Context) {
	if s.countdown != nil {
		go s.countdown.Start()
	}
	go s.poller.Start(ctx)
}

// Done is closed when the session has finalized or been torn down
func (s *CheckoutSession) Done() <-chan struct{} {
	return s.done
}

// onPolledStatus receives each polled order state. A terminal status
// finalizes the session.
func (s *CheckoutSession) onPolledStatus(order *models.Order) {
	if s.onUpdate != nil {
		s.onUpdate(order)
	}
	if order.PaymentStatus.IsTerminal() {
		s.finalize()
	}
}

// onLocalExpire fires when the countdown hits zero. The order is
// re-fetched before anything is written: a payment that landed during the
// final tick wins over expiry.
func (s *CheckoutSession) onLocalExpire() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	order, err := s.checkout.GetOrder(s.OrderID)
	if err != nil {
		log.Printf("Warning: failed to load order %d at expiry: %v", s.OrderID, err)
		s.finalize()
		return
	}

	if !order.PaymentStatus.IsTerminal() {
		if _, err := s.checkout.ExpireOrder(ctx, order); err != nil {
			log.Printf("Warning: failed to expire order %s: %v", order.Code, err)
		}
	}

	if s.onUpdate != nil {
		if fresh, err := s.checkout.GetOrder(s.OrderID); err == nil {
			s.onUpdate(fresh)
		}
	}

	s.finalize()
}

// finalize tears the session down exactly once
func (s *CheckoutSession) finalize() {
	s.mu.Lock()
	if s.finalized {
		s.mu.Unlock()
		return
	}
	s.finalized = true
	s.mu.Unlock()

	if s.countdown != nil {
		s.countdown.Stop()
	}
	s.poller.Stop()
	close(s.done)
}

// Teardown stops the session without expiring anything, e.g. when the
// buyer navigates away
func (s *CheckoutSession) Teardown() {
	s.finalize()
}

// SessionRegistry keeps at most one live checkout session per order
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[int]*CheckoutSession
}

// NewSessionRegistry creates an empty session registry
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[int]*CheckoutSession)}
}

// Get returns the live session for an order, if any
func (r *SessionRegistry) Get(orderID int) (*CheckoutSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[orderID]
	return s, ok
}

// Put registers a session for its order, tearing down any previous one
func (r *SessionRegistry) Put(session *CheckoutSession) {
	r.mu.Lock()
	previous := r.sessions[session.OrderID]
	r.sessions[session.OrderID] = session
	r.mu.Unlock()

	if previous != nil {
		previous.Teardown()
	}

	go func() {
		<-session.Done()
		r.remove(session.OrderID, session)
	}()
}

// remove drops the session only if it is still the registered one
func (r *SessionRegistry) remove(orderID int, session *CheckoutSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[orderID] == session {
		delete(r.sessions, orderID)
	}
}

// TeardownAll stops every live session, e.g. on shutdown
func (r *SessionRegistry) TeardownAll() {
	r.mu.Lock()
	sessions := make([]*CheckoutSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Teardown()
	}
}
