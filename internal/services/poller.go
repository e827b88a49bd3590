package services

import (
	"context"
	"sync"
	"time"

	"event-checkout-platform/internal/models"
)

// ConfirmationPoller periodically re-fetches an order's payment status
// while the buyer waits on the confirmation screen. Transient fetch
// failures are reported and polling continues; only a terminal status or
// an explicit Stop ends the loop.
type ConfirmationPoller struct {
	fetch    func(ctx context.Context) (*models.Order, error)
	interval time.Duration

	onStatus func(order *models.Order)
	onError  func(err error)

	mu      sync.Mutex
	stopped bool
	stopCh  chan struct{}
}

// NewConfirmationPoller creates a poller over the given fetch function
func NewConfirmationPoller(interval time.Duration, fetch func(ctx context.Context) (*models.Order, error), onStatus func(*models.Order), onError func(error)) *ConfirmationPoller {
	return &ConfirmationPoller{
		fetch:    fetch,
		interval: interval,
		onStatus: onStatus,
		onError:  onError,
		stopCh:   make(chan struct{}),
	}
}

// Start polls until the order reaches a terminal status or Stop is called.
// It blocks; callers run it on its own goroutine.
func (p *ConfirmationPoller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if p.poll(ctx) {
				return
			}
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// poll fetches once and returns true when polling should end
func (p *ConfirmationPoller) poll(ctx context.Context) bool {
	order, err := p.fetch(ctx)
	if err != nil {
		// Transient failure: report it and keep the loop alive
		if p.onError != nil {
			p.onError(err)
		}
		return false
	}

	if p.onStatus != nil {
		p.onStatus(order)
	}

	return order.PaymentStatus.IsTerminal()
}

// Stop ends the polling loop. Safe to call more than once.
func (p *ConfirmationPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.stopped = true
	close(p.stopCh)
}
