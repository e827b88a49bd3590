package services

import (
	"context"
	"log"
	"time"
)

// ExpirySweeper is the server-side safety net for reservation deadlines.
// It periodically scans for orders whose deadline has passed and expires
// them through the same conditional transition the sessions use, so a
// payment confirmation racing the sweep always wins.
type ExpirySweeper struct {
	checkout  *CheckoutService
	orderRepo OrderStore
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewExpirySweeper creates a sweeper scanning at the given interval
func NewExpirySweeper(checkout *CheckoutService, orderRepo OrderStore, interval time.Duration) *ExpirySweeper {
	return &ExpirySweeper{
		checkout:  checkout,
		orderRepo: orderRepo,
		interval:  interval,
		batchSize: 100,
		now:       time.Now,
	}
}

// Run sweeps until the context is cancelled. It blocks; callers run it on
// its own goroutine.
func (s *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("Expiry sweeper started (interval %s)", s.interval)

	for {
		select {
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil {
				log.Printf("Warning: expiry sweep failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("Expiry sweeper stopped")
			return
		}
	}
}

// SweepOnce expires every overdue order it can find in one batch. Orders
// that reach a terminal state between the scan and the write are skipped
// silently.
func (s *ExpirySweeper) SweepOnce(ctx context.Context) error {
	overdue, err := s.orderRepo.FindExpired(s.now(), s.batchSize)
	if err != nil {
		return err
	}

	for _, order := range overdue {
		expired, err := s.checkout.ExpireOrder(ctx, order)
		if err != nil {
			log.Printf("Warning: failed to expire order %s: %v", order.Code, err)
			continue
		}
		if expired {
			log.Printf("Expired order %s (deadline passed)", order.Code)
		}
	}

	return nil
}
