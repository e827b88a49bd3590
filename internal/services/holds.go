package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"event-checkout-platform/internal/models"
)

// InventoryHolds keeps per-ticket-type availability counters and
// time-bounded holds in Redis. A hold pins the reserved quantities under
// the order code so the expiry sweep can put them back; confirming a paid
// order drops the hold while keeping the counters decremented.
//
// Availability is opt-in per ticket type: a counter that was never seeded
// means unconstrained capacity and is left untouched.
type InventoryHolds struct {
	rdb *redis.Client
}

// NewInventoryHolds creates a Redis-backed hold store
func NewInventoryHolds(rdb *redis.Client) *InventoryHolds {
	return &InventoryHolds{rdb: rdb}
}

type heldItem struct {
	TicketTypeID int `json:"ticket_type_id"`
	Quantity     int `json:"quantity"`
}

type holdRecord struct {
	EventID int        `json:"event_id"`
	Items   []heldItem `json:"items"`
}

func availabilityKey(eventID, ticketTypeID int) string {
	return fmt.Sprintf("event:%d:available:%d", eventID, ticketTypeID)
}

func holdKey(orderCode string) string {
	return fmt.Sprintf("hold:order:%s", orderCode)
}

// SetAvailable seeds the availability counter for a ticket type
func (h *InventoryHolds) SetAvailable(ctx context.Context, eventID, ticketTypeID, quantity int) error {
	return h.rdb.Set(ctx, availabilityKey(eventID, ticketTypeID), quantity, 0).Err()
}

// Available reads the availability counter for a ticket type. The second
// return value is false when no counter was seeded.
func (h *InventoryHolds) Available(ctx context.Context, eventID, ticketTypeID int) (int, bool, error) {
	val, err := h.rdb.Get(ctx, availabilityKey(eventID, ticketTypeID)).Int()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read availability: %w", err)
	}
	return val, true, nil
}

// Reserve decrements the availability counters for every cart line and
// records a hold under the order code with the given TTL. When any line
// would go negative the already-taken decrements are compensated and
// ErrSoldOut is returned.
func (h *InventoryHolds) Reserve(ctx context.Context, orderCode string, eventID int, items []models.CartItem, ttl time.Duration) error {
	var taken []heldItem

	rollback := func() {
		for _, item := range taken {
			if err := h.rdb.IncrBy(ctx, availabilityKey(eventID, item.TicketTypeID), int64(item.Quantity)).Err(); err != nil {
				log.Printf("Warning: failed to roll back hold for event %d ticket type %d: %v", eventID, item.TicketTypeID, err)
			}
		}
	}

	for _, item := range items {
		key := availabilityKey(eventID, item.TicketTypeID)

		exists, err := h.rdb.Exists(ctx, key).Result()
		if err != nil {
			rollback()
			return fmt.Errorf("failed to check availability: %w", err)
		}
		if exists == 0 {
			// No counter seeded for this ticket type: unconstrained
			continue
		}

		remaining, err := h.rdb.DecrBy(ctx, key, int64(item.Quantity)).Result()
		if err != nil {
			rollback()
			return fmt.Errorf("failed to reserve tickets: %w", err)
		}

		if remaining < 0 {
			// Went below zero: give this line back too, then the rest
			if err := h.rdb.IncrBy(ctx, key, int64(item.Quantity)).Err(); err != nil {
				log.Printf("Warning: failed to compensate oversold counter for event %d ticket type %d: %v", eventID, item.TicketTypeID, err)
			}
			rollback()
			return models.ErrSoldOut
		}

		taken = append(taken, heldItem{TicketTypeID: item.TicketTypeID, Quantity: item.Quantity})
	}

	record := holdRecord{EventID: eventID, Items: taken}
	data, err := json.Marshal(record)
	if err != nil {
		rollback()
		return fmt.Errorf("failed to encode hold record: %w", err)
	}

	if err := h.rdb.Set(ctx, holdKey(orderCode), data, ttl).Err(); err != nil {
		rollback()
		return fmt.Errorf("failed to store hold: %w", err)
	}

	return nil
}

// Release puts a hold's quantities back on the availability counters and
// deletes the hold. Releasing an unknown or already-released hold is a
// no-op.
func (h *InventoryHolds) Release(ctx context.Context, orderCode string) error {
	key := holdKey(orderCode)

	data, err := h.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read hold: %w", err)
	}

	var record holdRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return fmt.Errorf("failed to decode hold record: %w", err)
	}

	for _, item := range record.Items {
		if err := h.rdb.IncrBy(ctx, availabilityKey(record.EventID, item.TicketTypeID), int64(item.Quantity)).Err(); err != nil {
			return fmt.Errorf("failed to release hold: %w", err)
		}
	}

	return h.rdb.Del(ctx, key).Err()
}

// Confirm deletes a hold without restoring the counters: the reserved
// units were sold
func (h *InventoryHolds) Confirm(ctx context.Context, orderCode string) error {
	return h.rdb.Del(ctx, holdKey(orderCode)).Err()
}
