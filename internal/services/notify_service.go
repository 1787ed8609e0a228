package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Notification event types.
const (
	EventOrderCreated = "order.created"
	EventOrderStatus  = "order.status"
)

// StaffChannel receives every order event; each user additionally gets a
// private channel for their own orders.
const StaffChannel = "orders:staff"

// UserChannel names the per-user event channel.
func UserChannel(userID uuid.UUID) string {
	return fmt.Sprintf("orders:user:%s", userID)
}

// OrderEvent is the payload pushed to websocket subscribers.
type OrderEvent struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Status      string    `json:"status"`
	Total       float64   `json:"total"`
	At          time.Time `json:"at"`
}

// NotifyService fans order events out over redis pub/sub. Dispatch is
// fire-and-forget: a failed publish is logged and never propagated to the
// operation that produced the event.
type NotifyService struct {
	rdb *redis.Client
}

// NewNotifyService creates a new NotifyService.
func NewNotifyService(rdb *redis.Client) *NotifyService {
	return &NotifyService{rdb: rdb}
}

// Publish sends an event to the staff channel and the owner's channel.
func (s *NotifyService) Publish(userID uuid.UUID, event OrderEvent) {
	if s.rdb == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Notify] Failed to marshal event: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	for _, channel := range []string{StaffChannel, UserChannel(userID)} {
		if err := s.rdb.Publish(ctx, channel, payload).Err(); err != nil {
			log.Printf("[Notify] Publish to %s failed: %v", channel, err)
		}
	}
}

// Subscribe opens a pub/sub subscription for the websocket layer.
func (s *NotifyService) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return s.rdb.Subscribe(ctx, channel)
}
