package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the kitchen workflow state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

var statusRank = map[OrderStatus]int{
	StatusPending:   0,
	StatusConfirmed: 1,
	StatusPreparing: 2,
	StatusReady:     3,
	StatusDelivered: 4,
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s OrderStatus) bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether the workflow permits moving from s to
// next. Transitions only move forward through the state machine;
// cancellation is reachable from every non-terminal state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// Order types.
const (
	OrderTypeDineIn   = "dine-in"
	OrderTypeTakeaway = "takeaway"
)

// Payment states tracked on the order.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

// Order is an immutable-items, mutable-status aggregate. Pricing is
// snapshotted from the cart at creation and never recalculated; saving an
// order for an unrelated reason (feedback, payment callback) must not
// touch the pricing block.
type Order struct {
	BaseModel
	UserID            uuid.UUID            `gorm:"type:uuid;index" json:"user_id"`
	User              *User                `json:"user,omitempty"`
	OrderNumber       string               `gorm:"uniqueIndex" json:"order_number"`
	Phone             string               `json:"phone"`
	OrderType         string               `json:"order_type"`
	TableNumber       *int                 `json:"table_number,omitempty"`
	Status            OrderStatus          `gorm:"index" json:"status"`
	PlacedAt          time.Time            `json:"placed_at"`
	Subtotal          float64              `json:"subtotal"`
	GST               float64              `json:"gst"`
	Discount          float64              `json:"discount"`
	LoyaltyPointsUsed int64                `json:"loyalty_points_used"`
	Total             float64              `json:"total"`
	EstimatedMinutes  int                  `json:"estimated_minutes"`
	PreparingAt       *time.Time           `json:"preparing_at"`
	DeliveredAt       *time.Time           `json:"delivered_at"`
	ActualMinutes     *int                 `json:"actual_minutes"`
	PaymentMethod     string               `json:"payment_method"`
	PaymentStatus     string               `gorm:"default:pending" json:"payment_status"`
	TransactionID     string               `json:"transaction_id"`
	Rating            *int                 `json:"rating,omitempty"`
	FeedbackComment   string               `json:"feedback_comment,omitempty"`
	FeedbackAt        *time.Time           `json:"feedback_at,omitempty"`
	Notes             string               `json:"notes"`
	Items             []OrderItem          `json:"items,omitempty"`
	History           []OrderStatusHistory `json:"history,omitempty"`
}

// OrderItem is a line frozen at checkout.
type OrderItem struct {
	BaseModel
	OrderID    uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	MenuItemID uuid.UUID `gorm:"type:uuid" json:"menu_item_id"`
	Name       string    `json:"name"`
	Portion    string    `json:"portion"`
	UnitPrice  float64   `json:"unit_price"`
	Quantity   int       `json:"quantity"`
	LineTotal  float64   `json:"line_total"`
	SlowPrep   bool      `json:"slow_prep"`
}

// OrderStatusHistory is the append-only audit trail of status changes.
type OrderStatusHistory struct {
	BaseModel
	OrderID    uuid.UUID   `gorm:"type:uuid;index" json:"order_id"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status"`
	ActorID    *uuid.UUID  `gorm:"type:uuid" json:"actor_id"`
	ActorRole  string      `json:"actor_role"`
	Note       string      `json:"note"`
}

// GenerateOrderNumber builds a human-readable, globally unique identifier:
// a fixed prefix, the placement time in base36 and a random suffix.
func GenerateOrderNumber(at time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("MSL-%s-%04d", strings.ToUpper(strconv.FormatInt(at.Unix(), 36)), n.Int64()), nil
}

// Peak lunch and dinner windows add a kitchen-load penalty to estimates.
func peakWindow(at time.Time) bool {
	h := at.Hour()
	return (h >= 12 && h < 14) || (h >= 19 && h < 22)
}

// EstimatePrepMinutes derives a display-only preparation estimate from the
// order size, the number of slow-prep lines and the time of day. It is a
// hint, never a scheduling guarantee.
func EstimatePrepMinutes(itemCount, slowItems int, at time.Time) int {
	minutes := 15 + 2*itemCount + 5*slowItems
	if peakWindow(at) {
		minutes += 10
	}
	if minutes > 60 {
		minutes = 60
	}
	return minutes
}
