package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// GSTRate is the tax applied to the cart subtotal. GST is always computed
// on the pre-discount subtotal and rounded to the nearest rupee.
const GSTRate = 0.05

// Cart is the single open cart per user. Totals are derived columns:
// they are recomputed from the lines after every mutation and never
// edited independently.
type Cart struct {
	BaseModel
	UserID         uuid.UUID  `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	Items          []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	Subtotal       float64    `json:"subtotal"`
	GST            float64    `json:"gst"`
	Total          float64    `json:"total"`
	ItemCount      int        `json:"item_count"`
	LastActivityAt time.Time  `json:"last_activity_at"`
}

// CartItem is one selected menu line. Name and unit price are snapshots
// taken from the catalog when the line was added.
type CartItem struct {
	BaseModel
	CartID     uuid.UUID `gorm:"type:uuid;index" json:"cart_id"`
	MenuItemID uuid.UUID `gorm:"type:uuid" json:"menu_item_id"`
	Name       string    `json:"name"`
	Portion    string    `json:"portion"`
	UnitPrice  float64   `json:"unit_price"`
	Quantity   int       `json:"quantity"`
	LineTotal  float64   `json:"line_total"`
	SlowPrep   bool      `json:"slow_prep"`
}

// Recompute derives line totals, subtotal, GST, total and item count from
// the current lines. This is the only pricing formula in the system; cart
// mutations and checkout both go through it.
func (c *Cart) Recompute() {
	var subtotal float64
	var count int
	for i := range c.Items {
		line := &c.Items[i]
		line.LineTotal = line.UnitPrice * float64(line.Quantity)
		subtotal += line.LineTotal
		count += line.Quantity
	}
	c.Subtotal = subtotal
	c.GST = math.Round(subtotal * GSTRate)
	c.Total = c.Subtotal + c.GST
	c.ItemCount = count
}

// FindLine returns the index of the line matching (menuItemID, portion),
// or -1. Lines for the same pair merge by quantity instead of duplicating.
func (c *Cart) FindLine(menuItemID uuid.UUID, portion string) int {
	for i := range c.Items {
		if c.Items[i].MenuItemID == menuItemID && c.Items[i].Portion == portion {
			return i
		}
	}
	return -1
}

// SlowItemCount counts distinct slow-prep lines, used by the preparation
// time estimate.
func (c *Cart) SlowItemCount() int {
	n := 0
	for i := range c.Items {
		if c.Items[i].SlowPrep {
			n++
		}
	}
	return n
}
