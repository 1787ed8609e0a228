package models

import "github.com/google/uuid"

// Serving size variants. Each portion of an item carries its own price.
const (
	PortionHalf   = "half"
	PortionFull   = "full"
	PortionSingle = "single"
)

// ValidPortion reports whether p is a known portion label.
func ValidPortion(p string) bool {
	return p == PortionHalf || p == PortionFull || p == PortionSingle
}

// MenuItem is a catalog entry. Carts snapshot the portion price at
// add-time and never re-read it, so later menu edits do not reprice
// existing carts or orders.
type MenuItem struct {
	BaseModel
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Category    string        `gorm:"index" json:"category"`
	SlowPrep    bool          `gorm:"default:false" json:"slow_prep"`
	InStock     bool          `gorm:"default:true" json:"in_stock"`
	Active      bool          `gorm:"default:true" json:"active"`
	Portions    []MenuPortion `json:"portions,omitempty"`
}

// MenuPortion is one orderable serving of a menu item.
type MenuPortion struct {
	BaseModel
	MenuItemID uuid.UUID `gorm:"type:uuid;index" json:"menu_item_id"`
	Portion    string    `json:"portion"`
	Price      float64   `json:"price"`
}

// PortionPrice returns the price for the requested portion label.
func (m *MenuItem) PortionPrice(portion string) (float64, bool) {
	for _, p := range m.Portions {
		if p.Portion == portion {
			return p.Price, true
		}
	}
	return 0, false
}
