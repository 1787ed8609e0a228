package services

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/masala/internal/models"
)

// CartService manages the single open cart per user. Every mutation ends
// with a recompute-and-persist step so stored totals are always the pure
// function of the current lines.
type CartService struct {
	db *gorm.DB
}

// NewCartService constructs a CartService.
func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

// Get returns the user's cart, creating an empty one on first access.
func (s *CartService) Get(userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.Preload("Items").Where("user_id = ?", userID).First(&cart).Error
	if err == gorm.ErrRecordNotFound {
		cart = models.Cart{UserID: userID, LastActivityAt: time.Now()}
		if err := s.db.Create(&cart).Error; err != nil {
			return nil, err
		}
		return &cart, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// lockForUpdate loads the cart with a row lock inside tx, creating an
// empty cart on first access. Every mutation and checkout locks the same
// row, so cart operations for one user serialize.
func (s *CartService) lockForUpdate(tx *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err == gorm.ErrRecordNotFound {
		cart = models.Cart{UserID: userID, LastActivityAt: time.Now()}
		if err := tx.Create(&cart).Error; err != nil {
			return nil, err
		}
		return &cart, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddLine snapshots the catalog price for (itemID, portion) and merges it
// into the cart; an existing line for the same pair gains quantity instead
// of duplicating.
func (s *CartService) AddLine(userID, menuItemID uuid.UUID, portion string, qty int) (*models.Cart, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}
	if !models.ValidPortion(portion) {
		return nil, ErrInvalidPortion
	}

	var item models.MenuItem
	err := s.db.Preload("Portions").
		Where("id = ? AND active = true AND in_stock = true", menuItemID).
		First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	price, ok := item.PortionPrice(portion)
	if !ok {
		return nil, ErrItemNotFound
	}

	var cart *models.Cart
	err = s.db.Transaction(func(tx *gorm.DB) error {
		cart, err = s.lockForUpdate(tx, userID)
		if err != nil {
			return err
		}

		if idx := cart.FindLine(menuItemID, portion); idx >= 0 {
			line := &cart.Items[idx]
			line.Quantity += qty
			if err := tx.Model(&models.CartItem{}).Where("id = ?", line.ID).
				Update("quantity", line.Quantity).Error; err != nil {
				return err
			}
		} else {
			line := models.CartItem{
				CartID:     cart.ID,
				MenuItemID: menuItemID,
				Name:       item.Name,
				Portion:    portion,
				UnitPrice:  price,
				Quantity:   qty,
				SlowPrep:   item.SlowPrep,
			}
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
			cart.Items = append(cart.Items, line)
		}
		return s.persistTotals(tx, cart)
	})
	if err != nil {
		return nil, err
	}

	return cart, nil
}

// SetQuantity overwrites a line's quantity; zero or less removes the line.
func (s *CartService) SetQuantity(userID, menuItemID uuid.UUID, portion string, qty int) (*models.Cart, error) {
	var cart *models.Cart
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		cart, err = s.lockForUpdate(tx, userID)
		if err != nil {
			return err
		}

		idx := cart.FindLine(menuItemID, portion)
		if idx < 0 {
			return ErrLineNotFound
		}

		line := cart.Items[idx]
		if qty <= 0 {
			if err := tx.Delete(&models.CartItem{}, "id = ?", line.ID).Error; err != nil {
				return err
			}
			cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		} else {
			cart.Items[idx].Quantity = qty
			if err := tx.Model(&models.CartItem{}).Where("id = ?", line.ID).
				Update("quantity", qty).Error; err != nil {
				return err
			}
		}
		return s.persistTotals(tx, cart)
	})
	if err != nil {
		return nil, err
	}

	return cart, nil
}

// RemoveLine deletes a line outright.
func (s *CartService) RemoveLine(userID, menuItemID uuid.UUID, portion string) (*models.Cart, error) {
	return s.SetQuantity(userID, menuItemID, portion, 0)
}

// Clear empties the cart and zeroes its totals.
func (s *CartService) Clear(userID uuid.UUID) (*models.Cart, error) {
	var cart *models.Cart
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		cart, err = s.lockForUpdate(tx, userID)
		if err != nil {
			return err
		}
		return s.clearLocked(tx, cart)
	})
	if err != nil {
		return nil, err
	}

	return cart, nil
}

// clearLocked empties a cart inside an existing transaction. Checkout uses
// it so clearing participates in the same atomic unit as order creation.
func (s *CartService) clearLocked(tx *gorm.DB, cart *models.Cart) error {
	if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	cart.Items = nil
	return s.persistTotals(tx, cart)
}

// PurgeStale deletes carts with no activity since the cutoff. Storage
// hygiene only, not a business rule.
func (s *CartService) PurgeStale(cutoff time.Time) (int64, error) {
	var ids []uuid.UUID
	if err := s.db.Model(&models.Cart{}).
		Where("last_activity_at < ?", cutoff).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id IN ?", ids).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Cart{}).Error
	})
	return int64(len(ids)), err
}

func (s *CartService) persistTotals(tx *gorm.DB, cart *models.Cart) error {
	cart.Recompute()
	cart.LastActivityAt = time.Now()

	for i := range cart.Items {
		if err := tx.Model(&models.CartItem{}).Where("id = ?", cart.Items[i].ID).
			Update("line_total", cart.Items[i].LineTotal).Error; err != nil {
			return err
		}
	}

	return tx.Model(&models.Cart{}).Where("id = ?", cart.ID).
		Updates(map[string]interface{}{
			"subtotal":         cart.Subtotal,
			"gst":              cart.GST,
			"total":            cart.Total,
			"item_count":       cart.ItemCount,
			"last_activity_at": cart.LastActivityAt,
		}).Error
}
