package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/masala/internal/models"
	"github.com/example/masala/internal/utils"
)

// MenuHandler manages the menu catalog. Customers read it; admins edit it.
type MenuHandler struct {
	db *gorm.DB
}

// NewMenuHandler constructs MenuHandler.
func NewMenuHandler(db *gorm.DB) *MenuHandler {
	return &MenuHandler{db: db}
}

// ListItems returns active menu items, optionally filtered by category.
func (h *MenuHandler) ListItems(c *fiber.Ctx) error {
	query := h.db.Model(&models.MenuItem{}).Where("active = true")

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if c.Query("in_stock") == "true" {
		query = query.Where("in_stock = true")
	}

	var items []models.MenuItem
	if err := query.Preload("Portions").Order("category, name").Find(&items).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": items})
}

// GetItem returns a single menu item.
func (h *MenuHandler) GetItem(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var item models.MenuItem
	if err := h.db.Preload("Portions").First(&item, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "menu item not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": item})
}

type portionRequest struct {
	Portion string  `json:"portion" validate:"required,oneof=half full single"`
	Price   float64 `json:"price" validate:"required,gt=0"`
}

type menuItemRequest struct {
	Name        string           `json:"name" validate:"required,max=120"`
	Description string           `json:"description"`
	Category    string           `json:"category" validate:"required,max=60"`
	SlowPrep    bool             `json:"slow_prep"`
	InStock     *bool            `json:"in_stock"`
	Active      *bool            `json:"active"`
	Portions    []portionRequest `json:"portions" validate:"required,min=1,dive"`
}

// CreateItem adds a catalog entry with its portion prices.
func (h *MenuHandler) CreateItem(c *fiber.Ctx) error {
	var req menuItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.Validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid menu item fields")
	}

	item := models.MenuItem{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		SlowPrep:    req.SlowPrep,
		InStock:     true,
		Active:      true,
	}
	if req.InStock != nil {
		item.InStock = *req.InStock
	}
	if req.Active != nil {
		item.Active = *req.Active
	}
	for _, p := range req.Portions {
		item.Portions = append(item.Portions, models.MenuPortion{Portion: p.Portion, Price: p.Price})
	}

	if err := h.db.Create(&item).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

// UpdateItem edits catalog fields. Portions are replaced wholesale when
// provided; existing carts keep their snapshotted prices either way.
func (h *MenuHandler) UpdateItem(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var item models.MenuItem
	if err := h.db.First(&item, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "menu item not found")
		}
		return err
	}

	var req menuItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.InStock != nil {
		updates["in_stock"] = *req.InStock
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	updates["slow_prep"] = req.SlowPrep

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.MenuItem{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		if len(req.Portions) == 0 {
			return nil
		}
		if err := tx.Where("menu_item_id = ?", id).Delete(&models.MenuPortion{}).Error; err != nil {
			return err
		}
		for _, p := range req.Portions {
			portion := models.MenuPortion{MenuItemID: id, Portion: p.Portion, Price: p.Price}
			if err := tx.Create(&portion).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

// DeleteItem retires a menu item. Rows are kept so order items still
// reference them; the item simply stops being orderable.
func (h *MenuHandler) DeleteItem(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	res := h.db.Model(&models.MenuItem{}).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "menu item not found")
	}

	return c.JSON(fiber.Map{"success": true})
}
