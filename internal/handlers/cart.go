package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/masala/internal/middleware"
	"github.com/example/masala/internal/services"
	"github.com/example/masala/internal/utils"
)

// CartHandler manages the authenticated user's cart.
type CartHandler struct {
	carts *services.CartService
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(carts *services.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// GetCart returns the user's cart, creating it on first access.
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	cart, err := h.carts.Get(userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": cart})
}

type addLineRequest struct {
	MenuItemID string `json:"menu_item_id" validate:"required,uuid"`
	Portion    string `json:"portion" validate:"required,oneof=half full single"`
	Quantity   int    `json:"quantity" validate:"required,min=1"`
}

// AddLine adds or merges a cart line.
func (h *CartHandler) AddLine(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req addLineRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.Validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid cart line")
	}

	itemID, err := uuid.Parse(req.MenuItemID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid menu item id")
	}

	cart, err := h.carts.AddLine(userID, itemID, req.Portion, req.Quantity)
	if err != nil {
		return mapCartError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": cart})
}

type updateLineRequest struct {
	MenuItemID string `json:"menu_item_id" validate:"required,uuid"`
	Portion    string `json:"portion" validate:"required,oneof=half full single"`
	Quantity   int    `json:"quantity"`
}

// UpdateLine overwrites a line's quantity; zero removes the line.
func (h *CartHandler) UpdateLine(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateLineRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.Validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid cart line")
	}

	itemID, err := uuid.Parse(req.MenuItemID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid menu item id")
	}

	cart, err := h.carts.SetQuantity(userID, itemID, req.Portion, req.Quantity)
	if err != nil {
		return mapCartError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": cart})
}

// RemoveLine deletes a single line.
func (h *CartHandler) RemoveLine(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	itemID, err := uuid.Parse(c.Params("itemId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid menu item id")
	}
	portion := c.Query("portion", "full")

	cart, err := h.carts.RemoveLine(userID, itemID, portion)
	if err != nil {
		return mapCartError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": cart})
}

// ClearCart empties the cart.
func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	cart, err := h.carts.Clear(userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": cart})
}

func mapCartError(err error) error {
	switch {
	case errors.Is(err, services.ErrItemNotFound):
		return fiber.NewError(fiber.StatusNotFound, "menu item not available")
	case errors.Is(err, services.ErrLineNotFound):
		return fiber.NewError(fiber.StatusNotFound, "cart line not found")
	case errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrInvalidPortion):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return err
}
