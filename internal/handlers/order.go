package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/masala/internal/middleware"
	"github.com/example/masala/internal/models"
	"github.com/example/masala/internal/services"
	"github.com/example/masala/internal/utils"
)

// OrderHandler manages customer-facing order endpoints.
type OrderHandler struct {
	db     *gorm.DB
	orders *services.OrderService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, orders *services.OrderService) *OrderHandler {
	return &OrderHandler{db: db, orders: orders}
}

type checkoutRequest struct {
	OrderType         string `json:"order_type" validate:"required,oneof=dine-in takeaway"`
	TableNumber       *int   `json:"table_number" validate:"omitempty,min=1"`
	PaymentMethod     string `json:"payment_method" validate:"required,oneof=cash card upi"`
	LoyaltyPointsUsed int64  `json:"loyalty_points_used" validate:"min=0"`
	Notes             string `json:"notes" validate:"max=500"`
}

// Checkout converts the user's cart into an order.
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.Validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid checkout request")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	order, err := h.orders.Checkout(userID, user.Phone, services.CheckoutInput{
		OrderType:         req.OrderType,
		TableNumber:       req.TableNumber,
		PaymentMethod:     req.PaymentMethod,
		LoyaltyPointsUsed: req.LoyaltyPointsUsed,
		Notes:             req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCartEmpty):
			return fiber.NewError(fiber.StatusBadRequest, "cart is empty")
		case errors.Is(err, services.ErrTableRequired):
			return fiber.NewError(fiber.StatusBadRequest, "table number required for dine-in orders")
		case errors.Is(err, services.ErrTableNotAllowed):
			return fiber.NewError(fiber.StatusBadRequest, "table number not allowed for takeaway orders")
		case errors.Is(err, services.ErrInvalidOrderType):
			return fiber.NewError(fiber.StatusBadRequest, "invalid order type")
		case errors.Is(err, services.ErrPointsExceedTotal):
			return fiber.NewError(fiber.StatusBadRequest, "loyalty points exceed payable total")
		case errors.Is(err, services.ErrInsufficientPoints):
			return fiber.NewError(fiber.StatusConflict, "insufficient loyalty points")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":                  order.ID,
			"order_number":        order.OrderNumber,
			"status":              order.Status,
			"placed_at":           order.PlacedAt,
			"subtotal":            order.Subtotal,
			"gst":                 order.GST,
			"loyalty_points_used": order.LoyaltyPointsUsed,
			"total":               order.Total,
			"estimated_minutes":   order.EstimatedMinutes,
		},
	})
}

// ListOrders returns the authenticated user's orders.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{}).Where("user_id = ?", userID)

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("placed_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOrder returns a single order with its status history, owner-only.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.Preload("Items").
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		First(&order, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"max=300"`
}

// CancelOrder cancels the user's own non-terminal order.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req cancelRequest
	_ = c.BodyParser(&req)

	// Ownership check before the cancel mutation.
	var order models.Order
	if err := h.db.Select("id").First(&order, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	updated, err := h.orders.Cancel(id, userID, models.RoleUser, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		case errors.Is(err, services.ErrInvalidTransition):
			return fiber.NewError(fiber.StatusConflict, "order can no longer be cancelled")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"id":     updated.ID,
		"status": updated.Status,
	}})
}

type feedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=500"`
}

// AddFeedback attaches a one-time rating to a delivered order.
func (h *OrderHandler) AddFeedback(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req feedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.Validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "rating must be between 1 and 5")
	}

	order, err := h.orders.AddFeedback(id, userID, req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		case errors.Is(err, services.ErrFeedbackNotAllowed):
			return fiber.NewError(fiber.StatusConflict, "feedback only allowed on delivered orders")
		case errors.Is(err, services.ErrFeedbackExists):
			return fiber.NewError(fiber.StatusConflict, "feedback already recorded")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"id":     order.ID,
		"rating": order.Rating,
	}})
}
