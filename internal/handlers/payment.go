package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/example/masala/internal/services"
	"github.com/example/masala/internal/utils"
)

// PaymentHandler receives payment gateway callbacks. The gateway performs
// its own signature verification before calling back; the core only
// records the verdict on the order.
type PaymentHandler struct {
	orders *services.OrderService
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(orders *services.OrderService) *PaymentHandler {
	return &PaymentHandler{orders: orders}
}

type gatewayCallbackRequest struct {
	OrderNumber   string `json:"order_number" validate:"required"`
	TransactionID string `json:"transaction_id" validate:"required"`
	Status        string `json:"status" validate:"required,oneof=paid failed"`
}

// Callback marks the order's payment state. A failed payment is recorded
// but never rolls the order back; order and payment are decoupled.
func (h *PaymentHandler) Callback(c *fiber.Ctx) error {
	var req gatewayCallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.Validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid callback payload")
	}

	order, err := h.orders.MarkPayment(req.OrderNumber, req.TransactionID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		case errors.Is(err, services.ErrInvalidPaymentStatus):
			return fiber.NewError(fiber.StatusBadRequest, "invalid payment status")
		}
		return err
	}

	log.Printf("[Payment] Order %s marked %s (tx %s)", order.OrderNumber, order.PaymentStatus, order.TransactionID)

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"order_number":   order.OrderNumber,
		"payment_status": order.PaymentStatus,
	}})
}
