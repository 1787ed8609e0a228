package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/masala/internal/middleware"
	"github.com/example/masala/internal/models"
	"github.com/example/masala/internal/services"
	"github.com/example/masala/internal/utils"
)

// StaffHandler serves the kitchen console: the order queue, status
// advancement and daily reporting.
type StaffHandler struct {
	db     *gorm.DB
	orders *services.OrderService
}

// NewStaffHandler constructs StaffHandler.
func NewStaffHandler(db *gorm.DB, orders *services.OrderService) *StaffHandler {
	return &StaffHandler{db: db, orders: orders}
}

// ListOrders returns all orders, filterable by status and day.
func (h *StaffHandler) ListOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if day := c.Query("date"); day != "" {
		parsed, err := time.Parse("2006-01-02", day)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		}
		query = query.Where("placed_at >= ? AND placed_at < ?", parsed, parsed.Add(24*time.Hour))
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

type advanceRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed preparing ready delivered cancelled"`
	Note   string `json:"note" validate:"max=300"`
}

// AdvanceStatus moves an order to the requested workflow state.
func (h *StaffHandler) AdvanceStatus(c *fiber.Ctx) error {
	actorID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req advanceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.Validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid target status")
	}

	role := middleware.GetCurrentUserRole(c)
	next := models.OrderStatus(req.Status)

	var order *models.Order
	if next == models.StatusCancelled {
		order, err = h.orders.Cancel(id, actorID, role, req.Note)
	} else {
		order, err = h.orders.Advance(id, next, actorID, role, req.Note)
	}
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		case errors.Is(err, services.ErrInvalidTransition):
			return fiber.NewError(fiber.StatusConflict, "invalid status transition")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"id":             order.ID,
		"order_number":   order.OrderNumber,
		"status":         order.Status,
		"preparing_at":   order.PreparingAt,
		"delivered_at":   order.DeliveredAt,
		"actual_minutes": order.ActualMinutes,
	}})
}

// TodayStats summarizes today's orders per status plus delivered revenue.
func (h *StaffHandler) TodayStats(c *fiber.Ctx) error {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	if err := h.db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Where("placed_at >= ?", dayStart).
		Group("status").
		Scan(&counts).Error; err != nil {
		return err
	}

	byStatus := fiber.Map{}
	var totalOrders int64
	for _, sc := range counts {
		byStatus[sc.Status] = sc.Count
		totalOrders += sc.Count
	}

	var revenue float64
	if err := h.db.Model(&models.Order{}).
		Where("placed_at >= ? AND status = ?", dayStart, models.StatusDelivered).
		Select("coalesce(sum(total), 0)").
		Scan(&revenue).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"date":         dayStart.Format("2006-01-02"),
			"total_orders": totalOrders,
			"by_status":    byStatus,
			"revenue":      revenue,
		},
	})
}

// RevenueReport returns per-day delivered revenue over a date range.
func (h *StaffHandler) RevenueReport(c *fiber.Ctx) error {
	from, err := time.Parse("2006-01-02", c.Query("from", time.Now().AddDate(0, 0, -7).Format("2006-01-02")))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid from date")
	}
	to, err := time.Parse("2006-01-02", c.Query("to", time.Now().Format("2006-01-02")))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid to date")
	}

	type dayRevenue struct {
		Day     time.Time `json:"day"`
		Orders  int64     `json:"orders"`
		Revenue float64   `json:"revenue"`
	}
	var rows []dayRevenue
	if err := h.db.Model(&models.Order{}).
		Select("date_trunc('day', placed_at) as day, count(*) as orders, coalesce(sum(total), 0) as revenue").
		Where("placed_at >= ? AND placed_at < ? AND status = ?", from, to.Add(24*time.Hour), models.StatusDelivered).
		Group("day").
		Order("day").
		Scan(&rows).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"from": from.Format("2006-01-02"),
			"to":   to.Format("2006-01-02"),
			"days": rows,
		},
	})
}
