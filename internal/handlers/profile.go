package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/masala/internal/middleware"
	"github.com/example/masala/internal/models"
	"github.com/example/masala/internal/services"
	"github.com/example/masala/internal/utils"
)

// ProfileHandler manages user profile and loyalty endpoints.
type ProfileHandler struct {
	db      *gorm.DB
	loyalty *services.LoyaltyService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(db *gorm.DB, loyalty *services.LoyaltyService) *ProfileHandler {
	return &ProfileHandler{db: db, loyalty: loyalty}
}

// GetProfile returns the authenticated user's profile with the loyalty
// balance.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":           user.ID,
			"phone":        user.Phone,
			"display_name": user.DisplayName,
			"role":         user.Role,
			"is_verified":  user.IsVerified,
			"loyalty": fiber.Map{
				"total":     user.LoyaltyTotal,
				"used":      user.LoyaltyUsed,
				"available": user.LoyaltyAvailable,
			},
			"created_at": user.CreatedAt,
		},
	})
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"omitempty,max=100"`
}

// UpdateProfile updates mutable profile fields.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.Validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid profile fields")
	}
	if req.DisplayName == "" {
		return fiber.NewError(fiber.StatusBadRequest, "nothing to update")
	}

	if err := h.db.Model(&models.User{}).Where("id = ?", userID).
		Update("display_name", req.DisplayName).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

// DeleteProfile soft-deletes the account. Historical orders keep a valid
// owner reference; the next OTP verification for the phone reclaims the
// row as a fresh account.
func (h *ProfileHandler) DeleteProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	if err := h.db.Model(&models.User{}).Where("id = ?", userID).
		Update("status", models.AccountDeleted).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

// ListBonusTransactions returns the user's loyalty audit trail.
func (h *ProfileHandler) ListBonusTransactions(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	rows, total, err := h.loyalty.History(userID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    rows,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}
