package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/masala/internal/config"
	"github.com/example/masala/internal/models"
	"github.com/example/masala/internal/services"
	"github.com/example/masala/internal/utils"
)

// Password login lockout: five straight failures lock the account for
// fifteen minutes.
const (
	maxFailedLogins = 5
	lockoutDuration = 15 * time.Minute
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	db   *gorm.DB
	cfg  *config.Config
	otps *services.OTPService
	sms  *services.SMSService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, otps *services.OTPService, sms *services.SMSService) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, otps: otps, sms: sms}
}

type sendOTPRequest struct {
	Phone   string `json:"phone" validate:"required,len=10,numeric,startswith=6|startswith=7|startswith=8|startswith=9"`
	Purpose string `json:"purpose" validate:"omitempty,oneof=user admin"`
}

// SendOTP issues a fresh login code and hands it to the SMS provider.
func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Purpose == "" {
		req.Purpose = models.OTPPurposeUser
	}
	if err := utils.Validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid phone number")
	}

	var user models.User
	err := h.db.Where("phone = ?", req.Phone).First(&user).Error
	if err == nil && user.Status == models.AccountBlocked {
		return fiber.NewError(fiber.StatusForbidden, "account is blocked")
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}

	// The admin stream only serves existing staff/admin accounts.
	if req.Purpose == models.OTPPurposeAdmin {
		if err == gorm.ErrRecordNotFound || user.Role == models.RoleUser {
			return fiber.NewError(fiber.StatusForbidden, "not a staff account")
		}
	}

	code, err := h.otps.Issue(req.Phone, req.Purpose)
	if err != nil {
		return err
	}

	go func() {
		if err := h.sms.SendOTP(req.Phone, code, h.cfg.OTPTTL); err != nil {
			log.Printf("[Auth] OTP delivery to %s failed: %v", req.Phone, err)
		}
	}()

	return c.JSON(fiber.Map{
		"success":            true,
		"expires_in_seconds": int(h.cfg.OTPTTL.Seconds()),
	})
}

type verifyOTPRequest struct {
	Phone   string `json:"phone" validate:"required,len=10,numeric"`
	Code    string `json:"code" validate:"required,len=6,numeric"`
	Purpose string `json:"purpose" validate:"omitempty,oneof=user admin"`
}

// VerifyOTP validates a code, lazily creating the identity on first
// success, and returns a session token.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Purpose == "" {
		req.Purpose = models.OTPPurposeUser
	}
	if err := utils.Validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid phone or code")
	}

	if err := h.otps.Verify(req.Phone, req.Purpose, req.Code); err != nil {
		switch {
		case errors.Is(err, services.ErrNoOTP):
			return fiber.NewError(fiber.StatusNotFound, "no active verification code, request a new one")
		case errors.Is(err, services.ErrOTPExpired):
			return fiber.NewError(fiber.StatusBadRequest, "verification code expired")
		case errors.Is(err, services.ErrOTPMaxAttempts):
			return fiber.NewError(fiber.StatusTooManyRequests, "too many attempts, request a new code")
		case errors.Is(err, services.ErrOTPInvalid):
			return fiber.NewError(fiber.StatusBadRequest, "invalid verification code")
		}
		return err
	}

	user, err := h.findOrCreate(req.Phone, req.Purpose)
	if err != nil {
		return err
	}
	if user.Status == models.AccountBlocked {
		return fiber.NewError(fiber.StatusForbidden, "account is blocked")
	}

	now := time.Now()
	if err := h.db.Model(&models.User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"is_verified":   true,
			"last_login_at": &now,
			"failed_logins": 0,
			"locked_until":  nil,
		}).Error; err != nil {
		return err
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Role, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user": fiber.Map{
			"id":           user.ID,
			"phone":        user.Phone,
			"display_name": user.DisplayName,
			"role":         user.Role,
		},
	})
}

type staffLoginRequest struct {
	Phone    string `json:"phone" validate:"required,len=10,numeric"`
	Password string `json:"password" validate:"required"`
}

// StaffLogin authenticates staff and admin accounts by password, with a
// failure counter and lockout window instead of OTP attempt caps.
func (h *AuthHandler) StaffLogin(c *fiber.Ctx) error {
	var req staffLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.Validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing phone or password")
	}

	var user models.User
	if err := h.db.Where("phone = ? AND role IN ?", req.Phone,
		[]string{models.RoleStaff, models.RoleAdmin}).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	now := time.Now()
	if user.Locked(now) {
		return fiber.NewError(fiber.StatusTooManyRequests, "account temporarily locked, try again later")
	}
	if user.Status != models.AccountActive {
		return fiber.NewError(fiber.StatusForbidden, "account is not active")
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		updates := map[string]interface{}{"failed_logins": gorm.Expr("failed_logins + 1")}
		if user.FailedLogins+1 >= maxFailedLogins {
			lockedUntil := now.Add(lockoutDuration)
			updates["locked_until"] = &lockedUntil
			updates["failed_logins"] = 0
		}
		if err := h.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return err
		}
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	if err := h.db.Model(&models.User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"last_login_at": &now,
			"failed_logins": 0,
			"locked_until":  nil,
		}).Error; err != nil {
		return err
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Role, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user": fiber.Map{
			"id":           user.ID,
			"phone":        user.Phone,
			"display_name": user.DisplayName,
			"role":         user.Role,
		},
	})
}

// findOrCreate resolves a verified phone to its account. The phone column
// is unique and rows are never hard-deleted, so re-verifying a deleted
// phone reclaims the existing row as a fresh customer account: profile,
// credentials and loyalty balances reset, order history stays attached.
func (h *AuthHandler) findOrCreate(phone, purpose string) (*models.User, error) {
	var user models.User
	err := h.db.Where("phone = ?", phone).First(&user).Error
	if err == nil && user.Status != models.AccountDeleted {
		return &user, nil
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if purpose == models.OTPPurposeAdmin {
		return nil, fiber.NewError(fiber.StatusForbidden, "not a staff account")
	}

	if err == nil {
		if err := h.db.Model(&models.User{}).Where("id = ?", user.ID).
			Updates(map[string]interface{}{
				"status":            models.AccountActive,
				"role":              models.RoleUser,
				"display_name":      "",
				"password_hash":     "",
				"is_verified":       false,
				"failed_logins":     0,
				"locked_until":      nil,
				"loyalty_total":     0,
				"loyalty_used":      0,
				"loyalty_available": 0,
			}).Error; err != nil {
			return nil, err
		}
		user.Status = models.AccountActive
		user.Role = models.RoleUser
		user.DisplayName = ""
		user.PasswordHash = ""
		user.LoyaltyTotal = 0
		user.LoyaltyUsed = 0
		user.LoyaltyAvailable = 0
		return &user, nil
	}

	user = models.User{
		Phone:  phone,
		Role:   models.RoleUser,
		Status: models.AccountActive,
	}
	if err := h.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
