package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles a principal can hold.
const (
	RoleUser  = "user"
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

// Account lifecycle states. Users are never hard-deleted so historical
// orders keep a valid owner reference.
const (
	AccountActive  = "active"
	AccountBlocked = "blocked"
	AccountDeleted = "deleted"
)

// User represents a phone-verified principal. The loyalty ledger is
// embedded as three columns with the invariant available = total - used;
// all mutations go through LoyaltyService which preserves it.
type User struct {
	BaseModel
	Phone            string     `gorm:"uniqueIndex;size:10" json:"phone"`
	DisplayName      string     `json:"display_name"`
	Role             string     `gorm:"default:user" json:"role"`
	Status           string     `gorm:"default:active" json:"status"`
	IsVerified       bool       `json:"is_verified"`
	PasswordHash     string     `json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at"`
	FailedLogins     int        `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time `json:"-"`
	LoyaltyTotal     int64      `gorm:"default:0" json:"loyalty_total"`
	LoyaltyUsed      int64      `gorm:"default:0" json:"loyalty_used"`
	LoyaltyAvailable int64      `gorm:"default:0" json:"loyalty_available"`
	Orders           []Order    `json:"orders,omitempty"`
}

// Locked reports whether password login is currently locked out.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// Bonus transaction kinds recorded in the loyalty audit trail.
const (
	BonusEarn   = "earn"
	BonusRedeem = "redeem"
	BonusRefund = "refund"
)

// BonusTransaction is an append-only audit row for every loyalty mutation.
type BonusTransaction struct {
	BaseModel
	UserID     uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	Type       string     `json:"type"`
	Points     int64      `json:"points"`
	OrderID    *uuid.UUID `gorm:"type:uuid" json:"order_id"`
	OccurredAt time.Time  `json:"occurred_at"`
}
