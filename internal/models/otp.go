package models

import "time"

// OTP purposes. Customer login and the admin/staff console use separate
// code streams for the same phone number.
const (
	OTPPurposeUser  = "user"
	OTPPurposeAdmin = "admin"
)

// OTPRecord is a short-lived login credential for a (phone, purpose) pair.
// Issuing a new code retires all prior unverified records for the pair, so
// at most one record is active at a time. Expiry is checked in application
// logic; ExpiresAt is also indexed so the cleanup job can purge dead rows.
type OTPRecord struct {
	BaseModel
	Phone     string     `gorm:"index:idx_otp_subject" json:"phone"`
	Purpose   string     `gorm:"index:idx_otp_subject" json:"purpose"`
	Code      string     `json:"-"`
	ExpiresAt time.Time  `gorm:"index" json:"expires_at"`
	Attempts  int        `gorm:"default:0" json:"attempts"`
	Verified  bool       `gorm:"default:false" json:"verified"`
	UsedAt    *time.Time `json:"used_at"`
}

// Expired reports whether the code can no longer be verified.
func (r *OTPRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
