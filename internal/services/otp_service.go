package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"gorm.io/gorm"

	"github.com/example/masala/internal/models"
)

// OTPService issues and verifies one-time login codes per (phone, purpose)
// pair. Expiry is enforced in application logic; the cleanup job only does
// storage hygiene.
type OTPService struct {
	db          *gorm.DB
	ttl         time.Duration
	maxAttempts int
}

// NewOTPService constructs an OTPService.
func NewOTPService(db *gorm.DB, ttl time.Duration, maxAttempts int) *OTPService {
	return &OTPService{db: db, ttl: ttl, maxAttempts: maxAttempts}
}

// Issue retires all prior unverified codes for the pair and persists a
// fresh 6-digit code. The code is returned for delivery by the SMS sender;
// it is never included in any HTTP response.
func (s *OTPService) Issue(phone, purpose string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.OTPRecord{}).
			Where("phone = ? AND purpose = ? AND verified = false", phone, purpose).
			Updates(map[string]interface{}{"verified": true, "used_at": &now}).Error; err != nil {
			return err
		}

		record := models.OTPRecord{
			Phone:     phone,
			Purpose:   purpose,
			Code:      code,
			ExpiresAt: now.Add(s.ttl),
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return "", err
	}

	return code, nil
}

// Verify checks a candidate code against the active record for the pair.
// Failure reasons are checked in priority order: no active record, expiry,
// attempt cap, then the code comparison itself. The attempt counter is
// consumed with a conditional increment so concurrent calls cannot slip
// past the cap. A code from a superseded or already-used issue fails with
// ErrNoOTP and does not consume an attempt on the active code; the same
// applies to re-verifying a retired record.
func (s *OTPService) Verify(phone, purpose, candidate string) error {
	var record models.OTPRecord
	err := s.db.Where("phone = ? AND purpose = ? AND verified = false", phone, purpose).
		Order("created_at desc").
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNoOTP
		}
		return err
	}

	now := time.Now()
	if record.Expired(now) {
		return ErrOTPExpired
	}

	if record.Code != candidate {
		var retired int64
		err := s.db.Model(&models.OTPRecord{}).
			Where("phone = ? AND purpose = ? AND code = ? AND verified = true", phone, purpose, candidate).
			Count(&retired).Error
		if err != nil {
			return err
		}
		if retired > 0 {
			return ErrNoOTP
		}
	}

	res := s.db.Model(&models.OTPRecord{}).
		Where("id = ? AND verified = false AND attempts < ?", record.ID, s.maxAttempts).
		Update("attempts", gorm.Expr("attempts + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOTPMaxAttempts
	}

	// String-exact comparison; codes keep leading zeroes.
	if record.Code != candidate {
		return ErrOTPInvalid
	}

	res = s.db.Model(&models.OTPRecord{}).
		Where("id = ? AND verified = false", record.ID).
		Updates(map[string]interface{}{"verified": true, "used_at": &now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Raced with another successful verify of the same record.
		return ErrNoOTP
	}

	return nil
}

// PurgeExpired removes unverified codes whose expiry is past the cutoff.
func (s *OTPService) PurgeExpired(cutoff time.Time) (int64, error) {
	res := s.db.Where("expires_at < ?", cutoff).Delete(&models.OTPRecord{})
	return res.RowsAffected, res.Error
}

func generateCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
