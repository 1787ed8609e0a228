package services

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/masala/internal/models"
)

// EarnDivisor: one point per this many rupees of order total, floored.
const EarnDivisor = 10

// EarnedPoints computes the points credited for an order total.
func EarnedPoints(orderTotal float64) int64 {
	if orderTotal <= 0 {
		return 0
	}
	return int64(orderTotal) / EarnDivisor
}

// LoyaltyService mutates the per-user points ledger. The available balance
// is guarded by conditional updates against the persisted row, so two
// racing checkouts cannot spend the same points twice.
type LoyaltyService struct {
	db *gorm.DB
}

// NewLoyaltyService constructs a LoyaltyService.
func NewLoyaltyService(db *gorm.DB) *LoyaltyService {
	return &LoyaltyService{db: db}
}

// Credit awards points for an order total and records an audit row.
func (s *LoyaltyService) Credit(tx *gorm.DB, userID uuid.UUID, orderTotal float64, orderID *uuid.UUID) (int64, error) {
	points := EarnedPoints(orderTotal)
	if points == 0 {
		return 0, nil
	}

	err := tx.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"loyalty_total":     gorm.Expr("loyalty_total + ?", points),
			"loyalty_available": gorm.Expr("loyalty_available + ?", points),
		}).Error
	if err != nil {
		return 0, err
	}

	return points, s.record(tx, userID, models.BonusEarn, points, orderID)
}

// Debit spends points. The decrement only applies where the persisted
// available balance still covers the amount; zero affected rows means the
// balance was insufficient and nothing was mutated.
func (s *LoyaltyService) Debit(tx *gorm.DB, userID uuid.UUID, points int64, orderID *uuid.UUID) error {
	if points <= 0 {
		return nil
	}

	res := tx.Model(&models.User{}).
		Where("id = ? AND loyalty_available >= ?", userID, points).
		Updates(map[string]interface{}{
			"loyalty_used":      gorm.Expr("loyalty_used + ?", points),
			"loyalty_available": gorm.Expr("loyalty_available - ?", points),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientPoints
	}

	return s.record(tx, userID, models.BonusRedeem, points, orderID)
}

// Refund reverses a debit after an order is cancelled. Not exposed over
// HTTP; only order cancellation calls it, and the caller guarantees it
// runs at most once per order via the status transition check.
func (s *LoyaltyService) Refund(tx *gorm.DB, userID uuid.UUID, points int64, orderID *uuid.UUID) error {
	if points <= 0 {
		return nil
	}

	err := tx.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"loyalty_used":      gorm.Expr("loyalty_used - ?", points),
			"loyalty_available": gorm.Expr("loyalty_available + ?", points),
		}).Error
	if err != nil {
		return err
	}

	return s.record(tx, userID, models.BonusRefund, points, orderID)
}

// History lists loyalty audit rows for a user, newest first.
func (s *LoyaltyService) History(userID uuid.UUID, limit, offset int) ([]models.BonusTransaction, int64, error) {
	query := s.db.Model(&models.BonusTransaction{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.BonusTransaction
	if err := query.Order("occurred_at desc").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (s *LoyaltyService) record(tx *gorm.DB, userID uuid.UUID, kind string, points int64, orderID *uuid.UUID) error {
	return tx.Create(&models.BonusTransaction{
		UserID:     userID,
		Type:       kind,
		Points:     points,
		OrderID:    orderID,
		OccurredAt: time.Now(),
	}).Error
}
