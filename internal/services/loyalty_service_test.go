package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/masala/internal/models"
)

func TestEarnedPoints(t *testing.T) {
	assert.Equal(t, int64(26), EarnedPoints(263), "floor(263/10)")
	assert.Equal(t, int64(0), EarnedPoints(9))
	assert.Equal(t, int64(1), EarnedPoints(10))
	assert.Equal(t, int64(1), EarnedPoints(19.99))
	assert.Equal(t, int64(0), EarnedPoints(0))
	assert.Equal(t, int64(0), EarnedPoints(-50))
}

func TestCreditThenDebit(t *testing.T) {
	db := openTestDB(t)
	svc := NewLoyaltyService(db)
	user := createTestUser(t, db, "9876543210")

	points, err := svc.Credit(db, user.ID, 263, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(26), points)

	require.NoError(t, svc.Debit(db, user.ID, 20, nil))

	var got models.User
	require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
	assert.Equal(t, int64(26), got.LoyaltyTotal)
	assert.Equal(t, int64(20), got.LoyaltyUsed)
	assert.Equal(t, int64(6), got.LoyaltyAvailable)

	var audits []models.BonusTransaction
	require.NoError(t, db.Where("user_id = ?", user.ID).Order("occurred_at").Find(&audits).Error)
	require.Len(t, audits, 2)
	assert.Equal(t, models.BonusEarn, audits[0].Type)
	assert.Equal(t, models.BonusRedeem, audits[1].Type)
}

func TestDebitInsufficientLeavesLedgerUntouched(t *testing.T) {
	db := openTestDB(t)
	svc := NewLoyaltyService(db)
	user := createTestUser(t, db, "9876543210")

	_, err := svc.Credit(db, user.ID, 100, nil)
	require.NoError(t, err)

	err = svc.Debit(db, user.ID, 25, nil)
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	var got models.User
	require.NoError(t, db.First(&got, "id = ?", user.ID).Error)
	assert.Equal(t, int64(10), got.LoyaltyTotal)
	assert.Equal(t, int64(0), got.LoyaltyUsed)
	assert.Equal(t, int64(10), got.LoyaltyAvailable)

	var audits int64
	require.NoError(t, db.Model(&models.BonusTransaction{}).
		Where("user_id = ? AND type = ?", user.ID, models.BonusRedeem).
		Count(&audits).Error)
	assert.Zero(t, audits, "a rejected debit writes no audit row")
}
