package handlers

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/masala/internal/config"
	"github.com/example/masala/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db
}

func TestFindOrCreateNewPhone(t *testing.T) {
	db := openTestDB(t)
	h := NewAuthHandler(db, &config.Config{}, nil, nil)

	user, err := h.findOrCreate("9876543210", models.OTPPurposeUser)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, models.AccountActive, user.Status)

	again, err := h.findOrCreate("9876543210", models.OTPPurposeUser)
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
}

func TestFindOrCreateReclaimsDeletedAccount(t *testing.T) {
	db := openTestDB(t)
	h := NewAuthHandler(db, &config.Config{}, nil, nil)

	old := models.User{
		Phone:            "9876543210",
		DisplayName:      "Asha",
		Role:             models.RoleUser,
		Status:           models.AccountDeleted,
		LoyaltyTotal:     80,
		LoyaltyUsed:      30,
		LoyaltyAvailable: 50,
	}
	require.NoError(t, db.Create(&old).Error)

	// The phone column is unique, so re-verification must reuse the row
	// instead of inserting a second one.
	user, err := h.findOrCreate("9876543210", models.OTPPurposeUser)
	require.NoError(t, err)
	assert.Equal(t, old.ID, user.ID)
	assert.Equal(t, models.AccountActive, user.Status)

	var got models.User
	require.NoError(t, db.First(&got, "id = ?", old.ID).Error)
	assert.Equal(t, models.AccountActive, got.Status)
	assert.Empty(t, got.DisplayName, "reclaimed account starts fresh")
	assert.Zero(t, got.LoyaltyTotal)
	assert.Zero(t, got.LoyaltyUsed)
	assert.Zero(t, got.LoyaltyAvailable)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("phone = ?", "9876543210").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFindOrCreateAdminPurposeNeverCreates(t *testing.T) {
	db := openTestDB(t)
	h := NewAuthHandler(db, &config.Config{}, nil, nil)

	_, err := h.findOrCreate("9876543210", models.OTPPurposeAdmin)
	assert.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}
