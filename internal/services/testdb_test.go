package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/masala/internal/models"
)

// openTestDB opens an in-memory database with the full schema. A single
// connection keeps the memory database alive for the test's lifetime.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.OTPRecord{},
		&models.MenuItem{},
		&models.MenuPortion{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
		&models.BonusTransaction{},
	))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, phone string) *models.User {
	t.Helper()

	user := models.User{
		Phone:  phone,
		Role:   models.RoleUser,
		Status: models.AccountActive,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTestItem(t *testing.T, db *gorm.DB, name string, slow bool, prices map[string]float64) *models.MenuItem {
	t.Helper()

	item := models.MenuItem{
		Name:     name,
		Category: "mains",
		SlowPrep: slow,
		InStock:  true,
		Active:   true,
	}
	for portion, price := range prices {
		item.Portions = append(item.Portions, models.MenuPortion{Portion: portion, Price: price})
	}
	require.NoError(t, db.Create(&item).Error)
	return &item
}
