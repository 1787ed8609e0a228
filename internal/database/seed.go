package database

import (
	"log"
	"os"

	"gorm.io/gorm"

	"github.com/example/masala/internal/models"
	"github.com/example/masala/internal/utils"
)

// SeedAdmin bootstraps the first admin account from ADMIN_PHONE and
// ADMIN_PASSWORD. No-op when the variables are unset or the account
// already exists; every later staff account is created by this admin.
func SeedAdmin(db *gorm.DB) {
	phone := os.Getenv("ADMIN_PHONE")
	password := os.Getenv("ADMIN_PASSWORD")
	if phone == "" || password == "" {
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		log.Printf("failed to hash admin password: %v", err)
		return
	}

	admin := models.User{
		Phone:        phone,
		DisplayName:  "Administrator",
		Role:         models.RoleAdmin,
		Status:       models.AccountActive,
		IsVerified:   true,
		PasswordHash: hash,
	}
	if err := db.Where(models.User{Phone: phone}).FirstOrCreate(&admin).Error; err != nil {
		log.Printf("failed to seed admin account: %v", err)
	}
}
