package config

import (
	"errors"
	"fmt"

	"student-roster-backend/db/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedInitialAdmin creates the admin account named by ADMIN_EMAIL/ADMIN_PASSWORD
// unless a user with that email already exists.
func SeedInitialAdmin(db *gorm.DB, email, password string) error {
	if email == "" || password == "" {
		Logger.Warn("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		Logger.Info("Initial admin already exists", zap.String("email", email))
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("error checking for existing admin: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := models.User{
		ID:        uuid.New(),
		Username:  "admin",
		Email:     email,
		Password:  string(hashedPassword),
		Role:      models.AdminRole,
		Active:    true,
		CreatedBy: "system",
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create initial admin: %w", err)
	}

	Logger.Info("Initial admin created", zap.String("email", email))
	return nil
}
