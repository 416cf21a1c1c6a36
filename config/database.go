package config

import (
	"fmt"

	"github.com/teshager21/gotravel/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB initializes the database connection
func InitDB() {
	config, err := LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		config.DBHost, config.DBPort, config.DBUser, config.DBPassword, config.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}

	DB = db

	if err := MigrateModels(DB); err != nil {
		panic(fmt.Sprintf("Failed to migrate database: %v", err))
	}
}

// MigrateModels runs the schema migration on the given connection. The
// booking<->payment one-to-one and the reference uniqueness live in the
// schema, not in handler code.
func MigrateModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.Review{},
		&models.Booking{},
		&models.Payment{},
	)
}
