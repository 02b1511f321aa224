package database

import (
	"fmt"
	"log"
	"time"

	"github.com/LimitAL/cafemaker-web/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func Initialize(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database initialized successfully")
	return db, nil
}

// Migrate ensures all updater tables exist.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.MarketItemEntry{},
		&models.MarketItemException{},
		&models.MarketItemUpdate{},
		&models.CompanionToken{},
		&models.NameEntry{},
		&models.MarketItemDocument{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
