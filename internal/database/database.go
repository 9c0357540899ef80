package database

import (
	"fmt"
	"log"

	"x402-marketplace/internal/config"
	"x402-marketplace/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the configured database. SQLite is the zero-setup default;
// Postgres is for real deployments. TranslateError makes unique-constraint
// violations surface as gorm.ErrDuplicatedKey on both drivers.
func Connect(cfg *config.Config) error {
	gormConfig := &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Error),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	}

	var err error
	switch cfg.Database.Driver {
	case "postgres":
		DB, err = gorm.Open(postgres.Open(cfg.GetDSN()), gormConfig)
	default:
		DB, err = gorm.Open(sqlite.Open(cfg.Database.Path), gormConfig)
	}

	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established successfully")
	return nil
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate() error {
	marketplaceModels := []interface{}{
		&models.Listing{},
		&models.Purchase{},
	}

	for _, model := range marketplaceModels {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("migration failed for %T: %w", model, err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
