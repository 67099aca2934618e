package database

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/kodemy-backend/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewSQLite opens a SQLite database and auto-migrates the schema. It backs
// DB_DRIVER=sqlite for local development and the repository tests; Postgres
// deployments use the SQL files under migrations/ instead.
func NewSQLite(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: NewGormLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	log.Info().Str("dsn", dsn).Msg("SQLite connected")
	return db, nil
}

// AutoMigrate creates or updates every table the application uses.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Course{},
		&model.Order{},
		&model.OrderDetail{},
		&model.Review{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
