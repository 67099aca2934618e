package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/kodemy-backend/internal/config"
	"gorm.io/gorm"
)

// Open connects to the database selected by DB_DRIVER. The returned close
// function releases the underlying pool.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*gorm.DB, func(), error) {
	switch cfg.DBDriver {
	case "sqlite":
		db, err := NewSQLite(cfg.DatabaseURL, log)
		if err != nil {
			return nil, nil, err
		}
		return db, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}, nil

	case "postgres", "":
		pool, err := NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		db, err := NewPostgresGorm(pool, log)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return db, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}
