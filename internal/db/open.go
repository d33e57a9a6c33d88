package db

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"technofest/internal/config"
	"technofest/internal/model"
	"technofest/internal/store"
)

// Backend is an opened store plus the SQL handle behind it, if any.
type Backend struct {
	Store store.Store
	// SQL is nil unless the mysql driver was selected.
	SQL *gorm.DB
}

// OpenStore opens the driver named by cfg.StoreDriver. broker fans mysql
// writes out to other instances and may be nil.
func OpenStore(cfg *config.Config, broker store.Broker) (*Backend, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		slog.Warn("using the in-memory store, data is lost on exit")
		return &Backend{Store: store.NewMemory()}, nil

	case config.StoreBadger:
		bdb, err := NewBadger(BadgerConfig{Path: cfg.BadgerPath})
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store.NewBadger(bdb)}, nil

	case config.StoreMySQL:
		gormDB, err := NewMySQL(cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		if err := Migrate(gormDB, &model.Credential{}); err != nil {
			return nil, err
		}
		sqlStore := store.NewSQL(gormDB, broker)
		if err := sqlStore.Migrate(); err != nil {
			return nil, fmt.Errorf("migrate documents: %w", err)
		}
		return &Backend{Store: sqlStore, SQL: gormDB}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
