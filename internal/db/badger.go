package db

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// BadgerConfig controls how the embedded key/value store is opened.
type BadgerConfig struct {
	Path     string
	InMemory bool
}

// NewBadger opens a badger database. InMemory ignores Path and is used by tests.
func NewBadger(cfg BadgerConfig) (*badger.DB, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("open badger: empty path")
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create badger dir: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(nil)

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	slog.Info("badger opened", slog.String("path", cfg.Path), slog.Bool("in_memory", cfg.InMemory))
	return bdb, nil
}
