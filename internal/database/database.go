package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func Open(cfg *Config) (*sqlx.DB, error) {
	switch cfg.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sqlx.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.Driver == DriverSQLite {
		// a single connection keeps :memory: databases shared and writes serialized
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS bar_inventory (
		id TEXT PRIMARY KEY,
		item_name TEXT NOT NULL,
		category TEXT,
		on_hand DOUBLE PRECISION,
		low_threshold DOUBLE PRECISION,
		leftover_oz DOUBLE PRECISION DEFAULT 0,
		bottle_size_oz DOUBLE PRECISION,
		unit_size_ml DOUBLE PRECISION,
		size_display TEXT,
		sort_order INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bar_recipes (
		cocktail TEXT NOT NULL,
		ingredient TEXT NOT NULL,
		amount_oz DOUBLE PRECISION NOT NULL CHECK (amount_oz > 0)
	)`,
	`CREATE TABLE IF NOT EXISTS bar_inventory_movements (
		id TEXT PRIMARY KEY,
		inventory_id TEXT NOT NULL,
		item_name TEXT NOT NULL,
		movement_type TEXT NOT NULL,
		oz_deducted DOUBLE PRECISION NOT NULL,
		on_hand_before DOUBLE PRECISION NOT NULL,
		on_hand_after DOUBLE PRECISION NOT NULL,
		leftover_before DOUBLE PRECISION NOT NULL,
		leftover_after DOUBLE PRECISION NOT NULL,
		reference_type TEXT,
		reference_id TEXT,
		notes TEXT NOT NULL DEFAULT '',
		created_by TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bar_movements_item ON bar_inventory_movements (item_name, created_at)`,
}

// EnsureSchema creates the inventory, recipe and movement tables when missing.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return tx.Commit()
}
