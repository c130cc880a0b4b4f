package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/tankas-app/tankas-api/pkg/config"
)

// ledgerSchema is applied on startup; the ledger is append-only.
const ledgerSchema = `
CREATE TABLE IF NOT EXISTS points_ledger (
	id UUID PRIMARY KEY,
	username TEXT NOT NULL,
	reason TEXT NOT NULL,
	issue_id TEXT,
	points INTEGER NOT NULL DEFAULT 0,
	tasks_completed INTEGER NOT NULL DEFAULT 0,
	tasks_reported INTEGER NOT NULL DEFAULT 0,
	areas_cleaned INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_points_ledger_username ON points_ledger (username, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_points_ledger_issue ON points_ledger (issue_id);
`

// NewPostgres returns a configured PostgreSQL client.
func NewPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// MigrateLedger creates the points ledger table when missing.
func MigrateLedger(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, ledgerSchema); err != nil {
		return fmt.Errorf("migrate points ledger: %w", err)
	}
	return nil
}
