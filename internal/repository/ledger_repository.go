package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tankas-app/tankas-api/internal/models"
)

// LedgerRepository appends and reads points ledger rows in Postgres.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository constructs a LedgerRepository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Insert appends one ledger entry.
func (r *LedgerRepository) Insert(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO points_ledger (id, username, reason, issue_id, points, tasks_completed, tasks_reported, areas_cleaned, created_at) VALUES (:id, :username, :reason, :issue_id, :points, :tasks_completed, :tasks_reported, :areas_cleaned, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// ListByUsername returns the user's most recent entries.
func (r *LedgerRepository) ListByUsername(ctx context.Context, username string, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const query = `SELECT id, username, reason, issue_id, points, tasks_completed, tasks_reported, areas_cleaned, created_at FROM points_ledger WHERE username = $1 ORDER BY created_at DESC LIMIT $2`
	entries := make([]models.LedgerEntry, 0)
	if err := r.db.SelectContext(ctx, &entries, query, username, limit); err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return entries, nil
}
