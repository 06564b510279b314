package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// CapabilityRepository reports which optional plugin tables exist in the
// schema. Absent tables model uninstalled plugins; the matching adapters are
// skipped rather than failing.
type CapabilityRepository struct {
	db *sqlx.DB
}

// NewCapabilityRepository instantiates the repository.
func NewCapabilityRepository(db *sqlx.DB) *CapabilityRepository {
	return &CapabilityRepository{db: db}
}

// ExistingTables returns the subset of the requested table names present in
// the public schema.
func (r *CapabilityRepository) ExistingTables(ctx context.Context, tables []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(tables))
	if len(tables) == 0 {
		return existing, nil
	}

	const query = `SELECT table_name FROM information_schema.tables
        WHERE table_schema = 'public' AND table_name = ANY($1)`
	var names []string
	if err := r.db.SelectContext(ctx, &names, query, pq.Array(tables)); err != nil {
		return nil, fmt.Errorf("query table availability: %w", err)
	}
	for _, name := range names {
		existing[name] = true
	}
	return existing, nil
}
