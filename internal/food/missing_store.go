package food

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nourish/internal/database"
)

// MissingFood is a name that no source could resolve.
type MissingFood struct {
	ID          int64
	Name        string
	SearchQuery string
	Resolved    bool
	CreatedAt   time.Time
}

// MissingStore persists unresolved names for later curation.
type MissingStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewMissingStore(db *sql.DB) *MissingStore {
	return &MissingStore{db: db, now: time.Now}
}

// RecordMissing logs name as unresolved. At most one open record exists per
// normalized name; repeated failures are ignored.
func (s *MissingStore) RecordMissing(ctx context.Context, name, query string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO missing_foods (name, search_query, resolved, created_at)
		VALUES (?, ?, 0, ?)
		ON CONFLICT (name) WHERE resolved = 0 DO NOTHING
	`, normalizeName(name), query, database.FormatTime(s.now()))
	if err != nil {
		return fmt.Errorf("failed to record missing food %q: %w", name, err)
	}
	return nil
}

// ListMissing returns open records, oldest first. limit <= 0 means no limit.
func (s *MissingStore) ListMissing(ctx context.Context, limit int) ([]MissingFood, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, search_query, resolved, created_at
		FROM missing_foods
		WHERE resolved = 0
		ORDER BY created_at ASC, id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list missing foods: %w", err)
	}
	defer rows.Close()

	var out []MissingFood
	for rows.Next() {
		var (
			m       MissingFood
			created string
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.SearchQuery, &m.Resolved, &created); err != nil {
			return nil, fmt.Errorf("failed to scan missing food: %w", err)
		}
		m.CreatedAt = database.ParseTime(created)
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkResolved closes the open record for name. It reports whether a record
// was closed. Closed records are never reopened; a later failure for the
// same name opens a new one.
func (s *MissingStore) MarkResolved(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE missing_foods SET resolved = 1 WHERE name = ? AND resolved = 0`, normalizeName(name))
	if err != nil {
		return false, fmt.Errorf("failed to resolve missing food %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}
