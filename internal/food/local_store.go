package food

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"nourish/internal/nutrient"
)

// Match weights of the layered local search, strongest first.
const (
	WeightExact     = 1.0
	WeightPrefix    = 0.8
	WeightWord      = 0.6
	WeightSubstring = 0.4
	WeightFallback  = 0.2
)

// LocalFood is one row of the local food table.
type LocalFood struct {
	Code    string           `json:"code"`
	NameDE  string           `json:"name_de"`
	NameEN  string           `json:"name_en"`
	Per100g nutrient.Profile `json:"nutrients_per_100"`
}

// LocalRow is a ranked local search hit.
type LocalRow struct {
	Code          string
	Name          string
	SecondaryName string
	Per100g       nutrient.Profile
	Weight        float64
}

// Record converts the row into a resolved food record.
func (r LocalRow) Record() *Record {
	return &Record{
		Name:       r.Name,
		Source:     SourceLocal,
		ExternalID: r.Code,
		Per100g:    r.Per100g,
	}
}

// LocalStore searches the local food table.
type LocalStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewLocalStore(db *sql.DB, logger *zap.Logger) *LocalStore {
	return &LocalStore{db: db, logger: logger}
}

// Upsert inserts or replaces a food by code.
func (s *LocalStore) Upsert(ctx context.Context, f LocalFood) error {
	blob, err := f.Per100g.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode nutrients: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO local_foods (code, name_de, name_en, name_de_lc, name_en_lc, nutrients_per_100)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name_de = excluded.name_de,
			name_en = excluded.name_en,
			name_de_lc = excluded.name_de_lc,
			name_en_lc = excluded.name_en_lc,
			nutrients_per_100 = excluded.nutrients_per_100
	`, f.Code, f.NameDE, f.NameEN, normalizeName(f.NameDE), normalizeName(f.NameEN), string(blob))
	if err != nil {
		return fmt.Errorf("failed to upsert local food %s: %w", f.Code, err)
	}
	return nil
}

// HasName reports whether a food with exactly this name exists, ignoring case.
func (s *LocalStore) HasName(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM local_foods WHERE name_de_lc = ?`, normalizeName(name)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check local food name: %w", err)
	}
	return n > 0, nil
}

// Search runs the layered name search: exact, prefix, separate word and
// substring matches on the primary name, ordered by weight and then by the
// shorter name. When nothing matches it falls back to a substring scan over
// both name columns.
func (s *LocalStore) Search(ctx context.Context, query string, limit int) ([]LocalRow, error) {
	q := normalizeName(query)
	if q == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}
	esc := escapeLike(q)

	rows, err := s.query(ctx, `
		SELECT code, name_de, name_en, nutrients_per_100,
			CASE
				WHEN name_de_lc = ? THEN ?
				WHEN name_de_lc LIKE ? ESCAPE '\' THEN ?
				WHEN ' ' || replace(replace(replace(name_de_lc, ',', ' '), '(', ' '), ')', ' ') || ' ' LIKE ? ESCAPE '\' THEN ?
				ELSE ?
			END AS weight
		FROM local_foods
		WHERE name_de_lc LIKE ? ESCAPE '\'
		ORDER BY weight DESC, length(name_de) ASC, code ASC
		LIMIT ?
	`, q, WeightExact,
		esc+"%", WeightPrefix,
		"% "+esc+" %", WeightWord,
		WeightSubstring,
		"%"+esc+"%",
		limit)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return rows, nil
	}

	return s.query(ctx, `
		SELECT code, name_de, name_en, nutrients_per_100, ? AS weight
		FROM local_foods
		WHERE name_de_lc LIKE ? ESCAPE '\' OR name_en_lc LIKE ? ESCAPE '\'
		ORDER BY length(name_de) ASC, code ASC
		LIMIT ?
	`, WeightFallback, "%"+esc+"%", "%"+esc+"%", limit)
}

func (s *LocalStore) query(ctx context.Context, stmt string, args ...any) ([]LocalRow, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search local foods: %w", err)
	}
	defer rows.Close()

	var out []LocalRow
	for rows.Next() {
		var (
			r    LocalRow
			blob string
		)
		if err := rows.Scan(&r.Code, &r.Name, &r.SecondaryName, &blob, &r.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan local food: %w", err)
		}
		p, ok := nutrient.Decode([]byte(blob))
		if !ok {
			s.logger.Warn("malformed local nutrient blob", zap.String("code", r.Code))
		}
		r.Per100g = p
		out = append(out, r)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
