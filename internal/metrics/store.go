package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"nourish/internal/database"
	"nourish/internal/llm"
)

// UsageMetric records one language model call.
type UsageMetric struct {
	AgentName        string
	Model            string
	PromptTokens     int
	CompletionTokens int
	LatencyMS        int64
	Timestamp        time.Time
}

// Store persists resolution and model usage metrics to SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// RecordResolution saves the outcome of one food resolution. source is the
// step that produced the record, or "none".
func (s *Store) RecordResolution(ctx context.Context, source string, latency time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resolution_metrics (source, latency_ms, timestamp) VALUES (?, ?, ?)`,
		source, latency.Milliseconds(), database.FormatTime(s.now()))
	if err != nil {
		return fmt.Errorf("failed to record resolution metric: %w", err)
	}
	return nil
}

// RecordUsage saves a model usage metric.
func (s *Store) RecordUsage(ctx context.Context, m UsageMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO llm_usage (agent_name, model, prompt_tokens, completion_tokens, latency_ms, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.AgentName, m.Model, m.PromptTokens, m.CompletionTokens, m.LatencyMS, database.FormatTime(ts))
	if err != nil {
		return fmt.Errorf("failed to record usage metric: %w", err)
	}
	return nil
}

// RecordMeta records the usage carried by an agent call. Calls without token
// counts are skipped.
func (s *Store) RecordMeta(ctx context.Context, meta llm.AgentMeta) error {
	if meta.Usage.PromptTokens == 0 && meta.Usage.CompletionTokens == 0 {
		return nil
	}
	return s.RecordUsage(ctx, MapUsage(meta.AgentName, meta.Usage, meta.Latency))
}

// MapUsage converts llm.TokenUsage to a UsageMetric.
func MapUsage(agentName string, usage llm.TokenUsage, latency time.Duration) UsageMetric {
	return UsageMetric{
		AgentName:        agentName,
		Model:            usage.Model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		LatencyMS:        latency.Milliseconds(),
	}
}

// DailyResolutions holds the resolution outcomes of one day.
type DailyResolutions struct {
	Date         string
	BySource     map[string]int
	Total        int
	AvgLatencyMS float64
}

// Sources returns the sources seen that day in name order.
func (d DailyResolutions) Sources() []string {
	out := make([]string, 0, len(d.BySource))
	for s := range d.BySource {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// GetDailyResolutions returns per-day resolution counts for the last N days,
// newest first.
func (s *Store) GetDailyResolutions(ctx context.Context, days int) ([]DailyResolutions, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(timestamp, 1, 10) AS day, source, COUNT(*), SUM(latency_ms)
		FROM resolution_metrics
		WHERE timestamp >= ?
		GROUP BY day, source
		ORDER BY day DESC, source ASC
	`, s.since(days))
	if err != nil {
		return nil, fmt.Errorf("failed to query resolution metrics: %w", err)
	}
	defer rows.Close()

	var (
		results []DailyResolutions
		latency []int64
	)
	for rows.Next() {
		var (
			day, source string
			count       int
			sum         int64
		)
		if err := rows.Scan(&day, &source, &count, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan resolution metric: %w", err)
		}
		if len(results) == 0 || results[len(results)-1].Date != day {
			results = append(results, DailyResolutions{Date: day, BySource: map[string]int{}})
			latency = append(latency, 0)
		}
		cur := &results[len(results)-1]
		cur.BySource[source] = count
		cur.Total += count
		latency[len(latency)-1] += sum
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range results {
		if results[i].Total > 0 {
			results[i].AvgLatencyMS = float64(latency[i]) / float64(results[i].Total)
		}
	}
	return results, nil
}

// DailyUsage represents token totals for a single day.
type DailyUsage struct {
	Date            string
	TotalPrompt     int
	TotalCompletion int
	TotalExecution  int
}

// GetDailyUsage retrieves model usage for the last N days, newest first.
func (s *Store) GetDailyUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(timestamp, 1, 10) AS day, COUNT(*), SUM(prompt_tokens), SUM(completion_tokens)
		FROM llm_usage
		WHERE timestamp >= ?
		GROUP BY day
		ORDER BY day DESC
	`, s.since(days))
	if err != nil {
		return nil, fmt.Errorf("failed to query usage metrics: %w", err)
	}
	defer rows.Close()

	var results []DailyUsage
	for rows.Next() {
		var u DailyUsage
		if err := rows.Scan(&u.Date, &u.TotalExecution, &u.TotalPrompt, &u.TotalCompletion); err != nil {
			return nil, fmt.Errorf("failed to scan usage metric: %w", err)
		}
		results = append(results, u)
	}
	return results, rows.Err()
}

// Cleanup removes records older than the specified number of days and
// returns how many rows were deleted.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := s.since(olderThanDays)
	var total int64
	for _, table := range []string{"resolution_metrics", "llm_usage"} {
		res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE timestamp < ?`, threshold)
		if err != nil {
			return total, fmt.Errorf("failed to clean up %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("failed to get rows affected: %w", err)
		}
		total += n
	}
	return total, nil
}

func (s *Store) since(days int) string {
	return database.FormatTime(s.now().AddDate(0, 0, -days))
}
