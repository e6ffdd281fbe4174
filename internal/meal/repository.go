package meal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"nourish/internal/balance"
	"nourish/internal/database"
	"nourish/internal/nutrient"
)

// ErrNotFound is returned when a meal or item does not exist for the user.
var ErrNotFound = errors.New("not found")

// Repository persists meals, items, daily logs and user profiles.
type Repository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB, logger *zap.Logger) *Repository {
	return &Repository{db: db, logger: logger, now: time.Now}
}

// SaveMeal inserts a meal and its items in one transaction.
func (r *Repository) SaveMeal(ctx context.Context, m Meal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO food_entries (id, user_id, meal_type, input_method, raw_input, ai_feedback, meal_date, logged_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.UserID, string(m.Type), string(m.InputMethod), m.RawInput, m.Feedback,
		database.FormatDate(m.Date), database.FormatTime(m.LoggedAt))
	if err != nil {
		return fmt.Errorf("failed to insert meal %s: %w", m.ID, err)
	}

	for i, it := range m.Items {
		blob, err := encodeProfile(it.Nutrients)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO food_items (id, food_entry_id, name, amount, unit, barcode, normalized_grams,
				low_confidence, source, external_id, calculated_nutrients, sort_order)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, it.ID, m.ID, it.Name, it.Amount, it.Unit, it.Barcode, it.Grams,
			it.LowConfidence, it.Source, it.ExternalID, blob, i)
		if err != nil {
			return fmt.Errorf("failed to insert item %q: %w", it.Name, err)
		}
	}

	return tx.Commit()
}

// ListMeals returns a user's meals of one day, oldest first.
func (r *Repository) ListMeals(ctx context.Context, userID string, date time.Time) ([]Meal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, meal_type, input_method, raw_input, ai_feedback, meal_date, logged_at
		FROM food_entries
		WHERE user_id = ? AND meal_date = ?
		ORDER BY logged_at ASC, id ASC
	`, userID, database.FormatDate(date))
	if err != nil {
		return nil, fmt.Errorf("failed to list meals for user %s: %w", userID, err)
	}
	meals, err := r.scanMeals(rows)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(meals))
	for i := range meals {
		index[meals[i].ID] = i
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT fi.food_entry_id, fi.id, fi.name, fi.amount, fi.unit, fi.barcode, fi.normalized_grams,
			fi.low_confidence, fi.source, fi.external_id, fi.calculated_nutrients
		FROM food_items fi
		JOIN food_entries fe ON fe.id = fi.food_entry_id
		WHERE fe.user_id = ? AND fe.meal_date = ?
		ORDER BY fi.food_entry_id, fi.sort_order
	`, userID, database.FormatDate(date))
	if err != nil {
		return nil, fmt.Errorf("failed to list items for user %s: %w", userID, err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var entryID string
		it, err := r.scanItem(itemRows, &entryID)
		if err != nil {
			return nil, err
		}
		if i, ok := index[entryID]; ok {
			meals[i].Items = append(meals[i].Items, it)
		}
	}
	return meals, itemRows.Err()
}

// GetMeal returns one meal of the user with its items.
func (r *Repository) GetMeal(ctx context.Context, userID, mealID string) (*Meal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, meal_type, input_method, raw_input, ai_feedback, meal_date, logged_at
		FROM food_entries
		WHERE id = ? AND user_id = ?
	`, mealID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get meal %s: %w", mealID, err)
	}
	meals, err := r.scanMeals(rows)
	if err != nil {
		return nil, err
	}
	if len(meals) == 0 {
		return nil, ErrNotFound
	}
	m := meals[0]

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT food_entry_id, id, name, amount, unit, barcode, normalized_grams,
			low_confidence, source, external_id, calculated_nutrients
		FROM food_items
		WHERE food_entry_id = ?
		ORDER BY sort_order
	`, mealID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items of meal %s: %w", mealID, err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var entryID string
		it, err := r.scanItem(itemRows, &entryID)
		if err != nil {
			return nil, err
		}
		m.Items = append(m.Items, it)
	}
	return &m, itemRows.Err()
}

// SetFeedback stores the coaching text of a meal.
func (r *Repository) SetFeedback(ctx context.Context, userID, mealID, text string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE food_entries SET ai_feedback = ? WHERE id = ? AND user_id = ?`, text, mealID, userID)
	if err != nil {
		return fmt.Errorf("failed to store feedback for meal %s: %w", mealID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to store feedback for meal %s: %w", mealID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMeal removes a meal and its items. It returns the meal's date so the
// caller can refresh that day.
func (r *Repository) DeleteMeal(ctx context.Context, userID, mealID string) (time.Time, error) {
	var day string
	err := r.db.QueryRowContext(ctx,
		`SELECT meal_date FROM food_entries WHERE id = ? AND user_id = ?`, mealID, userID).Scan(&day)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to look up meal %s: %w", mealID, err)
	}

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM food_entries WHERE id = ? AND user_id = ?`, mealID, userID); err != nil {
		return time.Time{}, fmt.Errorf("failed to delete meal %s: %w", mealID, err)
	}
	return database.ParseDate(day)
}

// FindItem returns an item of the user together with its meal's date.
func (r *Repository) FindItem(ctx context.Context, userID, itemID string) (Item, time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT fe.meal_date, fi.id, fi.name, fi.amount, fi.unit, fi.barcode, fi.normalized_grams,
			fi.low_confidence, fi.source, fi.external_id, fi.calculated_nutrients
		FROM food_items fi
		JOIN food_entries fe ON fe.id = fi.food_entry_id
		WHERE fi.id = ? AND fe.user_id = ?
	`, itemID, userID)
	if err != nil {
		return Item{}, time.Time{}, fmt.Errorf("failed to find item %s: %w", itemID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Item{}, time.Time{}, err
		}
		return Item{}, time.Time{}, ErrNotFound
	}
	var day string
	it, err := r.scanItem(rows, &day)
	if err != nil {
		return Item{}, time.Time{}, err
	}
	date, err := database.ParseDate(day)
	if err != nil {
		return Item{}, time.Time{}, fmt.Errorf("failed to parse meal date %q: %w", day, err)
	}
	return it, date, nil
}

// UpdateItem rewrites the quantity and resolution of an item.
func (r *Repository) UpdateItem(ctx context.Context, it Item) error {
	blob, err := encodeProfile(it.Nutrients)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE food_items
		SET amount = ?, unit = ?, normalized_grams = ?, low_confidence = ?,
			source = ?, external_id = ?, calculated_nutrients = ?
		WHERE id = ?
	`, it.Amount, it.Unit, it.Grams, it.LowConfidence, it.Source, it.ExternalID, blob, it.ID)
	if err != nil {
		return fmt.Errorf("failed to update item %s: %w", it.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ItemProfiles returns the stored nutrient profiles of a user-day. Items
// without nutrients are skipped; a corrupt blob counts as zero.
func (r *Repository) ItemProfiles(ctx context.Context, userID string, date time.Time) ([]nutrient.Profile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT fi.id, fi.calculated_nutrients
		FROM food_items fi
		JOIN food_entries fe ON fe.id = fi.food_entry_id
		WHERE fe.user_id = ? AND fe.meal_date = ? AND fi.calculated_nutrients IS NOT NULL
	`, userID, database.FormatDate(date))
	if err != nil {
		return nil, fmt.Errorf("failed to load item nutrients: %w", err)
	}
	defer rows.Close()

	var out []nutrient.Profile
	for rows.Next() {
		var id, blob string
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan item nutrients: %w", err)
		}
		p, ok := nutrient.Decode([]byte(blob))
		if !ok {
			r.logger.Warn("malformed item nutrients", zap.String("item_id", id))
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertDailyLog stores the (actual, target) pair of a user-day.
func (r *Repository) UpsertDailyLog(ctx context.Context, userID string, date time.Time, actual, target nutrient.Profile) error {
	a, err := actual.MarshalJSON()
	if err != nil {
		return err
	}
	t, err := target.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO daily_logs (user_id, log_date, actual_nutrients, target_nutrients, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, log_date) DO UPDATE SET
			actual_nutrients = excluded.actual_nutrients,
			target_nutrients = excluded.target_nutrients,
			updated_at = excluded.updated_at
	`, userID, database.FormatDate(date), string(a), string(t), database.FormatTime(r.now()))
	if err != nil {
		return fmt.Errorf("failed to upsert daily log: %w", err)
	}
	return nil
}

// DailyLogs returns the stored logs of a user between from and to,
// inclusive, ordered by date.
func (r *Repository) DailyLogs(ctx context.Context, userID string, from, to time.Time) ([]balance.DayLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT log_date, actual_nutrients, target_nutrients
		FROM daily_logs
		WHERE user_id = ? AND log_date BETWEEN ? AND ?
		ORDER BY log_date
	`, userID, database.FormatDate(from), database.FormatDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to load daily logs: %w", err)
	}
	defer rows.Close()

	var out []balance.DayLog
	for rows.Next() {
		var day, actual, target string
		if err := rows.Scan(&day, &actual, &target); err != nil {
			return nil, fmt.Errorf("failed to scan daily log: %w", err)
		}
		date, err := database.ParseDate(day)
		if err != nil {
			return nil, fmt.Errorf("failed to parse log date %q: %w", day, err)
		}
		a, ok := nutrient.Decode([]byte(actual))
		if !ok {
			r.logger.Warn("malformed daily actual nutrients", zap.String("user_id", userID), zap.String("date", day))
		}
		t, ok := nutrient.Decode([]byte(target))
		if !ok {
			r.logger.Warn("malformed daily target nutrients", zap.String("user_id", userID), zap.String("date", day))
		}
		out = append(out, balance.DayLog{Date: date, Actual: a, Target: t})
	}
	return out, rows.Err()
}

// GetProfile returns the stored profile of a user, or nil when none exists.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	var (
		p              Profile
		birth, updated string
		target         sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, sex, birth_date, weight_kg, height_cm, activity_level, health_goal,
			target_nutrients, updated_at
		FROM user_profiles
		WHERE user_id = ?
	`, userID).Scan(&p.UserID, &p.Attributes.Sex, &birth, &p.Attributes.WeightKg, &p.Attributes.HeightCm,
		&p.Attributes.ActivityLevel, &p.Attributes.Goal, &target, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile for user %s: %w", userID, err)
	}

	if birth != "" {
		if b, err := database.ParseDate(birth); err == nil {
			p.Attributes.BirthDate = &b
		}
	}
	if target.Valid && target.String != "" {
		t, ok := nutrient.Decode([]byte(target.String))
		if ok {
			p.TargetOverride = &t
		} else {
			r.logger.Warn("malformed target override", zap.String("user_id", userID))
		}
	}
	p.UpdatedAt = database.ParseTime(updated)
	return &p, nil
}

// SaveProfile inserts or replaces a user's profile.
func (r *Repository) SaveProfile(ctx context.Context, p Profile) error {
	var birth string
	if p.Attributes.BirthDate != nil {
		birth = database.FormatDate(*p.Attributes.BirthDate)
	}
	target, err := encodeProfile(p.TargetOverride)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, sex, birth_date, weight_kg, height_cm, activity_level,
			health_goal, target_nutrients, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			sex = excluded.sex,
			birth_date = excluded.birth_date,
			weight_kg = excluded.weight_kg,
			height_cm = excluded.height_cm,
			activity_level = excluded.activity_level,
			health_goal = excluded.health_goal,
			target_nutrients = excluded.target_nutrients,
			updated_at = excluded.updated_at
	`, p.UserID, p.Attributes.Sex, birth, p.Attributes.WeightKg, p.Attributes.HeightCm,
		p.Attributes.ActivityLevel, p.Attributes.Goal, target, database.FormatTime(r.now()))
	if err != nil {
		return fmt.Errorf("failed to save profile for user %s: %w", p.UserID, err)
	}
	return nil
}

func (r *Repository) scanMeals(rows *sql.Rows) ([]Meal, error) {
	defer rows.Close()
	var meals []Meal
	for rows.Next() {
		var (
			m                Meal
			mealType, method string
			day, loggedAt    string
		)
		if err := rows.Scan(&m.ID, &m.UserID, &mealType, &method, &m.RawInput, &m.Feedback, &day, &loggedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		m.Type = Type(mealType)
		m.InputMethod = InputMethod(method)
		m.Date, _ = database.ParseDate(day)
		m.LoggedAt = database.ParseTime(loggedAt)
		meals = append(meals, m)
	}
	return meals, rows.Err()
}

// scanItem reads an item row whose first column is stored into first.
func (r *Repository) scanItem(rows *sql.Rows, first *string) (Item, error) {
	var (
		it   Item
		blob sql.NullString
	)
	if err := rows.Scan(first, &it.ID, &it.Name, &it.Amount, &it.Unit, &it.Barcode, &it.Grams,
		&it.LowConfidence, &it.Source, &it.ExternalID, &blob); err != nil {
		return Item{}, fmt.Errorf("failed to scan item: %w", err)
	}
	if blob.Valid {
		p, ok := nutrient.Decode([]byte(blob.String))
		if !ok {
			r.logger.Warn("malformed item nutrients", zap.String("item_id", it.ID))
		}
		it.Nutrients = &p
	}
	return it, nil
}

// encodeProfile renders p for a nullable nutrient column.
func encodeProfile(p *nutrient.Profile) (sql.NullString, error) {
	if p == nil {
		return sql.NullString{}, nil
	}
	data, err := p.MarshalJSON()
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode nutrients: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
