package meal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nourish/internal/balance"
	"nourish/internal/food"
	"nourish/internal/nutrient"
	"nourish/internal/quantity"
)

// resolveWorkers bounds concurrent resolutions within one meal.
const resolveWorkers = 4

var (
	ErrNoItems   = errors.New("meal has no items")
	ErrNoUser    = errors.New("user id is required")
	ErrBadAmount = errors.New("amount must be positive")
)

// FoodResolver maps a name and optional barcode to a per-100 g record.
type FoodResolver interface {
	Resolve(ctx context.Context, name, barcode string) *food.Record
}

// Service runs meal ingestion and the daily and weekly read models.
type Service struct {
	repo     *Repository
	resolver FoodResolver
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(repo *Repository, resolver FoodResolver, logger *zap.Logger) *Service {
	return &Service{repo: repo, resolver: resolver, logger: logger, now: time.Now}
}

// LogRequest is one meal as entered. Zero Type is detected from At; zero At
// means now.
type LogRequest struct {
	UserID      string
	Mentions    []Mention
	RawInput    string
	Type        Type
	InputMethod InputMethod
	At          time.Time
}

// DaySummary is the state of one user-day.
type DaySummary struct {
	Date   time.Time        `json:"date"`
	Actual nutrient.Profile `json:"actual"`
	Target nutrient.Profile `json:"target"`
	Report balance.Report   `json:"deficits"`
	Meals  []Meal           `json:"meals"`
}

// WeekSummary is the trend over the seven days ending on End.
type WeekSummary struct {
	Start time.Time         `json:"start_date"`
	End   time.Time         `json:"end_date"`
	Trend balance.WeekTrend `json:"trend"`
}

// Log normalizes, resolves and scales every mention, stores the meal and
// refreshes the day's log. Unresolved items are stored without nutrients.
func (s *Service) Log(ctx context.Context, req LogRequest) (*Meal, error) {
	if req.UserID == "" {
		return nil, ErrNoUser
	}
	mentions := make([]Mention, 0, len(req.Mentions))
	for _, m := range req.Mentions {
		if strings.TrimSpace(m.Name) != "" || m.Barcode != "" {
			mentions = append(mentions, m)
		}
	}
	if len(mentions) == 0 {
		return nil, ErrNoItems
	}

	at := req.At
	if at.IsZero() {
		at = s.now()
	}
	mealType := req.Type
	if mealType == "" {
		mealType = DetectType(at)
	}
	method := req.InputMethod
	if method == "" {
		method = InputText
	}

	records, err := s.resolveAll(ctx, mentions)
	if err != nil {
		return nil, err
	}

	m := Meal{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		Type:        mealType,
		InputMethod: method,
		RawInput:    req.RawInput,
		Date:        dayOf(at),
		LoggedAt:    at,
		Items:       make([]Item, len(mentions)),
	}
	for i, mention := range mentions {
		m.Items[i] = buildItem(uuid.NewString(), mention, records[mentionKey(mention)])
	}

	if err := s.repo.SaveMeal(ctx, m); err != nil {
		return nil, err
	}
	s.logger.Info("meal logged",
		zap.String("user_id", m.UserID),
		zap.String("meal_id", m.ID),
		zap.String("type", string(m.Type)),
		zap.Int("items", len(m.Items)),
		zap.Int("unresolved", len(m.Unresolved())),
	)

	if _, err := s.refreshDay(ctx, m.UserID, m.Date); err != nil {
		return nil, err
	}
	return &m, nil
}

// resolveAll resolves each distinct mention once, concurrently.
func (s *Service) resolveAll(ctx context.Context, mentions []Mention) (map[string]*food.Record, error) {
	var keys []string
	seen := make(map[string]Mention)
	for _, m := range mentions {
		k := mentionKey(m)
		if _, ok := seen[k]; !ok {
			seen[k] = m
			keys = append(keys, k)
		}
	}

	results := make([]*food.Record, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveWorkers)
	for i, k := range keys {
		m := seen[k]
		g.Go(func() error {
			results[i] = s.resolver.Resolve(gctx, m.Name, m.Barcode)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to resolve meal items: %w", err)
	}

	out := make(map[string]*food.Record, len(keys))
	for i, k := range keys {
		out[k] = results[i]
	}
	return out, nil
}

func mentionKey(m Mention) string {
	return strings.ToLower(strings.TrimSpace(m.Name)) + "\x00" + m.Barcode
}

func buildItem(id string, m Mention, rec *food.Record) Item {
	unit := strings.TrimSpace(m.Unit)
	if unit == "" {
		unit = "g"
	}
	q := quantity.Normalize(m.Name, m.Amount, unit)
	it := Item{
		ID:            id,
		Name:          strings.TrimSpace(m.Name),
		Amount:        m.Amount,
		Unit:          unit,
		Barcode:       m.Barcode,
		Grams:         q.Grams,
		LowConfidence: q.LowConfidence,
	}
	if it.Name == "" {
		it.Name = m.Barcode
		if rec != nil {
			it.Name = rec.Name
		}
	}
	if rec != nil {
		p := rec.Scale(q.Grams)
		it.Nutrients = &p
		it.Source = string(rec.Source)
		it.ExternalID = rec.ExternalID
	}
	return it
}

// DailySummary recomputes and stores the user's log for date and returns it
// with the day's meals.
func (s *Service) DailySummary(ctx context.Context, userID string, date time.Time) (*DaySummary, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	sum, err := s.refreshDay(ctx, userID, dayOf(date))
	if err != nil {
		return nil, err
	}
	meals, err := s.repo.ListMeals(ctx, userID, sum.Date)
	if err != nil {
		return nil, err
	}
	sum.Meals = meals
	return sum, nil
}

// WeekSummary returns the trend over the stored logs of the seven days
// ending on end.
func (s *Service) WeekSummary(ctx context.Context, userID string, end time.Time) (*WeekSummary, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	end = dayOf(end)
	start := end.AddDate(0, 0, -(balance.TrendDays - 1))
	logs, err := s.repo.DailyLogs(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	return &WeekSummary{Start: start, End: end, Trend: balance.ComputeWeekTrend(logs)}, nil
}

// SetFeedback attaches coaching text to a logged meal.
func (s *Service) SetFeedback(ctx context.Context, userID, mealID, text string) error {
	return s.repo.SetFeedback(ctx, userID, mealID, strings.TrimSpace(text))
}

// DeleteMeal removes a meal of the user and refreshes its day.
func (s *Service) DeleteMeal(ctx context.Context, userID, mealID string) error {
	date, err := s.repo.DeleteMeal(ctx, userID, mealID)
	if err != nil {
		return err
	}
	_, err = s.refreshDay(ctx, userID, date)
	return err
}

// EditItem changes the quantity of an item, resolves it again and
// refreshes its day.
func (s *Service) EditItem(ctx context.Context, userID, itemID string, amount float64, unit string) (*Item, error) {
	if amount <= 0 {
		return nil, ErrBadAmount
	}
	old, date, err := s.repo.FindItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	m := Mention{Name: old.Name, Amount: amount, Unit: unit, Barcode: old.Barcode}
	it := buildItem(old.ID, m, s.resolver.Resolve(ctx, m.Name, m.Barcode))
	if err := s.repo.UpdateItem(ctx, it); err != nil {
		return nil, err
	}
	if _, err := s.refreshDay(ctx, userID, date); err != nil {
		return nil, err
	}
	return &it, nil
}

// GetProfile returns the stored profile of a user, or nil.
func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// SaveProfile stores p and refreshes today's log so the new target applies.
func (s *Service) SaveProfile(ctx context.Context, p Profile) error {
	if p.UserID == "" {
		return ErrNoUser
	}
	if err := s.repo.SaveProfile(ctx, p); err != nil {
		return err
	}
	_, err := s.refreshDay(ctx, p.UserID, dayOf(s.now()))
	return err
}

// TargetFor returns the user's target on date: the stored override when
// present, otherwise the computed one.
func (s *Service) TargetFor(ctx context.Context, userID string, date time.Time) (nutrient.Profile, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nutrient.Profile{}, err
	}
	if p == nil {
		return balance.Target(balance.Attributes{}, date), nil
	}
	if p.TargetOverride != nil {
		return *p.TargetOverride, nil
	}
	return balance.Target(p.Attributes, date), nil
}

func (s *Service) refreshDay(ctx context.Context, userID string, date time.Time) (*DaySummary, error) {
	profiles, err := s.repo.ItemProfiles(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	actual := balance.Aggregate(profiles)
	target, err := s.TargetFor(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpsertDailyLog(ctx, userID, date, actual, target); err != nil {
		return nil, err
	}
	return &DaySummary{
		Date:   date,
		Actual: actual,
		Target: target,
		Report: balance.Deficits(actual, target),
	}, nil
}

// dayOf returns the calendar day of t as midnight UTC.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
