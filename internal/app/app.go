// Package app wires storage, food sources, the language model parser and the
// meal service together for the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"nourish/internal/balance"
	"nourish/internal/config"
	"nourish/internal/database"
	"nourish/internal/food"
	"nourish/internal/llm"
	"nourish/internal/meal"
	"nourish/internal/metrics"
)

// ErrNoParser is returned when free text is logged without a language model.
var ErrNoParser = errors.New("no language model configured for text parsing")

// ErrInvalidFood is returned for local food rows that cannot be stored.
var ErrInvalidFood = errors.New("invalid local food")

// App holds the application's dependencies.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *database.DB

	localStore   *food.LocalStore
	missingStore *food.MissingStore
	resolver     *food.Resolver
	metricsStore *metrics.Store
	meals        *meal.Service
	parser       *llm.FoodParser
	feedback     *llm.FeedbackWriter
	closers      []llm.Closer
}

// New opens the database and builds every component from cfg. The parser and
// the meal feedback writer prefer Gemini and fall back to Groq; without either
// key text logging and feedback are unavailable.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.NewDB(cfg.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a := &App{
		cfg:          cfg,
		logger:       logger,
		db:           db,
		localStore:   food.NewLocalStore(db.SQL, logger),
		missingStore: food.NewMissingStore(db.SQL),
		metricsStore: metrics.NewStore(db.SQL),
	}

	httpClient := &http.Client{Timeout: 15 * time.Second}
	if cfg.USDAAPIKey == "" {
		logger.Warn("USDA_API_KEY not set, remote lookups disabled")
	}
	usda := food.NewUSDAClient(food.USDAConfig{
		APIKey:      cfg.USDAAPIKey,
		BaseURL:     cfg.USDABaseURL,
		MinInterval: cfg.USDAMinInterval,
		Retries:     cfg.USDAMaxRetries,
		HTTPClient:  httpClient,
	}, logger)
	off := food.NewOpenFoodFactsClient(cfg.OFFBaseURL, httpClient, logger)

	a.resolver = food.NewResolver(food.ResolverDeps{
		Barcode:  off,
		Local:    a.localStore,
		Remote:   usda,
		Missing:  a.missingStore,
		Recorder: a.metricsStore,
		Timeout:  cfg.ResolveTimeout,
	}, logger)
	a.meals = meal.NewService(meal.NewRepository(db.SQL, logger), a.resolver, logger)

	switch {
	case cfg.GeminiAPIKey != "":
		gemini, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.closers = append(a.closers, gemini)
		a.parser = llm.NewFoodParser(gemini)
		a.feedback = llm.NewFeedbackWriter(gemini)
	case cfg.GroqAPIKey != "":
		groq := llm.NewGroqClient(cfg)
		a.parser = llm.NewFoodParser(groq)
		a.feedback = llm.NewFeedbackWriter(groq)
	default:
		logger.Warn("no language model key set, text logging disabled")
	}

	return a, nil
}

// Close releases the model clients and the database.
func (a *App) Close() error {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("failed to close model client", zap.Error(err))
		}
	}
	return a.db.Close()
}

// Meals exposes the meal service.
func (a *App) Meals() *meal.Service { return a.meals }

// LogText parses a free-text meal description and logs the result.
func (a *App) LogText(ctx context.Context, userID, text string, mealType meal.Type, method meal.InputMethod) (*meal.Meal, error) {
	if a.parser == nil {
		return nil, ErrNoParser
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, meal.ErrNoItems
	}

	res, err := a.parser.Parse(ctx, text)
	a.recordMeta(ctx, res.Meta)
	if err != nil {
		return nil, fmt.Errorf("failed to parse meal text: %w", err)
	}

	mentions := make([]meal.Mention, len(res.Items))
	for i, it := range res.Items {
		mentions[i] = meal.Mention{Name: it.Name, Amount: it.Amount, Unit: it.Unit}
	}
	m, err := a.meals.Log(ctx, meal.LogRequest{
		UserID:      userID,
		Mentions:    mentions,
		RawInput:    text,
		Type:        mealType,
		InputMethod: method,
	})
	return a.withFeedback(ctx, m, err)
}

// LogBarcode logs grams of a packaged product.
func (a *App) LogBarcode(ctx context.Context, userID, barcode string, grams float64, mealType meal.Type) (*meal.Meal, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, meal.ErrNoItems
	}
	m, err := a.meals.Log(ctx, meal.LogRequest{
		UserID:      userID,
		Mentions:    []meal.Mention{{Amount: grams, Unit: "g", Barcode: barcode}},
		RawInput:    barcode,
		Type:        mealType,
		InputMethod: meal.InputBarcode,
	})
	return a.withFeedback(ctx, m, err)
}

// LogItems logs explicitly entered mentions.
func (a *App) LogItems(ctx context.Context, userID string, mentions []meal.Mention, mealType meal.Type) (*meal.Meal, error) {
	m, err := a.meals.Log(ctx, meal.LogRequest{
		UserID:      userID,
		Mentions:    mentions,
		Type:        mealType,
		InputMethod: meal.InputManual,
	})
	return a.withFeedback(ctx, m, err)
}

// withFeedback asks the model to comment on a freshly logged meal and stores
// the answer on it. Feedback is best effort: the meal is already saved, so a
// failure is logged and the meal returned without it.
func (a *App) withFeedback(ctx context.Context, m *meal.Meal, err error) (*meal.Meal, error) {
	if err != nil || a.feedback == nil {
		return m, err
	}

	req, err := a.feedbackRequest(ctx, m)
	if err != nil {
		a.logger.Warn("failed to build meal feedback context", zap.String("meal_id", m.ID), zap.Error(err))
		return m, nil
	}
	res, err := a.feedback.Write(ctx, req)
	a.recordMeta(ctx, res.Meta)
	if err != nil {
		a.logger.Warn("meal feedback failed", zap.String("meal_id", m.ID), zap.Error(err))
		return m, nil
	}
	if err := a.meals.SetFeedback(ctx, m.UserID, m.ID, res.Text); err != nil {
		a.logger.Warn("failed to store meal feedback", zap.String("meal_id", m.ID), zap.Error(err))
		return m, nil
	}
	m.Feedback = res.Text
	return m, nil
}

func (a *App) feedbackRequest(ctx context.Context, m *meal.Meal) (llm.FeedbackRequest, error) {
	sum, err := a.meals.DailySummary(ctx, m.UserID, m.Date)
	if err != nil {
		return llm.FeedbackRequest{}, err
	}
	profile, err := a.meals.GetProfile(ctx, m.UserID)
	if err != nil {
		return llm.FeedbackRequest{}, err
	}

	req := llm.FeedbackRequest{Intake: map[string]float64{}}
	if profile != nil {
		req.Sex = profile.Attributes.Sex
		req.Goal = profile.Attributes.Goal
	}
	for _, it := range m.Items {
		req.Items = append(req.Items, llm.FeedbackItem{Name: it.Name, Amount: it.Amount, Unit: it.Unit})
	}
	for name, v := range sum.Actual.Map() {
		if v > 0 {
			req.Intake[name] = v
		}
	}
	req.Low = outOfBand(sum.Report, balance.StatusDeficit)
	req.High = outOfBand(sum.Report, balance.StatusExcess)
	return req, nil
}

// Resolve looks a single food up through every source.
func (a *App) Resolve(ctx context.Context, name, barcode string) *food.Record {
	return a.resolver.Resolve(ctx, name, barcode)
}

// ValidateAliases checks every alias target against the local table.
func (a *App) ValidateAliases(ctx context.Context) ([]food.AliasDefect, error) {
	return food.ValidateAliases(ctx, a.localStore)
}

// MissingFoods lists the open unresolved names, oldest first.
func (a *App) MissingFoods(ctx context.Context, limit int) ([]food.MissingFood, error) {
	return a.missingStore.ListMissing(ctx, limit)
}

// MarkFoodResolved closes the open missing record of name.
func (a *App) MarkFoodResolved(ctx context.Context, name string) (bool, error) {
	return a.missingStore.MarkResolved(ctx, name)
}

// outOfBand lists the report entries with status s. Fields without a target
// are left out.
func outOfBand(r balance.Report, s balance.Status) []llm.NutrientStatus {
	var out []llm.NutrientStatus
	for _, e := range r.ByStatus(s) {
		if e.Target <= 0 {
			continue
		}
		out = append(out, llm.NutrientStatus{Name: e.Field.String(), Percentage: e.Percentage})
	}
	return out
}

// ImportLocalFoods adds or replaces rows of the local food table and returns
// how many were written. Rows without a code or German name are rejected
// before anything is stored.
func (a *App) ImportLocalFoods(ctx context.Context, foods []food.LocalFood) (int, error) {
	for i, f := range foods {
		if strings.TrimSpace(f.Code) == "" || strings.TrimSpace(f.NameDE) == "" {
			return 0, fmt.Errorf("%w: row %d needs a code and a German name", ErrInvalidFood, i)
		}
	}
	for i, f := range foods {
		if err := a.localStore.Upsert(ctx, f); err != nil {
			return i, err
		}
	}
	a.logger.Info("local foods imported", zap.Int("count", len(foods)))
	return len(foods), nil
}

// MetricsReport is the admin view of resolution, model usage and process
// health.
type MetricsReport struct {
	Resolutions []metrics.DailyResolutions
	Usage       []metrics.DailyUsage
	Health      metrics.SysHealth
}

// Metrics collects the report for the last days.
func (a *App) Metrics(ctx context.Context, days int) (*MetricsReport, error) {
	res, err := a.metricsStore.GetDailyResolutions(ctx, days)
	if err != nil {
		return nil, err
	}
	usage, err := a.metricsStore.GetDailyUsage(ctx, days)
	if err != nil {
		return nil, err
	}
	return &MetricsReport{
		Resolutions: res,
		Usage:       usage,
		Health:      metrics.GetSysHealth(a.cfg.DBPath),
	}, nil
}

// CleanupMetrics removes metric rows older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	return a.metricsStore.Cleanup(ctx, days)
}

func (a *App) recordMeta(ctx context.Context, meta llm.AgentMeta) {
	if meta.AgentName == "" {
		return
	}
	if err := a.metricsStore.RecordMeta(ctx, meta); err != nil {
		a.logger.Warn("failed to record model usage", zap.String("agent", meta.AgentName), zap.Error(err))
	}
}
