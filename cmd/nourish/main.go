package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"nourish/internal/app"
	"nourish/internal/config"
	"nourish/internal/database"
	"nourish/internal/food"
	"nourish/internal/meal"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := app.NewLogger(cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	if err := run(ctx, application, os.Args[1], os.Args[2:]); err != nil {
		logger.Error("command failed", zap.String("command", os.Args[1]), zap.Error(err))
		application.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, command string, args []string) error {
	switch command {
	case "log":
		return runLog(ctx, a, args)
	case "resolve":
		return runResolve(ctx, a, args)
	case "today":
		return runToday(ctx, a, args)
	case "week":
		return runWeek(ctx, a, args)
	case "profile":
		return runProfile(ctx, a, args)
	case "validate-aliases":
		return runValidateAliases(ctx, a)
	case "missing":
		return runMissing(ctx, a, args)
	case "import-foods":
		return runImportFoods(ctx, a, args)
	case "metrics":
		return runMetrics(ctx, a, args)
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(args)

		affected, err := a.CleanupMetrics(ctx, *days)
		if err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)
		return nil
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func runLog(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	user := fs.String("user", "", "User id")
	mealType := fs.String("type", "", "Meal type (breakfast, lunch, dinner, snack, drink); detected from the time when empty")
	barcode := fs.String("barcode", "", "Barcode of a packaged product")
	grams := fs.Float64("grams", 100, "Grams of the barcode product")
	var items mentionList
	fs.Var(&items, "item", `Explicit item "name:amount:unit", repeatable`)
	fs.Parse(args)

	t, err := parseMealType(*mealType)
	if err != nil {
		return err
	}

	var m *meal.Meal
	switch {
	case *barcode != "":
		m, err = a.LogBarcode(ctx, *user, *barcode, *grams, t)
	case len(items) > 0:
		m, err = a.LogItems(ctx, *user, items, t)
	default:
		m, err = a.LogText(ctx, *user, strings.Join(fs.Args(), " "), t, meal.InputText)
	}
	if err != nil {
		return err
	}
	return printJSON(m)
}

func runResolve(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	barcode := fs.String("barcode", "", "Barcode to try first")
	fs.Parse(args)

	name := strings.Join(fs.Args(), " ")
	if name == "" && *barcode == "" {
		return fmt.Errorf("usage: nourish resolve [-barcode B] <food name>")
	}
	rec := a.Resolve(ctx, name, *barcode)
	if rec == nil {
		fmt.Printf("No match for %q.\n", name)
		return nil
	}
	return printJSON(rec)
}

func runToday(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("today", flag.ExitOnError)
	user := fs.String("user", "", "User id")
	date := fs.String("date", "", "Day as YYYY-MM-DD, default today")
	fs.Parse(args)

	day, err := parseDay(*date)
	if err != nil {
		return err
	}
	sum, err := a.Meals().DailySummary(ctx, *user, day)
	if err != nil {
		return err
	}
	return printJSON(sum)
}

func runWeek(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("week", flag.ExitOnError)
	user := fs.String("user", "", "User id")
	date := fs.String("end", "", "Last day of the window as YYYY-MM-DD, default today")
	fs.Parse(args)

	day, err := parseDay(*date)
	if err != nil {
		return err
	}
	week, err := a.Meals().WeekSummary(ctx, *user, day)
	if err != nil {
		return err
	}
	return printJSON(week)
}

func runProfile(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	user := fs.String("user", "", "User id")
	sex := fs.String("sex", "", "male or female")
	birth := fs.String("birth", "", "Birth date as YYYY-MM-DD")
	weight := fs.Float64("weight", 0, "Weight in kg")
	height := fs.Float64("height", 0, "Height in cm")
	activity := fs.String("activity", "", "sedentary, light, moderate, active or very_active")
	goal := fs.String("goal", "", "muscle_gain, fat_loss, maintenance, energy, longevity or general_health")
	fs.Parse(args)

	svc := a.Meals()
	p, err := svc.GetProfile(ctx, *user)
	if err != nil {
		return err
	}
	if p == nil {
		p = &meal.Profile{UserID: *user}
	}

	changed := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "sex":
			p.Attributes.Sex, changed = *sex, true
		case "weight":
			p.Attributes.WeightKg, changed = *weight, true
		case "height":
			p.Attributes.HeightCm, changed = *height, true
		case "activity":
			p.Attributes.ActivityLevel, changed = *activity, true
		case "goal":
			p.Attributes.Goal, changed = *goal, true
		}
	})
	if *birth != "" {
		b, err := database.ParseDate(*birth)
		if err != nil {
			return fmt.Errorf("invalid birth date %q: %w", *birth, err)
		}
		p.Attributes.BirthDate, changed = &b, true
	}
	if changed {
		if err := svc.SaveProfile(ctx, *p); err != nil {
			return err
		}
	}

	target, err := svc.TargetFor(ctx, *user, time.Now())
	if err != nil {
		return err
	}
	return printJSON(map[string]any{"profile": p, "target": target})
}

func runValidateAliases(ctx context.Context, a *app.App) error {
	defects, err := a.ValidateAliases(ctx)
	if err != nil {
		return err
	}
	if len(defects) == 0 {
		fmt.Println("All aliases resolve to local foods.")
		return nil
	}
	fmt.Printf("%d aliases point at missing local foods:\n", len(defects))
	for _, d := range defects {
		fmt.Printf("  %s\n", d)
	}
	return fmt.Errorf("%d alias defects", len(defects))
}

func runMissing(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("missing", flag.ExitOnError)
	limit := fs.Int("limit", 50, "Maximum number of records, 0 for all")
	resolve := fs.String("resolve", "", "Mark the open record of this name as resolved")
	fs.Parse(args)

	if *resolve != "" {
		ok, err := a.MarkFoodResolved(ctx, *resolve)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("No open record for %q.\n", *resolve)
			return nil
		}
		fmt.Printf("Marked %q as resolved.\n", *resolve)
		return nil
	}

	missing, err := a.MissingFoods(ctx, *limit)
	if err != nil {
		return err
	}
	for _, m := range missing {
		fmt.Printf("%s  %-30s query=%q\n", database.FormatTime(m.CreatedAt), m.Name, m.SearchQuery)
	}
	fmt.Printf("%d open records.\n", len(missing))
	return nil
}

func runImportFoods(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("import-foods", flag.ExitOnError)
	file := fs.String("file", "", "JSON array of local foods, stdin when empty")
	fs.Parse(args)

	in := io.Reader(os.Stdin)
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	foods, err := decodeLocalFoods(in)
	if err != nil {
		return err
	}
	n, err := a.ImportLocalFoods(ctx, foods)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d local foods.\n", n)
	return nil
}

// decodeLocalFoods reads a JSON array of {"code", "name_de", "name_en",
// "nutrients_per_100"} objects.
func decodeLocalFoods(r io.Reader) ([]food.LocalFood, error) {
	var foods []food.LocalFood
	if err := json.NewDecoder(r).Decode(&foods); err != nil {
		return nil, fmt.Errorf("failed to decode local foods: %w", err)
	}
	return foods, nil
}

func runMetrics(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("metrics", flag.ExitOnError)
	days := fs.Int("days", 7, "Number of days to report")
	fs.Parse(args)

	report, err := a.Metrics(ctx, *days)
	if err != nil {
		return err
	}

	fmt.Println("=== FOOD RESOLUTION ===")
	for _, d := range report.Resolutions {
		parts := make([]string, 0, len(d.BySource))
		for _, s := range d.Sources() {
			parts = append(parts, fmt.Sprintf("%s=%d", s, d.BySource[s]))
		}
		fmt.Printf("%s  total=%d  %s  avg=%.0fms\n", d.Date, d.Total, strings.Join(parts, " "), d.AvgLatencyMS)
	}

	fmt.Println("\n=== LLM USAGE ===")
	for _, d := range report.Usage {
		fmt.Printf("%s  prompt=%d  completion=%d  calls=%d\n", d.Date, d.TotalPrompt, d.TotalCompletion, d.TotalExecution)
	}

	h := report.Health
	fmt.Println("\n=== SYSTEM ===")
	fmt.Printf("alloc=%dMB sys=%dMB gc=%d goroutines=%d db=%s\n", h.AllocMB, h.SysMB, h.NumGC, h.Goroutines, h.DBSize)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseMealType(s string) (meal.Type, error) {
	if s == "" {
		return "", nil
	}
	t, ok := meal.ParseType(strings.ToLower(s))
	if !ok {
		return "", fmt.Errorf("unknown meal type %q", s)
	}
	return t, nil
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	d, err := database.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// mentionList collects repeated -item flags.
type mentionList []meal.Mention

func (l *mentionList) String() string {
	parts := make([]string, len(*l))
	for i, m := range *l {
		parts[i] = fmt.Sprintf("%s:%g:%s", m.Name, m.Amount, m.Unit)
	}
	return strings.Join(parts, ",")
}

// Set parses "name:amount:unit". The unit is optional and defaults to grams.
func (l *mentionList) Set(v string) error {
	parts := strings.Split(v, ":")
	if len(parts) < 2 || len(parts) > 3 || strings.TrimSpace(parts[0]) == "" {
		return fmt.Errorf("expected name:amount[:unit], got %q", v)
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(parts[1]), ",", "."), 64)
	if err != nil || amount <= 0 {
		return fmt.Errorf("invalid amount in %q", v)
	}
	m := meal.Mention{Name: strings.TrimSpace(parts[0]), Amount: amount, Unit: "g"}
	if len(parts) == 3 && strings.TrimSpace(parts[2]) != "" {
		m.Unit = strings.TrimSpace(parts[2])
	}
	*l = append(*l, m)
	return nil
}

func printUsage() {
	fmt.Println("Usage: nourish <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  log                Log a meal from text, -item flags or -barcode")
	fmt.Println("  resolve            Look a food up through barcode, local and remote sources")
	fmt.Println("  today              Show a day's intake, target and deficits")
	fmt.Println("  week               Show the 7-day trend")
	fmt.Println("  profile            Show or update a user profile")
	fmt.Println("  validate-aliases   Check alias targets against the local food table")
	fmt.Println("  missing            List or resolve foods no source could find")
	fmt.Println("  import-foods       Load local food rows from a JSON file")
	fmt.Println("  metrics            Show resolution, model usage and system metrics")
	fmt.Println("  metrics-cleanup    Remove old metric records")
}
