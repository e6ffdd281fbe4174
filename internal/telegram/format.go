package telegram

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"nourish/internal/app"
	"nourish/internal/balance"
	"nourish/internal/database"
	"nourish/internal/food"
	"nourish/internal/meal"
	"nourish/internal/nutrient"
)

const helpText = `🥗 *Nourish*

Send what you ate, e.g. _"2 Eier, 1 Scheibe Vollkornbrot und ein Apfel"_.

/today - today's intake against your target
/week - averages and chronic gaps of the last 7 days
/profile - show or update your profile
/barcode <ean> [grams] - log a packaged product
/delete <meal id> - remove a logged meal`

const profileUsage = "Usage: `/profile sex=female birth=1990-05-17 weight=62 height=168 activity=light goal=fat_loss`"

// headline fields shown in short summaries, in display order.
var headline = []nutrient.Field{
	nutrient.Calories,
	nutrient.Protein,
	nutrient.Carbs,
	nutrient.Fat,
	nutrient.Fiber,
}

var statusIcons = map[balance.Status]string{
	balance.StatusDeficit:  "🔻",
	balance.StatusOK:       "✅",
	balance.StatusExcess:   "🔺",
	balance.StatusNoTarget: "➖",
}

func errorText(action string, err error) string {
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *Error %s:*\n```\n%v\n```", action, safeErr)
}

func label(f nutrient.Field) string {
	s := strings.ReplaceAll(f.String(), "_", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}

func amount(v float64, f nutrient.Field) string {
	return strconv.FormatFloat(nutrient.RoundTo(v, 1), 'f', -1, 64) + " " + f.Unit()
}

func formatMealMarkdown(m *meal.Meal) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ *%s logged*\n\n", strings.ToUpper(string(m.Type[:1]))+string(m.Type[1:]))

	for _, it := range m.Items {
		qty := strconv.FormatFloat(it.Amount, 'f', -1, 64) + " " + it.Unit
		if !it.Resolved() {
			fmt.Fprintf(&sb, "• %s (%s): ❓ not found\n", it.Name, qty)
			continue
		}
		fmt.Fprintf(&sb, "• %s (%s, %sg): %s", it.Name, qty,
			strconv.FormatFloat(math.Round(it.Grams), 'f', -1, 64),
			amount(it.Nutrients.Get(nutrient.Calories), nutrient.Calories))
		if it.LowConfidence {
			sb.WriteString(" ⚠️")
		}
		sb.WriteString("\n")
	}

	totals := m.Totals()
	sb.WriteString("\n*Total:* ")
	parts := make([]string, 0, len(headline))
	for _, f := range headline {
		part := amount(totals.Get(f), f)
		if f != nutrient.Calories {
			part += " " + strings.ToLower(label(f))
		}
		parts = append(parts, part)
	}
	sb.WriteString(strings.Join(parts, " · "))
	if m.Feedback != "" {
		// Model output may contain markdown control characters.
		fmt.Fprintf(&sb, "\n\n💬 %s", tgbotapi.EscapeText(tgbotapi.ModeMarkdown, m.Feedback))
	}
	fmt.Fprintf(&sb, "\n\n_id: %s_", m.ID)
	return sb.String()
}

func formatDayMarkdown(sum *meal.DaySummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 *Today (%s)*\n\n", database.FormatDate(sum.Date))

	for _, f := range headline {
		e := sum.Report.Get(f)
		fmt.Fprintf(&sb, "%s *%s*: %s / %s (%s%%)\n", statusIcons[e.Status], label(f),
			amount(e.Actual, f), amount(e.Target, f), strconv.FormatFloat(e.Percentage, 'f', -1, 64))
	}

	if len(sum.Meals) == 0 {
		sb.WriteString("\n_No meals logged yet_\n")
		return sb.String()
	}

	if low := joinLabels(sum.Report.ByStatus(balance.StatusDeficit)); low != "" {
		fmt.Fprintf(&sb, "\n🔻 *Low*: %s\n", low)
	}
	if high := joinLabels(sum.Report.ByStatus(balance.StatusExcess)); high != "" {
		fmt.Fprintf(&sb, "🔺 *High*: %s\n", high)
	}

	sb.WriteString("\n🍽 *Meals*\n")
	for _, m := range sum.Meals {
		names := make([]string, len(m.Items))
		for i, it := range m.Items {
			names[i] = it.Name
		}
		fmt.Fprintf(&sb, "• _%s_: %s (%s)\n", m.Type, strings.Join(names, ", "),
			amount(m.Totals().Get(nutrient.Calories), nutrient.Calories))
	}
	return sb.String()
}

// joinLabels names the entries that have a target.
func joinLabels(entries []balance.Entry) string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Target > 0 {
			names = append(names, label(e.Field))
		}
	}
	return strings.Join(names, ", ")
}

func formatWeekMarkdown(w *meal.WeekSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 *Week %s → %s*\n", database.FormatDate(w.Start), database.FormatDate(w.End))
	fmt.Fprintf(&sb, "Days tracked: %d/%d\n", w.Trend.DaysTracked, balance.TrendDays)

	if w.Trend.DaysTracked == 0 {
		sb.WriteString("\n_No data yet_")
		return sb.String()
	}

	sb.WriteString("\n*Daily averages*\n")
	for _, f := range headline {
		fmt.Fprintf(&sb, "• %s: %s\n", label(f), amount(w.Trend.Averages.Get(f), f))
	}

	writeChronic := func(title string, entries []balance.ChronicEntry) {
		if len(entries) == 0 {
			return
		}
		fmt.Fprintf(&sb, "\n*%s*\n", title)
		for _, c := range entries {
			fmt.Fprintf(&sb, "• %s: %d days (avg %s)\n", label(c.Field), c.Days, amount(c.Average, c.Field))
		}
	}
	writeChronic("🔻 Chronically low", w.Trend.ChronicDeficits)
	writeChronic("🔺 Chronically high", w.Trend.ChronicExcesses)
	return sb.String()
}

func formatProfileMarkdown(p *meal.Profile, target nutrient.Profile) string {
	a := p.Attributes
	orDash := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}
	birth := "-"
	if a.BirthDate != nil {
		birth = database.FormatDate(*a.BirthDate)
	}
	num := func(v float64) string {
		if v <= 0 {
			return "-"
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	var sb strings.Builder
	sb.WriteString("👤 *Profile*\n\n")
	fmt.Fprintf(&sb, "Sex: %s\nBirth date: %s\nWeight: %s kg\nHeight: %s cm\nActivity: %s\nGoal: %s\n",
		orDash(a.Sex), birth, num(a.WeightKg), num(a.HeightCm), orDash(a.ActivityLevel), orDash(a.Goal))

	sb.WriteString("\n🎯 *Daily target*")
	if p.TargetOverride != nil {
		sb.WriteString(" _(custom)_")
	}
	sb.WriteString("\n")
	for _, f := range headline {
		fmt.Fprintf(&sb, "• %s: %s\n", label(f), amount(target.Get(f), f))
	}
	return sb.String()
}

// applyProfileArgs updates a from "key=value" pairs.
func applyProfileArgs(a *balance.Attributes, args string) error {
	for _, pair := range strings.Fields(args) {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || value == "" {
			return fmt.Errorf("expected key=value, got %q", pair)
		}
		key, value = strings.ToLower(key), strings.ToLower(value)
		switch key {
		case "sex":
			if value != balance.SexMale && value != balance.SexFemale {
				return fmt.Errorf("sex must be male or female")
			}
			a.Sex = value
		case "birth":
			t, err := time.Parse(database.DateLayout, value)
			if err != nil {
				return fmt.Errorf("birth must be YYYY-MM-DD")
			}
			a.BirthDate = &t
		case "weight", "height":
			v, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
			if err != nil || v <= 0 {
				return fmt.Errorf("%s must be a positive number", key)
			}
			if key == "weight" {
				a.WeightKg = v
			} else {
				a.HeightCm = v
			}
		case "activity":
			a.ActivityLevel = value
		case "goal":
			a.Goal = value
		default:
			return fmt.Errorf("unknown field %q", key)
		}
	}
	return nil
}

func formatMissingMarkdown(missing []food.MissingFood) string {
	var sb strings.Builder
	sb.WriteString("❓ *Unresolved foods*\n\n")
	if len(missing) == 0 {
		sb.WriteString("_Nothing to curate_")
		return sb.String()
	}
	for _, m := range missing {
		fmt.Fprintf(&sb, "• %s (query: %s, %s)\n", m.Name, m.SearchQuery, database.FormatDate(m.CreatedAt))
	}
	return sb.String()
}

func formatMetricsMarkdown(r *app.MetricsReport) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🔎 *Food Resolution*\n")
	if len(r.Resolutions) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range r.Resolutions {
		parts := make([]string, 0, len(d.BySource))
		for _, s := range d.Sources() {
			parts = append(parts, fmt.Sprintf("%s %d", s, d.BySource[s]))
		}
		fmt.Fprintf(&sb, "• *%s*: %d lookups (%s), avg %.0f ms\n", d.Date, d.Total, strings.Join(parts, ", "), d.AvgLatencyMS)
	}

	sb.WriteString("\n🗓 *Recent LLM Activity*\n")
	if len(r.Usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range r.Usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", r.Health.AllocMB, r.Health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", r.Health.Goroutines)
	fmt.Fprintf(&sb, "• Database: %s\n", r.Health.DBSize)
	return sb.String()
}
