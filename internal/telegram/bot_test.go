package telegram

import (
	"strings"
	"testing"
	"time"

	"nourish/internal/app"
	"nourish/internal/balance"
	"nourish/internal/meal"
	"nourish/internal/metrics"
	"nourish/internal/nutrient"
)

func TestFormatMealMarkdown(t *testing.T) {
	salmon := nutrient.New(map[nutrient.Field]float64{nutrient.Calories: 300, nutrient.Protein: 30})
	m := &meal.Meal{
		ID:   "m-1",
		Type: meal.Lunch,
		Items: []meal.Item{
			{Name: "Lachs", Amount: 150, Unit: "g", Grams: 150, Nutrients: &salmon},
			{Name: "Mysterium", Amount: 1, Unit: "Stück", Grams: 100},
		},
	}

	out := formatMealMarkdown(m)

	for _, want := range []string{
		"✅ *Lunch logged*",
		"• Lachs (150 g, 150g): 300 kcal\n",
		"• Mysterium (1 Stück): ❓ not found",
		"*Total:* 300 kcal · 30 g protein · 0 g carbs · 0 g fat · 0 g fiber",
		"_id: m-1_",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "💬") {
		t.Error("no feedback line expected without feedback")
	}

	m.Feedback = "Omega-3 für dein *Gehirn*"
	out = formatMealMarkdown(m)
	if !strings.Contains(out, "💬 Omega-3 für dein \\*Gehirn\\*\n\n_id: m-1_") {
		t.Errorf("feedback not rendered before the id:\n%s", out)
	}
}

func TestFormatDayMarkdown(t *testing.T) {
	actual := nutrient.New(map[nutrient.Field]float64{nutrient.Calories: 1295.5, nutrient.Protein: 200})
	target := nutrient.New(map[nutrient.Field]float64{nutrient.Calories: 2591, nutrient.Protein: 100, nutrient.Fiber: 30})
	lunch := meal.Meal{Type: meal.Lunch, Items: []meal.Item{{Name: "Lachs", Nutrients: &actual}}}

	sum := &meal.DaySummary{
		Date:   time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Actual: actual,
		Target: target,
		Report: balance.Deficits(actual, target),
		Meals:  []meal.Meal{lunch},
	}
	out := formatDayMarkdown(sum)

	for _, want := range []string{
		"📊 *Today (2024-03-10)*",
		"🔻 *Calories*: 1295.5 kcal / 2591 kcal (50%)",
		"🔺 *Protein*: 200 g / 100 g (200%)",
		"🔻 *Low*: Calories",
		"🔺 *High*: Protein",
		"• _lunch_: Lachs (1295.5 kcal)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	t.Run("no meals", func(t *testing.T) {
		empty := &meal.DaySummary{Date: sum.Date, Target: target, Report: balance.Deficits(nutrient.Profile{}, target)}
		if out := formatDayMarkdown(empty); !strings.Contains(out, "_No meals logged yet_") {
			t.Errorf("expected empty notice:\n%s", out)
		}
	})
}

func TestFormatWeekMarkdown(t *testing.T) {
	end := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("empty", func(t *testing.T) {
		out := formatWeekMarkdown(&meal.WeekSummary{Start: end.AddDate(0, 0, -6), End: end})
		if !strings.Contains(out, "📅 *Week 2024-03-04 → 2024-03-10*") || !strings.Contains(out, "_No data yet_") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("chronic deficits", func(t *testing.T) {
		w := &meal.WeekSummary{
			Start: end.AddDate(0, 0, -6),
			End:   end,
			Trend: balance.WeekTrend{
				DaysTracked: 6,
				Averages:    nutrient.New(map[nutrient.Field]float64{nutrient.Fiber: 15.71}),
				ChronicDeficits: []balance.ChronicEntry{
					{Field: nutrient.Fiber, Name: "fiber", Days: 5, Average: 15.71},
				},
			},
		}
		out := formatWeekMarkdown(w)
		for _, want := range []string{
			"Days tracked: 6/7",
			"• Fiber: 15.7 g",
			"*🔻 Chronically low*",
			"• Fiber: 5 days (avg 15.7 g)",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "Chronically high") {
			t.Error("empty excess section should be omitted")
		}
	})
}

func TestApplyProfileArgs(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		var a balance.Attributes
		err := applyProfileArgs(&a, "sex=Female birth=1990-05-17 weight=62,5 height=168 activity=light goal=fat_loss")
		if err != nil {
			t.Fatalf("applyProfileArgs() error = %v", err)
		}
		if a.Sex != balance.SexFemale || a.WeightKg != 62.5 || a.HeightCm != 168 {
			t.Errorf("attributes = %+v", a)
		}
		if a.ActivityLevel != balance.ActivityLight || a.Goal != balance.GoalFatLoss {
			t.Errorf("attributes = %+v", a)
		}
		if a.BirthDate == nil || a.BirthDate.Year() != 1990 {
			t.Errorf("BirthDate = %v", a.BirthDate)
		}
	})

	invalid := []string{
		"sex=robot",
		"weight=-3",
		"height=tall",
		"birth=17.05.1990",
		"shoe=42",
		"weight",
	}
	for _, args := range invalid {
		t.Run(args, func(t *testing.T) {
			var a balance.Attributes
			if err := applyProfileArgs(&a, args); err == nil {
				t.Errorf("applyProfileArgs(%q) should fail", args)
			}
		})
	}
}

func TestFormatMetricsMarkdown(t *testing.T) {
	r := &app.MetricsReport{
		Resolutions: []metrics.DailyResolutions{
			{Date: "2024-03-10", BySource: map[string]int{"none": 1, "bls": 2}, Total: 3, AvgLatencyMS: 150},
		},
		Usage: []metrics.DailyUsage{
			{Date: "2024-03-10", TotalPrompt: 100, TotalCompletion: 20, TotalExecution: 2},
		},
		Health: metrics.SysHealth{AllocMB: 12, SysMB: 30, Goroutines: 8, DBSize: "1.5 KB"},
	}
	out := formatMetricsMarkdown(r)

	for _, want := range []string{
		"• *2024-03-10*: 3 lookups (bls 2, none 1), avg 150 ms",
		"• *2024-03-10*: 120 tokens (2 execs)",
		"• RAM: 12MB (Alloc) / 30MB (Sys)",
		"• Database: 1.5 KB",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
