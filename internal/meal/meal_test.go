package meal

import (
	"testing"
	"time"

	"nourish/internal/nutrient"
)

func TestDetectType(t *testing.T) {
	tests := []struct {
		hour int
		want Type
	}{
		{7, Breakfast},
		{9, Breakfast},
		{10, Lunch},
		{13, Lunch},
		{14, Snack},
		{16, Snack},
		{17, Dinner},
		{23, Dinner},
	}
	for _, tt := range tests {
		at := time.Date(2024, 3, 1, tt.hour, 30, 0, 0, time.UTC)
		if got := DetectType(at); got != tt.want {
			t.Errorf("DetectType(%02d:30) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}

func TestParseType(t *testing.T) {
	if got, ok := ParseType("drink"); !ok || got != Drink {
		t.Errorf("ParseType(drink) = %q, %v", got, ok)
	}
	if _, ok := ParseType("brunch"); ok {
		t.Error("ParseType(brunch) should fail")
	}
}

func TestMeal_TotalsAndUnresolved(t *testing.T) {
	a := nutrient.New(map[nutrient.Field]float64{nutrient.Calories: 100.004, nutrient.Protein: 2})
	b := nutrient.New(map[nutrient.Field]float64{nutrient.Calories: 50})
	m := Meal{Items: []Item{
		{Name: "Brot", Nutrients: &a},
		{Name: "Mysterium"},
		{Name: "Butter", Nutrients: &b},
	}}

	totals := m.Totals()
	if got := totals.Get(nutrient.Calories); got != 150 {
		t.Errorf("calories = %v, want 150", got)
	}
	if got := totals.Get(nutrient.Protein); got != 2 {
		t.Errorf("protein = %v, want 2", got)
	}
	unresolved := m.Unresolved()
	if len(unresolved) != 1 || unresolved[0] != "Mysterium" {
		t.Errorf("Unresolved() = %v", unresolved)
	}
}
