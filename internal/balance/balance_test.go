package balance

import (
	"math"
	"testing"
	"time"

	"nourish/internal/nutrient"
)

func profile(values map[nutrient.Field]float64) nutrient.Profile {
	return nutrient.New(values)
}

func TestAggregate(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if !Aggregate(nil).IsZero() {
			t.Error("expected zero aggregate")
		}
	})

	t.Run("field-wise sum", func(t *testing.T) {
		a := profile(map[nutrient.Field]float64{nutrient.Calories: 93.6, nutrient.Protein: 0.54})
		b := profile(map[nutrient.Field]float64{nutrient.Calories: 155.1, nutrient.Iron: 1.2})
		got := Aggregate([]nutrient.Profile{a, b})
		if got.Get(nutrient.Calories) != 248.7 || got.Get(nutrient.Protein) != 0.54 || got.Get(nutrient.Iron) != 1.2 {
			t.Errorf("Aggregate() = %v", got.Map())
		}
	})
}

func TestEnergyNeeds(t *testing.T) {
	asOf := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	birth := time.Date(1996, 1, 10, 0, 0, 0, 0, time.UTC)
	base := Attributes{Sex: "male", BirthDate: &birth, WeightKg: 70, HeightCm: 170, ActivityLevel: "moderate", Goal: "general_health"}

	t.Run("male regression", func(t *testing.T) {
		e := EnergyNeeds(base, asOf)
		if e.Age != 30 {
			t.Fatalf("Age = %d, want 30", e.Age)
		}
		if math.Abs(e.BMR-1671.672) > 1e-9 {
			t.Errorf("BMR = %v, want 1671.672", e.BMR)
		}
		if math.Abs(e.TDEE-2591.0916) > 1e-9 {
			t.Errorf("TDEE = %v, want 2591.0916", e.TDEE)
		}
	})

	t.Run("missing attributes use defaults", func(t *testing.T) {
		e := EnergyNeeds(Attributes{Sex: "male"}, asOf)
		want := EnergyNeeds(base, asOf)
		if e != want {
			t.Errorf("EnergyNeeds() = %+v, want %+v", e, want)
		}
	})

	t.Run("unspecified sex averages both formulas", func(t *testing.T) {
		a := base
		a.Sex = "diverse"
		e := EnergyNeeds(a, asOf)
		want := (bmrMale(70, 170, 30) + bmrFemale(70, 170, 30)) / 2
		if math.Abs(e.BMR-want) > 1e-9 {
			t.Errorf("BMR = %v, want %v", e.BMR, want)
		}
	})

	t.Run("goal adjustments", func(t *testing.T) {
		loss := base
		loss.Goal = "fat_loss"
		gain := base
		gain.Goal = "muscle_gain"
		tdee := EnergyNeeds(base, asOf).TDEE
		if got := EnergyNeeds(loss, asOf).Calories; math.Abs(got-(tdee-500)) > 1e-9 {
			t.Errorf("fat_loss calories = %v", got)
		}
		if got := EnergyNeeds(gain, asOf).Calories; math.Abs(got-(tdee+300)) > 1e-9 {
			t.Errorf("muscle_gain calories = %v", got)
		}
	})

	t.Run("calorie floor", func(t *testing.T) {
		tiny := Attributes{Sex: "female", WeightKg: 30, HeightCm: 120, ActivityLevel: "sedentary", Goal: "fat_loss"}
		if got := EnergyNeeds(tiny, asOf).Calories; got != 1200 {
			t.Errorf("Calories = %v, want 1200", got)
		}
	})

	t.Run("unknown activity is moderate", func(t *testing.T) {
		a := base
		a.ActivityLevel = "couch"
		if got, want := EnergyNeeds(a, asOf).TDEE, EnergyNeeds(base, asOf).TDEE; got != want {
			t.Errorf("TDEE = %v, want %v", got, want)
		}
	})
}

func TestAttributes_Age(t *testing.T) {
	birth := time.Date(1990, 7, 20, 0, 0, 0, 0, time.UTC)
	a := Attributes{BirthDate: &birth}
	if got := a.Age(time.Date(2026, 7, 19, 0, 0, 0, 0, time.UTC)); got != 35 {
		t.Errorf("day before birthday = %d, want 35", got)
	}
	if got := a.Age(time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)); got != 36 {
		t.Errorf("birthday = %d, want 36", got)
	}
	if got := (Attributes{}).Age(time.Now()); got != 30 {
		t.Errorf("no birth date = %d, want 30", got)
	}
}

func TestTarget(t *testing.T) {
	asOf := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	t.Run("male regression", func(t *testing.T) {
		got := Target(Attributes{Sex: "male", WeightKg: 70, HeightCm: 170, ActivityLevel: "moderate", Goal: "general_health"}, asOf)
		want := map[nutrient.Field]float64{
			nutrient.Calories:     2591,
			nutrient.Protein:      161.9,
			nutrient.Carbs:        291.5,
			nutrient.Fat:          86.4,
			nutrient.FatSaturated: 28.8,
			nutrient.FatMono:      37.4,
			nutrient.FatPoly:      20.2,
			nutrient.Fiber:        30,
			nutrient.CarbsSugar:   50,
			nutrient.FatOmega3:    1.6,
			nutrient.VitaminA:     1000,
			nutrient.VitaminB6:    1.5,
			nutrient.VitaminC:     110,
			nutrient.Iron:         10,
			nutrient.Zinc:         10,
			nutrient.Sodium:       1500,
			nutrient.Caffeine:     400,
			nutrient.Alcohol:      0,
			nutrient.FatTrans:     0,
		}
		for f, w := range want {
			if got.Get(f) != w {
				t.Errorf("%s = %v, want %v", f, got.Get(f), w)
			}
		}
	})

	t.Run("female under 51 gets more iron", func(t *testing.T) {
		birth := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
		got := Target(Attributes{Sex: "female", BirthDate: &birth}, asOf)
		if got.Get(nutrient.Iron) != 15 || got.Get(nutrient.Zinc) != 7 || got.Get(nutrient.VitaminB6) != 1.2 {
			t.Errorf("iron=%v zinc=%v b6=%v", got.Get(nutrient.Iron), got.Get(nutrient.Zinc), got.Get(nutrient.VitaminB6))
		}
	})

	t.Run("female over 65", func(t *testing.T) {
		birth := time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)
		got := Target(Attributes{Sex: "female", BirthDate: &birth}, asOf)
		if got.Get(nutrient.Iron) != 10 || got.Get(nutrient.VitaminB6) != 1.4 {
			t.Errorf("iron=%v b6=%v", got.Get(nutrient.Iron), got.Get(nutrient.VitaminB6))
		}
	})

	t.Run("macro split follows goal", func(t *testing.T) {
		a := Attributes{Sex: "male", Goal: "fat_loss"}
		cal := EnergyNeeds(a, asOf).Calories
		got := Target(a, asOf)
		if want := nutrient.RoundTo(cal*0.35/4, 1); got.Get(nutrient.Protein) != want {
			t.Errorf("protein = %v, want %v", got.Get(nutrient.Protein), want)
		}
		if want := nutrient.RoundTo(cal*0.35/9, 1); got.Get(nutrient.Fat) != want {
			t.Errorf("fat = %v, want %v", got.Get(nutrient.Fat), want)
		}
	})
}
