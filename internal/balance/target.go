package balance

import (
	"math"
	"strings"
	"time"

	"nourish/internal/nutrient"
)

// Sex values understood by the energy formulas. Anything else averages the
// male and female results.
const (
	SexMale   = "male"
	SexFemale = "female"
)

// Activity levels.
const (
	ActivitySedentary  = "sedentary"
	ActivityLight      = "light"
	ActivityModerate   = "moderate"
	ActivityActive     = "active"
	ActivityVeryActive = "very_active"
)

// Health goals.
const (
	GoalMuscleGain    = "muscle_gain"
	GoalFatLoss       = "fat_loss"
	GoalMaintenance   = "maintenance"
	GoalEnergy        = "energy"
	GoalLongevity     = "longevity"
	GoalGeneralHealth = "general_health"
)

const (
	defaultAge      = 30
	defaultWeightKg = 70.0
	defaultHeightCm = 170.0

	minCalories     = 1200.0
	fatLossDelta    = -500.0
	muscleGainDelta = 300.0
)

var activityFactors = map[string]float64{
	ActivitySedentary:  1.2,
	ActivityLight:      1.375,
	ActivityModerate:   1.55,
	ActivityActive:     1.725,
	ActivityVeryActive: 1.9,
}

type macroSplit struct{ protein, carbs, fat float64 }

var macroSplits = map[string]macroSplit{
	GoalMuscleGain:    {0.30, 0.40, 0.30},
	GoalFatLoss:       {0.35, 0.30, 0.35},
	GoalMaintenance:   {0.25, 0.45, 0.30},
	GoalEnergy:        {0.20, 0.50, 0.30},
	GoalLongevity:     {0.25, 0.40, 0.35},
	GoalGeneralHealth: {0.25, 0.45, 0.30},
}

var defaultSplit = macroSplit{0.25, 0.45, 0.30}

// Attributes are the physiological inputs of a target. Zero values fall
// back to the defaults: age 30, 70 kg, 170 cm, moderate activity and the
// general_health goal.
type Attributes struct {
	Sex           string     `json:"sex,omitempty"`
	BirthDate     *time.Time `json:"birth_date,omitempty"`
	WeightKg      float64    `json:"weight_kg,omitempty"`
	HeightCm      float64    `json:"height_cm,omitempty"`
	ActivityLevel string     `json:"activity_level,omitempty"`
	Goal          string     `json:"health_goal,omitempty"`
}

// Age returns the age in completed years on asOf.
func (a Attributes) Age(asOf time.Time) int {
	if a.BirthDate == nil || a.BirthDate.IsZero() {
		return defaultAge
	}
	b := *a.BirthDate
	age := asOf.Year() - b.Year()
	if asOf.Month() < b.Month() || (asOf.Month() == b.Month() && asOf.Day() < b.Day()) {
		age--
	}
	return age
}

func (a Attributes) withDefaults() Attributes {
	if a.WeightKg <= 0 {
		a.WeightKg = defaultWeightKg
	}
	if a.HeightCm <= 0 {
		a.HeightCm = defaultHeightCm
	}
	a.Sex = strings.ToLower(strings.TrimSpace(a.Sex))
	a.ActivityLevel = strings.ToLower(strings.TrimSpace(a.ActivityLevel))
	if a.ActivityLevel == "" {
		a.ActivityLevel = ActivityModerate
	}
	a.Goal = strings.ToLower(strings.TrimSpace(a.Goal))
	if a.Goal == "" {
		a.Goal = GoalGeneralHealth
	}
	return a
}

// Energy holds the intermediate energy estimates of a target.
type Energy struct {
	Age      int
	BMR      float64
	TDEE     float64
	Calories float64
}

func bmrMale(w, h float64, age int) float64 {
	return 88.362 + 13.397*w + 4.799*h - 5.677*float64(age)
}

func bmrFemale(w, h float64, age int) float64 {
	return 447.593 + 9.247*w + 3.098*h - 4.330*float64(age)
}

// EnergyNeeds computes BMR (Harris-Benedict), TDEE and the goal-adjusted
// calorie target, unrounded.
func EnergyNeeds(a Attributes, asOf time.Time) Energy {
	a = a.withDefaults()
	age := a.Age(asOf)

	var bmr float64
	switch a.Sex {
	case SexMale:
		bmr = bmrMale(a.WeightKg, a.HeightCm, age)
	case SexFemale:
		bmr = bmrFemale(a.WeightKg, a.HeightCm, age)
	default:
		bmr = (bmrMale(a.WeightKg, a.HeightCm, age) + bmrFemale(a.WeightKg, a.HeightCm, age)) / 2
	}

	factor, ok := activityFactors[a.ActivityLevel]
	if !ok {
		factor = activityFactors[ActivityModerate]
	}
	tdee := bmr * factor

	calories := tdee
	switch a.Goal {
	case GoalFatLoss:
		calories += fatLossDelta
	case GoalMuscleGain:
		calories += muscleGainDelta
	}
	calories = math.Max(calories, minCalories)

	return Energy{Age: age, BMR: bmr, TDEE: tdee, Calories: calories}
}

// Target computes the daily target profile for a on the day asOf.
func Target(a Attributes, asOf time.Time) nutrient.Profile {
	a = a.withDefaults()
	e := EnergyNeeds(a, asOf)
	cal := e.Calories
	female := a.Sex == SexFemale

	split, ok := macroSplits[a.Goal]
	if !ok {
		split = defaultSplit
	}

	pick := func(f, m float64) float64 {
		if female {
			return f
		}
		return m
	}

	b6 := 1.5
	switch {
	case e.Age > 65:
		b6 = 1.4
	case female:
		b6 = 1.2
	}

	iron := 10.0
	if female && e.Age < 51 {
		iron = 15
	}

	r1 := func(v float64) float64 { return nutrient.RoundTo(v, 1) }

	return nutrient.New(map[nutrient.Field]float64{
		nutrient.Calories:           math.Round(cal),
		nutrient.Protein:            r1(cal * split.protein / 4),
		nutrient.Carbs:              r1(cal * split.carbs / 4),
		nutrient.CarbsSugar:         50,
		nutrient.CarbsSugarGlucose:  0,
		nutrient.CarbsSugarFructose: 0,
		nutrient.CarbsStarch:        0,
		nutrient.Fiber:              30,
		nutrient.Fat:                r1(cal * split.fat / 9),
		nutrient.FatSaturated:       r1(cal * 0.10 / 9),
		nutrient.FatMono:            r1(cal * 0.13 / 9),
		nutrient.FatPoly:            r1(cal * 0.07 / 9),
		nutrient.FatOmega3:          pick(1.1, 1.6),
		nutrient.FatOmega6:          pick(5, 7),
		nutrient.FatTrans:           0,
		nutrient.Sodium:             1500,

		nutrient.VitaminA:   pick(800, 1000),
		nutrient.VitaminB1:  pick(1.0, 1.2),
		nutrient.VitaminB2:  pick(1.1, 1.4),
		nutrient.VitaminB3:  pick(13, 16),
		nutrient.VitaminB5:  6,
		nutrient.VitaminB6:  b6,
		nutrient.VitaminB7:  40,
		nutrient.VitaminB9:  300,
		nutrient.VitaminB12: 4,
		nutrient.VitaminC:   pick(95, 110),
		nutrient.VitaminD:   20,
		nutrient.VitaminE:   pick(12, 14),
		nutrient.VitaminK:   pick(60, 70),

		nutrient.Calcium:    1000,
		nutrient.Magnesium:  pick(300, 350),
		nutrient.Potassium:  4000,
		nutrient.Phosphorus: 700,
		nutrient.Iron:       iron,
		nutrient.Zinc:       pick(7, 10),
		nutrient.Copper:     1,
		nutrient.Iodine:     200,
		nutrient.Selenium:   pick(60, 70),
		nutrient.Manganese:  3,
		nutrient.Chromium:   pick(30, 35),
		nutrient.Molybdenum: 50,

		nutrient.Caffeine: 400,
		nutrient.Alcohol:  0,
	})
}
