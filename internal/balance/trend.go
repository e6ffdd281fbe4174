package balance

import (
	"time"

	"nourish/internal/nutrient"
)

// TrendDays is the length of the trend window.
const TrendDays = 7

// chronicDayThreshold is the number of flagged days that makes a nutrient
// chronic in a full window.
const chronicDayThreshold = 5

var (
	ignoredForChronicDeficit = map[nutrient.Field]bool{
		nutrient.Caffeine: true,
		nutrient.Alcohol:  true,
		nutrient.FatTrans: true,
	}
	ignoredForChronicExcess = map[nutrient.Field]bool{
		nutrient.Caffeine: true,
		nutrient.Alcohol:  true,
	}
)

// DayLog is the stored (actual, target) pair of one tracked day.
type DayLog struct {
	Date   time.Time
	Actual nutrient.Profile
	Target nutrient.Profile
}

// ChronicEntry is a nutrient flagged on at least the threshold number of
// days.
type ChronicEntry struct {
	Field   nutrient.Field `json:"-"`
	Name    string         `json:"nutrient"`
	Days    int            `json:"days"`
	Average float64        `json:"avg_value"`
}

// WeekTrend summarises the tracked days of a window.
type WeekTrend struct {
	DaysTracked     int              `json:"days_tracked"`
	Averages        nutrient.Profile `json:"averages"`
	ChronicDeficits []ChronicEntry   `json:"chronic_deficits"`
	ChronicExcesses []ChronicEntry   `json:"chronic_excesses"`
}

// ComputeWeekTrend averages the given days and flags chronic deficits and
// excesses. Averages divide by the number of logs, and a nutrient is chronic
// when flagged on at least min(5, days) days. A stored day with no intake is
// still a tracked day and counts at 0% of its targets. Fields with a zero
// target on a day are not counted for that day.
func ComputeWeekTrend(logs []DayLog) WeekTrend {
	trend := WeekTrend{
		DaysTracked:     len(logs),
		ChronicDeficits: []ChronicEntry{},
		ChronicExcesses: []ChronicEntry{},
	}
	if len(logs) == 0 {
		return trend
	}

	fields := nutrient.Fields()
	deficitDays := make(map[nutrient.Field]int, len(fields))
	excessDays := make(map[nutrient.Field]int, len(fields))
	sums := make([]nutrient.Profile, 0, len(logs))

	for _, day := range logs {
		sums = append(sums, day.Actual)
		for _, f := range fields {
			t := day.Target.Get(f)
			if t <= 0 {
				continue
			}
			switch bandStatus(day.Actual.Get(f) / t * 100) {
			case StatusDeficit:
				deficitDays[f]++
			case StatusExcess:
				excessDays[f]++
			}
		}
	}

	trend.Averages = nutrient.Sum(sums...).Divide(float64(len(logs))).Round(2)

	threshold := min(chronicDayThreshold, len(logs))
	for _, f := range fields {
		if n := deficitDays[f]; n >= threshold && !ignoredForChronicDeficit[f] {
			trend.ChronicDeficits = append(trend.ChronicDeficits, ChronicEntry{
				Field: f, Name: f.String(), Days: n, Average: trend.Averages.Get(f),
			})
		}
		if n := excessDays[f]; n >= threshold && !ignoredForChronicExcess[f] {
			trend.ChronicExcesses = append(trend.ChronicExcesses, ChronicEntry{
				Field: f, Name: f.String(), Days: n, Average: trend.Averages.Get(f),
			})
		}
	}
	return trend
}
