// Package balance compares a user's nutrient intake with personalised
// targets: daily aggregates, energy and micronutrient targets, deficit
// reports and week trends.
package balance

import "nourish/internal/nutrient"

// AggregatePrecision is the number of decimals kept in a daily aggregate.
const AggregatePrecision = 2

// Aggregate sums the scaled profiles of one user-day. No items yield the
// zero profile.
func Aggregate(items []nutrient.Profile) nutrient.Profile {
	return nutrient.Sum(items...).Round(AggregatePrecision)
}
