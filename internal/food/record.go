// Package food resolves food mentions to per-100 g nutrient profiles through
// a cascade of data sources.
package food

import "nourish/internal/nutrient"

// Source tags where a Record came from.
type Source string

const (
	SourceBarcode Source = "open_food_facts"
	SourceLocal   Source = "bls"
	SourceRemote  Source = "usda"
)

// Record is the resolved identity of a food mention.
type Record struct {
	Name       string           `json:"name"`
	Brand      string           `json:"brand,omitempty"`
	Source     Source           `json:"source"`
	ExternalID string           `json:"external_id"`
	Per100g    nutrient.Profile `json:"nutrients_per_100"`
}

// Scale returns the nutrients contained in grams of this food.
func (r *Record) Scale(grams float64) nutrient.Profile {
	return nutrient.Scale(r.Per100g, grams)
}
