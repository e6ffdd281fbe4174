// Package meal stores logged meals and runs the ingestion flow that turns
// food mentions into scaled nutrient contributions.
package meal

import (
	"time"

	"nourish/internal/balance"
	"nourish/internal/nutrient"
)

// Type is the meal slot of an entry.
type Type string

const (
	Breakfast Type = "breakfast"
	Lunch     Type = "lunch"
	Dinner    Type = "dinner"
	Snack     Type = "snack"
	Drink     Type = "drink"
)

// ParseType returns the meal type named s.
func ParseType(s string) (Type, bool) {
	switch t := Type(s); t {
	case Breakfast, Lunch, Dinner, Snack, Drink:
		return t, true
	}
	return "", false
}

// DetectType picks the meal slot from the local hour of t.
func DetectType(t time.Time) Type {
	switch h := t.Hour(); {
	case h < 10:
		return Breakfast
	case h < 14:
		return Lunch
	case h < 17:
		return Snack
	default:
		return Dinner
	}
}

// InputMethod records how a meal was entered.
type InputMethod string

const (
	InputText    InputMethod = "text"
	InputVoice   InputMethod = "voice"
	InputBarcode InputMethod = "barcode"
	InputManual  InputMethod = "manual"
)

// Mention is one food as the user named it.
type Mention struct {
	Name    string  `json:"name"`
	Amount  float64 `json:"amount"`
	Unit    string  `json:"unit"`
	Barcode string  `json:"barcode,omitempty"`
}

// Item is a consumed food with its resolution. Nutrients is nil when the
// food could not be resolved.
type Item struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Amount        float64           `json:"amount"`
	Unit          string            `json:"unit"`
	Barcode       string            `json:"barcode,omitempty"`
	Grams         float64           `json:"normalized_grams"`
	LowConfidence bool              `json:"low_confidence"`
	Source        string            `json:"source,omitempty"`
	ExternalID    string            `json:"external_id,omitempty"`
	Nutrients     *nutrient.Profile `json:"calculated_nutrients"`
}

// Resolved reports whether the item carries a nutrient profile.
func (i Item) Resolved() bool {
	return i.Nutrients != nil
}

// Meal is one logged entry with its items in input order.
type Meal struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Type        Type        `json:"meal_type"`
	InputMethod InputMethod `json:"input_method"`
	RawInput    string      `json:"raw_input,omitempty"`
	Feedback    string      `json:"ai_feedback,omitempty"`
	Date        time.Time   `json:"meal_date"`
	LoggedAt    time.Time   `json:"logged_at"`
	Items       []Item      `json:"items"`
}

// Totals sums the resolved items of the meal.
func (m Meal) Totals() nutrient.Profile {
	profiles := make([]nutrient.Profile, 0, len(m.Items))
	for _, it := range m.Items {
		if it.Nutrients != nil {
			profiles = append(profiles, *it.Nutrients)
		}
	}
	return balance.Aggregate(profiles)
}

// Unresolved returns the names of items without nutrients.
func (m Meal) Unresolved() []string {
	var out []string
	for _, it := range m.Items {
		if !it.Resolved() {
			out = append(out, it.Name)
		}
	}
	return out
}

// Profile is a user's stored physiological data. TargetOverride replaces
// the computed target when set.
type Profile struct {
	UserID         string             `json:"user_id"`
	Attributes     balance.Attributes `json:"attributes"`
	TargetOverride *nutrient.Profile  `json:"target_override,omitempty"`
	UpdatedAt      time.Time          `json:"updated_at"`
}
