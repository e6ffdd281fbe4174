package nutrient

import "math"

// ScalePrecision is the number of decimals kept on scaled values.
const ScalePrecision = 2

// Scale converts a per-100 g profile into the amounts contained in grams of
// the food. Every field is rounded to ScalePrecision decimals. Negative or
// non-finite gram values contribute nothing.
func Scale(per100g Profile, grams float64) Profile {
	if math.IsNaN(grams) || math.IsInf(grams, 0) || grams < 0 {
		grams = 0
	}
	return per100g.Multiply(grams / 100).Round(ScalePrecision)
}
