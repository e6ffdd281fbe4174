// Package quantity converts free-form amounts into grams.
package quantity

import (
	"math"
	"strings"
)

// Method records which rule produced a gram value.
type Method string

const (
	MethodMass        Method = "mass"
	MethodPiece       Method = "piece"
	MethodHousehold   Method = "household"
	MethodPassthrough Method = "passthrough"
)

// Result is the outcome of a normalization. LowConfidence is set when the
// unit was not recognised and the amount was taken as grams.
type Result struct {
	Grams         float64
	Method        Method
	LowConfidence bool
}

// Normalize converts amount of unit for the named food into grams. It never
// fails: unknown units pass the amount through as grams. An empty unit is
// read as grams.
func Normalize(name string, amount float64, unit string) Result {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		amount = 0
	}
	u := normalizeKey(unit)

	if u == "" {
		return Result{Grams: amount, Method: MethodMass}
	}
	if factor, ok := massUnits[u]; ok {
		return Result{Grams: amount * factor, Method: MethodMass}
	}
	if pieceUnits[u] {
		return Result{Grams: amount * PieceWeight(name), Method: MethodPiece}
	}
	if factor, ok := householdUnits[u]; ok {
		return Result{Grams: amount * factor, Method: MethodHousehold}
	}
	return Result{Grams: amount, Method: MethodPassthrough, LowConfidence: true}
}

// PieceWeight returns the average weight in grams of one piece of the named
// food, or DefaultPieceGrams when the food is not listed.
func PieceWeight(name string) float64 {
	if w, ok := pieceWeights[normalizeKey(name)]; ok {
		return w
	}
	return DefaultPieceGrams
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
