package quantity

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name          string
		food          string
		amount        float64
		unit          string
		wantGrams     float64
		wantMethod    Method
		wantLowConfid bool
	}{
		{"EggPieces", "Ei", 2, "Stück", 120, MethodPiece, false},
		{"ApplePiece", "Apfel", 1, "Stück", 180, MethodPiece, false},
		{"UnknownPiece", "Drachenfrucht", 3, "stk", 300, MethodPiece, false},
		{"Milliliters", "Milch", 250, "ml", 250, MethodMass, false},
		{"Liters", "Wasser", 1.5, "l", 1500, MethodMass, false},
		{"Kilograms", "Kartoffeln", 0.5, "kg", 500, MethodMass, false},
		{"Grams", "Reis", 80, " G ", 80, MethodMass, false},
		{"EmptyUnit", "Reis", 80, "", 80, MethodMass, false},
		{"Tablespoon", "X", 3, "EL", 45, MethodHousehold, false},
		{"Teaspoon", "Zucker", 2, "TL", 10, MethodHousehold, false},
		{"Cup", "Kaffee", 1, "Tasse", 250, MethodHousehold, false},
		{"Can", "Tomaten", 1, "Dose", 400, MethodHousehold, false},
		{"Handful", "Nüsse", 1, "Handvoll", 40, MethodHousehold, false},
		{"UnknownUnit", "Y", 7, "unknown-unit", 7, MethodPassthrough, true},
		{"NegativeAmount", "Y", -3, "g", 0, MethodMass, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.food, tt.amount, tt.unit)
			if got.Grams != tt.wantGrams {
				t.Errorf("Expected %v g, got %v", tt.wantGrams, got.Grams)
			}
			if got.Method != tt.wantMethod {
				t.Errorf("Expected method %q, got %q", tt.wantMethod, got.Method)
			}
			if got.LowConfidence != tt.wantLowConfid {
				t.Errorf("Expected LowConfidence=%v, got %v", tt.wantLowConfid, got.LowConfidence)
			}
		})
	}
}

func TestPieceWeightNormalizesName(t *testing.T) {
	if w := PieceWeight("  BANANE "); w != 120 {
		t.Errorf("Expected 120, got %v", w)
	}
	if w := PieceWeight("unbekannt"); w != DefaultPieceGrams {
		t.Errorf("Expected default weight, got %v", w)
	}
}
