package meal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"nourish/internal/database"
	"nourish/internal/nutrient"
)

func TestRepository_ItemProfilesMalformedBlob(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	defer db.Close()
	repo := NewRepository(db.SQL, zap.NewNop())

	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	good := nutrient.New(map[nutrient.Field]float64{nutrient.Calories: 120})
	m := Meal{
		ID: "m1", UserID: "u1", Type: Lunch, InputMethod: InputManual,
		Date: day, LoggedAt: day.Add(12 * time.Hour),
		Items: []Item{
			{ID: "i1", Name: "Brot", Amount: 50, Unit: "g", Grams: 50, Nutrients: &good},
			{ID: "i2", Name: "Kaputt", Amount: 10, Unit: "g", Grams: 10, Nutrients: &good},
			{ID: "i3", Name: "Unbekannt", Amount: 10, Unit: "g", Grams: 10},
		},
	}
	if err := repo.SaveMeal(ctx, m); err != nil {
		t.Fatalf("SaveMeal() error = %v", err)
	}
	if _, err := db.SQL.ExecContext(ctx,
		`UPDATE food_items SET calculated_nutrients = 'not json' WHERE id = 'i2'`); err != nil {
		t.Fatal(err)
	}

	profiles, err := repo.ItemProfiles(ctx, "u1", day)
	if err != nil {
		t.Fatalf("ItemProfiles() error = %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("len(profiles) = %d, want 2", len(profiles))
	}
	var total float64
	for _, p := range profiles {
		total += p.Get(nutrient.Calories)
	}
	if total != 120 {
		t.Errorf("total calories = %v, want 120", total)
	}

	meals, err := repo.ListMeals(ctx, "u1", day)
	if err != nil {
		t.Fatalf("ListMeals() error = %v", err)
	}
	if len(meals) != 1 || len(meals[0].Items) != 3 {
		t.Fatalf("ListMeals() = %+v", meals)
	}
	if meals[0].Items[2].Resolved() {
		t.Error("item without nutrients should stay unresolved")
	}

	other, err := repo.ListMeals(ctx, "u2", day)
	if err != nil || len(other) != 0 {
		t.Errorf("ListMeals(u2) = %v, %v", other, err)
	}
}
