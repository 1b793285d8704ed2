package deduction

import (
	"reflect"
	"strings"
	"testing"

	"github.com/fekuna/omnipos-bar-service/internal/model"
)

func tequilaRow(onHand, leftover float64) model.InventoryRow {
	return model.InventoryRow{
		ItemName:     "Tequila",
		OnHand:       num(onHand),
		LeftoverOz:   num(leftover),
		BottleSizeOz: num(25.36),
	}
}

func TestApplyMargaritaScenario(t *testing.T) {
	rows := []model.InventoryRow{tequilaRow(2, 0)}
	recipes := NewRecipeIndex([]model.RecipeEntry{
		{Cocktail: "margarita", Ingredient: "Tequila", AmountOz: 1.5},
	})

	report := Apply(rows, recipes, []model.SalesLine{{Cocktail: "Margarita", Quantity: 10}})

	if rows[0].OnHand.Float64 != 1 {
		t.Fatalf("expected 1 bottle left, got %v", rows[0].OnHand.Float64)
	}
	if !approx(rows[0].LeftoverOz.Float64, 10.36, 1e-9) {
		t.Fatalf("expected ~10.36 oz leftover, got %v", rows[0].LeftoverOz.Float64)
	}
	if got := report.Applied["Tequila"]; got != 15 {
		t.Fatalf("expected 15 oz applied, got %v", got)
	}
	if len(report.UnmatchedCocktails) != 0 || len(report.UnmatchedIngredients) != 0 {
		t.Fatalf("unexpected unmatched names: %+v", report)
	}
}

func TestApplyClampsAtZero(t *testing.T) {
	rows := []model.InventoryRow{tequilaRow(1, 0)}
	recipes := NewRecipeIndex([]model.RecipeEntry{{Cocktail: "shot", Ingredient: "tequila", AmountOz: 1}})

	Apply(rows, recipes, []model.SalesLine{{Cocktail: "Shot", Quantity: 10}})
	if rows[0].OnHand.Float64 != 0 || !approx(rows[0].LeftoverOz.Float64, 15.36, 1e-9) {
		t.Fatalf("after 10 oz: got on_hand=%v leftover=%v", rows[0].OnHand.Float64, rows[0].LeftoverOz.Float64)
	}

	Apply(rows, recipes, []model.SalesLine{{Cocktail: "Shot", Quantity: 20}})
	if rows[0].OnHand.Float64 != 0 || rows[0].LeftoverOz.Float64 != 0 {
		t.Fatalf("after 20 oz: got on_hand=%v leftover=%v", rows[0].OnHand.Float64, rows[0].LeftoverOz.Float64)
	}
}

func TestApplyBatchesSharedIngredient(t *testing.T) {
	recipes := NewRecipeIndex([]model.RecipeEntry{
		{Cocktail: "Paloma", Ingredient: "Tequila", AmountOz: 2},
		{Cocktail: "Margarita", Ingredient: " tequila", AmountOz: 1.5},
		{Cocktail: "Margarita", Ingredient: "Triple Sec", AmountOz: 0.75},
		{Cocktail: "Double", Ingredient: "TEQUILA", AmountOz: 7},
	})

	split := []model.InventoryRow{tequilaRow(3, 4.2)}
	Apply(split, recipes, []model.SalesLine{
		{Cocktail: "Paloma", Quantity: 2},
		{Cocktail: "margarita", Quantity: 2},
	})

	reversed := []model.InventoryRow{tequilaRow(3, 4.2)}
	Apply(reversed, recipes, []model.SalesLine{
		{Cocktail: "margarita", Quantity: 2},
		{Cocktail: "Paloma", Quantity: 2},
	})

	single := []model.InventoryRow{tequilaRow(3, 4.2)}
	Apply(single, recipes, []model.SalesLine{{Cocktail: "double", Quantity: 1}})

	if !reflect.DeepEqual(split, reversed) || !reflect.DeepEqual(split, single) {
		t.Fatalf("final states differ:\n split=%+v\n reversed=%+v\n single=%+v", split, reversed, single)
	}
}

func TestApplyUnmatchedNamesDoNotMutate(t *testing.T) {
	rows := []model.InventoryRow{tequilaRow(2, 1.5)}
	before := rows[0]
	recipes := NewRecipeIndex([]model.RecipeEntry{
		{Cocktail: "Gimlet", Ingredient: "Gin", AmountOz: 2},
	})

	report := Apply(rows, recipes, []model.SalesLine{
		{Cocktail: "Mystery Punch", Quantity: 3},
		{Cocktail: "Mystery Punch", Quantity: 1},
		{Cocktail: "mystery punch", Quantity: 1},
		{Cocktail: "Gimlet", Quantity: 2},
	})

	if !reflect.DeepEqual(rows[0], before) {
		t.Fatalf("row mutated: %+v", rows[0])
	}
	if !reflect.DeepEqual(report.UnmatchedCocktails, []string{"Mystery Punch", "mystery punch"}) {
		t.Fatalf("unexpected unmatched cocktails %v", report.UnmatchedCocktails)
	}
	if !reflect.DeepEqual(report.UnmatchedIngredients, []string{"Gin"}) {
		t.Fatalf("unexpected unmatched ingredients %v", report.UnmatchedIngredients)
	}
	if len(report.Applied) != 0 {
		t.Fatalf("expected nothing applied, got %v", report.Applied)
	}
}

func TestApplyFirstDuplicateRowWins(t *testing.T) {
	rows := []model.InventoryRow{
		tequilaRow(1, 0),
		{ItemName: "  TEQUILA ", OnHand: num(5)},
	}
	recipes := NewRecipeIndex([]model.RecipeEntry{{Cocktail: "shot", Ingredient: "Tequila", AmountOz: 1}})

	report := Apply(rows, recipes, []model.SalesLine{{Cocktail: "shot", Quantity: 1}})

	if rows[1].OnHand.Float64 != 5 || rows[1].LeftoverOz.Valid {
		t.Fatalf("second row should be untouched: %+v", rows[1])
	}
	if len(report.Adjustments) != 1 || report.Adjustments[0].RowIndex != 0 {
		t.Fatalf("expected one adjustment on row 0, got %+v", report.Adjustments)
	}
	if !reflect.DeepEqual(report.DuplicateItems, []string{"tequila"}) {
		t.Fatalf("unexpected duplicates %v", report.DuplicateItems)
	}
}

func TestApplyMissingNumbersDefaultToZero(t *testing.T) {
	rows := []model.InventoryRow{{ItemName: "Rum", SizeDisplay: text("1L")}}
	recipes := NewRecipeIndex([]model.RecipeEntry{{Cocktail: "Daiquiri", Ingredient: "Rum", AmountOz: 2}})

	report := Apply(rows, recipes, []model.SalesLine{{Cocktail: "Daiquiri", Quantity: 1}})

	if rows[0].OnHand.Float64 != 0 || rows[0].LeftoverOz.Float64 != 0 {
		t.Fatalf("expected empty stock, got %+v", rows[0])
	}
	if !rows[0].OnHand.Valid || !rows[0].LeftoverOz.Valid {
		t.Fatalf("deducted fields must be written back")
	}
	if report.Applied["Rum"] != 2 {
		t.Fatalf("expected 2 oz applied, got %v", report.Applied["Rum"])
	}
}

func TestSplitBottlesKeepsLeftoverBelowBottle(t *testing.T) {
	cases := []struct {
		total, bottle    float64
		onHand, leftover float64
	}{
		{50.72, 25.36, 2, 0},
		{25.359999, 25.36, 1, 0},
		{35.72, 25.36, 1, 10.36},
		{0, 25.36, 0, 0},
		{-3, 25.36, 0, 0},
		{100, 33.814, 2, 32.37},
	}
	for _, tc := range cases {
		onHand, leftover := SplitBottles(tc.total, tc.bottle)
		if onHand != tc.onHand || !approx(leftover, tc.leftover, 1e-9) {
			t.Errorf("SplitBottles(%v, %v) = %v, %v; want %v, %v", tc.total, tc.bottle, onHand, leftover, tc.onHand, tc.leftover)
		}
		if leftover < 0 || leftover >= tc.bottle {
			t.Errorf("SplitBottles(%v, %v) leftover %v out of range", tc.total, tc.bottle, leftover)
		}
	}
}

func TestReportLines(t *testing.T) {
	rows := []model.InventoryRow{tequilaRow(2, 0)}
	recipes := NewRecipeIndex([]model.RecipeEntry{
		{Cocktail: "margarita", Ingredient: "Tequila", AmountOz: 1.5},
		{Cocktail: "margarita", Ingredient: "Cointreau", AmountOz: 0.75},
	})
	report := Apply(rows, recipes, []model.SalesLine{
		{Cocktail: "Margarita", Quantity: 3},
		{Cocktail: "Zombie", Quantity: 1},
	})

	got := strings.Join(report.Lines(), "\n")
	for _, want := range []string{
		"Deductions applied:",
		"  • Tequila: 4.5 oz",
		"No recipe found for cocktails:\n  • Zombie",
		"Ingredients not found in inventory:\n  • Cointreau",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}

	empty := Apply(nil, NewRecipeIndex(nil), nil)
	if lines := empty.Lines(); len(lines) != 1 || !strings.HasPrefix(lines[0], "No matching") {
		t.Fatalf("unexpected empty report lines %v", lines)
	}
}
