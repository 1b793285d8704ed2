package deduction

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Adjustment records what one ingredient deduction did to its inventory row.
type Adjustment struct {
	Ingredient     string
	ItemName       string
	RowIndex       int
	OzDeducted     float64
	BottleOz       float64
	SizeSource     string
	OnHandBefore   float64
	OnHandAfter    float64
	LeftoverBefore float64
	LeftoverAfter  float64
}

// Report summarizes one sales import.
type Report struct {
	// Applied maps ingredient label to total ounces deducted.
	Applied              map[string]float64
	Adjustments          []Adjustment
	UnmatchedCocktails   []string
	UnmatchedIngredients []string
	// DuplicateItems lists normalized names carried by more than one inventory row.
	DuplicateItems []string

	seenCocktails   map[string]bool
	seenIngredients map[string]bool
}

func newReport() *Report {
	return &Report{
		Applied:         make(map[string]float64),
		seenCocktails:   make(map[string]bool),
		seenIngredients: make(map[string]bool),
	}
}

func (r *Report) addUnmatchedCocktail(name string) {
	if r.seenCocktails[name] {
		return
	}
	r.seenCocktails[name] = true
	r.UnmatchedCocktails = append(r.UnmatchedCocktails, name)
}

func (r *Report) addUnmatchedIngredient(name string) {
	if r.seenIngredients[name] {
		return
	}
	r.seenIngredients[name] = true
	r.UnmatchedIngredients = append(r.UnmatchedIngredients, name)
}

func (r *Report) addAdjustment(adj Adjustment) {
	r.Applied[adj.Ingredient] = adj.OzDeducted
	r.Adjustments = append(r.Adjustments, adj)
}

func (r *Report) finish() {
	sort.Strings(r.UnmatchedCocktails)
	sort.Strings(r.UnmatchedIngredients)
	sort.Strings(r.DuplicateItems)
	r.seenCocktails = nil
	r.seenIngredients = nil
}

// Empty is true when the import matched nothing at all.
func (r *Report) Empty() bool {
	return len(r.Adjustments) == 0 && len(r.UnmatchedCocktails) == 0 && len(r.UnmatchedIngredients) == 0
}

// Lines renders the report as the text shown to staff after an import.
func (r *Report) Lines() []string {
	if r.Empty() {
		return []string{"No matching cocktails or ingredients found in this sales file."}
	}

	var msg []string
	if len(r.Adjustments) > 0 {
		msg = append(msg, "Deductions applied:")
		for _, adj := range r.Adjustments {
			msg = append(msg, fmt.Sprintf("  • %s: %s oz", adj.Ingredient, FormatOz(adj.OzDeducted)))
		}
	}
	if len(r.UnmatchedCocktails) > 0 {
		msg = append(msg, "", "No recipe found for cocktails:")
		for _, c := range r.UnmatchedCocktails {
			msg = append(msg, "  • "+c)
		}
	}
	if len(r.UnmatchedIngredients) > 0 {
		msg = append(msg, "", "Ingredients not found in inventory:")
		for _, i := range r.UnmatchedIngredients {
			msg = append(msg, "  • "+i)
		}
	}
	if len(r.DuplicateItems) > 0 {
		msg = append(msg, "", "Inventory items sharing a name (first row used):")
		for _, d := range r.DuplicateItems {
			msg = append(msg, "  • "+d)
		}
	}
	return msg
}

// FormatOz prints ounces rounded to two decimals without trailing zeros.
func FormatOz(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}
