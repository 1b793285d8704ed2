package deduction

import (
	"database/sql"
	"math"

	"github.com/fekuna/omnipos-bar-service/internal/model"
	"github.com/shopspring/decimal"
)

// ingredientDemand keeps per-ingredient ounce totals in first-seen order.
type ingredientDemand struct {
	order  []string
	labels map[string]string
	oz     map[string]float64
}

func newIngredientDemand() *ingredientDemand {
	return &ingredientDemand{
		labels: make(map[string]string),
		oz:     make(map[string]float64),
	}
}

func (d *ingredientDemand) add(ingredient string, oz float64) {
	key := Normalize(ingredient)
	if _, ok := d.labels[key]; !ok {
		label := ingredient
		if label == "" {
			label = key
		}
		d.order = append(d.order, key)
		d.labels[key] = label
	}
	d.oz[key] += oz
}

// rowIndex maps normalized item names to the first inventory row carrying them.
type rowIndex struct {
	first      map[string]int
	duplicates []string
}

func newRowIndex(rows []model.InventoryRow) *rowIndex {
	ix := &rowIndex{first: make(map[string]int, len(rows))}
	seenDup := make(map[string]bool)
	for i := range rows {
		key := Normalize(rows[i].ItemName)
		if key == "" {
			continue
		}
		if _, ok := ix.first[key]; ok {
			if !seenDup[key] {
				seenDup[key] = true
				ix.duplicates = append(ix.duplicates, key)
			}
			continue
		}
		ix.first[key] = i
	}
	return ix
}

// Apply folds sales into per-ingredient ounces through recipes, then deducts each
// ingredient once from its inventory row. rows are mutated in place; no row is added
// or removed. Unknown cocktails and ingredients are reported, not treated as errors.
func Apply(rows []model.InventoryRow, recipes *RecipeIndex, sales []model.SalesLine) *Report {
	report := newReport()

	demand := newIngredientDemand()
	for _, line := range sales {
		entries := recipes.Lookup(Normalize(line.Cocktail))
		if len(entries) == 0 {
			report.addUnmatchedCocktail(line.Cocktail)
			continue
		}
		for _, e := range entries {
			demand.add(e.Ingredient, e.AmountOz*line.Quantity)
		}
	}

	index := newRowIndex(rows)
	report.DuplicateItems = index.duplicates

	for _, key := range demand.order {
		label, ozNeeded := demand.labels[key], demand.oz[key]

		i, ok := index.first[key]
		if !ok {
			report.addUnmatchedIngredient(label)
			continue
		}

		adj := deduct(&rows[i], ozNeeded)
		adj.Ingredient = label
		adj.RowIndex = i
		report.addAdjustment(adj)
	}

	report.finish()
	return report
}

func deduct(row *model.InventoryRow, ozNeeded float64) Adjustment {
	bottleOz, source := resolveBottleSize(row)
	adj := Adjustment{
		ItemName:       row.ItemName,
		OzDeducted:     ozNeeded,
		BottleOz:       bottleOz,
		SizeSource:     source,
		OnHandBefore:   row.OnHandValue(),
		LeftoverBefore: row.LeftoverValue(),
	}

	totalOz := adj.OnHandBefore*bottleOz + adj.LeftoverBefore
	totalOz = math.Max(0, totalOz-ozNeeded)

	adj.OnHandAfter, adj.LeftoverAfter = SplitBottles(totalOz, bottleOz)

	row.OnHand = sql.NullFloat64{Float64: adj.OnHandAfter, Valid: true}
	row.LeftoverOz = sql.NullFloat64{Float64: adj.LeftoverAfter, Valid: true}
	return adj
}

// SplitBottles turns a total volume into whole bottles and the open bottle's ounces,
// rounded to cents of an ounce and kept strictly below bottleOz.
func SplitBottles(totalOz, bottleOz float64) (onHand, leftover float64) {
	if totalOz <= 0 {
		return 0, 0
	}
	onHand = math.Floor(totalOz / bottleOz)
	leftover = roundOz(totalOz - onHand*bottleOz)
	if leftover >= bottleOz {
		onHand++
		leftover = roundOz(leftover - bottleOz)
	}
	if leftover <= 0 {
		leftover = 0
	}
	return onHand, leftover
}

func roundOz(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
