package deduction

import "github.com/fekuna/omnipos-bar-service/internal/model"

// RecipeIndex groups recipe entries under their normalized cocktail name.
type RecipeIndex struct {
	byCocktail map[string][]model.RecipeEntry
}

func NewRecipeIndex(entries []model.RecipeEntry) *RecipeIndex {
	ix := &RecipeIndex{byCocktail: make(map[string][]model.RecipeEntry)}
	for _, e := range entries {
		key := Normalize(e.Cocktail)
		ix.byCocktail[key] = append(ix.byCocktail[key], e)
	}
	return ix
}

// Lookup returns the ingredients poured for one serving. An empty result means no recipe.
func (ix *RecipeIndex) Lookup(normalizedCocktail string) []model.RecipeEntry {
	if ix == nil {
		return nil
	}
	return ix.byCocktail[normalizedCocktail]
}

// Len is the number of distinct cocktails.
func (ix *RecipeIndex) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.byCocktail)
}
