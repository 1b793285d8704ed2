package dto

import (
	"database/sql"
	"testing"

	"github.com/fekuna/omnipos-bar-service/internal/model"
)

func TestInventoryFiltersMatches(t *testing.T) {
	row := &model.InventoryRow{
		ItemName:     "Reposado Tequila",
		Category:     sql.NullString{String: "Tequila", Valid: true},
		OnHand:       sql.NullFloat64{Float64: 1, Valid: true},
		LowThreshold: sql.NullFloat64{Float64: 2, Valid: true},
	}

	cases := []struct {
		name    string
		filters *InventoryFilters
		want    bool
	}{
		{"nil filters", nil, true},
		{"search is case-insensitive", &InventoryFilters{Search: "reposado"}, true},
		{"search miss", &InventoryFilters{Search: "mezcal"}, false},
		{"category exact", &InventoryFilters{Category: "Tequila"}, true},
		{"category is case-sensitive", &InventoryFilters{Category: "tequila"}, false},
		{"low stock", &InventoryFilters{LowStock: true}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filters.Matches(row); got != tc.want {
				t.Fatalf("Matches() = %v, want %v", got, tc.want)
			}
		})
	}

	noThreshold := &model.InventoryRow{ItemName: "Gin"}
	if (&InventoryFilters{LowStock: true}).Matches(noThreshold) {
		t.Fatalf("rows without a threshold are never low")
	}
}
