package dto

import (
	"strings"
	"time"

	"github.com/fekuna/omnipos-bar-service/internal/model"
)

type InventoryFilters struct {
	Search   string // case-insensitive substring of item_name
	Category string // exact match, empty for all categories
	LowStock bool   // If true, only rows with on_hand <= low_threshold
}

// Matches applies the filters to one row in memory.
func (f *InventoryFilters) Matches(row *model.InventoryRow) bool {
	if f == nil {
		return true
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(row.ItemName), strings.ToLower(f.Search)) {
		return false
	}
	if f.Category != "" && (!row.Category.Valid || row.Category.String != f.Category) {
		return false
	}
	if f.LowStock && !row.IsLow() {
		return false
	}
	return true
}

type MovementFilters struct {
	ItemName     string
	MovementType string
	ReferenceID  string
	StartDate    *time.Time
	EndDate      *time.Time
	Page         int
	PageSize     int
}
