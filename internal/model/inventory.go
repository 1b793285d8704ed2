package model

import (
	"database/sql"
	"time"
)

// InventoryRow is one stocked item counted in whole bottles plus the open bottle's remainder.
// Size descriptor fields are optional; BottleSizeOz wins over UnitSizeML, which wins over SizeDisplay.
type InventoryRow struct {
	ID           string          `db:"id"`
	ItemName     string          `db:"item_name"`
	Category     sql.NullString  `db:"category"`
	OnHand       sql.NullFloat64 `db:"on_hand"`
	LowThreshold sql.NullFloat64 `db:"low_threshold"`
	LeftoverOz   sql.NullFloat64 `db:"leftover_oz"`
	BottleSizeOz sql.NullFloat64 `db:"bottle_size_oz"`
	UnitSizeML   sql.NullFloat64 `db:"unit_size_ml"`
	SizeDisplay  sql.NullString  `db:"size_display"`
	SortOrder    int             `db:"sort_order"` // load order; the first row wins among equal names
	UpdatedAt    time.Time       `db:"updated_at"`
}

// OnHandValue returns whole bottles in stock, 0 when missing.
func (r *InventoryRow) OnHandValue() float64 {
	if !r.OnHand.Valid {
		return 0
	}
	return r.OnHand.Float64
}

// LeftoverValue returns the open bottle's ounces, 0 when missing.
func (r *InventoryRow) LeftoverValue() float64 {
	if !r.LeftoverOz.Valid {
		return 0
	}
	return r.LeftoverOz.Float64
}

// IsLow reports on_hand <= low_threshold. Rows without a threshold are never low.
func (r *InventoryRow) IsLow() bool {
	if !r.LowThreshold.Valid {
		return false
	}
	return r.OnHandValue() <= r.LowThreshold.Float64
}

// RecipeEntry is the ounces of one ingredient poured per serving of a cocktail.
type RecipeEntry struct {
	Cocktail   string  `db:"cocktail"`
	Ingredient string  `db:"ingredient"`
	AmountOz   float64 `db:"amount_oz"`
}

// SalesLine is the summed servings of one cocktail label from an import file.
type SalesLine struct {
	Cocktail string
	Quantity float64
}

type InventoryMovement struct {
	ID             string    `db:"id"`
	InventoryID    string    `db:"inventory_id"`
	ItemName       string    `db:"item_name"`
	MovementType   string    `db:"movement_type"`
	OzDeducted     float64   `db:"oz_deducted"`
	OnHandBefore   float64   `db:"on_hand_before"`
	OnHandAfter    float64   `db:"on_hand_after"`
	LeftoverBefore float64   `db:"leftover_before"`
	LeftoverAfter  float64   `db:"leftover_after"`
	ReferenceType  *string   `db:"reference_type"`
	ReferenceID    *string   `db:"reference_id"`
	Notes          string    `db:"notes"`
	CreatedBy      *string   `db:"created_by"`
	CreatedAt      time.Time `db:"created_at"`
}

const MovementTypeSaleDeduction = "sale_deduction"
