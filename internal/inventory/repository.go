package inventory

import (
	"context"

	"github.com/fekuna/omnipos-bar-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-bar-service/internal/model"
)

type Repository interface {
	// Inventory rows, in load order
	FindAll(ctx context.Context, filters *dto.InventoryFilters) ([]model.InventoryRow, error)

	// Recipes
	ListRecipes(ctx context.Context) ([]model.RecipeEntry, error)

	// ApplyDeductions persists updated rows together with their movement log entries.
	ApplyDeductions(ctx context.Context, rows []model.InventoryRow, movements []model.InventoryMovement) error

	// Movements / Audit
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
}
