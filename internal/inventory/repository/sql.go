package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-bar-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-bar-service/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const inventoryColumns = `id, item_name, category, on_hand, low_threshold, leftover_oz,
	bottle_size_oz, unit_size_ml, size_display, sort_order, updated_at`

const movementColumns = `id, inventory_id, item_name, movement_type, oz_deducted,
	on_hand_before, on_hand_after, leftover_before, leftover_after,
	reference_type, reference_id, notes, created_by, created_at`

// SQLRepository stores inventory in sqlite or postgres through sqlx.
type SQLRepository struct {
	DB *sqlx.DB
}

func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{DB: db}
}

func (r *SQLRepository) FindAll(ctx context.Context, f *dto.InventoryFilters) ([]model.InventoryRow, error) {
	var items []model.InventoryRow

	conditions := []string{}
	args := map[string]interface{}{}

	if f != nil {
		if f.Search != "" {
			conditions = append(conditions, "LOWER(item_name) LIKE :search")
			args["search"] = "%" + strings.ToLower(f.Search) + "%"
		}
		if f.Category != "" {
			conditions = append(conditions, "category = :category")
			args["category"] = f.Category
		}
		if f.LowStock {
			conditions = append(conditions, "low_threshold IS NOT NULL AND COALESCE(on_hand, 0) <= low_threshold")
		}
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := "SELECT " + inventoryColumns + " FROM bar_inventory" + whereClause + " ORDER BY sort_order, id"

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, err
}

func (r *SQLRepository) ListRecipes(ctx context.Context) ([]model.RecipeEntry, error) {
	var entries []model.RecipeEntry
	err := r.DB.SelectContext(ctx, &entries, `SELECT cocktail, ingredient, amount_oz FROM bar_recipes`)
	return entries, err
}

// UpsertItems inserts rows or replaces them by id. Rows without an id get a fresh one.
func (r *SQLRepository) UpsertItems(ctx context.Context, rows []model.InventoryRow) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO bar_inventory (
            id, item_name, category, on_hand, low_threshold, leftover_oz,
            bottle_size_oz, unit_size_ml, size_display, sort_order, updated_at
        )
        VALUES (
            :id, :item_name, :category, :on_hand, :low_threshold, :leftover_oz,
            :bottle_size_oz, :unit_size_ml, :size_display, :sort_order, :updated_at
        )
        ON CONFLICT (id)
        DO UPDATE SET
            item_name = EXCLUDED.item_name,
            category = EXCLUDED.category,
            on_hand = EXCLUDED.on_hand,
            low_threshold = EXCLUDED.low_threshold,
            leftover_oz = EXCLUDED.leftover_oz,
            bottle_size_oz = EXCLUDED.bottle_size_oz,
            unit_size_ml = EXCLUDED.unit_size_ml,
            size_display = EXCLUDED.size_display,
            sort_order = EXCLUDED.sort_order,
            updated_at = EXCLUDED.updated_at
    `
	now := time.Now().UTC()
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.New().String()
		}
		if rows[i].UpdatedAt.IsZero() {
			rows[i].UpdatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, query, &rows[i]); err != nil {
			return fmt.Errorf("failed to upsert %q: %w", rows[i].ItemName, err)
		}
	}
	return tx.Commit()
}

// ReplaceRecipes swaps the whole recipe table for entries.
func (r *SQLRepository) ReplaceRecipes(ctx context.Context, entries []model.RecipeEntry) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bar_recipes`); err != nil {
		return err
	}
	for i := range entries {
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO bar_recipes (cocktail, ingredient, amount_oz) VALUES (:cocktail, :ingredient, :amount_oz)`,
			&entries[i])
		if err != nil {
			return fmt.Errorf("failed to insert recipe %q/%q: %w", entries[i].Cocktail, entries[i].Ingredient, err)
		}
	}
	return tx.Commit()
}

func (r *SQLRepository) ApplyDeductions(ctx context.Context, rows []model.InventoryRow, movements []model.InventoryMovement) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// 1. Update Inventory
	updateQuery := `
        UPDATE bar_inventory
        SET on_hand = :on_hand, leftover_oz = :leftover_oz, updated_at = :updated_at
        WHERE id = :id
    `
	for i := range rows {
		res, err := tx.NamedExecContext(ctx, updateQuery, &rows[i])
		if err != nil {
			return fmt.Errorf("failed to update inventory: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("failed to update inventory: item %q (%s) not found", rows[i].ItemName, rows[i].ID)
		}
	}

	// 2. Log Movements
	insertLogQuery := `
        INSERT INTO bar_inventory_movements (` + movementColumns + `)
        VALUES (
            :id, :inventory_id, :item_name, :movement_type, :oz_deducted,
            :on_hand_before, :on_hand_after, :leftover_before, :leftover_after,
            :reference_type, :reference_id, :notes, :created_by, :created_at
        )
    `
	for i := range movements {
		if _, err := tx.NamedExecContext(ctx, insertLogQuery, &movements[i]); err != nil {
			return fmt.Errorf("failed to log movement: %w", err)
		}
	}

	return tx.Commit()
}

func (r *SQLRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	var items []model.InventoryMovement
	var count int

	if f == nil {
		f = &dto.MovementFilters{}
	}

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ItemName != "" {
		conditions = append(conditions, "item_name = :item_name")
		args["item_name"] = f.ItemName
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}
	if f.ReferenceID != "" {
		conditions = append(conditions, "reference_id = :reference_id")
		args["reference_id"] = f.ReferenceID
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at <= :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM bar_inventory_movements" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			rows.Close()
			return nil, 0, err
		}
	}
	rows.Close()

	query := "SELECT " + movementColumns + " FROM bar_inventory_movements" + whereClause + " ORDER BY created_at DESC, id"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}
