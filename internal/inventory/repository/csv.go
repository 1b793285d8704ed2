package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/fekuna/omnipos-bar-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-bar-service/internal/model"
	"github.com/fekuna/omnipos-bar-service/internal/tabular"
)

const (
	colItemName     = "item_name"
	colCategory     = "category"
	colOnHand       = "on_hand"
	colLowThreshold = "low_threshold"
	colLeftoverOz   = "leftover_oz"
	colBottleSizeOz = "bottle_size_oz"
	colUnitSizeML   = "unit_size_ml"
	colSizeDisplay  = "size_display"

	colCocktail   = "cocktail"
	colIngredient = "ingredient"
	colAmountOz   = "amount_oz"
)

var movementHeader = []string{
	"id", "inventory_id", "item_name", "movement_type", "oz_deducted",
	"on_hand_before", "on_hand_after", "leftover_before", "leftover_after",
	"reference_type", "reference_id", "notes", "created_by", "created_at",
}

// CSVRepository keeps inventory and recipes in plain CSV files, the way bar staff
// maintain them in a spreadsheet. Columns it does not know about are preserved on save.
type CSVRepository struct {
	InventoryPath string
	RecipesPath   string
	MovementsPath string // optional; movements are not recorded when empty

	mu sync.Mutex
}

func NewCSVRepository(inventoryPath, recipesPath, movementsPath string) *CSVRepository {
	return &CSVRepository{
		InventoryPath: inventoryPath,
		RecipesPath:   recipesPath,
		MovementsPath: movementsPath,
	}
}

func (r *CSVRepository) FindAll(ctx context.Context, f *dto.InventoryFilters) ([]model.InventoryRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	table, err := tabular.ReadFile(r.InventoryPath)
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}
	rows, err := InventoryFromTable(table)
	if err != nil {
		return nil, err
	}

	items := make([]model.InventoryRow, 0, len(rows))
	for i := range rows {
		if f.Matches(&rows[i]) {
			items = append(items, rows[i])
		}
	}
	return items, nil
}

// ListRecipes returns no recipes when the recipes file does not exist yet.
func (r *CSVRepository) ListRecipes(ctx context.Context) ([]model.RecipeEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	table, err := tabular.ReadFile(r.RecipesPath)
	if errors.Is(err, os.ErrNotExist) {
		return []model.RecipeEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read recipes: %w", err)
	}
	return RecipesFromTable(table)
}

func (r *CSVRepository) ApplyDeductions(ctx context.Context, rows []model.InventoryRow, movements []model.InventoryMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	table, err := tabular.ReadFile(r.InventoryPath)
	if err != nil {
		return fmt.Errorf("read inventory: %w", err)
	}

	onHandCol := ensureColumn(&table, colOnHand)
	leftoverCol := ensureColumn(&table, colLeftoverOz)
	for i := range table.Rows {
		for len(table.Rows[i]) < len(table.Header) {
			table.Rows[i] = append(table.Rows[i], "")
		}
	}

	for _, row := range rows {
		i := row.SortOrder
		if i < 0 || i >= len(table.Rows) {
			return fmt.Errorf("failed to update inventory: item %q is no longer in %s", row.ItemName, r.InventoryPath)
		}
		setCell(&table, i, onHandCol, model.FormatNumber(row.OnHand))
		setCell(&table, i, leftoverCol, model.FormatNumber(row.LeftoverOz))
	}

	if err := writeTableAtomic(r.InventoryPath, table); err != nil {
		return fmt.Errorf("failed to save inventory: %w", err)
	}

	if r.MovementsPath == "" || len(movements) == 0 {
		return nil
	}
	if err := r.appendMovements(movements); err != nil {
		return fmt.Errorf("failed to log movement: %w", err)
	}
	return nil
}

func (r *CSVRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	if f == nil {
		f = &dto.MovementFilters{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.MovementsPath == "" {
		return []model.InventoryMovement{}, 0, nil
	}
	all, err := r.readMovements()
	if err != nil {
		return nil, 0, err
	}

	var items []model.InventoryMovement
	for _, m := range all {
		if movementMatches(&m, f) {
			items = append(items, m)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })

	count := len(items)
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * f.PageSize
		if start > count {
			start = count
		}
		end := start + f.PageSize
		if end > count {
			end = count
		}
		items = items[start:end]
	}
	return items, count, nil
}

// InventoryFromTable maps an inventory sheet onto typed rows. Unparseable numbers are
// treated as absent; a sheet without leftover_oz starts every row at 0.
func InventoryFromTable(table model.Table) ([]model.InventoryRow, error) {
	nameCol := table.Column(colItemName)
	if nameCol < 0 {
		return nil, fmt.Errorf("inventory sheet has no %q column", colItemName)
	}
	catCol := table.Column(colCategory)
	onHandCol := table.Column(colOnHand)
	lowCol := table.Column(colLowThreshold)
	leftoverCol := table.Column(colLeftoverOz)
	ozCol := table.Column(colBottleSizeOz)
	mlCol := table.Column(colUnitSizeML)
	displayCol := table.Column(colSizeDisplay)

	rows := make([]model.InventoryRow, 0, len(table.Rows))
	for i := range table.Rows {
		row := model.InventoryRow{
			ID:           "row-" + strconv.Itoa(i+1),
			ItemName:     table.Cell(i, nameCol),
			Category:     model.ParseText(table.Cell(i, catCol)),
			OnHand:       model.ParseNumber(table.Cell(i, onHandCol)),
			LowThreshold: model.ParseNumber(table.Cell(i, lowCol)),
			LeftoverOz:   model.ParseNumber(table.Cell(i, leftoverCol)),
			BottleSizeOz: model.ParseNumber(table.Cell(i, ozCol)),
			UnitSizeML:   model.ParseNumber(table.Cell(i, mlCol)),
			SizeDisplay:  model.ParseText(table.Cell(i, displayCol)),
			SortOrder:    i,
		}
		if leftoverCol < 0 {
			row.LeftoverOz.Valid = true
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// RecipesFromTable requires cocktail, ingredient and a positive amount_oz on every row.
func RecipesFromTable(table model.Table) ([]model.RecipeEntry, error) {
	cocktailCol := table.Column(colCocktail)
	ingredientCol := table.Column(colIngredient)
	amountCol := table.Column(colAmountOz)
	for _, c := range []struct {
		name string
		col  int
	}{{colCocktail, cocktailCol}, {colIngredient, ingredientCol}, {colAmountOz, amountCol}} {
		if c.col < 0 {
			return nil, fmt.Errorf("%w: missing column %q", model.ErrRecipeFormat, c.name)
		}
	}

	entries := make([]model.RecipeEntry, 0, len(table.Rows))
	for i := range table.Rows {
		line := i + 2
		cocktail := table.Cell(i, cocktailCol)
		ingredient := table.Cell(i, ingredientCol)
		if cocktail == "" || ingredient == "" {
			return nil, fmt.Errorf("%w: row %d needs both cocktail and ingredient", model.ErrRecipeFormat, line)
		}
		amount := model.ParseNumber(table.Cell(i, amountCol))
		if !amount.Valid || amount.Float64 <= 0 {
			return nil, fmt.Errorf("%w: row %d amount_oz %q must be a positive number", model.ErrRecipeFormat, line, table.Cell(i, amountCol))
		}
		entries = append(entries, model.RecipeEntry{Cocktail: cocktail, Ingredient: ingredient, AmountOz: amount.Float64})
	}
	return entries, nil
}

func ensureColumn(table *model.Table, name string) int {
	if col := table.Column(name); col >= 0 {
		return col
	}
	table.Header = append(table.Header, name)
	return len(table.Header) - 1
}

func setCell(table *model.Table, row, col int, value string) {
	for len(table.Rows[row]) <= col {
		table.Rows[row] = append(table.Rows[row], "")
	}
	table.Rows[row][col] = value
}

func writeTableAtomic(path string, table model.Table) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tabular.WriteCSV(tmp, table); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (r *CSVRepository) appendMovements(movements []model.InventoryMovement) error {
	table := model.Table{Header: movementHeader}
	if existing, err := tabular.ReadFile(r.MovementsPath); err == nil && len(existing.Header) > 0 {
		table = existing
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	for _, m := range movements {
		table.Rows = append(table.Rows, []string{
			m.ID, m.InventoryID, m.ItemName, m.MovementType, formatFloat(m.OzDeducted),
			formatFloat(m.OnHandBefore), formatFloat(m.OnHandAfter),
			formatFloat(m.LeftoverBefore), formatFloat(m.LeftoverAfter),
			deref(m.ReferenceType), deref(m.ReferenceID), m.Notes, deref(m.CreatedBy),
			m.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return writeTableAtomic(r.MovementsPath, table)
}

func (r *CSVRepository) readMovements() ([]model.InventoryMovement, error) {
	table, err := tabular.ReadFile(r.MovementsPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	col := make(map[string]int, len(movementHeader))
	for _, name := range movementHeader {
		col[name] = table.Column(name)
	}
	cell := func(i int, name string) string { return table.Cell(i, col[name]) }
	number := func(i int, name string) float64 { return model.ParseNumber(cell(i, name)).Float64 }

	out := make([]model.InventoryMovement, 0, len(table.Rows))
	for i := range table.Rows {
		createdAt, err := time.Parse(time.RFC3339Nano, cell(i, "created_at"))
		if err != nil {
			return nil, fmt.Errorf("movement row %d: bad created_at: %w", i+2, err)
		}
		out = append(out, model.InventoryMovement{
			ID:             cell(i, "id"),
			InventoryID:    cell(i, "inventory_id"),
			ItemName:       cell(i, "item_name"),
			MovementType:   cell(i, "movement_type"),
			OzDeducted:     number(i, "oz_deducted"),
			OnHandBefore:   number(i, "on_hand_before"),
			OnHandAfter:    number(i, "on_hand_after"),
			LeftoverBefore: number(i, "leftover_before"),
			LeftoverAfter:  number(i, "leftover_after"),
			ReferenceType:  optional(cell(i, "reference_type")),
			ReferenceID:    optional(cell(i, "reference_id")),
			Notes:          cell(i, "notes"),
			CreatedBy:      optional(cell(i, "created_by")),
			CreatedAt:      createdAt,
		})
	}
	return out, nil
}

func movementMatches(m *model.InventoryMovement, f *dto.MovementFilters) bool {
	if f.ItemName != "" && m.ItemName != f.ItemName {
		return false
	}
	if f.MovementType != "" && m.MovementType != f.MovementType {
		return false
	}
	if f.ReferenceID != "" && deref(m.ReferenceID) != f.ReferenceID {
		return false
	}
	if f.StartDate != nil && m.CreatedAt.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && m.CreatedAt.After(*f.EndDate) {
		return false
	}
	return true
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
