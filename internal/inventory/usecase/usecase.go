package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fekuna/omnipos-bar-service/internal/cache"
	"github.com/fekuna/omnipos-bar-service/internal/deduction"
	"github.com/fekuna/omnipos-bar-service/internal/inventory"
	"github.com/fekuna/omnipos-bar-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-bar-service/internal/logger"
	"github.com/fekuna/omnipos-bar-service/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	importLockKey     = "lock:bar_inventory:import"
	importLockTTL     = 30 * time.Second
	lockAttempts      = 3
	lockRetryInterval = 100 * time.Millisecond

	summaryCacheKey = "bar_inventory:summary"
	summaryCacheTTL = 5 * time.Minute

	referenceTypeSalesImport = "sales_import"
)

type inventoryUseCase struct {
	repo   inventory.Repository
	cache  inventory.Cache
	logger logger.ZapLogger
	now    func() time.Time
}

// NewInventoryUseCase wires the import flow. cache may be nil, in which case imports
// are not serialized across processes and the summary is computed on every call.
func NewInventoryUseCase(repo inventory.Repository, cache inventory.Cache, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:   repo,
		cache:  cache,
		logger: log,
		now:    time.Now,
	}
}

func (uc *inventoryUseCase) ImportSales(ctx context.Context, input *dto.ImportSalesInput) (*deduction.Report, error) {
	// 0. Validate the sales table before touching anything
	sales, err := deduction.AggregateSales(input.Table)
	if err != nil {
		uc.logger.Warn("rejected sales import", zap.String("source", input.Source), zap.Error(err))
		return nil, err
	}

	// 1. Acquire Lock
	if uc.cache != nil {
		lockValue := uuid.New().String()
		if err := uc.acquireImportLock(ctx, lockValue); err != nil {
			return nil, err
		}
		defer func() {
			if err := uc.cache.ReleaseLock(context.WithoutCancel(ctx), importLockKey, lockValue); err != nil {
				uc.logger.Error("failed to release import lock", zap.Error(err))
			}
		}()
	}

	// 2. Load current inventory and recipes
	rows, err := uc.repo.FindAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	entries, err := uc.repo.ListRecipes(ctx)
	if err != nil {
		return nil, err
	}

	// 3. Compute deductions
	report := deduction.Apply(rows, deduction.NewRecipeIndex(entries), sales)

	if len(report.DuplicateItems) > 0 {
		uc.logger.Warn("inventory has duplicate item names, first row used",
			zap.Strings("items", report.DuplicateItems))
	}
	if input.DryRun || len(report.Adjustments) == 0 {
		uc.logger.Info("sales import computed without changes",
			zap.String("source", input.Source),
			zap.Bool("dry_run", input.DryRun),
			zap.Int("unmatched_cocktails", len(report.UnmatchedCocktails)),
			zap.Int("unmatched_ingredients", len(report.UnmatchedIngredients)))
		return report, nil
	}

	// 4. Persist updated rows with their movement log
	now := uc.now().UTC()
	changed, movements := buildMovements(rows, report, input, now)
	if err := uc.repo.ApplyDeductions(ctx, changed, movements); err != nil {
		return nil, err
	}

	uc.invalidateSummary(ctx)

	uc.logger.Info("sales import applied",
		zap.String("source", input.Source),
		zap.Int("sales_lines", len(sales)),
		zap.Int("deductions", len(report.Adjustments)),
		zap.Int("unmatched_cocktails", len(report.UnmatchedCocktails)),
		zap.Int("unmatched_ingredients", len(report.UnmatchedIngredients)))
	return report, nil
}

func (uc *inventoryUseCase) acquireImportLock(ctx context.Context, value string) error {
	for i := 0; i < lockAttempts; i++ {
		ok, err := uc.cache.AcquireLock(ctx, importLockKey, value, importLockTTL)
		if err != nil {
			uc.logger.Error("failed to acquire lock redis error", zap.Error(err))
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
	return inventory.ErrImportInProgress
}

func buildMovements(rows []model.InventoryRow, report *deduction.Report, input *dto.ImportSalesInput, now time.Time) ([]model.InventoryRow, []model.InventoryMovement) {
	var refID *string
	if input.Source != "" {
		source := input.Source
		refID = &source
	}
	refType := referenceTypeSalesImport

	var createdBy *string
	if input.UserID != "" && input.UserID != "unknown" {
		userID := input.UserID
		createdBy = &userID
	}

	changed := make([]model.InventoryRow, 0, len(report.Adjustments))
	movements := make([]model.InventoryMovement, 0, len(report.Adjustments))
	for _, adj := range report.Adjustments {
		row := rows[adj.RowIndex]
		row.UpdatedAt = now
		changed = append(changed, row)

		movements = append(movements, model.InventoryMovement{
			ID:             uuid.New().String(),
			InventoryID:    row.ID,
			ItemName:       row.ItemName,
			MovementType:   model.MovementTypeSaleDeduction,
			OzDeducted:     adj.OzDeducted,
			OnHandBefore:   adj.OnHandBefore,
			OnHandAfter:    adj.OnHandAfter,
			LeftoverBefore: adj.LeftoverBefore,
			LeftoverAfter:  adj.LeftoverAfter,
			ReferenceType:  &refType,
			ReferenceID:    refID,
			Notes:          adj.Ingredient + " via " + adj.SizeSource,
			CreatedBy:      createdBy,
			CreatedAt:      now,
		})
	}
	return changed, movements
}

func (uc *inventoryUseCase) invalidateSummary(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Delete(ctx, summaryCacheKey); err != nil {
		uc.logger.Warn("failed to invalidate summary cache", zap.Error(err))
	}
}

func (uc *inventoryUseCase) ListInventory(ctx context.Context, filters *dto.InventoryFilters) ([]model.InventoryRow, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *inventoryUseCase) ListLowStock(ctx context.Context) ([]model.InventoryRow, error) {
	return uc.repo.FindAll(ctx, &dto.InventoryFilters{LowStock: true})
}

func (uc *inventoryUseCase) GetSummary(ctx context.Context) (*dto.Summary, error) {
	// 1. Try Cache
	if uc.cache != nil {
		val, err := uc.cache.Get(ctx, summaryCacheKey)
		if err == nil {
			var summary dto.Summary
			if err := json.Unmarshal(val, &summary); err == nil {
				return &summary, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			uc.logger.Warn("summary cache read failed", zap.Error(err))
		}
	}

	// 2. DB
	rows, err := uc.repo.FindAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	summary := summarize(rows)

	// 3. Set Cache
	if uc.cache != nil {
		if data, err := json.Marshal(summary); err == nil {
			if err := uc.cache.Set(ctx, summaryCacheKey, data, summaryCacheTTL); err != nil {
				uc.logger.Warn("summary cache write failed", zap.Error(err))
			}
		}
	}
	return summary, nil
}

func summarize(rows []model.InventoryRow) *dto.Summary {
	categories := make(map[string]struct{})
	summary := &dto.Summary{TotalItems: len(rows)}
	for i := range rows {
		if rows[i].IsLow() {
			summary.LowStock++
		}
		if rows[i].Category.Valid && rows[i].Category.String != "" {
			categories[rows[i].Category.String] = struct{}{}
		}
	}
	summary.Categories = len(categories)
	return summary
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	return uc.repo.ListMovements(ctx, filters)
}
