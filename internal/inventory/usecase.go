package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-bar-service/internal/deduction"
	"github.com/fekuna/omnipos-bar-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-bar-service/internal/model"
)

// ErrImportInProgress is returned when another import holds the inventory lock.
var ErrImportInProgress = errors.New("another sales import is in progress, please try again later")

type UseCase interface {
	ImportSales(ctx context.Context, input *dto.ImportSalesInput) (*deduction.Report, error)
	ListInventory(ctx context.Context, filters *dto.InventoryFilters) ([]model.InventoryRow, error)
	ListLowStock(ctx context.Context) ([]model.InventoryRow, error)
	GetSummary(ctx context.Context) (*dto.Summary, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
}

// Cache serializes imports and memoizes the summary. *cache.RedisClient satisfies it.
type Cache interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
