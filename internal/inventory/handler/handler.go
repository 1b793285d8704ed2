package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/fekuna/omnipos-bar-service/internal/auth"
	"github.com/fekuna/omnipos-bar-service/internal/deduction"
	"github.com/fekuna/omnipos-bar-service/internal/inventory"
	"github.com/fekuna/omnipos-bar-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-bar-service/internal/logger"
	"github.com/fekuna/omnipos-bar-service/internal/model"
	"github.com/fekuna/omnipos-bar-service/internal/tabular"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

// ImportSales expects {source, format: "csv"|"xlsx", content, dry_run}. CSV content is
// plain text; XLSX content is base64.
func (h *InventoryHandler) ImportSales(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	format := stringField(req, "format")
	if format == "" {
		format = tabular.FormatCSV
	}

	raw := []byte(stringField(req, "content"))
	if format == tabular.FormatXLSX {
		decoded, err := base64.StdEncoding.DecodeString(string(raw))
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, "xlsx content must be base64 encoded")
		}
		raw = decoded
	}

	table, err := tabular.ReadBytes(raw, format)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	report, err := h.uc.ImportSales(ctx, &dto.ImportSalesInput{
		Source: stringField(req, "source"),
		Table:  table,
		UserID: auth.GetUserID(ctx),
		DryRun: boolField(req, "dry_run"),
	})
	if err != nil {
		return nil, h.toStatus(err)
	}

	return structpb.NewStruct(mapReport(report))
}

func (h *InventoryHandler) ListInventory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	rows, err := h.uc.ListInventory(ctx, &dto.InventoryFilters{
		Search:   stringField(req, "search"),
		Category: stringField(req, "category"),
		LowStock: boolField(req, "low_stock"),
	})
	if err != nil {
		return nil, h.toStatus(err)
	}

	items := make([]interface{}, len(rows))
	for i := range rows {
		items[i] = mapInventoryRow(&rows[i])
	}
	return structpb.NewStruct(map[string]interface{}{
		"items": items,
		"total": len(rows),
	})
}

func (h *InventoryHandler) GetSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	summary, err := h.uc.GetSummary(ctx)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return structpb.NewStruct(map[string]interface{}{
		"total_items": summary.TotalItems,
		"low_stock":   summary.LowStock,
		"categories":  summary.Categories,
	})
}

func (h *InventoryHandler) ListMovements(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	filters := &dto.MovementFilters{
		ItemName:     stringField(req, "item_name"),
		MovementType: stringField(req, "movement_type"),
		ReferenceID:  stringField(req, "reference_id"),
		Page:         intField(req, "page"),
		PageSize:     intField(req, "page_size"),
	}

	mvs, count, err := h.uc.ListMovements(ctx, filters)
	if err != nil {
		return nil, h.toStatus(err)
	}

	movements := make([]interface{}, len(mvs))
	for i := range mvs {
		movements[i] = mapMovement(&mvs[i])
	}
	return structpb.NewStruct(map[string]interface{}{
		"movements": movements,
		"total":     count,
	})
}

func (h *InventoryHandler) toStatus(err error) error {
	var formatErr *deduction.InputFormatError
	switch {
	case errors.As(err, &formatErr), errors.Is(err, model.ErrRecipeFormat):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, inventory.ErrImportInProgress):
		return status.Error(codes.Unavailable, err.Error())
	default:
		h.logger.Error("bar inventory request failed", zap.Error(err))
		return status.Error(codes.Internal, err.Error())
	}
}

func mapReport(r *deduction.Report) map[string]interface{} {
	applied := make(map[string]interface{}, len(r.Applied))
	for k, v := range r.Applied {
		applied[k] = v
	}

	adjustments := make([]interface{}, len(r.Adjustments))
	for i, adj := range r.Adjustments {
		adjustments[i] = map[string]interface{}{
			"ingredient":      adj.Ingredient,
			"item_name":       adj.ItemName,
			"oz_deducted":     adj.OzDeducted,
			"bottle_oz":       adj.BottleOz,
			"size_source":     adj.SizeSource,
			"on_hand_before":  adj.OnHandBefore,
			"on_hand_after":   adj.OnHandAfter,
			"leftover_before": adj.LeftoverBefore,
			"leftover_after":  adj.LeftoverAfter,
		}
	}

	return map[string]interface{}{
		"applied":               applied,
		"adjustments":           adjustments,
		"unmatched_cocktails":   stringList(r.UnmatchedCocktails),
		"unmatched_ingredients": stringList(r.UnmatchedIngredients),
		"duplicate_items":       stringList(r.DuplicateItems),
		"lines":                 stringList(r.Lines()),
	}
}

func mapInventoryRow(m *model.InventoryRow) map[string]interface{} {
	return map[string]interface{}{
		"id":             m.ID,
		"item_name":      m.ItemName,
		"category":       nullString(m.Category.String, m.Category.Valid),
		"on_hand":        nullNumber(m.OnHand.Float64, m.OnHand.Valid),
		"low_threshold":  nullNumber(m.LowThreshold.Float64, m.LowThreshold.Valid),
		"leftover_oz":    nullNumber(m.LeftoverOz.Float64, m.LeftoverOz.Valid),
		"bottle_size_oz": deduction.ResolveBottleSize(m),
		"size_display":   nullString(m.SizeDisplay.String, m.SizeDisplay.Valid),
		"is_low":         m.IsLow(),
	}
}

func mapMovement(m *model.InventoryMovement) map[string]interface{} {
	refType := ""
	if m.ReferenceType != nil {
		refType = *m.ReferenceType
	}
	refID := ""
	if m.ReferenceID != nil {
		refID = *m.ReferenceID
	}
	createdBy := ""
	if m.CreatedBy != nil {
		createdBy = *m.CreatedBy
	}

	return map[string]interface{}{
		"id":              m.ID,
		"inventory_id":    m.InventoryID,
		"item_name":       m.ItemName,
		"movement_type":   m.MovementType,
		"oz_deducted":     m.OzDeducted,
		"on_hand_before":  m.OnHandBefore,
		"on_hand_after":   m.OnHandAfter,
		"leftover_before": m.LeftoverBefore,
		"leftover_after":  m.LeftoverAfter,
		"reference_type":  refType,
		"reference_id":    refID,
		"notes":           m.Notes,
		"created_by":      createdBy,
		"created_at":      m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func boolField(s *structpb.Struct, key string) bool {
	return s.GetFields()[key].GetBoolValue()
}

func intField(s *structpb.Struct, key string) int {
	return int(s.GetFields()[key].GetNumberValue())
}

func stringList(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func nullString(v string, valid bool) interface{} {
	if !valid {
		return nil
	}
	return v
}

func nullNumber(v float64, valid bool) interface{} {
	if !valid {
		return nil
	}
	return v
}
