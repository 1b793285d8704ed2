package handler

import (
	"context"
	"encoding/base64"
	"net"
	"testing"

	"github.com/fekuna/omnipos-bar-service/internal/auth"
	"github.com/fekuna/omnipos-bar-service/internal/deduction"
	"github.com/fekuna/omnipos-bar-service/internal/inventory"
	"github.com/fekuna/omnipos-bar-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-bar-service/internal/logger"
	"github.com/fekuna/omnipos-bar-service/internal/model"
	"github.com/xuri/excelize/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type mockUseCase struct {
	lastImport *dto.ImportSalesInput
	importErr  error
	report     *deduction.Report
	rows       []model.InventoryRow
}

func (m *mockUseCase) ImportSales(ctx context.Context, input *dto.ImportSalesInput) (*deduction.Report, error) {
	m.lastImport = input
	if m.importErr != nil {
		return nil, m.importErr
	}
	if _, err := deduction.AggregateSales(input.Table); err != nil {
		return nil, err
	}
	return m.report, nil
}

func (m *mockUseCase) ListInventory(ctx context.Context, f *dto.InventoryFilters) ([]model.InventoryRow, error) {
	var out []model.InventoryRow
	for i := range m.rows {
		if f.Matches(&m.rows[i]) {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

func (m *mockUseCase) ListLowStock(ctx context.Context) ([]model.InventoryRow, error) {
	return m.ListInventory(ctx, &dto.InventoryFilters{LowStock: true})
}

func (m *mockUseCase) GetSummary(ctx context.Context) (*dto.Summary, error) {
	return &dto.Summary{TotalItems: len(m.rows), LowStock: 1, Categories: 1}, nil
}

func (m *mockUseCase) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	return []model.InventoryMovement{{ID: "mv-1", ItemName: "Tequila", OzDeducted: 15}}, 1, nil
}

func newMock() *mockUseCase {
	return &mockUseCase{
		report: &deduction.Report{
			Applied:            map[string]float64{"Tequila": 15},
			Adjustments:        []deduction.Adjustment{{Ingredient: "Tequila", ItemName: "Tequila", OzDeducted: 15}},
			UnmatchedCocktails: []string{"Mojito"},
		},
		rows: []model.InventoryRow{
			{ID: "row-1", ItemName: "Tequila"},
		},
	}
}

func mustStruct(t *testing.T, m map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestImportSalesCSV(t *testing.T) {
	uc := newMock()
	h := NewInventoryHandler(uc, logger.NewNop())

	ctx := auth.WithUserID(context.Background(), "bartender-7")
	resp, err := h.ImportSales(ctx, mustStruct(t, map[string]interface{}{
		"source":  "friday.csv",
		"content": "Item,Qty\nMargarita,10\nMojito,1\n",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uc.lastImport.Source != "friday.csv" || uc.lastImport.UserID != "bartender-7" {
		t.Fatalf("unexpected import input %+v", uc.lastImport)
	}

	got := resp.AsMap()
	applied := got["applied"].(map[string]interface{})
	if applied["Tequila"] != 15.0 {
		t.Fatalf("unexpected applied %v", applied)
	}
	unmatched := got["unmatched_cocktails"].([]interface{})
	if len(unmatched) != 1 || unmatched[0] != "Mojito" {
		t.Fatalf("unexpected unmatched %v", unmatched)
	}
}

func TestImportSalesXLSX(t *testing.T) {
	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	_ = book.SetSheetRow(sheet, "A1", &[]interface{}{"Menu Item", "Sold"})
	_ = book.SetSheetRow(sheet, "A2", &[]interface{}{"Margarita", 4})
	buf, err := book.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	uc := newMock()
	h := NewInventoryHandler(uc, logger.NewNop())
	_, err = h.ImportSales(context.Background(), mustStruct(t, map[string]interface{}{
		"source":  "friday.xlsx",
		"format":  "xlsx",
		"content": base64.StdEncoding.EncodeToString(buf.Bytes()),
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(uc.lastImport.Table.Rows) != 1 || uc.lastImport.Table.Rows[0][0] != "Margarita" {
		t.Fatalf("unexpected table %+v", uc.lastImport.Table)
	}
}

func TestImportSalesErrorCodes(t *testing.T) {
	cases := []struct {
		name string
		req  map[string]interface{}
		err  error
		code codes.Code
	}{
		{"bad format", map[string]interface{}{"format": "pdf", "content": "x"}, nil, codes.InvalidArgument},
		{"bad base64", map[string]interface{}{"format": "xlsx", "content": "%%%"}, nil, codes.InvalidArgument},
		{"missing columns", map[string]interface{}{"content": "Foo,Bar\na,b\n"}, nil, codes.InvalidArgument},
		{"bad recipes", map[string]interface{}{"content": "Item,Qty\nA,1\n"}, model.ErrRecipeFormat, codes.InvalidArgument},
		{"busy", map[string]interface{}{"content": "Item,Qty\nA,1\n"}, inventory.ErrImportInProgress, codes.Unavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := newMock()
			uc.importErr = tc.err
			h := NewInventoryHandler(uc, logger.NewNop())

			_, err := h.ImportSales(context.Background(), mustStruct(t, tc.req))
			if status.Code(err) != tc.code {
				t.Fatalf("expected %v, got %v", tc.code, err)
			}
		})
	}
}

func TestListInventoryFilters(t *testing.T) {
	uc := newMock()
	h := NewInventoryHandler(uc, logger.NewNop())

	resp, err := h.ListInventory(context.Background(), mustStruct(t, map[string]interface{}{"search": "teq"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := resp.AsMap()
	if got["total"] != 1.0 {
		t.Fatalf("unexpected total %v", got["total"])
	}
	item := got["items"].([]interface{})[0].(map[string]interface{})
	if item["item_name"] != "Tequila" || item["on_hand"] != nil {
		t.Fatalf("unexpected item %v", item)
	}
}

func TestServiceOverBufconn(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(auth.ContextInterceptor()))
	uc := newMock()
	RegisterBarInventoryServiceServer(srv, NewInventoryHandler(uc, logger.NewNop()))
	go srv.Serve(lis)
	defer srv.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-user-id", "manager-1")

	summary := new(structpb.Struct)
	if err := conn.Invoke(ctx, "/omnipos.bar.v1.BarInventoryService/GetSummary", &structpb.Struct{}, summary); err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if summary.AsMap()["total_items"] != 1.0 {
		t.Fatalf("unexpected summary %v", summary.AsMap())
	}

	in := mustStruct(t, map[string]interface{}{"source": "x.csv", "content": "Item,Qty\nMargarita,1\n"})
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, "/omnipos.bar.v1.BarInventoryService/ImportSales", in, out); err != nil {
		t.Fatalf("ImportSales: %v", err)
	}
	if uc.lastImport.UserID != "manager-1" {
		t.Fatalf("user id not propagated, got %q", uc.lastImport.UserID)
	}

	movements := new(structpb.Struct)
	if err := conn.Invoke(ctx, "/omnipos.bar.v1.BarInventoryService/ListMovements", &structpb.Struct{}, movements); err != nil {
		t.Fatalf("ListMovements: %v", err)
	}
	if movements.AsMap()["total"] != 1.0 {
		t.Fatalf("unexpected movements %v", movements.AsMap())
	}
}
