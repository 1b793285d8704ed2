package deduction

import (
	"database/sql"
	"math"
	"testing"

	"github.com/fekuna/omnipos-bar-service/internal/model"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func num(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

func text(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

func TestParseSizeDisplay(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"750ml", 25.3605, true},
		{"1L", 33.814, true},
		{"1.75L", 59.1745, true},
		{"6x750ml", 25.3605, true},
		{"12 X 1l", 33.814, true},
		{"24×12oz", 12, true},
		{" 375 ML ", 12.6803, true},
		{"12oz", 12, true},
		{"1.2.3l", 0, false},
		{"magnum", 0, false},
		{"750", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseSizeDisplay(tc.in)
		if ok != tc.ok {
			t.Errorf("ParseSizeDisplay(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && !approx(got, tc.want, 0.001) {
			t.Errorf("ParseSizeDisplay(%q) = %v, want ~%v", tc.in, got, tc.want)
		}
	}
}

func TestResolveBottleSizeCascade(t *testing.T) {
	cases := []struct {
		name   string
		row    model.InventoryRow
		want   float64
		source string
	}{
		{
			name:   "no size fields",
			row:    model.InventoryRow{ItemName: "Gin"},
			want:   750 / 29.5735,
			source: SizeSourceDefault,
		},
		{
			name:   "explicit ounces win",
			row:    model.InventoryRow{BottleSizeOz: num(33.8), UnitSizeML: num(750), SizeDisplay: text("1.75L")},
			want:   33.8,
			source: SizeSourceBottleOz,
		},
		{
			name:   "milliliters when ounces absent",
			row:    model.InventoryRow{UnitSizeML: num(1000), SizeDisplay: text("750ml")},
			want:   1000 / 29.5735,
			source: SizeSourceUnitML,
		},
		{
			name:   "display text last",
			row:    model.InventoryRow{SizeDisplay: text("1.75L")},
			want:   1750 / 29.5735,
			source: SizeSourceSizeDisplay,
		},
		{
			name:   "zero ounces falls through to milliliters",
			row:    model.InventoryRow{BottleSizeOz: num(0), UnitSizeML: num(375)},
			want:   375 / 29.5735,
			source: SizeSourceUnitML,
		},
		{
			name:   "unparseable display falls back to default",
			row:    model.InventoryRow{SizeDisplay: text("big bottle")},
			want:   DefaultBottleOz,
			source: SizeSourceDefault,
		},
		{
			name:   "negative milliliters then display",
			row:    model.InventoryRow{UnitSizeML: num(-5), SizeDisplay: text("6x750ml")},
			want:   750 / 29.5735,
			source: SizeSourceSizeDisplay,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, source := resolveBottleSize(&tc.row)
			if !approx(got, tc.want, 1e-9) {
				t.Fatalf("size = %v, want %v", got, tc.want)
			}
			if source != tc.source {
				t.Fatalf("source = %s, want %s", source, tc.source)
			}
			if ResolveBottleSize(&tc.row) <= 0 {
				t.Fatalf("size must be positive")
			}
		})
	}
}
