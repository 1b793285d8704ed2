package deduction

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/fekuna/omnipos-bar-service/internal/model"
)

const (
	MLPerOz         = 29.5735
	DefaultBottleML = 750.0
)

// DefaultBottleOz is a standard 750ml bottle, used when a row carries no usable size.
const DefaultBottleOz = DefaultBottleML / MLPerOz

const (
	SizeSourceBottleOz    = "bottle_size_oz"
	SizeSourceUnitML      = "unit_size_ml"
	SizeSourceSizeDisplay = "size_display"
	SizeSourceDefault     = "default_750ml"
)

var (
	singleSizePattern    = regexp.MustCompile(`^([\d.]+)(ml|l|oz)$`)
	multipackSizePattern = regexp.MustCompile(`^\d+[x×]([\d.]+)(ml|l|oz)$`)
)

// sizeRule is one tier of the bottle size cascade. extract reports false when the
// field is present but unusable, which demotes resolution to the next tier.
type sizeRule struct {
	source  string
	applies func(row *model.InventoryRow) bool
	extract func(row *model.InventoryRow) (float64, bool)
}

var bottleSizeRules = []sizeRule{
	{
		source:  SizeSourceBottleOz,
		applies: func(row *model.InventoryRow) bool { return row.BottleSizeOz.Valid },
		extract: func(row *model.InventoryRow) (float64, bool) { return row.BottleSizeOz.Float64, true },
	},
	{
		source:  SizeSourceUnitML,
		applies: func(row *model.InventoryRow) bool { return row.UnitSizeML.Valid },
		extract: func(row *model.InventoryRow) (float64, bool) { return row.UnitSizeML.Float64 / MLPerOz, true },
	},
	{
		source:  SizeSourceSizeDisplay,
		applies: func(row *model.InventoryRow) bool { return row.SizeDisplay.Valid },
		extract: func(row *model.InventoryRow) (float64, bool) { return ParseSizeDisplay(row.SizeDisplay.String) },
	},
}

// ResolveBottleSize returns the ounces held by one bottle of row. It never fails.
func ResolveBottleSize(row *model.InventoryRow) float64 {
	oz, _ := resolveBottleSize(row)
	return oz
}

func resolveBottleSize(row *model.InventoryRow) (float64, string) {
	for _, rule := range bottleSizeRules {
		if !rule.applies(row) {
			continue
		}
		if oz, ok := rule.extract(row); ok && usableSize(oz) {
			return oz, rule.source
		}
	}
	return DefaultBottleOz, SizeSourceDefault
}

func usableSize(oz float64) bool {
	return oz > 0 && !math.IsInf(oz, 0) && !math.IsNaN(oz)
}

// ParseSizeDisplay reads labels such as "750ml", "1.75 L", "12oz" or "6x750ml".
// For multipacks only the per-bottle volume counts.
func ParseSizeDisplay(text string) (float64, bool) {
	compact := strings.Join(strings.Fields(strings.ToLower(text)), "")

	m := singleSizePattern.FindStringSubmatch(compact)
	if m == nil {
		m = multipackSizePattern.FindStringSubmatch(compact)
	}
	if m == nil {
		return 0, false
	}

	num, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	switch m[2] {
	case "ml":
		return num / MLPerOz, true
	case "l":
		return num * 1000.0 / MLPerOz, true
	default:
		return num, true
	}
}
