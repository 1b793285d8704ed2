package deduction

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/fekuna/omnipos-bar-service/internal/model"
)

var (
	nameColumnCandidates     = []string{"item", "menu item", "menu_item", "name", "cocktail", "product"}
	quantityColumnCandidates = []string{"qty", "quantity", "count", "sold", "units"}
)

// InputFormatError means a sales table cannot be imported. The message is meant for end users.
type InputFormatError struct {
	Msg string
}

func (e *InputFormatError) Error() string {
	return e.Msg
}

func inputFormatErrorf(format string, args ...interface{}) *InputFormatError {
	return &InputFormatError{Msg: fmt.Sprintf(format, args...)}
}

// AggregateSales finds the name and quantity columns of a raw sales table and sums
// quantity per cocktail label. Lines come back sorted by label.
func AggregateSales(table model.Table) ([]model.SalesLine, error) {
	nameCol := matchColumn(table, nameColumnCandidates)
	qtyCol := matchColumn(table, quantityColumnCandidates)
	if nameCol < 0 || qtyCol < 0 {
		return nil, inputFormatErrorf("Sales file must have columns for cocktail name and quantity (e.g., 'Item' + 'Quantity').")
	}

	totals := make(map[string]float64)
	for i := range table.Rows {
		label := table.Cell(i, nameCol)
		if label == "" {
			continue
		}
		raw := table.Cell(i, qtyCol)
		qty, err := parseQuantity(raw)
		if err != nil {
			// data rows are numbered from 2 so the message matches a spreadsheet view
			return nil, inputFormatErrorf("Sales file row %d (%s): %v", i+2, label, err)
		}
		totals[label] += qty
	}

	lines := make([]model.SalesLine, 0, len(totals))
	for label, qty := range totals {
		lines = append(lines, model.SalesLine{Cocktail: label, Quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Cocktail < lines[j].Cocktail })
	return lines, nil
}

func matchColumn(table model.Table, candidates []string) int {
	for _, cand := range candidates {
		if col := table.Column(cand); col >= 0 {
			return col
		}
	}
	return -1
}

// parseQuantity treats a blank cell as no sales and rejects anything that is not a
// finite, non-negative number.
func parseQuantity(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	qty, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(qty) || math.IsInf(qty, 0) {
		return 0, fmt.Errorf("quantity %q is not a number", raw)
	}
	if qty < 0 {
		return 0, fmt.Errorf("quantity %q is negative", raw)
	}
	return qty, nil
}
