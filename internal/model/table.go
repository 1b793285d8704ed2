package model

import (
	"database/sql"
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrRecipeFormat marks a recipe table that cannot be used for deductions.
var ErrRecipeFormat = errors.New("invalid recipe table")

// Table is raw tabular input: a header row and string cells, as read from CSV or XLSX.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of the first header equal to name after trimming and lower-casing.
func (t *Table) Column(name string) int {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, h := range t.Header {
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return i
		}
	}
	return -1
}

// Cell returns the trimmed cell at (row, col); short rows and col < 0 yield "".
func (t *Table) Cell(row, col int) string {
	if col < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// ParseNumber converts a cell to a number. Blank, non-numeric, NaN and infinite cells are absent.
func ParseNumber(raw string) sql.NullFloat64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return sql.NullFloat64{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

// ParseText converts a cell to an optional string; blank cells are absent.
func ParseText(raw string) sql.NullString {
	s := strings.TrimSpace(raw)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// FormatNumber renders a number the way it is written back to tabular storage.
func FormatNumber(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64)
}
