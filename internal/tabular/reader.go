// Package tabular loads spreadsheet-like files into header + string cell tables.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fekuna/omnipos-bar-service/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// FormatOf derives the table format from a file name extension.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q (expected .csv or .xlsx)", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// ReadFile reads a .csv file or the first sheet of a .xlsx workbook.
func ReadFile(path string) (model.Table, error) {
	format, err := FormatOf(path)
	if err != nil {
		return model.Table{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return model.Table{}, err
	}
	defer f.Close()
	return Read(f, format)
}

// ReadBytes is Read over an in-memory payload.
func ReadBytes(data []byte, format string) (model.Table, error) {
	return Read(bytes.NewReader(data), format)
}

func Read(r io.Reader, format string) (model.Table, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return readCSV(r)
	case FormatXLSX:
		return readXLSX(r)
	default:
		return model.Table{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func readCSV(r io.Reader) (model.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return model.Table{}, fmt.Errorf("read csv: %w", err)
	}
	return fromRecords(records), nil
}

func readXLSX(r io.Reader) (model.Table, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return model.Table{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return model.Table{}, nil
	}
	records, err := book.GetRows(sheets[0])
	if err != nil {
		return model.Table{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return fromRecords(records), nil
}

func fromRecords(records [][]string) model.Table {
	if len(records) == 0 {
		return model.Table{}
	}
	header := records[0]
	if len(header) > 0 {
		// Excel-exported CSVs often carry a UTF-8 BOM on the first header cell.
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if blankRecord(rec) {
			continue
		}
		rows = append(rows, rec)
	}
	return model.Table{Header: header, Rows: rows}
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// WriteCSV writes a table back out with its header first.
func WriteCSV(w io.Writer, table model.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		return err
	}
	return cw.Error()
}
