package tabular

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	data := "\ufeffItem,Qty\nMargarita,3\n,\n\"Gin, Tonic\",2\n"
	table, err := ReadBytes([]byte(data), FormatCSV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Column("item") != 0 || table.Column("QTY") != 1 {
		t.Fatalf("unexpected header %q", table.Header)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows after dropping blanks, got %d", len(table.Rows))
	}
	if table.Cell(1, 0) != "Gin, Tonic" {
		t.Fatalf("unexpected cell %q", table.Cell(1, 0))
	}
}

func TestReadFileXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.xlsx")

	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	book.SetSheetRow(sheet, "A1", &[]interface{}{"Menu Item", "Quantity"})
	book.SetSheetRow(sheet, "A2", &[]interface{}{"Negroni", 4})
	book.SetSheetRow(sheet, "A3", &[]interface{}{"Margarita", 2.5})
	if err := book.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	book.Close()

	table, err := ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	if table.Cell(0, 0) != "Negroni" || table.Cell(0, 1) != "4" {
		t.Fatalf("unexpected first row %q", table.Rows[0])
	}
	if table.Cell(1, 1) != "2.5" {
		t.Fatalf("unexpected quantity %q", table.Cell(1, 1))
	}
}

func TestReadFileRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.txt")
	if err := os.WriteFile(path, []byte("item,qty\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := ReadFile(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	table, err := ReadBytes([]byte("a,b\n1,2\n"), FormatCSV)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, table); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "a,b\n1,2" {
		t.Fatalf("unexpected output %q", got)
	}
}
