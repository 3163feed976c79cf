// Package xlsx imports and exports price catalogs as Excel workbooks.
//
// The first non-empty row of the sheet is the header. Recognised columns
// (case-insensitive): item_id, description, and either unit_value_cents or
// price (a decimal amount in major units).
package xlsx

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/qret/pkg/adapters/memory"
	"github.com/aretw0/qret/pkg/domain"
	"github.com/xuri/excelize/v2"
)

// DefaultSheet is used on export, and on import when no sheet is named.
const DefaultSheet = "Catalog"

type columns struct {
	itemID, description, cents, price int
}

// Load opens path and reads the catalog from sheet. An empty sheet name
// selects DefaultSheet when present, else the first sheet.
func Load(path, sheet string) (*memory.Catalog, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	entries, err := Read(f, sheet)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return memory.NewCatalog(entries...), nil
}

// Read parses catalog rows from an open workbook.
func Read(f *excelize.File, sheet string) ([]domain.CatalogEntry, error) {
	sheet, err := pickSheet(f, sheet)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	var (
		cols    *columns
		entries []domain.CatalogEntry
	)
	for i, row := range rows {
		if isRowEmpty(row) {
			continue
		}
		if cols == nil {
			cols, err = parseHeader(row)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			continue
		}
		entry, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		entries = append(entries, entry)
	}
	if cols == nil {
		return nil, fmt.Errorf("sheet %q has no header row", sheet)
	}
	return entries, nil
}

// Write stores entries in a new workbook at path, sorted by item id.
func Write(path string, entries []domain.CatalogEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), DefaultSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sorted := append([]domain.CatalogEntry(nil), entries...)
	domain.SortEntries(sorted)

	if err := f.SetSheetRow(DefaultSheet, "A1", &[]any{"item_id", "description", "unit_value_cents"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, e := range sorted {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(DefaultSheet, cell, &[]any{e.ItemID, e.Description, e.UnitValueCents}); err != nil {
			return fmt.Errorf("failed to write %s: %w", e.ItemID, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func pickSheet(f *excelize.File, sheet string) (string, error) {
	if sheet != "" {
		if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
			return "", fmt.Errorf("sheet %q not found", sheet)
		}
		return sheet, nil
	}
	if idx, _ := f.GetSheetIndex(DefaultSheet); idx >= 0 {
		return DefaultSheet, nil
	}
	name := f.GetSheetName(0)
	if name == "" {
		return "", fmt.Errorf("workbook has no sheets")
	}
	return name, nil
}

func parseHeader(row []string) (*columns, error) {
	cols := &columns{itemID: -1, description: -1, cents: -1, price: -1}
	for i, cell := range row {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "item_id", "item", "sku":
			cols.itemID = i
		case "description":
			cols.description = i
		case "unit_value_cents", "cents":
			cols.cents = i
		case "price":
			cols.price = i
		}
	}
	if cols.itemID < 0 {
		return nil, fmt.Errorf("header has no item_id column")
	}
	if cols.cents < 0 && cols.price < 0 {
		return nil, fmt.Errorf("header has neither unit_value_cents nor price column")
	}
	return cols, nil
}

func parseRow(row []string, cols *columns) (domain.CatalogEntry, error) {
	entry := domain.CatalogEntry{
		ItemID:      cell(row, cols.itemID),
		Description: cell(row, cols.description),
	}
	if entry.ItemID == "" {
		return entry, fmt.Errorf("missing item_id")
	}

	if raw := cell(row, cols.cents); raw != "" {
		cents, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || cents < 0 {
			return entry, fmt.Errorf("invalid unit_value_cents %q", raw)
		}
		entry.UnitValueCents = cents
		return entry, nil
	}
	if raw := cell(row, cols.price); raw != "" {
		amount, err := strconv.ParseFloat(raw, 64)
		if err != nil || amount < 0 {
			return entry, fmt.Errorf("invalid price %q", raw)
		}
		entry.UnitValueCents = int64(math.Round(amount * 100))
	}
	return entry, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isRowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
