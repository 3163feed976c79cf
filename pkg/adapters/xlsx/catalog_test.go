package xlsx_test

import (
	"path/filepath"
	"testing"

	"github.com/aretw0/qret/pkg/adapters/xlsx"
	"github.com/aretw0/qret/pkg/domain"
	contract "github.com/aretw0/qret/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeSheet(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "" {
		require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))
	} else {
		sheet = f.GetSheetName(0)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestWriteLoad_Contract(t *testing.T) {
	entries := []domain.CatalogEntry{
		{ItemID: "3344", Description: "Rain jacket", UnitValueCents: 4500},
		{ItemID: "1122", Description: "Trail runner", UnitValueCents: 1299},
	}
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, xlsx.Write(path, entries))

	catalog, err := xlsx.Load(path, "")
	require.NoError(t, err)
	contract.CatalogContractTest(t, catalog, entries)
}

func TestLoad_PriceColumnAndLeadingBlankRows(t *testing.T) {
	path := writeSheet(t, "", [][]any{
		{},
		{"SKU", "Description", "Price"},
		{"1122", "Trail runner", "12.99"},
		{},
		{"5566", "Socks", 8.99},
	})

	catalog, err := xlsx.Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1299), catalog.Lookup("1122").UnitValueCents)
	assert.Equal(t, int64(899), catalog.Lookup("5566").UnitValueCents)
	assert.Len(t, catalog.List(), 2)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]any
		sheet   string
		wantErr string
	}{
		{name: "No Header", rows: nil, wantErr: "no header row"},
		{name: "No Item Column", rows: [][]any{{"description", "price"}}, wantErr: "no item_id column"},
		{name: "No Price Column", rows: [][]any{{"item_id", "description"}}, wantErr: "neither"},
		{name: "Bad Cents", rows: [][]any{{"item_id", "unit_value_cents"}, {"1", "ten"}}, wantErr: "row 2"},
		{name: "Missing ID", rows: [][]any{{"item_id", "price", "description"}, {"", "1.00", "x"}}, wantErr: "missing item_id"},
		{name: "Unknown Sheet", rows: [][]any{{"item_id", "price"}}, sheet: "Prices", wantErr: `sheet "Prices" not found`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSheet(t, "", tt.rows)
			_, err := xlsx.Load(path, tt.sheet)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_NamedSheet(t *testing.T) {
	path := writeSheet(t, "Prices", [][]any{
		{"item_id", "unit_value_cents"},
		{"1122", 1299},
	})

	catalog, err := xlsx.Load(path, "Prices")
	require.NoError(t, err)
	assert.Equal(t, int64(1299), catalog.Lookup("1122").UnitValueCents)
	assert.Equal(t, "", catalog.Lookup("1122").Description)
}
