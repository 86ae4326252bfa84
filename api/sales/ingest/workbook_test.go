package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildXLSX(t *testing.T, sheets map[string][][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadWorkbookXLSX(t *testing.T) {
	data := buildXLSX(t, map[string][][]string{
		"Sales Report": {
			{"Sales#", "Date of Sale", "Sales Location", "Grand Total"},
			{"1", "1/2/2024", "East", "$100.00"},
			{"", "", "", ""}, // blank rows are dropped
			{"2", "1/3/2024", "West", "$200.00"},
		},
	})

	wb, err := ReadWorkbook(data, "report.xlsx")
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)

	sheet, err := wb.SelectSalesSheet()
	require.NoError(t, err)
	assert.Equal(t, "Sales Report", sheet.Name)
	assert.Equal(t, []string{"Sales#", "Date of Sale", "Sales Location", "Grand Total"}, sheet.Headers)
	require.Len(t, sheet.Rows, 2)

	m := sheet.RowMap(0)
	assert.Equal(t, "1", m["Sales#"])
	assert.Equal(t, "East", m["Sales Location"])
}

func TestReadWorkbookNativeDateCells(t *testing.T) {
	// Date-typed cells render through the display format, which drops the
	// century ("01-05-24"); the reader must recover the full date from the
	// raw serial instead.
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Sales"))
	headers := []string{"Sales#", "Date of Sale", "Sales Location"}
	require.NoError(t, f.SetSheetRow("Sales", "A1", &headers))
	row := []interface{}{"1", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), "East"}
	require.NoError(t, f.SetSheetRow("Sales", "A2", &row))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	wb, err := ReadWorkbook(buf.Bytes(), "native.xlsx")
	require.NoError(t, err)
	sheet, err := wb.SelectSalesSheet()
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, "2024-01-05", sheet.Rows[0][1])

	sale, _, err := NormalizeRow(sheet.RowMap(0), "native.xlsx")
	require.NoError(t, err)
	assert.True(t, sale.SaleDate.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)))
}

func TestDateCellISOLeavesPlainCellsAlone(t *testing.T) {
	data := buildXLSX(t, map[string][][]string{
		"Sales": {
			{"Sales#", "Date of Sale", "Grand Total"},
			{"1", "1/5/2024", "$1,234.00"},
		},
	})
	wb, err := ReadWorkbook(data, "strings.xlsx")
	require.NoError(t, err)
	require.Len(t, wb.Sheets[0].Rows, 1)
	// String-typed cells pass through untouched.
	assert.Equal(t, "1/5/2024", wb.Sheets[0].Rows[0][1])
	assert.Equal(t, "$1,234.00", wb.Sheets[0].Rows[0][2])
}

func TestIsDateNumFmt(t *testing.T) {
	assert.True(t, isDateNumFmt(14))  // m/d/yy
	assert.True(t, isDateNumFmt(22))  // m/d/yy h:mm
	assert.False(t, isDateNumFmt(0))  // General
	assert.False(t, isDateNumFmt(44)) // accounting
}

func TestIsDateCustomFmt(t *testing.T) {
	assert.True(t, isDateCustomFmt("mm/dd/yyyy"))
	assert.True(t, isDateCustomFmt("yyyy-mm-dd"))
	assert.False(t, isDateCustomFmt("$#,##0.00"))
	assert.False(t, isDateCustomFmt("General"))
	assert.False(t, isDateCustomFmt("0.00%"))
}

func TestSelectSalesSheet(t *testing.T) {
	wb := &Workbook{Sheets: []Sheet{
		{Name: "Summary"},
		{Name: "sales 2024"},
		{Name: "Notes"},
	}}
	sheet, err := wb.SelectSalesSheet()
	require.NoError(t, err)
	assert.Equal(t, "sales 2024", sheet.Name)

	// No sheet named sales: first sheet wins rather than failing the run.
	wb = &Workbook{Sheets: []Sheet{{Name: "Export"}, {Name: "Other"}}}
	sheet, err = wb.SelectSalesSheet()
	require.NoError(t, err)
	assert.Equal(t, "Export", sheet.Name)

	_, err = (&Workbook{}).SelectSalesSheet()
	assert.Error(t, err)
}

func TestReadWorkbookHTMLDisguisedAsXLS(t *testing.T) {
	doc := `<html><body>
	<table>
	  <tr><th>Sales#</th><th>Date of Sale</th><th>Sales Location</th><th>Grand Total</th></tr>
	  <tr><td>10</td><td>5/1/2024</td><td>East</td><td>$50.00</td></tr>
	  <tr><td>11</td><td>5/2/2024</td><td>West</td><td>$75.00</td></tr>
	</table>
	</body></html>`

	wb, err := ReadWorkbook([]byte(doc), "export.xls")
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)

	sheet := wb.Sheets[0]
	assert.Equal(t, []string{"Sales#", "Date of Sale", "Sales Location", "Grand Total"}, sheet.Headers)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "10", sheet.Rows[0][0])
	assert.Equal(t, "$75.00", sheet.Rows[1][3])
}

func TestReadHTMLTablePicksBestMatch(t *testing.T) {
	// Two tables: a navigation-style one and the real data table. The data
	// table wins because its header row matches known columns.
	doc := `<html><body>
	<table><tr><td>Home</td><td>Reports</td></tr></table>
	<table>
	  <tr><th>Sales#</th><th>Date of Sale</th><th>Sales Location</th></tr>
	  <tr><td>1</td><td>1/1/2024</td><td>East</td></tr>
	</table>
	</body></html>`

	wb, err := ReadWorkbook([]byte(doc), "export.xls")
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)
	assert.Equal(t, "Sales#", wb.Sheets[0].Headers[0])
	require.Len(t, wb.Sheets[0].Rows, 1)
}

func TestReadHTMLTableHyperlinkCells(t *testing.T) {
	doc := `<html><body><table>
	  <tr><th>Sales#</th><th>Note</th></tr>
	  <tr><td>1</td><td><a href="https://notes.example/1">see note</a></td></tr>
	</table></body></html>`

	wb, err := ReadWorkbook([]byte(doc), "export.xls")
	require.NoError(t, err)
	assert.Equal(t, "see note (https://notes.example/1)", wb.Sheets[0].Rows[0][1])
}

func TestReadWorkbookUnsupportedExtension(t *testing.T) {
	_, err := ReadWorkbook([]byte("whatever"), "export.csv")
	assert.Error(t, err)
}

func TestLooksLikeHTML(t *testing.T) {
	assert.True(t, looksLikeHTML([]byte("<!DOCTYPE html><html>")))
	assert.True(t, looksLikeHTML([]byte("  <TABLE border=1>")))
	assert.False(t, looksLikeHTML([]byte{0xd0, 0xcf, 0x11, 0xe0})) // OLE2 magic
}

func TestRowMapShortRow(t *testing.T) {
	sheet := Sheet{
		Headers: []string{"A", "B", "C"},
		Rows:    [][]string{{"1", "2"}},
	}
	m := sheet.RowMap(0)
	assert.Equal(t, "1", m["A"])
	assert.Equal(t, "2", m["B"])
	assert.Equal(t, "", m["C"])
}
