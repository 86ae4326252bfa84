package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSaleDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"7/4/2024", time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC), true},
		{"07/04/2024", time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC), true},
		{"12/31/2023", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), true},
		{"2024-07-04", time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC), true},
		{"2024-07-04 15:30:00", time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC), true}, // legacy xls datetime rendering
		{"2024-07-04T15:30:00Z", time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC), true},
		{" 7/4/2024 ", time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC), true},
		{"7/4/24", time.Time{}, false},   // two-digit year
		{"2024/07/04", time.Time{}, false},
		{"13/40/2024", time.Time{}, false}, // shape ok, values bad
		{"July 4 2024", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, c := range cases {
		got, err := ParseSaleDate(c.in)
		if c.ok {
			require.NoError(t, err, "input %q", c.in)
			assert.True(t, got.Equal(c.want), "input %q: got %v", c.in, got)
		} else {
			assert.Error(t, err, "input %q", c.in)
		}
	}
}

func TestToAmountCoercion(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1234.5", 1234.5},
		{"$1,234.00", 1234},
		{"$12,345,678.90", 12345678.90},
		{"15%", 15},
		{" $99.99 ", 99.99},
		{"-42.50", -42.50},
		{"", 0},
		{"NaN", 0},
		{"nan", 0},
		{"N/A", 0},
		{"abc", 0},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, toAmount(c.in), 1e-9, "input %q", c.in)
	}
}

func TestSanitizeAmount(t *testing.T) {
	nan := 0.0
	nan = nan / nan
	assert.Equal(t, 0.0, SanitizeAmount(nan))
	assert.Equal(t, 12.5, SanitizeAmount(12.5))
}

func TestNormalizeRowHeaderVariants(t *testing.T) {
	base := map[string]string{
		"Date of Sale":   "3/15/2024",
		"Sales Location": "Downtown Showroom",
		"Sales Person":   "Alice",
		"Grand Total":    "$1,500.00",
		"Profit":         "300",
	}

	for _, idHeader := range []string{"Sales#", "Sale #"} {
		row := map[string]string{}
		for k, v := range base {
			row[k] = v
		}
		row[idHeader] = "10001"

		sale, raw, err := NormalizeRow(row, "export.xlsx")
		require.NoError(t, err, "header %q", idHeader)
		assert.Equal(t, "10001", sale.SaleID)
		assert.Equal(t, "downtown-showroom", sale.StoreID)
		assert.Equal(t, "Downtown Showroom", sale.StoreName)
		assert.Equal(t, "Alice", sale.Salesperson)
		assert.InDelta(t, 1500.0, sale.GrandTotal, 1e-9)
		assert.InDelta(t, 300.0, sale.Profit, 1e-9)
		assert.Equal(t, "export.xlsx", sale.SourceFile)
		assert.Equal(t, row[idHeader], raw.Payload[idHeader])
	}
}

func TestNormalizeRowReceiptTypo(t *testing.T) {
	// "Receitp#" is a real header seen in exports; all three spellings map to
	// the same canonical field.
	for _, h := range []string{"Receitp#", "Receipt#", "Receipt #"} {
		row := map[string]string{
			"Sales#":         "2",
			"Date of Sale":   "1/2/2024",
			"Sales Location": "North",
			h:                "R-77",
		}
		_, raw, err := NormalizeRow(row, "f.xlsx")
		require.NoError(t, err, "header %q", h)
		assert.Equal(t, "R-77", raw.Payload[h])
	}
}

func TestNormalizeRowRejections(t *testing.T) {
	valid := map[string]string{
		"Sales#":         "55",
		"Date of Sale":   "6/1/2024",
		"Sales Location": "East",
	}

	t.Run("missing sale id", func(t *testing.T) {
		row := map[string]string{"Date of Sale": "6/1/2024", "Sales Location": "East"}
		_, _, err := NormalizeRow(row, "f.xlsx")
		assert.ErrorIs(t, err, ErrMissingSaleID)
	})

	t.Run("missing date", func(t *testing.T) {
		row := map[string]string{"Sales#": "55", "Sales Location": "East"}
		_, _, err := NormalizeRow(row, "f.xlsx")
		assert.ErrorIs(t, err, ErrMissingSaleDate)
	})

	t.Run("bad date", func(t *testing.T) {
		row := map[string]string{"Sales#": "55", "Date of Sale": "6/1/24", "Sales Location": "East"}
		_, _, err := NormalizeRow(row, "f.xlsx")
		assert.ErrorIs(t, err, ErrBadSaleDate)
	})

	t.Run("missing location", func(t *testing.T) {
		row := map[string]string{"Sales#": "55", "Date of Sale": "6/1/2024"}
		_, _, err := NormalizeRow(row, "f.xlsx")
		assert.ErrorIs(t, err, ErrMissingLocation)
	})

	t.Run("valid baseline", func(t *testing.T) {
		_, _, err := NormalizeRow(valid, "f.xlsx")
		assert.NoError(t, err)
	})
}

func TestNormalizeRowDefaults(t *testing.T) {
	row := map[string]string{
		"Sales#":         "99",
		"Date of Sale":   "2/2/2024",
		"Sales Location": "West",
		"Sales Person":   "  ",
		"Subtotal":       "",
		"Tax":            "NaN",
	}
	sale, _, err := NormalizeRow(row, "f.xlsx")
	require.NoError(t, err)
	assert.Equal(t, UnassignedSalesperson, sale.Salesperson)
	assert.Equal(t, 0.0, sale.Subtotal)
	assert.Equal(t, 0.0, sale.Tax)
}

func TestNormalizeRowSlashKeyRewrite(t *testing.T) {
	row := map[string]string{
		"Sales#":         "2024/0042",
		"Date of Sale":   "2/2/2024",
		"Sales Location": "West",
	}
	sale, raw, err := NormalizeRow(row, "f.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "2024_0042", sale.SaleKey)
	assert.Equal(t, "2024/0042", sale.SaleID) // original id preserved
	assert.Equal(t, sale.SaleKey, raw.SaleKey)
}

func TestNormalizeRowPayloadVerbatim(t *testing.T) {
	row := map[string]string{
		"Sales#":         "7",
		"Date of Sale":   "2/2/2024",
		"Sales Location": "West",
		"Grand Total":    "$1,000.00",
		"Custom Column":  "kept as-is",
	}
	_, raw, err := NormalizeRow(row, "f.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "$1,000.00", raw.Payload["Grand Total"])
	assert.Equal(t, "kept as-is", raw.Payload["Custom Column"])
}
