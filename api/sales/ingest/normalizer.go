package ingest

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"PosDashSaas/api/constants"

	"github.com/shopspring/decimal"
)

// colMap renames export headers to canonical field names. Header matching is
// case-sensitive, mirroring the historical importer; the list carries every
// variant seen in real exports, including the long-lived "Receitp#" typo.
var colMap = map[string]string{
	"Sales#": "sale_id",
	"Sale #": "sale_id",

	"Date of Sale": "sale_date",

	"Sales Person":   "salesperson",
	"Sales Location": "location",

	"Receitp#": "receipt_no",
	"Receipt#": "receipt_no",
	"Receipt #": "receipt_no",

	"Subtotal":    "subtotal",
	"Tax":         "tax",
	"Grand Total": "grand_total",

	"Total Finance AMT": "finance_amount",
	"Finance Fee":       "finance_fee",
	"Finance Balance":   "finance_balance",

	"Cost":   "cost",
	"Profit": "profit",
}

// UnassignedSalesperson is written when the export leaves the column blank.
const UnassignedSalesperson = "Unassigned"

// Rejection reasons. The pipeline counts these per run; none of them abort
// the file.
var (
	ErrMissingSaleID   = errors.New("missing sale identifier")
	ErrMissingSaleDate = errors.New("missing sale date")
	ErrBadSaleDate     = errors.New("unparseable sale date")
	ErrMissingLocation = errors.New("missing sales location")
)

// saleDateRe admits 1-2 digit month/day and a 4-digit year only. Two-digit
// years and every other shape reject the row.
var saleDateRe = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)

// ParseSaleDate accepts the two shapes real exports produce: a native date
// cell (the xlsx reader rewrites date-styled cells to ISO 2006-01-02 from
// their raw serials; the legacy xls reader renders them as a full datetime
// string) or a string strictly matching MM/DD/YYYY.
func ParseSaleDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrMissingSaleDate
	}
	if saleDateRe.MatchString(s) {
		t, err := time.Parse(constants.SaleDateFormat, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrBadSaleDate, s)
		}
		return t, nil
	}
	if t, err := time.Parse(constants.DateFormat, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(constants.DateTimeFormat, s); err == nil {
		return dateOnly(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return dateOnly(t), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadSaleDate, s)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// toAmount coerces a monetary cell to a float. Exports decorate numbers with
// "$", thousands commas and the odd trailing "%"; anything that still fails
// to parse, including literal NaN, falls back to 0.
func toAmount(s string) float64 {
	t := strings.TrimSpace(s)
	t = strings.ReplaceAll(t, "$", "")
	t = strings.ReplaceAll(t, ",", "")
	t = strings.TrimSuffix(t, "%")
	t = strings.TrimSpace(t)
	if t == "" || strings.EqualFold(t, "nan") {
		return 0
	}
	d, err := decimal.NewFromString(t)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// SanitizeAmount re-applies the finite-or-zero invariant at read sites.
// Legacy rows written before coercion was enforced can still carry NaN.
func SanitizeAmount(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// NormalizeRow validates one raw export row and produces the normalized sale
// plus its raw audit record, or a rejection reason. The governing file path
// is stamped onto both.
func NormalizeRow(row map[string]string, sourceFile string) (*Sale, *RawRecord, error) {
	fields := map[string]string{}
	payload := map[string]string{}
	for header, cell := range row {
		h := strings.TrimSpace(header)
		if h == "" {
			continue
		}
		payload[h] = cell
		if name, ok := colMap[h]; ok {
			fields[name] = strings.TrimSpace(cell)
		}
	}

	saleID := fields["sale_id"]
	if saleID == "" {
		return nil, nil, ErrMissingSaleID
	}
	saleDate, err := ParseSaleDate(fields["sale_date"])
	if err != nil {
		return nil, nil, err
	}
	location := fields["location"]
	if location == "" {
		return nil, nil, ErrMissingLocation
	}

	salesperson := fields["salesperson"]
	if salesperson == "" {
		salesperson = UnassignedSalesperson
	}

	key, rewritten := StorageKey(saleID)
	if rewritten {
		logKeyRewrite(saleID, key, sourceFile)
	}

	sale := &Sale{
		SaleKey:        key,
		SaleID:         saleID,
		SaleDate:       saleDate,
		StoreID:        Slugify(location),
		StoreName:      location,
		Salesperson:    salesperson,
		Subtotal:       toAmount(fields["subtotal"]),
		Tax:            toAmount(fields["tax"]),
		GrandTotal:     toAmount(fields["grand_total"]),
		Cost:           toAmount(fields["cost"]),
		Profit:         toAmount(fields["profit"]),
		FinanceAmount:  toAmount(fields["finance_amount"]),
		FinanceFee:     toAmount(fields["finance_fee"]),
		FinanceBalance: toAmount(fields["finance_balance"]),
		SourceFile:     sourceFile,
	}
	raw := &RawRecord{
		SaleKey:    key,
		SaleID:     saleID,
		SaleDate:   saleDate,
		SourceFile: sourceFile,
		Payload:    payload,
	}
	return sale, raw, nil
}
