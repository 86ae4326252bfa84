package ingest

import "time"

// Sale is the normalized, query-optimized record upserted into pos_sales.
// SaleKey is the storage key (path separators rewritten); SaleID keeps the
// identifier exactly as it appeared in the export.
type Sale struct {
	SaleKey        string
	SaleID         string
	SaleDate       time.Time
	StoreID        string
	StoreName      string
	Salesperson    string
	Subtotal       float64
	Tax            float64
	GrandTotal     float64
	Cost           float64
	Profit         float64
	FinanceAmount  float64
	FinanceFee     float64
	FinanceBalance float64
	SourceFile     string
}

// RawRecord is the immutable audit copy of one ingested row. The payload
// keeps every original column verbatim, including ones the normalizer does
// not recognize.
type RawRecord struct {
	SaleKey    string
	SaleID     string
	SaleDate   time.Time
	SourceFile string
	Payload    map[string]string
}

// DailyAggregate is the per-store/day rollup. It is entirely derived: always
// recomputed from the pos_sales rows for its key, never incremented.
type DailyAggregate struct {
	StoreID     string
	Date        time.Time
	GrossSales  float64
	COGS        float64
	FinanceFees float64
	Profit      float64
	GrossMargin float64
	OrderCount  int
}
