package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"
)

// Line is one analyzable row: either a whole sale or one participant's share
// of a split sale. Every query function in this package operates on lines.
type Line struct {
	SaleID         string    `json:"sale_id"`
	SaleDate       time.Time `json:"sale_date"`
	StoreID        string    `json:"store_id"`
	StoreName      string    `json:"store_name"`
	Salesperson    string    `json:"salesperson"`
	GrandTotal     float64   `json:"grand_total"`
	Profit         float64   `json:"profit"`
	FinanceAmount  float64   `json:"finance_amount"`
	FinanceFee     float64   `json:"finance_fee"`
	FinanceBalance float64   `json:"finance_balance"`
}

// sanitize re-applies the finite-or-zero invariant at the read site. Rows
// written before write-time coercion existed can still carry NaN.
func sanitize(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// FetchLines reads the normalized sales in [start, end) — start inclusive,
// end exclusive. No splitting happens here; callers decide whether to expand
// the rows through the split allocator.
func FetchLines(ctx context.Context, db *sql.DB, start, end time.Time) ([]Line, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT sale_id, sale_date, store_id, store_name, salesperson,
		       COALESCE(grand_total,0), COALESCE(profit,0),
		       COALESCE(finance_amount,0), COALESCE(finance_fee,0), COALESCE(finance_balance,0)
		FROM pos_sales
		WHERE sale_date >= $1 AND sale_date < $2
		ORDER BY sale_date, sale_id`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("sales range query failed: %w", err)
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.SaleID, &l.SaleDate, &l.StoreID, &l.StoreName, &l.Salesperson,
			&l.GrandTotal, &l.Profit, &l.FinanceAmount, &l.FinanceFee, &l.FinanceBalance); err != nil {
			return nil, err
		}
		l.GrandTotal = sanitize(l.GrandTotal)
		l.Profit = sanitize(l.Profit)
		l.FinanceAmount = sanitize(l.FinanceAmount)
		l.FinanceFee = sanitize(l.FinanceFee)
		l.FinanceBalance = sanitize(l.FinanceBalance)
		out = append(out, l)
	}
	return out, rows.Err()
}

// FilterBySalesperson keeps lines whose salesperson contains the query,
// case-insensitive. An empty query keeps everything.
func FilterBySalesperson(lines []Line, q string) []Line {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return lines
	}
	var out []Line
	for _, l := range lines {
		if strings.Contains(strings.ToLower(l.Salesperson), q) {
			out = append(out, l)
		}
	}
	return out
}
