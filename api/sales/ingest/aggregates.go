package ingest

import (
	"context"
	"fmt"
	"time"
)

// aggRow is the slice of a pos_sales row the recomputer needs.
type aggRow struct {
	SaleID     string
	GrandTotal float64
	Cost       float64
	FinanceFee float64
	Profit     float64
}

// AggregateRows folds source rows into a daily rollup. It is a pure function
// of the rows passed in: re-running it over the same source state always
// yields the same aggregate, which is what makes re-imports idempotent.
func AggregateRows(storeID string, date time.Time, rows []aggRow) DailyAggregate {
	agg := DailyAggregate{StoreID: storeID, Date: date}
	orders := map[string]bool{}
	for _, r := range rows {
		agg.GrossSales += SanitizeAmount(r.GrandTotal)
		agg.COGS += SanitizeAmount(r.Cost)
		agg.FinanceFees += SanitizeAmount(r.FinanceFee)
		agg.Profit += SanitizeAmount(r.Profit)
		orders[r.SaleID] = true
	}
	agg.OrderCount = len(orders)
	if agg.GrossSales != 0 {
		agg.GrossMargin = agg.Profit / agg.GrossSales
	}
	return agg
}

// RecomputeDailyAggregate reads every pos_sales row for (storeID, date),
// rebuilds the rollup from scratch and overwrites the aggregate document.
// Full replace, never increment: the aggregate must stay a pure function of
// the current source rows so overlapping imports converge.
func (ing *Ingestor) RecomputeDailyAggregate(ctx context.Context, storeID string, date time.Time) error {
	rows, err := ing.Pool.Query(ctx, `
		SELECT sale_id, grand_total, cost, finance_fee, profit
		FROM pos_sales WHERE store_id = $1 AND sale_date = $2`,
		storeID, date)
	if err != nil {
		return fmt.Errorf("aggregate read for %s/%s failed: %w", storeID, date.Format("2006-01-02"), err)
	}
	defer rows.Close()

	var src []aggRow
	for rows.Next() {
		var r aggRow
		if err := rows.Scan(&r.SaleID, &r.GrandTotal, &r.Cost, &r.FinanceFee, &r.Profit); err != nil {
			return err
		}
		src = append(src, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	agg := AggregateRows(storeID, date, src)
	_, err = ing.Pool.Exec(ctx, `
		INSERT INTO pos_daily_aggregates
		  (store_id, sale_date, gross_sales, cogs, finance_fees, profit, gross_margin, order_count, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now())
		ON CONFLICT (store_id, sale_date) DO UPDATE SET
		  gross_sales = EXCLUDED.gross_sales,
		  cogs = EXCLUDED.cogs,
		  finance_fees = EXCLUDED.finance_fees,
		  profit = EXCLUDED.profit,
		  gross_margin = EXCLUDED.gross_margin,
		  order_count = EXCLUDED.order_count,
		  updated_at = now()`,
		agg.StoreID, agg.Date, agg.GrossSales, agg.COGS, agg.FinanceFees,
		agg.Profit, agg.GrossMargin, agg.OrderCount)
	if err != nil {
		return fmt.Errorf("aggregate write for %s/%s failed: %w", storeID, date.Format("2006-01-02"), err)
	}
	return nil
}
