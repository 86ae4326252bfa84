package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSaleIDCollision is fatal for the run unless the operator override is
// set. Sales# resetting each year is the usual culprit.
var ErrSaleIDCollision = errors.New("sale id re-used with a different sale date")

type Ingestor struct {
	Pool *pgxpool.Pool
	// MaxBatchOps bounds queued writes per flush (injected, see config).
	MaxBatchOps int
	// AllowIDCollisions lets a re-used sale id overwrite the earlier record.
	AllowIDCollisions bool
}

// RunStats is the observable outcome of one ingestion run.
type RunStats struct {
	RunID         uuid.UUID `json:"run_id"`
	SourceFile    string    `json:"source_file"`
	RowsSeen      int       `json:"rows_seen"`
	RowsValid     int       `json:"rows_valid"`
	RowsSkipped   int       `json:"rows_skipped"`
	StoresTouched int       `json:"stores_touched"`
	Writes        int       `json:"writes"`
}

// Collision pairs a sale key with its stored and incoming dates.
type Collision struct {
	SaleKey  string
	Existing time.Time
	Incoming time.Time
}

// DetectCollisions compares incoming sales against the dates already stored
// for their keys. Same key + same date is a normal idempotent re-import and
// is not reported.
func DetectCollisions(existing map[string]time.Time, sales []*Sale) []Collision {
	var out []Collision
	for _, s := range sales {
		prev, ok := existing[s.SaleKey]
		if !ok {
			continue
		}
		if !sameDay(prev, s.SaleDate) {
			out = append(out, Collision{SaleKey: s.SaleKey, Existing: prev, Incoming: s.SaleDate})
		}
	}
	return out
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// normalizeSheet runs the row normalizer over a whole sheet. A bad row never
// aborts the file; it is counted and logged.
func normalizeSheet(sheet *Sheet, sourceFile string) (sales []*Sale, raws []*RawRecord, skipped int) {
	for i := range sheet.Rows {
		sale, raw, err := NormalizeRow(sheet.RowMap(i), sourceFile)
		if err != nil {
			skipped++
			log.Printf("[Ingest] %s row %d skipped: %v", sourceFile, i+2, err)
			continue
		}
		sales = append(sales, sale)
		raws = append(raws, raw)
	}
	return sales, raws, skipped
}

// IngestFile reads one workbook from disk and ingests it.
func (ing *Ingestor) IngestFile(ctx context.Context, path string) (*RunStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ing.Ingest(ctx, data, filepath.Base(path))
}

// Ingest parses workbook bytes and performs the full ingest: normalize every
// row, upsert stores/sales/raw copies in bounded batches, then recompute the
// daily aggregates for every (store, date) pair this run touched.
func (ing *Ingestor) Ingest(ctx context.Context, data []byte, sourceFile string) (*RunStats, error) {
	stats := &RunStats{RunID: uuid.New(), SourceFile: sourceFile}
	if err := ing.beginRun(ctx, stats); err != nil {
		return nil, err
	}

	wb, err := ReadWorkbook(data, sourceFile)
	if err != nil {
		// Corrupt input aborts the whole run; the trigger owns retries.
		ing.failRun(ctx, stats, err)
		return nil, err
	}
	sheet, err := wb.SelectSalesSheet()
	if err != nil {
		ing.failRun(ctx, stats, err)
		return nil, err
	}

	sales, raws, skipped := normalizeSheet(sheet, sourceFile)
	stats.RowsSeen = len(sheet.Rows)
	stats.RowsValid = len(sales)
	stats.RowsSkipped = skipped

	if err := ing.checkCollisions(ctx, sales); err != nil {
		ing.failRun(ctx, stats, err)
		return stats, err
	}

	bw := newBatchWriter(ing.Pool, ing.MaxBatchOps)
	storesSeen := map[string]bool{}           // per-run: avoids redundant store writes
	touched := map[string]map[time.Time]bool{} // (store, date) keys for recompute

	for i, sale := range sales {
		if !storesSeen[sale.StoreID] {
			storesSeen[sale.StoreID] = true
			if err := bw.queue(ctx, upsertStoreSQL, sale.StoreID, sale.StoreName); err != nil {
				ing.failRun(ctx, stats, err)
				return stats, err
			}
		}
		if err := bw.queue(ctx, upsertSaleSQL,
			sale.SaleKey, sale.SaleID, sale.SaleDate, sale.StoreID, sale.StoreName,
			sale.Salesperson, sale.Subtotal, sale.Tax, sale.GrandTotal, sale.Cost,
			sale.Profit, sale.FinanceAmount, sale.FinanceFee, sale.FinanceBalance,
			sale.SourceFile,
		); err != nil {
			ing.failRun(ctx, stats, err)
			return stats, err
		}
		payload, err := json.Marshal(raws[i].Payload)
		if err != nil {
			ing.failRun(ctx, stats, err)
			return stats, err
		}
		if err := bw.queue(ctx, upsertRawSQL,
			sale.SaleKey, sale.SaleID, sale.SaleDate, sale.SourceFile, payload,
		); err != nil {
			ing.failRun(ctx, stats, err)
			return stats, err
		}

		day := truncateDay(sale.SaleDate)
		if touched[sale.StoreID] == nil {
			touched[sale.StoreID] = map[time.Time]bool{}
		}
		touched[sale.StoreID][day] = true
	}
	if err := bw.flush(ctx); err != nil {
		ing.failRun(ctx, stats, err)
		return stats, err
	}
	stats.StoresTouched = len(storesSeen)
	stats.Writes = bw.writes

	for storeID, days := range touched {
		for day := range days {
			if err := ing.RecomputeDailyAggregate(ctx, storeID, day); err != nil {
				ing.failRun(ctx, stats, err)
				return stats, err
			}
		}
	}

	if err := ing.finishRun(ctx, stats); err != nil {
		return stats, err
	}
	log.Printf("[Ingest] %s done: seen=%d valid=%d skipped=%d stores=%d writes=%d run=%s",
		sourceFile, stats.RowsSeen, stats.RowsValid, stats.RowsSkipped,
		stats.StoresTouched, stats.Writes, stats.RunID)
	return stats, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// checkCollisions loads the stored dates for every incoming key and applies
// the collision policy before any write happens.
func (ing *Ingestor) checkCollisions(ctx context.Context, sales []*Sale) error {
	if len(sales) == 0 {
		return nil
	}
	keys := make([]string, 0, len(sales))
	seen := map[string]bool{}
	for _, s := range sales {
		if !seen[s.SaleKey] {
			seen[s.SaleKey] = true
			keys = append(keys, s.SaleKey)
		}
	}
	rows, err := ing.Pool.Query(ctx,
		`SELECT sale_key, sale_date FROM pos_sales WHERE sale_key = ANY($1)`, keys)
	if err != nil {
		return fmt.Errorf("collision pre-check failed: %w", err)
	}
	defer rows.Close()

	existing := map[string]time.Time{}
	for rows.Next() {
		var key string
		var date time.Time
		if err := rows.Scan(&key, &date); err != nil {
			return err
		}
		existing[key] = date
	}
	if err := rows.Err(); err != nil {
		return err
	}

	collisions := DetectCollisions(existing, sales)
	if len(collisions) == 0 {
		return nil
	}
	if ing.AllowIDCollisions {
		for _, c := range collisions {
			log.Printf("[WARN] overwriting sale %s: stored date %s, incoming %s (override set)",
				c.SaleKey, c.Existing.Format("2006-01-02"), c.Incoming.Format("2006-01-02"))
		}
		return nil
	}
	samples := make([]string, 0, 5)
	for i, c := range collisions {
		if i == 5 {
			break
		}
		samples = append(samples, fmt.Sprintf("%s: %s -> %s",
			c.SaleKey, c.Existing.Format("2006-01-02"), c.Incoming.Format("2006-01-02")))
	}
	return fmt.Errorf("%w (%d found, e.g. %s)", ErrSaleIDCollision, len(collisions), strings.Join(samples, "; "))
}

const upsertStoreSQL = `
INSERT INTO pos_stores (store_id, display_name, active, updated_at)
VALUES ($1, $2, true, now())
ON CONFLICT (store_id) DO UPDATE SET
  display_name = EXCLUDED.display_name,
  active = true,
  updated_at = now()`

const upsertSaleSQL = `
INSERT INTO pos_sales (
  sale_key, sale_id, sale_date, store_id, store_name, salesperson,
  subtotal, tax, grand_total, cost, profit,
  finance_amount, finance_fee, finance_balance, source_file, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,now())
ON CONFLICT (sale_key) DO UPDATE SET
  sale_id = EXCLUDED.sale_id,
  sale_date = EXCLUDED.sale_date,
  store_id = EXCLUDED.store_id,
  store_name = EXCLUDED.store_name,
  salesperson = EXCLUDED.salesperson,
  subtotal = EXCLUDED.subtotal,
  tax = EXCLUDED.tax,
  grand_total = EXCLUDED.grand_total,
  cost = EXCLUDED.cost,
  profit = EXCLUDED.profit,
  finance_amount = EXCLUDED.finance_amount,
  finance_fee = EXCLUDED.finance_fee,
  finance_balance = EXCLUDED.finance_balance,
  source_file = EXCLUDED.source_file,
  updated_at = now()`

const upsertRawSQL = `
INSERT INTO pos_sales_raw (sale_key, sale_id, sale_date, source_file, payload, updated_at)
VALUES ($1,$2,$3,$4,$5,now())
ON CONFLICT (sale_key) DO UPDATE SET
  sale_id = EXCLUDED.sale_id,
  sale_date = EXCLUDED.sale_date,
  source_file = EXCLUDED.source_file,
  payload = EXCLUDED.payload,
  updated_at = now()`

// batchWriter groups upserts into pgx batches bounded by maxOps. Flushes are
// synchronous; a flush error leaves earlier flushed batches committed.
type batchWriter struct {
	pool   *pgxpool.Pool
	maxOps int
	batch  *pgx.Batch
	writes int
}

func newBatchWriter(pool *pgxpool.Pool, maxOps int) *batchWriter {
	if maxOps <= 0 {
		maxOps = 500
	}
	return &batchWriter{pool: pool, maxOps: maxOps, batch: &pgx.Batch{}}
}

func (bw *batchWriter) queue(ctx context.Context, sql string, args ...interface{}) error {
	bw.batch.Queue(sql, args...)
	if bw.batch.Len() >= bw.maxOps {
		return bw.flush(ctx)
	}
	return nil
}

func (bw *batchWriter) flush(ctx context.Context) error {
	n := bw.batch.Len()
	if n == 0 {
		return nil
	}
	br := bw.pool.SendBatch(ctx, bw.batch)
	var errs []string
	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			errs = append(errs, fmt.Sprintf("op %d: %v", i+1, err))
		}
	}
	if err := br.Close(); err != nil && len(errs) == 0 {
		errs = append(errs, err.Error())
	}
	bw.batch = &pgx.Batch{}
	if len(errs) > 0 {
		return fmt.Errorf("batch flush failed (%d of %d ops): %s", len(errs), n, strings.Join(errs, "; "))
	}
	bw.writes += n
	return nil
}

// Import-run audit trail, one row per ingestion run.

func (ing *Ingestor) beginRun(ctx context.Context, stats *RunStats) error {
	_, err := ing.Pool.Exec(ctx, `
		INSERT INTO pos_import_runs (run_id, source_file, status, started_at)
		VALUES ($1, $2, 'processing', now())`,
		stats.RunID, stats.SourceFile)
	if err != nil {
		return fmt.Errorf("failed to record import run: %w", err)
	}
	return nil
}

func (ing *Ingestor) finishRun(ctx context.Context, stats *RunStats) error {
	_, err := ing.Pool.Exec(ctx, `
		UPDATE pos_import_runs SET
		  status = 'completed', rows_seen = $2, rows_valid = $3, rows_skipped = $4,
		  stores_touched = $5, writes = $6, finished_at = now()
		WHERE run_id = $1`,
		stats.RunID, stats.RowsSeen, stats.RowsValid, stats.RowsSkipped,
		stats.StoresTouched, stats.Writes)
	if err != nil {
		return fmt.Errorf("failed to finalize import run: %w", err)
	}
	return nil
}

func (ing *Ingestor) failRun(ctx context.Context, stats *RunStats, cause error) {
	_, err := ing.Pool.Exec(ctx, `
		UPDATE pos_import_runs SET
		  status = 'failed', rows_seen = $2, rows_valid = $3, rows_skipped = $4,
		  error_message = $5, finished_at = now()
		WHERE run_id = $1`,
		stats.RunID, stats.RowsSeen, stats.RowsValid, stats.RowsSkipped, cause.Error())
	if err != nil {
		log.Printf("[Ingest] failed to mark run %s failed: %v", stats.RunID, err)
	}
}
