package jobs

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"PosDashSaas/api/sales/ingest"
	"PosDashSaas/internal/config"
	"PosDashSaas/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
)

// ImportConfig drives the incoming-folder watcher. The batch bound is
// injected here rather than read from a constant at the write sites.
type ImportConfig struct {
	Schedule          string
	TimeZone          string
	IncomingDir       string
	ProcessedDir      string
	MaxBatchOps       int
	AllowIDCollisions bool
	MaxRetries        int
	RetryDelay        time.Duration
}

// NewDefaultImportConfig creates an ImportConfig with defaults from the
// config package and env overrides for the operator-facing switches.
func NewDefaultImportConfig() *ImportConfig {
	allow := strings.TrimSpace(strings.ToLower(os.Getenv("POS_ALLOW_ID_COLLISIONS")))
	return &ImportConfig{
		Schedule:          config.DefaultImportSchedule,
		TimeZone:          config.DefaultTimeZone,
		IncomingDir:       config.DefaultIncomingDir,
		ProcessedDir:      config.DefaultProcessedDir,
		MaxBatchOps:       config.MaxBatchOps,
		AllowIDCollisions: allow == "1" || allow == "true" || allow == "yes",
		MaxRetries:        3,
		RetryDelay:        2 * time.Second,
	}
}

// RetryWithBackoff executes a function with exponential backoff retry logic
func RetryWithBackoff(maxRetries int, initialDelay time.Duration, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * initialDelay
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Retrying after %v (attempt %d/%d)", delay, attempt, maxRetries))
			time.Sleep(delay)
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		logger.GlobalLogger.LogAudit(fmt.Sprintf("Attempt %d failed: %v", attempt+1, lastErr))
	}

	return fmt.Errorf("failed after %d attempts: %v", maxRetries+1, lastErr)
}

// RunImportWatcher schedules the incoming-folder scan. Every tick it ingests
// each workbook found in IncomingDir (oldest name first), moves processed
// files to ProcessedDir and optionally archives the original to S3.
func RunImportWatcher(cfg *ImportConfig, pool *pgxpool.Pool) error {
	if cfg.Schedule == "" {
		cfg.Schedule = config.DefaultImportSchedule
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = config.DefaultTimeZone
	}
	if cfg.IncomingDir == "" {
		cfg.IncomingDir = config.DefaultIncomingDir
	}
	if cfg.ProcessedDir == "" {
		cfg.ProcessedDir = config.DefaultProcessedDir
	}
	if cfg.MaxBatchOps == 0 {
		cfg.MaxBatchOps = config.MaxBatchOps
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid timezone for import watcher: %v", err)
	}
	if err := os.MkdirAll(cfg.IncomingDir, 0755); err != nil {
		return fmt.Errorf("failed to create incoming dir: %v", err)
	}
	if err := os.MkdirAll(cfg.ProcessedDir, 0755); err != nil {
		return fmt.Errorf("failed to create processed dir: %v", err)
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.Schedule, func() {
		scanIncoming(cfg, pool)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule import watcher: %v", err)
	}

	c.Start()
	logger.GlobalLogger.LogAudit("Import watcher scheduled for " + cfg.Schedule + " (" + cfg.TimeZone + "), watching " + cfg.IncomingDir)
	return nil
}

func scanIncoming(cfg *ImportConfig, pool *pgxpool.Pool) {
	files := listWorkbooks(cfg.IncomingDir)
	if len(files) == 0 {
		return
	}
	logger.GlobalLogger.LogAudit(fmt.Sprintf("Import watcher found %d workbook(s) in %s", len(files), cfg.IncomingDir))

	ing := &ingest.Ingestor{
		Pool:              pool,
		MaxBatchOps:       cfg.MaxBatchOps,
		AllowIDCollisions: cfg.AllowIDCollisions,
	}

	for _, path := range files {
		path := path
		err := RetryWithBackoff(cfg.MaxRetries, cfg.RetryDelay, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			stats, err := ing.IngestFile(ctx, path)
			if err != nil {
				return err
			}
			logger.GlobalLogger.LogAudit(fmt.Sprintf(
				"Imported %s: seen=%d valid=%d skipped=%d stores=%d writes=%d",
				filepath.Base(path), stats.RowsSeen, stats.RowsValid,
				stats.RowsSkipped, stats.StoresTouched, stats.Writes))
			return nil
		})
		if err != nil {
			// The file stays in incoming; the next tick retries it.
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Import of %s failed: %v", filepath.Base(path), err))
			continue
		}

		archiveProcessedFile(path)

		dest := filepath.Join(cfg.ProcessedDir, filepath.Base(path))
		if err := os.Rename(path, dest); err != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Failed to move %s to processed: %v", path, err))
		}
	}
}

func listWorkbooks(dir string) []string {
	var files []string
	for _, pattern := range []string{"*.xlsx", "*.xls"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files
}
