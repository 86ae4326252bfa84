package jobs

import (
	"fmt"
	"log"

	"PosDashSaas/internal/logger"
	"PosDashSaas/internal/serviceiface"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CronService struct {
	config map[string]interface{}
	db     *pgxpool.Pool
}

func NewCronService(cfg map[string]interface{}, db *pgxpool.Pool) serviceiface.Service {
	return &CronService{
		config: cfg,
		db:     db,
	}
}

func (s *CronService) Name() string {
	return "cron"
}

func (s *CronService) Start() error {
	log.Println("Starting cron service...")

	importCfg := NewDefaultImportConfig()

	// Override watcher settings from services.yaml if provided
	if s.config != nil {
		if schedule, ok := s.config["import_schedule"].(string); ok && schedule != "" {
			importCfg.Schedule = schedule
		}
		if tz, ok := s.config["timezone"].(string); ok && tz != "" {
			importCfg.TimeZone = tz
		}
		if dir, ok := s.config["incoming_dir"].(string); ok && dir != "" {
			importCfg.IncomingDir = dir
		}
		if dir, ok := s.config["processed_dir"].(string); ok && dir != "" {
			importCfg.ProcessedDir = dir
		}
		if batchOps, ok := s.config["max_batch_ops"].(int); ok && batchOps > 0 {
			importCfg.MaxBatchOps = batchOps
		}
	}

	err := RunImportWatcher(importCfg, s.db)
	if err != nil {
		return fmt.Errorf("failed to start import watcher: %v", err)
	}

	logger.GlobalLogger.LogAudit("Cron service started with import watcher")
	log.Println("Cron service started — Import Watcher scheduled")
	return nil
}

func (s *CronService) Stop() error {
	log.Println("Cron service stopped.")
	return nil
}
