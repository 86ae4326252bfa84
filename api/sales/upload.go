package sales

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"PosDashSaas/api/constants"
	"PosDashSaas/api/sales/ingest"
	"PosDashSaas/internal/config"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func respondWithError(w http.ResponseWriter, status int, errMsg string) {
	log.Printf("[ERROR] %s", errMsg)
	w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		constants.ValueSuccess: false,
		constants.ValueError:   errMsg,
	})
}

// UploadWorkbook ingests one POS export posted as multipart form field
// "file". The optional "allow_collisions" field mirrors the watcher's
// operator override for sale ids re-used across different dates.
func UploadWorkbook(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			respondWithError(w, http.StatusBadRequest, "Failed to parse form data")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			respondWithError(w, http.StatusBadRequest, constants.ErrMissingFile)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Failed to read uploaded file")
			return
		}

		allow := strings.TrimSpace(strings.ToLower(r.FormValue("allow_collisions")))
		ing := &ingest.Ingestor{
			Pool:              pool,
			MaxBatchOps:       config.MaxBatchOps,
			AllowIDCollisions: allow == "1" || allow == "true" || allow == "yes",
		}

		stats, err := ing.Ingest(r.Context(), data, header.Filename)
		if err != nil {
			respondWithError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			constants.ValueSuccess: true,
			"run":                  stats,
			"processing_time":      time.Since(startTime).String(),
		})
	}
}

type importRun struct {
	RunID         uuid.UUID  `json:"run_id"`
	SourceFile    string     `json:"source_file"`
	Status        string     `json:"status"`
	RowsSeen      int        `json:"rows_seen"`
	RowsValid     int        `json:"rows_valid"`
	RowsSkipped   int        `json:"rows_skipped"`
	StoresTouched int        `json:"stores_touched"`
	Writes        int        `json:"writes"`
	ErrorMessage  *string    `json:"error_message,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// collectImportRuns drains the result set. A scan failure aborts the whole
// read rather than silently dropping rows from the response.
func collectImportRuns(rows pgx.Rows) ([]importRun, error) {
	defer rows.Close()
	runs := []importRun{}
	for rows.Next() {
		var run importRun
		if err := rows.Scan(&run.RunID, &run.SourceFile, &run.Status,
			&run.RowsSeen, &run.RowsValid, &run.RowsSkipped,
			&run.StoresTouched, &run.Writes,
			&run.ErrorMessage, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetImportRuns returns the most recent ingestion runs, newest first.
func GetImportRuns(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Limit int `json:"limit,omitempty"`
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req)
		}
		if req.Limit <= 0 {
			req.Limit = config.DefaultImportRunsLimit
		}

		rows, err := pool.Query(r.Context(), `
			SELECT run_id, source_file, status,
			       COALESCE(rows_seen,0), COALESCE(rows_valid,0), COALESCE(rows_skipped,0),
			       COALESCE(stores_touched,0), COALESCE(writes,0),
			       error_message, started_at, finished_at
			FROM pos_import_runs
			ORDER BY started_at DESC
			LIMIT $1`, req.Limit)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, constants.ErrFailedToQuery+": "+err.Error())
			return
		}

		runs, err := collectImportRuns(rows)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, constants.ErrFailedToQuery+": "+err.Error())
			return
		}

		w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			constants.ValueSuccess: true,
			"runs":                 runs,
			"count":                len(runs),
		})
	}
}
