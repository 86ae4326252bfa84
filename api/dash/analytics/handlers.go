package analytics

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"PosDashSaas/api/constants"
	"PosDashSaas/internal/config"
)

// queryRequest is the shared JSON body for every analytics endpoint.
// Operation-specific limits are simply ignored by endpoints that do not use
// them. Ranges are [start, end): end exclusive.
type queryRequest struct {
	Start       string  `json:"start"`
	End         string  `json:"end"`
	Salesperson string  `json:"salesperson,omitempty"`
	Limit       int     `json:"limit,omitempty"`
	LimitPer    int     `json:"limit_per,omitempty"`
	LimitTotal  int     `json:"limit_total,omitempty"`
	Multiplier  float64 `json:"multiplier,omitempty"`
}

func respondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		constants.ValueSuccess: false,
		constants.ValueError:   msg,
	})
}

func respondOK(w http.ResponseWriter, payload map[string]interface{}) {
	payload[constants.ValueSuccess] = true
	w.Header().Set(constants.ContentTypeText, constants.ContentTypeJSON)
	json.NewEncoder(w).Encode(payload)
}

// parseRequest decodes the body and loads the range. Lines come back raw;
// each handler decides whether to run them through the split allocator.
func parseRequest(db *sql.DB, w http.ResponseWriter, r *http.Request) (*queryRequest, []Line, bool) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
		return nil, nil, false
	}
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
		return nil, nil, false
	}
	start, err := time.Parse(constants.DateFormat, req.Start)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid start date, want YYYY-MM-DD")
		return nil, nil, false
	}
	end, err := time.Parse(constants.DateFormat, req.End)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid end date, want YYYY-MM-DD")
		return nil, nil, false
	}
	lines, err := FetchLines(r.Context(), db, start, end)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return nil, nil, false
	}
	return &req, lines, true
}

func GetSummary(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, lines, ok := parseRequest(db, w, r)
		if !ok {
			return
		}
		s := Summarize(linesFor(lines, req.Salesperson))
		respondOK(w, map[string]interface{}{"summary": s})
	}
}

func GetFinanceSummary(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, lines, ok := parseRequest(db, w, r)
		if !ok {
			return
		}
		s := SummarizeFinance(linesFor(lines, req.Salesperson))
		respondOK(w, map[string]interface{}{"finance_summary": s})
	}
}

func GetLeaderboard(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, lines, ok := parseRequest(db, w, r)
		if !ok {
			return
		}
		limit := req.Limit
		if limit <= 0 {
			limit = config.DefaultLeaderboardLimit
		}
		if req.Salesperson != "" {
			// Split lines re-split to themselves, so narrowing first is safe.
			lines = FilterBySalesperson(SplitAll(lines), req.Salesperson)
		}
		entries := Leaderboard(lines, limit)
		respondOK(w, map[string]interface{}{
			"leaderboard": entries,
			"count":       len(entries),
		})
	}
}

func GetSalesByLocation(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, lines, ok := parseRequest(db, w, r)
		if !ok {
			return
		}
		points := SalesByLocation(linesFor(lines, req.Salesperson))
		respondOK(w, map[string]interface{}{"locations": points, "count": len(points)})
	}
}

func GetDailyTrend(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, lines, ok := parseRequest(db, w, r)
		if !ok {
			return
		}
		points := DailyTrend(linesFor(lines, req.Salesperson))
		respondOK(w, map[string]interface{}{"days": points, "count": len(points)})
	}
}

func GetWeeklyTrend(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, lines, ok := parseRequest(db, w, r)
		if !ok {
			return
		}
		points := WeeklyTrend(linesFor(lines, req.Salesperson))
		respondOK(w, map[string]interface{}{"weeks": points, "count": len(points)})
	}
}

func GetOutliers(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, lines, ok := parseRequest(db, w, r)
		if !ok {
			return
		}
		limit := req.Limit
		if limit <= 0 {
			limit = config.DefaultOutlierLimit
		}
		multiplier := req.Multiplier
		if multiplier <= 0 {
			multiplier = config.DefaultOutlierMultiplier
		}
		report := DetectOutliers(linesFor(lines, req.Salesperson), multiplier, limit)
		respondOK(w, map[string]interface{}{"outliers": report})
	}
}

func GetLowMargins(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, lines, ok := parseRequest(db, w, r)
		if !ok {
			return
		}
		perLimit := req.LimitPer
		if perLimit <= 0 {
			perLimit = config.DefaultLowMarginPer
		}
		totalLimit := req.LimitTotal
		if totalLimit <= 0 {
			totalLimit = config.DefaultLowMarginTotal
		}
		if req.Salesperson != "" {
			lines = FilterBySalesperson(SplitAll(lines), req.Salesperson)
		}
		rows, total := RankLowMargins(lines, perLimit, totalLimit)
		respondOK(w, map[string]interface{}{
			"rows":  rows,
			"total": total,
		})
	}
}
