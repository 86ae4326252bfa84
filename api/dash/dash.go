package dash

import (
	"database/sql"
	"log"
	"net/http"

	"PosDashSaas/api/dash/analytics"
)

func StartDashService(db *sql.DB) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dash/hello", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello from Dashboard Service"))
	})

	mux.Handle("/dash/sales/summary", analytics.GetSummary(db))
	mux.Handle("/dash/sales/finance-summary", analytics.GetFinanceSummary(db))
	mux.Handle("/dash/sales/leaderboard", analytics.GetLeaderboard(db))
	mux.Handle("/dash/sales/by-location", analytics.GetSalesByLocation(db))
	mux.Handle("/dash/sales/daily", analytics.GetDailyTrend(db))
	mux.Handle("/dash/sales/weekly", analytics.GetWeeklyTrend(db))
	mux.Handle("/dash/sales/outliers", analytics.GetOutliers(db))
	mux.Handle("/dash/sales/low-margin", analytics.GetLowMargins(db))

	log.Println("Dashboard Service started on :4143")
	err := http.ListenAndServe(":4143", mux)
	if err != nil {
		log.Fatalf("Dashboard Service failed: %v", err)
	}
}
