package sales

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
)

func StartSalesService(pool *pgxpool.Pool) {
	router := mux.NewRouter()

	router.HandleFunc("/sales/hello", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello from Sales Service"))
	})
	router.HandleFunc("/sales/upload", UploadWorkbook(pool)).Methods("POST")
	router.HandleFunc("/sales/import-runs", GetImportRuns(pool)).Methods("POST")

	log.Println("Sales Service started on :7143")
	err := http.ListenAndServe(":7143", router)
	if err != nil {
		log.Fatalf("Sales Service failed: %v", err)
	}
}
