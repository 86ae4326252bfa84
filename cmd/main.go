package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"PosDashSaas/internal/appmanager"
)

func connString() string {
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASSWORD")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME")
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		user, pass, host, port, name,
	)
}

// InitDB opens the database/sql connection used by the dash service.
func InitDB() (*sql.DB, error) {
	return sql.Open("postgres", connString())
}

// InitPgxPool opens the pgx pool used by the sales service and the import
// watcher for batched upserts.
func InitPgxPool() (*pgxpool.Pool, error) {
	return pgxpool.New(context.Background(), "postgres://"+os.Getenv("DB_USER")+":"+os.Getenv("DB_PASSWORD")+"@"+os.Getenv("DB_HOST")+":"+os.Getenv("DB_PORT")+"/"+os.Getenv("DB_NAME")+"?sslmode=disable")
}

func main() {
	// Load .env for local dev (ignored when env is set by the platform)
	_ = godotenv.Load("../.env")

	db, err := InitDB()
	if err != nil {
		log.Fatal("failed to connect to DB:", err)
	}
	appmanager.SetDB(db)

	pool, err := InitPgxPool()
	if err != nil {
		log.Fatal("failed to create pgx pool:", err)
	}
	appmanager.SetPgxPool(pool)

	manager := appmanager.NewAppManager()

	// Load service configs from YAML
	servicesCfg, err := appmanager.LoadServiceSequence("../services.yaml")
	if err != nil {
		log.Fatal("failed to load service sequence:", err)
	}

	// Automatically register all services
	manager.AutoRegisterServices(servicesCfg)

	// Start all services
	if err := manager.StartAll(); err != nil {
		log.Fatal("failed to start:", err)
	}

	// Graceful shutdown handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	if err := manager.StopAll(); err != nil {
		log.Fatal("failed to stop:", err)
	}
	pool.Close()
	db.Close()
}
