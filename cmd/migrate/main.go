package main

import (
	"context"
	"log"
	"time"

	"github.com/yurrJC/mercania-wms-sub000/internal/config"
	"github.com/yurrJC/mercania-wms-sub000/internal/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool := connectDB(ctx, cfg.DatabaseDSN)
	defer pool.Close()

	conn := acquireLock(ctx, pool)
	defer conn.Release()

	if err := migrations.Run(ctx, pool); err != nil {
		log.Fatalf("[APPLY] %v", err)
	}
	log.Println("[APPLY] schema statements executed")

	verifyTables(ctx, pool)

	log.Println("[DONE] schema is current.")
}

func connectDB(ctx context.Context, dsn string) *pgxpool.Pool {
	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("[CONNECT] failed to create pool: %v", err)
	}

	if err := pool.Ping(connCtx); err != nil {
		log.Fatalf("[CONNECT] failed to ping database: %v", err)
	}

	log.Println("[CONNECT] success")
	return pool
}

func acquireLock(ctx context.Context, pool *pgxpool.Pool) *pgxpool.Conn {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		log.Fatalf("[LOCK] failed to acquire connection for lock: %v", err)
	}

	var locked bool
	err = conn.QueryRow(ctx, "SELECT pg_try_advisory_lock(882931)").Scan(&locked)
	if err != nil {
		log.Fatalf("[LOCK] failed to query advisory lock: %v", err)
	}

	if !locked {
		log.Fatalf("[LOCK] failed: another migrator is currently running")
	}

	log.Println("[LOCK] success")
	return conn
}

// verifyTables checks that every table the schema declares actually exists.
// to_regclass returns NULL for missing relations.
func verifyTables(ctx context.Context, pool *pgxpool.Pool) {
	for _, table := range migrations.Tables() {
		var regclass *string
		err := pool.QueryRow(ctx, "SELECT to_regclass($1)::text", table).Scan(&regclass)
		if err != nil {
			log.Fatalf("[VERIFY] failed to check table %s: %v", table, err)
		}
		if regclass == nil {
			log.Fatalf("[VERIFY] table %s is missing after migration", table)
		}
		log.Printf("[VERIFY] %s ok", table)
	}
}
