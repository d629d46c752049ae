package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	webAdapter "github.com/yurrJC/mercania-wms-sub000/internal/adapters/web"
	"github.com/yurrJC/mercania-wms-sub000/internal/app"
	"github.com/yurrJC/mercania-wms-sub000/internal/blob"
	"github.com/yurrJC/mercania-wms-sub000/internal/config"
	"github.com/yurrJC/mercania-wms-sub000/internal/core"
	"github.com/yurrJC/mercania-wms-sub000/internal/db"
	"github.com/yurrJC/mercania-wms-sub000/internal/migrations"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	if ok, _ := strconv.ParseBool(os.Getenv("MIGRATE_ON_BOOT")); ok {
		if err := migrations.Run(ctx, pool); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		log.Println("schema migrations applied")
	}

	covers, err := blob.Open(ctx, blob.Options{
		Driver:      cfg.BlobDriver,
		FSDir:       cfg.BlobFSDir,
		S3Bucket:    cfg.BlobS3Bucket,
		S3Region:    cfg.BlobS3Region,
		S3Endpoint:  cfg.BlobS3Endpoint,
		S3AccessKey: cfg.BlobS3AccessKey,
		S3SecretKey: cfg.BlobS3SecretKey,
		S3PathStyle: cfg.BlobS3PathStyle,
	})
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	catalog := core.NewCatalogService(pool)
	items := core.NewItemService(pool, catalog, cfg.WarehouseTZ)
	lots := core.NewLotService(pool)
	cog := core.NewCOGService(pool, cfg.WarehouseTZ)
	summary := core.NewSummaryService(pool, cfg.WarehouseTZ, cfg.FYStartMonth)

	svc := app.NewAppService(pool, items, lots, cog, catalog, summary, covers)

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, cfg.RequestBodyLimit)

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: handler}

	go func() {
		log.Printf("server starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("server stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
