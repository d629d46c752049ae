package main

import (
	"context"
	"log"
	"os"

	"github.com/yurrJC/mercania-wms-sub000/internal/adapters/cli"
	"github.com/yurrJC/mercania-wms-sub000/internal/app"
	"github.com/yurrJC/mercania-wms-sub000/internal/blob"
	"github.com/yurrJC/mercania-wms-sub000/internal/config"
	"github.com/yurrJC/mercania-wms-sub000/internal/core"
	"github.com/yurrJC/mercania-wms-sub000/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

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
		log.Fatalf("Unable to open blob store: %v", err)
	}

	catalog := core.NewCatalogService(pool)
	items := core.NewItemService(pool, catalog, cfg.WarehouseTZ)
	lots := core.NewLotService(pool)
	cog := core.NewCOGService(pool, cfg.WarehouseTZ)
	summary := core.NewSummaryService(pool, cfg.WarehouseTZ, cfg.FYStartMonth)

	svc := app.NewAppService(pool, items, lots, cog, catalog, summary, covers)

	cli.Run(ctx, svc, os.Args[1:])
}
