package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration values.
type Config struct {
	DatabaseDSN      string
	HTTPPort         string
	RequestBodyLimit int64

	// FYStartMonth is the first month of the financial year used by the
	// sales reports (7 = July).
	FYStartMonth time.Month

	// WarehouseTZ is the timezone in which date-only boundaries (COG
	// windows, sales day/month buckets) are interpreted.
	WarehouseTZ *time.Location

	BlobDriver      string
	BlobFSDir       string
	BlobS3Bucket    string
	BlobS3Region    string
	BlobS3Endpoint  string
	BlobS3AccessKey string
	BlobS3SecretKey string
	BlobS3PathStyle bool
}

// Load reads configuration from environment variables with reasonable
// defaults. Callers are expected to have loaded any .env file first.
func Load() Config {
	cfg := Config{
		HTTPPort:         envOr("HTTP_PORT", "8080"),
		RequestBodyLimit: envInt64("REQUEST_BODY_LIMIT", 1<<20),
		FYStartMonth:     time.Month(envInt("FY_START_MONTH", 7)),
		BlobDriver:       envOr("BLOB_DRIVER", "fs"),
		BlobFSDir:        envOr("BLOB_FS_DIR", "./data/covers"),
		BlobS3Bucket:     os.Getenv("BLOB_S3_BUCKET"),
		BlobS3Region:     os.Getenv("BLOB_S3_REGION"),
		BlobS3Endpoint:   os.Getenv("BLOB_S3_ENDPOINT"),
		BlobS3AccessKey:  os.Getenv("BLOB_S3_ACCESS_KEY"),
		BlobS3SecretKey:  os.Getenv("BLOB_S3_SECRET_KEY"),
		BlobS3PathStyle:  envBool("BLOB_S3_PATH_STYLE", false),
	}

	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", cfg.HTTPPort)
		cfg.HTTPPort = "8080"
	}
	if cfg.FYStartMonth < time.January || cfg.FYStartMonth > time.December {
		log.Printf("invalid FY_START_MONTH value %d, defaulting to July", cfg.FYStartMonth)
		cfg.FYStartMonth = time.July
	}

	cfg.WarehouseTZ = time.UTC
	if name := os.Getenv("WAREHOUSE_TZ"); name != "" {
		loc, err := time.LoadLocation(name)
		if err != nil {
			log.Printf("invalid WAREHOUSE_TZ value %q, defaulting to UTC", name)
		} else {
			cfg.WarehouseTZ = loc
		}
	}

	cfg.DatabaseDSN = os.Getenv("DATABASE_URL")
	if cfg.DatabaseDSN == "" {
		host := envOr("PGHOST", "localhost")
		port := envOr("PGPORT", "5432")
		user := envOr("PGUSER", "postgres")
		password := os.Getenv("PGPASSWORD")
		name := envOr("PGDATABASE", "mercania")
		cfg.DatabaseDSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s value %q, defaulting to %d", key, v, fallback)
		return fallback
	}
	return n
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("invalid %s value %q, defaulting to %d", key, v, fallback)
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("invalid %s value %q, defaulting to %t", key, v, fallback)
		return fallback
	}
	return b
}
