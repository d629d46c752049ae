package migrations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema holds the ordered, idempotent DDL for the warehouse database.
// Statements run in order so tables exist before anything references them.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS catalog_records (
        id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
        identifier TEXT NOT NULL DEFAULT '',
        format TEXT NOT NULL,
        title TEXT NOT NULL,
        creator TEXT NOT NULL DEFAULT '',
        publisher TEXT NOT NULL DEFAULT '',
        release_year INT,
        details JSONB NOT NULL DEFAULT '{}'::jsonb,
        cover_key TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );`,
	// One catalog record per real-world identifier. Catalog-less manual
	// entries share identifier '' and are exempt.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_catalog_records_identifier
        ON catalog_records (identifier) WHERE identifier <> '';`,
	`CREATE TABLE IF NOT EXISTS lots (
        lot_number BIGINT PRIMARY KEY,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );`,
	`CREATE TABLE IF NOT EXISTS items (
        id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
        catalog_record_id BIGINT NOT NULL REFERENCES catalog_records(id),
        condition_grade TEXT NOT NULL DEFAULT '',
        condition_notes TEXT NOT NULL DEFAULT '',
        format_metadata JSONB,
        status TEXT NOT NULL DEFAULT 'INTAKE',
        intake_date TIMESTAMPTZ NOT NULL DEFAULT now(),
        stored_date TIMESTAMPTZ,
        listed_date TIMESTAMPTZ,
        sold_date TIMESTAMPTZ,
        cost_minor BIGINT NOT NULL DEFAULT 0,
        location TEXT NOT NULL DEFAULT '',
        lot_number BIGINT REFERENCES lots(lot_number),
        created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );`,
	`CREATE INDEX IF NOT EXISTS idx_items_catalog_record ON items (catalog_record_id);`,
	`CREATE INDEX IF NOT EXISTS idx_items_status ON items (status);`,
	`CREATE INDEX IF NOT EXISTS idx_items_intake_date ON items (intake_date);`,
	`CREATE INDEX IF NOT EXISTS idx_items_sold_date ON items (sold_date) WHERE sold_date IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_items_lot_number ON items (lot_number) WHERE lot_number IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS item_status_history (
        id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
        item_id BIGINT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
        from_status TEXT NOT NULL,
        to_status TEXT NOT NULL,
        note TEXT NOT NULL DEFAULT '',
        changed_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );`,
	`CREATE INDEX IF NOT EXISTS idx_item_status_history_item ON item_status_history (item_id);`,
	`CREATE TABLE IF NOT EXISTS cog_records (
        id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
        start_date DATE NOT NULL,
        end_date DATE NOT NULL,
        total_minor BIGINT NOT NULL,
        item_count INT NOT NULL,
        average_minor BIGINT NOT NULL,
        applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );`,
	// Snapshot of the items a COG application touched, so deletion can
	// reverse exactly that set.
	`CREATE TABLE IF NOT EXISTS cog_record_items (
        cog_record_id BIGINT NOT NULL REFERENCES cog_records(id) ON DELETE CASCADE,
        item_id BIGINT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
        PRIMARY KEY (cog_record_id, item_id)
    );`,
}

// Run applies the warehouse schema. Every statement is idempotent, so Run
// is safe to call on every boot.
func Run(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Tables lists the table names Run creates, in creation order. Used by the
// migrate tool to verify the schema after applying it.
func Tables() []string {
	return []string{
		"catalog_records",
		"lots",
		"items",
		"item_status_history",
		"cog_records",
		"cog_record_items",
	}
}
