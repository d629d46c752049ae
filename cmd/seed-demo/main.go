// seed-demo is a one-shot tool that loads a small demonstration dataset:
// a handful of catalog records, items spread across the lifecycle, a lot,
// and two cost applications. It wipes the existing warehouse rows first,
// so never point it at a live database.
//
// Usage: go run ./cmd/seed-demo
package main

import (
	"context"
	"log"
	"os"

	"github.com/yurrJC/mercania-wms-sub000/internal/config"
	"github.com/yurrJC/mercania-wms-sub000/internal/db"
	"github.com/yurrJC/mercania-wms-sub000/internal/migrations"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	if err := migrations.Run(ctx, pool); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Clearing existing warehouse data...")
	_, err = tx.Exec(ctx, `
		DELETE FROM cog_record_items;
		DELETE FROM cog_records;
		DELETE FROM item_status_history;
		DELETE FROM items;
		DELETE FROM lots;
		DELETE FROM catalog_records;
	`)
	if err != nil {
		log.Fatalf("Failed to clear warehouse data: %v", err)
	}

	log.Println("Seeding catalog records...")
	_, err = tx.Exec(ctx, `
		INSERT INTO catalog_records (identifier, format, title, creator, publisher, release_year, details)
		VALUES
		  ('9780143105985', 'BOOK', 'Cloudstreet',            'Tim Winton',         'Penguin',          1991, '{"binding": "paperback", "pages": 426}'),
		  ('9780732286194', 'BOOK', 'The Book Thief',         'Markus Zusak',       'Picador',          2005, '{"binding": "paperback", "pages": 584}'),
		  ('9780140449136', 'BOOK', 'Crime and Punishment',   'Fyodor Dostoyevsky', 'Penguin Classics', 2003, '{"binding": "paperback", "pages": 720}'),
		  ('9781760554190', 'BOOK', 'Boy Swallows Universe',  'Trent Dalton',       'HarperCollins',    2018, '{"binding": "hardcover", "pages": 480, "edition": "first edition"}'),
		  ('0602537518357', 'CD',   'Random Access Memories', 'Daft Punk',          'Columbia',         2013, '{"genre": "electronic", "discs": 1}'),
		  ('9399602673868', 'CD',   'Frogstomp',              'Silverchair',        'Murmur',           1995, '{"genre": "rock", "discs": 1}'),
		  ('0724385522925', 'CD',   'OK Computer',            'Radiohead',          'Parlophone',       1997, '{"genre": "alternative", "discs": 1}'),
		  ('9398711184890', 'DVD',  'Mad Max: Fury Road',     'George Miller',      'Roadshow',         2015, '{"rating": "MA15+", "runtime_minutes": 120, "region": "4"}'),
		  ('9321337116105', 'DVD',  'The Castle',             'Rob Sitch',          'Village Roadshow', 1997, '{"rating": "M", "runtime_minutes": 85, "region": "4"}');
	`)
	if err != nil {
		log.Fatalf("Failed to seed catalog records: %v", err)
	}

	log.Println("Seeding items...")
	// Day offsets are relative to now() so the sales charts always have
	// recent data. NULL offsets leave the matching date unset.
	_, err = tx.Exec(ctx, `
		INSERT INTO items (catalog_record_id, condition_grade, condition_notes, status, intake_date, stored_date, listed_date, sold_date, location)
		SELECT c.id, v.grade, v.notes, v.status,
		       now() - v.intake_days * interval '1 day',
		       now() - v.stored_days * interval '1 day',
		       now() - v.listed_days * interval '1 day',
		       now() - v.sold_days * interval '1 day',
		       v.loc
		FROM catalog_records c
		JOIN (VALUES
		    ('9780143105985', 'GOOD',       '',                        'SOLD',      80, 78,   75,   12,   'A3'),
		    ('9780143105985', 'VERY_GOOD',  '',                        'LISTED',    20, 19,   18,   NULL, 'A3'),
		    ('9780732286194', 'GOOD',       'spine creased',           'STORED',    15, 14,   NULL, NULL, 'B1'),
		    ('9780140449136', 'ACCEPTABLE', 'ex-library stamp',        'INTAKE',     2, NULL, NULL, NULL, ''),
		    ('9781760554190', 'LIKE_NEW',   '',                        'LISTED',    25, 24,   21,   NULL, 'B2'),
		    ('0602537518357', 'GOOD',       '',                        'LISTED',    30, 29,   28,   NULL, 'C1'),
		    ('9399602673868', 'GOOD',       'case cracked',            'LISTED',    30, 29,   28,   NULL, 'C1'),
		    ('0724385522925', 'VERY_GOOD',  '',                        'LISTED',    30, 29,   28,   NULL, 'C1'),
		    ('9398711184890', 'GOOD',       '',                        'SOLD',      45, 44,   40,    5,   'D4'),
		    ('9398711184890', 'ACCEPTABLE', 'disc beyond repair',      'DISCARDED', 33, NULL, NULL, NULL, ''),
		    ('9321337116105', 'GOOD',       '',                        'STORED',    10,  9,   NULL, NULL, 'D4')
		) AS v(identifier, grade, notes, status, intake_days, stored_days, listed_days, sold_days, loc)
		  ON c.identifier = v.identifier;
	`)
	if err != nil {
		log.Fatalf("Failed to seed items: %v", err)
	}

	log.Println("Backfilling status history...")
	_, err = tx.Exec(ctx, `
		INSERT INTO item_status_history (item_id, from_status, to_status, note, changed_at)
		SELECT id, 'INTAKE', 'STORED', 'putaway to ' || location, stored_date
		FROM items WHERE stored_date IS NOT NULL;

		INSERT INTO item_status_history (item_id, from_status, to_status, note, changed_at)
		SELECT id, 'STORED', 'LISTED', '', listed_date
		FROM items WHERE listed_date IS NOT NULL;

		INSERT INTO item_status_history (item_id, from_status, to_status, note, changed_at)
		SELECT id, 'LISTED', 'SOLD', '', sold_date
		FROM items WHERE sold_date IS NOT NULL;

		INSERT INTO item_status_history (item_id, from_status, to_status, note, changed_at)
		SELECT id, 'INTAKE', 'DISCARDED', condition_notes, intake_date + interval '1 hour'
		FROM items WHERE status = 'DISCARDED';
	`)
	if err != nil {
		log.Fatalf("Failed to backfill status history: %v", err)
	}

	log.Println("Bundling the listed CDs into a lot...")
	_, err = tx.Exec(ctx, `
		WITH members AS (
		    SELECT i.id FROM items i
		    JOIN catalog_records c ON c.id = i.catalog_record_id
		    WHERE c.format = 'CD' AND i.status = 'LISTED'
		), lot AS (
		    INSERT INTO lots (lot_number)
		    SELECT min(id) FROM members HAVING count(*) > 0
		    RETURNING lot_number
		)
		UPDATE items SET lot_number = lot.lot_number, updated_at = now()
		FROM lot
		WHERE items.id IN (SELECT id FROM members);
	`)
	if err != nil {
		log.Fatalf("Failed to create demo lot: %v", err)
	}

	// Two disjoint cost windows: an older one covering the early intakes
	// and a recent one covering the rest. A flat per-item cost keeps the
	// recorded total equal to the sum of what was distributed.
	applyCost := `
		WITH members AS (
		    SELECT id FROM items
		    WHERE intake_date >= now() - make_interval(days => $1)
		      AND intake_date <  now() - make_interval(days => $2)
		), rec AS (
		    INSERT INTO cog_records (start_date, end_date, total_minor, item_count, average_minor)
		    SELECT (now() - make_interval(days => $1))::date,
		           (now() - make_interval(days => $2))::date,
		           count(*) * $3::bigint,
		           count(*),
		           $3::bigint
		    FROM members
		    HAVING count(*) > 0
		    RETURNING id
		)
		INSERT INTO cog_record_items (cog_record_id, item_id)
		SELECT rec.id, members.id FROM rec CROSS JOIN members;
	`
	setCost := `
		UPDATE items SET cost_minor = $3::bigint, updated_at = now()
		WHERE intake_date >= now() - make_interval(days => $1)
		  AND intake_date <  now() - make_interval(days => $2);
	`

	log.Println("Applying demo cost windows...")
	for _, w := range []struct {
		fromDays, toDays int
		unitMinor        int64
	}{
		{90, 36, 300},
		{35, 0, 250},
	} {
		if _, err := tx.Exec(ctx, applyCost, w.fromDays, w.toDays, w.unitMinor); err != nil {
			log.Fatalf("Failed to record cost window: %v", err)
		}
		if _, err := tx.Exec(ctx, setCost, w.fromDays, w.toDays, w.unitMinor); err != nil {
			log.Fatalf("Failed to distribute cost window: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	var itemCount int64
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM items`).Scan(&itemCount); err != nil {
		log.Fatalf("Failed to count seeded items: %v", err)
	}
	log.Printf("Demo data loaded: %d items seeded.", itemCount)
	os.Exit(0)
}
