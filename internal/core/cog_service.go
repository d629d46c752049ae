package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// COGService spreads a purchase total across every item received in a date
// window and keeps a ledger of those applications. Deleting a ledger record
// reverses it against the exact snapshot of items it touched, not against
// whatever the window matches later.
type COGService interface {
	// Apply sets cost_minor on every item whose intake falls inside
	// [startDate, endDate] (warehouse-local, inclusive) to the rounded
	// per-item share of totalMinor. Re-applying an overlapping window
	// overwrites costs; the last application wins.
	Apply(ctx context.Context, startDate, endDate string, totalMinor int64) (*COGRecord, error)
	// DeleteRecord reverses an application, zeroing the cost of each item
	// in its snapshot. Returns the number of items reset.
	DeleteRecord(ctx context.Context, recordID int64) (int, error)
	ListRecords(ctx context.Context, page Page) ([]COGRecord, PageInfo, error)
}

type cogService struct {
	pool *pgxpool.Pool
	tz   *time.Location
}

func NewCOGService(pool *pgxpool.Pool, tz *time.Location) COGService {
	if tz == nil {
		tz = time.UTC
	}
	return &cogService{pool: pool, tz: tz}
}

// perItemShare is the equal per-item cost in minor units, rounded half away
// from zero.
func perItemShare(totalMinor int64, count int) int64 {
	return decimal.NewFromInt(totalMinor).
		Div(decimal.NewFromInt(int64(count))).
		Round(0).
		IntPart()
}

func (s *cogService) Apply(ctx context.Context, startDate, endDate string, totalMinor int64) (*COGRecord, error) {
	start, err := parseDate(startDate, s.tz)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(endDate, s.tz)
	if err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, InvalidRangef("start date %s is after end date %s", startDate, endDate)
	}
	if totalMinor <= 0 {
		return nil, InvalidRangef("total spend must be positive")
	}
	endExclusive := end.AddDate(0, 0, 1)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the window's items in id order so overlapping applications
	// serialize instead of interleaving.
	rows, err := tx.Query(ctx, `
		SELECT id FROM items
		WHERE intake_date >= $1 AND intake_date < $2
		ORDER BY id
		FOR UPDATE
	`, start, endExclusive)
	if err != nil {
		return nil, fmt.Errorf("failed to select items for costing: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating costing window: %w", err)
	}
	if len(ids) == 0 {
		return nil, EmptySelectionf("no items received between %s and %s", startDate, endDate)
	}

	// The ledger keeps the entered total; item costs absorb the rounding
	// drift.
	average := perItemShare(totalMinor, len(ids))

	if _, err := tx.Exec(ctx, `
		UPDATE items SET cost_minor = $1, updated_at = now() WHERE id = ANY($2)
	`, average, ids); err != nil {
		return nil, fmt.Errorf("failed to apply item costs: %w", err)
	}

	record := &COGRecord{
		StartDate:    startDate,
		EndDate:      endDate,
		TotalMinor:   totalMinor,
		ItemCount:    len(ids),
		AverageMinor: average,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO cog_records (start_date, end_date, total_minor, item_count, average_minor)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, applied_at
	`, startDate, endDate, totalMinor, len(ids), average).Scan(&record.ID, &record.AppliedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert cost record: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO cog_record_items (cog_record_id, item_id)
		SELECT $1, unnest($2::bigint[])
	`, record.ID, ids); err != nil {
		return nil, fmt.Errorf("failed to snapshot costed items: %w", err)
	}

	if err := commitTx(ctx, tx, "cost application"); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *cogService) DeleteRecord(ctx context.Context, recordID int64) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM cog_records WHERE id = $1 FOR UPDATE`, recordID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, NotFoundf("cost record %d not found", recordID)
		}
		return 0, fmt.Errorf("failed to lock cost record %d: %w", recordID, err)
	}

	// Snapshot members that have since been removed from inventory are
	// already gone from the join; only live items get reset.
	rows, err := tx.Query(ctx, `
		SELECT i.id
		FROM items i
		JOIN cog_record_items s ON s.item_id = i.id
		WHERE s.cog_record_id = $1
		ORDER BY i.id
		FOR UPDATE OF i
	`, recordID)
	if err != nil {
		return 0, fmt.Errorf("failed to select snapshot items: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var itemID int64
		if err := rows.Scan(&itemID); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan snapshot item id: %w", err)
		}
		ids = append(ids, itemID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating snapshot items: %w", err)
	}

	if len(ids) > 0 {
		if _, err := tx.Exec(ctx, `
			UPDATE items SET cost_minor = 0, updated_at = now() WHERE id = ANY($1)
		`, ids); err != nil {
			return 0, fmt.Errorf("failed to reset item costs: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cog_records WHERE id = $1`, recordID); err != nil {
		return 0, fmt.Errorf("failed to delete cost record %d: %w", recordID, err)
	}

	if err := commitTx(ctx, tx, "cost record deletion"); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *cogService) ListRecords(ctx context.Context, page Page) ([]COGRecord, PageInfo, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cog_records`).Scan(&total); err != nil {
		return nil, PageInfo{}, fmt.Errorf("failed to count cost records: %w", err)
	}

	limit, offset := page.LimitOffset()
	rows, err := s.pool.Query(ctx, `
		SELECT id, start_date, end_date, total_minor, item_count, average_minor, applied_at
		FROM cog_records
		ORDER BY applied_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, PageInfo{}, fmt.Errorf("failed to query cost records: %w", err)
	}
	defer rows.Close()

	var records []COGRecord
	for rows.Next() {
		var (
			r          COGRecord
			start, end time.Time
		)
		if err := rows.Scan(&r.ID, &start, &end, &r.TotalMinor, &r.ItemCount, &r.AverageMinor, &r.AppliedAt); err != nil {
			return nil, PageInfo{}, fmt.Errorf("failed to scan cost record: %w", err)
		}
		r.StartDate = start.Format("2006-01-02")
		r.EndDate = end.Format("2006-01-02")
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, PageInfo{}, fmt.Errorf("error iterating cost records: %w", err)
	}
	return records, NewPageInfo(page, total), nil
}
