package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IntakeParams describes one physical unit arriving at the warehouse.
// CatalogID is the product identifier (ISBN/UPC); it may be empty for
// catalog-less manual entries. Catalog descriptors are required the first
// time an identifier is seen and ignored afterwards.
type IntakeParams struct {
	CatalogID      string
	ConditionGrade string
	ConditionNotes string
	CostMinor      int64
	FormatMetadata json.RawMessage
	Catalog        *CatalogFields
}

// IntakeReceipt is the outcome of an intake: the created item plus the
// duplicate sentinel's advisory report (nil when no info was available).
type IntakeReceipt struct {
	Item      *Item
	SKU       string
	Duplicate *DuplicateInfo
}

// BulkFailure is one failed entry of a best-effort batch operation.
type BulkFailure struct {
	ItemID int64     `json:"item_id"`
	Code   ErrorKind `json:"code,omitempty"`
	Error  string    `json:"error"`
}

// BulkLocationResult reports a best-effort bulk putaway.
type BulkLocationResult struct {
	UpdatedCount int           `json:"updated_count"`
	Failures     []BulkFailure `json:"failures,omitempty"`
}

// BulkDatesResult reports a best-effort bulk date update. StatusChanges
// counts the items whose status actually advanced, as opposed to a pure
// date correction on an already-listed item.
type BulkDatesResult struct {
	ItemsUpdated  int           `json:"items_updated"`
	StatusChanges int           `json:"status_changes"`
	Failures      []BulkFailure `json:"failures,omitempty"`
}

// ItemService owns the per-unit inventory records and the status state
// machine. Every mutating method is a single transaction; batch methods
// are best-effort loops over the single-item operations.
type ItemService interface {
	// Intake creates the item (status INTAKE, no location) and, for
	// non-empty identifiers, attaches the duplicate sentinel's report.
	Intake(ctx context.Context, params IntakeParams) (*IntakeReceipt, error)
	Get(ctx context.Context, itemID int64) (*ItemDetail, error)
	History(ctx context.Context, itemID int64) ([]StatusChange, error)
	List(ctx context.Context, filter ItemFilter, page Page) ([]ItemDetail, PageInfo, error)

	// AssignLocation is the putaway operation: it sets the location and,
	// for an INTAKE item, advances it to STORED as a side effect.
	AssignLocation(ctx context.Context, itemID int64, location string) (*Item, error)
	BulkAssignLocation(ctx context.Context, itemIDs []int64, location string) (*BulkLocationResult, error)

	// MarkListed stamps the listed date, advancing STORED→LISTED; on an
	// already-listed item it only corrects the date. The bool reports
	// whether the status actually changed.
	MarkListed(ctx context.Context, itemID int64, date string) (*Item, bool, error)
	// MarkSold stamps the sold date and advances LISTED→SOLD.
	MarkSold(ctx context.Context, itemID int64, date string) (*Item, bool, error)
	BulkUpdateDates(ctx context.Context, itemIDs []int64, dateType, date string) (*BulkDatesResult, error)

	// UpdateStatus performs a general transition on the status machine;
	// it is the route to RETURNED and DISCARDED. Re-applying the current
	// status is a no-op.
	UpdateStatus(ctx context.Context, itemID int64, to Status) (*Item, error)

	// Remove is the administrative deletion: it detaches the item from
	// any lot (dissolving a lot it leaves empty) and deletes the row.
	Remove(ctx context.Context, itemID int64) error
}

type itemService struct {
	pool    *pgxpool.Pool
	catalog CatalogService
	tz      *time.Location
}

func NewItemService(pool *pgxpool.Pool, catalog CatalogService, tz *time.Location) ItemService {
	if tz == nil {
		tz = time.UTC
	}
	return &itemService{pool: pool, catalog: catalog, tz: tz}
}

const itemColumns = `id, catalog_record_id, condition_grade, condition_notes, format_metadata, status, intake_date, stored_date, listed_date, sold_date, cost_minor, location, lot_number, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	if err := row.Scan(
		&it.ID, &it.CatalogRecordID, &it.ConditionGrade, &it.ConditionNotes,
		&it.FormatMetadata, &it.Status, &it.IntakeDate, &it.StoredDate,
		&it.ListedDate, &it.SoldDate, &it.CostMinor, &it.Location,
		&it.LotNumber, &it.CreatedAt, &it.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &it, nil
}

// lockItem fetches an item inside the caller's transaction with a row lock,
// mapping a missing row to NotFound.
func lockItem(ctx context.Context, tx pgx.Tx, itemID int64) (*Item, error) {
	item, err := scanItem(tx.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("item %d not found", itemID)
		}
		return nil, fmt.Errorf("failed to lock item %d: %w", itemID, err)
	}
	return item, nil
}

func insertStatusChange(ctx context.Context, tx pgx.Tx, itemID int64, from, to Status, note string) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO item_status_history (item_id, from_status, to_status, note)
		VALUES ($1, $2, $3, $4)
	`, itemID, from, to, note); err != nil {
		return fmt.Errorf("failed to record status change for item %d: %w", itemID, err)
	}
	return nil
}

// parseDate parses an ISO calendar date in the warehouse timezone.
func parseDate(value string, tz *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(value), tz)
	if err != nil {
		return time.Time{}, Validationf("invalid date %q, want YYYY-MM-DD", value)
	}
	return t, nil
}

func bulkFailure(itemID int64, err error) BulkFailure {
	f := BulkFailure{ItemID: itemID, Error: err.Error()}
	if kind, ok := KindOf(err); ok {
		f.Code = kind
	}
	return f
}

// ── Intake ────────────────────────────────────────────────────────────────────

func (s *itemService) Intake(ctx context.Context, params IntakeParams) (*IntakeReceipt, error) {
	if params.CostMinor < 0 {
		return nil, Validationf("cost must not be negative, got %d", params.CostMinor)
	}
	identifier := strings.TrimSpace(params.CatalogID)

	// The sentinel runs before the transaction so its failure can never
	// poison the intake: the report degrades to "no information".
	var dup *DuplicateInfo
	if identifier != "" {
		existing, err := s.catalog.DuplicatesFor(ctx, identifier)
		if err != nil {
			log.Printf("duplicate check failed for identifier %s: %v", identifier, err)
		} else {
			dup = &DuplicateInfo{IsDuplicate: len(existing) > 0, Existing: existing}
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	recordID, format, err := s.catalog.EnsureRecordTx(ctx, tx, identifier, params.Catalog)
	if err != nil {
		return nil, err
	}
	if err := ValidateDetails(format, params.FormatMetadata); err != nil {
		return nil, err
	}

	item, err := scanItem(tx.QueryRow(ctx, `
		INSERT INTO items (catalog_record_id, condition_grade, condition_notes, format_metadata, cost_minor)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+itemColumns,
		recordID, params.ConditionGrade, params.ConditionNotes, params.FormatMetadata, params.CostMinor))
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	if err := commitTx(ctx, tx, "intake"); err != nil {
		return nil, err
	}
	return &IntakeReceipt{Item: item, SKU: item.SKU(), Duplicate: dup}, nil
}

// ── Read side ─────────────────────────────────────────────────────────────────

const itemDetailQuery = `
	SELECT i.id, i.catalog_record_id, i.condition_grade, i.condition_notes,
	       i.format_metadata, i.status, i.intake_date, i.stored_date,
	       i.listed_date, i.sold_date, i.cost_minor, i.location,
	       i.lot_number, i.created_at, i.updated_at,
	       c.title, c.creator, c.format, c.identifier
	FROM items i
	JOIN catalog_records c ON c.id = i.catalog_record_id`

func scanItemDetail(row pgx.Row) (*ItemDetail, error) {
	var d ItemDetail
	if err := row.Scan(
		&d.ID, &d.CatalogRecordID, &d.ConditionGrade, &d.ConditionNotes,
		&d.FormatMetadata, &d.Status, &d.IntakeDate, &d.StoredDate,
		&d.ListedDate, &d.SoldDate, &d.CostMinor, &d.Location,
		&d.LotNumber, &d.CreatedAt, &d.UpdatedAt,
		&d.Title, &d.Creator, &d.Format, &d.Identifier,
	); err != nil {
		return nil, err
	}
	d.SKULabel = d.Item.SKU()
	return &d, nil
}

func (s *itemService) Get(ctx context.Context, itemID int64) (*ItemDetail, error) {
	detail, err := scanItemDetail(s.pool.QueryRow(ctx, itemDetailQuery+` WHERE i.id = $1`, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("item %d not found", itemID)
		}
		return nil, fmt.Errorf("failed to fetch item %d: %w", itemID, err)
	}
	return detail, nil
}

func (s *itemService) History(ctx context.Context, itemID int64) ([]StatusChange, error) {
	var exists int
	if err := s.pool.QueryRow(ctx, `SELECT 1 FROM items WHERE id = $1`, itemID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("item %d not found", itemID)
		}
		return nil, fmt.Errorf("failed to fetch item %d: %w", itemID, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, item_id, from_status, to_status, note, changed_at
		FROM item_status_history
		WHERE item_id = $1
		ORDER BY changed_at DESC, id DESC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var changes []StatusChange
	for rows.Next() {
		var c StatusChange
		if err := rows.Scan(&c.ID, &c.ItemID, &c.From, &c.To, &c.Note, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status change: %w", err)
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status history: %w", err)
	}
	return changes, nil
}

func itemFilterSQL(f ItemFilter) (string, []any) {
	clause := ""
	var args []any
	if f.Status != nil {
		args = append(args, *f.Status)
		clause += fmt.Sprintf(" AND i.status = $%d", len(args))
	}
	if f.Location != nil {
		args = append(args, *f.Location)
		clause += fmt.Sprintf(" AND i.location = $%d", len(args))
	}
	if f.LotNumber != nil {
		args = append(args, *f.LotNumber)
		clause += fmt.Sprintf(" AND i.lot_number = $%d", len(args))
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		clause += fmt.Sprintf(" AND (c.title ILIKE $%d OR c.creator ILIKE $%d OR c.identifier ILIKE $%d)", n, n, n)
	}
	return clause, args
}

func (s *itemService) List(ctx context.Context, filter ItemFilter, page Page) ([]ItemDetail, PageInfo, error) {
	clause, args := itemFilterSQL(filter)

	var total int64
	if err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM items i
		JOIN catalog_records c ON c.id = i.catalog_record_id
		WHERE 1=1`+clause, args...,
	).Scan(&total); err != nil {
		return nil, PageInfo{}, fmt.Errorf("failed to count items: %w", err)
	}

	limit, offset := page.LimitOffset()
	args = append(args, limit, offset)
	rows, err := s.pool.Query(ctx,
		itemDetailQuery+` WHERE 1=1`+clause+
			fmt.Sprintf(` ORDER BY i.id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, PageInfo{}, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var details []ItemDetail
	for rows.Next() {
		d, err := scanItemDetail(rows)
		if err != nil {
			return nil, PageInfo{}, fmt.Errorf("failed to scan item: %w", err)
		}
		details = append(details, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, PageInfo{}, fmt.Errorf("error iterating items: %w", err)
	}
	return details, NewPageInfo(page, total), nil
}

// ── Putaway ───────────────────────────────────────────────────────────────────

func (s *itemService) AssignLocation(ctx context.Context, itemID int64, location string) (*Item, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, Validationf("location must not be empty")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	item, err := lockItem(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status.Terminal() {
		return nil, InvalidTransitionf("cannot assign a location to a %s item", item.Status)
	}

	if item.Status == StatusIntake {
		// First putaway implies the item has been shelved.
		updated, err := scanItem(tx.QueryRow(ctx, `
			UPDATE items
			SET location = $2, status = $3, stored_date = COALESCE(stored_date, now()), updated_at = now()
			WHERE id = $1
			RETURNING `+itemColumns, itemID, location, StatusStored))
		if err != nil {
			return nil, fmt.Errorf("failed to put away item %d: %w", itemID, err)
		}
		if err := insertStatusChange(ctx, tx, itemID, StatusIntake, StatusStored, "putaway to "+location); err != nil {
			return nil, err
		}
		item = updated
	} else {
		updated, err := scanItem(tx.QueryRow(ctx, `
			UPDATE items SET location = $2, updated_at = now()
			WHERE id = $1
			RETURNING `+itemColumns, itemID, location))
		if err != nil {
			return nil, fmt.Errorf("failed to relocate item %d: %w", itemID, err)
		}
		item = updated
	}

	if err := commitTx(ctx, tx, "location assignment"); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *itemService) BulkAssignLocation(ctx context.Context, itemIDs []int64, location string) (*BulkLocationResult, error) {
	if strings.TrimSpace(location) == "" {
		return nil, Validationf("location must not be empty")
	}
	result := &BulkLocationResult{}
	for _, id := range itemIDs {
		if _, err := s.AssignLocation(ctx, id, location); err != nil {
			result.Failures = append(result.Failures, bulkFailure(id, err))
			continue
		}
		result.UpdatedCount++
	}
	return result, nil
}

// ── Listing and selling ───────────────────────────────────────────────────────

func (s *itemService) MarkListed(ctx context.Context, itemID int64, date string) (*Item, bool, error) {
	when, err := parseDate(date, s.tz)
	if err != nil {
		return nil, false, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	item, err := lockItem(ctx, tx, itemID)
	if err != nil {
		return nil, false, err
	}

	statusChanged := false
	switch {
	case item.Status == StatusListed:
		// Date correction on an item that is already listed.
		updated, err := scanItem(tx.QueryRow(ctx, `
			UPDATE items SET listed_date = $2, updated_at = now()
			WHERE id = $1
			RETURNING `+itemColumns, itemID, when))
		if err != nil {
			return nil, false, fmt.Errorf("failed to update listed date for item %d: %w", itemID, err)
		}
		item = updated
	case CanTransition(item.Status, StatusListed):
		updated, err := scanItem(tx.QueryRow(ctx, `
			UPDATE items SET status = $3, listed_date = $2, updated_at = now()
			WHERE id = $1
			RETURNING `+itemColumns, itemID, when, StatusListed))
		if err != nil {
			return nil, false, fmt.Errorf("failed to mark item %d listed: %w", itemID, err)
		}
		if err := insertStatusChange(ctx, tx, itemID, item.Status, StatusListed, ""); err != nil {
			return nil, false, err
		}
		item = updated
		statusChanged = true
	default:
		return nil, false, InvalidTransitionf("cannot mark item %d listed while %s", itemID, item.Status)
	}

	if err := commitTx(ctx, tx, "listing"); err != nil {
		return nil, false, err
	}
	return item, statusChanged, nil
}

func (s *itemService) MarkSold(ctx context.Context, itemID int64, date string) (*Item, bool, error) {
	when, err := parseDate(date, s.tz)
	if err != nil {
		return nil, false, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	item, err := lockItem(ctx, tx, itemID)
	if err != nil {
		return nil, false, err
	}
	if !CanTransition(item.Status, StatusSold) {
		return nil, false, InvalidTransitionf("cannot mark item %d sold while %s", itemID, item.Status)
	}

	updated, err := scanItem(tx.QueryRow(ctx, `
		UPDATE items SET status = $3, sold_date = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+itemColumns, itemID, when, StatusSold))
	if err != nil {
		return nil, false, fmt.Errorf("failed to mark item %d sold: %w", itemID, err)
	}
	if err := insertStatusChange(ctx, tx, itemID, item.Status, StatusSold, ""); err != nil {
		return nil, false, err
	}

	if err := commitTx(ctx, tx, "sale"); err != nil {
		return nil, false, err
	}
	return updated, true, nil
}

func (s *itemService) BulkUpdateDates(ctx context.Context, itemIDs []int64, dateType, date string) (*BulkDatesResult, error) {
	if dateType != "listed" && dateType != "sold" {
		return nil, Validationf(`date type must be "listed" or "sold", got %q`, dateType)
	}
	if _, err := parseDate(date, s.tz); err != nil {
		return nil, err
	}

	// Best-effort batch: each item independently, failures collected.
	result := &BulkDatesResult{}
	for _, id := range itemIDs {
		var changed bool
		var err error
		if dateType == "listed" {
			_, changed, err = s.MarkListed(ctx, id, date)
		} else {
			_, changed, err = s.MarkSold(ctx, id, date)
		}
		if err != nil {
			result.Failures = append(result.Failures, bulkFailure(id, err))
			continue
		}
		result.ItemsUpdated++
		if changed {
			result.StatusChanges++
		}
	}
	return result, nil
}

// ── General status moves ──────────────────────────────────────────────────────

func (s *itemService) UpdateStatus(ctx context.Context, itemID int64, to Status) (*Item, error) {
	if !to.Valid() {
		return nil, Validationf("unknown status %q", to)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	item, err := lockItem(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status == to {
		// Re-applying the current status is a no-op so retried requests
		// reconcile cleanly.
		return item, nil
	}
	if !CanTransition(item.Status, to) {
		return nil, InvalidTransitionf("cannot move item %d from %s to %s", itemID, item.Status, to)
	}

	stamp := ""
	switch to {
	case StatusStored:
		stamp = ", stored_date = COALESCE(stored_date, now())"
	case StatusListed:
		stamp = ", listed_date = COALESCE(listed_date, now())"
	case StatusSold:
		stamp = ", sold_date = COALESCE(sold_date, now())"
	}

	updated, err := scanItem(tx.QueryRow(ctx, `
		UPDATE items SET status = $2, updated_at = now()`+stamp+`
		WHERE id = $1
		RETURNING `+itemColumns, itemID, to))
	if err != nil {
		return nil, fmt.Errorf("failed to update status of item %d: %w", itemID, err)
	}
	if err := insertStatusChange(ctx, tx, itemID, item.Status, to, ""); err != nil {
		return nil, err
	}

	if err := commitTx(ctx, tx, "status update"); err != nil {
		return nil, err
	}
	return updated, nil
}

// ── Administrative removal ────────────────────────────────────────────────────

func (s *itemService) Remove(ctx context.Context, itemID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Peek at lot membership first so locks are taken lot-before-item, the
	// same order the lot operations use.
	var lotNumber *int64
	if err := tx.QueryRow(ctx, `SELECT lot_number FROM items WHERE id = $1`, itemID).Scan(&lotNumber); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return NotFoundf("item %d not found", itemID)
		}
		return fmt.Errorf("failed to fetch item %d: %w", itemID, err)
	}
	if lotNumber != nil {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT lot_number FROM lots WHERE lot_number = $1 FOR UPDATE`, *lotNumber).Scan(&locked)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to lock lot %d: %w", *lotNumber, err)
		}
	}

	item, err := lockItem(ctx, tx, itemID)
	if err != nil {
		return err
	}
	if !lotRefEqual(item.LotNumber, lotNumber) {
		return ConcurrentModificationf("item %d changed lots during removal, retry", itemID)
	}

	if item.LotNumber != nil {
		var remaining int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM items WHERE lot_number = $1 AND id <> $2`,
			*item.LotNumber, itemID,
		).Scan(&remaining); err != nil {
			return fmt.Errorf("failed to count lot members: %w", err)
		}

		// History and ledger snapshot rows cascade with the item.
		if _, err := tx.Exec(ctx, `DELETE FROM items WHERE id = $1`, itemID); err != nil {
			return fmt.Errorf("failed to delete item %d: %w", itemID, err)
		}
		if remaining == 0 {
			if _, err := tx.Exec(ctx, `DELETE FROM lots WHERE lot_number = $1`, *item.LotNumber); err != nil {
				return fmt.Errorf("failed to dissolve emptied lot %d: %w", *item.LotNumber, err)
			}
		}
	} else {
		if _, err := tx.Exec(ctx, `DELETE FROM items WHERE id = $1`, itemID); err != nil {
			return fmt.Errorf("failed to delete item %d: %w", itemID, err)
		}
	}

	return commitTx(ctx, tx, "item removal")
}

func lotRefEqual(a, b *int64) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}
