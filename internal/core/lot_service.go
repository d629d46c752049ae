package core

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LotRemoval reports the outcome of a member removal. Removed is false
// when the item was no longer a member (idempotent no-op); LotDeleted is
// true when the lot no longer exists after the call — callers must not
// assume a lot persists once they have removed items from it.
type LotRemoval struct {
	Removed    bool `json:"removed"`
	LotDeleted bool `json:"lot_deleted"`
}

// LotService groups items into lots. The lot number is the minimum member
// item id at creation time and never changes. A lot cannot exist empty:
// removing the last member deletes it in the same transaction.
//
// Locking protocol: operations on an existing lot lock the lot row first
// and member item rows second; creation locks its items in ascending id
// order.
type LotService interface {
	// CreateLot groups the given items under min(itemIDs). All items must
	// exist and be lot-free. Returns the lot and its member count.
	CreateLot(ctx context.Context, itemIDs []int64) (*Lot, int, error)
	// AddToLot attaches a lot-free item, returning the member count after
	// the attachment.
	AddToLot(ctx context.Context, lotNumber, itemID int64) (int, error)
	// RemoveFromLot detaches an item. Removing an item that is no longer a
	// member succeeds as a no-op, so two callers racing the same removal
	// both observe success.
	RemoveFromLot(ctx context.Context, lotNumber, itemID int64) (*LotRemoval, error)
	// DeleteLot disbands the lot, clearing every member's reference.
	// Returns the number of items released.
	DeleteLot(ctx context.Context, lotNumber int64) (int, error)
	GetLot(ctx context.Context, lotNumber int64) (*LotDetail, error)
	ListLots(ctx context.Context, page Page) ([]LotSummary, PageInfo, error)
}

type lotService struct {
	pool *pgxpool.Pool
}

func NewLotService(pool *pgxpool.Pool) LotService {
	return &lotService{pool: pool}
}

func sortedUnique(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// lockLot takes the lot row lock. found is false when the lot does not
// exist; callers decide whether that is an error.
func lockLot(ctx context.Context, tx pgx.Tx, lotNumber int64) (found bool, err error) {
	var n int64
	err = tx.QueryRow(ctx,
		`SELECT lot_number FROM lots WHERE lot_number = $1 FOR UPDATE`, lotNumber,
	).Scan(&n)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to lock lot %d: %w", lotNumber, err)
	}
	return true, nil
}

func (s *lotService) CreateLot(ctx context.Context, itemIDs []int64) (*Lot, int, error) {
	ids := sortedUnique(itemIDs)
	if len(ids) == 0 {
		return nil, 0, EmptySelectionf("lot creation requires at least one item")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Ascending id order keeps concurrent creations from deadlocking on
	// overlapping member sets.
	for _, id := range ids {
		item, err := lockItem(ctx, tx, id)
		if err != nil {
			return nil, 0, err
		}
		if item.LotNumber != nil {
			return nil, 0, AlreadyMemberf("item %d already belongs to lot %d", id, *item.LotNumber)
		}
	}

	// The lot number is fixed at creation. A previous lot that kept the
	// number after its minimum member left can still be squatting on it.
	lotNumber := ids[0]
	var lot Lot
	err = tx.QueryRow(ctx, `
		INSERT INTO lots (lot_number) VALUES ($1)
		ON CONFLICT DO NOTHING
		RETURNING lot_number, created_at
	`, lotNumber).Scan(&lot.LotNumber, &lot.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, AlreadyMemberf("cannot create lot %d: a lot with this number already exists", lotNumber)
		}
		return nil, 0, fmt.Errorf("failed to create lot %d: %w", lotNumber, err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE items SET lot_number = $1, updated_at = now() WHERE id = ANY($2)
	`, lotNumber, ids); err != nil {
		return nil, 0, fmt.Errorf("failed to attach lot members: %w", err)
	}

	if err := commitTx(ctx, tx, "lot creation"); err != nil {
		return nil, 0, err
	}
	return &lot, len(ids), nil
}

func (s *lotService) AddToLot(ctx context.Context, lotNumber, itemID int64) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	found, err := lockLot(ctx, tx, lotNumber)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, NotFoundf("lot %d not found", lotNumber)
	}

	item, err := lockItem(ctx, tx, itemID)
	if err != nil {
		return 0, err
	}
	if item.LotNumber != nil {
		return 0, AlreadyMemberf("item %d already belongs to lot %d", itemID, *item.LotNumber)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE items SET lot_number = $1, updated_at = now() WHERE id = $2
	`, lotNumber, itemID); err != nil {
		return 0, fmt.Errorf("failed to attach item %d to lot %d: %w", itemID, lotNumber, err)
	}

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM items WHERE lot_number = $1`, lotNumber,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count lot members: %w", err)
	}

	if err := commitTx(ctx, tx, "lot attachment"); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *lotService) RemoveFromLot(ctx context.Context, lotNumber, itemID int64) (*LotRemoval, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The lot may legitimately be gone already: a racing removal of the
	// last member dissolves it.
	lotExists, err := lockLot(ctx, tx, lotNumber)
	if err != nil {
		return nil, err
	}

	item, err := lockItem(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}

	// Membership is judged against current state, not the state the caller
	// saw when it issued the request.
	if item.LotNumber == nil {
		return &LotRemoval{Removed: false, LotDeleted: !lotExists}, nil
	}
	if *item.LotNumber != lotNumber {
		return nil, NotAMemberf("item %d belongs to lot %d, not lot %d", itemID, *item.LotNumber, lotNumber)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE items SET lot_number = NULL, updated_at = now() WHERE id = $1
	`, itemID); err != nil {
		return nil, fmt.Errorf("failed to detach item %d from lot %d: %w", itemID, lotNumber, err)
	}

	var remaining int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM items WHERE lot_number = $1`, lotNumber,
	).Scan(&remaining); err != nil {
		return nil, fmt.Errorf("failed to count lot members: %w", err)
	}

	removal := &LotRemoval{Removed: true}
	if remaining == 0 {
		// A lot cannot exist empty.
		if _, err := tx.Exec(ctx, `DELETE FROM lots WHERE lot_number = $1`, lotNumber); err != nil {
			return nil, fmt.Errorf("failed to dissolve emptied lot %d: %w", lotNumber, err)
		}
		removal.LotDeleted = true
	}

	if err := commitTx(ctx, tx, "lot removal"); err != nil {
		return nil, err
	}
	return removal, nil
}

func (s *lotService) DeleteLot(ctx context.Context, lotNumber int64) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	found, err := lockLot(ctx, tx, lotNumber)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, NotFoundf("lot %d not found", lotNumber)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE items SET lot_number = NULL, updated_at = now() WHERE lot_number = $1
	`, lotNumber)
	if err != nil {
		return 0, fmt.Errorf("failed to release lot members: %w", err)
	}
	released := int(tag.RowsAffected())

	if _, err := tx.Exec(ctx, `DELETE FROM lots WHERE lot_number = $1`, lotNumber); err != nil {
		return 0, fmt.Errorf("failed to delete lot %d: %w", lotNumber, err)
	}

	if err := commitTx(ctx, tx, "lot deletion"); err != nil {
		return 0, err
	}
	return released, nil
}

func (s *lotService) GetLot(ctx context.Context, lotNumber int64) (*LotDetail, error) {
	var lot Lot
	err := s.pool.QueryRow(ctx,
		`SELECT lot_number, created_at FROM lots WHERE lot_number = $1`, lotNumber,
	).Scan(&lot.LotNumber, &lot.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("lot %d not found", lotNumber)
		}
		return nil, fmt.Errorf("failed to fetch lot %d: %w", lotNumber, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT i.id, c.title, i.status, i.location
		FROM items i
		JOIN catalog_records c ON c.id = i.catalog_record_id
		WHERE i.lot_number = $1
		ORDER BY i.id
	`, lotNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to query lot members: %w", err)
	}
	defer rows.Close()

	detail := &LotDetail{Lot: lot}
	for rows.Next() {
		var m LotMember
		if err := rows.Scan(&m.ItemID, &m.Title, &m.Status, &m.Location); err != nil {
			return nil, fmt.Errorf("failed to scan lot member: %w", err)
		}
		detail.Members = append(detail.Members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lot members: %w", err)
	}
	return detail, nil
}

func (s *lotService) ListLots(ctx context.Context, page Page) ([]LotSummary, PageInfo, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lots`).Scan(&total); err != nil {
		return nil, PageInfo{}, fmt.Errorf("failed to count lots: %w", err)
	}

	limit, offset := page.LimitOffset()
	rows, err := s.pool.Query(ctx, `
		SELECT l.lot_number, l.created_at, COUNT(i.id),
		       (array_remove(array_agg(c.title ORDER BY i.id), NULL))[1:3]
		FROM lots l
		LEFT JOIN items i ON i.lot_number = l.lot_number
		LEFT JOIN catalog_records c ON c.id = i.catalog_record_id
		GROUP BY l.lot_number, l.created_at
		ORDER BY l.lot_number
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, PageInfo{}, fmt.Errorf("failed to query lots: %w", err)
	}
	defer rows.Close()

	var lots []LotSummary
	for rows.Next() {
		var s LotSummary
		if err := rows.Scan(&s.LotNumber, &s.CreatedAt, &s.ItemCount, &s.SampleTitles); err != nil {
			return nil, PageInfo{}, fmt.Errorf("failed to scan lot summary: %w", err)
		}
		lots = append(lots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, PageInfo{}, fmt.Errorf("error iterating lots: %w", err)
	}
	return lots, NewPageInfo(page, total), nil
}
