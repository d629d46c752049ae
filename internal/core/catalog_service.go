package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogFields carries the descriptive fields for a catalog record,
// supplied by the dashboard's lookup glue or typed in manually at intake.
type CatalogFields struct {
	Title       string          `json:"title"`
	Creator     string          `json:"creator"`
	Publisher   string          `json:"publisher"`
	ReleaseYear *int            `json:"release_year"`
	Format      MediaFormat     `json:"format"`
	Details     json.RawMessage `json:"details"`
}

// CatalogService owns the shared product metadata and the duplicate
// sentinel. Records are created on first intake of an identifier and are
// never deleted while items reference them — no delete is exposed at all.
type CatalogService interface {
	Get(ctx context.Context, id int64) (*CatalogRecord, error)
	Search(ctx context.Context, query string, format *MediaFormat, page Page) ([]CatalogRecord, PageInfo, error)
	// DuplicatesFor reports the existing items sharing a catalog
	// identifier, newest intake first. Advisory only: callers must treat a
	// failure as "no duplicate information", never as a reason to block.
	DuplicatesFor(ctx context.Context, identifier string) ([]ExistingCopy, error)
	// SetCover records the blob key of the record's cover image.
	SetCover(ctx context.Context, id int64, coverKey string) (*CatalogRecord, error)

	// EnsureRecordTx resolves an identifier to a record id inside the
	// caller's transaction, creating the record from fields on first
	// sight. Catalog-less intakes (empty identifier) always create a fresh
	// record. Returns the record id and its format.
	EnsureRecordTx(ctx context.Context, tx pgx.Tx, identifier string, fields *CatalogFields) (int64, MediaFormat, error)
}

type catalogService struct {
	pool *pgxpool.Pool
}

func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

const catalogColumns = `id, identifier, format, title, creator, publisher, release_year, details, cover_key, created_at, updated_at`

func scanCatalogRecord(row pgx.Row) (*CatalogRecord, error) {
	var rec CatalogRecord
	if err := row.Scan(
		&rec.ID, &rec.Identifier, &rec.Format, &rec.Title, &rec.Creator,
		&rec.Publisher, &rec.ReleaseYear, &rec.Details, &rec.CoverKey,
		&rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *catalogService) Get(ctx context.Context, id int64) (*CatalogRecord, error) {
	rec, err := scanCatalogRecord(s.pool.QueryRow(ctx,
		`SELECT `+catalogColumns+` FROM catalog_records WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("catalog record %d not found", id)
		}
		return nil, fmt.Errorf("failed to fetch catalog record: %w", err)
	}
	return rec, nil
}

func (s *catalogService) Search(ctx context.Context, query string, format *MediaFormat, page Page) ([]CatalogRecord, PageInfo, error) {
	clause := ""
	var args []any
	if q := strings.TrimSpace(query); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		clause += fmt.Sprintf(" AND (title ILIKE $%d OR creator ILIKE $%d OR identifier ILIKE $%d)", n, n, n)
	}
	if format != nil {
		args = append(args, *format)
		clause += fmt.Sprintf(" AND format = $%d", len(args))
	}

	var total int64
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM catalog_records WHERE 1=1`+clause, args...,
	).Scan(&total); err != nil {
		return nil, PageInfo{}, fmt.Errorf("failed to count catalog records: %w", err)
	}

	limit, offset := page.LimitOffset()
	args = append(args, limit, offset)
	rows, err := s.pool.Query(ctx,
		`SELECT `+catalogColumns+` FROM catalog_records WHERE 1=1`+clause+
			fmt.Sprintf(` ORDER BY title, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, PageInfo{}, fmt.Errorf("failed to query catalog records: %w", err)
	}
	defer rows.Close()

	var records []CatalogRecord
	for rows.Next() {
		rec, err := scanCatalogRecord(rows)
		if err != nil {
			return nil, PageInfo{}, fmt.Errorf("failed to scan catalog record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, PageInfo{}, fmt.Errorf("error iterating catalog records: %w", err)
	}
	return records, NewPageInfo(page, total), nil
}

func (s *catalogService) DuplicatesFor(ctx context.Context, identifier string) ([]ExistingCopy, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT i.id, i.status, i.intake_date, i.location
		FROM items i
		JOIN catalog_records c ON c.id = i.catalog_record_id
		WHERE c.identifier = $1
		ORDER BY i.intake_date DESC, i.id DESC
	`, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicates for %s: %w", identifier, err)
	}
	defer rows.Close()

	var copies []ExistingCopy
	for rows.Next() {
		var c ExistingCopy
		if err := rows.Scan(&c.ItemID, &c.Status, &c.IntakeDate, &c.Location); err != nil {
			return nil, fmt.Errorf("failed to scan duplicate row: %w", err)
		}
		copies = append(copies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating duplicate rows: %w", err)
	}
	return copies, nil
}

func (s *catalogService) SetCover(ctx context.Context, id int64, coverKey string) (*CatalogRecord, error) {
	rec, err := scanCatalogRecord(s.pool.QueryRow(ctx,
		`UPDATE catalog_records SET cover_key = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+catalogColumns, id, coverKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("catalog record %d not found", id)
		}
		return nil, fmt.Errorf("failed to set cover for catalog record %d: %w", id, err)
	}
	return rec, nil
}

func (s *catalogService) EnsureRecordTx(ctx context.Context, tx pgx.Tx, identifier string, fields *CatalogFields) (int64, MediaFormat, error) {
	identifier = strings.TrimSpace(identifier)

	if identifier != "" {
		var id int64
		var format MediaFormat
		err := tx.QueryRow(ctx,
			`SELECT id, format FROM catalog_records WHERE identifier = $1`, identifier,
		).Scan(&id, &format)
		if err == nil {
			return id, format, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, "", fmt.Errorf("failed to resolve catalog identifier %s: %w", identifier, err)
		}
	}

	// First sight of this identifier (or a catalog-less entry): the caller
	// must supply descriptors.
	if fields == nil {
		if identifier == "" {
			return 0, "", Validationf("catalog descriptors are required for a catalog-less intake")
		}
		return 0, "", Validationf("catalog identifier %q is new; descriptors are required", identifier)
	}
	if err := validateCatalogFields(fields); err != nil {
		return 0, "", err
	}

	details := fields.Details
	if len(details) == 0 {
		details = json.RawMessage(`{}`)
	}

	if identifier == "" {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO catalog_records (identifier, format, title, creator, publisher, release_year, details)
			VALUES ('', $1, $2, $3, $4, $5, $6)
			RETURNING id
		`, fields.Format, fields.Title, fields.Creator, fields.Publisher, fields.ReleaseYear, details).Scan(&id)
		if err != nil {
			return 0, "", fmt.Errorf("failed to create catalog record: %w", err)
		}
		return id, fields.Format, nil
	}

	// Two intakes of a brand-new identifier can race; the conflict clause
	// hands the loser the winner's row.
	var id int64
	var format MediaFormat
	err := tx.QueryRow(ctx, `
		INSERT INTO catalog_records (identifier, format, title, creator, publisher, release_year, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (identifier) WHERE identifier <> '' DO UPDATE SET updated_at = now()
		RETURNING id, format
	`, identifier, fields.Format, fields.Title, fields.Creator, fields.Publisher, fields.ReleaseYear, details).Scan(&id, &format)
	if err != nil {
		return 0, "", fmt.Errorf("failed to create catalog record for %s: %w", identifier, err)
	}
	return id, format, nil
}

func validateCatalogFields(fields *CatalogFields) error {
	if strings.TrimSpace(fields.Title) == "" {
		return Validationf("catalog title is required")
	}
	if !fields.Format.Valid() {
		return Validationf("unknown media format %q", fields.Format)
	}
	return ValidateDetails(fields.Format, fields.Details)
}
