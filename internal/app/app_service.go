package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yurrJC/mercania-wms-sub000/internal/blob"
	"github.com/yurrJC/mercania-wms-sub000/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
)

type appService struct {
	pool    *pgxpool.Pool
	items   core.ItemService
	lots    core.LotService
	cog     core.COGService
	catalog core.CatalogService
	summary core.SummaryService
	covers  blob.Store
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	pool *pgxpool.Pool,
	items core.ItemService,
	lots core.LotService,
	cog core.COGService,
	catalog core.CatalogService,
	summary core.SummaryService,
	covers blob.Store,
) ApplicationService {
	return &appService{
		pool:    pool,
		items:   items,
		lots:    lots,
		cog:     cog,
		catalog: catalog,
		summary: summary,
		covers:  covers,
	}
}

// ── Items ─────────────────────────────────────────────────────────────────────

// IntakeItem registers one physical unit and reports any existing copies.
func (s *appService) IntakeItem(ctx context.Context, req IntakeRequest) (*IntakeResult, error) {
	params := core.IntakeParams{
		CatalogID:      req.CatalogID,
		ConditionGrade: req.ConditionGrade,
		ConditionNotes: req.ConditionNotes,
		CostMinor:      req.CostMinor,
		FormatMetadata: req.FormatMetadata,
	}
	if req.Catalog != nil {
		fields := &core.CatalogFields{
			Title:       req.Catalog.Title,
			Creator:     req.Catalog.Creator,
			Publisher:   req.Catalog.Publisher,
			ReleaseYear: req.Catalog.ReleaseYear,
			Details:     req.Catalog.Details,
		}
		if req.Catalog.Format != "" {
			format, err := core.ParseMediaFormat(req.Catalog.Format)
			if err != nil {
				return nil, err
			}
			fields.Format = format
		}
		params.Catalog = fields
	}

	receipt, err := s.items.Intake(ctx, params)
	if err != nil {
		return nil, err
	}
	return &IntakeResult{Item: receipt.Item, SKU: receipt.SKU, Duplicate: receipt.Duplicate}, nil
}

// GetItem returns a single item joined with its catalog descriptors.
func (s *appService) GetItem(ctx context.Context, itemID int64) (*ItemDetailResult, error) {
	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return &ItemDetailResult{Item: item}, nil
}

// GetItemHistory returns the item's status transitions, oldest first.
func (s *appService) GetItemHistory(ctx context.Context, itemID int64) (*HistoryResult, error) {
	entries, err := s.items.History(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return &HistoryResult{ItemID: itemID, Entries: entries}, nil
}

// ListItems returns a filtered, paginated inventory listing.
func (s *appService) ListItems(ctx context.Context, req ListItemsRequest) (*ItemListResult, error) {
	filter := core.ItemFilter{
		LotNumber: req.LotNumber,
		Search:    req.Search,
	}
	if req.Status != "" {
		status, err := core.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}
	if req.Location != "" {
		location := req.Location
		filter.Location = &location
	}

	items, pageInfo, err := s.items.List(ctx, filter, req.Page)
	if err != nil {
		return nil, err
	}
	return &ItemListResult{Items: items, PageInfo: pageInfo}, nil
}

// AssignLocation is the putaway operation.
func (s *appService) AssignLocation(ctx context.Context, itemID int64, location string) (*ItemResult, error) {
	item, err := s.items.AssignLocation(ctx, itemID, location)
	if err != nil {
		return nil, err
	}
	return &ItemResult{Item: item}, nil
}

// BulkAssignLocation relocates many items at once, best effort.
func (s *appService) BulkAssignLocation(ctx context.Context, itemIDs []int64, location string) (*core.BulkLocationResult, error) {
	return s.items.BulkAssignLocation(ctx, itemIDs, location)
}

// ChangeStatus applies a general status transition.
func (s *appService) ChangeStatus(ctx context.Context, itemID int64, status string) (*ItemResult, error) {
	to, err := core.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	item, err := s.items.UpdateStatus(ctx, itemID, to)
	if err != nil {
		return nil, err
	}
	return &ItemResult{Item: item}, nil
}

// MarkItemListed stamps the listed date, advancing STORED to LISTED.
func (s *appService) MarkItemListed(ctx context.Context, itemID int64, date string) (*DatedMarkResult, error) {
	item, changed, err := s.items.MarkListed(ctx, itemID, date)
	if err != nil {
		return nil, err
	}
	return &DatedMarkResult{Item: item, Changed: changed}, nil
}

// MarkItemSold stamps the sold date, advancing LISTED to SOLD.
func (s *appService) MarkItemSold(ctx context.Context, itemID int64, date string) (*DatedMarkResult, error) {
	item, changed, err := s.items.MarkSold(ctx, itemID, date)
	if err != nil {
		return nil, err
	}
	return &DatedMarkResult{Item: item, Changed: changed}, nil
}

// BulkUpdateDates stamps a listed or sold date on many items, best effort.
func (s *appService) BulkUpdateDates(ctx context.Context, itemIDs []int64, dateType, date string) (*core.BulkDatesResult, error) {
	return s.items.BulkUpdateDates(ctx, itemIDs, dateType, date)
}

// RemoveItem deletes an item outright.
func (s *appService) RemoveItem(ctx context.Context, itemID int64) error {
	return s.items.Remove(ctx, itemID)
}

// ── Lots ──────────────────────────────────────────────────────────────────────

// CreateLot bundles items into a new lot numbered by the smallest member id.
func (s *appService) CreateLot(ctx context.Context, itemIDs []int64) (*LotResult, error) {
	lot, count, err := s.lots.CreateLot(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	return &LotResult{Lot: lot, ItemCount: count}, nil
}

// GetLot returns a lot with its full member listing.
func (s *appService) GetLot(ctx context.Context, lotNumber int64) (*LotDetailResult, error) {
	lot, err := s.lots.GetLot(ctx, lotNumber)
	if err != nil {
		return nil, err
	}
	return &LotDetailResult{Lot: lot}, nil
}

// ListLots returns a paginated lot listing.
func (s *appService) ListLots(ctx context.Context, page core.Page) (*LotListResult, error) {
	lots, pageInfo, err := s.lots.ListLots(ctx, page)
	if err != nil {
		return nil, err
	}
	return &LotListResult{Lots: lots, PageInfo: pageInfo}, nil
}

// AddToLot attaches a lot-free item to an existing lot.
func (s *appService) AddToLot(ctx context.Context, lotNumber, itemID int64) (*LotMembershipResult, error) {
	count, err := s.lots.AddToLot(ctx, lotNumber, itemID)
	if err != nil {
		return nil, err
	}
	return &LotMembershipResult{LotNumber: lotNumber, ItemCount: count}, nil
}

// RemoveFromLot detaches an item from a lot.
func (s *appService) RemoveFromLot(ctx context.Context, lotNumber, itemID int64) (*core.LotRemoval, error) {
	return s.lots.RemoveFromLot(ctx, lotNumber, itemID)
}

// DeleteLot dissolves a lot, releasing all members.
func (s *appService) DeleteLot(ctx context.Context, lotNumber int64) (*LotDeletionResult, error) {
	released, err := s.lots.DeleteLot(ctx, lotNumber)
	if err != nil {
		return nil, err
	}
	return &LotDeletionResult{ItemsReleased: released}, nil
}

// ── Cost allocation ───────────────────────────────────────────────────────────

// ApplyCOG spreads a spend total across every item received in the window.
func (s *appService) ApplyCOG(ctx context.Context, req ApplyCOGRequest) (*COGResult, error) {
	record, err := s.cog.Apply(ctx, req.StartDate, req.EndDate, req.TotalMinor)
	if err != nil {
		return nil, err
	}
	return &COGResult{Record: record}, nil
}

// ListCOGRecords returns the allocation ledger, newest first.
func (s *appService) ListCOGRecords(ctx context.Context, page core.Page) (*COGListResult, error) {
	records, pageInfo, err := s.cog.ListRecords(ctx, page)
	if err != nil {
		return nil, err
	}
	return &COGListResult{Records: records, PageInfo: pageInfo}, nil
}

// DeleteCOGRecord reverses one allocation.
func (s *appService) DeleteCOGRecord(ctx context.Context, recordID int64) (*COGDeletionResult, error) {
	reset, err := s.cog.DeleteRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return &COGDeletionResult{ItemsReset: reset}, nil
}

// ── Catalog ───────────────────────────────────────────────────────────────────

// GetCatalogRecord returns one catalog record.
func (s *appService) GetCatalogRecord(ctx context.Context, recordID int64) (*CatalogResult, error) {
	record, err := s.catalog.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return &CatalogResult{Record: record}, nil
}

// SearchCatalog searches titles, creators and identifiers.
func (s *appService) SearchCatalog(ctx context.Context, req CatalogSearchRequest) (*CatalogListResult, error) {
	var format *core.MediaFormat
	if req.Format != "" {
		parsed, err := core.ParseMediaFormat(req.Format)
		if err != nil {
			return nil, err
		}
		format = &parsed
	}
	records, pageInfo, err := s.catalog.Search(ctx, req.Query, format, req.Page)
	if err != nil {
		return nil, err
	}
	return &CatalogListResult{Records: records, PageInfo: pageInfo}, nil
}

// ListFormats describes the supported media formats and their schemas.
func (s *appService) ListFormats(_ context.Context) (*FormatListResult, error) {
	schemas := core.FormatSchemas()
	formats := make([]FormatDescriptor, 0, len(core.AllFormats))
	for _, format := range core.AllFormats {
		formats = append(formats, FormatDescriptor{Format: format, Schema: schemas[format]})
	}
	return &FormatListResult{Formats: formats}, nil
}

// UploadCover stores a cover image and records its blob key.
func (s *appService) UploadCover(ctx context.Context, recordID int64, data []byte, contentType string) (*CatalogResult, error) {
	if len(data) == 0 {
		return nil, core.Validationf("cover image payload is empty")
	}
	ext, err := coverExtension(contentType)
	if err != nil {
		return nil, err
	}

	record, err := s.catalog.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("covers/%d%s", recordID, ext)
	if err := s.covers.Put(ctx, key, data, contentType); err != nil {
		return nil, fmt.Errorf("failed to store cover image: %w", err)
	}
	// A re-upload under a different extension leaves the old blob behind.
	if record.CoverKey != "" && record.CoverKey != key {
		_ = s.covers.Delete(ctx, record.CoverKey)
	}

	updated, err := s.catalog.SetCover(ctx, recordID, key)
	if err != nil {
		return nil, err
	}
	return &CatalogResult{Record: updated}, nil
}

// GetCover returns the stored cover image bytes for a catalog record.
func (s *appService) GetCover(ctx context.Context, recordID int64) (*CoverResult, error) {
	record, err := s.catalog.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.CoverKey == "" {
		return nil, core.NotFoundf("catalog record %d has no cover image", recordID)
	}
	data, contentType, err := s.covers.Get(ctx, record.CoverKey)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, core.NotFoundf("cover image for catalog record %d is missing from storage", recordID)
		}
		return nil, fmt.Errorf("failed to load cover image: %w", err)
	}
	return &CoverResult{Data: data, ContentType: contentType}, nil
}

// ── Reports ───────────────────────────────────────────────────────────────────

// GetInventorySummary returns warehouse-wide status counts and cost totals.
func (s *appService) GetInventorySummary(ctx context.Context) (*core.InventorySummary, error) {
	return s.summary.Summary(ctx)
}

// GetLocationCounts returns per-shelf item counts.
func (s *appService) GetLocationCounts(ctx context.Context) (*LocationsResult, error) {
	locations, err := s.summary.LocationCounts(ctx)
	if err != nil {
		return nil, err
	}
	return &LocationsResult{Locations: locations}, nil
}

// GetMonthlySales returns the trailing months of sales with YoY growth.
func (s *appService) GetMonthlySales(ctx context.Context, months int) (*MonthlySalesResult, error) {
	sales, err := s.summary.MonthlySales(ctx, months)
	if err != nil {
		return nil, err
	}
	return &MonthlySalesResult{Months: sales}, nil
}

// GetFinancialYearSales returns per-financial-year sales.
func (s *appService) GetFinancialYearSales(ctx context.Context) (*FinancialYearsResult, error) {
	years, err := s.summary.FinancialYearSales(ctx)
	if err != nil {
		return nil, err
	}
	return &FinancialYearsResult{Years: years}, nil
}

// GetRecentSales returns a zero-filled daily sales timeline.
func (s *appService) GetRecentSales(ctx context.Context, days int) (*RecentSalesResult, error) {
	sales, err := s.summary.RecentSales(ctx, days)
	if err != nil {
		return nil, err
	}
	return &RecentSalesResult{Days: sales}, nil
}

// Ping verifies database connectivity.
func (s *appService) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ── private helpers ───────────────────────────────────────────────────────────

// coverExtension maps an accepted image content type to a file extension.
func coverExtension(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", core.Validationf("unsupported cover content type %q; use image/jpeg, image/png or image/webp", contentType)
	}
}
