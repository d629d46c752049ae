package app

import (
	"context"

	"github.com/yurrJC/mercania-wms-sub000/internal/core"
)

// ApplicationService is the single interface all UI adapters (CLI, Web)
// call. It decouples presentation from business logic. Implementations
// must contain no fmt.Println, no ANSI codes, and no display logic of any
// kind.
type ApplicationService interface {
	// IntakeItem registers one physical unit and returns the created item,
	// its SKU and the duplicate sentinel's advisory report.
	IntakeItem(ctx context.Context, req IntakeRequest) (*IntakeResult, error)

	// GetItem returns a single item joined with its catalog descriptors.
	GetItem(ctx context.Context, itemID int64) (*ItemDetailResult, error)

	// GetItemHistory returns the item's status transitions, oldest first.
	GetItemHistory(ctx context.Context, itemID int64) (*HistoryResult, error)

	// ListItems returns a filtered, paginated inventory listing.
	ListItems(ctx context.Context, req ListItemsRequest) (*ItemListResult, error)

	// AssignLocation is the putaway operation: sets the shelf location and
	// advances an INTAKE item to STORED.
	AssignLocation(ctx context.Context, itemID int64, location string) (*ItemResult, error)

	// BulkAssignLocation relocates many items at once, best effort.
	BulkAssignLocation(ctx context.Context, itemIDs []int64, location string) (*core.BulkLocationResult, error)

	// ChangeStatus applies a general status transition; it is the route to
	// RETURNED and DISCARDED. Re-applying the current status is a no-op.
	ChangeStatus(ctx context.Context, itemID int64, status string) (*ItemResult, error)

	// MarkItemListed stamps the listed date, advancing STORED to LISTED.
	// Changed reports whether the status moved or only the date did.
	MarkItemListed(ctx context.Context, itemID int64, date string) (*DatedMarkResult, error)

	// MarkItemSold stamps the sold date, advancing LISTED to SOLD.
	MarkItemSold(ctx context.Context, itemID int64, date string) (*DatedMarkResult, error)

	// BulkUpdateDates stamps a listed or sold date on many items, best
	// effort. dateType is "listed" or "sold".
	BulkUpdateDates(ctx context.Context, itemIDs []int64, dateType, date string) (*core.BulkDatesResult, error)

	// RemoveItem deletes an item outright, detaching it from any lot first.
	RemoveItem(ctx context.Context, itemID int64) error

	// CreateLot bundles items into a new lot numbered by the smallest
	// member id.
	CreateLot(ctx context.Context, itemIDs []int64) (*LotResult, error)

	// GetLot returns a lot with its full member listing.
	GetLot(ctx context.Context, lotNumber int64) (*LotDetailResult, error)

	// ListLots returns a paginated lot listing with sample titles.
	ListLots(ctx context.Context, page core.Page) (*LotListResult, error)

	// AddToLot attaches a lot-free item to an existing lot.
	AddToLot(ctx context.Context, lotNumber, itemID int64) (*LotMembershipResult, error)

	// RemoveFromLot detaches an item from a lot; removing the last member
	// dissolves the lot. Removing a non-member is a reported no-op.
	RemoveFromLot(ctx context.Context, lotNumber, itemID int64) (*core.LotRemoval, error)

	// DeleteLot dissolves a lot, releasing all members.
	DeleteLot(ctx context.Context, lotNumber int64) (*LotDeletionResult, error)

	// ApplyCOG spreads a spend total evenly across every item received in
	// the date window and appends a ledger record.
	ApplyCOG(ctx context.Context, req ApplyCOGRequest) (*COGResult, error)

	// ListCOGRecords returns the allocation ledger, newest first.
	ListCOGRecords(ctx context.Context, page core.Page) (*COGListResult, error)

	// DeleteCOGRecord reverses one allocation: the items it touched go
	// back to zero cost and the ledger entry is removed.
	DeleteCOGRecord(ctx context.Context, recordID int64) (*COGDeletionResult, error)

	// GetCatalogRecord returns one catalog record.
	GetCatalogRecord(ctx context.Context, recordID int64) (*CatalogResult, error)

	// SearchCatalog searches titles, creators and identifiers.
	SearchCatalog(ctx context.Context, req CatalogSearchRequest) (*CatalogListResult, error)

	// ListFormats describes the supported media formats and the JSON
	// schema each format's details must satisfy.
	ListFormats(ctx context.Context) (*FormatListResult, error)

	// UploadCover stores a cover image for a catalog record and records
	// its blob key. Accepts JPEG, PNG and WEBP.
	UploadCover(ctx context.Context, recordID int64, data []byte, contentType string) (*CatalogResult, error)

	// GetCover returns the stored cover image bytes for a catalog record.
	GetCover(ctx context.Context, recordID int64) (*CoverResult, error)

	// GetInventorySummary returns warehouse-wide status counts and on-hand
	// cost totals.
	GetInventorySummary(ctx context.Context) (*core.InventorySummary, error)

	// GetLocationCounts returns per-shelf item counts for stored and
	// listed stock.
	GetLocationCounts(ctx context.Context) (*LocationsResult, error)

	// GetMonthlySales returns the trailing months of sales with
	// year-over-year growth. months <= 0 means the default window.
	GetMonthlySales(ctx context.Context, months int) (*MonthlySalesResult, error)

	// GetFinancialYearSales returns per-financial-year sales from the
	// first sale onwards.
	GetFinancialYearSales(ctx context.Context) (*FinancialYearsResult, error)

	// GetRecentSales returns a zero-filled daily sales timeline ending
	// today. days <= 0 means the default window.
	GetRecentSales(ctx context.Context, days int) (*RecentSalesResult, error)

	// Ping verifies database connectivity for health checks.
	Ping(ctx context.Context) error
}
