package app

import (
	"github.com/yurrJC/mercania-wms-sub000/internal/core"

	"github.com/invopop/jsonschema"
)

// IntakeResult is returned by IntakeItem.
type IntakeResult struct {
	Item      *core.Item
	SKU       string
	Duplicate *core.DuplicateInfo // nil when no information was available
}

// ItemResult is returned by single-item mutations.
type ItemResult struct {
	Item *core.Item
}

// ItemDetailResult is returned by GetItem.
type ItemDetailResult struct {
	Item *core.ItemDetail
}

// HistoryResult is returned by GetItemHistory.
type HistoryResult struct {
	ItemID  int64
	Entries []core.StatusChange
}

// ItemListResult is returned by ListItems.
type ItemListResult struct {
	Items    []core.ItemDetail
	PageInfo core.PageInfo
}

// DatedMarkResult is returned by MarkItemListed and MarkItemSold. Changed
// distinguishes a status advance from a pure date correction.
type DatedMarkResult struct {
	Item    *core.Item
	Changed bool
}

// LotResult is returned by CreateLot.
type LotResult struct {
	Lot       *core.Lot
	ItemCount int
}

// LotDetailResult is returned by GetLot.
type LotDetailResult struct {
	Lot *core.LotDetail
}

// LotListResult is returned by ListLots.
type LotListResult struct {
	Lots     []core.LotSummary
	PageInfo core.PageInfo
}

// LotMembershipResult is returned by AddToLot.
type LotMembershipResult struct {
	LotNumber int64
	ItemCount int
}

// LotDeletionResult is returned by DeleteLot.
type LotDeletionResult struct {
	ItemsReleased int
}

// COGResult is returned by ApplyCOG.
type COGResult struct {
	Record *core.COGRecord
}

// COGListResult is returned by ListCOGRecords.
type COGListResult struct {
	Records  []core.COGRecord
	PageInfo core.PageInfo
}

// COGDeletionResult is returned by DeleteCOGRecord.
type COGDeletionResult struct {
	ItemsReset int
}

// CatalogResult is returned by catalog record operations.
type CatalogResult struct {
	Record *core.CatalogRecord
}

// CatalogListResult is returned by SearchCatalog.
type CatalogListResult struct {
	Records  []core.CatalogRecord
	PageInfo core.PageInfo
}

// FormatDescriptor pairs a media format with the JSON schema its details
// field must satisfy.
type FormatDescriptor struct {
	Format core.MediaFormat
	Schema *jsonschema.Schema
}

// FormatListResult is returned by ListFormats.
type FormatListResult struct {
	Formats []FormatDescriptor
}

// CoverResult is returned by GetCover.
type CoverResult struct {
	Data        []byte
	ContentType string
}

// LocationsResult is returned by GetLocationCounts.
type LocationsResult struct {
	Locations []core.LocationCount
}

// MonthlySalesResult is returned by GetMonthlySales.
type MonthlySalesResult struct {
	Months []core.MonthlySales
}

// FinancialYearsResult is returned by GetFinancialYearSales.
type FinancialYearsResult struct {
	Years []core.FinancialYearSales
}

// RecentSalesResult is returned by GetRecentSales.
type RecentSalesResult struct {
	Days []core.DailySales
}
