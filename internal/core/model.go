package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Status is the lifecycle state of a single inventory item. Transition
// rules live in status.go.
type Status string

const (
	StatusIntake    Status = "INTAKE"
	StatusStored    Status = "STORED"
	StatusListed    Status = "LISTED"
	StatusSold      Status = "SOLD"
	StatusReturned  Status = "RETURNED"
	StatusDiscarded Status = "DISCARDED"
)

// Item is one physical unit of inventory. The integer identifier is
// allocated by the items table and doubles as the basis for lot numbering
// and the SKU suffix.
type Item struct {
	ID              int64           `json:"id"`
	CatalogRecordID int64           `json:"catalog_record_id"`
	ConditionGrade  string          `json:"condition_grade"`
	ConditionNotes  string          `json:"condition_notes,omitempty"`
	FormatMetadata  json.RawMessage `json:"format_metadata,omitempty"`
	Status          Status          `json:"status"`
	IntakeDate      time.Time       `json:"intake_date"`
	StoredDate      *time.Time      `json:"stored_date,omitempty"`
	ListedDate      *time.Time      `json:"listed_date,omitempty"`
	SoldDate        *time.Time      `json:"sold_date,omitempty"`
	CostMinor       int64           `json:"cost_minor_units"`
	Location        string          `json:"location,omitempty"`
	LotNumber       *int64          `json:"lot_number,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// SKU derives the shelf label for a located item: "<location>-<id>". An
// item with no location yet is labelled by its bare identifier.
func SKU(location string, id int64) string {
	if location == "" {
		return strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("%s-%d", location, id)
}

// SKU returns the item's derived shelf label.
func (i Item) SKU() string {
	return SKU(i.Location, i.ID)
}

// CatalogRecord is the shared descriptive metadata for a product
// identifier, reused across every physical copy. Identifier is empty for
// catalog-less manual entries; those records are never deduplicated.
type CatalogRecord struct {
	ID          int64           `json:"id"`
	Identifier  string          `json:"identifier,omitempty"`
	Format      MediaFormat     `json:"format"`
	Title       string          `json:"title"`
	Creator     string          `json:"creator,omitempty"`
	Publisher   string          `json:"publisher,omitempty"`
	ReleaseYear *int            `json:"release_year,omitempty"`
	Details     json.RawMessage `json:"details,omitempty"`
	CoverKey    string          `json:"cover_key,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ItemDetail is a read view of an item joined with its catalog record.
type ItemDetail struct {
	Item
	SKULabel   string      `json:"sku"`
	Title      string      `json:"title"`
	Creator    string      `json:"creator,omitempty"`
	Format     MediaFormat `json:"format"`
	Identifier string      `json:"identifier,omitempty"`
}

// Lot groups items under a lot number. The number is the minimum member
// item identifier at creation time and is fixed thereafter; membership is
// held on the items themselves.
type Lot struct {
	LotNumber int64     `json:"lot_number"`
	CreatedAt time.Time `json:"created_at"`
}

// LotMember is the member projection used by lot detail views.
type LotMember struct {
	ItemID   int64  `json:"item_id"`
	Title    string `json:"title"`
	Status   Status `json:"status"`
	Location string `json:"location,omitempty"`
}

// LotDetail is a lot with its current members.
type LotDetail struct {
	Lot
	Members []LotMember `json:"members"`
}

// LotSummary is the list projection: member count plus a few sample titles
// so a lot is recognisable without opening it.
type LotSummary struct {
	LotNumber    int64     `json:"lot_number"`
	ItemCount    int       `json:"item_count"`
	SampleTitles []string  `json:"sample_titles"`
	CreatedAt    time.Time `json:"created_at"`
}

// COGRecord is one append-only cost-allocation ledger entry. Dates are
// calendar dates (YYYY-MM-DD); the window is inclusive of the entire end
// date. The set of items the application touched is stored alongside the
// record so deletion reverses exactly that set.
type COGRecord struct {
	ID           int64     `json:"id"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	TotalMinor   int64     `json:"total_minor_units"`
	ItemCount    int       `json:"item_count"`
	AverageMinor int64     `json:"average_minor_units"`
	AppliedAt    time.Time `json:"applied_at"`
}

// StatusChange is one audit entry of the item status history.
type StatusChange struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item_id"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	Note      string    `json:"note,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

// ExistingCopy is one prior item sharing a catalog identifier, as reported
// by the duplicate sentinel at intake time.
type ExistingCopy struct {
	ItemID     int64     `json:"item_id"`
	Status     Status    `json:"status"`
	IntakeDate time.Time `json:"intake_date"`
	Location   string    `json:"location,omitempty"`
}

// DuplicateInfo is the sentinel's advisory report. A nil *DuplicateInfo
// means no information was available (the check failed or did not apply),
// which is distinct from IsDuplicate=false.
type DuplicateInfo struct {
	IsDuplicate bool           `json:"is_duplicate"`
	Existing    []ExistingCopy `json:"existing,omitempty"`
}

// Page is a 1-based pagination request.
type Page struct {
	Page     int
	PageSize int
}

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

// LimitOffset normalises the page request into SQL limit/offset values.
func (p Page) LimitOffset() (limit, offset int) {
	page := p.Page
	if page < 1 {
		page = 1
	}
	size := p.PageSize
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return size, (page - 1) * size
}

// PageInfo describes one page of a paginated result set.
type PageInfo struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}

// NewPageInfo computes the result-side pagination envelope from the
// normalised request and the total row count.
func NewPageInfo(p Page, total int64) PageInfo {
	limit, _ := p.LimitOffset()
	page := p.Page
	if page < 1 {
		page = 1
	}
	pages := int((total + int64(limit) - 1) / int64(limit))
	return PageInfo{Page: page, PageSize: limit, TotalCount: total, TotalPages: pages}
}

// ItemFilter narrows item listings. Nil/empty fields are ignored; Search
// matches title, creator and catalog identifier.
type ItemFilter struct {
	Status    *Status
	Location  *string
	LotNumber *int64
	Search    string
}
