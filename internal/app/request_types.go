package app

import (
	"encoding/json"

	"github.com/yurrJC/mercania-wms-sub000/internal/core"
)

// IntakeRequest is the input for registering one physical unit.
type IntakeRequest struct {
	CatalogID      string // barcode identifier; empty for a manual entry
	ConditionGrade string
	ConditionNotes string
	CostMinor      int64
	FormatMetadata json.RawMessage
	Catalog        *CatalogInput // required the first time an identifier is seen
}

// CatalogInput carries the descriptors used to mint a catalog record on
// first sight of an identifier.
type CatalogInput struct {
	Title       string
	Creator     string
	Publisher   string
	ReleaseYear *int
	Format      string // "BOOK", "CD" or "DVD"
	Details     json.RawMessage
}

// ListItemsRequest is the input for the inventory listing.
type ListItemsRequest struct {
	Status    string // optional status filter
	Location  string // optional exact shelf match
	LotNumber *int64
	Search    string // matches title, creator or identifier
	Page      core.Page
}

// ApplyCOGRequest is the input for one cost allocation. Dates are
// YYYY-MM-DD and the window includes the whole end date.
type ApplyCOGRequest struct {
	StartDate  string
	EndDate    string
	TotalMinor int64
}

// CatalogSearchRequest is the input for catalog search.
type CatalogSearchRequest struct {
	Query  string
	Format string // optional format filter
	Page   core.Page
}
