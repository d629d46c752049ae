package core_test

import (
	"testing"

	"github.com/yurrJC/mercania-wms-sub000/internal/core"
)

func TestSKU(t *testing.T) {
	tests := []struct {
		location string
		id       int64
		want     string
	}{
		{"A1", 7, "A1-7"},
		{"", 7, "7"},
		{"B-12", 4021, "B-12-4021"},
	}
	for _, tt := range tests {
		if got := core.SKU(tt.location, tt.id); got != tt.want {
			t.Errorf("SKU(%q, %d) = %q, want %q", tt.location, tt.id, got, tt.want)
		}
	}

	item := core.Item{ID: 19, Location: "C4"}
	if got := item.SKU(); got != "C4-19" {
		t.Errorf("Item.SKU() = %q, want C4-19", got)
	}
}

func TestPageLimitOffset(t *testing.T) {
	tests := []struct {
		name       string
		page       core.Page
		wantLimit  int
		wantOffset int
	}{
		{"zero value defaults", core.Page{}, 25, 0},
		{"second page", core.Page{Page: 2, PageSize: 25}, 25, 25},
		{"custom size", core.Page{Page: 3, PageSize: 10}, 10, 20},
		{"oversized page capped", core.Page{Page: 1, PageSize: 5000}, 200, 0},
		{"negative page clamped", core.Page{Page: -4, PageSize: 10}, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := tt.page.LimitOffset()
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("LimitOffset() = (%d, %d), want (%d, %d)", limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestNewPageInfo(t *testing.T) {
	info := core.NewPageInfo(core.Page{Page: 2, PageSize: 25}, 51)
	if info.TotalPages != 3 {
		t.Errorf("Expected 3 pages for 51 rows at size 25, got %d", info.TotalPages)
	}
	if info.Page != 2 || info.PageSize != 25 || info.TotalCount != 51 {
		t.Errorf("Unexpected page info: %+v", info)
	}

	empty := core.NewPageInfo(core.Page{}, 0)
	if empty.TotalPages != 0 {
		t.Errorf("Expected 0 pages for an empty result, got %d", empty.TotalPages)
	}

	exact := core.NewPageInfo(core.Page{PageSize: 25}, 50)
	if exact.TotalPages != 2 {
		t.Errorf("Expected 2 pages for exactly 50 rows, got %d", exact.TotalPages)
	}
}
