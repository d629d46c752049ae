package core

import (
	"testing"
	"time"
)

func TestGrowthPct(t *testing.T) {
	tests := []struct {
		name     string
		current  int64
		previous int64
		want     float64
	}{
		{"both zero", 0, 0, 0},
		{"no baseline counts as full growth", 5, 0, 100},
		{"fifty percent up", 150, 100, 50},
		{"halved", 50, 100, -50},
		{"flat", 100, 100, 0},
		{"dropped to nothing", 0, 40, -100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := growthPct(tt.current, tt.previous); got != tt.want {
				t.Errorf("growthPct(%d, %d) = %v, want %v", tt.current, tt.previous, got, tt.want)
			}
		})
	}
}

func TestFiscalYearStart(t *testing.T) {
	tests := []struct {
		name    string
		year    int
		month   time.Month
		fyStart time.Month
		want    int
	}{
		{"june belongs to prior july FY", 2026, time.June, time.July, 2025},
		{"july opens its own FY", 2026, time.July, time.July, 2026},
		{"december stays in the july FY", 2026, time.December, time.July, 2026},
		{"calendar FY january", 2026, time.March, time.January, 2026},
		{"calendar FY december", 2026, time.December, time.January, 2026},
		{"april FY boundary", 2026, time.March, time.April, 2025},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fiscalYearStart(tt.year, tt.month, tt.fyStart); got != tt.want {
				t.Errorf("fiscalYearStart(%d, %s, %s) = %d, want %d", tt.year, tt.month, tt.fyStart, got, tt.want)
			}
		})
	}
}

func TestFiscalYearLabel(t *testing.T) {
	if got := fiscalYearLabel(2025, time.July); got != "2025-26" {
		t.Errorf("fiscalYearLabel(2025, July) = %q, want 2025-26", got)
	}
	if got := fiscalYearLabel(2025, time.January); got != "2025" {
		t.Errorf("fiscalYearLabel(2025, January) = %q, want 2025", got)
	}
	if got := fiscalYearLabel(1999, time.July); got != "1999-00" {
		t.Errorf("fiscalYearLabel(1999, July) = %q, want 1999-00", got)
	}
}
