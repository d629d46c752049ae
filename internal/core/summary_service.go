package core

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InventorySummary is the dashboard headline: one count per status
// (zero-filled) plus on-hand totals. On-hand means any non-terminal status.
type InventorySummary struct {
	StatusCounts    map[Status]int64 `json:"status_counts"`
	TotalItems      int64            `json:"total_items"`
	OnHandItems     int64            `json:"on_hand_items"`
	OnHandCostMinor int64            `json:"on_hand_cost_minor_units"`
}

// LocationCount is the number of shelved (STORED or LISTED) items at one
// warehouse location.
type LocationCount struct {
	Location  string `json:"location"`
	ItemCount int64  `json:"item_count"`
}

// MonthlySales is one month of sold-item counts with growth against the
// same month a year earlier.
type MonthlySales struct {
	Month     string  `json:"month"`
	SoldCount int64   `json:"sold_count"`
	GrowthPct float64 `json:"growth_pct"`
}

// FinancialYearSales is one financial year of sold-item counts with growth
// against the previous financial year.
type FinancialYearSales struct {
	Label     string  `json:"label"`
	StartYear int     `json:"start_year"`
	SoldCount int64   `json:"sold_count"`
	GrowthPct float64 `json:"growth_pct"`
}

// DailySales is one calendar day of sold-item counts.
type DailySales struct {
	Date      string `json:"date"`
	SoldCount int64  `json:"sold_count"`
}

// SummaryService computes read-side aggregations over the item store. All
// date bucketing happens in the warehouse timezone; financial years start
// at the configured month.
type SummaryService interface {
	Summary(ctx context.Context) (*InventorySummary, error)
	LocationCounts(ctx context.Context) ([]LocationCount, error)
	// MonthlySales returns the trailing months up to and including the
	// current one, zero-filled.
	MonthlySales(ctx context.Context, months int) ([]MonthlySales, error)
	// FinancialYearSales covers every financial year from the first
	// recorded sale through the current one, zero-filled.
	FinancialYearSales(ctx context.Context) ([]FinancialYearSales, error)
	// RecentSales returns a per-day timeline over the trailing window,
	// zero-filled, ending today.
	RecentSales(ctx context.Context, days int) ([]DailySales, error)
}

type summaryService struct {
	pool    *pgxpool.Pool
	tz      *time.Location
	fyStart time.Month
}

func NewSummaryService(pool *pgxpool.Pool, tz *time.Location, fyStart time.Month) SummaryService {
	if tz == nil {
		tz = time.UTC
	}
	if fyStart < time.January || fyStart > time.December {
		fyStart = time.July
	}
	return &summaryService{pool: pool, tz: tz, fyStart: fyStart}
}

// growthPct computes year-over-year growth in percent. A period with no
// prior baseline counts as 100% growth when anything sold and 0% otherwise.
func growthPct(current, previous int64) float64 {
	switch {
	case previous == 0 && current == 0:
		return 0
	case previous == 0:
		return 100
	default:
		return float64(current-previous) / float64(previous) * 100
	}
}

// fiscalYearStart maps a calendar year+month onto the starting year of the
// financial year containing it.
func fiscalYearStart(year int, month, fyStart time.Month) int {
	if month >= fyStart {
		return year
	}
	return year - 1
}

// fiscalYearLabel renders a financial year for display. Years aligned to
// January read as plain calendar years.
func fiscalYearLabel(startYear int, fyStart time.Month) string {
	if fyStart == time.January {
		return strconv.Itoa(startYear)
	}
	return fmt.Sprintf("%d-%02d", startYear, (startYear+1)%100)
}

func (s *summaryService) Summary(ctx context.Context) (*InventorySummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(cost_minor), 0)
		FROM items
		GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query status counts: %w", err)
	}
	defer rows.Close()

	summary := &InventorySummary{StatusCounts: make(map[Status]int64, len(AllStatuses))}
	for _, st := range AllStatuses {
		summary.StatusCounts[st] = 0
	}
	for rows.Next() {
		var (
			status Status
			count  int64
			cost   int64
		)
		if err := rows.Scan(&status, &count, &cost); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		summary.StatusCounts[status] = count
		summary.TotalItems += count
		if !status.Terminal() {
			summary.OnHandItems += count
			summary.OnHandCostMinor += cost
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}
	return summary, nil
}

func (s *summaryService) LocationCounts(ctx context.Context) ([]LocationCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT location, COUNT(*)
		FROM items
		WHERE status IN ($1, $2) AND location <> ''
		GROUP BY location
		ORDER BY location
	`, StatusStored, StatusListed)
	if err != nil {
		return nil, fmt.Errorf("failed to query location counts: %w", err)
	}
	defer rows.Close()

	var counts []LocationCount
	for rows.Next() {
		var c LocationCount
		if err := rows.Scan(&c.Location, &c.ItemCount); err != nil {
			return nil, fmt.Errorf("failed to scan location count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating location counts: %w", err)
	}
	return counts, nil
}

type monthKey struct {
	Year  int
	Month time.Month
}

// soldByMonth loads sold-item counts bucketed by warehouse-local calendar
// month, for every month that has sales.
func (s *summaryService) soldByMonth(ctx context.Context) (map[monthKey]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT EXTRACT(YEAR FROM sold_date AT TIME ZONE $1)::int,
		       EXTRACT(MONTH FROM sold_date AT TIME ZONE $1)::int,
		       COUNT(*)
		FROM items
		WHERE sold_date IS NOT NULL
		GROUP BY 1, 2
	`, s.tz.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly sales: %w", err)
	}
	defer rows.Close()

	counts := make(map[monthKey]int64)
	for rows.Next() {
		var (
			year, month int
			count       int64
		)
		if err := rows.Scan(&year, &month, &count); err != nil {
			return nil, fmt.Errorf("failed to scan monthly sales: %w", err)
		}
		counts[monthKey{Year: year, Month: time.Month(month)}] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly sales: %w", err)
	}
	return counts, nil
}

func (s *summaryService) MonthlySales(ctx context.Context, months int) ([]MonthlySales, error) {
	if months < 1 {
		months = 12
	}
	if months > 60 {
		months = 60
	}

	counts, err := s.soldByMonth(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().In(s.tz)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.tz)

	out := make([]MonthlySales, 0, months)
	for i := months - 1; i >= 0; i-- {
		m := first.AddDate(0, -i, 0)
		cur := counts[monthKey{Year: m.Year(), Month: m.Month()}]
		prev := counts[monthKey{Year: m.Year() - 1, Month: m.Month()}]
		out = append(out, MonthlySales{
			Month:     m.Format("2006-01"),
			SoldCount: cur,
			GrowthPct: growthPct(cur, prev),
		})
	}
	return out, nil
}

func (s *summaryService) FinancialYearSales(ctx context.Context) ([]FinancialYearSales, error) {
	counts, err := s.soldByMonth(ctx)
	if err != nil {
		return nil, err
	}
	if len(counts) == 0 {
		return nil, nil
	}

	byFY := make(map[int]int64)
	firstFY := 0
	for k, count := range counts {
		fy := fiscalYearStart(k.Year, k.Month, s.fyStart)
		byFY[fy] += count
		if firstFY == 0 || fy < firstFY {
			firstFY = fy
		}
	}

	now := time.Now().In(s.tz)
	currentFY := fiscalYearStart(now.Year(), now.Month(), s.fyStart)
	if currentFY < firstFY {
		currentFY = firstFY
	}

	var out []FinancialYearSales
	for fy := firstFY; fy <= currentFY; fy++ {
		out = append(out, FinancialYearSales{
			Label:     fiscalYearLabel(fy, s.fyStart),
			StartYear: fy,
			SoldCount: byFY[fy],
			GrowthPct: growthPct(byFY[fy], byFY[fy-1]),
		})
	}
	return out, nil
}

func (s *summaryService) RecentSales(ctx context.Context, days int) ([]DailySales, error) {
	if days < 1 {
		days = 30
	}
	if days > 365 {
		days = 365
	}

	now := time.Now().In(s.tz)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.tz)
	windowStart := today.AddDate(0, 0, -(days - 1))

	rows, err := s.pool.Query(ctx, `
		SELECT to_char(sold_date AT TIME ZONE $1, 'YYYY-MM-DD'), COUNT(*)
		FROM items
		WHERE sold_date >= $2
		GROUP BY 1
	`, s.tz.String(), windowStart)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent sales: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			day   string
			count int64
		)
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("failed to scan recent sales: %w", err)
		}
		counts[day] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recent sales: %w", err)
	}

	out := make([]DailySales, 0, days)
	for i := 0; i < days; i++ {
		d := windowStart.AddDate(0, 0, i)
		key := d.Format("2006-01-02")
		out = append(out, DailySales{Date: key, SoldCount: counts[key]})
	}
	return out, nil
}
