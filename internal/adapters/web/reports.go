package web

import (
	"net/http"

	"github.com/yurrJC/mercania-wms-sub000/internal/core"
)

// summaryReport handles GET /api/reports/summary.
func (h *Handler) summaryReport(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.GetInventorySummary(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		StatusCounts         map[core.Status]int64 `json:"statusCounts"`
		TotalItems           int64                 `json:"totalItems"`
		OnHandItems          int64                 `json:"onHandItems"`
		OnHandCostMinorUnits int64                 `json:"onHandCostMinorUnits"`
	}
	writeJSON(w, response{
		StatusCounts:         summary.StatusCounts,
		TotalItems:           summary.TotalItems,
		OnHandItems:          summary.OnHandItems,
		OnHandCostMinorUnits: summary.OnHandCostMinor,
	})
}

// locationsReport handles GET /api/reports/locations.
func (h *Handler) locationsReport(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetLocationCounts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type wireLocation struct {
		Location  string `json:"location"`
		ItemCount int64  `json:"itemCount"`
	}
	locations := make([]wireLocation, 0, len(result.Locations))
	for _, loc := range result.Locations {
		locations = append(locations, wireLocation{Location: loc.Location, ItemCount: loc.ItemCount})
	}

	type response struct {
		Locations []wireLocation `json:"locations"`
	}
	writeJSON(w, response{Locations: locations})
}

// monthlySalesReport handles GET /api/reports/sales/monthly?months=N.
func (h *Handler) monthlySalesReport(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetMonthlySales(r.Context(), intQuery(r, "months"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type wireMonth struct {
		Month     string  `json:"month"`
		SoldCount int64   `json:"soldCount"`
		GrowthPct float64 `json:"growthPct"`
	}
	months := make([]wireMonth, 0, len(result.Months))
	for _, m := range result.Months {
		months = append(months, wireMonth{Month: m.Month, SoldCount: m.SoldCount, GrowthPct: m.GrowthPct})
	}

	type response struct {
		Months []wireMonth `json:"months"`
	}
	writeJSON(w, response{Months: months})
}

// financialYearsReport handles GET /api/reports/sales/financial-years.
func (h *Handler) financialYearsReport(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetFinancialYearSales(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type wireYear struct {
		Label     string  `json:"label"`
		StartYear int     `json:"startYear"`
		SoldCount int64   `json:"soldCount"`
		GrowthPct float64 `json:"growthPct"`
	}
	years := make([]wireYear, 0, len(result.Years))
	for _, y := range result.Years {
		years = append(years, wireYear{
			Label:     y.Label,
			StartYear: y.StartYear,
			SoldCount: y.SoldCount,
			GrowthPct: y.GrowthPct,
		})
	}

	type response struct {
		Years []wireYear `json:"years"`
	}
	writeJSON(w, response{Years: years})
}

// recentSalesReport handles GET /api/reports/sales/recent?days=N.
func (h *Handler) recentSalesReport(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetRecentSales(r.Context(), intQuery(r, "days"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type wireDay struct {
		Date      string `json:"date"`
		SoldCount int64  `json:"soldCount"`
	}
	days := make([]wireDay, 0, len(result.Days))
	for _, d := range result.Days {
		days = append(days, wireDay{Date: d.Date, SoldCount: d.SoldCount})
	}

	type response struct {
		Days []wireDay `json:"days"`
	}
	writeJSON(w, response{Days: days})
}
