package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/yurrJC/mercania-wms-sub000/internal/app"
	"github.com/yurrJC/mercania-wms-sub000/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// coverMaxBytes caps cover image uploads; everything else uses the
// configured request body limit.
const coverMaxBytes = 10 << 20

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc app.ApplicationService
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string, bodyLimit int64) http.Handler {
	h := &Handler{svc: svc}

	if bodyLimit <= 0 {
		bodyLimit = 1 << 20
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Metrics)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Health & metrics ──────────────────────────────────────────────────────
	r.Get("/healthz", h.healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Cover upload: the image size cap is managed inside the handler.
		r.Put("/catalog/{id}/cover", h.uploadCover)

		r.Group(func(r chi.Router) {
			r.Use(RequestBodyLimit(bodyLimit))

			// ── Items ─────────────────────────────────────────────────────────────
			r.Post("/intake", h.intake)
			r.Get("/items", h.listItems)
			r.Get("/items/{id}", h.getItem)
			r.Get("/items/{id}/history", h.itemHistory)
			r.Patch("/items/{id}/location", h.assignLocation)
			r.Patch("/items/{id}/status", h.changeStatus)
			r.Patch("/items/{id}/listed", h.markListed)
			r.Patch("/items/{id}/sold", h.markSold)
			r.Delete("/items/{id}", h.removeItem)
			r.Post("/items/bulk-location", h.bulkAssignLocation)
			r.Post("/items/update-dates", h.bulkUpdateDates)

			// ── Lots ──────────────────────────────────────────────────────────────
			r.Post("/lots", h.createLot)
			r.Get("/lots", h.listLots)
			r.Get("/lots/{lotNumber}", h.getLot)
			r.Delete("/lots/{lotNumber}", h.deleteLot)
			r.Post("/lots/{lotNumber}/add", h.addToLot)
			r.Post("/lots/{lotNumber}/remove", h.removeFromLot)

			// ── Cost allocation ───────────────────────────────────────────────────
			r.Post("/cog/apply", h.applyCOG)
			r.Get("/cog/records", h.listCOGRecords)
			r.Delete("/cog/records/{id}", h.deleteCOGRecord)

			// ── Catalog ───────────────────────────────────────────────────────────
			r.Get("/catalog", h.searchCatalog)
			r.Get("/catalog/{id}", h.getCatalogRecord)
			r.Get("/catalog/{id}/cover", h.getCover)
			r.Get("/formats", h.listFormats)

			// ── Reports ───────────────────────────────────────────────────────────
			r.Get("/reports/summary", h.summaryReport)
			r.Get("/reports/locations", h.locationsReport)
			r.Get("/reports/sales/monthly", h.monthlySalesReport)
			r.Get("/reports/sales/financial-years", h.financialYearsReport)
			r.Get("/reports/sales/recent", h.recentSalesReport)
		})
	})

	return r
}

// healthz reports liveness and database reachability.
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}

	if err := h.svc.Ping(r.Context()); err != nil {
		writeJSONStatus(w, http.StatusServiceUnavailable, response{Status: "degraded", Database: "unreachable"})
		return
	}
	writeJSON(w, response{Status: "ok", Database: "up"})
}

// decodeJSON decodes the request body into v and returns false + writes an
// appropriate error response on failure. Returns HTTP 413 when the body
// exceeds the size limit set by RequestBodyLimit middleware; HTTP 400 for
// all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// idParam extracts a positive integer URL parameter. The bool reports
// success; on failure a 400 has already been written.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeError(w, r, "invalid "+name+" value "+strconv.Quote(raw), "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// pageFromQuery reads page/pageSize query parameters; absent or malformed
// values fall back to the service defaults.
func pageFromQuery(r *http.Request) core.Page {
	var page core.Page
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page.Page = n
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("pageSize")); err == nil {
		page.PageSize = n
	}
	return page
}

// intQuery reads an optional integer query parameter, zero when absent or
// malformed.
func intQuery(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}

// wirePage is the pagination envelope shared by all list responses.
type wirePage struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
}

func wirePageFrom(info core.PageInfo) wirePage {
	return wirePage{
		Page:       info.Page,
		PageSize:   info.PageSize,
		TotalCount: info.TotalCount,
		TotalPages: info.TotalPages,
	}
}
