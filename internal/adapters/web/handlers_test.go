package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yurrJC/mercania-wms-sub000/internal/adapters/web"
	"github.com/yurrJC/mercania-wms-sub000/internal/app"
	"github.com/yurrJC/mercania-wms-sub000/internal/core"
)

// stubService satisfies app.ApplicationService through optional function
// fields. Calling an endpoint whose field is unset panics, so a test can
// never silently pass against the wrong handler.
type stubService struct {
	app.ApplicationService
	intakeItem    func(req app.IntakeRequest) (*app.IntakeResult, error)
	getItem       func(itemID int64) (*app.ItemDetailResult, error)
	listItems     func(req app.ListItemsRequest) (*app.ItemListResult, error)
	markItemSold  func(itemID int64, date string) (*app.DatedMarkResult, error)
	removeFromLot func(lotNumber, itemID int64) (*core.LotRemoval, error)
	ping          func() error
}

func (s *stubService) IntakeItem(_ context.Context, req app.IntakeRequest) (*app.IntakeResult, error) {
	return s.intakeItem(req)
}

func (s *stubService) GetItem(_ context.Context, itemID int64) (*app.ItemDetailResult, error) {
	return s.getItem(itemID)
}

func (s *stubService) ListItems(_ context.Context, req app.ListItemsRequest) (*app.ItemListResult, error) {
	return s.listItems(req)
}

func (s *stubService) MarkItemSold(_ context.Context, itemID int64, date string) (*app.DatedMarkResult, error) {
	return s.markItemSold(itemID, date)
}

func (s *stubService) RemoveFromLot(_ context.Context, lotNumber, itemID int64) (*core.LotRemoval, error) {
	return s.removeFromLot(lotNumber, itemID)
}

func (s *stubService) Ping(_ context.Context) error {
	return s.ping()
}

func newHandler(svc app.ApplicationService) http.Handler {
	return web.NewHandler(svc, "", 1<<20)
}

func demoItem() *core.Item {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	return &core.Item{
		ID:              42,
		CatalogRecordID: 7,
		ConditionGrade:  "GOOD",
		Status:          core.StatusListed,
		IntakeDate:      now,
		CostMinor:       250,
		Location:        "A3",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestHealthz(t *testing.T) {
	handler := newHandler(&stubService{ping: func() error { return nil }})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.Code)
	}
	var body struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Status != "ok" || body.Database != "up" {
		t.Fatalf("unexpected health payload: %+v", body)
	}
}

func TestHealthzDegraded(t *testing.T) {
	handler := newHandler(&stubService{ping: func() error { return errors.New("connection refused") }})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: %d", resp.Code)
	}
}

func TestIntakeCreated(t *testing.T) {
	var got app.IntakeRequest
	svc := &stubService{
		intakeItem: func(req app.IntakeRequest) (*app.IntakeResult, error) {
			got = req
			item := demoItem()
			item.Status = core.StatusIntake
			return &app.IntakeResult{
				Item: item,
				SKU:  "42",
				Duplicate: &core.DuplicateInfo{
					IsDuplicate: true,
					Existing:    []core.ExistingCopy{{ItemID: 17, Status: core.StatusIntake, IntakeDate: item.IntakeDate}},
				},
			}, nil
		},
	}
	handler := newHandler(svc)

	payload := `{"catalogId":"9780140449136","conditionGrade":"GOOD","costMinorUnits":500}`
	req := httptest.NewRequest(http.MethodPost, "/api/intake", strings.NewReader(payload))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status: %d body=%s", resp.Code, resp.Body.String())
	}
	var body struct {
		ItemID    int64  `json:"itemId"`
		SKU       string `json:"sku"`
		Duplicate *struct {
			IsDuplicate bool `json:"isDuplicate"`
			Existing    []struct {
				ItemID int64 `json:"itemId"`
			} `json:"existing"`
		} `json:"duplicate"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.ItemID != 42 || body.SKU != "42" {
		t.Fatalf("unexpected item payload: %+v", body)
	}
	if body.Duplicate == nil || !body.Duplicate.IsDuplicate || len(body.Duplicate.Existing) != 1 {
		t.Fatalf("expected one existing copy, got %+v", body.Duplicate)
	}
	if body.Duplicate.Existing[0].ItemID != 17 {
		t.Fatalf("unexpected existing copy: %+v", body.Duplicate.Existing)
	}
	if got.CatalogID != "9780140449136" || got.CostMinor != 500 {
		t.Fatalf("request not passed through: %+v", got)
	}
}

func TestItemErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", core.NotFoundf("item 7 not found"), http.StatusNotFound, "NOT_FOUND"},
		{"invalid transition", core.InvalidTransitionf("cannot sell from INTAKE"), http.StatusConflict, "INVALID_TRANSITION"},
		{"concurrent modification", core.ConcurrentModificationf("lost a race"), http.StatusConflict, "CONCURRENT_MODIFICATION"},
		{"validation", core.Validationf("bad input"), http.StatusBadRequest, "VALIDATION"},
		{"empty selection", core.EmptySelectionf("no items in window"), http.StatusBadRequest, "EMPTY_SELECTION"},
		{"internal", errors.New("pool exhausted"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubService{getItem: func(int64) (*app.ItemDetailResult, error) { return nil, tc.err }}
			handler := newHandler(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/items/7", nil)
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)

			if resp.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", resp.Code, tc.wantStatus)
			}
			var body struct {
				Error     string `json:"error"`
				Code      string `json:"code"`
				RequestID string `json:"request_id"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if body.Code != tc.wantCode {
				t.Fatalf("code = %q, want %q", body.Code, tc.wantCode)
			}
			if body.RequestID == "" {
				t.Fatal("expected a request id in the error body")
			}
			if tc.wantCode == "INTERNAL_ERROR" && body.Error != "internal server error" {
				t.Fatalf("internal detail leaked to client: %q", body.Error)
			}
		})
	}
}

func TestListItemsFilters(t *testing.T) {
	var got app.ListItemsRequest
	svc := &stubService{
		listItems: func(req app.ListItemsRequest) (*app.ItemListResult, error) {
			got = req
			return &app.ItemListResult{
				PageInfo: core.PageInfo{Page: 2, PageSize: 10},
			}, nil
		},
	}
	handler := newHandler(svc)

	req := httptest.NewRequest(http.MethodGet,
		"/api/items?status=STORED&location=A3&search=dune&lotNumber=3&page=2&pageSize=10", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", resp.Code, resp.Body.String())
	}
	if got.Status != "STORED" || got.Location != "A3" || got.Search != "dune" {
		t.Fatalf("filters not passed through: %+v", got)
	}
	if got.LotNumber == nil || *got.LotNumber != 3 {
		t.Fatalf("lot filter not passed through: %+v", got.LotNumber)
	}
	if got.Page.Page != 2 || got.Page.PageSize != 10 {
		t.Fatalf("pagination not passed through: %+v", got.Page)
	}
	if !strings.Contains(resp.Body.String(), `"items":[]`) {
		t.Fatalf("expected an empty items array, got %s", resp.Body.String())
	}
}

func TestListItemsRejectsBadLotFilter(t *testing.T) {
	handler := newHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/items?lotNumber=0", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", resp.Code)
	}
}

func TestInvalidIDParam(t *testing.T) {
	handler := newHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/items/abc", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "BAD_REQUEST") {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}

func TestMarkSoldRoute(t *testing.T) {
	var gotID int64
	var gotDate string
	svc := &stubService{
		markItemSold: func(itemID int64, date string) (*app.DatedMarkResult, error) {
			gotID, gotDate = itemID, date
			item := demoItem()
			item.Status = core.StatusSold
			return &app.DatedMarkResult{Item: item, Changed: true}, nil
		},
	}
	handler := newHandler(svc)

	req := httptest.NewRequest(http.MethodPatch, "/api/items/42/sold",
		strings.NewReader(`{"date":"2026-03-14"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", resp.Code, resp.Body.String())
	}
	if gotID != 42 || gotDate != "2026-03-14" {
		t.Fatalf("arguments not passed through: id=%d date=%q", gotID, gotDate)
	}
	var body struct {
		Item struct {
			Status core.Status `json:"status"`
		} `json:"item"`
		StatusChanged bool `json:"statusChanged"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Item.Status != core.StatusSold || !body.StatusChanged {
		t.Fatalf("unexpected payload: %+v", body)
	}
}

func TestRemoveFromLotIdempotent(t *testing.T) {
	var gotLot, gotItem int64
	svc := &stubService{
		removeFromLot: func(lotNumber, itemID int64) (*core.LotRemoval, error) {
			gotLot, gotItem = lotNumber, itemID
			return &core.LotRemoval{Removed: false, LotDeleted: false}, nil
		},
	}
	handler := newHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/lots/3/remove",
		strings.NewReader(`{"itemId":9}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("repeat removal must stay a success, got %d", resp.Code)
	}
	if gotLot != 3 || gotItem != 9 {
		t.Fatalf("arguments not passed through: lot=%d item=%d", gotLot, gotItem)
	}
	var body struct {
		Removed    bool `json:"removed"`
		LotDeleted bool `json:"lotDeleted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Removed || body.LotDeleted {
		t.Fatalf("unexpected payload: %+v", body)
	}
}

func TestRequestIDHeader(t *testing.T) {
	handler := newHandler(&stubService{ping: func() error { return nil }})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "term-4-batch-77")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if got := resp.Header().Get("X-Request-ID"); got != "term-4-batch-77" {
		t.Fatalf("caller request id not echoed, got %q", got)
	}

	// Unsafe IDs are replaced, not propagated.
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "bad id !!")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	got := resp.Header().Get("X-Request-ID")
	if got == "" || got == "bad id !!" {
		t.Fatalf("unsafe request id not replaced, got %q", got)
	}
}

func TestRequestBodyLimit(t *testing.T) {
	handler := web.NewHandler(&stubService{}, "", 64)

	payload := `{"conditionNotes":"` + strings.Repeat("x", 2048) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/intake", strings.NewReader(payload))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("unexpected status: %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "REQUEST_TOO_LARGE") {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}

func TestCORS(t *testing.T) {
	handler := web.NewHandler(&stubService{ping: func() error { return nil }}, "https://dash.mercania.example", 1<<20)

	// Preflight from an allowed origin.
	req := httptest.NewRequest(http.MethodOptions, "/api/items", nil)
	req.Header.Set("Origin", "https://dash.mercania.example")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("unexpected preflight status: %d", resp.Code)
	}
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.mercania.example" {
		t.Fatalf("unexpected allow-origin: %q", got)
	}

	// A foreign origin gets no CORS headers.
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("foreign origin allowed: %q", got)
	}
}
