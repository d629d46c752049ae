package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/yurrJC/mercania-wms-sub000/internal/app"
	"github.com/yurrJC/mercania-wms-sub000/internal/core"
)

// wireItem is the item envelope shared by all item responses. Descriptor
// fields are filled only on catalog-joined reads.
type wireItem struct {
	ItemID          int64            `json:"itemId"`
	SKU             string           `json:"sku"`
	CatalogRecordID int64            `json:"catalogRecordId"`
	Title           string           `json:"title,omitempty"`
	Creator         string           `json:"creator,omitempty"`
	Format          core.MediaFormat `json:"format,omitempty"`
	Identifier      string           `json:"identifier,omitempty"`
	ConditionGrade  string           `json:"conditionGrade"`
	ConditionNotes  string           `json:"conditionNotes,omitempty"`
	FormatMetadata  json.RawMessage  `json:"formatMetadata,omitempty"`
	Status          core.Status      `json:"status"`
	IntakeDate      time.Time        `json:"intakeDate"`
	StoredDate      *time.Time       `json:"storedDate,omitempty"`
	ListedDate      *time.Time       `json:"listedDate,omitempty"`
	SoldDate        *time.Time       `json:"soldDate,omitempty"`
	CostMinorUnits  int64            `json:"costMinorUnits"`
	Location        string           `json:"location,omitempty"`
	LotNumber       *int64           `json:"lotNumber,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

func wireItemFrom(item *core.Item) wireItem {
	return wireItem{
		ItemID:          item.ID,
		SKU:             item.SKU(),
		CatalogRecordID: item.CatalogRecordID,
		ConditionGrade:  item.ConditionGrade,
		ConditionNotes:  item.ConditionNotes,
		FormatMetadata:  item.FormatMetadata,
		Status:          item.Status,
		IntakeDate:      item.IntakeDate,
		StoredDate:      item.StoredDate,
		ListedDate:      item.ListedDate,
		SoldDate:        item.SoldDate,
		CostMinorUnits:  item.CostMinor,
		Location:        item.Location,
		LotNumber:       item.LotNumber,
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
	}
}

func wireItemFromDetail(detail *core.ItemDetail) wireItem {
	item := wireItemFrom(&detail.Item)
	item.SKU = detail.SKULabel
	item.Title = detail.Title
	item.Creator = detail.Creator
	item.Format = detail.Format
	item.Identifier = detail.Identifier
	return item
}

type wireExistingCopy struct {
	ItemID     int64       `json:"itemId"`
	Status     core.Status `json:"status"`
	IntakeDate time.Time   `json:"intakeDate"`
	Location   string      `json:"location,omitempty"`
}

type wireDuplicate struct {
	IsDuplicate bool               `json:"isDuplicate"`
	Existing    []wireExistingCopy `json:"existing"`
}

func wireDuplicateFrom(info *core.DuplicateInfo) *wireDuplicate {
	if info == nil {
		return nil
	}
	existing := make([]wireExistingCopy, 0, len(info.Existing))
	for _, prior := range info.Existing {
		existing = append(existing, wireExistingCopy{
			ItemID:     prior.ItemID,
			Status:     prior.Status,
			IntakeDate: prior.IntakeDate,
			Location:   prior.Location,
		})
	}
	return &wireDuplicate{IsDuplicate: info.IsDuplicate, Existing: existing}
}

type wireBulkFailure struct {
	ItemID int64  `json:"itemId"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error"`
}

func wireBulkFailures(failures []core.BulkFailure) []wireBulkFailure {
	out := make([]wireBulkFailure, 0, len(failures))
	for _, f := range failures {
		out = append(out, wireBulkFailure{ItemID: f.ItemID, Code: string(f.Code), Error: f.Error})
	}
	return out
}

// intake handles POST /api/intake.
func (h *Handler) intake(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CatalogID      string          `json:"catalogId"`
		ConditionGrade string          `json:"conditionGrade"`
		ConditionNotes string          `json:"conditionNotes"`
		CostMinorUnits int64           `json:"costMinorUnits"`
		FormatMetadata json.RawMessage `json:"formatMetadata"`
		Catalog        *struct {
			Title       string          `json:"title"`
			Creator     string          `json:"creator"`
			Publisher   string          `json:"publisher"`
			ReleaseYear *int            `json:"releaseYear"`
			Format      string          `json:"format"`
			Details     json.RawMessage `json:"details"`
		} `json:"catalog"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	req := app.IntakeRequest{
		CatalogID:      body.CatalogID,
		ConditionGrade: body.ConditionGrade,
		ConditionNotes: body.ConditionNotes,
		CostMinor:      body.CostMinorUnits,
		FormatMetadata: body.FormatMetadata,
	}
	if body.Catalog != nil {
		req.Catalog = &app.CatalogInput{
			Title:       body.Catalog.Title,
			Creator:     body.Catalog.Creator,
			Publisher:   body.Catalog.Publisher,
			ReleaseYear: body.Catalog.ReleaseYear,
			Format:      body.Catalog.Format,
			Details:     body.Catalog.Details,
		}
	}

	result, err := h.svc.IntakeItem(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		ItemID    int64          `json:"itemId"`
		SKU       string         `json:"sku"`
		Status    core.Status    `json:"status"`
		Duplicate *wireDuplicate `json:"duplicate,omitempty"`
	}
	writeJSONStatus(w, http.StatusCreated, response{
		ItemID:    result.Item.ID,
		SKU:       result.SKU,
		Status:    result.Item.Status,
		Duplicate: wireDuplicateFrom(result.Duplicate),
	})
}

// listItems handles GET /api/items.
func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := app.ListItemsRequest{
		Status:   q.Get("status"),
		Location: q.Get("location"),
		Search:   q.Get("search"),
		Page:     pageFromQuery(r),
	}
	if raw := q.Get("lotNumber"); raw != "" {
		n := int64(intQuery(r, "lotNumber"))
		if n < 1 {
			writeError(w, r, "invalid lotNumber filter", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		req.LotNumber = &n
	}

	result, err := h.svc.ListItems(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	items := make([]wireItem, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, wireItemFromDetail(&result.Items[i]))
	}
	type response struct {
		Items      []wireItem `json:"items"`
		Pagination wirePage   `json:"pagination"`
	}
	writeJSON(w, response{Items: items, Pagination: wirePageFrom(result.PageInfo)})
}

// getItem handles GET /api/items/{id}.
func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetItem(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		Item wireItem `json:"item"`
	}
	writeJSON(w, response{Item: wireItemFromDetail(result.Item)})
}

// itemHistory handles GET /api/items/{id}/history.
func (h *Handler) itemHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetItemHistory(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type wireChange struct {
		From      core.Status `json:"from"`
		To        core.Status `json:"to"`
		Note      string      `json:"note,omitempty"`
		ChangedAt time.Time   `json:"changedAt"`
	}
	history := make([]wireChange, 0, len(result.Entries))
	for _, entry := range result.Entries {
		history = append(history, wireChange{
			From:      entry.From,
			To:        entry.To,
			Note:      entry.Note,
			ChangedAt: entry.ChangedAt,
		})
	}

	type response struct {
		ItemID  int64        `json:"itemId"`
		History []wireChange `json:"history"`
	}
	writeJSON(w, response{ItemID: result.ItemID, History: history})
}

// assignLocation handles PATCH /api/items/{id}/location.
func (h *Handler) assignLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Location string `json:"location"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.AssignLocation(r.Context(), id, body.Location)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		Item wireItem `json:"item"`
	}
	writeJSON(w, response{Item: wireItemFrom(result.Item)})
}

// changeStatus handles PATCH /api/items/{id}/status.
func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.ChangeStatus(r.Context(), id, body.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		Item wireItem `json:"item"`
	}
	writeJSON(w, response{Item: wireItemFrom(result.Item)})
}

// markListed handles PATCH /api/items/{id}/listed.
func (h *Handler) markListed(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Date string `json:"date"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.MarkItemListed(r.Context(), id, body.Date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		Item          wireItem `json:"item"`
		StatusChanged bool     `json:"statusChanged"`
	}
	writeJSON(w, response{Item: wireItemFrom(result.Item), StatusChanged: result.Changed})
}

// markSold handles PATCH /api/items/{id}/sold.
func (h *Handler) markSold(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Date string `json:"date"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.MarkItemSold(r.Context(), id, body.Date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		Item          wireItem `json:"item"`
		StatusChanged bool     `json:"statusChanged"`
	}
	writeJSON(w, response{Item: wireItemFrom(result.Item), StatusChanged: result.Changed})
}

// removeItem handles DELETE /api/items/{id}.
func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.RemoveItem(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		ItemID  int64 `json:"itemId"`
		Deleted bool  `json:"deleted"`
	}
	writeJSON(w, response{ItemID: id, Deleted: true})
}

// bulkAssignLocation handles POST /api/items/bulk-location.
func (h *Handler) bulkAssignLocation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ItemIDs  []int64 `json:"itemIds"`
		Location string  `json:"location"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.BulkAssignLocation(r.Context(), body.ItemIDs, body.Location)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		UpdatedCount int               `json:"updatedCount"`
		Failures     []wireBulkFailure `json:"failures"`
	}
	writeJSON(w, response{
		UpdatedCount: result.UpdatedCount,
		Failures:     wireBulkFailures(result.Failures),
	})
}

// bulkUpdateDates handles POST /api/items/update-dates.
func (h *Handler) bulkUpdateDates(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ItemIDs  []int64 `json:"itemIds"`
		DateType string  `json:"dateType"`
		Date     string  `json:"date"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.BulkUpdateDates(r.Context(), body.ItemIDs, body.DateType, body.Date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		ItemsUpdated  int               `json:"itemsUpdated"`
		StatusChanges int               `json:"statusChanges"`
		Failures      []wireBulkFailure `json:"failures"`
	}
	writeJSON(w, response{
		ItemsUpdated:  result.ItemsUpdated,
		StatusChanges: result.StatusChanges,
		Failures:      wireBulkFailures(result.Failures),
	})
}
