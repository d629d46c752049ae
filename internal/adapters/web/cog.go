package web

import (
	"net/http"
	"time"

	"github.com/yurrJC/mercania-wms-sub000/internal/app"
	"github.com/yurrJC/mercania-wms-sub000/internal/core"
)

type wireCOGRecord struct {
	RecordID             int64     `json:"recordId"`
	StartDate            string    `json:"startDate"`
	EndDate              string    `json:"endDate"`
	TotalSpentMinorUnits int64     `json:"totalSpentMinorUnits"`
	ItemsUpdated         int       `json:"itemsUpdated"`
	AveragePerItem       int64     `json:"averagePerItem"`
	AppliedAt            time.Time `json:"appliedAt"`
}

func wireCOGRecordFrom(record *core.COGRecord) wireCOGRecord {
	return wireCOGRecord{
		RecordID:             record.ID,
		StartDate:            record.StartDate,
		EndDate:              record.EndDate,
		TotalSpentMinorUnits: record.TotalMinor,
		ItemsUpdated:         record.ItemCount,
		AveragePerItem:       record.AverageMinor,
		AppliedAt:            record.AppliedAt,
	}
}

// applyCOG handles POST /api/cog/apply.
func (h *Handler) applyCOG(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StartDate            string `json:"startDate"`
		EndDate              string `json:"endDate"`
		TotalSpentMinorUnits int64  `json:"totalSpentMinorUnits"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.ApplyCOG(r.Context(), app.ApplyCOGRequest{
		StartDate:  body.StartDate,
		EndDate:    body.EndDate,
		TotalMinor: body.TotalSpentMinorUnits,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSONStatus(w, http.StatusCreated, wireCOGRecordFrom(result.Record))
}

// listCOGRecords handles GET /api/cog/records.
func (h *Handler) listCOGRecords(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListCOGRecords(r.Context(), pageFromQuery(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	records := make([]wireCOGRecord, 0, len(result.Records))
	for i := range result.Records {
		records = append(records, wireCOGRecordFrom(&result.Records[i]))
	}

	type response struct {
		Records    []wireCOGRecord `json:"records"`
		Pagination wirePage        `json:"pagination"`
	}
	writeJSON(w, response{Records: records, Pagination: wirePageFrom(result.PageInfo)})
}

// deleteCOGRecord handles DELETE /api/cog/records/{id}.
func (h *Handler) deleteCOGRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.DeleteCOGRecord(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		ItemsReset int `json:"itemsReset"`
	}
	writeJSON(w, response{ItemsReset: result.ItemsReset})
}
