package web

import (
	"net/http"
	"time"

	"github.com/yurrJC/mercania-wms-sub000/internal/core"
)

type wireLotMember struct {
	ItemID   int64       `json:"itemId"`
	Title    string      `json:"title"`
	Status   core.Status `json:"status"`
	Location string      `json:"location,omitempty"`
}

type wireLotSummary struct {
	LotNumber    int64     `json:"lotNumber"`
	ItemCount    int       `json:"itemCount"`
	SampleTitles []string  `json:"sampleTitles"`
	CreatedAt    time.Time `json:"createdAt"`
}

// createLot handles POST /api/lots.
func (h *Handler) createLot(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ItemIDs []int64 `json:"itemIds"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.CreateLot(r.Context(), body.ItemIDs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		LotNumber int64     `json:"lotNumber"`
		ItemCount int       `json:"itemCount"`
		CreatedAt time.Time `json:"createdAt"`
	}
	writeJSONStatus(w, http.StatusCreated, response{
		LotNumber: result.Lot.LotNumber,
		ItemCount: result.ItemCount,
		CreatedAt: result.Lot.CreatedAt,
	})
}

// listLots handles GET /api/lots.
func (h *Handler) listLots(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListLots(r.Context(), pageFromQuery(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	lots := make([]wireLotSummary, 0, len(result.Lots))
	for _, lot := range result.Lots {
		titles := lot.SampleTitles
		if titles == nil {
			titles = []string{}
		}
		lots = append(lots, wireLotSummary{
			LotNumber:    lot.LotNumber,
			ItemCount:    lot.ItemCount,
			SampleTitles: titles,
			CreatedAt:    lot.CreatedAt,
		})
	}

	type response struct {
		Lots       []wireLotSummary `json:"lots"`
		Pagination wirePage         `json:"pagination"`
	}
	writeJSON(w, response{Lots: lots, Pagination: wirePageFrom(result.PageInfo)})
}

// getLot handles GET /api/lots/{lotNumber}.
func (h *Handler) getLot(w http.ResponseWriter, r *http.Request) {
	lotNumber, ok := idParam(w, r, "lotNumber")
	if !ok {
		return
	}
	result, err := h.svc.GetLot(r.Context(), lotNumber)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	members := make([]wireLotMember, 0, len(result.Lot.Members))
	for _, m := range result.Lot.Members {
		members = append(members, wireLotMember{
			ItemID:   m.ItemID,
			Title:    m.Title,
			Status:   m.Status,
			Location: m.Location,
		})
	}

	type response struct {
		LotNumber int64           `json:"lotNumber"`
		ItemCount int             `json:"itemCount"`
		Members   []wireLotMember `json:"members"`
		CreatedAt time.Time       `json:"createdAt"`
	}
	writeJSON(w, response{
		LotNumber: result.Lot.LotNumber,
		ItemCount: len(members),
		Members:   members,
		CreatedAt: result.Lot.CreatedAt,
	})
}

// deleteLot handles DELETE /api/lots/{lotNumber}.
func (h *Handler) deleteLot(w http.ResponseWriter, r *http.Request) {
	lotNumber, ok := idParam(w, r, "lotNumber")
	if !ok {
		return
	}
	result, err := h.svc.DeleteLot(r.Context(), lotNumber)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		ItemsReleased int `json:"itemsReleased"`
	}
	writeJSON(w, response{ItemsReleased: result.ItemsReleased})
}

// addToLot handles POST /api/lots/{lotNumber}/add.
func (h *Handler) addToLot(w http.ResponseWriter, r *http.Request) {
	lotNumber, ok := idParam(w, r, "lotNumber")
	if !ok {
		return
	}
	var body struct {
		ItemID int64 `json:"itemId"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.AddToLot(r.Context(), lotNumber, body.ItemID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		LotNumber int64 `json:"lotNumber"`
		ItemCount int   `json:"itemCount"`
	}
	writeJSON(w, response{LotNumber: result.LotNumber, ItemCount: result.ItemCount})
}

// removeFromLot handles POST /api/lots/{lotNumber}/remove.
func (h *Handler) removeFromLot(w http.ResponseWriter, r *http.Request) {
	lotNumber, ok := idParam(w, r, "lotNumber")
	if !ok {
		return
	}
	var body struct {
		ItemID int64 `json:"itemId"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.RemoveFromLot(r.Context(), lotNumber, body.ItemID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		Removed    bool `json:"removed"`
		LotDeleted bool `json:"lotDeleted"`
	}
	writeJSON(w, response{Removed: result.Removed, LotDeleted: result.LotDeleted})
}
