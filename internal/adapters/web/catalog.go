package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yurrJC/mercania-wms-sub000/internal/app"
	"github.com/yurrJC/mercania-wms-sub000/internal/core"

	"github.com/invopop/jsonschema"
)

type wireCatalogRecord struct {
	RecordID    int64            `json:"recordId"`
	Identifier  string           `json:"identifier,omitempty"`
	Format      core.MediaFormat `json:"format"`
	Title       string           `json:"title"`
	Creator     string           `json:"creator,omitempty"`
	Publisher   string           `json:"publisher,omitempty"`
	ReleaseYear *int             `json:"releaseYear,omitempty"`
	Details     json.RawMessage  `json:"details,omitempty"`
	HasCover    bool             `json:"hasCover"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

func wireCatalogRecordFrom(record *core.CatalogRecord) wireCatalogRecord {
	return wireCatalogRecord{
		RecordID:    record.ID,
		Identifier:  record.Identifier,
		Format:      record.Format,
		Title:       record.Title,
		Creator:     record.Creator,
		Publisher:   record.Publisher,
		ReleaseYear: record.ReleaseYear,
		Details:     record.Details,
		HasCover:    record.CoverKey != "",
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

// searchCatalog handles GET /api/catalog.
func (h *Handler) searchCatalog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.svc.SearchCatalog(r.Context(), app.CatalogSearchRequest{
		Query:  q.Get("search"),
		Format: q.Get("format"),
		Page:   pageFromQuery(r),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	records := make([]wireCatalogRecord, 0, len(result.Records))
	for i := range result.Records {
		records = append(records, wireCatalogRecordFrom(&result.Records[i]))
	}

	type response struct {
		Records    []wireCatalogRecord `json:"records"`
		Pagination wirePage            `json:"pagination"`
	}
	writeJSON(w, response{Records: records, Pagination: wirePageFrom(result.PageInfo)})
}

// getCatalogRecord handles GET /api/catalog/{id}.
func (h *Handler) getCatalogRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetCatalogRecord(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		Record wireCatalogRecord `json:"record"`
	}
	writeJSON(w, response{Record: wireCatalogRecordFrom(result.Record)})
}

// uploadCover handles PUT /api/catalog/{id}/cover. The image travels as
// the raw request body; its type comes from the Content-Type header.
func (h *Handler) uploadCover(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	contentType := r.Header.Get("Content-Type")
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}

	r.Body = http.MaxBytesReader(w, r.Body, coverMaxBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "cover image too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, r, "failed to read request body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.UploadCover(r.Context(), id, data, contentType)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		Record wireCatalogRecord `json:"record"`
	}
	writeJSON(w, response{Record: wireCatalogRecordFrom(result.Record)})
}

// getCover handles GET /api/catalog/{id}/cover, serving the image bytes.
func (h *Handler) getCover(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetCover(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(result.Data)
}

// listFormats handles GET /api/formats.
func (h *Handler) listFormats(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListFormats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type wireFormat struct {
		Format core.MediaFormat   `json:"format"`
		Schema *jsonschema.Schema `json:"schema"`
	}
	formats := make([]wireFormat, 0, len(result.Formats))
	for _, f := range result.Formats {
		formats = append(formats, wireFormat{Format: f.Format, Schema: f.Schema})
	}

	type response struct {
		Formats []wireFormat `json:"formats"`
	}
	writeJSON(w, response{Formats: formats})
}
