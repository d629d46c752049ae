package web

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/yurrJC/mercania-wms-sub000/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONStatus writes a JSON response with an explicit status code.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// httpStatusFor maps a domain error kind onto its transport status.
func httpStatusFor(kind core.ErrorKind) int {
	switch kind {
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindInvalidTransition,
		core.KindAlreadyMember,
		core.KindNotAMember,
		core.KindConcurrentModification:
		return http.StatusConflict
	case core.KindInvalidRange,
		core.KindEmptySelection,
		core.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError maps a service failure onto the error contract. Domain
// errors carry their own kind; anything else is logged and reported as a
// plain 500 so internals never leak to clients.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if kind, ok := core.KindOf(err); ok {
		writeError(w, r, err.Error(), string(kind), httpStatusFor(kind))
		return
	}
	log.Printf("internal error on %s %s: %v", r.Method, r.URL.Path, err)
	writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
}
