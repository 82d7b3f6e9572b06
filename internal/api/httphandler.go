package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"tokend/internal/ident"
	"tokend/internal/pub"
	"tokend/internal/token"
	"tokend/internal/types"
)

// Error codes carried in the response body, alongside the HTTP status.
const (
	CodeNotFound     = "not_found"
	CodeExpired      = "expired"
	CodeInvalidOwner = "invalid_owner"
	CodeBadRequest   = "bad_request"
	CodeInternal     = "internal"
)

type Handler struct {
	Svc    *token.Service
	Events *pub.Events
}

func NewHandler(svc *token.Service, events *pub.Events) *Handler {
	return &Handler{Svc: svc, Events: events}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tokens/{id}", h.handleGet)
	mux.HandleFunc("POST /api/tokens", h.handleCreate)
	mux.HandleFunc("POST /api/tokens/{id}", h.handleCreateOrUpdate)
	mux.HandleFunc("DELETE /api/tokens/{id}", h.handleDelete)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// tokenResponse is the wire form of a record: canonical uppercase hex id
// and whole-second UNIX expiry.
type tokenResponse struct {
	ID        string `json:"id"`
	Owner     string `json:"owner"`
	ExpiresAt int64  `json:"expires_at"`
}

// tokenRequest is the create/update payload. ExpiresAt is optional UNIX
// seconds; absent fields are left untouched on update.
type tokenRequest struct {
	Owner     string `json:"owner"`
	ExpiresAt *int64 `json:"expires_at"`
}

// apiError is the error body: a stable code plus optional details.
type apiError struct {
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeOutcomeError(w, err)
		return
	}
	writeRecord(w, http.StatusOK, rec)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := readInput(w, r)
	if !ok {
		return
	}
	rec, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		writeOutcomeError(w, err)
		return
	}
	h.Events.Emit(r.Context(), pub.EventCreated, rec)
	writeRecord(w, http.StatusCreated, rec)
}

func (h *Handler) handleCreateOrUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, ok := readInput(w, r)
	if !ok {
		return
	}
	rec, created, err := h.Svc.CreateOrUpdate(r.Context(), id, in)
	if err != nil {
		writeOutcomeError(w, err)
		return
	}
	if created {
		h.Events.Emit(r.Context(), pub.EventCreated, rec)
		writeRecord(w, http.StatusCreated, rec)
		return
	}
	h.Events.Emit(r.Context(), pub.EventUpdated, rec)
	writeRecord(w, http.StatusOK, rec)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, err := h.Svc.Delete(r.Context(), id)
	if err != nil {
		writeOutcomeError(w, err)
		return
	}
	h.Events.Emit(r.Context(), pub.EventDeleted, rec)
	w.WriteHeader(http.StatusOK)
}

// pathID parses the {id} path segment. A malformed id is rejected with
// 400 before any lookup runs.
func pathID(w http.ResponseWriter, r *http.Request) (ident.ID, bool) {
	id, err := ident.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, apiError{Code: CodeBadRequest, Details: err.Error()})
		return ident.ID{}, false
	}
	return id, true
}

func readInput(w http.ResponseWriter, r *http.Request) (token.Input, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, apiError{Code: CodeBadRequest, Details: "read error"})
		return token.Input{}, false
	}
	defer func() {
		_ = r.Body.Close()
	}()
	var req tokenRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, apiError{Code: CodeBadRequest, Details: "invalid json"})
			return token.Input{}, false
		}
	}
	in := token.Input{Owner: req.Owner}
	if req.ExpiresAt != nil {
		t := time.Unix(*req.ExpiresAt, 0).UTC()
		in.ExpiresAt = &t
	}
	return in, true
}

func writeRecord(w http.ResponseWriter, code int, rec types.TokenRecord) {
	writeJSON(w, code, tokenResponse{
		ID:        rec.ID.String(),
		Owner:     rec.Owner,
		ExpiresAt: rec.ExpiresAt.Unix(),
	})
}

// writeOutcomeError maps the service error taxonomy onto HTTP statuses:
// not found → 404, expired → 410 Gone, invalid owner → 400, anything
// else → 500.
func writeOutcomeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		writeError(w, http.StatusNotFound, apiError{Code: CodeNotFound})
	case errors.Is(err, types.ErrExpired):
		writeError(w, http.StatusGone, apiError{Code: CodeExpired})
	case errors.Is(err, types.ErrInvalidOwner):
		writeError(w, http.StatusBadRequest, apiError{Code: CodeInvalidOwner})
	default:
		writeError(w, http.StatusInternalServerError, apiError{Code: CodeInternal})
	}
}

func writeError(w http.ResponseWriter, code int, e apiError) {
	if err := writeJSON(w, code, e); err != nil {
		http.Error(w, "failed to write response", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}
