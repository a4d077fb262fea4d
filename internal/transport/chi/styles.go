package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	chirouter "github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/stylesearch/internal/domain/style"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CreateStyle handles POST /api/v1/styles.
func (s *Server) CreateStyle(w http.ResponseWriter, r *http.Request) {
	var req styleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	st, err := style.New(req.toAttributes())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	saved, err := s.styles.Create(r.Context(), st)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, styleToJSON(saved))
}

// ListStyles handles GET /api/v1/styles?offset=&limit=.
func (s *Server) ListStyles(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := s.styles.List(r.Context(), offset, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	total, err := s.styles.Count(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, styleListJSON{
		Items:  stylesToJSON(items),
		Total:  total,
		Offset: offset,
		Limit:  limit,
	})
}

// GetStyle handles GET /api/v1/styles/{id}.
func (s *Server) GetStyle(w http.ResponseWriter, r *http.Request) {
	id, ok := styleID(w, r)
	if !ok {
		return
	}
	st, err := s.styles.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, styleToJSON(st))
}

// UpdateStyle handles PUT /api/v1/styles/{id}. The body replaces every attribute, tags included.
func (s *Server) UpdateStyle(w http.ResponseWriter, r *http.Request) {
	id, ok := styleID(w, r)
	if !ok {
		return
	}
	var req styleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	st, err := style.New(req.toAttributes())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	saved, err := s.styles.Update(r.Context(), id, st)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, styleToJSON(saved))
}

// DeleteStyle handles DELETE /api/v1/styles/{id}.
func (s *Server) DeleteStyle(w http.ResponseWriter, r *http.Request) {
	id, ok := styleID(w, r)
	if !ok {
		return
	}
	if err := s.styles.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetTags handles PUT /api/v1/styles/{id}/tags.
func (s *Server) SetTags(w http.ResponseWriter, r *http.Request) {
	id, ok := styleID(w, r)
	if !ok {
		return
	}
	var req tagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	st, err := s.styles.SetTags(r.Context(), id, req.Tags)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, styleToJSON(st))
}

// AddTags handles POST /api/v1/styles/{id}/tags.
func (s *Server) AddTags(w http.ResponseWriter, r *http.Request) {
	id, ok := styleID(w, r)
	if !ok {
		return
	}
	var req tagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Tags) == 0 {
		writeError(w, http.StatusBadRequest, "tags are required")
		return
	}
	st, err := s.styles.AddTags(r.Context(), id, req.Tags)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, styleToJSON(st))
}

// RemoveTags handles DELETE /api/v1/styles/{id}/tags.
// A body with tags removes those; an empty body clears every tag.
func (s *Server) RemoveTags(w http.ResponseWriter, r *http.Request) {
	id, ok := styleID(w, r)
	if !ok {
		return
	}
	var req tagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	var (
		st  style.Style
		err error
	)
	if len(req.Tags) == 0 {
		st, err = s.styles.ClearTags(r.Context(), id)
	} else {
		st, err = s.styles.RemoveTags(r.Context(), id, req.Tags)
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, styleToJSON(st))
}

func styleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chirouter.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid style id")
		return 0, false
	}
	return id, true
}

func pageParams(r *http.Request) (offset, limit int, err error) {
	limit = defaultPageSize
	q := r.URL.Query()
	if v := q.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			return 0, 0, errors.New("offset must be a non-negative integer")
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit <= 0 {
			return 0, 0, errors.New("limit must be a positive integer")
		}
	}
	return offset, min(limit, maxPageSize), nil
}
