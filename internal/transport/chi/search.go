package chi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/request"
)

// Search handles POST /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body searchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	filters, err := filter.FromMap(body.Filters)
	if err != nil {
		s.handleDomainError(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err))
		return
	}
	req, err := request.New(body.Query, body.TopK, filters)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:        resp.Query,
		Results:      stylesToJSON(resp.Styles),
		SearchMethod: string(resp.Method),
		Count:        resp.Count,
		Message:      searchMessage(resp.Count, resp.Query),
	})
}

func searchMessage(count int, query string) string {
	if count == 0 {
		return "Sorry, I couldn't find any hairstyles matching your description. " +
			"Try describing the look you want in different words."
	}
	return fmt.Sprintf("I found %d hairstyles that match your request for '%s'. Check out the results below!",
		count, query)
}
