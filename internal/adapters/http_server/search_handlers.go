package httpserver

import (
	"net/http"
	"strconv"

	"estate_listing/internal/adapters/observability"
	"estate_listing/internal/domain"
)

type searchResponse struct {
	Success    bool                  `json:"success"`
	SearchType domain.SearchType     `json:"searchType,omitempty"`
	Count      int                   `json:"count"`
	Listings   any                   `json:"listings"`
	Location   *domain.GeocodeResult `json:"location,omitempty"`
	Radius     int                   `json:"radius,omitempty"`
	Message    string                `json:"message,omitempty"`
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	radius := 0
	if rs := q.Get("radius"); rs != "" {
		n, err := strconv.Atoi(rs)
		if err != nil || n <= 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid radius", "radius must be a positive integer")
			return
		}
		radius = n
	}

	res, err := h.Search.Resolve(r.Context(), q.Get("query"), radius)
	if err != nil {
		fail(w, r, err)
		return
	}
	observability.ObserveSearch(string(res.Type))

	out := searchResponse{Success: true, SearchType: res.Type, Count: res.Count()}
	switch res.Type {
	case domain.SearchName:
		out.Listings = res.Listings
	case domain.SearchLocation:
		out.Listings = res.Ranked
		out.Location = res.Location
		out.Radius = res.Radius
	default:
		out.Listings = []domain.Listing{}
		out.Message = "No listings found"
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) suggestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"suggestions": h.Search.Suggest(r.Context(), r.URL.Query().Get("query")),
	})
}
