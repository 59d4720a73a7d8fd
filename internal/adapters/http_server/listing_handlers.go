package httpserver

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"estate_listing/internal/domain"
)

func (h *Handlers) getListing(w http.ResponseWriter, r *http.Request) {
	l, err := h.Listings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}

	etag, body, err := calcETagAndBody(l)
	if err != nil {
		fail(w, r, err)
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write listing body")
	}
}

func (h *Handlers) listListings(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		fail(w, r, err)
		return
	}
	out, err := h.Listings.List(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) createListing(w http.ResponseWriter, r *http.Request) {
	d, ok := decodeDraft(w, r)
	if !ok {
		return
	}
	l, err := h.Listings.Create(r.Context(), UserID(r.Context()), d)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *Handlers) updateListing(w http.ResponseWriter, r *http.Request) {
	d, ok := decodeDraft(w, r)
	if !ok {
		return
	}
	l, err := h.Listings.Update(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), d)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *Handlers) deleteListing(w http.ResponseWriter, r *http.Request) {
	if err := h.Listings.Delete(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Listing has been deleted"})
}

func decodeDraft(w http.ResponseWriter, r *http.Request) (domain.ListingDraft, bool) {
	var d domain.ListingDraft
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&d); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "body must be a JSON listing")
		return d, false
	}
	return d, true
}

func parseFilter(q url.Values) (domain.ListingFilter, error) {
	f := domain.ListingFilter{
		SearchTerm: q.Get("searchTerm"),
		Offer:      q.Get("offer") == "true",
		Furnished:  q.Get("furnished") == "true",
		Parking:    q.Get("parking") == "true",
		Sort:       q.Get("sort"),
		Desc:       q.Get("order") != "asc",
	}
	switch t := q.Get("type"); t {
	case "", "all":
	case string(domain.ListingRent), string(domain.ListingSale):
		f.Type = domain.ListingType(t)
	default:
		return f, &domain.ValidationError{Field: "type", Reason: "must be all, rent or sale"}
	}

	var err error
	if f.Limit, err = intParam(q, "limit"); err != nil {
		return f, err
	}
	if f.StartIndex, err = intParam(q, "startIndex"); err != nil {
		return f, err
	}
	return f, nil
}

func intParam(q url.Values, k string) (int, error) {
	v := q.Get(k)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &domain.ValidationError{Field: k, Reason: "must be a non-negative integer"}
	}
	return n, nil
}
