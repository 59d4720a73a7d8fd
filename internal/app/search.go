package app

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"estate_listing/internal/domain"
	"estate_listing/internal/geo"
)

const (
	DefaultRadius  = 10000 // meters
	SearchLimit    = 50
	MinSuggestLen  = 3
	MaxSuggestions = 5
)

// SearchService resolves free-text queries against listing names and addresses,
// falling back to a radius search around the geocoded query.
type SearchService struct {
	store    domain.ListingStore
	geocoder domain.Geocoder
}

func NewSearchService(s domain.ListingStore, g domain.Geocoder) *SearchService {
	return &SearchService{store: s, geocoder: g}
}

// Resolve runs the text match first and only geocodes when it finds nothing.
// radius 0 means DefaultRadius. An unresolvable query is an empty result, not an error.
func (s *SearchService) Resolve(ctx context.Context, query string, radius int) (domain.SearchResult, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return domain.SearchResult{}, &domain.ValidationError{Field: "query", Reason: "search query is required"}
	}
	if radius < 0 {
		return domain.SearchResult{}, &domain.ValidationError{Field: "radius", Reason: "must be a positive integer"}
	}
	if radius == 0 {
		radius = DefaultRadius
	}

	byName, err := s.store.FindByTextMatch(ctx, q, SearchLimit)
	if err != nil {
		return domain.SearchResult{}, storeErr("find by text", err)
	}
	if len(byName) > 0 {
		log.Debug().Str("query", q).Int("count", len(byName)).Msg("search matched by name")
		return domain.SearchResult{Type: domain.SearchName, Listings: byName}, nil
	}

	point, err := s.geocoder.Geocode(ctx, q)
	if err != nil {
		ev := log.Info()
		if !errors.Is(err, domain.ErrGeocodeNotFound) {
			ev = log.Warn()
		}
		ev.Err(err).Str("query", q).Msg("search query could not be geocoded")
		return domain.SearchResult{}, nil
	}

	near, err := s.store.FindNear(ctx, point.Lat, point.Lng, radius, SearchLimit)
	if err != nil {
		return domain.SearchResult{}, storeErr("find near", err)
	}
	ranked := Rank(point, near)
	log.Debug().Str("query", q).Int("radius", radius).Int("count", len(ranked)).Msg("search matched by location")

	return domain.SearchResult{
		Type:     domain.SearchLocation,
		Ranked:   ranked,
		Location: &point,
		Radius:   radius,
	}, nil
}

// Rank annotates listings with their distance from origin and sorts them nearest
// first. The input order is not trusted.
func Rank(origin domain.GeocodeResult, ls []domain.Listing) []domain.RankedListing {
	out := make([]domain.RankedListing, 0, len(ls))
	for _, l := range ls {
		d := geo.Distance(origin.Lat, origin.Lng, l.Location.Lat(), l.Location.Lng())
		out = append(out, domain.RankedListing{
			Listing:    l,
			Distance:   int(math.Round(d)),
			DistanceKm: strconv.FormatFloat(d/1000, 'f', 2, 64),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}

// Suggest returns at most MaxSuggestions address completions. It never fails:
// short queries and provider errors both yield an empty slice.
func (s *SearchService) Suggest(ctx context.Context, query string) []domain.Suggestion {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < MinSuggestLen {
		return []domain.Suggestion{}
	}
	out, err := s.geocoder.Autocomplete(ctx, q, MaxSuggestions)
	if err != nil {
		log.Warn().Err(err).Str("query", q).Msg("autocomplete failed")
		return []domain.Suggestion{}
	}
	if out == nil {
		return []domain.Suggestion{}
	}
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

func storeErr(op string, err error) error {
	var se *domain.StoreError
	if errors.As(err, &se) {
		return err
	}
	return &domain.StoreError{Op: op, Err: err}
}
