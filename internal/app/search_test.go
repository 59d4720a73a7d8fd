package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"estate_listing/internal/app"
	"estate_listing/internal/domain"
	"estate_listing/internal/storage/memory"
)

func TestResolve_EmptyQueryIsValidationError(t *testing.T) {
	store := &fakeStore{}
	svc := app.NewSearchService(store, &fakeGeocoder{})

	for _, q := range []string{"", "   "} {
		_, err := svc.Resolve(context.Background(), q, 0)
		var ve *domain.ValidationError
		if !errors.As(err, &ve) || ve.Field != "query" {
			t.Fatalf("query %q: expected ValidationError, got %v", q, err)
		}
	}
	if store.textCalls != 0 {
		t.Fatalf("store must not be queried for invalid input")
	}
}

func TestResolve_NegativeRadiusIsValidationError(t *testing.T) {
	svc := app.NewSearchService(&fakeStore{}, &fakeGeocoder{})
	_, err := svc.Resolve(context.Background(), "villa", -5)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "radius" {
		t.Fatalf("expected radius ValidationError, got %v", err)
	}
}

func TestResolve_NameMatchSkipsGeocoding(t *testing.T) {
	store := &fakeStore{byText: []domain.Listing{at("2", "B", 0, 0), at("1", "A", 0, 0)}}
	geo := &fakeGeocoder{}
	svc := app.NewSearchService(store, geo)

	res, err := svc.Resolve(context.Background(), "x", 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if res.Type != domain.SearchName || res.Count() != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	// store order is kept as is
	if res.Listings[0].ID != "2" || res.Listings[1].ID != "1" {
		t.Fatalf("order changed: %+v", res.Listings)
	}
	if store.gotLimit != app.SearchLimit {
		t.Fatalf("limit = %d", store.gotLimit)
	}
	if geo.geocodes != 0 || store.nearCalls != 0 {
		t.Fatalf("phase 2 must not run after a name match")
	}
}

func TestResolve_LocationFallbackSortsByDistance(t *testing.T) {
	// store returns farthest first; resolver must re-sort
	store := &fakeStore{near: []domain.Listing{
		at("far", "Far", 10.05, 10.05),
		at("mid", "Mid", 10.01, 10.01),
		at("near", "Near", 10.001, 10.0),
	}}
	geo := &fakeGeocoder{results: map[string]domain.GeocodeResult{
		"downtown": {Lat: 10, Lng: 10, FormattedAddress: "Downtown"},
	}}
	svc := app.NewSearchService(store, geo)

	res, err := svc.Resolve(context.Background(), "downtown", 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if res.Type != domain.SearchLocation || res.Count() != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Radius != app.DefaultRadius || store.gotRadius != app.DefaultRadius {
		t.Fatalf("expected default radius, got %d/%d", res.Radius, store.gotRadius)
	}
	if res.Location == nil || res.Location.FormattedAddress != "Downtown" {
		t.Fatalf("missing resolved location: %+v", res.Location)
	}
	for i := 1; i < len(res.Ranked); i++ {
		if res.Ranked[i-1].Distance > res.Ranked[i].Distance {
			t.Fatalf("not sorted ascending: %+v", res.Ranked)
		}
	}
	if res.Ranked[0].ID != "near" || res.Ranked[2].ID != "far" {
		t.Fatalf("unexpected order: %s, %s, %s", res.Ranked[0].ID, res.Ranked[1].ID, res.Ranked[2].ID)
	}
	if want := fmt.Sprintf("%.2f", float64(res.Ranked[0].Distance)/1000); res.Ranked[0].DistanceKm != want {
		t.Fatalf("distanceKm = %s, want %s", res.Ranked[0].DistanceKm, want)
	}
}

func TestResolve_GeocodeFailureIsEmptyNotError(t *testing.T) {
	for name, gerr := range map[string]error{
		"not found": domain.ErrGeocodeNotFound,
		"transient": errors.New("dial tcp: i/o timeout"),
		"deadline":  context.DeadlineExceeded,
	} {
		t.Run(name, func(t *testing.T) {
			store := &fakeStore{}
			svc := app.NewSearchService(store, &fakeGeocoder{err: gerr})

			res, err := svc.Resolve(context.Background(), "nowhere", 0)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if res.Type != domain.SearchNone || res.Count() != 0 || res.Location != nil {
				t.Fatalf("expected empty result, got %+v", res)
			}
			if store.nearCalls != 0 {
				t.Fatalf("store must not be queried without a point")
			}
		})
	}
}

func TestResolve_StoreFailuresPropagateAsStoreError(t *testing.T) {
	boom := errors.New("connection refused")
	geo := &fakeGeocoder{results: map[string]domain.GeocodeResult{"q": {Lat: 1, Lng: 1}}}

	for name, store := range map[string]*fakeStore{
		"text": {textErr: boom},
		"near": {nearErr: boom},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := app.NewSearchService(store, geo).Resolve(context.Background(), "q", 0)
			var se *domain.StoreError
			if !errors.As(err, &se) || !errors.Is(err, boom) {
				t.Fatalf("expected StoreError wrapping cause, got %v", err)
			}
		})
	}
}

func TestResolve_EndToEndWithMemoryStore(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	for _, l := range []domain.Listing{at("1", "Sunset Villa", 10, 10), at("2", "Ocean View", 20, 20)} {
		if err := store.Insert(ctx, l); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	geo := &fakeGeocoder{results: map[string]domain.GeocodeResult{
		"123 Unknown Rd": {Lat: 10.001, Lng: 10.001, FormattedAddress: "123 Unknown Rd"},
	}}
	svc := app.NewSearchService(store, geo)

	res, err := svc.Resolve(ctx, "villa", 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if res.Type != domain.SearchName || res.Count() != 1 || res.Listings[0].Name != "Sunset Villa" {
		t.Fatalf("unexpected name result: %+v", res)
	}

	res, err = svc.Resolve(ctx, "123 Unknown Rd", 5000)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if res.Type != domain.SearchLocation || res.Radius != 5000 {
		t.Fatalf("unexpected location result: %+v", res)
	}
	// Ocean View is ~1500 km away and outside the radius
	if res.Count() != 1 || res.Ranked[0].Name != "Sunset Villa" || res.Ranked[0].Distance <= 0 {
		t.Fatalf("unexpected ranked listings: %+v", res.Ranked)
	}
}

func TestResolve_StoreReturnsBothWithinRadius(t *testing.T) {
	// the store is trusted to apply the radius; the resolver only ranks
	store := &fakeStore{near: []domain.Listing{at("2", "Ocean View", 20, 20), at("1", "Sunset Villa", 10, 10)}}
	geo := &fakeGeocoder{results: map[string]domain.GeocodeResult{"123 Unknown Rd": {Lat: 10.001, Lng: 10.001}}}

	res, err := app.NewSearchService(store, geo).Resolve(context.Background(), "123 Unknown Rd", 5000)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if res.Count() != 2 || res.Ranked[0].Name != "Sunset Villa" || res.Ranked[1].Name != "Ocean View" {
		t.Fatalf("unexpected order: %+v", res.Ranked)
	}
	for _, r := range res.Ranked {
		if r.Distance <= 0 {
			t.Fatalf("expected positive distance, got %+v", r)
		}
	}
}

func TestRank_DistanceFields(t *testing.T) {
	got := app.Rank(domain.GeocodeResult{Lat: 0, Lng: 0}, []domain.Listing{at("a", "A", 1, 0), at("b", "B", 0, 0)})
	if got[0].ID != "b" || got[0].Distance != 0 || got[0].DistanceKm != "0.00" {
		t.Fatalf("unexpected first: %+v", got[0])
	}
	// one degree of latitude on a 6371 km sphere
	if got[1].Distance != 111195 || got[1].DistanceKm != "111.19" {
		t.Fatalf("unexpected second: distance=%d km=%s", got[1].Distance, got[1].DistanceKm)
	}
}

func TestSuggest_ShortQuerySkipsProvider(t *testing.T) {
	geo := &fakeGeocoder{suggestions: []domain.Suggestion{{Label: "x"}}}
	svc := app.NewSearchService(&fakeStore{}, geo)

	for _, q := range []string{"", "ab", " ab "} {
		got := svc.Suggest(context.Background(), q)
		if got == nil || len(got) != 0 {
			t.Fatalf("query %q: expected empty non-nil slice, got %#v", q, got)
		}
	}
	if geo.suggests != 0 {
		t.Fatalf("provider called %d times", geo.suggests)
	}
}

func TestSuggest_CapsAtFive(t *testing.T) {
	var many []domain.Suggestion
	for i := 0; i < 8; i++ {
		many = append(many, domain.Suggestion{Label: fmt.Sprint(i), Value: fmt.Sprint(i), Lat: 40 + float64(i), Lng: -74})
	}
	svc := app.NewSearchService(&fakeStore{}, &fakeGeocoder{suggestions: many})

	got := svc.Suggest(context.Background(), "New York")
	if len(got) != app.MaxSuggestions {
		t.Fatalf("expected %d suggestions, got %d", app.MaxSuggestions, len(got))
	}
}

func TestSuggest_ProviderErrorIsEmpty(t *testing.T) {
	svc := app.NewSearchService(&fakeStore{}, &fakeGeocoder{suggestErr: errors.New("503")})
	got := svc.Suggest(context.Background(), "New York")
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %#v", got)
	}
}
