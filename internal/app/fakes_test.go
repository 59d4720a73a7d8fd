package app_test

import (
	"context"
	"sync"

	"estate_listing/internal/domain"
)

// ---- fakes ----

type fakeStore struct {
	byText    []domain.Listing
	near      []domain.Listing
	textErr   error
	nearErr   error
	textCalls int
	nearCalls int
	gotRadius int
	gotLimit  int
}

func (f *fakeStore) FindByTextMatch(ctx context.Context, s string, limit int) ([]domain.Listing, error) {
	f.textCalls++
	f.gotLimit = limit
	return f.byText, f.textErr
}
func (f *fakeStore) FindNear(ctx context.Context, lat, lng float64, r, limit int) ([]domain.Listing, error) {
	f.nearCalls++
	f.gotRadius = r
	return f.near, f.nearErr
}
func (f *fakeStore) Insert(ctx context.Context, l domain.Listing) error { return nil }
func (f *fakeStore) Get(ctx context.Context, id string) (domain.Listing, error) {
	return domain.Listing{}, domain.ErrNotFound
}
func (f *fakeStore) Update(ctx context.Context, l domain.Listing) error { return nil }
func (f *fakeStore) Delete(ctx context.Context, id string) error        { return nil }
func (f *fakeStore) List(ctx context.Context, q domain.ListingFilter) ([]domain.Listing, error) {
	return nil, nil
}

type fakeGeocoder struct {
	mu          sync.Mutex
	results     map[string]domain.GeocodeResult
	err         error
	suggestions []domain.Suggestion
	suggestErr  error
	geocodes    int
	suggests    int
}

func (g *fakeGeocoder) Geocode(ctx context.Context, address string) (domain.GeocodeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.geocodes++
	if g.err != nil {
		return domain.GeocodeResult{}, g.err
	}
	r, ok := g.results[address]
	if !ok {
		return domain.GeocodeResult{}, domain.ErrGeocodeNotFound
	}
	return r, nil
}

func (g *fakeGeocoder) Autocomplete(ctx context.Context, q string, limit int) ([]domain.Suggestion, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.suggests++
	return g.suggestions, g.suggestErr
}

func at(id, name string, lat, lng float64) domain.Listing {
	return domain.Listing{ID: id, Name: name, Address: name + " address", Type: domain.ListingRent, Location: domain.NewPoint(lat, lng)}
}
