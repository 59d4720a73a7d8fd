package domain

import "context"

type ListingStore interface {
	// Search paths
	FindByTextMatch(ctx context.Context, substr string, limit int) ([]Listing, error)
	FindNear(ctx context.Context, lat, lng float64, maxDistanceMeters, limit int) ([]Listing, error)

	// CRUD
	Insert(ctx context.Context, l Listing) error
	Get(ctx context.Context, id string) (Listing, error)
	Update(ctx context.Context, l Listing) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f ListingFilter) ([]Listing, error)
}

type Geocoder interface {
	// Geocode returns ErrGeocodeNotFound when the provider has no match.
	Geocode(ctx context.Context, address string) (GeocodeResult, error)
	Autocomplete(ctx context.Context, query string, limit int) ([]Suggestion, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
