package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"estate_listing/internal/domain"
)

const (
	DefaultPageSize = 9
	MaxPageSize     = 50
)

type ListingService struct {
	store    domain.ListingStore
	geocoder domain.Geocoder
	now      func() time.Time
	newID    func() string
}

func NewListingService(s domain.ListingStore, g domain.Geocoder) *ListingService {
	return &ListingService{store: s, geocoder: g, now: time.Now, newID: uuid.NewString}
}

func (s *ListingService) Create(ctx context.Context, owner string, d domain.ListingDraft) (domain.Listing, error) {
	if owner == "" {
		return domain.Listing{}, domain.ErrUnauthorized
	}
	if err := validateDraft(&d); err != nil {
		return domain.Listing{}, err
	}
	point, err := s.locate(ctx, d.Address)
	if err != nil {
		return domain.Listing{}, err
	}

	now := s.now().UTC()
	l := applyDraft(domain.Listing{ID: s.newID(), UserRef: owner, CreatedAt: now}, d)
	l.Address = point.FormattedAddress
	l.Location = domain.NewPoint(point.Lat, point.Lng)
	l.UpdatedAt = now

	if err := s.store.Insert(ctx, l); err != nil {
		return domain.Listing{}, storeErr("insert", err)
	}
	log.Info().Str("id", l.ID).Str("owner", owner).
		Floats64("coordinates", l.Location.Coordinates[:]).Msg("listing created")
	return l, nil
}

func (s *ListingService) Get(ctx context.Context, id string) (domain.Listing, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Listing{}, domain.ErrNotFound
	}
	l, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Listing{}, err
		}
		return domain.Listing{}, storeErr("get", err)
	}
	return l, nil
}

// Update replaces the caller-editable fields of an owned listing. The address is
// geocoded again only when it changed.
func (s *ListingService) Update(ctx context.Context, owner, id string, d domain.ListingDraft) (domain.Listing, error) {
	cur, err := s.owned(ctx, owner, id)
	if err != nil {
		return domain.Listing{}, err
	}
	if err := validateDraft(&d); err != nil {
		return domain.Listing{}, err
	}

	next := applyDraft(cur, d)
	if d.Address == cur.Address {
		next.Address, next.Location = cur.Address, cur.Location
	} else {
		point, err := s.locate(ctx, d.Address)
		if err != nil {
			return domain.Listing{}, err
		}
		next.Address = point.FormattedAddress
		next.Location = domain.NewPoint(point.Lat, point.Lng)
	}
	next.UpdatedAt = s.now().UTC()

	if err := s.store.Update(ctx, next); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Listing{}, err
		}
		return domain.Listing{}, storeErr("update", err)
	}
	return next, nil
}

func (s *ListingService) Delete(ctx context.Context, owner, id string) error {
	if _, err := s.owned(ctx, owner, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return storeErr("delete", err)
	}
	log.Info().Str("id", id).Str("owner", owner).Msg("listing deleted")
	return nil
}

// List clamps paging and sort to supported values before querying the store.
func (s *ListingService) List(ctx context.Context, f domain.ListingFilter) ([]domain.Listing, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.StartIndex < 0 {
		f.StartIndex = 0
	}
	if f.Sort != "regularPrice" {
		f.Sort = "createdAt"
	}
	f.SearchTerm = strings.TrimSpace(f.SearchTerm)

	out, err := s.store.List(ctx, f)
	if err != nil {
		return nil, storeErr("list", err)
	}
	if out == nil {
		out = []domain.Listing{}
	}
	return out, nil
}

func (s *ListingService) owned(ctx context.Context, owner, id string) (domain.Listing, error) {
	if owner == "" {
		return domain.Listing{}, domain.ErrUnauthorized
	}
	l, err := s.Get(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	if l.UserRef != owner {
		return domain.Listing{}, domain.ErrForbidden
	}
	return l, nil
}

func (s *ListingService) locate(ctx context.Context, address string) (domain.GeocodeResult, error) {
	point, err := s.geocoder.Geocode(ctx, address)
	if errors.Is(err, domain.ErrGeocodeNotFound) {
		return domain.GeocodeResult{}, &domain.ValidationError{Field: "address", Reason: "address could not be located"}
	}
	if err != nil {
		return domain.GeocodeResult{}, fmt.Errorf("geocode address: %w", err)
	}
	if point.FormattedAddress == "" {
		point.FormattedAddress = address
	}
	return point, nil
}

func validateDraft(d *domain.ListingDraft) error {
	d.Name = strings.TrimSpace(d.Name)
	d.Address = strings.TrimSpace(d.Address)
	switch {
	case d.Name == "":
		return &domain.ValidationError{Field: "name", Reason: "is required"}
	case d.Address == "":
		return &domain.ValidationError{Field: "address", Reason: "is required"}
	case d.Type != domain.ListingRent && d.Type != domain.ListingSale:
		return &domain.ValidationError{Field: "type", Reason: "must be rent or sale"}
	case d.RegularPrice < 0 || d.DiscountPrice < 0:
		return &domain.ValidationError{Field: "price", Reason: "must not be negative"}
	case d.Offer && d.DiscountPrice > d.RegularPrice:
		return &domain.ValidationError{Field: "discountPrice", Reason: "must not exceed regularPrice"}
	case d.Bedrooms < 0 || d.Bathrooms < 0:
		return &domain.ValidationError{Field: "rooms", Reason: "must not be negative"}
	}
	return nil
}

func applyDraft(l domain.Listing, d domain.ListingDraft) domain.Listing {
	l.Name = d.Name
	l.Description = d.Description
	l.Address = d.Address
	l.RegularPrice = d.RegularPrice
	l.DiscountPrice = d.DiscountPrice
	l.Bathrooms = d.Bathrooms
	l.Bedrooms = d.Bedrooms
	l.Furnished = d.Furnished
	l.Parking = d.Parking
	l.Type = d.Type
	l.Offer = d.Offer
	l.ImageURLs = append([]string(nil), d.ImageURLs...)
	return l
}
