package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estate_listing/internal/domain"
	"estate_listing/internal/storage/memory"
)

func seed(t *testing.T, s *memory.Store, ls ...domain.Listing) {
	t.Helper()
	for _, l := range ls {
		require.NoError(t, s.Insert(context.Background(), l))
	}
}

func listing(id, name, addr string, lat, lng float64) domain.Listing {
	return domain.Listing{ID: id, Name: name, Address: addr, Type: domain.ListingRent, Location: domain.NewPoint(lat, lng)}
}

func TestFindByTextMatch_CaseInsensitiveNameOrAddress(t *testing.T) {
	s := memory.New()
	seed(t, s,
		listing("1", "Sunset Villa", "1 Beach Rd", 10, 10),
		listing("2", "Ocean View", "2 Villa Lane", 20, 20),
		listing("3", "City Loft", "3 Main St", 30, 30),
	)

	got, err := s.FindByTextMatch(context.Background(), "VILLA", 50)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)

	got, err = s.FindByTextMatch(context.Background(), "villa", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFindNear_FiltersByRadiusAndOrdersNearestFirst(t *testing.T) {
	s := memory.New()
	seed(t, s,
		listing("far", "Far", "x", 10.05, 10.05),   // ~7.8 km
		listing("near", "Near", "y", 10.001, 10.0), // ~111 m
		listing("out", "Out", "z", 20, 20),         // ~1500 km
	)

	got, err := s.FindNear(context.Background(), 10, 10, 10_000, 50)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "near", got[0].ID)
	assert.Equal(t, "far", got[1].ID)

	got, err = s.FindNear(context.Background(), 10, 10, 1_000, 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "near", got[0].ID)
}

func TestUpdateReindexesLocation(t *testing.T) {
	s := memory.New()
	seed(t, s, listing("1", "Moving", "a", 10, 10))

	l, err := s.Get(context.Background(), "1")
	require.NoError(t, err)
	l.Location = domain.NewPoint(40, 40)
	require.NoError(t, s.Update(context.Background(), l))

	got, err := s.FindNear(context.Background(), 10, 10, 5_000, 50)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.FindNear(context.Background(), 40, 40, 5_000, 50)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestDelete(t *testing.T) {
	s := memory.New()
	seed(t, s, listing("1", "Gone", "a", 10, 10))

	require.NoError(t, s.Delete(context.Background(), "1"))
	_, err := s.Get(context.Background(), "1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.Delete(context.Background(), "1"), domain.ErrNotFound)

	got, err := s.FindNear(context.Background(), 10, 10, 5_000, 50)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInsertDuplicateIsStoreError(t *testing.T) {
	s := memory.New()
	seed(t, s, listing("1", "A", "a", 1, 1))

	err := s.Insert(context.Background(), listing("1", "B", "b", 2, 2))
	var se *domain.StoreError
	assert.ErrorAs(t, err, &se)
}

func TestList_FiltersSortAndPaging(t *testing.T) {
	s := memory.New()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := listing("a", "Cheap flat", "a", 1, 1)
	a.RegularPrice, a.CreatedAt, a.Offer = 100, base, true
	b := listing("b", "Big house", "b", 1, 1)
	b.RegularPrice, b.CreatedAt, b.Type, b.Parking = 900, base.Add(time.Hour), domain.ListingSale, true
	c := listing("c", "Cheap room", "c", 1, 1)
	c.RegularPrice, c.CreatedAt, c.Offer = 50, base.Add(2*time.Hour), true
	seed(t, s, a, b, c)

	got, err := s.List(context.Background(), domain.ListingFilter{Sort: "createdAt", Desc: true, Limit: 9})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, ids(got))

	got, err = s.List(context.Background(), domain.ListingFilter{SearchTerm: "cheap", Offer: true, Sort: "regularPrice", Limit: 9})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, ids(got))

	got, err = s.List(context.Background(), domain.ListingFilter{Type: domain.ListingSale, Parking: true, Limit: 9})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(got))

	got, err = s.List(context.Background(), domain.ListingFilter{Sort: "createdAt", Limit: 1, StartIndex: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(got))

	got, err = s.List(context.Background(), domain.ListingFilter{StartIndex: 10})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func ids(ls []domain.Listing) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.ID)
	}
	return out
}
