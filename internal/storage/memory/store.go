// Package memory is a process-local ListingStore backed by an R-tree. It is used for
// local development (STORE_DRIVER=memory) and tests; data does not survive restarts.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/dhconnelly/rtreego"

	"estate_listing/internal/domain"
	"estate_listing/internal/geo"
)

const (
	tolerance   = 1e-9
	minChildren = 25
	maxChildren = 50
)

// item indexes a listing by (lng, lat).
type item struct {
	id   string
	rect *rtreego.Rect
}

func (it *item) Bounds() *rtreego.Rect { return it.rect }

type Store struct {
	mu    sync.RWMutex
	tree  *rtreego.Rtree
	rows  map[string]domain.Listing
	items map[string]*item
	order []string // insertion order
}

func New() *Store {
	return &Store{
		tree:  rtreego.NewTree(2, minChildren, maxChildren),
		rows:  map[string]domain.Listing{},
		items: map[string]*item{},
	}
}

func (s *Store) Insert(_ context.Context, l domain.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[l.ID]; ok {
		return &domain.StoreError{Op: "insert", Err: errDuplicate(l.ID)}
	}
	s.rows[l.ID] = cloneListing(l)
	s.index(l)
	s.order = append(s.order, l.ID)
	return nil
}

func (s *Store) Get(_ context.Context, id string) (domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.rows[id]
	if !ok {
		return domain.Listing{}, domain.ErrNotFound
	}
	return cloneListing(l), nil
}

func (s *Store) Update(_ context.Context, l domain.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[l.ID]; !ok {
		return domain.ErrNotFound
	}
	s.unindex(l.ID)
	s.rows[l.ID] = cloneListing(l)
	s.index(l)
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return domain.ErrNotFound
	}
	s.unindex(id)
	delete(s.rows, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) FindByTextMatch(_ context.Context, substr string, limit int) ([]domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(substr)
	var out []domain.Listing
	for _, id := range s.order {
		l := s.rows[id]
		if strings.Contains(strings.ToLower(l.Name), needle) ||
			strings.Contains(strings.ToLower(l.Address), needle) {
			out = append(out, cloneListing(l))
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *Store) FindNear(_ context.Context, lat, lng float64, maxDistanceMeters, limit int) ([]domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dLat, dLng := geo.BoundingBox(lat, float64(maxDistanceMeters))
	bounds, err := rtreego.NewRect(
		rtreego.Point{lng - dLng, lat - dLat},
		[]float64{2 * dLng, 2 * dLat},
	)
	if err != nil {
		return nil, &domain.StoreError{Op: "find near", Err: err}
	}

	type hit struct {
		l domain.Listing
		d float64
	}
	var hits []hit
	for _, sp := range s.tree.SearchIntersect(bounds) {
		it, ok := sp.(*item)
		if !ok {
			continue
		}
		l := s.rows[it.id]
		d := geo.Distance(lat, lng, l.Location.Lat(), l.Location.Lng())
		if d <= float64(maxDistanceMeters) {
			hits = append(hits, hit{l: l, d: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].d < hits[j].d })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]domain.Listing, 0, len(hits))
	for _, h := range hits {
		out = append(out, cloneListing(h.l))
	}
	return out, nil
}

func (s *Store) List(_ context.Context, f domain.ListingFilter) ([]domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	term := strings.ToLower(f.SearchTerm)
	var out []domain.Listing
	for _, id := range s.order {
		l := s.rows[id]
		switch {
		case term != "" && !strings.Contains(strings.ToLower(l.Name), term),
			f.Offer && !l.Offer,
			f.Furnished && !l.Furnished,
			f.Parking && !l.Parking,
			f.Type != "" && l.Type != f.Type:
			continue
		}
		out = append(out, cloneListing(l))
	}

	less := func(a, b domain.Listing) bool { return a.CreatedAt.Before(b.CreatedAt) }
	if f.Sort == "regularPrice" {
		less = func(a, b domain.Listing) bool { return a.RegularPrice < b.RegularPrice }
	}
	sort.SliceStable(out, func(i, j int) bool {
		if f.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})

	if f.StartIndex >= len(out) {
		return nil, nil
	}
	out = out[f.StartIndex:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) index(l domain.Listing) {
	it := &item{
		id:   l.ID,
		rect: rtreego.Point{l.Location.Lng(), l.Location.Lat()}.ToRect(tolerance),
	}
	s.items[l.ID] = it
	s.tree.Insert(it)
}

func (s *Store) unindex(id string) {
	if it, ok := s.items[id]; ok {
		s.tree.Delete(it)
		delete(s.items, id)
	}
}

func cloneListing(l domain.Listing) domain.Listing {
	if l.ImageURLs != nil {
		l.ImageURLs = append([]string(nil), l.ImageURLs...)
	}
	return l
}

type errDuplicate string

func (e errDuplicate) Error() string { return "duplicate listing id " + string(e) }
