// Package geocache wraps a domain.Geocoder with a shared cache. Concurrent lookups
// of the same normalized query share one upstream call.
package geocache

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"estate_listing/internal/domain"
)

// UpstreamTimeout bounds a shared upstream call. It runs detached from any single
// caller, so one caller giving up does not fail the others waiting on it.
const UpstreamTimeout = 15 * time.Second

type Geocoder struct {
	next  domain.Geocoder
	cache domain.Cache
	ttl   time.Duration
	group singleflight.Group
}

func New(next domain.Geocoder, cache domain.Cache, ttl time.Duration) *Geocoder {
	return &Geocoder{next: next, cache: cache, ttl: ttl}
}

func normalize(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

func (g *Geocoder) Geocode(ctx context.Context, address string) (domain.GeocodeResult, error) {
	key := "geocode:" + normalize(address)

	var hit domain.GeocodeResult
	if ok, err := g.cache.Get(ctx, key, &hit); ok {
		return hit, nil
	} else if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("geocode cache read failed")
	}

	v, err := g.shared(ctx, key, func(uctx context.Context) (any, error) {
		return g.next.Geocode(uctx, address)
	})
	if err != nil {
		return domain.GeocodeResult{}, err
	}
	return v.(domain.GeocodeResult), nil
}

func (g *Geocoder) Autocomplete(ctx context.Context, query string, limit int) ([]domain.Suggestion, error) {
	key := "suggest:" + normalize(query) + ":" + strconv.Itoa(limit)

	var hit []domain.Suggestion
	if ok, err := g.cache.Get(ctx, key, &hit); ok {
		return hit, nil
	} else if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("suggest cache read failed")
	}

	v, err := g.shared(ctx, key, func(uctx context.Context) (any, error) {
		return g.next.Autocomplete(uctx, query, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Suggestion), nil
}

// shared runs fetch once per key across concurrent callers and caches a successful
// result. Each caller stops waiting when its own ctx ends.
func (g *Geocoder) shared(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	ch := g.group.DoChan(key, func() (any, error) {
		uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), UpstreamTimeout)
		defer cancel()

		res, err := fetch(uctx)
		if err != nil {
			return nil, err
		}
		if err := g.cache.Set(uctx, key, res, int(g.ttl.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("geocode cache write failed")
		}
		return res, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.Val, r.Err
	}
}

// PingCache is a cache that can report whether its backend is reachable.
type PingCache interface {
	domain.Cache
	Ping(ctx context.Context) error
}

// NewIfReachable wraps next only when cache answers a ping within timeout.
// Otherwise next is returned as is, so lookups never wait on a dead cache.
func NewIfReachable(ctx context.Context, next domain.Geocoder, cache PingCache, ttl, timeout time.Duration) domain.Geocoder {
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := cache.Ping(pctx); err != nil {
		log.Warn().Err(err).Msg("cache unreachable; geocoding will not be cached")
		return next
	}
	return New(next, cache, ttl)
}
