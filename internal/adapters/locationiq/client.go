// Package locationiq is the geocoding provider backed by the LocationIQ HTTP API.
package locationiq

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"estate_listing/internal/adapters/observability"
	"estate_listing/internal/domain"
)

const service = "locationiq"

type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 10 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// ---- Public API ----

func (c *Client) Geocode(ctx context.Context, address string) (domain.GeocodeResult, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")

	var out []place
	if err := c.get(ctx, "search", "/search.php", q, &out); err != nil {
		if errors.Is(err, errNoMatch) {
			return domain.GeocodeResult{}, domain.ErrGeocodeNotFound
		}
		return domain.GeocodeResult{}, err
	}
	if len(out) == 0 {
		return domain.GeocodeResult{}, domain.ErrGeocodeNotFound
	}
	lat, lng, err := out[0].coords()
	if err != nil {
		return domain.GeocodeResult{}, err
	}
	return domain.GeocodeResult{Lat: lat, Lng: lng, FormattedAddress: out[0].DisplayName}, nil
}

func (c *Client) Autocomplete(ctx context.Context, query string, limit int) ([]domain.Suggestion, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("format", "json")

	var out []place
	if err := c.get(ctx, "autocomplete", "/autocomplete.php", q, &out); err != nil {
		if errors.Is(err, errNoMatch) {
			return []domain.Suggestion{}, nil
		}
		return nil, err
	}
	res := make([]domain.Suggestion, 0, len(out))
	for _, p := range out {
		lat, lng, err := p.coords()
		if err != nil {
			continue // skip malformed entries
		}
		res = append(res, domain.Suggestion{Label: p.DisplayName, Value: p.DisplayName, Lat: lat, Lng: lng})
	}
	return res, nil
}

// ---- Internals ----

var (
	errNoMatch      = errors.New("locationiq: no match")
	ErrUnauthorized = errors.New("locationiq: unauthorized")
)

func (p place) coords() (lat, lng float64, err error) {
	if lat, err = strconv.ParseFloat(strings.TrimSpace(p.Lat), 64); err != nil {
		return 0, 0, fmt.Errorf("locationiq: bad lat %q: %w", p.Lat, err)
	}
	if lng, err = strconv.ParseFloat(strings.TrimSpace(p.Lon), 64); err != nil {
		return 0, 0, fmt.Errorf("locationiq: bad lon %q: %w", p.Lon, err)
	}
	return lat, lng, nil
}

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
// LocationIQ answers 404 when nothing matches; that maps to errNoMatch.
func (c *Client) get(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	q.Set("key", c.key)
	u := c.base + path + "?" + q.Encode()

	var lastErr error
	for i := 0; i < 3; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "estate-listing/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal(service, endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 2 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal(service, endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("locationiq: decode %s: %w", endpoint, err)
			}
			return nil

		case http.StatusNotFound:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return errNoMatch

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("locationiq: remote %d", resp.StatusCode)
			if i < 2 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("locationiq: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns false early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
