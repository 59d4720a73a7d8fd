package shared_test

import (
	"testing"
	"time"

	"estate_listing/internal/shared"
)

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("GEOCODE_RPS", "7")
	t.Setenv("CACHE_TTL_SECONDS", "not-a-number")
	t.Setenv("HTTP_ADDR", "")

	c := shared.Load()
	if c.StoreDriver != "memory" {
		t.Fatalf("StoreDriver = %q", c.StoreDriver)
	}
	if c.GeocodeRPS != 7 {
		t.Fatalf("GeocodeRPS = %d", c.GeocodeRPS)
	}
	if c.CacheTTL != 24*time.Hour {
		t.Fatalf("CacheTTL = %v, want default", c.CacheTTL)
	}
	if c.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want default", c.HTTPAddr)
	}
}
