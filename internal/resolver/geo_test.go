package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsignal/dmarclens/internal/cache"
	"github.com/mailsignal/dmarclens/internal/logger"
)

type fakeProvider struct {
	name  string
	geo   *Geo
	err   error
	calls int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Lookup(_ context.Context, _ string) (*Geo, error) {
	p.calls++
	return p.geo, p.err
}

func newGeoFixture(providers ...GeoProvider) (*GeoResolver, *cache.MemoryStore) {
	store := cache.NewMemoryStore()
	r := NewGeoResolver(store, logger.NewNop(), providers, GeoConfig{
		Timeout: time.Second,
		TTL:     time.Hour,
		Pacing:  time.Millisecond,
	})
	return r, store
}

func TestGeoResolver_PrivateRangesSkipProviders(t *testing.T) {
	provider := &fakeProvider{name: "p1", geo: &Geo{Country: "United States", CountryCode: "US"}}
	r, store := newGeoFixture(provider)

	ips := []string{"10.1.2.3", "192.168.0.5", "127.0.0.1", "fe80::1", "::1", "fc00::1"}
	results := r.Resolve(context.Background(), ips)

	for _, ip := range ips {
		assert.Nil(t, results[ip], "private IP %s must resolve to null", ip)

		// The null is still cached.
		raw, ok, err := store.Get(context.Background(), cache.Key(cache.NamespaceGeo, ip))
		require.NoError(t, err)
		require.True(t, ok, "negative result for %s must be cached", ip)
		assert.Equal(t, "null", string(raw))
	}
	assert.Equal(t, 0, provider.calls, "private IPs must make zero external calls")
}

func TestGeoResolver_FirstProviderWins(t *testing.T) {
	p1 := &fakeProvider{name: "p1", geo: &Geo{Country: "Germany", CountryCode: "DE"}}
	p2 := &fakeProvider{name: "p2", geo: &Geo{Country: "France", CountryCode: "FR"}}
	r, _ := newGeoFixture(p1, p2)

	results := r.Resolve(context.Background(), []string{"8.8.8.8"})

	require.NotNil(t, results["8.8.8.8"])
	assert.Equal(t, "DE", results["8.8.8.8"].CountryCode)
	assert.Equal(t, 1, p1.calls)
	assert.Equal(t, 0, p2.calls, "a successful provider short-circuits the chain")
}

func TestGeoResolver_FallbackChain(t *testing.T) {
	p1 := &fakeProvider{name: "p1", err: errors.New("quota exceeded")}
	p2 := &fakeProvider{name: "p2", err: errors.New("timeout")}
	p3 := &fakeProvider{name: "p3", geo: &Geo{Country: "Netherlands", CountryCode: "NL"}}
	r, _ := newGeoFixture(p1, p2, p3)

	results := r.Resolve(context.Background(), []string{"203.0.113.5"})

	require.NotNil(t, results["203.0.113.5"])
	assert.Equal(t, "NL", results["203.0.113.5"].CountryCode)
	assert.Equal(t, 1, p1.calls)
	assert.Equal(t, 1, p2.calls)
	assert.Equal(t, 1, p3.calls)
}

func TestGeoResolver_AllProvidersFail(t *testing.T) {
	p1 := &fakeProvider{name: "p1", err: errors.New("down")}
	p2 := &fakeProvider{name: "p2", err: errors.New("down")}
	p3 := &fakeProvider{name: "p3", err: errors.New("down")}
	r, store := newGeoFixture(p1, p2, p3)

	results := r.Resolve(context.Background(), []string{"203.0.113.7"})
	assert.Nil(t, results["203.0.113.7"], "exhausting all providers yields null, not an error")

	raw, ok, err := store.Get(context.Background(), cache.Key(cache.NamespaceGeo, "203.0.113.7"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "null", string(raw))
}

func TestGeoResolver_MalformedResultFallsThrough(t *testing.T) {
	// A provider answering without a country code is not well-formed.
	p1 := &fakeProvider{name: "p1", geo: &Geo{Country: "Somewhere"}}
	p2 := &fakeProvider{name: "p2", geo: &Geo{Country: "Japan", CountryCode: "JP"}}
	r, _ := newGeoFixture(p1, p2)

	results := r.Resolve(context.Background(), []string{"198.51.100.20"})
	require.NotNil(t, results["198.51.100.20"])
	assert.Equal(t, "JP", results["198.51.100.20"].CountryCode)
}

func TestGeoResolver_CacheHitSkipsProviders(t *testing.T) {
	provider := &fakeProvider{name: "p1", geo: &Geo{Country: "United States", CountryCode: "US"}}
	r, store := newGeoFixture(provider)

	require.NoError(t, store.Set(context.Background(),
		cache.Key(cache.NamespaceGeo, "8.8.4.4"),
		[]byte(`{"country":"United States","countryCode":"US"}`),
		time.Hour,
	))

	results := r.Resolve(context.Background(), []string{"8.8.4.4"})
	require.NotNil(t, results["8.8.4.4"])
	assert.Equal(t, "US", results["8.8.4.4"].CountryCode)
	assert.Equal(t, 0, provider.calls)
}

func TestGeoResolver_NegativeCacheHitSkipsProviders(t *testing.T) {
	provider := &fakeProvider{name: "p1", geo: &Geo{Country: "United States", CountryCode: "US"}}
	r, store := newGeoFixture(provider)

	require.NoError(t, store.Set(context.Background(),
		cache.Key(cache.NamespaceGeo, "203.0.113.50"),
		[]byte(`null`),
		time.Hour,
	))

	results := r.Resolve(context.Background(), []string{"203.0.113.50"})
	assert.Nil(t, results["203.0.113.50"])
	assert.Equal(t, 0, provider.calls, "a cached null must not trigger re-resolution before the TTL elapses")
}

func TestGeoResolver_BatchMixesCachedAndLive(t *testing.T) {
	provider := &fakeProvider{name: "p1", geo: &Geo{Country: "Canada", CountryCode: "CA"}}
	r, store := newGeoFixture(provider)

	require.NoError(t, store.Set(context.Background(),
		cache.Key(cache.NamespaceGeo, "8.8.8.8"),
		[]byte(`{"country":"United States","countryCode":"US"}`),
		time.Hour,
	))

	results := r.Resolve(context.Background(), []string{"8.8.8.8", "203.0.113.80", "10.0.0.1"})

	require.Len(t, results, 3)
	assert.Equal(t, "US", results["8.8.8.8"].CountryCode)
	assert.Equal(t, "CA", results["203.0.113.80"].CountryCode)
	assert.Nil(t, results["10.0.0.1"])
	assert.Equal(t, 1, provider.calls, "only the uncached public IP goes to a provider")
}
