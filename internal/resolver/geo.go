package resolver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mailsignal/dmarclens/internal/cache"
	"github.com/mailsignal/dmarclens/internal/logger"
	"github.com/mailsignal/dmarclens/internal/ratelimit"
)

const (
	DefaultGeoTimeout = 3 * time.Second
	DefaultGeoPacing  = 100 * time.Millisecond
)

// Geo is a resolved country for a source IP.
type Geo struct {
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
}

// GeoProvider is one external geolocation service. Lookup returns a non-nil
// Geo on success; any error or nil result makes the resolver move on to the
// next provider in the chain.
type GeoProvider interface {
	Name() string
	Lookup(ctx context.Context, ip string) (*Geo, error)
}

// GeoResolver resolves source IPs to countries through an ordered provider
// fallback chain.
type GeoResolver struct {
	store     cache.Store
	log       *logger.Logger
	providers []GeoProvider
	pacer     *ratelimit.Pacer
	timeout   time.Duration
	ttl       time.Duration
}

// GeoConfig tunes the geo pipeline. Zero values fall back to the package
// defaults. Providers are passed to NewGeoResolver directly; see
// DefaultGeoProviders for the standard chain.
type GeoConfig struct {
	Timeout time.Duration
	TTL     time.Duration
	Pacing  time.Duration
}

func NewGeoResolver(store cache.Store, log *logger.Logger, providers []GeoProvider, cfg GeoConfig) *GeoResolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultGeoTimeout
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Pacing <= 0 {
		cfg.Pacing = DefaultGeoPacing
	}
	return &GeoResolver{
		store:     store,
		log:       log.WithComponent("geo-resolver"),
		providers: providers,
		pacer:     ratelimit.NewPacer(cfg.Pacing),
		timeout:   cfg.Timeout,
		ttl:       cfg.TTL,
	}
}

// Resolve maps each IP to its country or nil. IPs are processed one at a
// time: each uncached public IP walks the provider chain with a pacing delay
// between live attempts, bounding the outbound call rate. Batch latency
// therefore scales linearly with the number of uncached IPs.
func (r *GeoResolver) Resolve(ctx context.Context, ips []string) map[string]*Geo {
	results := make(map[string]*Geo, len(ips))
	for _, ip := range ips {
		results[ip] = r.resolveOne(ip)
	}
	return results
}

func (r *GeoResolver) resolveOne(ip string) *Geo {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout+5*time.Second)
	defer cancel()

	key := cache.Key(cache.NamespaceGeo, ip)

	if raw, ok, err := r.store.Get(ctx, key); err != nil {
		r.log.Warnw("cache read failed", "ip", ip, "error", err)
	} else if ok {
		var geo *Geo
		if err := json.Unmarshal(raw, &geo); err == nil {
			return geo
		}
		r.log.Warnw("discarding corrupt cache entry", "key", key)
	}

	// Private and unparseable addresses resolve to null with zero provider
	// calls; the null is still cached.
	if isPrivateOrLocal(ip) {
		r.writeCache(key, nil)
		return nil
	}

	// Pace live attempts to respect per-provider rate limits. Cache hits
	// and private IPs never reach this point.
	if err := r.pacer.Wait(ctx); err != nil {
		r.writeCache(key, nil)
		return nil
	}

	geo := r.lookup(ip)
	r.writeCache(key, geo)
	return geo
}

// lookup walks the provider chain in fixed priority order. Each attempt is
// bounded by its own deadline; on expiry the attempt's context is cancelled,
// actively abandoning the in-flight call, and the next provider is tried.
// The first well-formed result short-circuits the chain.
func (r *GeoResolver) lookup(ip string) *Geo {
	for _, provider := range r.providers {
		attemptCtx, cancel := context.WithTimeout(context.Background(), r.timeout)
		geo, err := provider.Lookup(attemptCtx, ip)
		cancel()

		if err != nil {
			r.log.Warnw("geo provider failed",
				"provider", provider.Name(),
				"ip", ip,
				"error", err,
			)
			continue
		}
		if geo != nil && geo.CountryCode != "" {
			return geo
		}
	}

	r.log.Warnw("all geo providers failed", "ip", ip)
	return nil
}

func (r *GeoResolver) writeCache(key string, geo *Geo) {
	payload, err := json.Marshal(geo)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.store.Set(ctx, key, payload, r.ttl); err != nil {
		r.log.Warnw("cache write failed", "key", key, "error", err)
	}
}
