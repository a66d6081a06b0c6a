// Package resolver enriches reporting source IPs with hostnames (reverse
// DNS over DoH) and countries (multi-provider geolocation), behind a shared
// negative-caching TTL store.
//
// Per-IP resolution never returns an error: exhausting providers or filters
// yields a nil result, which is cached like any other outcome. Lookups run
// on contexts detached from the caller's request context, so a client
// disconnect does not abort in-flight lookups or their cache writes.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/sync/errgroup"

	"github.com/mailsignal/dmarclens/internal/cache"
	"github.com/mailsignal/dmarclens/internal/logger"
)

const (
	// DefaultDoHEndpoint is the DNS-over-HTTPS resolver queried for PTR
	// records. This pipeline has no fallback provider.
	DefaultDoHEndpoint = "https://dns.google"

	DefaultHostnameTimeout = 5 * time.Second
	DefaultTTL             = 30 * 24 * time.Hour
)

// HostnameResolver resolves source IPs to hostnames via reverse DNS.
type HostnameResolver struct {
	store    cache.Store
	log      *logger.Logger
	client   *http.Client
	endpoint string
	timeout  time.Duration
	ttl      time.Duration
}

// HostnameConfig tunes the hostname pipeline. Zero values fall back to the
// package defaults.
type HostnameConfig struct {
	Endpoint string
	Timeout  time.Duration
	TTL      time.Duration
}

func NewHostnameResolver(store cache.Store, log *logger.Logger, client *http.Client, cfg HostnameConfig) *HostnameResolver {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultDoHEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultHostnameTimeout
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &HostnameResolver{
		store:    store,
		log:      log.WithComponent("hostname-resolver"),
		client:   client,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		timeout:  cfg.Timeout,
		ttl:      cfg.TTL,
	}
}

// Resolve maps each IP to its hostname or nil. All IPs are resolved
// concurrently and the call returns once every per-IP resolution has
// finished; a slow IP never blocks or cancels the others.
func (r *HostnameResolver) Resolve(ctx context.Context, ips []string) map[string]*string {
	results := make(map[string]*string, len(ips))
	var mu sync.Mutex

	g := new(errgroup.Group)
	for _, ip := range ips {
		g.Go(func() error {
			hostname := r.resolveOne(ip)
			mu.Lock()
			results[ip] = hostname
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	return results
}

func (r *HostnameResolver) resolveOne(ip string) *string {
	// Detached from the request context: an abandoned batch still finishes
	// its lookups and populates the cache for future callers.
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	key := cache.Key(cache.NamespaceHostname, ip)

	if raw, ok, err := r.store.Get(ctx, key); err != nil {
		r.log.Warnw("cache read failed", "ip", ip, "error", err)
	} else if ok {
		var hostname *string
		if err := json.Unmarshal(raw, &hostname); err == nil {
			return hostname
		}
		r.log.Warnw("discarding corrupt cache entry", "key", key)
	}

	hostname := r.lookup(ctx, ip)
	r.writeCache(key, hostname)
	return hostname
}

func (r *HostnameResolver) lookup(ctx context.Context, ip string) *string {
	arpa, err := dns.ReverseAddr(ip)
	if err != nil {
		r.log.Warnw("cannot build reverse name", "ip", ip, "error", err)
		return nil
	}
	arpa = strings.TrimSuffix(arpa, ".")

	hostname, err := r.queryPTR(ctx, arpa)
	if err != nil {
		r.log.Warnw("reverse lookup failed", "ip", ip, "name", arpa, "error", err)
		return nil
	}
	return hostname
}

// dohResponse is the JSON answer of the DoH resolve endpoint.
type dohResponse struct {
	Status int `json:"Status"`
	Answer []struct {
		Name string `json:"name"`
		Type int    `json:"type"`
		Data string `json:"data"`
	} `json:"Answer"`
}

func (r *HostnameResolver) queryPTR(ctx context.Context, name string) (*string, error) {
	endpoint := fmt.Sprintf("%s/resolve?name=%s&type=PTR", r.endpoint, url.QueryEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building DoH request: %w", err)
	}
	req.Header.Set("Accept", "application/dns-json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("DoH query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DoH query: unexpected status %d", resp.StatusCode)
	}

	var parsed dohResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding DoH response: %w", err)
	}

	if parsed.Status != 0 || len(parsed.Answer) == 0 {
		return nil, nil
	}

	// PTR data carries the root-label terminator; strip it before storage.
	hostname := strings.TrimSuffix(parsed.Answer[0].Data, ".")
	if hostname == "" {
		return nil, nil
	}
	return &hostname, nil
}

func (r *HostnameResolver) writeCache(key string, hostname *string) {
	payload, err := json.Marshal(hostname)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.store.Set(ctx, key, payload, r.ttl); err != nil {
		r.log.Warnw("cache write failed", "key", key, "error", err)
	}
}
