// Package cache provides the TTL key-value store backing the IP intelligence
// resolvers. Values are opaque JSON blobs; an explicit JSON null is a valid
// stored value (negative caching) and is distinct from a missing key.
package cache

import (
	"context"
	"time"
)

const (
	// NamespaceHostname prefixes reverse-DNS results.
	NamespaceHostname = "hostname"
	// NamespaceGeo prefixes geolocation results.
	NamespaceGeo = "geo"
)

// Store is the cache service contract. Implementations must make Get/Set
// atomic per key; the resolvers never hold a lock across a network call.
type Store interface {
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Exists reports whether key is present and unexpired.
	Exists(ctx context.Context, key string) (bool, error)
	// Clear removes all keys matching a glob pattern and returns the count.
	Clear(ctx context.Context, pattern string) (int, error)
	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Key builds a namespaced cache key for an IP.
func Key(namespace, ip string) string {
	return namespace + ":" + ip
}
