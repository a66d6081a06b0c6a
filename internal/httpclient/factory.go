// Package httpclient builds the HTTP clients used for external lookups.
package httpclient

import (
	"net/http"
	"time"
)

// Config configures a lookup client.
type Config struct {
	Timeout         time.Duration
	FollowRedirects bool
}

// DefaultConfig returns the defaults used for provider calls. The timeout is
// a hard upper bound; per-attempt deadlines are applied via request contexts.
func DefaultConfig() Config {
	return Config{
		Timeout:         10 * time.Second,
		FollowRedirects: true,
	}
}

// New creates an HTTP client with connection pooling and timeout enforcement.
func New(config Config) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	client := &http.Client{
		Timeout:   config.Timeout,
		Transport: transport,
	}

	if !config.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return client
}
