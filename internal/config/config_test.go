package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoggerConfig(t *testing.T) {
	config := LoggerConfig{
		Level:       "debug",
		Format:      "json",
		OutputPaths: []string{"stdout", "stderr"},
	}

	assert.Equal(t, "debug", config.Level)
	assert.Equal(t, "json", config.Format)
	assert.Contains(t, config.OutputPaths, "stdout")
}

func TestRedisConfig(t *testing.T) {
	config := RedisConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	assert.Equal(t, "localhost:6379", config.Addr)
	assert.Equal(t, 0, config.DB)
	assert.Equal(t, 3, config.MaxRetries)
}

func TestCacheConfig(t *testing.T) {
	config := CacheConfig{
		HostnameTTL: 720 * time.Hour,
		GeoTTL:      24 * time.Hour,
	}

	assert.Equal(t, 720*time.Hour, config.HostnameTTL)
	assert.Equal(t, 24*time.Hour, config.GeoTTL, "TTLs are independently settable")
}

func TestResolverConfig(t *testing.T) {
	config := ResolverConfig{
		DoHEndpoint:     "https://dns.google",
		HostnameTimeout: 5 * time.Second,
		GeoTimeout:      3 * time.Second,
		GeoPacing:       100 * time.Millisecond,
	}

	assert.Equal(t, "https://dns.google", config.DoHEndpoint)
	assert.Equal(t, 5*time.Second, config.HostnameTimeout)
	assert.Equal(t, 100*time.Millisecond, config.GeoPacing)
}

func TestServerConfig(t *testing.T) {
	config := ServerConfig{
		Host:       "0.0.0.0",
		Port:       8080,
		EnableCORS: true,
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			BurstSize:         20,
		},
	}

	assert.Equal(t, 8080, config.Port)
	assert.True(t, config.EnableCORS)
	assert.Equal(t, float64(10), config.RateLimit.RequestsPerSecond)
}
