package config

import (
	"time"
)

type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Server   ServerConfig   `mapstructure:"server"`
}

type LoggerConfig struct {
	Level       string   `mapstructure:"level"`
	Format      string   `mapstructure:"format"`
	OutputPaths []string `mapstructure:"output_paths"`
}

type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	MaxRetries   int           `mapstructure:"max_retries"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// CacheConfig holds the TTLs applied to resolver cache writes. The hostname
// and geo namespaces are tuned independently.
type CacheConfig struct {
	HostnameTTL time.Duration `mapstructure:"hostname_ttl"`
	GeoTTL      time.Duration `mapstructure:"geo_ttl"`
}

type ResolverConfig struct {
	DoHEndpoint     string        `mapstructure:"doh_endpoint"`
	HostnameTimeout time.Duration `mapstructure:"hostname_timeout"`
	GeoTimeout      time.Duration `mapstructure:"geo_timeout"`
	GeoPacing       time.Duration `mapstructure:"geo_pacing"`
}

type ServerConfig struct {
	Host       string          `mapstructure:"host"`
	Port       int             `mapstructure:"port"`
	EnableCORS bool            `mapstructure:"enable_cors"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}
