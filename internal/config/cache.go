package config

import "time"

// CacheConfig defines settings for the public listing response cache.
// Caching is disabled when Enabled is false or no Redis client could be
// created.  MaxBodyBytes caps the size of a stored response.
type CacheConfig struct {
	Enabled      bool          `env:"CACHE_ENABLED"        envDefault:"true"`
	TTL          time.Duration `env:"CACHE_TTL"            envDefault:"30s"`
	Prefix       string        `env:"CACHE_PREFIX"         envDefault:"cache"`
	MaxBodyBytes int           `env:"CACHE_MAX_BODY_BYTES" envDefault:"1048576"`
}
