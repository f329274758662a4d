package inkwell

import (
	"log"
	"os"
	"time"
)

// Config holds all configuration for an inkwell server. Values are set once
// at startup and never mutated afterwards.
type Config struct {
	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path (default "data/blog.db")

	SiteName        string // Site name for the RSS channel (default "Blog")
	SiteURL         string // Canonical URL (default "http://localhost:3000")
	SiteDescription string // Site description for the RSS channel

	JWTSecret string        // Required: token signing key
	TokenTTL  time.Duration // Session token lifetime (default 1h)

	RedisAddr     string // Redis address for the page cache; empty = in-memory cache
	RedisPassword string
	RedisDB       int

	CacheTTL     time.Duration // List-response cache TTL (default 600s)
	ReadingSpeed int           // Words per minute for reading time (default 183)
	PageSize     int           // Posts per page for list queries (default 20)
	CookieSecure bool          // Set true for HTTPS
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/blog.db"
	}
	if c.SiteName == "" {
		c.SiteName = "Blog"
	}
	if c.SiteURL == "" {
		c.SiteURL = "http://localhost:3000"
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = time.Hour
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 600 * time.Second
	}
	if c.ReadingSpeed == 0 {
		c.ReadingSpeed = 183
	}
	if c.PageSize == 0 {
		c.PageSize = 20
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithCache overrides the cache backend, mainly for tests.
func WithCache(backend CacheBackend) Option {
	return func(a *App) {
		a.cacheBackend = backend
	}
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("inkwell: required environment variable %s is not set", key)
	}
	return v
}
