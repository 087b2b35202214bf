// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/unionhub/internal/app/system/timeouts"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers ports, TLS, logging and CORS. Everything here
// is specific to the union membership service and is passed to most
// lifecycle hooks.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// AllowUnsafeWrites lets the ledger fall back to non-transactional writes
	// on a standalone server. Development only.
	AllowUnsafeWrites bool

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: unionhub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Bearer tokens for the mobile client. Blank JWTSecret disables them.
	JWTSecret string
	JWTTTL    time.Duration
	JWTIssuer string

	// Redis name cache. Blank RedisAddr disables caching.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	NameCacheTTL  time.Duration

	// Approval notifications. Blank KafkaBrokers logs events instead.
	KafkaBrokers  []string
	KafkaTopic    string
	NotifyTimeout time.Duration

	// Audit logging ("all", "db", "log", "off")
	AuditLogAuth  string
	AuditLogAdmin string

	// Per-IP request limits on /register and /auth
	RateLimitRPS   float64
	RateLimitBurst int

	BcryptCost int

	// Per-call deadlines for database work; zero keeps the package defaults.
	Timeouts timeouts.Config

	// SuperAdminEmail names an existing account promoted on startup.
	SuperAdminEmail string
}
