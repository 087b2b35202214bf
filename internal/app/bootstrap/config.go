// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/unionhub/internal/app/system/auditlog"
	"github.com/dalemusser/unionhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// appConfigKeys defines the configuration keys for UnionHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: UNIONHUB_MONGO_URI, UNIONHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "union_hub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "allow_unsafe_writes", Default: false, Desc: "Allow non-transactional writes on a standalone MongoDB (development only)"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "unionhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},

	// Bearer tokens
	{Name: "jwt_secret", Default: "", Desc: "HMAC secret for bearer tokens (blank disables tokens; 32+ chars)"},
	{Name: "jwt_ttl", Default: "24h", Desc: "Bearer token lifetime"},
	{Name: "jwt_issuer", Default: "unionhub", Desc: "Bearer token issuer claim"},

	// Name cache
	{Name: "redis_addr", Default: "", Desc: "Redis address for the name cache (blank disables caching)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "name_cache_ttl", Default: "10m", Desc: "How long resolved names stay cached"},

	// Notifications
	{Name: "kafka_brokers", Default: "", Desc: "Comma-separated Kafka brokers (blank logs notifications instead)"},
	{Name: "kafka_topic", Default: "membership.approved", Desc: "Kafka topic for approval events"},
	{Name: "notify_timeout", Default: "5s", Desc: "Timeout for one notification publish"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Rate limiting
	{Name: "rate_limit_rps", Default: 5, Desc: "Per-IP requests per second on /register and /auth"},
	{Name: "rate_limit_burst", Default: 20, Desc: "Per-IP burst on /register and /auth"},

	{Name: "bcrypt_cost", Default: 12, Desc: "bcrypt cost for new password hashes"},

	// Database deadlines
	{Name: "timeout_ping", Default: "2s", Desc: "Deadline for health-check pings"},
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-document reads"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for list queries and simple writes"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for transactional writes"},

	// SuperAdmin bootstrap
	{Name: "superadmin_email", Default: "", Desc: "Email of an existing account promoted to superadmin on startup"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// UNIONHUB_* environment variables and flags with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "UNIONHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:          appValues.String("mongo_uri"),
		MongoDatabase:     appValues.String("mongo_database"),
		MongoMaxPoolSize:  uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize:  uint64(appValues.Int("mongo_min_pool_size")),
		AllowUnsafeWrites: appValues.Bool("allow_unsafe_writes"),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 30*24*time.Hour),

		JWTSecret: appValues.String("jwt_secret"),
		JWTTTL:    appValues.Duration("jwt_ttl", 24*time.Hour),
		JWTIssuer: appValues.String("jwt_issuer"),

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),
		NameCacheTTL:  appValues.Duration("name_cache_ttl", 10*time.Minute),

		KafkaBrokers:  splitList(appValues.String("kafka_brokers")),
		KafkaTopic:    appValues.String("kafka_topic"),
		NotifyTimeout: appValues.Duration("notify_timeout", 5*time.Second),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		RateLimitRPS:   float64(appValues.Int("rate_limit_rps")),
		RateLimitBurst: appValues.Int("rate_limit_burst"),

		BcryptCost: appValues.Int("bcrypt_cost"),

		Timeouts: timeouts.Config{
			Ping:   appValues.Duration("timeout_ping", timeouts.DefaultPing),
			Short:  appValues.Duration("timeout_short", timeouts.DefaultShort),
			Medium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
			Long:   appValues.Duration("timeout_long", timeouts.DefaultLong),
		},

		SuperAdminEmail: appValues.String("superadmin_email"),
	}

	timeouts.Configure(appCfg.Timeouts)
	return coreCfg, appCfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if coreCfg.Env == "prod" && len(appCfg.SessionKey) < 32 {
		return fmt.Errorf("session_key must be at least 32 characters in production")
	}
	if appCfg.JWTSecret != "" && len(appCfg.JWTSecret) < 32 {
		return fmt.Errorf("jwt_secret must be at least 32 characters")
	}

	if !auditlog.ValidSetting(appCfg.AuditLogAuth) {
		return fmt.Errorf("audit_log_auth must be one of all, db, log, off (got %q)", appCfg.AuditLogAuth)
	}
	if !auditlog.ValidSetting(appCfg.AuditLogAdmin) {
		return fmt.Errorf("audit_log_admin must be one of all, db, log, off (got %q)", appCfg.AuditLogAdmin)
	}

	if appCfg.RateLimitRPS <= 0 || appCfg.RateLimitBurst <= 0 {
		return fmt.Errorf("rate_limit_rps and rate_limit_burst must be positive")
	}
	if appCfg.BcryptCost < bcrypt.MinCost || appCfg.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if len(appCfg.KafkaBrokers) > 0 && appCfg.KafkaTopic == "" {
		return fmt.Errorf("kafka_topic is required when kafka_brokers is set")
	}

	if appCfg.AllowUnsafeWrites && coreCfg.Env == "prod" {
		logger.Warn("allow_unsafe_writes is enabled in production; membership changes may not be atomic")
	}
	return nil
}
