// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"

	auditlogfeature "github.com/dalemusser/unionhub/internal/app/features/auditlog"
	branchesfeature "github.com/dalemusser/unionhub/internal/app/features/branches"
	errorsfeature "github.com/dalemusser/unionhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/unionhub/internal/app/features/health"
	loginfeature "github.com/dalemusser/unionhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/unionhub/internal/app/features/logout"
	membersfeature "github.com/dalemusser/unionhub/internal/app/features/members"
	profilefeature "github.com/dalemusser/unionhub/internal/app/features/profile"
	registrationfeature "github.com/dalemusser/unionhub/internal/app/features/registration"
	userinfofeature "github.com/dalemusser/unionhub/internal/app/features/userinfo"
	"github.com/dalemusser/unionhub/internal/app/membership"
	auditstore "github.com/dalemusser/unionhub/internal/app/store/audit"
	branchstore "github.com/dalemusser/unionhub/internal/app/store/branches"
	"github.com/dalemusser/unionhub/internal/app/store/ledger"
	"github.com/dalemusser/unionhub/internal/app/store/reglogs"
	userstore "github.com/dalemusser/unionhub/internal/app/store/users"
	"github.com/dalemusser/unionhub/internal/app/system/auditlog"
	"github.com/dalemusser/unionhub/internal/app/system/auth"
	"github.com/dalemusser/unionhub/internal/app/system/metrics"
	"github.com/dalemusser/unionhub/internal/app/system/names"
	"github.com/dalemusser/unionhub/internal/app/system/notify"
	"github.com/dalemusser/unionhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Long-lived collaborators built by BuildHandler and released by Shutdown.
var (
	dispatcher   *notify.Dispatcher
	requestLimit *ratelimit.Limiter
	loginLimiter *ratelimit.LoginLimiter
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It wires the stores into the membership
// service, builds the session manager, and mounts the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.UnionHubMongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// LoadSessionUser fetches fresh user data on each request so role changes
	// and deactivation take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	if appCfg.JWTSecret != "" {
		if err := sessionMgr.EnableBearerTokens(appCfg.JWTSecret, appCfg.JWTTTL, appCfg.JWTIssuer); err != nil {
			logger.Error("bearer token init failed", zap.Error(err))
			return nil, err
		}
	}

	metrics.Register(prometheus.DefaultRegisterer)

	// Stores
	users := userstore.New(db)
	logs := reglogs.New(db)
	branches := branchstore.New(db)
	events := auditstore.New(db)

	resolver := names.New(users, redisOrNil(deps), appCfg.NameCacheTTL, logger)

	var pub notify.Publisher = notify.LogPublisher{Log: logger}
	if len(appCfg.KafkaBrokers) > 0 {
		pub = notify.NewKafkaPublisher(appCfg.KafkaBrokers, appCfg.KafkaTopic)
		logger.Info("approval notifications go to Kafka",
			zap.Strings("brokers", appCfg.KafkaBrokers),
			zap.String("topic", appCfg.KafkaTopic))
	}
	dispatcher = notify.NewDispatcher(pub, appCfg.NotifyTimeout, logger)

	svc := membership.New(membership.Deps{
		Users:      users,
		Ledger:     ledger.New(db, logs, logger, appCfg.AllowUnsafeWrites),
		Logs:       logs,
		Branches:   branches,
		Directory:  users,
		Notifier:   dispatcher,
		Names:      resolver,
		Logger:     logger,
		BcryptCost: appCfg.BcryptCost,
	})

	audit := auditlog.New(events, logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	requestLimit = ratelimit.New(appCfg.RateLimitRPS, appCfg.RateLimitBurst)
	loginLimiter = ratelimit.NewLoginLimiter()

	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	r.Use(requestID)
	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.UnionHubMongoClient, logger)
	if deps.Redis != nil {
		healthHandler.Cache = func(ctx context.Context) error { return deps.Redis.Ping(ctx).Err() }
	}
	healthHandler.NotifyState = func() string { return dispatcher.State().String() }
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", promhttp.Handler())

	// Public branch directory for the registration form
	branchesHandler := branchesfeature.NewHandler(branches, logger)
	r.Mount("/branches", branchesfeature.Routes(branchesHandler))

	// Registration
	regHandler := registrationfeature.NewHandler(svc, resolver, logger)
	r.With(requestLimit.Middleware("register")).
		Mount("/register", registrationfeature.Routes(regHandler, sessionMgr))

	// Authentication
	r.Route("/auth", func(ar chi.Router) {
		ar.Use(requestLimit.Middleware("auth"))

		loginHandler := loginfeature.NewHandler(users, sessionMgr, audit, loginLimiter, logger)
		ar.Mount("/login", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, audit, logger)
		ar.Mount("/logout", logoutfeature.Routes(logoutHandler))

		profileHandler := profilefeature.NewHandler(users, audit, appCfg.BcryptCost, logger)
		ar.Mount("/password", profilefeature.Routes(profileHandler, sessionMgr))
	})

	userinfoHandler := userinfofeature.NewHandler(svc, logger)
	userinfofeature.MountRoutes(r, userinfoHandler)

	// Member administration and the approval workflow
	membersHandler := membersfeature.NewHandler(svc, audit, resolver, logger)
	r.Mount("/users", membersfeature.Routes(membersHandler, sessionMgr))

	// System audit trail
	auditHandler := auditlogfeature.NewHandler(events, resolver, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	return r, nil
}

// redisOrNil avoids handing the resolver a typed nil interface.
func redisOrNil(deps DBDeps) redis.UniversalClient {
	if deps.Redis == nil {
		return nil
	}
	return deps.Redis
}
