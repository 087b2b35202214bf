// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	auditstore "github.com/dalemusser/unionhub/internal/app/store/audit"
	branchstore "github.com/dalemusser/unionhub/internal/app/store/branches"
	"github.com/dalemusser/unionhub/internal/app/store/reglogs"
	userstore "github.com/dalemusser/unionhub/internal/app/store/users"
	"github.com/dalemusser/unionhub/internal/app/system/txn"
	"github.com/dalemusser/unionhub/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// ConnectDB connects to MongoDB and, when configured, Redis.
//
// A Redis failure is not fatal: the name cache is optional, so the app
// starts without it and health reports the cache as degraded.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)
	client, err := mongo.Connect(cctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps := DBDeps{
		UnionHubMongoClient:   client,
		UnionHubMongoDatabase: client.Database(appCfg.MongoDatabase),
	}

	if appCfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     appCfg.RedisAddr,
			Password: appCfg.RedisPassword,
			DB:       appCfg.RedisDB,
		})
		if err := rdb.Ping(cctx).Err(); err != nil {
			logger.Warn("redis unreachable; name cache starts cold", zap.String("addr", appCfg.RedisAddr), zap.Error(err))
		} else {
			logger.Info("connected to Redis", zap.String("addr", appCfg.RedisAddr))
		}
		deps.Redis = rdb
	}

	return deps, nil
}

// EnsureSchema creates the collections with their validators, builds
// indexes, and checks that the server can run the
// multi-document transactions the ledger relies on.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.UnionHubMongoDatabase

	if err := validators.EnsureAll(ctx, db); err != nil {
		logger.Error("collection validators failed", zap.Error(err))
		return fmt.Errorf("collection validators: %w", err)
	}

	indexers := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"users", userstore.New(db).EnsureIndexes},
		{"user_registration_logs", reglogs.New(db).EnsureIndexes},
		{"branches", branchstore.New(db).EnsureIndexes},
		{"audit_events", auditstore.New(db).EnsureIndexes},
	}
	for _, ix := range indexers {
		if err := ix.fn(ctx); err != nil {
			logger.Error("ensure indexes failed", zap.String("collection", ix.name), zap.Error(err))
			return fmt.Errorf("ensure %s indexes: %w", ix.name, err)
		}
	}

	err := txn.CheckSupport(ctx, deps.UnionHubMongoClient)
	switch {
	case err == nil:
	case errors.Is(err, txn.ErrUnsupported) && appCfg.AllowUnsafeWrites:
		logger.Warn("MongoDB has no transaction support; membership writes are not atomic")
	default:
		return fmt.Errorf("transaction support: %w (set allow_unsafe_writes for a standalone dev server)", err)
	}
	return nil
}
