// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown drains pending notifications, stops the limiters and closes
// the Redis and MongoDB clients.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if dispatcher != nil {
		if err := dispatcher.Close(ctx); err != nil {
			logger.Warn("notification dispatcher close failed", zap.Error(err))
		}
	}
	if requestLimit != nil {
		requestLimit.Close()
	}
	if loginLimiter != nil {
		loginLimiter.Close()
	}

	if deps.Redis != nil {
		if err := deps.Redis.Close(); err != nil {
			logger.Warn("redis close failed", zap.Error(err))
		}
	}

	if deps.UnionHubMongoClient != nil {
		logger.Info("disconnecting UnionHub MongoDB client")
		if err := deps.UnionHubMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
