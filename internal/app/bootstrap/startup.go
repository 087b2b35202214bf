// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"strings"

	userstore "github.com/dalemusser/unionhub/internal/app/store/users"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.SuperAdminEmail != "" {
		if err := ensureSuperAdmin(ctx, deps, appCfg.SuperAdminEmail, logger); err != nil {
			logger.Error("superadmin bootstrap failed", zap.Error(err))
			return err
		}
	}
	return nil
}

// ensureSuperAdmin promotes the account registered under email to superadmin
// and reactivates it. A missing account is only a warning: the operator
// registers it through the normal flow and restarts.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	users := userstore.New(deps.UnionHubMongoDatabase)
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		logger.Warn("superadmin_email has no account yet; register it, then restart", zap.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}

	if u.Role == models.RoleSuperAdmin && u.IsActive {
		return nil
	}
	if err := users.SetRole(ctx, u.ID, models.RoleSuperAdmin); err != nil {
		return err
	}
	logger.Info("promoted account to superadmin",
		zap.String("user_id", u.ID.Hex()),
		zap.String("previous_role", string(u.Role)),
	)
	return nil
}
