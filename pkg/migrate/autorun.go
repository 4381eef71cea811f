package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/scanpay-backend/pkg/config"
	"github.com/angelmondragon/scanpay-backend/pkg/db"
	"github.com/angelmondragon/scanpay-backend/pkg/db/models"
	"github.com/angelmondragon/scanpay-backend/pkg/logger"
)

// Models lists every table owned by the service, in dependency order.
func Models() []any {
	return []any{
		&models.Product{},
		&models.Order{},
		&models.LoyaltyAccount{},
		&models.LoyaltyEvent{},
		&models.OutboxEvent{},
	}
}

// MaybeRunDev executes migrations automatically when the app is running in dev mode and
// the feature flag is enabled. sqlite databases are built with gorm AutoMigrate since
// the goose files are Postgres-only.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	meta := map[string]any{"env": cfg.App.Env, "dir": DefaultDir, "driver": client.DB().Dialector.Name()}
	ctx = logg.WithFields(ctx, meta)

	if client.DB().Dialector.Name() == "sqlite" {
		logg.Info(ctx, "running gorm auto-migrate (dev sqlite)")
		if err := client.DB().WithContext(ctx).AutoMigrate(Models()...); err != nil {
			return fmt.Errorf("auto-migrating sqlite: %w", err)
		}
		logg.Info(ctx, "sqlite schema ready")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	logg.Info(ctx, "running Goose migrations (dev auto-run)")
	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}
