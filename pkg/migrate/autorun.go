package migrate

import (
	"context"
	"fmt"

	"github.com/wholesaledesk/ordering-backend/pkg/config"
	"github.com/wholesaledesk/ordering-backend/pkg/db"
	"github.com/wholesaledesk/ordering-backend/pkg/logger"
)

// MaybeRunDev brings the schema up to date when the app is running in dev mode and
// the feature flag is enabled. sqlite builds its tables directly; postgres runs goose.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	if cfg.FeatureFlags.UseSQLite {
		logg.Info(logg.WithField(ctx, "env", cfg.App.Env), "applying sqlite schema (dev auto-run)")
		return db.EnsureSQLiteSchema(ctx, client.DB())
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	source := Embedded()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "source": source.String()})
	if err := source.Check(); err != nil {
		return err
	}
	logg.Info(ctx, "migrate.dev_autorun")
	if err := source.Run(ctx, sqlDB, "up"); err != nil {
		return err
	}
	logg.Info(ctx, "migrate.dev_autorun_done")
	return nil
}
