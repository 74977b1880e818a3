package daemon

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/partdesk/partdesk/internal/config"
	"github.com/partdesk/partdesk/internal/db/controller/role"
	"github.com/partdesk/partdesk/internal/db/dsn"
	"github.com/partdesk/partdesk/internal/db/models"
)

// OpenDB connects gorm to the configured engine.
func OpenDB(cfg config.DB) (*gorm.DB, error) {
	dialector, err := dsn.Dialector(cfg)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if cfg.GormEngine == config.EngineSQLite {
		sqlDB, errDB := db.DB()
		if errDB != nil {
			return nil, errors.Wrap(errDB, "failed to access sqlite pool")
		}

		// sqlite allows one writer; an in-memory database exists per connection
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate creates the tables and drops stored grants for keys the catalog no longer has.
func Migrate(ctx context.Context, db *gorm.DB, roles *role.Store) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&models.Role{},
		&models.RolePermission{},
		&models.User{},
	); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}

	pruned, err := roles.PruneUnknownKeys(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to prune unknown permission keys")
	}

	if pruned > 0 {
		log.Warn().Int64("rows", pruned).Msg("removed grants for permission keys that are no longer registered")
	}

	return nil
}
