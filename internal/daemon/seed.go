package daemon

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/partdesk/partdesk/internal/auth"
	"github.com/partdesk/partdesk/internal/config"
	"github.com/partdesk/partdesk/internal/db/controller/role"
	"github.com/partdesk/partdesk/internal/db/controller/user"
)

var systemRoles = []struct { //nolint:gochecknoglobals
	name        string
	description string
}{
	{auth.TemplateAdministrator, "Full access to every module"},
	{auth.TemplateViewer, "Read-only access to every module"},
}

// Seed creates the system roles and, on an empty user table, the first administrator.
// Existing roles keep their grants.
func Seed(ctx context.Context, cfg config.Seed, roles *role.Store, users *user.Store) error {
	seeded := make(map[string]role.Role, len(systemRoles))

	for _, sr := range systemRoles {
		grants, ok := auth.Template(sr.name)
		if !ok {
			return errors.Errorf("no permission template named %s", sr.name)
		}

		r, err := roles.EnsureSystem(ctx, sr.name, sr.description, grants)
		if err != nil {
			return errors.Wrapf(err, "failed to seed role %s", sr.name)
		}

		seeded[sr.name] = r
	}

	count, err := users.Count(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to count users")
	}

	if count > 0 {
		return nil
	}

	if cfg.AdminPassword == "" {
		log.Warn().Msg("user table is empty and Seed.AdminPassword is not set: no administrator created")
		return nil
	}

	admin := seeded[auth.TemplateAdministrator].Info()

	if _, err = users.Create(ctx, user.NewUser{
		Username:    cfg.AdminUsername,
		DisplayName: "Administrator",
		Password:    cfg.AdminPassword,
		RoleID:      admin.ID,
		Active:      true,
	}); err != nil {
		return errors.Wrap(err, "failed to seed administrator")
	}

	log.Warn().Str("username", cfg.AdminUsername).Msg("created initial administrator, change its password")

	return nil
}
