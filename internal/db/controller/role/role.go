// Package role stores roles and their permission grants.
package role

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/partdesk/partdesk/internal/auth"
	"github.com/partdesk/partdesk/internal/db/models"
)

var (
	// ErrDBNil is returned when the store is created without a database.
	ErrDBNil = errors.New("database is nil")

	// ErrRoleNotFound is returned when no role has the requested id.
	ErrRoleNotFound = errors.New("role not found")
)

const maxNameLen = 100

// Info holds the fields every role has.
type Info struct {
	ID          uint
	Name        string
	Description string
	Grants      auth.Grants
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Role is either a System or a Custom role.
type Role interface {
	Info() Info
	isRole()
}

// System is a role seeded by the application. Its grants may change, the role may not be deleted.
type System struct {
	info Info
}

// Custom is a role created by an administrator.
type Custom struct {
	info Info
}

// Info implements Role.
func (r System) Info() Info { return r.info }

// Info implements Role.
func (r Custom) Info() Info { return r.info }

func (System) isRole() {}
func (Custom) isRole() {}

// IsSystem reports whether r is a System role.
func IsSystem(r Role) bool {
	_, ok := r.(System)
	return ok
}

// Store provides CRUD for roles.
type Store struct {
	db *gorm.DB
}

// New creates a role store. Open db with gorm.Config.TranslateError so that unique
// violations surface as gorm.ErrDuplicatedKey.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	return &Store{db: db}, nil
}

// Create adds a custom role. Unregistered permission keys fail with *auth.ValidationError,
// a taken name with *auth.ConflictError.
func (s *Store) Create(ctx context.Context, name, description string, perms map[string]bool) (Role, error) {
	return s.create(ctx, name, description, perms, false)
}

// EnsureSystem creates the named system role with the given grants unless a role with that
// name exists. An existing role is flagged as system and keeps its grants.
func (s *Store) EnsureSystem(ctx context.Context, name, description string, grants auth.Grants) (Role, error) {
	var m models.Role

	err := s.db.WithContext(ctx).Where("name = ?", name).First(&m).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.create(ctx, name, description, grants.Raw(), true)
	case err != nil:
		return nil, fmt.Errorf("failed to look up role %s: %w", name, err)
	}

	if !m.IsSystem {
		if err = s.db.WithContext(ctx).Model(&m).Update("is_system", true).Error; err != nil {
			return nil, fmt.Errorf("failed to flag role %s as system: %w", name, err)
		}
	}

	return s.Get(ctx, m.ID)
}

func (s *Store) create(ctx context.Context, name, description string, perms map[string]bool, system bool) (Role, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}

	if _, err := auth.NewGrants(perms); err != nil {
		return nil, err
	}

	m := models.Role{
		Name:        name,
		Description: strings.TrimSpace(description),
		IsSystem:    system,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Role{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check role name: %w", err)
		}

		if count > 0 {
			return nameTaken(name)
		}

		err := tx.Omit("Permissions").Create(&m).Error

		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			// a concurrent create won the unique index
			return nameTaken(name)
		case err != nil:
			return fmt.Errorf("failed to create role: %w", err)
		}

		return insertGrants(tx, m.ID, perms)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, m.ID)
}

// Get returns the role with the given id or ErrRoleNotFound.
func (s *Store) Get(ctx context.Context, id uint) (Role, error) {
	var m models.Role

	err := s.db.WithContext(ctx).Preload("Permissions").First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoleNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	return fromModel(&m)
}

// Update replaces the grants of a role. System roles may be updated.
func (s *Store) Update(ctx context.Context, id uint, perms map[string]bool) (Role, error) {
	if _, err := auth.NewGrants(perms); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Role

		err := tx.First(&m, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to get role: %w", err)
		}

		if err = tx.Where("role_id = ?", id).Delete(&models.RolePermission{}).Error; err != nil {
			return fmt.Errorf("failed to clear role permissions: %w", err)
		}

		if err = insertGrants(tx, id, perms); err != nil {
			return err
		}

		return tx.Model(&m).Update("updated_at", time.Now()).Error
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

// Delete removes a custom role that no user references. System roles and referenced roles
// fail with *auth.ConflictError. The reference check and the delete share one transaction.
func (s *Store) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Role

		err := tx.Preload("Permissions").First(&m, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to get role: %w", err)
		}

		r, err := fromModel(&m)
		if err != nil {
			return err
		}

		switch r := r.(type) {
		case System:
			return &auth.ConflictError{Reason: fmt.Sprintf("system role %q cannot be deleted", r.info.Name)}
		case Custom:
			var users int64
			if err = tx.Model(&models.User{}).Where("role_id = ?", id).Count(&users).Error; err != nil {
				return fmt.Errorf("failed to count role users: %w", err)
			}

			if users > 0 {
				return &auth.ConflictError{
					Reason: fmt.Sprintf("role %q is assigned to %d user(s)", r.info.Name, users),
				}
			}

			if err = tx.Where("role_id = ?", id).Delete(&models.RolePermission{}).Error; err != nil {
				return fmt.Errorf("failed to delete role permissions: %w", err)
			}

			if err = tx.Delete(&models.Role{}, id).Error; err != nil {
				return fmt.Errorf("failed to delete role: %w", err)
			}

			return nil
		default:
			return fmt.Errorf("unexpected role variant %T", r)
		}
	})
}

// List returns all roles ordered by name.
func (s *Store) List(ctx context.Context) ([]Role, error) {
	var ms []models.Role

	if err := s.db.WithContext(ctx).Preload("Permissions").Order("name").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	out := make([]Role, 0, len(ms))

	for i := range ms {
		r, err := fromModel(&ms[i])
		if err != nil {
			return nil, err
		}

		out = append(out, r)
	}

	return out, nil
}

// PruneUnknownKeys deletes stored grants for keys that are no longer in the catalog.
// It runs at startup so that stored roles only ever hold registered keys.
func (s *Store) PruneUnknownKeys(ctx context.Context) (int64, error) {
	var keys []string

	if err := s.db.WithContext(ctx).Model(&models.RolePermission{}).
		Distinct("permission_key").Pluck("permission_key", &keys).Error; err != nil {
		return 0, fmt.Errorf("failed to list stored permission keys: %w", err)
	}

	var stale []string

	for _, k := range keys {
		if !auth.IsRegistered(auth.Key(k)) {
			stale = append(stale, k)
		}
	}

	if len(stale) == 0 {
		return 0, nil
	}

	res := s.db.WithContext(ctx).Where("permission_key IN ?", stale).Delete(&models.RolePermission{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune permission keys: %w", res.Error)
	}

	log.Warn().Strs("keys", stale).Int64("rows", res.RowsAffected).Msg("pruned unregistered permission keys from roles")

	return res.RowsAffected, nil
}

func insertGrants(tx *gorm.DB, roleID uint, perms map[string]bool) error {
	rows := models.RolePermissionsFrom(roleID, perms)
	if len(rows) == 0 {
		return nil
	}

	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to store role permissions: %w", err)
	}

	return nil
}

func nameTaken(name string) error {
	return &auth.ConflictError{Reason: fmt.Sprintf("role %q already exists", name)}
}

func validateName(name string) error {
	switch {
	case name == "":
		return &auth.ValidationError{Reason: "role name must not be empty"}
	case len(name) > maxNameLen:
		return &auth.ValidationError{Reason: fmt.Sprintf("role name must not exceed %d characters", maxNameLen)}
	default:
		return nil
	}
}

func fromModel(m *models.Role) (Role, error) {
	grants, err := auth.NewGrants(m.PermissionMap())
	if err != nil {
		return nil, fmt.Errorf("role %d: %w", m.ID, err)
	}

	info := Info{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Grants:      grants,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}

	if m.IsSystem {
		return System{info: info}, nil
	}

	return Custom{info: info}, nil
}
