// Package user stores user accounts and serves credential lookups for login.
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/partdesk/partdesk/internal/auth"
	"github.com/partdesk/partdesk/internal/db/models"
)

var (
	// ErrDBNil is returned when the store is created without a database.
	ErrDBNil = errors.New("database is nil")

	// ErrUserNameExists is returned when the username is taken.
	ErrUserNameExists = errors.New("username already exists")
)

// NewUser holds the fields for Create.
type NewUser struct {
	Username    string
	DisplayName string
	Email       string
	Password    string
	RoleID      uint
	Active      bool
}

// Store provides access to user accounts.
type Store struct {
	db *gorm.DB
}

// New creates a user store. Open db with gorm.Config.TranslateError so that a username
// taken between the check and the insert maps to ErrUserNameExists.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	return &Store{db: db}, nil
}

// FindCredential implements auth.CredentialStore. The role and its grants are loaded in the
// same read so that the claim reflects the role at this instant.
func (s *Store) FindCredential(ctx context.Context, username string) (*auth.Credential, error) {
	var u models.User

	err := s.db.WithContext(ctx).
		Preload("Role").
		Preload("Role.Permissions").
		Where("username = ?", strings.ToLower(strings.TrimSpace(username))).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	displayName := u.DisplayName
	if displayName == "" {
		displayName = u.Username
	}

	return &auth.Credential{
		UserID:       u.ID,
		Username:     u.Username,
		DisplayName:  displayName,
		PasswordHash: u.Password,
		Active:       u.Active,
		RoleID:       u.RoleID,
		RoleName:     u.Role.Name,
		Permissions:  u.Role.PermissionMap(),
	}, nil
}

// TouchLastLogin implements auth.CredentialStore.
func (s *Store) TouchLastLogin(ctx context.Context, userID uint64, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_login_at", at)
	if res.Error != nil {
		return fmt.Errorf("failed to update last login: %w", res.Error)
	}

	return nil
}

// Create adds a user. The username is stored lowercase and the password hashed.
func (s *Store) Create(ctx context.Context, in NewUser) (*models.User, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if username == "" {
		return nil, &auth.ValidationError{Reason: "username must not be empty"}
	}

	if in.Password == "" {
		return nil, &auth.ValidationError{Reason: "password must not be empty"}
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	if count > 0 {
		return nil, ErrUserNameExists
	}

	hash, err := models.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := models.User{
		Active:      in.Active,
		Username:    username,
		DisplayName: strings.TrimSpace(in.DisplayName),
		Email:       strings.TrimSpace(in.Email),
		Password:    hash,
		RoleID:      in.RoleID,
	}

	err = s.db.WithContext(ctx).Omit("Role").Create(&u).Error

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return nil, ErrUserNameExists
	case err != nil:
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &u, nil
}

// List returns all users with their role, ordered by username.
func (s *Store) List(ctx context.Context) ([]models.User, error) {
	var users []models.User

	if err := s.db.WithContext(ctx).Preload("Role").Order("username").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// Count returns the number of users.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64

	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}

var _ auth.CredentialStore = (*Store)(nil)
