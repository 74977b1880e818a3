package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/partdesk/partdesk/internal/auth"
	"github.com/partdesk/partdesk/internal/config"
	"github.com/partdesk/partdesk/internal/db/controller/role"
	"github.com/partdesk/partdesk/internal/db/controller/user"
	"github.com/partdesk/partdesk/internal/db/models"
	"github.com/partdesk/partdesk/internal/ratelimit"
)

func memoryDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := OpenDB(config.DB{GormEngine: config.EngineSQLite, Name: ":memory:"})
	require.NoError(t, err)

	return db
}

func stores(t *testing.T, db *gorm.DB) (*role.Store, *user.Store) {
	t.Helper()

	roles, err := role.New(db)
	require.NoError(t, err)

	users, err := user.New(db)
	require.NoError(t, err)

	require.NoError(t, Migrate(context.Background(), db, roles))

	return roles, users
}

func TestOpenDB_UnknownEngine(t *testing.T) {
	_, err := OpenDB(config.DB{GormEngine: "oracle"})
	assert.ErrorIs(t, err, config.ErrUnknownDBEngine)
}

func TestMigrate_PrunesUnknownKeys(t *testing.T) {
	db := memoryDB(t)
	roles, _ := stores(t, db)

	r := models.Role{Name: "Legacy"}
	require.NoError(t, db.Omit("Permissions").Create(&r).Error)
	require.NoError(t, db.Create(&[]models.RolePermission{
		{RoleID: r.ID, PermissionKey: "items.view", Granted: true},
		{RoleID: r.ID, PermissionKey: "stock.move", Granted: true},
	}).Error)

	require.NoError(t, Migrate(context.Background(), db, roles))

	got, err := roles.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"items.view": true}, got.Info().Grants.Raw())
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	db := memoryDB(t)
	roles, users := stores(t, db)

	seedCfg := config.Seed{AdminUsername: "admin", AdminPassword: "changeme"}
	require.NoError(t, Seed(ctx, seedCfg, roles, users))

	list, err := roles.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	for _, r := range list {
		assert.True(t, role.IsSystem(r), r.Info().Name)
	}

	admin, err := users.FindCredential(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, admin.Active)
	assert.Equal(t, auth.TemplateAdministrator, admin.RoleName)
	assert.Len(t, admin.Permissions, len(auth.AllKeys()))

	// second run changes nothing
	require.NoError(t, Seed(ctx, config.Seed{AdminUsername: "root", AdminPassword: "x"}, roles, users))

	n, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = users.FindCredential(ctx, "root")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestSeed_KeepsEditedSystemGrants(t *testing.T) {
	ctx := context.Background()
	db := memoryDB(t)
	roles, users := stores(t, db)

	require.NoError(t, Seed(ctx, config.Seed{}, roles, users))

	list, err := roles.List(ctx)
	require.NoError(t, err)

	var viewer role.Role
	for _, r := range list {
		if r.Info().Name == auth.TemplateViewer {
			viewer = r
		}
	}
	require.NotNil(t, viewer)

	_, err = roles.Update(ctx, viewer.Info().ID, map[string]bool{"dashboard.view": true})
	require.NoError(t, err)

	require.NoError(t, Seed(ctx, config.Seed{}, roles, users))

	got, err := roles.Get(ctx, viewer.Info().ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"dashboard.view": true}, got.Info().Grants.Raw())
}

func TestSeed_NoPasswordNoAdmin(t *testing.T) {
	ctx := context.Background()
	roles, users := stores(t, memoryDB(t))

	require.NoError(t, Seed(ctx, config.Seed{AdminUsername: "admin"}, roles, users))

	n, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewLimiter_Memory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l, closeFn, err := NewLimiter(ctx, config.RateLimit{
		Backend: config.RateLimitMemory, MaxAttempts: 2, Window: time.Minute, SweepInterval: time.Second,
	})
	require.NoError(t, err)
	require.NoError(t, closeFn())
	require.IsType(t, &ratelimit.Memory{}, l)

	for range 2 {
		d, errTake := l.Take(ctx, "alice")
		require.NoError(t, errTake)
		assert.True(t, d.Allowed)
	}

	d, err := l.Take(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestNewLimiter_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	l, closeFn, err := NewLimiter(context.Background(), config.RateLimit{
		Backend:     config.RateLimitRedis,
		MaxAttempts: 5,
		Window:      15 * time.Minute,
		Redis:       config.Redis{Addr: mr.Addr(), KeyPrefix: "test:"},
	})
	require.NoError(t, err)

	defer func() { _ = closeFn() }()

	require.IsType(t, &ratelimit.Redis{}, l)

	d, err := l.Take(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.True(t, mr.Exists("test:alice"))
}

func TestNewLimiter_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, _, err := NewLimiter(context.Background(), config.RateLimit{
		Backend: config.RateLimitRedis,
		Redis:   config.Redis{Addr: addr},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}

func TestNew(t *testing.T) {
	cfg := &config.Config{
		Title: "PartDesk",
		DB:    config.DB{GormEngine: config.EngineSQLite, Name: ":memory:"},
		Webserver: config.Webserver{
			Port: 8080,
			URL:  "http://localhost:8080",
			Session: config.Session{
				SigningKey: "0123456789abcdef0123456789abcdef",
				CookieName: "partdesk_session",
				Issuer:     "partdesk",
				ExpiryTime: time.Hour,
			},
		},
		RateLimit: config.RateLimit{Backend: config.RateLimitMemory, MaxAttempts: 5, Window: time.Minute, SweepInterval: time.Minute},
		Seed:      config.Seed{AdminUsername: "admin"},
	}

	d, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, d.webService.App)

	d.Close()

	_, err = New(nil)
	assert.Error(t, err)
}

func TestNew_ClosesDBOnFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	var opened *gorm.DB

	openDB = func(cfg config.DB) (*gorm.DB, error) {
		db, err := OpenDB(cfg)
		opened = db

		return db, err
	}
	t.Cleanup(func() { openDB = OpenDB })

	cfg := &config.Config{
		DB: config.DB{GormEngine: config.EngineSQLite, Name: ":memory:"},
		Webserver: config.Webserver{
			Session: config.Session{SigningKey: "0123456789abcdef0123456789abcdef", ExpiryTime: time.Hour},
		},
		RateLimit: config.RateLimit{Backend: config.RateLimitRedis, Redis: config.Redis{Addr: addr}},
	}

	_, err := New(cfg)
	require.Error(t, err)
	require.NotNil(t, opened)

	sqlDB, err := opened.DB()
	require.NoError(t, err)
	assert.ErrorContains(t, sqlDB.Ping(), "database is closed")
}
