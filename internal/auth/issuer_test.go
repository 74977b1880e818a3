package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partdesk/partdesk/internal/ratelimit"
)

// cheap parameters keep the tests fast
var testHashParams = &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

type fakeStore struct {
	mu      sync.Mutex
	users   map[string]*Credential
	touched map[uint64]time.Time
	findFn  func(ctx context.Context, username string) (*Credential, error)
	touchFn func() error
}

func (f *fakeStore) FindCredential(ctx context.Context, username string) (*Credential, error) {
	if f.findFn != nil {
		return f.findFn(ctx, username)
	}

	cred, ok := f.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}

	return cred, nil
}

func (f *fakeStore) TouchLastLogin(_ context.Context, userID uint64, at time.Time) error {
	if f.touchFn != nil {
		return f.touchFn()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.touched[userID] = at

	return nil
}

func (f *fakeStore) lastLogin(userID uint64) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	at, ok := f.touched[userID]

	return at, ok
}

type errLimiter struct{}

func (errLimiter) Take(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("redis: connection refused")
}

func (errLimiter) Refund(context.Context, string) error { return nil }

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type issuerFixture struct {
	issuer *Issuer
	store  *fakeStore
	clock  *testClock
}

func newIssuerFixture(t *testing.T) *issuerFixture {
	t.Helper()

	hash, err := argon2id.CreateHash("s3cr3t", testHashParams)
	require.NoError(t, err)

	store := &fakeStore{
		users: map[string]*Credential{
			"alice": {
				UserID: 1, Username: "alice", DisplayName: "Alice", PasswordHash: hash, Active: true,
				RoleID: 2, RoleName: "Sales", Permissions: map[string]bool{"items.view": true, "orders.view": true},
			},
			"bob": {
				UserID: 2, Username: "bob", PasswordHash: hash, Active: false,
				RoleID: 2, RoleName: "Sales", Permissions: map[string]bool{"items.view": true},
			},
			"carol": {
				UserID: 3, Username: "carol", PasswordHash: hash, Active: true,
				RoleID: 9, RoleName: "Legacy", Permissions: map[string]bool{"items.view": true, "stock.move": true},
			},
		},
		touched: make(map[uint64]time.Time),
	}

	clock := &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}

	limiter, err := ratelimit.NewMemory(ratelimit.Config{}, ratelimit.WithClock(clock.Now))
	require.NoError(t, err)

	tokens, err := NewTokenManager(TokenConfig{SigningKey: testSigningKey, Now: clock.Now})
	require.NoError(t, err)

	return &issuerFixture{
		issuer: NewIssuer(store, limiter, tokens, WithIssuerClock(clock.Now)),
		store:  store,
		clock:  clock,
	}
}

func TestLogin_Success(t *testing.T) {
	f := newIssuerFixture(t)

	sess, err := f.issuer.Login(context.Background(), "alice", "s3cr3t")
	require.NoError(t, err)
	require.NotNil(t, sess)

	assert.Equal(t, uint64(1), sess.Claim.UserID())
	assert.Equal(t, "Sales", sess.Claim.RoleName())
	assert.Equal(t, uint(2), sess.Claim.RoleID())
	assert.True(t, sess.Claim.Has(PermItemsView))
	assert.False(t, sess.Claim.Has(PermItemsCreate))
	assert.Equal(t, f.clock.Now().Add(DefaultSessionTTL), sess.Claim.ExpiresAt())

	parsed, err := f.issuer.Tokens().Parse(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.Claim.identity, parsed.identity)

	f.issuer.Wait()

	at, ok := f.store.lastLogin(1)
	require.True(t, ok)
	assert.Equal(t, f.clock.Now(), at)
}

func TestLogin_SnapshotIgnoresLaterRoleEdits(t *testing.T) {
	f := newIssuerFixture(t)

	sess, err := f.issuer.Login(context.Background(), "alice", "s3cr3t")
	require.NoError(t, err)

	f.store.users["alice"].Permissions["items.view"] = false
	f.store.users["alice"].Permissions["items.delete"] = true

	assert.True(t, sess.Claim.Has(PermItemsView))
	assert.False(t, sess.Claim.Has(PermItemsDelete))

	sess, err = f.issuer.Login(context.Background(), "alice", "s3cr3t")
	require.NoError(t, err)
	assert.False(t, sess.Claim.Has(PermItemsView))
	assert.True(t, sess.Claim.Has(PermItemsDelete))
}

func TestLogin_UniformFailure(t *testing.T) {
	f := newIssuerFixture(t)

	testCases := []struct {
		name     string
		username string
		password string
	}{
		{name: "unknown user", username: "mallory", password: "s3cr3t"},
		{name: "inactive user", username: "bob", password: "s3cr3t"},
		{name: "wrong password", username: "alice", password: "nope"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sess, err := f.issuer.Login(context.Background(), tc.username, tc.password)
			assert.Nil(t, sess)
			require.ErrorIs(t, err, ErrInvalidCredentials)
			assert.Equal(t, "invalid username or password", err.Error())
		})
	}

	_, ok := f.store.lastLogin(2)
	assert.False(t, ok)
}

func TestLogin_RateLimitedEvenWithValidPassword(t *testing.T) {
	f := newIssuerFixture(t)
	ctx := context.Background()

	for range ratelimit.DefaultMaxAttempts {
		_, err := f.issuer.Login(ctx, "alice", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err := f.issuer.Login(ctx, "alice", "s3cr3t")
	require.ErrorIs(t, err, ErrRateLimited)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "too many login attempts, please try again later", err.Error())

	var rlErr *RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, ratelimit.DefaultWindow, rlErr.RetryAfter)
	assert.Equal(t, 900, rlErr.RetryAfterSeconds())

	// the identifier is normalized
	_, err = f.issuer.Login(ctx, "  ALICE ", "s3cr3t")
	require.ErrorIs(t, err, ErrRateLimited)

	// other identifiers are not affected
	_, err = f.issuer.Login(ctx, "bob", "s3cr3t")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	f.clock.Advance(ratelimit.DefaultWindow)

	sess, err := f.issuer.Login(ctx, "alice", "s3cr3t")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
}

func TestLogin_SuccessfulAttemptsCount(t *testing.T) {
	f := newIssuerFixture(t)
	ctx := context.Background()

	for range ratelimit.DefaultMaxAttempts {
		_, err := f.issuer.Login(ctx, "alice", "s3cr3t")
		require.NoError(t, err)
	}

	_, err := f.issuer.Login(ctx, "alice", "s3cr3t")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestLogin_CancelledLookupIsRefunded(t *testing.T) {
	f := newIssuerFixture(t)

	f.store.findFn = func(ctx context.Context, _ string) (*Credential, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	for range ratelimit.DefaultMaxAttempts + 2 {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := f.issuer.Login(ctx, "alice", "s3cr3t")
		require.ErrorIs(t, err, ErrAuthUnavailable)
	}

	f.store.findFn = nil

	sess, err := f.issuer.Login(context.Background(), "alice", "s3cr3t")
	require.NoError(t, err)
	assert.NotNil(t, sess)
}

func TestLogin_TimedOutLookupIsRefunded(t *testing.T) {
	f := newIssuerFixture(t)

	issuer := NewIssuer(f.store, f.issuer.limiter, f.issuer.Tokens(), WithLoginTimeout(20*time.Millisecond))

	f.store.findFn = func(ctx context.Context, _ string) (*Credential, error) {
		_, ok := ctx.Deadline()
		assert.True(t, ok)

		<-ctx.Done()

		return nil, ctx.Err()
	}

	for range ratelimit.DefaultMaxAttempts + 2 {
		_, err := issuer.Login(context.Background(), "alice", "s3cr3t")
		require.ErrorIs(t, err, ErrAuthUnavailable)
	}

	f.store.findFn = nil

	sess, err := issuer.Login(context.Background(), "alice", "s3cr3t")
	require.NoError(t, err)
	assert.NotNil(t, sess)
}

func TestWithLoginTimeout_IgnoresNonPositive(t *testing.T) {
	f := newIssuerFixture(t)

	assert.Equal(t, DefaultLoginTimeout, NewIssuer(f.store, f.issuer.limiter, f.issuer.Tokens(), WithLoginTimeout(0)).timeout)
	assert.Equal(t, time.Second, NewIssuer(f.store, f.issuer.limiter, f.issuer.Tokens(), WithLoginTimeout(time.Second)).timeout)
}

func TestLogin_BackendFailureStaysCounted(t *testing.T) {
	f := newIssuerFixture(t)
	ctx := context.Background()

	f.store.findFn = func(context.Context, string) (*Credential, error) {
		return nil, errors.New("database is locked")
	}

	for range ratelimit.DefaultMaxAttempts {
		_, err := f.issuer.Login(ctx, "alice", "s3cr3t")
		require.ErrorIs(t, err, ErrAuthUnavailable)
	}

	f.store.findFn = nil

	_, err := f.issuer.Login(ctx, "alice", "s3cr3t")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestLogin_LimiterUnavailable(t *testing.T) {
	f := newIssuerFixture(t)

	issuer := NewIssuer(f.store, errLimiter{}, f.issuer.Tokens())

	_, err := issuer.Login(context.Background(), "alice", "s3cr3t")
	assert.ErrorIs(t, err, ErrAuthUnavailable)
}

func TestLogin_RoleWithUnregisteredKey(t *testing.T) {
	f := newIssuerFixture(t)

	sess, err := f.issuer.Login(context.Background(), "carol", "s3cr3t")
	assert.Nil(t, sess)
	assert.ErrorIs(t, err, ErrAuthUnavailable)
}

func TestLogin_LastLoginFailureIsIgnored(t *testing.T) {
	f := newIssuerFixture(t)

	f.store.touchFn = func() error { return errors.New("read-only replica") }

	sess, err := f.issuer.Login(context.Background(), "alice", "s3cr3t")
	require.NoError(t, err)
	assert.NotNil(t, sess)

	f.issuer.Wait()
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "alice", NormalizeUsername("  Alice\t"))
}
