package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"

	"github.com/partdesk/partdesk/internal/ratelimit"
)

const lastLoginTimeout = 5 * time.Second

// DefaultLoginTimeout bounds one login attempt when no timeout is configured.
const DefaultLoginTimeout = 5 * time.Second

// ErrUserNotFound is returned by a CredentialStore for an unknown username.
var ErrUserNotFound = errors.New("user not found")

// Credential is what the issuer needs to know about a user to authenticate and mint a claim.
type Credential struct {
	UserID       uint64
	Username     string
	DisplayName  string
	PasswordHash string
	Active       bool
	RoleID       uint
	RoleName     string
	Permissions  map[string]bool
}

// CredentialStore looks up users for login.
type CredentialStore interface {
	// FindCredential returns ErrUserNotFound for an unknown username.
	FindCredential(ctx context.Context, username string) (*Credential, error)
	TouchLastLogin(ctx context.Context, userID uint64, at time.Time) error
}

// Session is the result of a successful login.
type Session struct {
	Token string
	Claim *Claim
}

// Issuer authenticates credentials and mints session claims.
type Issuer struct {
	store   CredentialStore
	limiter ratelimit.Limiter
	tokens  *TokenManager
	now     func() time.Time
	timeout time.Duration

	// wg tracks background last-login writes.
	wg sync.WaitGroup
}

// IssuerOption customizes an Issuer.
type IssuerOption func(*Issuer)

// WithIssuerClock overrides time.Now for last-login timestamps.
func WithIssuerClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.now = now
	}
}

// WithLoginTimeout sets the deadline of one login attempt. Non-positive values keep the default.
func WithLoginTimeout(d time.Duration) IssuerOption {
	return func(i *Issuer) {
		if d > 0 {
			i.timeout = d
		}
	}
}

// NewIssuer creates an Issuer.
func NewIssuer(store CredentialStore, limiter ratelimit.Limiter, tokens *TokenManager, opts ...IssuerOption) *Issuer {
	if store == nil || limiter == nil || tokens == nil {
		panic("auth: issuer needs a credential store, a limiter and a token manager")
	}

	i := &Issuer{
		store:   store,
		limiter: limiter,
		tokens:  tokens,
		now:     time.Now,
		timeout: DefaultLoginTimeout,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// Tokens returns the token manager used to mint and parse claims.
func (i *Issuer) Tokens() *TokenManager {
	return i.tokens
}

// NormalizeUsername returns the throttling identifier for a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Login authenticates username and password.
//
// The attempt runs under the issuer's login timeout on top of any deadline ctx carries.
// It returns ErrInvalidCredentials for an unknown user, an inactive user and a wrong password
// alike, a *RateLimitError once the identifier's attempt budget is spent (even when the
// credentials are valid) and ErrAuthUnavailable when the attempt could not be decided.
func (i *Issuer) Login(ctx context.Context, username, password string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	key := NormalizeUsername(username)

	decision, err := i.limiter.Take(ctx, key)
	if err != nil {
		log.Error().Err(err).Msg("login throttle unavailable")
		observeLogin(outcomeUnavailable)

		return nil, ErrAuthUnavailable
	}

	if !decision.Allowed {
		log.Info().Str("username", key).Dur("retry_after", decision.RetryAfter).Msg("login throttled")
		observeLogin(outcomeThrottled)

		return nil, &RateLimitError{RetryAfter: decision.RetryAfter}
	}

	cred, err := i.store.FindCredential(ctx, key)

	switch {
	case err == nil:
	case errors.Is(err, ErrUserNotFound):
		cred = nil
	case ctx.Err() != nil:
		// aborted before any password comparison; the attempt does not count
		if rerr := i.limiter.Refund(context.WithoutCancel(ctx), key); rerr != nil {
			log.Warn().Err(rerr).Str("username", key).Msg("failed to refund login attempt")
		}

		observeLogin(outcomeUnavailable)

		return nil, ErrAuthUnavailable
	default:
		log.Error().Err(err).Msg("credential lookup failed")
		observeLogin(outcomeUnavailable)

		return nil, ErrAuthUnavailable
	}

	if !i.verify(cred, password) {
		log.Info().Str("username", key).Msg("login failed")
		observeLogin(outcomeInvalid)

		return nil, ErrInvalidCredentials
	}

	grants, err := NewGrants(cred.Permissions)
	if err != nil {
		log.Error().Err(err).Uint("role_id", cred.RoleID).Msg("role holds unregistered permission keys")
		observeLogin(outcomeUnavailable)

		return nil, ErrAuthUnavailable
	}

	token, claim, err := i.tokens.Mint(Identity{
		UserID:      cred.UserID,
		Username:    cred.Username,
		DisplayName: cred.DisplayName,
		RoleID:      cred.RoleID,
		RoleName:    cred.RoleName,
	}, grants)
	if err != nil {
		log.Error().Err(err).Msg("failed to mint session token")
		observeLogin(outcomeUnavailable)

		return nil, ErrAuthUnavailable
	}

	i.touchLastLogin(ctx, cred.UserID)

	log.Info().Uint64("user_id", cred.UserID).Str("role", cred.RoleName).Msg("login succeeded")
	observeLogin(outcomeSuccess)

	return &Session{Token: token, Claim: claim}, nil
}

// Wait blocks until pending last-login writes are done.
func (i *Issuer) Wait() {
	i.wg.Wait()
}

// verify checks the password. Unknown and inactive users still pay for a hash comparison.
func (i *Issuer) verify(cred *Credential, password string) bool {
	if cred == nil {
		_, _ = argon2id.ComparePasswordAndHash(password, dummyHash())
		return false
	}

	match, err := argon2id.ComparePasswordAndHash(password, cred.PasswordHash)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", cred.UserID).Msg("failed to verify password")
		return false
	}

	return match && cred.Active
}

// touchLastLogin records the login time without delaying the response. Failures are logged.
func (i *Issuer) touchLastLogin(ctx context.Context, userID uint64) {
	at := i.now().UTC()

	i.wg.Add(1)

	go func() {
		defer i.wg.Done()

		tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lastLoginTimeout)
		defer cancel()

		if err := i.store.TouchLastLogin(tctx, userID, at); err != nil {
			log.Warn().Err(err).Uint64("user_id", userID).Msg("failed to record last login")
		}
	}()
}

var (
	dummyOnce sync.Once
	dummy     string
)

func dummyHash() string {
	dummyOnce.Do(func() {
		h, err := argon2id.CreateHash("partdesk-timing-equalizer", argon2id.DefaultParams)
		if err != nil {
			log.Error().Err(err).Msg("failed to create dummy password hash")
		}

		dummy = h
	})

	return dummy
}
