package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSigningKeyLen is the minimum HS256 key length in bytes.
const MinSigningKeyLen = 32

// DefaultSessionTTL is the claim lifetime used when none is configured.
const DefaultSessionTTL = 8 * time.Hour

var (
	// ErrSigningKeyTooShort is returned for HS256 keys shorter than MinSigningKeyLen.
	ErrSigningKeyTooShort = errors.New("session signing key must be at least 32 bytes")

	// ErrNonPositiveTTL is returned for a zero or negative session lifetime.
	ErrNonPositiveTTL = errors.New("session ttl must be positive")
)

// TokenConfig configures the TokenManager.
type TokenConfig struct {
	SigningKey []byte
	Issuer     string
	TTL        time.Duration
	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

// TokenManager mints and verifies signed session tokens (HS256 JWT).
type TokenManager struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

type sessionClaims struct {
	jwt.RegisteredClaims
	UserID      uint64          `json:"uid"`
	Username    string          `json:"usr"`
	DisplayName string          `json:"name"`
	RoleID      uint            `json:"rid"`
	RoleName    string          `json:"role"`
	Permissions map[string]bool `json:"perms"`
}

// NewTokenManager validates the config and returns a TokenManager.
func NewTokenManager(cfg TokenConfig) (*TokenManager, error) {
	if len(cfg.SigningKey) < MinSigningKeyLen {
		return nil, ErrSigningKeyTooShort
	}

	if cfg.TTL == 0 {
		cfg.TTL = DefaultSessionTTL
	}

	if cfg.TTL < 0 {
		return nil, ErrNonPositiveTTL
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	key := make([]byte, len(cfg.SigningKey))
	copy(key, cfg.SigningKey)

	return &TokenManager{key: key, issuer: cfg.Issuer, ttl: cfg.TTL, now: cfg.Now}, nil
}

// TTL returns the configured claim lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Mint creates a claim for the identity with a copy of the grants and signs it.
func (m *TokenManager) Mint(id Identity, grants Grants) (string, *Claim, error) {
	claim := NewClaim(id, grants, uuid.NewString(), m.now(), m.ttl)

	token, err := m.Sign(claim)
	if err != nil {
		return "", nil, err
	}

	return token, claim, nil
}

// Sign encodes the claim as a signed token.
func (m *TokenManager) Sign(c *Claim) (string, error) {
	sc := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   strconv.FormatUint(c.UserID(), 10),
			IssuedAt:  jwt.NewNumericDate(c.IssuedAt()),
			NotBefore: jwt.NewNumericDate(c.IssuedAt()),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt()),
			ID:        c.TokenID(),
		},
		UserID:      c.UserID(),
		Username:    c.Username(),
		DisplayName: c.DisplayName(),
		RoleID:      c.RoleID(),
		RoleName:    c.RoleName(),
		Permissions: c.grants.Raw(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sc).SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	return signed, nil
}

// Parse verifies the token and rebuilds the claim. Expired, tampered or foreign tokens
// return ErrInvalidToken. A token whose permission map holds keys this binary does not
// know is rejected as well, so the user has to log in again.
func (m *TokenManager) Parse(token string) (*Claim, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	var sc sessionClaims

	parsed, err := jwt.ParseWithClaims(token, &sc, func(*jwt.Token) (any, error) {
		return m.key, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	grants, err := NewGrants(sc.Permissions)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if sc.IssuedAt == nil || sc.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}

	return &Claim{
		identity: Identity{
			UserID:      sc.UserID,
			Username:    sc.Username,
			DisplayName: sc.DisplayName,
			RoleID:      sc.RoleID,
			RoleName:    sc.RoleName,
		},
		grants:    grants,
		tokenID:   sc.ID,
		issuedAt:  sc.IssuedAt.Time.UTC(),
		expiresAt: sc.ExpiresAt.Time.UTC(),
	}, nil
}
