package auth

import "time"

// Identity is the user part of a session claim.
type Identity struct {
	UserID      uint64
	Username    string
	DisplayName string
	RoleID      uint
	RoleName    string
}

// Claim is the signed snapshot carried by every request after login.
// Its grants are copied from the role when the claim is minted and never follow later
// edits of that role; a changed role reaches a session only through re-authentication.
type Claim struct {
	identity  Identity
	grants    Grants
	tokenID   string
	issuedAt  time.Time
	expiresAt time.Time
}

// NewClaim mints a claim. The grants are copied.
func NewClaim(id Identity, grants Grants, tokenID string, issuedAt time.Time, ttl time.Duration) *Claim {
	return &Claim{
		identity:  id,
		grants:    grants.Clone(),
		tokenID:   tokenID,
		issuedAt:  issuedAt.UTC(),
		expiresAt: issuedAt.UTC().Add(ttl),
	}
}

// UserID returns the authenticated user id.
func (c *Claim) UserID() uint64 { return c.identity.UserID }

// Username returns the login name.
func (c *Claim) Username() string { return c.identity.Username }

// DisplayName returns the name shown in the UI.
func (c *Claim) DisplayName() string { return c.identity.DisplayName }

// RoleID returns the role id at mint time.
func (c *Claim) RoleID() uint { return c.identity.RoleID }

// RoleName returns the role name at mint time.
func (c *Claim) RoleName() string { return c.identity.RoleName }

// TokenID returns the unique id of the token that carries this claim.
func (c *Claim) TokenID() string { return c.tokenID }

// IssuedAt returns the mint time.
func (c *Claim) IssuedAt() time.Time { return c.issuedAt }

// ExpiresAt returns the end of the claim lifetime.
func (c *Claim) ExpiresAt() time.Time { return c.expiresAt }

// Expired reports whether the claim is past its lifetime at now.
func (c *Claim) Expired(now time.Time) bool {
	return !now.Before(c.expiresAt)
}

// Has applies the decision rule to this claim. A nil claim has nothing.
func (c *Claim) Has(k Key) bool {
	if c == nil {
		return false
	}

	return c.grants.Allows(k)
}

// ClientClaim is the client-visible copy of a claim, used for presentation only.
type ClientClaim struct {
	UserID      uint64          `json:"userId"`
	Username    string          `json:"username"`
	DisplayName string          `json:"displayName"`
	RoleID      uint            `json:"roleId"`
	RoleName    string          `json:"roleName"`
	Permissions map[string]bool `json:"permissions"`
	ExpiresAt   time.Time       `json:"expiresAt"`
}

// Client returns the client-visible copy.
func (c *Claim) Client() ClientClaim {
	return ClientClaim{
		UserID:      c.identity.UserID,
		Username:    c.identity.Username,
		DisplayName: c.identity.DisplayName,
		RoleID:      c.identity.RoleID,
		RoleName:    c.identity.RoleName,
		Permissions: c.grants.Raw(),
		ExpiresAt:   c.expiresAt,
	}
}
