package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claimWith(grants Grants) *Claim {
	return NewClaim(testIdentity(), grants, "test", time.Now(), time.Hour)
}

func TestAuthorizeAPI_DecisionRule(t *testing.T) {
	claim := claimWith(Grants{PermItemsView: true, PermItemsCreate: false})

	for _, k := range AllKeys() {
		got, err := AuthorizeAPI(claim, k)

		if k == PermItemsView {
			require.NoError(t, err, k)
			assert.Same(t, claim, got)

			continue
		}

		assert.ErrorIs(t, err, ErrInsufficientPermission, k)
		assert.Nil(t, got)
	}
}

func TestAuthorizeAPI_NoClaim(t *testing.T) {
	for _, k := range AllKeys() {
		got, err := AuthorizeAPI(nil, k)
		assert.ErrorIs(t, err, ErrNoSession, k)
		assert.Nil(t, got)
	}

	_, err := AuthorizeAPI(nil, PermUsersView)
	assert.Equal(t, "Unauthorized", err.Error())
}

func TestAuthorizeAPI_ForbiddenMessage(t *testing.T) {
	_, err := AuthorizeAPI(claimWith(nil), PermUsersView)
	assert.Equal(t, "Forbidden", err.Error())
}

func TestAuthorizePage(t *testing.T) {
	claim := claimWith(Grants{PermUsersView: true})

	testCases := []struct {
		name     string
		claim    *Claim
		required Key
		want     PageOutcome
	}{
		{name: "no claim", claim: nil, required: PermUsersView, want: PageRedirectLogin},
		{name: "granted", claim: claim, required: PermUsersView, want: PageAllow},
		{name: "missing", claim: claim, required: PermUsersEdit, want: PageRedirectUnauthorized},
		{name: "empty grants", claim: claimWith(Grants{}), required: PermDashboardView, want: PageRedirectUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AuthorizePage(tc.claim, tc.required))
		})
	}
}

func TestPageOutcomeString(t *testing.T) {
	assert.Equal(t, "allow", PageAllow.String())
	assert.Equal(t, "redirect_login", PageRedirectLogin.String())
	assert.Equal(t, "redirect_unauthorized", PageRedirectUnauthorized.String())
	assert.Equal(t, "unknown", PageOutcome(42).String())
}
