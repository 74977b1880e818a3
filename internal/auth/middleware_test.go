package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newGatedApp wires a route behind the given guard. The claim is injected as the session
// middleware would do.
func newGatedApp(claim *Claim, guard fiber.Handler) *fiber.App {
	app := fiber.New()

	app.Use(func(c *fiber.Ctx) error {
		SetClaim(c, claim)
		return c.Next()
	})

	app.Get("/target", guard, func(c *fiber.Ctx) error {
		if !CapabilitiesFrom(c).Can(string(PermUsersView)) {
			return c.SendString("ok-limited")
		}

		return c.SendString("ok")
	})

	return app
}

func doGet(t *testing.T, app *fiber.App) (*http.Response, string) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/target", nil), -1)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	_ = resp.Body.Close()

	return resp, string(body)
}

func TestRequireAPI(t *testing.T) {
	testCases := []struct {
		name       string
		claim      *Claim
		wantStatus int
		wantBody   string
	}{
		{
			name:       "no session",
			claim:      nil,
			wantStatus: fiber.StatusUnauthorized,
			wantBody:   `{"error":"Unauthorized"}`,
		},
		{
			name:       "missing permission",
			claim:      claimWith(Grants{PermItemsView: true}),
			wantStatus: fiber.StatusForbidden,
			wantBody:   `{"error":"Forbidden"}`,
		},
		{
			name:       "false grant",
			claim:      claimWith(Grants{PermUsersView: false}),
			wantStatus: fiber.StatusForbidden,
			wantBody:   `{"error":"Forbidden"}`,
		},
		{
			name:       "granted",
			claim:      claimWith(Grants{PermUsersView: true}),
			wantStatus: fiber.StatusOK,
			wantBody:   "ok",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := doGet(t, newGatedApp(tc.claim, RequireAPI(PermUsersView)))

			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			assert.Equal(t, tc.wantBody, body)
		})
	}
}

func TestRequirePage(t *testing.T) {
	testCases := []struct {
		name         string
		claim        *Claim
		wantStatus   int
		wantLocation string
	}{
		{
			name:         "no session",
			claim:        nil,
			wantStatus:   fiber.StatusFound,
			wantLocation: LoginPath,
		},
		{
			name:         "missing permission",
			claim:        claimWith(Grants{PermItemsView: true}),
			wantStatus:   fiber.StatusFound,
			wantLocation: UnauthorizedPath,
		},
		{
			name:       "granted",
			claim:      claimWith(Grants{PermUsersView: true}),
			wantStatus: fiber.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := doGet(t, newGatedApp(tc.claim, RequirePage(PermUsersView)))

			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			assert.Equal(t, tc.wantLocation, resp.Header.Get("Location"))
		})
	}
}

func TestRequireSession(t *testing.T) {
	resp, body := doGet(t, newGatedApp(nil, RequireSession()))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, `{"error":"Unauthorized"}`, body)

	resp, body = doGet(t, newGatedApp(claimWith(Grants{}), RequireSession()))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok-limited", body)
}
