package session

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partdesk/partdesk/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Webserver: config.Webserver{
			Session: config.Session{CookieName: "pd", Secure: true},
		},
	}
}

func TestToken(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(Token(c, "pd"))
	})

	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{name: "none"},
		{name: "cookie", cookie: "from-cookie", want: "from-cookie"},
		{name: "bearer wins", header: "Bearer from-header", cookie: "from-cookie", want: "from-header"},
		{name: "bearer case insensitive", header: "bearer abc", want: "abc"},
		{name: "basic ignored", header: "Basic dXNlcjpwdw==", cookie: "c", want: "c"},
		{name: "empty bearer", header: "Bearer ", cookie: "c", want: "c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}

			if tt.cookie != "" {
				req.Header.Set(fiber.HeaderCookie, "pd="+tt.cookie)
			}

			resp, err := app.Test(req, -1)
			require.NoError(t, err)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			require.NoError(t, resp.Body.Close())
			assert.Equal(t, tt.want, string(body))
		})
	}
}

func TestSetAndClearCookie(t *testing.T) {
	cfg := testConfig()
	expires := time.Now().Add(time.Hour)

	app := fiber.New()
	app.Get("/set", func(c *fiber.Ctx) error {
		SetCookie(c, cfg, "tok", expires)
		return nil
	})
	app.Get("/clear", func(c *fiber.Ctx) error {
		ClearCookie(c, cfg)
		return nil
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/set", nil), -1)
	require.NoError(t, err)

	set := strings.ToLower(resp.Header.Get(fiber.HeaderSetCookie))
	assert.Contains(t, set, "pd=tok")
	assert.Contains(t, set, "httponly")
	assert.Contains(t, set, "secure")
	assert.Contains(t, set, "samesite=lax")

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/clear", nil), -1)
	require.NoError(t, err)

	cleared := strings.ToLower(resp.Header.Get(fiber.HeaderSetCookie))
	assert.Contains(t, cleared, "pd=;")
	assert.Contains(t, cleared, "1970")
}

func TestSetCookie_DevModeNotSecure(t *testing.T) {
	cfg := testConfig()
	cfg.DevMode = true

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		SetCookie(c, cfg, "tok", time.Now().Add(time.Hour))
		return nil
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.NotContains(t, strings.ToLower(resp.Header.Get(fiber.HeaderSetCookie)), "secure")
}
