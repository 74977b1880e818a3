// Package session moves the signed session token between the client and the server:
// an HttpOnly cookie for pages, an Authorization bearer header for API clients.
package session

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/partdesk/partdesk/internal/config"
)

const bearerPrefix = "Bearer "

// Token returns the bearer token of the request, falling back to the session cookie.
func Token(c *fiber.Ctx, cookieName string) string {
	if h := c.Get(fiber.HeaderAuthorization); len(h) > len(bearerPrefix) &&
		strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(h[len(bearerPrefix):])
	}

	return c.Cookies(cookieName)
}

// SetCookie stores the token in the session cookie until expiresAt.
func SetCookie(c *fiber.Ctx, cfg *config.Config, token string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.Webserver.Session.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		Secure:   cfg.Webserver.Session.Secure && !cfg.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func ClearCookie(c *fiber.Ctx, cfg *config.Config) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.Webserver.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   cfg.Webserver.Session.Secure && !cfg.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
