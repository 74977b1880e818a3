// Package auth provides the session middleware of the web application.
//
// The middleware reads the session token from the Authorization header or the
// session cookie, verifies it and stores the resulting claim for the request.
// It never rejects a request itself: pages and API routes decide with
// auth.RequirePage and auth.RequireAPI. Broken or expired tokens are treated as
// no session and the stale cookie is cleared.
package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/partdesk/partdesk/internal/auth"
	"github.com/partdesk/partdesk/internal/config"
	"github.com/partdesk/partdesk/internal/web/session"
)

// HomePath is where signed in users opening the login page are sent.
const HomePath = "/dashboard"

// New returns the session middleware.
func New(cfg *config.Config, tokens *auth.TokenManager) fiber.Handler {
	cookieName := cfg.Webserver.Session.CookieName

	return func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/static") {
			return c.Next()
		}

		var claim *auth.Claim

		if token := session.Token(c, cookieName); token != "" {
			parsed, err := tokens.Parse(token)
			if err != nil {
				log.Debug().Err(err).Str("path", c.Path()).Msg("ignoring invalid session token")

				if c.Cookies(cookieName) != "" {
					session.ClearCookie(c, cfg)
				}
			} else {
				claim = parsed
			}
		}

		auth.SetClaim(c, claim)

		if claim != nil && c.Method() == fiber.MethodGet && IsLoginPage(c) {
			return c.Redirect(HomePath)
		}

		return c.Next()
	}
}

// IsLoginPage checks if the current request is for the login page.
func IsLoginPage(c *fiber.Ctx) bool {
	return strings.EqualFold(strings.TrimSuffix(c.Path(), "/"), auth.LoginPath)
}

// Subject returns the username of the request's claim for the access log.
func Subject(c *fiber.Ctx) string {
	if claim := auth.ClaimFrom(c); claim != nil {
		return claim.Username()
	}

	return ""
}
