package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const (
	// LoginPath is where unauthenticated page requests are sent.
	LoginPath = "/login"
	// UnauthorizedPath is where authenticated page requests lacking a permission are sent.
	UnauthorizedPath = "/unauthorized"

	// LocalsCan is the fiber.Locals key holding the request's Capabilities for templates.
	LocalsCan = "Can"

	localsClaim = "auth.claim"

	surfacePage = "page"
	surfaceAPI  = "api"
)

// SetClaim stores the verified claim of the request. A nil claim stores empty capabilities.
func SetClaim(c *fiber.Ctx, claim *Claim) {
	if claim != nil {
		c.Locals(localsClaim, claim)
	}

	c.Locals(LocalsCan, CapabilitiesOf(claim))
}

// ClaimFrom returns the verified claim of the request or nil.
func ClaimFrom(c *fiber.Ctx) *Claim {
	claim, _ := c.Locals(localsClaim).(*Claim)
	return claim
}

// CapabilitiesFrom returns the capabilities of the request for rendering decisions.
func CapabilitiesFrom(c *fiber.Ctx) Capabilities {
	return CapabilitiesOf(ClaimFrom(c))
}

// RequirePage creates Fiber middleware guarding a page route with a permission.
func RequirePage(required Key) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claim := ClaimFrom(c)

		switch AuthorizePage(claim, required) {
		case PageAllow:
			return c.Next()
		case PageRedirectLogin:
			observeDenied(surfacePage, "no_session")

			return c.Redirect(LoginPath)
		default:
			log.Warn().Uint64("user_id", claim.UserID()).Str("permission", string(required)).
				Str("path", c.Path()).Msg("user lacks required permission")
			observeDenied(surfacePage, "forbidden")

			return c.Redirect(UnauthorizedPath)
		}
	}
}

// RequireAPI creates Fiber middleware guarding an API route with a permission.
// Denials answer 401 or 403 with a fixed JSON error body.
func RequireAPI(required Key) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claim, err := AuthorizeAPI(ClaimFrom(c), required)

		switch err {
		case nil:
			c.Locals(localsClaim, claim)
			return c.Next()
		case ErrNoSession:
			observeDenied(surfaceAPI, "no_session")

			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": ErrNoSession.Error()})
		default:
			log.Warn().Uint64("user_id", ClaimFrom(c).UserID()).Str("permission", string(required)).
				Str("path", c.Path()).Msg("user lacks required permission")
			observeDenied(surfaceAPI, "forbidden")

			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": ErrInsufficientPermission.Error()})
		}
	}
}

// RequireSession creates Fiber middleware that only needs an authenticated request.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ClaimFrom(c) == nil {
			observeDenied(surfaceAPI, "no_session")

			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": ErrNoSession.Error()})
		}

		return c.Next()
	}
}
