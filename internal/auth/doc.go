// Package auth provides authentication and authorization for the application.
//
// This package implements the role-based access control core:
//   - a closed catalog of permission keys in module.action form and named role templates
//   - the Issuer, which authenticates a username and password and mints a signed claim
//   - the gate, which decides page and API requests from the claim alone
//   - Capabilities, a presentation-only view of the claim for templates and the UI
//
// # Claims
//
// A Claim is an immutable snapshot of the user's identity and the permissions of their role
// at login time. Later edits to the role do not reach existing claims; they take effect once
// the claim expires and the user logs in again.
//
// # Decision Rule
//
// A request is granted a permission only when it carries a claim whose permission map holds
// true for that exact key. Missing or false entries deny. The gate never touches the database.
//
// # Middleware
//
// Fiber middleware functions are provided for route protection:
//   - RequirePage: redirect to /login or /unauthorized on denial
//   - RequireAPI: answer 401 or 403 with a JSON error body
//   - RequireSession: any authenticated request
//
// Example usage:
//
//	app.Get("/admin/roles",
//	    auth.RequirePage(auth.PermRolesView),
//	    handler,
//	)
//
//	app.Delete("/api/roles/:id",
//	    auth.RequireAPI(auth.PermRolesDelete),
//	    apiHandler,
//	)
//
//	// in templates: {{ if .Can.Can "roles.create" }} ... {{ end }}
package auth
