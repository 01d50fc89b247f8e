// Package middleware provides HTTP middleware for authentication,
// capability-based authorization, rate limiting, and request logging.
package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/mirifridman/apexboard/internal/services"
)

// AuthRequired ensures the request carries a valid authenticated session.
// Unauthenticated API calls get 401 JSON rather than a redirect.
//
// Context Locals Set:
//   - user_id: The authenticated user's id (string)
//   - user_role: The user's access-control role (string)
//   - user_email: The user's email (string)
//
// Example:
//
//	api := app.Group("/api", middleware.AuthRequired(store))
func AuthRequired(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		userID := sess.Get("user_id")
		if userID == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		c.Locals("user_id", userID)
		c.Locals("user_role", sess.Get("user_role"))
		c.Locals("user_email", sess.Get("user_email"))

		return c.Next()
	}
}

// RequireCapability gates a route on one flag of the acting user's resolved
// capability set. Must be chained after AuthRequired, which provides
// user_role.
//
// Parameters:
//   - perms: Resolver turning the session role into effective capabilities
//   - check: Selects the flag to enforce, e.g. func(c services.Capabilities) bool { return c.CanDeleteTasks }
//
// Example:
//
//	tasks.Delete("/:id", middleware.RequireCapability(perms, func(c services.Capabilities) bool {
//	    return c.CanDeleteTasks
//	}), taskHandler.Delete)
func RequireCapability(perms *services.PermissionService, check func(services.Capabilities) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)

		caps := perms.Resolve(c.Context(), role)
		if !check(caps) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}

		return c.Next()
	}
}

// UserID returns the authenticated user's id from the context. Only valid
// after AuthRequired has run.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

// UserRole returns the authenticated user's role from the context.
func UserRole(c *fiber.Ctx) string {
	role, _ := c.Locals("user_role").(string)
	return role
}
