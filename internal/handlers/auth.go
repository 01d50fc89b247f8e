package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/mirifridman/apexboard/internal/security"
	"github.com/mirifridman/apexboard/internal/services"
)

// AuthHandler handles login, logout, and the current-session probe.
type AuthHandler struct {
	store       *session.Store
	authService *services.AuthService
	logger      *security.Logger
}

// NewAuthHandler creates a new instance of AuthHandler.
func NewAuthHandler(store *session.Store, authService *services.AuthService, logger *security.Logger) *AuthHandler {
	return &AuthHandler{
		store:       store,
		authService: authService,
		logger:      logger,
	}
}

type loginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates credentials and establishes a session.
//
// Side Effects:
//   - Regenerates the session id to prevent fixation
//   - Stores user_id, user_email, user_role in the session
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var form loginForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	user, err := h.authService.Authenticate(c.Context(), form.Email, form.Password, c.IP())
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid email or password"})
		}
		return respondError(c, err)
	}

	sess, err := h.store.Get(c)
	if err != nil {
		return respondError(c, err)
	}

	// Fresh session id on privilege change
	if err := sess.Regenerate(); err != nil {
		return respondError(c, err)
	}

	sess.Set("user_id", user.ID)
	sess.Set("user_email", user.Email)
	sess.Set("user_role", user.Role)
	if err := sess.Save(); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"id":        user.ID,
		"email":     user.Email,
		"full_name": user.FullName,
		"role":      user.Role,
	})
}

// Logout destroys the session.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sess, err := h.store.Get(c)
	if err == nil {
		if id, ok := sess.Get("user_id").(string); ok {
			h.logger.SecurityEvent(security.EventLogout, &id, "", c.IP(), c.Get("User-Agent"), nil)
		}
		_ = sess.Destroy()
	}

	return c.JSON(fiber.Map{"success": true})
}

// Me returns the authenticated user's session identity. Requires
// AuthRequired.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"id":    c.Locals("user_id"),
		"email": c.Locals("user_email"),
		"role":  c.Locals("user_role"),
	})
}
