// Package middleware contains unit tests for authentication and
// capability-based authorization middleware.
package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirifridman/apexboard/internal/database"
	"github.com/mirifridman/apexboard/internal/models"
	"github.com/mirifridman/apexboard/internal/repository"
	"github.com/mirifridman/apexboard/internal/services"
)

func sessionCookies(t *testing.T, app *fiber.App, store *session.Store, role string) []string {
	t.Helper()

	app.Get("/login-mock", func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return err
		}
		sess.Set("user_id", "9e107d9d-3728-4a62-b1c7-11aa00bb22cc")
		sess.Set("user_role", role)
		sess.Set("user_email", "mor@example.com")
		if err := sess.Save(); err != nil {
			return err
		}
		return c.SendString("logged in")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/login-mock", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var cookies []string
	for _, cookie := range resp.Cookies() {
		cookies = append(cookies, cookie.Name+"="+cookie.Value)
	}
	require.NotEmpty(t, cookies, "login should set a session cookie")
	return cookies
}

// TestAuthRequired_WithoutSession verifies that API calls without a session
// get 401 JSON rather than a redirect.
func TestAuthRequired_WithoutSession(t *testing.T) {
	app := fiber.New()
	store := session.New()

	app.Use("/protected", AuthRequired(store))
	app.Get("/protected", func(c *fiber.Ctx) error {
		return c.SendString("protected content")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/protected", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

// TestAuthRequired_WithValidSession verifies that a logged-in user passes
// through with identity locals populated.
func TestAuthRequired_WithValidSession(t *testing.T) {
	app := fiber.New()
	store := session.New()

	app.Use("/protected", AuthRequired(store))
	app.Get("/protected", func(c *fiber.Ctx) error {
		return c.SendString(UserID(c) + ":" + UserRole(c))
	})

	cookies := sessionCookies(t, app, store, models.RoleManager)

	req := httptest.NewRequest("GET", "/protected", nil)
	for _, cookie := range cookies {
		req.Header.Add("Cookie", cookie)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "9e107d9d-3728-4a62-b1c7-11aa00bb22cc:"+models.RoleManager, string(body))
}

// TestRequireCapability verifies the capability gate in both directions
// using default role capabilities.
func TestRequireCapability(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	oldDB := database.DB
	database.DB = mock
	defer func() { database.DB = oldDB }()

	// No override rows for either role
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(`SELECT .+ FROM permission_settings WHERE role = \$1`).
			WithArgs(pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"role"}))
	}

	perms := services.NewPermissionService(repository.NewPermissionRepository())
	canDelete := func(c services.Capabilities) bool { return c.CanDeleteTasks }

	run := func(role string) int {
		app := fiber.New()
		store := session.New()

		app.Use("/tasks", AuthRequired(store), RequireCapability(perms, canDelete))
		app.Delete("/tasks", func(c *fiber.Ctx) error {
			return c.SendString("deleted")
		})

		cookies := sessionCookies(t, app, store, role)
		req := httptest.NewRequest("DELETE", "/tasks", nil)
		for _, cookie := range cookies {
			req.Header.Add("Cookie", cookie)
		}

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, run(models.RoleManager), "manager may delete tasks")
	assert.Equal(t, fiber.StatusForbidden, run(models.RoleViewer), "viewer may not delete tasks")
}
