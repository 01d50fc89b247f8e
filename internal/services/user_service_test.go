package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mirifridman/apexboard/internal/models"
	"github.com/mirifridman/apexboard/internal/repository"
	"github.com/mirifridman/apexboard/internal/security"
	"github.com/mirifridman/apexboard/internal/services"
)

func newUserService(t *testing.T) *services.UserService {
	t.Helper()

	config := security.DefaultConfig()
	config.BcryptCost = bcrypt.MinCost
	validator := security.NewValidationService(config)
	logger := security.NewLogger()
	auth := services.NewAuthService(repository.NewUserRepository(), config, logger)

	svc := services.NewUserService(
		repository.NewUserRepository(),
		repository.NewEmployeeRepository(),
		auth,
		validator,
		logger,
	)
	services.SetPasswordGenerator(svc, func() (string, error) { return "temp-password-1234", nil })
	return svc
}

func adminCaps() services.Capabilities {
	return services.DefaultCapabilities(models.RoleAdmin)
}

// TestUserService_Invite verifies provisioning: capability gate, duplicate
// check, and the linked employee record.
func TestUserService_Invite(t *testing.T) {
	form := &models.InviteUserForm{
		Email:    "dana@example.com",
		FullName: "Dana Peretz",
		Role:     models.RoleTeamMember,
	}

	t.Run("without manage-users capability is forbidden", func(t *testing.T) {
		withMockDB(t, nil)
		svc := newUserService(t)

		result, err := svc.Invite(context.Background(), form, testUserID,
			services.DefaultCapabilities(models.RoleViewer))

		assert.ErrorIs(t, err, services.ErrForbidden)
		assert.Nil(t, result)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		mock := withMockDB(t, func(mock pgxmock.PgxPoolIface) {
			mock.ExpectQuery(`SELECT .+ FROM users`).
				WithArgs("dana@example.com").
				WillReturnRows(pgxmock.NewRows([]string{"id", "email", "full_name", "role", "password_hash", "created_at"}).
					AddRow(testUserID, "dana@example.com", "Dana", models.RoleViewer, "hash", testNow))
		})

		svc := newUserService(t)
		result, err := svc.Invite(context.Background(), form, testUserID, adminCaps())

		var ve *services.ValidationError
		assert.ErrorAs(t, err, &ve)
		assert.Nil(t, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("successful invite creates user and employee", func(t *testing.T) {
		newUserID := "3d6f0ee1-64a2-4fd0-9f3c-6a1b2c3d4e5f"

		mock := withMockDB(t, func(mock pgxmock.PgxPoolIface) {
			mock.ExpectQuery(`SELECT .+ FROM users`).
				WithArgs("dana@example.com").
				WillReturnRows(pgxmock.NewRows([]string{"id"}))

			mock.ExpectQuery(`INSERT INTO users`).
				WithArgs("dana@example.com", "Dana Peretz", models.RoleTeamMember, pgxmock.AnyArg()).
				WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).
					AddRow(newUserID, testNow))

			mock.ExpectQuery(`INSERT INTO employees`).
				WithArgs("Dana Peretz", ptr("dana@example.com"), (*string)(nil), (*string)(nil),
					(*string)(nil), (*string)(nil), &newUserID).
				WillReturnRows(pgxmock.NewRows([]string{"id", "active", "created_at"}).
					AddRow(testEmployeeID, true, testNow))
		})

		svc := newUserService(t)
		result, err := svc.Invite(context.Background(), form, testUserID, adminCaps())

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, newUserID, result.User.ID)
		assert.True(t, strings.Contains(result.Message, "temp-password-1234"),
			"temporary password is surfaced exactly once")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid input rejected", func(t *testing.T) {
		withMockDB(t, nil)
		svc := newUserService(t)

		for _, bad := range []*models.InviteUserForm{
			{Email: "not-an-email", FullName: "X", Role: models.RoleViewer},
			{Email: "ok@example.com", FullName: "  ", Role: models.RoleViewer},
			{Email: "ok@example.com", FullName: "X", Role: "root"},
		} {
			result, err := svc.Invite(context.Background(), bad, testUserID, adminCaps())

			var ve *services.ValidationError
			assert.ErrorAs(t, err, &ve)
			assert.Nil(t, result)
		}
	})
}

// TestUserService_UpdateRole verifies the capability gate and role
// vocabulary check.
func TestUserService_UpdateRole(t *testing.T) {
	t.Run("viewer cannot change roles", func(t *testing.T) {
		withMockDB(t, nil)
		svc := newUserService(t)

		err := svc.UpdateRole(context.Background(), testUserID, models.RoleAdmin, "actor",
			services.DefaultCapabilities(models.RoleViewer))

		assert.ErrorIs(t, err, services.ErrForbidden)
	})

	t.Run("admin promotes a user", func(t *testing.T) {
		mock := withMockDB(t, func(mock pgxmock.PgxPoolIface) {
			mock.ExpectExec(`UPDATE users SET role = \$1`).
				WithArgs(models.RoleManager, testUserID).
				WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		})

		svc := newUserService(t)
		err := svc.UpdateRole(context.Background(), testUserID, models.RoleManager, "actor", adminCaps())

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
