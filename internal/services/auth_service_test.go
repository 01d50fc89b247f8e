package services_test

import (
	"context"
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

func newAuthService() *services.AuthService {
	config := security.DefaultConfig()
	// Cost 4 keeps the test fast; production uses the configured 12
	config.BcryptCost = bcrypt.MinCost
	return services.NewAuthService(repository.NewUserRepository(), config, security.NewLogger())
}

// TestAuthService_HashPassword verifies bcrypt hashing properties.
func TestAuthService_HashPassword(t *testing.T) {
	svc := newAuthService()

	hash, err := svc.HashPassword("correct horse battery staple")

	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "correct horse battery staple", hash)
	assert.Len(t, hash, 60, "bcrypt hashes are 60 characters")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct horse battery staple")))
}

// TestAuthService_Authenticate verifies credential checking and the
// indistinguishable failure modes for unknown emails and wrong passwords.
func TestAuthService_Authenticate(t *testing.T) {
	svc := newAuthService()
	hash, err := svc.HashPassword("s3cret")
	require.NoError(t, err)

	userRow := func() *pgxmock.Rows {
		return pgxmock.NewRows([]string{"id", "email", "full_name", "role", "password_hash", "created_at"}).
			AddRow(testUserID, "mor@example.com", "Mor Levi", models.RoleManager, hash, testNow)
	}

	t.Run("valid credentials", func(t *testing.T) {
		mock := withMockDB(t, func(mock pgxmock.PgxPoolIface) {
			mock.ExpectQuery(`SELECT .+ FROM users`).
				WithArgs("mor@example.com").
				WillReturnRows(userRow())
		})

		user, err := svc.Authenticate(context.Background(), "mor@example.com", "s3cret", "203.0.113.9")

		require.NoError(t, err)
		assert.Equal(t, testUserID, user.ID)
		assert.Equal(t, models.RoleManager, user.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong password", func(t *testing.T) {
		mock := withMockDB(t, func(mock pgxmock.PgxPoolIface) {
			mock.ExpectQuery(`SELECT .+ FROM users`).
				WithArgs("mor@example.com").
				WillReturnRows(userRow())
		})

		user, err := svc.Authenticate(context.Background(), "mor@example.com", "wrong", "203.0.113.9")

		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown email yields the same error", func(t *testing.T) {
		mock := withMockDB(t, func(mock pgxmock.PgxPoolIface) {
			mock.ExpectQuery(`SELECT .+ FROM users`).
				WithArgs("nobody@example.com").
				WillReturnRows(pgxmock.NewRows([]string{"id"}))
		})

		user, err := svc.Authenticate(context.Background(), "nobody@example.com", "s3cret", "203.0.113.9")

		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
