package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirifridman/apexboard/internal/models"
	"github.com/mirifridman/apexboard/internal/repository"
)

func overrideRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"role", "can_view_tasks", "can_create_tasks", "can_edit_tasks",
		"can_delete_tasks", "can_view_projects", "can_create_projects",
		"can_edit_projects", "can_delete_projects", "can_view_team",
		"can_manage_team", "can_view_procedures", "can_manage_procedures",
		"can_view_decisions", "can_manage_decisions", "can_view_security_docs",
		"can_manage_security_docs", "can_manage_users", "can_manage_permissions",
		"updated_at",
	})
}

// TestPermissionRepository_GetByRole verifies tri-state scanning: explicit
// flags come back as pointers, NULLs stay nil.
func TestPermissionRepository_GetByRole(t *testing.T) {
	updated := time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)

	t.Run("customized role returns sparse row", func(t *testing.T) {
		canCreate := true
		canViewSecurityDocs := false
		mock := withMockDB(t, func(mock pgxmock.PgxPoolIface) {
			mock.ExpectQuery(`SELECT .+ FROM permission_settings WHERE role = \$1`).
				WithArgs(models.RoleViewer).
				WillReturnRows(overrideRows().AddRow(
					models.RoleViewer, nil, &canCreate, nil, nil, nil, nil, nil, nil,
					nil, nil, nil, nil, nil, nil, &canViewSecurityDocs, nil, nil, nil, &updated,
				))
		})

		repo := repository.NewPermissionRepository()
		o, err := repo.GetByRole(context.Background(), models.RoleViewer)

		require.NoError(t, err)
		require.NotNil(t, o.CanCreateTasks)
		assert.True(t, *o.CanCreateTasks)
		require.NotNil(t, o.CanViewSecurityDocs)
		assert.False(t, *o.CanViewSecurityDocs)
		assert.Nil(t, o.CanViewTasks, "unset flag stays nil")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("role without a row returns not found", func(t *testing.T) {
		mock := withMockDB(t, func(mock pgxmock.PgxPoolIface) {
			mock.ExpectQuery(`SELECT .+ FROM permission_settings WHERE role = \$1`).
				WithArgs(models.RoleManager).
				WillReturnRows(overrideRows())
		})

		repo := repository.NewPermissionRepository()
		o, err := repo.GetByRole(context.Background(), models.RoleManager)

		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, o)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// TestPermissionRepository_Upsert verifies that saving an override replaces
// any previous customization for the role.
func TestPermissionRepository_Upsert(t *testing.T) {
	canCreate := true
	var unset *bool

	mock := withMockDB(t, func(mock pgxmock.PgxPoolIface) {
		mock.ExpectExec(`INSERT INTO permission_settings`).
			WithArgs(models.RoleViewer, unset, &canCreate, unset, unset, unset, unset, unset,
				unset, unset, unset, unset, unset, unset, unset, unset, unset, unset, unset).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	})

	repo := repository.NewPermissionRepository()
	err := repo.Upsert(context.Background(), &models.PermissionOverride{
		Role:           models.RoleViewer,
		CanCreateTasks: &canCreate,
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestPermissionRepository_DeleteByRole verifies reset-to-defaults is a
// plain delete and tolerates a missing row.
func TestPermissionRepository_DeleteByRole(t *testing.T) {
	mock := withMockDB(t, func(mock pgxmock.PgxPoolIface) {
		mock.ExpectExec(`DELETE FROM permission_settings WHERE role = \$1`).
			WithArgs(models.RoleEditor).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
	})

	repo := repository.NewPermissionRepository()
	err := repo.DeleteByRole(context.Background(), models.RoleEditor)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
