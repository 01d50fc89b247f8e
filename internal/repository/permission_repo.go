package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/mirifridman/apexboard/internal/database"
	"github.com/mirifridman/apexboard/internal/models"
)

// permissionColumns is the canonical select list scanned by scanOverride.
const permissionColumns = `role, can_view_tasks, can_create_tasks, can_edit_tasks,
	can_delete_tasks, can_view_projects, can_create_projects, can_edit_projects,
	can_delete_projects, can_view_team, can_manage_team, can_view_procedures,
	can_manage_procedures, can_view_decisions, can_manage_decisions,
	can_view_security_docs, can_manage_security_docs, can_manage_users,
	can_manage_permissions, updated_at`

// PermissionRepository handles the per-role override rows in
// permission_settings. Rows are sparse: a missing row, and a NULL column
// within a row, both mean "use the hard-coded default for this role".
type PermissionRepository struct{}

// NewPermissionRepository creates and returns a new PermissionRepository instance.
func NewPermissionRepository() *PermissionRepository {
	return &PermissionRepository{}
}

func scanOverride(row pgx.Row, o *models.PermissionOverride) error {
	return row.Scan(
		&o.Role, &o.CanViewTasks, &o.CanCreateTasks, &o.CanEditTasks,
		&o.CanDeleteTasks, &o.CanViewProjects, &o.CanCreateProjects,
		&o.CanEditProjects, &o.CanDeleteProjects, &o.CanViewTeam,
		&o.CanManageTeam, &o.CanViewProcedures, &o.CanManageProcedures,
		&o.CanViewDecisions, &o.CanManageDecisions, &o.CanViewSecurityDocs,
		&o.CanManageSecurityDocs, &o.CanManageUsers, &o.CanManagePermissions,
		&o.UpdatedAt,
	)
}

// GetByRole retrieves the override row for a role, or ErrNotFound when the
// role has never been customized.
func (r *PermissionRepository) GetByRole(ctx context.Context, role string) (*models.PermissionOverride, error) {
	query := `SELECT ` + permissionColumns + ` FROM permission_settings WHERE role = $1`

	var o models.PermissionOverride
	err := scanOverride(database.DB.QueryRow(ctx, query, role), &o)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &o, nil
}

// ListAll retrieves every override row. Roles without a row are simply absent
// and resolve entirely from defaults.
func (r *PermissionRepository) ListAll(ctx context.Context) ([]models.PermissionOverride, error) {
	query := `SELECT ` + permissionColumns + ` FROM permission_settings ORDER BY role ASC`

	rows, err := database.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []models.PermissionOverride
	for rows.Next() {
		var o models.PermissionOverride
		if err := scanOverride(rows, &o); err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}

	return overrides, nil
}

// Upsert writes the full override row for a role, replacing any previous
// customization. Callers pass nil for flags that should fall back to the
// role's default.
func (r *PermissionRepository) Upsert(ctx context.Context, o *models.PermissionOverride) error {
	query := `
		INSERT INTO permission_settings (
			role, can_view_tasks, can_create_tasks, can_edit_tasks,
			can_delete_tasks, can_view_projects, can_create_projects,
			can_edit_projects, can_delete_projects, can_view_team,
			can_manage_team, can_view_procedures, can_manage_procedures,
			can_view_decisions, can_manage_decisions, can_view_security_docs,
			can_manage_security_docs, can_manage_users, can_manage_permissions,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, now())
		ON CONFLICT (role) DO UPDATE SET
			can_view_tasks = EXCLUDED.can_view_tasks,
			can_create_tasks = EXCLUDED.can_create_tasks,
			can_edit_tasks = EXCLUDED.can_edit_tasks,
			can_delete_tasks = EXCLUDED.can_delete_tasks,
			can_view_projects = EXCLUDED.can_view_projects,
			can_create_projects = EXCLUDED.can_create_projects,
			can_edit_projects = EXCLUDED.can_edit_projects,
			can_delete_projects = EXCLUDED.can_delete_projects,
			can_view_team = EXCLUDED.can_view_team,
			can_manage_team = EXCLUDED.can_manage_team,
			can_view_procedures = EXCLUDED.can_view_procedures,
			can_manage_procedures = EXCLUDED.can_manage_procedures,
			can_view_decisions = EXCLUDED.can_view_decisions,
			can_manage_decisions = EXCLUDED.can_manage_decisions,
			can_view_security_docs = EXCLUDED.can_view_security_docs,
			can_manage_security_docs = EXCLUDED.can_manage_security_docs,
			can_manage_users = EXCLUDED.can_manage_users,
			can_manage_permissions = EXCLUDED.can_manage_permissions,
			updated_at = now()
	`

	_, err := database.DB.Exec(ctx, query,
		o.Role, o.CanViewTasks, o.CanCreateTasks, o.CanEditTasks,
		o.CanDeleteTasks, o.CanViewProjects, o.CanCreateProjects,
		o.CanEditProjects, o.CanDeleteProjects, o.CanViewTeam,
		o.CanManageTeam, o.CanViewProcedures, o.CanManageProcedures,
		o.CanViewDecisions, o.CanManageDecisions, o.CanViewSecurityDocs,
		o.CanManageSecurityDocs, o.CanManageUsers, o.CanManagePermissions,
	)
	return err
}

// DeleteByRole removes a role's override row, restoring pure defaults.
// Deleting a role with no row is not an error.
func (r *PermissionRepository) DeleteByRole(ctx context.Context, role string) error {
	_, err := database.DB.Exec(ctx, `
		DELETE FROM permission_settings WHERE role = $1
	`, role)
	return err
}
