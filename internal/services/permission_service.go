package services

import (
	"context"
	"errors"
	"sync"

	"github.com/mirifridman/apexboard/internal/models"
	"github.com/mirifridman/apexboard/internal/repository"
)

// Capabilities is the fully resolved permission set for a role. Unlike
// models.PermissionOverride, every flag here has a definite value: defaults
// and overrides have already been merged.
type Capabilities struct {
	CanViewTasks          bool `json:"can_view_tasks"`
	CanCreateTasks        bool `json:"can_create_tasks"`
	CanEditTasks          bool `json:"can_edit_tasks"`
	CanDeleteTasks        bool `json:"can_delete_tasks"`
	CanViewProjects       bool `json:"can_view_projects"`
	CanCreateProjects     bool `json:"can_create_projects"`
	CanEditProjects       bool `json:"can_edit_projects"`
	CanDeleteProjects     bool `json:"can_delete_projects"`
	CanViewTeam           bool `json:"can_view_team"`
	CanManageTeam         bool `json:"can_manage_team"`
	CanViewProcedures     bool `json:"can_view_procedures"`
	CanManageProcedures   bool `json:"can_manage_procedures"`
	CanViewDecisions      bool `json:"can_view_decisions"`
	CanManageDecisions    bool `json:"can_manage_decisions"`
	CanViewSecurityDocs   bool `json:"can_view_security_docs"`
	CanManageSecurityDocs bool `json:"can_manage_security_docs"`
	CanManageUsers        bool `json:"can_manage_users"`
	CanManagePermissions  bool `json:"can_manage_permissions"`
}

// allCapabilities is the ceo/admin baseline.
func allCapabilities() Capabilities {
	return Capabilities{
		CanViewTasks: true, CanCreateTasks: true, CanEditTasks: true, CanDeleteTasks: true,
		CanViewProjects: true, CanCreateProjects: true, CanEditProjects: true, CanDeleteProjects: true,
		CanViewTeam: true, CanManageTeam: true,
		CanViewProcedures: true, CanManageProcedures: true,
		CanViewDecisions: true, CanManageDecisions: true,
		CanViewSecurityDocs: true, CanManageSecurityDocs: true,
		CanManageUsers: true, CanManagePermissions: true,
	}
}

// DefaultCapabilities returns the hard-coded baseline for a role. Unknown or
// empty role names resolve to the viewer baseline, so a mistyped role can
// never grant more than read access.
func DefaultCapabilities(role string) Capabilities {
	switch role {
	case models.RoleCEO, models.RoleAdmin:
		return allCapabilities()

	case models.RoleManager:
		c := allCapabilities()
		c.CanDeleteProjects = false
		c.CanManageSecurityDocs = false
		c.CanManageUsers = false
		c.CanManagePermissions = false
		return c

	case models.RoleEditor:
		// Creates and edits content but deletes nothing and manages nothing.
		return Capabilities{
			CanViewTasks: true, CanCreateTasks: true, CanEditTasks: true,
			CanViewProjects: true, CanCreateProjects: true, CanEditProjects: true,
			CanViewTeam:       true,
			CanViewProcedures: true, CanViewDecisions: true,
			CanViewSecurityDocs: true,
		}

	case models.RoleTeamMember:
		return Capabilities{
			CanViewTasks: true, CanCreateTasks: true, CanEditTasks: true,
			CanViewProjects:   true,
			CanViewTeam:       true,
			CanViewProcedures: true, CanViewDecisions: true,
		}

	default: // viewer and anything unrecognized
		return Capabilities{
			CanViewTasks:      true,
			CanViewProjects:   true,
			CanViewTeam:       true,
			CanViewProcedures: true, CanViewDecisions: true,
		}
	}
}

// applyOverride lays explicit flags from an override row on top of base.
// A nil pointer means "not customized" and leaves the default in place; an
// explicit false overrides a default true and vice versa.
func applyOverride(base Capabilities, o *models.PermissionOverride) Capabilities {
	if o == nil {
		return base
	}

	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}

	set(&base.CanViewTasks, o.CanViewTasks)
	set(&base.CanCreateTasks, o.CanCreateTasks)
	set(&base.CanEditTasks, o.CanEditTasks)
	set(&base.CanDeleteTasks, o.CanDeleteTasks)
	set(&base.CanViewProjects, o.CanViewProjects)
	set(&base.CanCreateProjects, o.CanCreateProjects)
	set(&base.CanEditProjects, o.CanEditProjects)
	set(&base.CanDeleteProjects, o.CanDeleteProjects)
	set(&base.CanViewTeam, o.CanViewTeam)
	set(&base.CanManageTeam, o.CanManageTeam)
	set(&base.CanViewProcedures, o.CanViewProcedures)
	set(&base.CanManageProcedures, o.CanManageProcedures)
	set(&base.CanViewDecisions, o.CanViewDecisions)
	set(&base.CanManageDecisions, o.CanManageDecisions)
	set(&base.CanViewSecurityDocs, o.CanViewSecurityDocs)
	set(&base.CanManageSecurityDocs, o.CanManageSecurityDocs)
	set(&base.CanManageUsers, o.CanManageUsers)
	set(&base.CanManagePermissions, o.CanManagePermissions)

	return base
}

// PermissionService resolves a role's effective capabilities. Resolution
// never fails open or errors out: any problem loading the override row falls
// back to the role's hard-coded defaults, and unknown roles resolve as
// viewer.
type PermissionService struct {
	permRepo *repository.PermissionRepository

	mu    sync.RWMutex
	cache map[string]Capabilities
}

// NewPermissionService creates a permission service with an empty cache.
func NewPermissionService(permRepo *repository.PermissionRepository) *PermissionService {
	return &PermissionService{
		permRepo: permRepo,
		cache:    make(map[string]Capabilities),
	}
}

// Resolve returns the effective capabilities for a role: hard-coded defaults
// overlaid with the role's stored override row, if any. Results are cached
// until Invalidate is called.
func (s *PermissionService) Resolve(ctx context.Context, role string) Capabilities {
	s.mu.RLock()
	if caps, ok := s.cache[role]; ok {
		s.mu.RUnlock()
		return caps
	}
	s.mu.RUnlock()

	caps := DefaultCapabilities(role)

	override, err := s.permRepo.GetByRole(ctx, role)
	if err == nil {
		caps = applyOverride(caps, override)
	} else if !errors.Is(err, repository.ErrNotFound) {
		// Database trouble must not lock everyone out of the board;
		// serve defaults and skip caching so the next call retries.
		return caps
	}

	s.mu.Lock()
	s.cache[role] = caps
	s.mu.Unlock()

	return caps
}

// Invalidate clears the resolution cache. Called after any change to the
// permission matrix.
func (s *PermissionService) Invalidate() {
	s.mu.Lock()
	s.cache = make(map[string]Capabilities)
	s.mu.Unlock()
}

// Matrix returns the resolved capabilities for every known role, keyed by
// role name. This feeds the admin permission editor.
func (s *PermissionService) Matrix(ctx context.Context) map[string]Capabilities {
	roles := []string{
		models.RoleCEO, models.RoleAdmin, models.RoleManager,
		models.RoleEditor, models.RoleTeamMember, models.RoleViewer,
	}

	matrix := make(map[string]Capabilities, len(roles))
	for _, role := range roles {
		matrix[role] = s.Resolve(ctx, role)
	}

	return matrix
}

// Overrides returns the raw per-role override rows for the admin editor,
// keyed by role. Roles without a row are absent.
func (s *PermissionService) Overrides(ctx context.Context) (map[string]models.PermissionOverride, error) {
	rows, err := s.permRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	overrides := make(map[string]models.PermissionOverride, len(rows))
	for _, row := range rows {
		overrides[row.Role] = row
	}

	return overrides, nil
}

// SaveOverride validates and stores a role's override row, then invalidates
// the cache so the change takes effect immediately.
func (s *PermissionService) SaveOverride(ctx context.Context, o *models.PermissionOverride) error {
	if !models.ValidRole(o.Role) {
		return NewValidationError("unknown role")
	}

	if err := s.permRepo.Upsert(ctx, o); err != nil {
		return err
	}

	s.Invalidate()
	return nil
}

// ResetRole deletes a role's override row, restoring its hard-coded
// defaults.
func (s *PermissionService) ResetRole(ctx context.Context, role string) error {
	if !models.ValidRole(role) {
		return NewValidationError("unknown role")
	}

	if err := s.permRepo.DeleteByRole(ctx, role); err != nil {
		return err
	}

	s.Invalidate()
	return nil
}
