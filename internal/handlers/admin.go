package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mirifridman/apexboard/internal/middleware"
	"github.com/mirifridman/apexboard/internal/models"
	"github.com/mirifridman/apexboard/internal/repository"
	"github.com/mirifridman/apexboard/internal/security"
	"github.com/mirifridman/apexboard/internal/services"
)

// AdminHandler handles the administrative surface: employees, projects, the
// permission matrix, and user provisioning. Capability checks for employees
// and projects are enforced by route middleware; user and permission
// operations are additionally enforced inside the services.
type AdminHandler struct {
	employeeRepo *repository.EmployeeRepository
	projectRepo  *repository.ProjectRepository
	permService  *services.PermissionService
	userService  *services.UserService
	logger       *security.Logger
}

// NewAdminHandler creates a new instance of AdminHandler.
func NewAdminHandler(
	employeeRepo *repository.EmployeeRepository,
	projectRepo *repository.ProjectRepository,
	permService *services.PermissionService,
	userService *services.UserService,
	logger *security.Logger,
) *AdminHandler {
	return &AdminHandler{
		employeeRepo: employeeRepo,
		projectRepo:  projectRepo,
		permService:  permService,
		userService:  userService,
		logger:       logger,
	}
}

// ============================================================================
// Employees
// ============================================================================

// ListEmployees returns all employees; ?active=true filters to active only.
//
// Route: GET /api/employees
func (h *AdminHandler) ListEmployees(c *fiber.Ctx) error {
	employees, err := h.employeeRepo.List(c.Context(), c.Query("active") == "true")
	if err != nil {
		return respondError(c, err)
	}
	if employees == nil {
		employees = []models.Employee{}
	}
	return c.JSON(employees)
}

// CreateEmployee adds a new employee record.
//
// Route: POST /api/employees
func (h *AdminHandler) CreateEmployee(c *fiber.Ctx) error {
	var form models.EmployeeForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if form.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	emp := &models.Employee{
		Name:        form.Name,
		Email:       form.Email,
		Phone:       form.Phone,
		TelegramID:  form.TelegramID,
		AvatarURL:   form.AvatarURL,
		DisplayRole: form.DisplayRole,
	}
	if err := h.employeeRepo.Create(c.Context(), emp); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(emp)
}

// UpdateEmployee overwrites an employee's editable fields.
//
// Route: PUT /api/employees/:id
func (h *AdminHandler) UpdateEmployee(c *fiber.Ctx) error {
	employeeID, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	var form models.EmployeeForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if form.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	if err := h.employeeRepo.Update(c.Context(), employeeID, &form); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// DeactivateEmployee soft-deletes an employee.
//
// Route: DELETE /api/employees/:id
func (h *AdminHandler) DeactivateEmployee(c *fiber.Ctx) error {
	employeeID, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	if err := h.employeeRepo.Deactivate(c.Context(), employeeID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// ============================================================================
// Projects
// ============================================================================

// ListProjects returns all projects, newest first.
//
// Route: GET /api/projects
func (h *AdminHandler) ListProjects(c *fiber.Ctx) error {
	projects, err := h.projectRepo.List(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	if projects == nil {
		projects = []models.Project{}
	}
	return c.JSON(projects)
}

type projectForm struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// CreateProject adds a new project.
//
// Route: POST /api/projects
func (h *AdminHandler) CreateProject(c *fiber.Ctx) error {
	var form projectForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if form.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	createdBy := middleware.UserID(c)
	proj := &models.Project{
		Name:        form.Name,
		Description: form.Description,
		CreatedBy:   &createdBy,
	}
	if err := h.projectRepo.Create(c.Context(), proj); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(proj)
}

// UpdateProject renames a project.
//
// Route: PUT /api/projects/:id
func (h *AdminHandler) UpdateProject(c *fiber.Ctx) error {
	projectID, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	var form projectForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if form.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	if err := h.projectRepo.Update(c.Context(), projectID, form.Name, form.Description); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// DeleteProject removes a project; its tasks survive unlinked.
//
// Route: DELETE /api/projects/:id
func (h *AdminHandler) DeleteProject(c *fiber.Ctx) error {
	projectID, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	if err := h.projectRepo.Delete(c.Context(), projectID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// ============================================================================
// Permission matrix
// ============================================================================

// GetPermissions returns both the resolved capability matrix and the raw
// override rows, so the editor can show effective values and what was
// customized.
//
// Route: GET /api/admin/permissions
func (h *AdminHandler) GetPermissions(c *fiber.Ctx) error {
	overrides, err := h.permService.Overrides(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"matrix":    h.permService.Matrix(c.Context()),
		"overrides": overrides,
	})
}

// SavePermissions upserts one role's override row.
//
// Route: PUT /api/admin/permissions/:role
func (h *AdminHandler) SavePermissions(c *fiber.Ctx) error {
	var override models.PermissionOverride
	if err := c.BodyParser(&override); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	override.Role = c.Params("role")

	if err := h.permService.SaveOverride(c.Context(), &override); err != nil {
		return respondError(c, err)
	}

	actorID := middleware.UserID(c)
	h.logger.SecurityEvent(security.EventPermissionMatrixChange, &actorID, "", c.IP(), c.Get("User-Agent"),
		map[string]interface{}{"role": override.Role})

	return c.JSON(fiber.Map{"success": true})
}

// ResetPermissions deletes a role's override row, restoring defaults.
//
// Route: DELETE /api/admin/permissions/:role
func (h *AdminHandler) ResetPermissions(c *fiber.Ctx) error {
	role := c.Params("role")
	if err := h.permService.ResetRole(c.Context(), role); err != nil {
		return respondError(c, err)
	}

	actorID := middleware.UserID(c)
	h.logger.SecurityEvent(security.EventPermissionMatrixChange, &actorID, "", c.IP(), c.Get("User-Agent"),
		map[string]interface{}{"role": role, "reset": true})

	return c.JSON(fiber.Map{"success": true})
}

// ============================================================================
// Users
// ============================================================================

// InviteUser provisions a new account with a temporary password.
//
// Route: POST /api/admin/users
func (h *AdminHandler) InviteUser(c *fiber.Ctx) error {
	var form models.InviteUserForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	caps := h.permService.Resolve(c.Context(), middleware.UserRole(c))
	result, err := h.userService.Invite(c.Context(), &form, middleware.UserID(c), caps)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// ListUsers returns all user accounts.
//
// Route: GET /api/admin/users
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	caps := h.permService.Resolve(c.Context(), middleware.UserRole(c))
	users, err := h.userService.List(c.Context(), caps)
	if err != nil {
		return respondError(c, err)
	}
	if users == nil {
		users = []models.User{}
	}
	return c.JSON(users)
}

type updateRoleForm struct {
	Role string `json:"role"`
}

// UpdateUserRole changes an account's access-control role.
//
// Route: PUT /api/admin/users/:id/role
func (h *AdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	userID, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	var form updateRoleForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	caps := h.permService.Resolve(c.Context(), middleware.UserRole(c))
	if err := h.userService.UpdateRole(c.Context(), userID, form.Role, middleware.UserID(c), caps); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
