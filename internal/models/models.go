// Package models defines the domain entities and data transfer objects for ApexBoard.
// It includes database models mapped to PostgreSQL tables, form DTOs for API input,
// and view models for JSON responses.
package models

import "time"

// ============================================================================
// Persisted Vocabularies
// ============================================================================
// These string values are stored in the database and exposed over the API.
// They must stay bit-exact for compatibility with existing data.

// Task status values.
const (
	TaskStatusNew           = "new"
	TaskStatusApproved      = "approved"
	TaskStatusInProgress    = "in_progress"
	TaskStatusPartiallyDone = "partially_done"
	TaskStatusStuck         = "stuck"
	TaskStatusDone          = "done"
)

// Task priority values.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Approval request status values.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
	ApprovalExpired  = "expired"
)

// Access-control role names.
const (
	RoleCEO        = "ceo"
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleEditor     = "editor"
	RoleTeamMember = "team_member"
	RoleViewer     = "viewer"
)

// ValidTaskStatus reports whether s is one of the persisted task statuses.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusNew, TaskStatusApproved, TaskStatusInProgress,
		TaskStatusPartiallyDone, TaskStatusStuck, TaskStatusDone:
		return true
	}
	return false
}

// ValidPriority reports whether p is one of the persisted priorities.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ValidRole reports whether r is one of the access-control role names.
func ValidRole(r string) bool {
	switch r {
	case RoleCEO, RoleAdmin, RoleManager, RoleEditor, RoleTeamMember, RoleViewer:
		return true
	}
	return false
}

// ============================================================================
// Domain Models (Database Entities)
// ============================================================================

// User represents an authenticated account with an access-control role.
//
// Database Table: users
// Security Note: PasswordHash must never be exposed in API responses or logs
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	FullName     string    `db:"full_name" json:"full_name"`
	Role         string    `db:"role" json:"role"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Employee represents a team member who can be assigned tasks and asked to
// approve them. An employee may optionally be linked to a User account; the
// approval-by-link flow works for employees without one.
//
// Database Table: employees
type Employee struct {
	ID          string     `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Email       *string    `db:"email" json:"email,omitempty"`
	Phone       *string    `db:"phone" json:"phone,omitempty"`
	TelegramID  *string    `db:"telegram_id" json:"telegram_id,omitempty"`
	AvatarURL   *string    `db:"avatar_url" json:"avatar_url,omitempty"`
	DisplayRole *string    `db:"display_role" json:"display_role,omitempty"` // Free-text job title, not access control
	Active      bool       `db:"active" json:"active"`
	UserID      *string    `db:"user_id" json:"user_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Task is the central work item tracked by the board.
//
// Database Table: tasks
// Related: TaskAssignee (many-to-many with Employee), ApprovalRequest
// Invariant: ApprovedAt is set if and only if ApprovedBy is set
type Task struct {
	ID           string     `db:"id" json:"id"`
	Title        string     `db:"title" json:"title"`
	Topic        *string    `db:"topic" json:"topic,omitempty"`
	Description  *string    `db:"description" json:"description,omitempty"`
	Status       string     `db:"status" json:"status"`
	Priority     string     `db:"priority" json:"priority"`
	Deadline     *time.Time `db:"deadline" json:"deadline,omitempty"`
	AssignedTo   *string    `db:"assigned_to" json:"assigned_to,omitempty"` // Primary assignee, oldest assignment wins
	CreatedBy    *string    `db:"created_by" json:"created_by,omitempty"`
	ApprovedBy   *string    `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt   *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	ApprovalNote *string    `db:"approval_note" json:"approval_note,omitempty"`
	ProjectID    *string    `db:"project_id" json:"project_id,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// TaskAssignee is the join row between a task and an employee.
//
// Database Table: task_assignees
// Unique Constraint: (task_id, employee_id)
type TaskAssignee struct {
	ID         string    `db:"id" json:"id"`
	TaskID     string    `db:"task_id" json:"task_id"`
	EmployeeID string    `db:"employee_id" json:"employee_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ApprovalRequest is a delegated approval tracked against a task. The token
// is an opaque bearer secret: lookup is by token only, no task id or
// signature is embedded in it.
//
// Database Table: task_approval_requests
// Lifecycle: pending -> approved | rejected (via token response)
//            pending -> expired  (cancellation or lazy time expiry)
type ApprovalRequest struct {
	ID            string     `db:"id" json:"id"`
	TaskID        string     `db:"task_id" json:"task_id"`
	Token         string     `db:"token" json:"-"`
	RequestedBy   string     `db:"requested_by" json:"requested_by"`
	RequestedFrom string     `db:"requested_from" json:"requested_from"`
	Status        string     `db:"status" json:"status"`
	Message       *string    `db:"message" json:"message,omitempty"`
	ResponseNote  *string    `db:"response_note" json:"response_note,omitempty"`
	RespondedAt   *time.Time `db:"responded_at" json:"responded_at,omitempty"` // Set exactly when leaving pending
	ExpiresAt     time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// Project is a lightweight container tasks may optionally link to.
//
// Database Table: projects
type Project struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedBy   *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// PermissionOverride is a per-role row of capability flags. Every field is a
// tri-state pointer: nil means "not set, fall back to the hard-coded default
// for the role", while explicit true/false take precedence over the default.
//
// Database Table: permission_settings
// Unique Constraint: role
type PermissionOverride struct {
	Role                  string     `db:"role" json:"role"`
	CanViewTasks          *bool      `db:"can_view_tasks" json:"can_view_tasks,omitempty"`
	CanCreateTasks        *bool      `db:"can_create_tasks" json:"can_create_tasks,omitempty"`
	CanEditTasks          *bool      `db:"can_edit_tasks" json:"can_edit_tasks,omitempty"`
	CanDeleteTasks        *bool      `db:"can_delete_tasks" json:"can_delete_tasks,omitempty"`
	CanViewProjects       *bool      `db:"can_view_projects" json:"can_view_projects,omitempty"`
	CanCreateProjects     *bool      `db:"can_create_projects" json:"can_create_projects,omitempty"`
	CanEditProjects       *bool      `db:"can_edit_projects" json:"can_edit_projects,omitempty"`
	CanDeleteProjects     *bool      `db:"can_delete_projects" json:"can_delete_projects,omitempty"`
	CanViewTeam           *bool      `db:"can_view_team" json:"can_view_team,omitempty"`
	CanManageTeam         *bool      `db:"can_manage_team" json:"can_manage_team,omitempty"`
	CanViewProcedures     *bool      `db:"can_view_procedures" json:"can_view_procedures,omitempty"`
	CanManageProcedures   *bool      `db:"can_manage_procedures" json:"can_manage_procedures,omitempty"`
	CanViewDecisions      *bool      `db:"can_view_decisions" json:"can_view_decisions,omitempty"`
	CanManageDecisions    *bool      `db:"can_manage_decisions" json:"can_manage_decisions,omitempty"`
	CanViewSecurityDocs   *bool      `db:"can_view_security_docs" json:"can_view_security_docs,omitempty"`
	CanManageSecurityDocs *bool      `db:"can_manage_security_docs" json:"can_manage_security_docs,omitempty"`
	CanManageUsers        *bool      `db:"can_manage_users" json:"can_manage_users,omitempty"`
	CanManagePermissions  *bool      `db:"can_manage_permissions" json:"can_manage_permissions,omitempty"`
	UpdatedAt             *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// ============================================================================
// Data Transfer Objects (API Input)
// ============================================================================

// CreateTaskForm is the payload for creating a task.
type CreateTaskForm struct {
	Title       string     `json:"title"`
	Topic       *string    `json:"topic,omitempty"`
	Description *string    `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"` // Defaults to medium
	Deadline    *time.Time `json:"deadline,omitempty"`
	ProjectID   *string    `json:"project_id,omitempty"`
}

// UpdateTaskForm carries a partial update; nil fields are left untouched.
// ClearDeadline distinguishes "clear the deadline" from "leave it alone",
// since both map to a nil Deadline pointer in JSON.
type UpdateTaskForm struct {
	Title         *string    `json:"title,omitempty"`
	Topic         *string    `json:"topic,omitempty"`
	Description   *string    `json:"description,omitempty"`
	Priority      *string    `json:"priority,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	ClearDeadline bool       `json:"clear_deadline,omitempty"`
	AssignedTo    *string    `json:"assigned_to,omitempty"`
	Status        *string    `json:"status,omitempty"`
}

// ApproveTaskForm is the payload for approving a task from the board.
type ApproveTaskForm struct {
	AssignedTo *string `json:"assigned_to,omitempty"`
	Note       *string `json:"note,omitempty"`
}

// IssueApprovalForm is the payload for sending a delegated approval request.
type IssueApprovalForm struct {
	EmployeeID string  `json:"employee_id"`
	Message    *string `json:"message,omitempty"`
}

// RespondForm is the public payload submitted with an approval token.
type RespondForm struct {
	Approved bool    `json:"approved"`
	Note     *string `json:"note,omitempty"`
}

// BulkApproveForm is the payload for approving a batch of tasks.
type BulkApproveForm struct {
	TaskIDs []string `json:"task_ids"`
}

// InviteUserForm is the payload for provisioning a new user account.
type InviteUserForm struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// EmployeeForm is the payload for creating or updating an employee.
type EmployeeForm struct {
	Name        string  `json:"name"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	TelegramID  *string `json:"telegram_id,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	DisplayRole *string `json:"display_role,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

// ============================================================================
// View Models (API Output)
// ============================================================================

// AssigneeView is the employee slice attached to a task in list responses.
type AssigneeView struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// TaskView is a task enriched with its assignees for JSON responses.
type TaskView struct {
	Task
	Assignees []AssigneeView `json:"assignees"`
}

// ApprovalRequestView is an approval request with joined display names,
// returned most-recent-first when listing a task's requests.
type ApprovalRequestView struct {
	ApprovalRequest
	EmployeeName  string `json:"employee_name"`
	RequesterName string `json:"requester_name"`
}

// PublicApproval is the unauthenticated token-lookup contract: the request
// joined with public-safe task fields and the requester's display name.
type PublicApproval struct {
	RequestID       string     `json:"request_id"`
	TaskID          string     `json:"task_id"`
	TaskTitle       string     `json:"task_title"`
	TaskTopic       *string    `json:"task_topic,omitempty"`
	TaskDescription *string    `json:"task_description,omitempty"`
	TaskPriority    string     `json:"task_priority"`
	TaskDeadline    *time.Time `json:"task_deadline,omitempty"`
	RequestStatus   string     `json:"request_status"`
	RequestedByName string     `json:"requested_by_name"`
	RequestedAt     time.Time  `json:"requested_at"`
	ExpiresAt       time.Time  `json:"expires_at"`
	Message         *string    `json:"message,omitempty"`
}

// RespondResult is the public approval response contract. Failures are
// reported through Success=false plus an error string rather than distinct
// status codes, since the endpoint is invoked as a single RPC-style call.
type RespondResult struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Approved *bool  `json:"approved,omitempty"`
	TaskID   string `json:"task_id,omitempty"`
}

// TaskStats is the dashboard aggregate, recomputed on demand.
type TaskStats struct {
	TotalOpen       int `json:"total_open"`       // status in {new, approved, in_progress}
	PendingApproval int `json:"pending_approval"` // status = new
	Completed       int `json:"completed"`        // status = done
	Overdue         int `json:"overdue"`          // deadline < now and status != done
}

// BulkApproveResult aggregates a bulk approval after every item has settled.
// Tasks that succeeded stay approved even when others in the batch fail.
type BulkApproveResult struct {
	Approved int               `json:"approved"`
	Failed   int               `json:"failed"`
	Errors   map[string]string `json:"errors,omitempty"` // task id -> failure reason
}

// InviteResult is the user-provisioning response contract.
type InviteResult struct {
	Success bool   `json:"success"`
	User    *User  `json:"user,omitempty"`
	Message string `json:"message,omitempty"`
}
