package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mirifridman/apexboard/internal/middleware"
	"github.com/mirifridman/apexboard/internal/models"
	"github.com/mirifridman/apexboard/internal/services"
)

// TaskHandler handles the task lifecycle endpoints: CRUD, direct approval,
// assignee toggling, bulk approval, and the dashboard stats.
type TaskHandler struct {
	taskService     *services.TaskService
	approvalService *services.ApprovalService
}

// NewTaskHandler creates a new instance of TaskHandler.
func NewTaskHandler(taskService *services.TaskService, approvalService *services.ApprovalService) *TaskHandler {
	return &TaskHandler{
		taskService:     taskService,
		approvalService: approvalService,
	}
}

// List returns all tasks, optionally filtered with ?status=.
//
// Route: GET /api/tasks
func (h *TaskHandler) List(c *fiber.Ctx) error {
	views, err := h.taskService.List(c.Context(), c.Query("status"))
	if err != nil {
		return respondError(c, err)
	}

	// An empty board serializes as [] rather than null
	if views == nil {
		views = []models.TaskView{}
	}
	return c.JSON(views)
}

// Get returns one task with its assignees.
//
// Route: GET /api/tasks/:id
func (h *TaskHandler) Get(c *fiber.Ctx) error {
	taskID, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	view, err := h.taskService.Get(c.Context(), taskID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// Create inserts a new task in status 'new'.
//
// Route: POST /api/tasks
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	var form models.CreateTaskForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	task, err := h.taskService.Create(c.Context(), &form, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// Update applies a partial update to a task.
//
// Route: PATCH /api/tasks/:id
func (h *TaskHandler) Update(c *fiber.Ctx) error {
	taskID, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	var form models.UpdateTaskForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.taskService.Update(c.Context(), taskID, &form); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// Delete removes a task and its dependent rows.
//
// Route: DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	taskID, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	if err := h.taskService.Delete(c.Context(), taskID, middleware.UserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// Approve directly approves a task on behalf of the signed-in user.
//
// Route: POST /api/tasks/:id/approve
func (h *TaskHandler) Approve(c *fiber.Ctx) error {
	taskID, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	var form models.ApproveTaskForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.taskService.DirectApprove(c.Context(), taskID, middleware.UserID(c), &form); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// BulkApprove approves a batch of tasks independently and reports per-item
// outcomes after every item has settled.
//
// Route: POST /api/tasks/bulk-approve
func (h *TaskHandler) BulkApprove(c *fiber.Ctx) error {
	var form models.BulkApproveForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	result, err := h.approvalService.BulkApprove(c.Context(), form.TaskIDs, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// ToggleAssignee flips an employee's assignment on a task.
//
// Route: POST /api/tasks/:id/assignees/:employeeId/toggle
func (h *TaskHandler) ToggleAssignee(c *fiber.Ctx) error {
	taskID, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	employeeID, ok, err := pathID(c, "employeeId")
	if !ok {
		return err
	}

	assigned, err := h.taskService.ToggleAssignee(c.Context(), taskID, employeeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"assigned": assigned})
}

// Stats returns the dashboard counters.
//
// Route: GET /api/tasks/stats
func (h *TaskHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.taskService.Stats(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
