package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mirifridman/apexboard/internal/middleware"
	"github.com/mirifridman/apexboard/internal/models"
	"github.com/mirifridman/apexboard/internal/services"
)

// ApprovalHandler handles the delegated approval protocol: issuing magic
// links from the board and the public token endpoints. The public endpoints
// are the only unauthenticated surface of the API.
type ApprovalHandler struct {
	approvalService *services.ApprovalService
	permService     *services.PermissionService
}

// NewApprovalHandler creates a new instance of ApprovalHandler.
func NewApprovalHandler(approvalService *services.ApprovalService, permService *services.PermissionService) *ApprovalHandler {
	return &ApprovalHandler{
		approvalService: approvalService,
		permService:     permService,
	}
}

// Issue creates a delegated approval request for a task and returns the
// magic link once.
//
// Route: POST /api/tasks/:id/approval-requests
func (h *ApprovalHandler) Issue(c *fiber.Ctx) error {
	taskID, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	var form models.IssueApprovalForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	origin := c.BaseURL()
	issued, err := h.approvalService.Issue(c.Context(), taskID, origin, middleware.UserID(c), &form)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(issued)
}

// ListForTask returns a task's approval requests, newest first.
//
// Route: GET /api/tasks/:id/approval-requests
func (h *ApprovalHandler) ListForTask(c *fiber.Ctx) error {
	taskID, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	views, err := h.approvalService.ListForTask(c.Context(), taskID)
	if err != nil {
		return respondError(c, err)
	}
	if views == nil {
		views = []models.ApprovalRequestView{}
	}
	return c.JSON(views)
}

// Cancel expires an approval request so its link stops working.
//
// Route: DELETE /api/approval-requests/:id
func (h *ApprovalHandler) Cancel(c *fiber.Ctx) error {
	requestID, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	caps := h.permService.Resolve(c.Context(), middleware.UserRole(c))
	if err := h.approvalService.Cancel(c.Context(), requestID, middleware.UserID(c), caps); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// Lookup resolves a token for the public approval page. No authentication;
// unknown tokens get a 404 so the page can render "link not found".
//
// Route: GET /approve/:token
func (h *ApprovalHandler) Lookup(c *fiber.Ctx) error {
	pa, err := h.approvalService.Lookup(c.Context(), c.Params("token"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pa)
}

// Respond consumes a token with an approve/reject decision. The endpoint
// always answers 200; the outcome, including failures, is reported in the
// body so the approval page renders it directly.
//
// Route: POST /approve/:token
func (h *ApprovalHandler) Respond(c *fiber.Ctx) error {
	var form models.RespondForm
	if err := c.BodyParser(&form); err != nil {
		return c.JSON(models.RespondResult{Success: false, Error: "invalid request body"})
	}

	result := h.approvalService.Respond(c.Context(), c.Params("token"), &form, c.IP())
	return c.JSON(result)
}
