package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/mirifridman/apexboard/internal/events"
	"github.com/mirifridman/apexboard/internal/models"
	"github.com/mirifridman/apexboard/internal/repository"
	"github.com/mirifridman/apexboard/internal/security"
)

// IssuedApproval is the response contract for sending a delegated approval
// request: the stored request plus the magic link to deliver to the
// recipient. The link is returned exactly once; the token is not exposed by
// any later read.
type IssuedApproval struct {
	Request models.ApprovalRequest `json:"request"`
	Link    string                 `json:"link"`
}

// ApprovalService implements the delegated approval protocol: issuing
// single-use tokens, resolving them for the public approval page, applying
// the approve/reject decision, cancellation, and bulk direct approval.
type ApprovalService struct {
	approvalRepo *repository.ApprovalRepository
	taskRepo     *repository.TaskRepository
	employeeRepo *repository.EmployeeRepository
	config       *security.Config
	validator    *security.ValidationService
	logger       *security.Logger
	broker       *events.Broker

	now func() time.Time

	// generateToken is injectable for deterministic tests.
	generateToken func() (string, error)
}

// NewApprovalService wires an approval service from its dependencies.
func NewApprovalService(
	approvalRepo *repository.ApprovalRepository,
	taskRepo *repository.TaskRepository,
	employeeRepo *repository.EmployeeRepository,
	config *security.Config,
	validator *security.ValidationService,
	logger *security.Logger,
	broker *events.Broker,
) *ApprovalService {
	return &ApprovalService{
		approvalRepo:  approvalRepo,
		taskRepo:      taskRepo,
		employeeRepo:  employeeRepo,
		config:        config,
		validator:     validator,
		logger:        logger,
		broker:        broker,
		now:           func() time.Time { return time.Now().UTC() },
		generateToken: security.GenerateApprovalToken,
	}
}

// Issue creates a pending approval request for a task and returns the magic
// link for it. Several pending requests may coexist for the same task; each
// carries its own token and expiry.
//
// Parameters:
//   - origin: Scheme and host the link should point at, e.g. "https://board.example.com"
//   - requestedBy: Acting user's id
func (s *ApprovalService) Issue(ctx context.Context, taskID, origin, requestedBy string, form *models.IssueApprovalForm) (*IssuedApproval, error) {
	if form.EmployeeID == "" {
		return nil, NewValidationError("employee_id is required")
	}
	if form.Message != nil {
		if err := s.validator.ValidateNote(*form.Message); err != nil {
			return nil, NewValidationError(err.Error())
		}
	}

	if _, err := s.taskRepo.GetByID(ctx, taskID); err != nil {
		return nil, err
	}

	employee, err := s.employeeRepo.GetByID(ctx, form.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !employee.Active {
		return nil, NewValidationError("employee is not active")
	}

	token, err := s.generateToken()
	if err != nil {
		return nil, err
	}

	req := &models.ApprovalRequest{
		TaskID:        taskID,
		Token:         token,
		RequestedBy:   requestedBy,
		RequestedFrom: form.EmployeeID,
		Message:       form.Message,
		ExpiresAt:     s.now().Add(s.config.ApprovalTokenTTL),
	}
	if err := s.approvalRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	s.logger.SecurityEvent(security.EventApprovalRequestSent, &requestedBy, "", "", "", map[string]interface{}{
		"task_id":     taskID,
		"request_id":  req.ID,
		"employee_id": form.EmployeeID,
	})
	s.broker.Publish(events.TopicApprovals, "created", req.ID)

	return &IssuedApproval{
		Request: *req,
		Link:    strings.TrimSuffix(origin, "/") + "/approve/" + token,
	}, nil
}

// Lookup resolves a token to the public approval view. Unknown and malformed
// tokens both come back as repository.ErrNotFound; a recognized token is
// returned in whatever state it is in, and the caller decides how to render
// non-pending states.
func (s *ApprovalService) Lookup(ctx context.Context, token string) (*models.PublicApproval, error) {
	pa, err := s.approvalRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	// A pending request past its window renders as expired even before the
	// lazy status write happens.
	if pa.RequestStatus == models.ApprovalPending && !pa.ExpiresAt.After(s.now()) {
		pa.RequestStatus = models.ApprovalExpired
	}

	return pa, nil
}

// Respond consumes a token with an approve or reject decision. Exactly one
// response wins per request; when the decision is an approval the underlying
// task transitions to approved.
//
// The returned RespondResult is always populated, including for failures:
// the public endpoint reports outcomes in the body, not via status codes.
func (s *ApprovalService) Respond(ctx context.Context, token string, form *models.RespondForm, clientIP string) *models.RespondResult {
	if form.Note != nil {
		if err := s.validator.ValidateNote(*form.Note); err != nil {
			return &models.RespondResult{Success: false, Error: err.Error()}
		}
	}

	requestID, taskID, err := s.approvalRepo.RespondByToken(ctx, token, form.Approved, form.Note, s.now())
	if err != nil {
		s.logger.SecurityEvent(security.EventApprovalTokenRejected, nil, "", clientIP, "", map[string]interface{}{
			"reason": err.Error(),
		})

		switch {
		case errors.Is(err, repository.ErrNotFound):
			return &models.RespondResult{Success: false, Error: "Invalid or unknown approval link"}
		case errors.Is(err, repository.ErrExpired):
			return &models.RespondResult{Success: false, Error: "This approval link has expired"}
		case errors.Is(err, repository.ErrAlreadyProcessed):
			return &models.RespondResult{Success: false, Error: "This request has already been processed"}
		default:
			return &models.RespondResult{Success: false, Error: "Unable to process the response"}
		}
	}

	// The request is consumed at this point. A failure to flip the task
	// still reports the decision as recorded.
	if form.Approved {
		if err := s.taskRepo.Approve(ctx, taskID, nil); err != nil {
			s.logger.Error("approval recorded but task transition failed", err)
		}
	}

	s.logger.SecurityEvent(security.EventApprovalTokenResponse, nil, "", clientIP, "", map[string]interface{}{
		"request_id": requestID,
		"task_id":    taskID,
		"approved":   form.Approved,
	})
	s.broker.Publish(events.TopicApprovals, "responded", requestID)
	s.broker.Publish(events.TopicTasks, "updated", taskID)

	approved := form.Approved
	return &models.RespondResult{Success: true, Approved: &approved, TaskID: taskID}
}

// Cancel expires a request so its link stops working immediately. Only the
// original requester or a user who can manage team settings may cancel.
func (s *ApprovalService) Cancel(ctx context.Context, requestID, actorID string, caps Capabilities) error {
	req, err := s.approvalRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}

	if req.RequestedBy != actorID && !caps.CanManageTeam {
		return ErrForbidden
	}

	if err := s.approvalRepo.Cancel(ctx, requestID); err != nil {
		return err
	}

	s.logger.SecurityEvent(security.EventApprovalRequestCancel, &actorID, "", "", "", map[string]interface{}{
		"request_id": requestID,
		"task_id":    req.TaskID,
	})
	s.broker.Publish(events.TopicApprovals, "updated", requestID)
	return nil
}

// ListForTask returns a task's approval requests, newest first.
func (s *ApprovalService) ListForTask(ctx context.Context, taskID string) ([]models.ApprovalRequestView, error) {
	return s.approvalRepo.ListForTask(ctx, taskID)
}

// BulkApprove directly approves a batch of tasks. Items are independent:
// each task is approved or fails on its own, nothing is rolled back, and the
// result is reported only after every item has settled. A batch where some
// items fail still leaves the successful ones approved.
func (s *ApprovalService) BulkApprove(ctx context.Context, taskIDs []string, approverID string) (*models.BulkApproveResult, error) {
	if err := s.validator.ValidateBulkBatch(len(taskIDs)); err != nil {
		return nil, NewValidationError(err.Error())
	}

	type outcome struct {
		taskID string
		err    error
	}

	outcomes := make([]outcome, len(taskIDs))
	now := s.now()

	var wg sync.WaitGroup
	for i, taskID := range taskIDs {
		wg.Add(1)
		go func(i int, taskID string) {
			defer wg.Done()
			err := s.taskRepo.DirectApprove(ctx, taskID, &approverID, nil, now)
			outcomes[i] = outcome{taskID: taskID, err: err}
		}(i, taskID)
	}
	wg.Wait()

	result := &models.BulkApproveResult{Errors: make(map[string]string)}
	for _, o := range outcomes {
		if o.err != nil {
			result.Failed++
			if errors.Is(o.err, repository.ErrNotFound) {
				result.Errors[o.taskID] = "task not found"
			} else {
				result.Errors[o.taskID] = "approval failed"
			}
			continue
		}
		result.Approved++
		s.broker.Publish(events.TopicTasks, "updated", o.taskID)
	}
	if len(result.Errors) == 0 {
		result.Errors = nil
	}

	s.logger.SecurityEvent(security.EventTaskDirectApprove, &approverID, "", "", "", map[string]interface{}{
		"bulk":     true,
		"approved": result.Approved,
		"failed":   result.Failed,
	})

	return result, nil
}
