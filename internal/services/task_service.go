package services

import (
	"context"
	"time"

	"github.com/mirifridman/apexboard/internal/events"
	"github.com/mirifridman/apexboard/internal/models"
	"github.com/mirifridman/apexboard/internal/repository"
	"github.com/mirifridman/apexboard/internal/security"
)

// TaskService implements the task lifecycle: creation, listing, partial
// updates, approval transitions, assignee toggling, deletion, and the
// dashboard aggregate.
//
// Status transitions are advisory. Any status can be set from any status via
// Update; the named transitions (Approve, DirectApprove) exist because they
// carry extra bookkeeping, not because other paths are forbidden.
type TaskService struct {
	taskRepo     *repository.TaskRepository
	assigneeRepo *repository.AssigneeRepository
	statsRepo    *repository.StatsRepository
	validator    *security.ValidationService
	logger       *security.Logger
	broker       *events.Broker

	// now is injectable for deterministic tests.
	now func() time.Time
}

// NewTaskService wires a task service from its dependencies.
func NewTaskService(
	taskRepo *repository.TaskRepository,
	assigneeRepo *repository.AssigneeRepository,
	statsRepo *repository.StatsRepository,
	validator *security.ValidationService,
	logger *security.Logger,
	broker *events.Broker,
) *TaskService {
	return &TaskService{
		taskRepo:     taskRepo,
		assigneeRepo: assigneeRepo,
		statsRepo:    statsRepo,
		validator:    validator,
		logger:       logger,
		broker:       broker,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Create validates the form and inserts a new task in status 'new'.
//
// Parameters:
//   - createdBy: Acting user's id, recorded as the task author
//
// Returns:
//   - *models.Task: The created task with database-assigned fields
//   - error: ValidationError for rejected input, database error otherwise
func (s *TaskService) Create(ctx context.Context, form *models.CreateTaskForm, createdBy string) (*models.Task, error) {
	title := s.validator.SanitizeString(form.Title)
	if err := s.validator.ValidateTaskTitle(title); err != nil {
		return nil, NewValidationError(err.Error())
	}
	if form.Description != nil {
		if err := s.validator.ValidateDescription(*form.Description); err != nil {
			return nil, NewValidationError(err.Error())
		}
	}
	if form.Priority != "" && !models.ValidPriority(form.Priority) {
		return nil, NewValidationError("invalid priority")
	}

	task := &models.Task{
		Title:       title,
		Topic:       form.Topic,
		Description: form.Description,
		Priority:    form.Priority,
		Deadline:    form.Deadline,
		ProjectID:   form.ProjectID,
		CreatedBy:   &createdBy,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}

	s.broker.Publish(events.TopicTasks, "created", task.ID)
	return task, nil
}

// Get retrieves a task with its assignee list.
func (s *TaskService) Get(ctx context.Context, taskID string) (*models.TaskView, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	assignees, err := s.assigneeRepo.ListForTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	return &models.TaskView{Task: *task, Assignees: assignees}, nil
}

// List retrieves tasks newest-first, optionally filtered by status, with
// assignees attached in a single batch query.
func (s *TaskService) List(ctx context.Context, status string) ([]models.TaskView, error) {
	if status != "" && !models.ValidTaskStatus(status) {
		return nil, NewValidationError("invalid status filter")
	}

	tasks, err := s.taskRepo.List(ctx, status)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}

	assigneesByTask, err := s.assigneeRepo.ListForTasks(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.TaskView, len(tasks))
	for i, t := range tasks {
		views[i] = models.TaskView{Task: t, Assignees: assigneesByTask[t.ID]}
	}

	return views, nil
}

// Update validates and applies a partial update.
func (s *TaskService) Update(ctx context.Context, taskID string, form *models.UpdateTaskForm) error {
	if form.Title != nil {
		title := s.validator.SanitizeString(*form.Title)
		if err := s.validator.ValidateTaskTitle(title); err != nil {
			return NewValidationError(err.Error())
		}
		form.Title = &title
	}
	if form.Description != nil {
		if err := s.validator.ValidateDescription(*form.Description); err != nil {
			return NewValidationError(err.Error())
		}
	}
	if form.Priority != nil && !models.ValidPriority(*form.Priority) {
		return NewValidationError("invalid priority")
	}
	if form.Status != nil && !models.ValidTaskStatus(*form.Status) {
		return NewValidationError("invalid status")
	}

	if err := s.taskRepo.Update(ctx, taskID, form); err != nil {
		return err
	}

	s.broker.Publish(events.TopicTasks, "updated", taskID)
	return nil
}

// DirectApprove approves a task on behalf of a signed-in approver, bypassing
// the token protocol. Records who approved, when, and an optional note.
func (s *TaskService) DirectApprove(ctx context.Context, taskID, approverID string, form *models.ApproveTaskForm) error {
	if form.Note != nil {
		if err := s.validator.ValidateNote(*form.Note); err != nil {
			return NewValidationError(err.Error())
		}
	}

	if err := s.taskRepo.DirectApprove(ctx, taskID, &approverID, form.Note, s.now()); err != nil {
		return err
	}

	if form.AssignedTo != nil {
		if err := s.assigneeRepo.Add(ctx, taskID, *form.AssignedTo); err != nil {
			return err
		}
		if err := s.assigneeRepo.SyncPrimaryAssignee(ctx, taskID); err != nil {
			return err
		}
	}

	s.logger.SecurityEvent(security.EventTaskDirectApprove, &approverID, "", "", "", map[string]interface{}{
		"task_id": taskID,
	})
	s.broker.Publish(events.TopicTasks, "updated", taskID)
	return nil
}

// Delete removes a task along with its assignment rows and approval
// requests. The deletion is logged as a security event because it destroys
// audit context.
func (s *TaskService) Delete(ctx context.Context, taskID, actorID string) error {
	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return err
	}

	s.logger.SecurityEvent(security.EventTaskDelete, &actorID, "", "", "", map[string]interface{}{
		"task_id": taskID,
	})
	s.broker.Publish(events.TopicTasks, "deleted", taskID)
	return nil
}

// ToggleAssignee flips an employee's assignment on a task: assigned becomes
// unassigned and vice versa, then the task's primary assignee is re-derived
// from the oldest remaining assignment.
//
// Returns:
//   - assigned: true when the toggle resulted in the employee being assigned
func (s *TaskService) ToggleAssignee(ctx context.Context, taskID, employeeID string) (assigned bool, err error) {
	// Ensure the task exists so a toggle on a bogus id is a 404, not a
	// silent no-op.
	if _, err := s.taskRepo.GetByID(ctx, taskID); err != nil {
		return false, err
	}

	exists, err := s.assigneeRepo.Exists(ctx, taskID, employeeID)
	if err != nil {
		return false, err
	}

	if exists {
		err = s.assigneeRepo.Remove(ctx, taskID, employeeID)
	} else {
		err = s.assigneeRepo.Add(ctx, taskID, employeeID)
	}
	if err != nil {
		return false, err
	}

	if err := s.assigneeRepo.SyncPrimaryAssignee(ctx, taskID); err != nil {
		return false, err
	}

	s.broker.Publish(events.TopicAssignees, "updated", taskID)
	return !exists, nil
}

// Stats computes the dashboard counters against the current time.
func (s *TaskService) Stats(ctx context.Context) (*models.TaskStats, error) {
	return s.statsRepo.TaskStats(ctx, s.now())
}
