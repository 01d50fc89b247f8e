// Package repository provides the data access layer for the ApexBoard service.
// This file implements task persistence: creation, lookup, partial update,
// approval transitions, and deletion.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mirifridman/apexboard/internal/database"
	"github.com/mirifridman/apexboard/internal/models"
)

// taskColumns is the canonical select list scanned by scanTask.
const taskColumns = `id, title, topic, description, status, priority, deadline,
	assigned_to, created_by, approved_by, approved_at, approval_note,
	project_id, created_at, updated_at`

// TaskRepository handles all database operations on the tasks table.
type TaskRepository struct{}

// NewTaskRepository creates and returns a new TaskRepository instance.
func NewTaskRepository() *TaskRepository {
	return &TaskRepository{}
}

func scanTask(row pgx.Row, t *models.Task) error {
	return row.Scan(
		&t.ID, &t.Title, &t.Topic, &t.Description, &t.Status, &t.Priority,
		&t.Deadline, &t.AssignedTo, &t.CreatedBy, &t.ApprovedBy, &t.ApprovedAt,
		&t.ApprovalNote, &t.ProjectID, &t.CreatedAt, &t.UpdatedAt,
	)
}

// Create inserts a new task. Status always starts at 'new' regardless of
// input; priority defaults to medium when empty.
//
// Side Effects:
//   - Populates task.ID, task.Status, and task.CreatedAt with database values
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}

	query := `
		INSERT INTO tasks (title, topic, description, priority, deadline, created_by, project_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status, created_at
	`

	return database.DB.QueryRow(ctx, query,
		task.Title, task.Topic, task.Description, task.Priority,
		task.Deadline, task.CreatedBy, task.ProjectID,
	).Scan(&task.ID, &task.Status, &task.CreatedAt)
}

// GetByID retrieves a single task by its ID.
//
// Returns:
//   - *models.Task: Task with all fields
//   - error: ErrNotFound if the id does not exist, database error otherwise
func (r *TaskRepository) GetByID(ctx context.Context, taskID string) (*models.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = $1`, taskColumns)

	var task models.Task
	err := scanTask(database.DB.QueryRow(ctx, query, taskID), &task)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks ordered newest-first, optionally filtered by status.
// An empty status returns all tasks.
func (r *TaskRepository) List(ctx context.Context, status string) ([]models.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks`, taskColumns)
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := database.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	return tasks, nil
}

// Update applies a partial update built from the non-nil fields of form.
// Status transitions applied here are advisory: any status may be set from
// any status, matching the board's generic edit operation.
//
// Returns:
//   - error: ErrNotFound if the task id does not exist, nil on success
func (r *TaskRepository) Update(ctx context.Context, taskID string, form *models.UpdateTaskForm) error {
	sets := []string{"updated_at = $1"}
	args := []interface{}{time.Now().UTC()}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if form.Title != nil {
		add("title", *form.Title)
	}
	if form.Topic != nil {
		add("topic", *form.Topic)
	}
	if form.Description != nil {
		add("description", *form.Description)
	}
	if form.Priority != nil {
		add("priority", *form.Priority)
	}
	if form.Deadline != nil {
		add("deadline", *form.Deadline)
	} else if form.ClearDeadline {
		sets = append(sets, "deadline = NULL")
	}
	if form.AssignedTo != nil {
		add("assigned_to", *form.AssignedTo)
	}
	if form.Status != nil {
		add("status", *form.Status)
	}

	args = append(args, taskID)
	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = $%d`,
		strings.Join(sets, ", "), len(args))

	tag, err := database.DB.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Approve sets a task's status to approved, optionally assigning a primary
// assignee in the same statement. Re-approving an already-approved task is
// not an error.
func (r *TaskRepository) Approve(ctx context.Context, taskID string, assignedTo *string) error {
	var tag pgconn.CommandTag
	var err error

	if assignedTo != nil {
		tag, err = database.DB.Exec(ctx, `
			UPDATE tasks SET status = $1, assigned_to = $2, updated_at = $3 WHERE id = $4
		`, models.TaskStatusApproved, *assignedTo, time.Now().UTC(), taskID)
	} else {
		tag, err = database.DB.Exec(ctx, `
			UPDATE tasks SET status = $1, updated_at = $2 WHERE id = $3
		`, models.TaskStatusApproved, time.Now().UTC(), taskID)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DirectApprove approves a task on behalf of a signed-in approver, recording
// who approved, when, and an optional note. approved_at and approved_by are
// always written together.
func (r *TaskRepository) DirectApprove(ctx context.Context, taskID string, approvedBy *string, note *string, now time.Time) error {
	tag, err := database.DB.Exec(ctx, `
		UPDATE tasks
		SET status = $1, approved_by = $2, approved_at = $3, approval_note = $4, updated_at = $3
		WHERE id = $5
	`, models.TaskStatusApproved, approvedBy, now, note, taskID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a task. Assignment rows and approval requests referencing
// it are removed by ON DELETE CASCADE.
func (r *TaskRepository) Delete(ctx context.Context, taskID string) error {
	tag, err := database.DB.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
