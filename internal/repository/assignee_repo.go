// Package repository provides the data access layer for the ApexBoard service.
// This file manages the many-to-many relation between tasks and employees and
// keeps the task's primary-assignee column derived from it.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/mirifridman/apexboard/internal/database"
	"github.com/mirifridman/apexboard/internal/models"
)

// AssigneeRepository handles task_assignees rows and the derived
// tasks.assigned_to column.
//
// Invariant: tasks.assigned_to always equals the employee of the oldest
// remaining assignment row, or NULL when none remain. Callers mutate through
// Toggle, which re-derives the column after every change.
type AssigneeRepository struct{}

// NewAssigneeRepository creates and returns a new AssigneeRepository instance.
func NewAssigneeRepository() *AssigneeRepository {
	return &AssigneeRepository{}
}

// Exists reports whether an assignment row links the task and employee.
func (r *AssigneeRepository) Exists(ctx context.Context, taskID, employeeID string) (bool, error) {
	var exists bool
	err := database.DB.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM task_assignees WHERE task_id = $1 AND employee_id = $2
		)
	`, taskID, employeeID).Scan(&exists)
	return exists, err
}

// Add inserts an assignment row. Duplicate pairs are ignored so concurrent
// toggles cannot create a second row for the same (task, employee).
func (r *AssigneeRepository) Add(ctx context.Context, taskID, employeeID string) error {
	_, err := database.DB.Exec(ctx, `
		INSERT INTO task_assignees (task_id, employee_id)
		VALUES ($1, $2)
		ON CONFLICT (task_id, employee_id) DO NOTHING
	`, taskID, employeeID)
	return err
}

// Remove deletes the assignment row for the pair if present.
func (r *AssigneeRepository) Remove(ctx context.Context, taskID, employeeID string) error {
	_, err := database.DB.Exec(ctx, `
		DELETE FROM task_assignees WHERE task_id = $1 AND employee_id = $2
	`, taskID, employeeID)
	return err
}

// OldestEmployee returns the employee id of the task's earliest-created
// assignment, or nil when the task has no assignees.
func (r *AssigneeRepository) OldestEmployee(ctx context.Context, taskID string) (*string, error) {
	var employeeID string
	err := database.DB.QueryRow(ctx, `
		SELECT employee_id FROM task_assignees
		WHERE task_id = $1
		ORDER BY created_at ASC
		LIMIT 1
	`, taskID).Scan(&employeeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &employeeID, nil
}

// SyncPrimaryAssignee recomputes tasks.assigned_to from the oldest remaining
// assignment row. Reads the latest assignment set after the caller's own
// write; last write wins under concurrent toggles.
func (r *AssigneeRepository) SyncPrimaryAssignee(ctx context.Context, taskID string) error {
	oldest, err := r.OldestEmployee(ctx, taskID)
	if err != nil {
		return err
	}

	_, err = database.DB.Exec(ctx, `
		UPDATE tasks SET assigned_to = $1 WHERE id = $2
	`, oldest, taskID)
	return err
}

// ListForTask retrieves the task's assignees joined with employee display
// fields, oldest assignment first.
func (r *AssigneeRepository) ListForTask(ctx context.Context, taskID string) ([]models.AssigneeView, error) {
	rows, err := database.DB.Query(ctx, `
		SELECT e.id, e.name, e.avatar_url
		FROM task_assignees ta
		JOIN employees e ON e.id = ta.employee_id
		WHERE ta.task_id = $1
		ORDER BY ta.created_at ASC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignees []models.AssigneeView
	for rows.Next() {
		var a models.AssigneeView
		if err := rows.Scan(&a.ID, &a.Name, &a.AvatarURL); err != nil {
			return nil, err
		}
		assignees = append(assignees, a)
	}

	return assignees, nil
}

// ListForTasks retrieves assignees for a set of tasks in one query, keyed by
// task id. Used to enrich task list responses without per-task round trips.
func (r *AssigneeRepository) ListForTasks(ctx context.Context, taskIDs []string) (map[string][]models.AssigneeView, error) {
	result := make(map[string][]models.AssigneeView)
	if len(taskIDs) == 0 {
		return result, nil
	}

	rows, err := database.DB.Query(ctx, `
		SELECT ta.task_id, e.id, e.name, e.avatar_url
		FROM task_assignees ta
		JOIN employees e ON e.id = ta.employee_id
		WHERE ta.task_id = ANY($1)
		ORDER BY ta.created_at ASC
	`, taskIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var taskID string
		var a models.AssigneeView
		if err := rows.Scan(&taskID, &a.ID, &a.Name, &a.AvatarURL); err != nil {
			return nil, err
		}
		result[taskID] = append(result[taskID], a)
	}

	return result, nil
}
