package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirifridman/apexboard/internal/events"
	"github.com/mirifridman/apexboard/internal/models"
	"github.com/mirifridman/apexboard/internal/repository"
	"github.com/mirifridman/apexboard/internal/security"
	"github.com/mirifridman/apexboard/internal/services"
)

func newTaskService(t *testing.T) *services.TaskService {
	t.Helper()

	config := security.DefaultConfig()
	svc := services.NewTaskService(
		repository.NewTaskRepository(),
		repository.NewAssigneeRepository(),
		repository.NewStatsRepository(),
		security.NewValidationService(config),
		security.NewLogger(),
		events.NewBroker(),
	)
	services.SetTaskClock(svc, func() time.Time { return testNow })
	return svc
}

// TestTaskService_Create_Validation verifies input rejection before any
// database work: blank titles, oversized titles, and unknown priorities.
func TestTaskService_Create_Validation(t *testing.T) {
	tests := []struct {
		name string
		form *models.CreateTaskForm
	}{
		{
			name: "blank title",
			form: &models.CreateTaskForm{Title: "   "},
		},
		{
			name: "oversized title",
			form: &models.CreateTaskForm{Title: strings.Repeat("x", 201)},
		},
		{
			name: "unknown priority",
			form: &models.CreateTaskForm{Title: "Valid", Priority: "critical"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No expectations: validation failures never reach the database
			mock := withMockDB(t, nil)
			svc := newTaskService(t)

			task, err := svc.Create(context.Background(), tt.form, testUserID)

			var ve *services.ValidationError
			assert.ErrorAs(t, err, &ve)
			assert.Nil(t, task)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// TestTaskService_Create verifies successful creation including title
// sanitization.
func TestTaskService_Create(t *testing.T) {
	mock := withMockDB(t, func(mock pgxmock.PgxPoolIface) {
		mock.ExpectQuery(`INSERT INTO tasks`).
			WithArgs("Prepare board deck", (*string)(nil), (*string)(nil), models.PriorityMedium,
				(*time.Time)(nil), ptr(testUserID), (*string)(nil)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "status", "created_at"}).
				AddRow(testTaskID, models.TaskStatusNew, testNow))
	})

	svc := newTaskService(t)
	task, err := svc.Create(context.Background(),
		&models.CreateTaskForm{Title: "  Prepare board deck  "}, testUserID)

	require.NoError(t, err)
	assert.Equal(t, "Prepare board deck", task.Title, "title is trimmed")
	assert.Equal(t, models.TaskStatusNew, task.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestTaskService_Update_Validation verifies vocabulary checks on partial
// updates.
func TestTaskService_Update_Validation(t *testing.T) {
	tests := []struct {
		name string
		form *models.UpdateTaskForm
	}{
		{name: "unknown status", form: &models.UpdateTaskForm{Status: ptr("cancelled")}},
		{name: "unknown priority", form: &models.UpdateTaskForm{Priority: ptr("top")}},
		{name: "blank title", form: &models.UpdateTaskForm{Title: ptr("  ")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := withMockDB(t, nil)
			svc := newTaskService(t)

			err := svc.Update(context.Background(), testTaskID, tt.form)

			var ve *services.ValidationError
			assert.ErrorAs(t, err, &ve)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// TestTaskService_ToggleAssignee verifies both toggle directions and that
// the primary assignee is re-derived after each change.
func TestTaskService_ToggleAssignee(t *testing.T) {
	t.Run("unassigned employee becomes assigned", func(t *testing.T) {
		mock := withMockDB(t, func(mock pgxmock.PgxPoolIface) {
			mock.ExpectQuery(`SELECT .+ FROM tasks WHERE id = \$1`).
				WithArgs(testTaskID).
				WillReturnRows(taskRowFor(testTaskID))

			mock.ExpectQuery(`SELECT EXISTS`).
				WithArgs(testTaskID, testEmployeeID).
				WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

			mock.ExpectExec(`INSERT INTO task_assignees`).
				WithArgs(testTaskID, testEmployeeID).
				WillReturnResult(pgxmock.NewResult("INSERT", 1))

			mock.ExpectQuery(`SELECT employee_id FROM task_assignees`).
				WithArgs(testTaskID).
				WillReturnRows(pgxmock.NewRows([]string{"employee_id"}).AddRow(testEmployeeID))

			mock.ExpectExec(`UPDATE tasks SET assigned_to`).
				WithArgs(ptr(testEmployeeID), testTaskID).
				WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		})

		svc := newTaskService(t)
		assigned, err := svc.ToggleAssignee(context.Background(), testTaskID, testEmployeeID)

		require.NoError(t, err)
		assert.True(t, assigned)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("assigned employee becomes unassigned, primary falls back", func(t *testing.T) {
		remaining := "emp-oldest"

		mock := withMockDB(t, func(mock pgxmock.PgxPoolIface) {
			mock.ExpectQuery(`SELECT .+ FROM tasks WHERE id = \$1`).
				WithArgs(testTaskID).
				WillReturnRows(taskRowFor(testTaskID))

			mock.ExpectQuery(`SELECT EXISTS`).
				WithArgs(testTaskID, testEmployeeID).
				WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

			mock.ExpectExec(`DELETE FROM task_assignees`).
				WithArgs(testTaskID, testEmployeeID).
				WillReturnResult(pgxmock.NewResult("DELETE", 1))

			mock.ExpectQuery(`SELECT employee_id FROM task_assignees`).
				WithArgs(testTaskID).
				WillReturnRows(pgxmock.NewRows([]string{"employee_id"}).AddRow(remaining))

			mock.ExpectExec(`UPDATE tasks SET assigned_to`).
				WithArgs(&remaining, testTaskID).
				WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		})

		svc := newTaskService(t)
		assigned, err := svc.ToggleAssignee(context.Background(), testTaskID, testEmployeeID)

		require.NoError(t, err)
		assert.False(t, assigned)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown task is a not-found, not a silent no-op", func(t *testing.T) {
		mock := withMockDB(t, func(mock pgxmock.PgxPoolIface) {
			mock.ExpectQuery(`SELECT .+ FROM tasks WHERE id = \$1`).
				WithArgs(testTaskID).
				WillReturnRows(pgxmock.NewRows([]string{"id"}))
		})

		svc := newTaskService(t)
		_, err := svc.ToggleAssignee(context.Background(), testTaskID, testEmployeeID)

		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// TestTaskService_List verifies enrichment of list responses with batched
// assignees and the status filter vocabulary check.
func TestTaskService_List(t *testing.T) {
	t.Run("invalid status filter rejected", func(t *testing.T) {
		mock := withMockDB(t, nil)
		svc := newTaskService(t)

		views, err := svc.List(context.Background(), "archived")

		var ve *services.ValidationError
		assert.ErrorAs(t, err, &ve)
		assert.Nil(t, views)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("tasks come back with their assignees", func(t *testing.T) {
		mock := withMockDB(t, func(mock pgxmock.PgxPoolIface) {
			mock.ExpectQuery(`SELECT .+ FROM tasks WHERE status = \$1`).
				WithArgs(models.TaskStatusNew).
				WillReturnRows(taskRowFor(testTaskID))

			mock.ExpectQuery(`SELECT ta.task_id, e.id, e.name, e.avatar_url`).
				WithArgs([]string{testTaskID}).
				WillReturnRows(pgxmock.NewRows([]string{"task_id", "id", "name", "avatar_url"}).
					AddRow(testTaskID, testEmployeeID, "Dana", nil))
		})

		svc := newTaskService(t)
		views, err := svc.List(context.Background(), models.TaskStatusNew)

		require.NoError(t, err)
		require.Len(t, views, 1)
		require.Len(t, views[0].Assignees, 1)
		assert.Equal(t, "Dana", views[0].Assignees[0].Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// TestTaskService_Stats verifies the dashboard aggregate pass-through with
// the injected clock.
func TestTaskService_Stats(t *testing.T) {
	mock := withMockDB(t, func(mock pgxmock.PgxPoolIface) {
		mock.ExpectQuery(`SELECT\s+COUNT`).
			WithArgs(testNow).
			WillReturnRows(pgxmock.NewRows([]string{"total_open", "pending_approval", "completed", "overdue"}).
				AddRow(4, 2, 9, 1))
	})

	svc := newTaskService(t)
	stats, err := svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalOpen)
	assert.Equal(t, 1, stats.Overdue)
	assert.NoError(t, mock.ExpectationsWereMet())
}
