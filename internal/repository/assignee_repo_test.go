package repository_test

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirifridman/apexboard/internal/repository"
)

const testEmployeeID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

// TestAssigneeRepository_Add verifies idempotent assignment insertion.
func TestAssigneeRepository_Add(t *testing.T) {
	mock := withMockDB(t, func(mock pgxmock.PgxPoolIface) {
		// ON CONFLICT DO NOTHING: a duplicate insert affects zero rows and
		// is still not an error
		mock.ExpectExec(`INSERT INTO task_assignees`).
			WithArgs(testTaskID, testEmployeeID).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))
	})

	repo := repository.NewAssigneeRepository()
	err := repo.Add(context.Background(), testTaskID, testEmployeeID)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestAssigneeRepository_OldestEmployee verifies the primary-assignee
// derivation source: the earliest-created assignment row, or nil when the
// task has no assignees.
func TestAssigneeRepository_OldestEmployee(t *testing.T) {
	t.Run("task with assignees returns oldest", func(t *testing.T) {
		mock := withMockDB(t, func(mock pgxmock.PgxPoolIface) {
			mock.ExpectQuery(`SELECT employee_id FROM task_assignees`).
				WithArgs(testTaskID).
				WillReturnRows(pgxmock.NewRows([]string{"employee_id"}).AddRow(testEmployeeID))
		})

		repo := repository.NewAssigneeRepository()
		oldest, err := repo.OldestEmployee(context.Background(), testTaskID)

		require.NoError(t, err)
		require.NotNil(t, oldest)
		assert.Equal(t, testEmployeeID, *oldest)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("task without assignees returns nil, not an error", func(t *testing.T) {
		mock := withMockDB(t, func(mock pgxmock.PgxPoolIface) {
			mock.ExpectQuery(`SELECT employee_id FROM task_assignees`).
				WithArgs(testTaskID).
				WillReturnRows(pgxmock.NewRows([]string{"employee_id"}))
		})

		repo := repository.NewAssigneeRepository()
		oldest, err := repo.OldestEmployee(context.Background(), testTaskID)

		require.NoError(t, err)
		assert.Nil(t, oldest)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// TestAssigneeRepository_SyncPrimaryAssignee verifies that the derived
// tasks.assigned_to column follows the oldest remaining assignment, dropping
// to NULL when the last assignee is removed.
func TestAssigneeRepository_SyncPrimaryAssignee(t *testing.T) {
	t.Run("oldest assignee promoted", func(t *testing.T) {
		mock := withMockDB(t, func(mock pgxmock.PgxPoolIface) {
			mock.ExpectQuery(`SELECT employee_id FROM task_assignees`).
				WithArgs(testTaskID).
				WillReturnRows(pgxmock.NewRows([]string{"employee_id"}).AddRow(testEmployeeID))

			mock.ExpectExec(`UPDATE tasks SET assigned_to = \$1 WHERE id = \$2`).
				WithArgs(ptr(testEmployeeID), testTaskID).
				WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		})

		repo := repository.NewAssigneeRepository()
		err := repo.SyncPrimaryAssignee(context.Background(), testTaskID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no assignees clears the column", func(t *testing.T) {
		mock := withMockDB(t, func(mock pgxmock.PgxPoolIface) {
			mock.ExpectQuery(`SELECT employee_id FROM task_assignees`).
				WithArgs(testTaskID).
				WillReturnRows(pgxmock.NewRows([]string{"employee_id"}))

			mock.ExpectExec(`UPDATE tasks SET assigned_to = \$1 WHERE id = \$2`).
				WithArgs((*string)(nil), testTaskID).
				WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		})

		repo := repository.NewAssigneeRepository()
		err := repo.SyncPrimaryAssignee(context.Background(), testTaskID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// TestAssigneeRepository_ListForTasks verifies the batch enrichment query
// groups assignees by task id.
func TestAssigneeRepository_ListForTasks(t *testing.T) {
	otherTask := "2c345678-90ab-cdef-1234-567890abcdef"

	mock := withMockDB(t, func(mock pgxmock.PgxPoolIface) {
		rows := pgxmock.NewRows([]string{"task_id", "id", "name", "avatar_url"}).
			AddRow(testTaskID, testEmployeeID, "Dana", nil).
			AddRow(testTaskID, "emp-2", "Yossi", nil).
			AddRow(otherTask, testEmployeeID, "Dana", nil)

		mock.ExpectQuery(`SELECT ta.task_id, e.id, e.name, e.avatar_url`).
			WithArgs([]string{testTaskID, otherTask}).
			WillReturnRows(rows)
	})

	repo := repository.NewAssigneeRepository()
	byTask, err := repo.ListForTasks(context.Background(), []string{testTaskID, otherTask})

	require.NoError(t, err)
	assert.Len(t, byTask[testTaskID], 2)
	assert.Len(t, byTask[otherTask], 1)
	assert.Equal(t, "Dana", byTask[testTaskID][0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestAssigneeRepository_ListForTasks_Empty verifies that an empty id list
// short-circuits without touching the database.
func TestAssigneeRepository_ListForTasks_Empty(t *testing.T) {
	mock := withMockDB(t, nil)

	repo := repository.NewAssigneeRepository()
	byTask, err := repo.ListForTasks(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, byTask)
	assert.NoError(t, mock.ExpectationsWereMet())
}
