package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirifridman/apexboard/internal/repository"
)

// TestStatsRepository_TaskStats verifies the dashboard aggregate query and
// its scan order.
func TestStatsRepository_TaskStats(t *testing.T) {
	now := time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)

	mock := withMockDB(t, func(mock pgxmock.PgxPoolIface) {
		rows := pgxmock.NewRows([]string{"total_open", "pending_approval", "completed", "overdue"}).
			AddRow(7, 3, 12, 2)

		mock.ExpectQuery(`SELECT\s+COUNT`).
			WithArgs(now).
			WillReturnRows(rows)
	})

	repo := repository.NewStatsRepository()
	stats, err := repo.TaskStats(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, 7, stats.TotalOpen)
	assert.Equal(t, 3, stats.PendingApproval)
	assert.Equal(t, 12, stats.Completed)
	assert.Equal(t, 2, stats.Overdue)
	assert.NoError(t, mock.ExpectationsWereMet())
}
