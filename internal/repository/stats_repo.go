package repository

import (
	"context"
	"time"

	"github.com/mirifridman/apexboard/internal/database"
	"github.com/mirifridman/apexboard/internal/models"
)

// StatsRepository computes dashboard aggregates over the tasks table.
type StatsRepository struct{}

// NewStatsRepository creates and returns a new StatsRepository instance.
func NewStatsRepository() *StatsRepository {
	return &StatsRepository{}
}

// TaskStats computes all dashboard counters in a single aggregate query.
// A task can contribute to several counters at once: an overdue in_progress
// task counts as both open and overdue.
//
// Parameters:
//   - now: Overdue boundary; a deadline strictly before it counts as overdue
func (r *StatsRepository) TaskStats(ctx context.Context, now time.Time) (*models.TaskStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status IN ('new', 'approved', 'in_progress')) AS total_open,
			COUNT(*) FILTER (WHERE status = 'new') AS pending_approval,
			COUNT(*) FILTER (WHERE status = 'done') AS completed,
			COUNT(*) FILTER (WHERE deadline < $1 AND status != 'done') AS overdue
		FROM tasks
	`

	var stats models.TaskStats
	err := database.DB.QueryRow(ctx, query, now).Scan(
		&stats.TotalOpen, &stats.PendingApproval, &stats.Completed, &stats.Overdue,
	)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}
