// Package repository provides the data access layer for the ApexBoard service.
// This file implements the approval request store backing the delegated
// approval protocol: token issuance, public lookup, the atomic response
// transition, cancellation, and per-task listing.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mirifridman/apexboard/internal/database"
	"github.com/mirifridman/apexboard/internal/models"
)

// ApprovalRepository handles task_approval_requests rows.
//
// The token column is the only lookup key for unauthenticated access: a
// token embeds no task id and no signature, so every public operation is a
// straight indexed lookup on it.
type ApprovalRepository struct{}

// NewApprovalRepository creates and returns a new ApprovalRepository instance.
func NewApprovalRepository() *ApprovalRepository {
	return &ApprovalRepository{}
}

// Create inserts a new approval request in status pending.
//
// Side Effects:
//   - Populates req.ID, req.Status, and req.CreatedAt with database values
func (r *ApprovalRepository) Create(ctx context.Context, req *models.ApprovalRequest) error {
	query := `
		INSERT INTO task_approval_requests
			(task_id, token, requested_by, requested_from, message, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, status, created_at
	`

	return database.DB.QueryRow(ctx, query,
		req.TaskID, req.Token, req.RequestedBy, req.RequestedFrom,
		req.Message, req.ExpiresAt,
	).Scan(&req.ID, &req.Status, &req.CreatedAt)
}

// GetByID retrieves a single approval request by primary key.
func (r *ApprovalRepository) GetByID(ctx context.Context, requestID string) (*models.ApprovalRequest, error) {
	query := `
		SELECT id, task_id, token, requested_by, requested_from, status,
		       message, response_note, responded_at, expires_at, created_at
		FROM task_approval_requests
		WHERE id = $1
	`

	var req models.ApprovalRequest
	err := database.DB.QueryRow(ctx, query, requestID).Scan(
		&req.ID, &req.TaskID, &req.Token, &req.RequestedBy, &req.RequestedFrom,
		&req.Status, &req.Message, &req.ResponseNote, &req.RespondedAt,
		&req.ExpiresAt, &req.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &req, nil
}

// GetByToken retrieves the public-safe view of a request for unauthenticated
// rendering: the request joined with the task's display fields and the
// requester's name.
//
// Returns:
//   - *models.PublicApproval: Joined view for the approval page
//   - error: ErrNotFound when no request matches; malformed tokens are not
//     distinguished from unknown ones
func (r *ApprovalRepository) GetByToken(ctx context.Context, token string) (*models.PublicApproval, error) {
	query := `
		SELECT ar.id, ar.task_id, t.title, t.topic, t.description, t.priority,
		       t.deadline, ar.status, u.full_name, ar.created_at, ar.expires_at,
		       ar.message
		FROM task_approval_requests ar
		JOIN tasks t ON t.id = ar.task_id
		JOIN users u ON u.id = ar.requested_by
		WHERE ar.token = $1
	`

	var pa models.PublicApproval
	err := database.DB.QueryRow(ctx, query, token).Scan(
		&pa.RequestID, &pa.TaskID, &pa.TaskTitle, &pa.TaskTopic,
		&pa.TaskDescription, &pa.TaskPriority, &pa.TaskDeadline,
		&pa.RequestStatus, &pa.RequestedByName, &pa.RequestedAt,
		&pa.ExpiresAt, &pa.Message,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &pa, nil
}

// RespondByToken applies the approve/reject decision in a single
// compare-and-set statement: the row is updated only while its status is
// still pending and its expiry is in the future. The first caller to
// transition the request out of pending wins; concurrent losers are
// classified by a follow-up read.
//
// Parameters:
//   - token: Opaque bearer token from the approval link
//   - approved: true records 'approved', false records 'rejected'
//   - note: Optional response note from the recipient
//   - now: Decision timestamp, also used as the expiry boundary
//
// Returns:
//   - requestID, taskID: Identifiers of the consumed request
//   - error: ErrNotFound (unknown token), ErrAlreadyProcessed (status left
//     pending earlier), or ErrExpired (window elapsed; the row is
//     opportunistically marked expired)
func (r *ApprovalRepository) RespondByToken(ctx context.Context, token string, approved bool, note *string, now time.Time) (requestID, taskID string, err error) {
	status := models.ApprovalRejected
	if approved {
		status = models.ApprovalApproved
	}

	// Single atomic compare-and-set: status and expiry are checked in the
	// same statement that writes the decision.
	cas := `
		UPDATE task_approval_requests
		SET status = $1, response_note = $2, responded_at = $3
		WHERE token = $4 AND status = 'pending' AND expires_at > $3
		RETURNING id, task_id
	`

	err = database.DB.QueryRow(ctx, cas, status, note, now, token).Scan(&requestID, &taskID)
	if err == nil {
		return requestID, taskID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", "", err
	}

	// The CAS matched nothing; read the row to classify the failure.
	var current string
	var expiresAt time.Time
	err = database.DB.QueryRow(ctx, `
		SELECT status, expires_at FROM task_approval_requests WHERE token = $1
	`, token).Scan(&current, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", err
	}

	if current != models.ApprovalPending {
		return "", "", ErrAlreadyProcessed
	}

	// Still pending but past its window: lazily record the expiry. The
	// guard keeps a racing responder from being overwritten.
	_, markErr := database.DB.Exec(ctx, `
		UPDATE task_approval_requests
		SET status = 'expired'
		WHERE token = $1 AND status = 'pending'
	`, token)
	if markErr != nil {
		return "", "", markErr
	}

	return "", "", ErrExpired
}

// Cancel marks a request expired regardless of its current state. This is
// the requester's administrative override for links that should stop
// working immediately.
func (r *ApprovalRepository) Cancel(ctx context.Context, requestID string) error {
	tag, err := database.DB.Exec(ctx, `
		UPDATE task_approval_requests SET status = 'expired' WHERE id = $1
	`, requestID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListForTask retrieves all approval requests for a task, most recent
// first, with joined employee and requester display names. The board treats
// the newest pending entry as "the" active request even though the data
// model allows several.
func (r *ApprovalRepository) ListForTask(ctx context.Context, taskID string) ([]models.ApprovalRequestView, error) {
	query := `
		SELECT ar.id, ar.task_id, ar.token, ar.requested_by, ar.requested_from,
		       ar.status, ar.message, ar.response_note, ar.responded_at,
		       ar.expires_at, ar.created_at,
		       e.name AS employee_name,
		       u.full_name AS requester_name
		FROM task_approval_requests ar
		JOIN employees e ON e.id = ar.requested_from
		JOIN users u ON u.id = ar.requested_by
		WHERE ar.task_id = $1
		ORDER BY ar.created_at DESC
	`

	rows, err := database.DB.Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []models.ApprovalRequestView
	for rows.Next() {
		var v models.ApprovalRequestView
		if err := rows.Scan(
			&v.ID, &v.TaskID, &v.Token, &v.RequestedBy, &v.RequestedFrom,
			&v.Status, &v.Message, &v.ResponseNote, &v.RespondedAt,
			&v.ExpiresAt, &v.CreatedAt, &v.EmployeeName, &v.RequesterName,
		); err != nil {
			return nil, err
		}
		views = append(views, v)
	}

	return views, nil
}
