package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/mirifridman/apexboard/internal/database"
	"github.com/mirifridman/apexboard/internal/models"
)

// ProjectRepository handles all database operations on the projects table.
type ProjectRepository struct{}

// NewProjectRepository creates and returns a new ProjectRepository instance.
func NewProjectRepository() *ProjectRepository {
	return &ProjectRepository{}
}

// Create inserts a new project.
//
// Side Effects:
//   - Populates proj.ID and proj.CreatedAt with database values
func (r *ProjectRepository) Create(ctx context.Context, proj *models.Project) error {
	return database.DB.QueryRow(ctx, `
		INSERT INTO projects (name, description, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, proj.Name, proj.Description, proj.CreatedBy).Scan(&proj.ID, &proj.CreatedAt)
}

// GetByID retrieves a single project by id.
func (r *ProjectRepository) GetByID(ctx context.Context, projectID string) (*models.Project, error) {
	var p models.Project
	err := database.DB.QueryRow(ctx, `
		SELECT id, name, description, created_by, created_at
		FROM projects
		WHERE id = $1
	`, projectID).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedBy, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// List retrieves all projects, newest first.
func (r *ProjectRepository) List(ctx context.Context) ([]models.Project, error) {
	rows, err := database.DB.Query(ctx, `
		SELECT id, name, description, created_by, created_at
		FROM projects
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}

	return projects, nil
}

// Update overwrites a project's name and description.
func (r *ProjectRepository) Update(ctx context.Context, projectID, name string, description *string) error {
	tag, err := database.DB.Exec(ctx, `
		UPDATE projects SET name = $1, description = $2 WHERE id = $3
	`, name, description, projectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a project. Tasks referencing it keep existing with project_id
// reset to NULL by the foreign key.
func (r *ProjectRepository) Delete(ctx context.Context, projectID string) error {
	tag, err := database.DB.Exec(ctx, `DELETE FROM projects WHERE id = $1`, projectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
