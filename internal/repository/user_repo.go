package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/mirifridman/apexboard/internal/database"
	"github.com/mirifridman/apexboard/internal/models"
)

// UserRepository handles all database operations on the users table.
type UserRepository struct{}

// NewUserRepository creates and returns a new UserRepository instance.
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// Create inserts a new user account.
//
// Side Effects:
//   - Populates user.ID and user.CreatedAt with database values
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return database.DB.QueryRow(ctx, `
		INSERT INTO users (email, full_name, role, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, user.Email, user.FullName, user.Role, user.PasswordHash).Scan(&user.ID, &user.CreatedAt)
}

// FindByEmail retrieves a user by email, including the password hash for
// credential verification. Lookup is case-insensitive.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := database.DB.QueryRow(ctx, `
		SELECT id, email, full_name, role, password_hash, created_at
		FROM users
		WHERE lower(email) = lower($1)
	`, email).Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// FindByID retrieves a user by id.
func (r *UserRepository) FindByID(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	err := database.DB.QueryRow(ctx, `
		SELECT id, email, full_name, role, password_hash, created_at
		FROM users
		WHERE id = $1
	`, userID).Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// GetRole returns just the role column for a user. Used on every
// permission-gated request, so it stays a single-column read.
func (r *UserRepository) GetRole(ctx context.Context, userID string) (string, error) {
	var role string
	err := database.DB.QueryRow(ctx, `
		SELECT role FROM users WHERE id = $1
	`, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	return role, nil
}

// List retrieves all users ordered by creation time, oldest first.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := database.DB.Query(ctx, `
		SELECT id, email, full_name, role, password_hash, created_at
		FROM users
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, nil
}

// UpdateRole changes a user's access-control role.
func (r *UserRepository) UpdateRole(ctx context.Context, userID, role string) error {
	tag, err := database.DB.Exec(ctx, `
		UPDATE users SET role = $1 WHERE id = $2
	`, role, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdatePassword replaces a user's password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	tag, err := database.DB.Exec(ctx, `
		UPDATE users SET password_hash = $1 WHERE id = $2
	`, passwordHash, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
