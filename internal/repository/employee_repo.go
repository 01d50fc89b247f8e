package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/mirifridman/apexboard/internal/database"
	"github.com/mirifridman/apexboard/internal/models"
)

// employeeColumns is the canonical select list scanned by scanEmployee.
const employeeColumns = `id, name, email, phone, telegram_id, avatar_url,
	display_role, active, user_id, created_at, updated_at`

// EmployeeRepository handles all database operations on the employees table.
type EmployeeRepository struct{}

// NewEmployeeRepository creates and returns a new EmployeeRepository instance.
func NewEmployeeRepository() *EmployeeRepository {
	return &EmployeeRepository{}
}

func scanEmployee(row pgx.Row, e *models.Employee) error {
	return row.Scan(
		&e.ID, &e.Name, &e.Email, &e.Phone, &e.TelegramID, &e.AvatarURL,
		&e.DisplayRole, &e.Active, &e.UserID, &e.CreatedAt, &e.UpdatedAt,
	)
}

// Create inserts a new employee.
//
// Side Effects:
//   - Populates emp.ID, emp.Active, and emp.CreatedAt with database values
func (r *EmployeeRepository) Create(ctx context.Context, emp *models.Employee) error {
	query := `
		INSERT INTO employees (name, email, phone, telegram_id, avatar_url, display_role, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, active, created_at
	`

	return database.DB.QueryRow(ctx, query,
		emp.Name, emp.Email, emp.Phone, emp.TelegramID, emp.AvatarURL,
		emp.DisplayRole, emp.UserID,
	).Scan(&emp.ID, &emp.Active, &emp.CreatedAt)
}

// GetByID retrieves a single employee by id.
func (r *EmployeeRepository) GetByID(ctx context.Context, employeeID string) (*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	var emp models.Employee
	err := scanEmployee(database.DB.QueryRow(ctx, query, employeeID), &emp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &emp, nil
}

// FindByUserID retrieves the employee linked to a user account, or ErrNotFound
// when the account has no employee record.
func (r *EmployeeRepository) FindByUserID(ctx context.Context, userID string) (*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE user_id = $1`

	var emp models.Employee
	err := scanEmployee(database.DB.QueryRow(ctx, query, userID), &emp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &emp, nil
}

// List retrieves employees ordered by name. When activeOnly is true, inactive
// employees are filtered out; they remain referenced by historical tasks.
func (r *EmployeeRepository) List(ctx context.Context, activeOnly bool) ([]models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees`
	if activeOnly {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY name ASC`

	rows, err := database.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []models.Employee
	for rows.Next() {
		var e models.Employee
		if err := scanEmployee(rows, &e); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}

	return employees, nil
}

// Update overwrites an employee's editable fields from form. A nil Active
// leaves the flag unchanged.
func (r *EmployeeRepository) Update(ctx context.Context, employeeID string, form *models.EmployeeForm) error {
	query := `
		UPDATE employees
		SET name = $1, email = $2, phone = $3, telegram_id = $4,
		    avatar_url = $5, display_role = $6,
		    active = COALESCE($7, active),
		    updated_at = now()
		WHERE id = $8
	`

	tag, err := database.DB.Exec(ctx, query,
		form.Name, form.Email, form.Phone, form.TelegramID,
		form.AvatarURL, form.DisplayRole, form.Active, employeeID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Deactivate soft-deletes an employee. Hard deletion is avoided so historical
// assignments and approval requests keep their references.
func (r *EmployeeRepository) Deactivate(ctx context.Context, employeeID string) error {
	tag, err := database.DB.Exec(ctx, `
		UPDATE employees SET active = false, updated_at = now() WHERE id = $1
	`, employeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
