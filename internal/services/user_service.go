package services

import (
	"context"

	"github.com/mirifridman/apexboard/internal/models"
	"github.com/mirifridman/apexboard/internal/repository"
	"github.com/mirifridman/apexboard/internal/security"
)

// UserService provisions and administers user accounts. Every operation here
// requires the acting user to hold the manage-users capability; the check
// lives in the service so no handler can forget it.
type UserService struct {
	userRepo     *repository.UserRepository
	employeeRepo *repository.EmployeeRepository
	auth         *AuthService
	validator    *security.ValidationService
	logger       *security.Logger

	// generatePassword is injectable for deterministic tests.
	generatePassword func() (string, error)
}

// NewUserService wires a user service from its dependencies.
func NewUserService(
	userRepo *repository.UserRepository,
	employeeRepo *repository.EmployeeRepository,
	auth *AuthService,
	validator *security.ValidationService,
	logger *security.Logger,
) *UserService {
	return &UserService{
		userRepo:         userRepo,
		employeeRepo:     employeeRepo,
		auth:             auth,
		validator:        validator,
		logger:           logger,
		generatePassword: security.GenerateTempPassword,
	}
}

// Invite provisions a new user account with a temporary password and a
// linked employee record. The temporary password is returned once in the
// result message and never stored in clear.
//
// Parameters:
//   - actorID: Acting user's id, logged with the provisioning event
//   - actorCaps: Acting user's resolved capabilities; must include CanManageUsers
func (s *UserService) Invite(ctx context.Context, form *models.InviteUserForm, actorID string, actorCaps Capabilities) (*models.InviteResult, error) {
	if !actorCaps.CanManageUsers {
		return nil, ErrForbidden
	}

	if err := s.validator.ValidateEmail(form.Email); err != nil {
		return nil, NewValidationError(err.Error())
	}
	if err := s.validator.ValidateRequired("full_name", form.FullName); err != nil {
		return nil, NewValidationError(err.Error())
	}
	if !models.ValidRole(form.Role) {
		return nil, NewValidationError("unknown role")
	}

	if _, err := s.userRepo.FindByEmail(ctx, form.Email); err == nil {
		return nil, NewValidationError("a user with this email already exists")
	}

	tempPassword, err := s.generatePassword()
	if err != nil {
		return nil, err
	}
	hash, err := s.auth.HashPassword(tempPassword)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        form.Email,
		FullName:     s.validator.SanitizeString(form.FullName),
		Role:         form.Role,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// Every account gets an employee record so the new user is immediately
	// assignable on the board.
	emp := &models.Employee{
		Name:   user.FullName,
		Email:  &user.Email,
		UserID: &user.ID,
	}
	if err := s.employeeRepo.Create(ctx, emp); err != nil {
		return nil, err
	}

	s.logger.SecurityEvent(security.EventUserInvite, &actorID, "", "", "", map[string]interface{}{
		"invited_user_id": user.ID,
		"invited_email":   user.Email,
		"role":            user.Role,
	})

	return &models.InviteResult{
		Success: true,
		User:    user,
		Message: "Temporary password: " + tempPassword,
	}, nil
}

// List returns all user accounts, oldest first.
func (s *UserService) List(ctx context.Context, actorCaps Capabilities) ([]models.User, error) {
	if !actorCaps.CanManageUsers {
		return nil, ErrForbidden
	}
	return s.userRepo.List(ctx)
}

// UpdateRole changes an account's access-control role.
func (s *UserService) UpdateRole(ctx context.Context, userID, role, actorID string, actorCaps Capabilities) error {
	if !actorCaps.CanManageUsers {
		return ErrForbidden
	}
	if !models.ValidRole(role) {
		return NewValidationError("unknown role")
	}

	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		return err
	}

	s.logger.SecurityEvent(security.EventPermissionMatrixChange, &actorID, "", "", "", map[string]interface{}{
		"user_id": userID,
		"role":    role,
	})
	return nil
}
