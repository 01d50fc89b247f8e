package services

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/mirifridman/apexboard/internal/models"
	"github.com/mirifridman/apexboard/internal/repository"
	"github.com/mirifridman/apexboard/internal/security"
)

// AuthService verifies credentials and manages password hashes.
type AuthService struct {
	userRepo *repository.UserRepository
	config   *security.Config
	logger   *security.Logger
}

// NewAuthService wires an auth service from its dependencies.
func NewAuthService(userRepo *repository.UserRepository, config *security.Config, logger *security.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		config:   config,
		logger:   logger,
	}
}

// Authenticate verifies an email/password pair and returns the user on
// success. Unknown email and wrong password both return
// ErrInvalidCredentials; the bcrypt comparison runs in either case so the
// two failure modes take comparable time.
func (s *AuthService) Authenticate(ctx context.Context, email, password, clientIP string) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Burn a comparison against a dummy hash to keep timing flat
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			s.logger.SecurityEvent(security.EventLoginFailure, nil, email, clientIP, "", nil)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.SecurityEvent(security.EventLoginFailure, &user.ID, email, clientIP, "", nil)
		return nil, ErrInvalidCredentials
	}

	s.logger.SecurityEvent(security.EventLoginSuccess, &user.ID, email, clientIP, "", nil)
	return user, nil
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// dummyHash is a valid bcrypt hash of an unguessable value, used to equalize
// timing when the email is unknown.
var dummyHash = []byte("$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW")
