package auth

import (
	"errors"
	"fmt"
	"regexp"

	"gorm.io/gorm"

	"github.com/openshelf/bibliotheca/internal/config"
	"github.com/openshelf/bibliotheca/internal/database/users"
	"github.com/openshelf/bibliotheca/internal/entities"
)

// Validation patterns
var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrAuthRequired     = errors.New("authentication required")
	ErrUsernameRequired = errors.New("username is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrUsernameInvalid  = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrEmailInvalid     = errors.New("invalid email format")
)

// Service handles registration and credential checks.
type Service struct {
	users  *users.Repository
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(repo *users.Repository, cfg config.Auth) *Service {
	return &Service{
		users:  repo,
		config: cfg,
	}
}

// Register creates a new user account. The first registered account becomes
// an administrator.
func (s *Service) Register(username, email, password string) (*entities.User, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}
	// RFC 5321 caps addresses at 254 bytes
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}

	if _, err := s.users.GetByUsername(username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if _, err := s.users.GetByEmail(email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	count, err := s.users.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		IsAdmin:      count == 0,
	}
	if err := s.users.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate validates credentials and returns the user. The login field
// may be a username or an email address.
func (s *Service) Authenticate(login, password string) (*entities.User, error) {
	user, err := s.users.GetByUsername(login)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user, err = s.users.GetByEmail(login)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	user, err := s.users.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// HasUsers returns true if any accounts exist.
func (s *Service) HasUsers() (bool, error) {
	count, err := s.users.Count()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsAuthEnabled returns true if authentication is required.
func (s *Service) IsAuthEnabled() bool {
	return s.config.Mode == config.AuthModeLocal
}

// GetAuthMode returns the current authentication mode.
func (s *Service) GetAuthMode() config.AuthMode {
	return s.config.Mode
}
