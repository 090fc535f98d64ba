package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/taskboard/taskboard-api/internal/constants"
	"github.com/taskboard/taskboard-api/internal/models"
	"github.com/taskboard/taskboard-api/internal/repository"
	"github.com/taskboard/taskboard-api/internal/storage"
)

var ErrInvalidRole = errors.New("invalid role")

// UserService handles administrator-side account management.
type UserService struct {
	userRepo repository.UserRepository
	files    storage.Storage
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, files storage.Storage) *UserService {
	return &UserService{
		userRepo: userRepo,
		files:    files,
	}
}

// ListUsers returns one page of accounts plus the total count.
func (s *UserService) ListUsers(page, limit int) ([]models.User, int64, error) {
	users, total, err := s.userRepo.List(page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// CreateUserInput represents input for creating an account on behalf of
// someone else.
type CreateUserInput struct {
	Email    string
	Password string
	Role     models.UserRole
}

// CreateUser creates an account with an explicit role.
func (s *UserService) CreateUser(input CreateUserInput) (*models.User, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if input.Role == "" {
		input.Role = models.RoleUser
	}
	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         input.Role,
	}

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// UpdateUserInput represents a partial account update. Nil means "leave
// unchanged".
type UpdateUserInput struct {
	Email    *string
	Password *string
	Role     *models.UserRole
}

func (in UpdateUserInput) empty() bool {
	return in.Email == nil && in.Password == nil && in.Role == nil
}

// UpdateUser applies a partial update to an account.
func (s *UserService) UpdateUser(id string, input UpdateUserInput) (*models.User, error) {
	if input.empty() {
		return nil, ErrNoFieldsToUpdate
	}

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email == "" {
			return nil, fmt.Errorf("email is required")
		}
		if other, err := s.userRepo.FindByEmail(email); err == nil && other.ID != user.ID {
			return nil, ErrEmailTaken
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		user.Email = email
	}
	if input.Password != nil {
		if len(*input.Password) < constants.MinPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, ErrFailedToHashPassword
		}
		user.PasswordHash = string(hashedPassword)
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, ErrInvalidRole
		}
		user.Role = *input.Role
	}

	if err := s.userRepo.Update(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// DeleteUser removes an account. Tasks the user created are deleted along
// with their attachments; tasks assigned to the user lose the assignment.
func (s *UserService) DeleteUser(id string) error {
	if _, err := s.userRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	paths, err := s.userRepo.Delete(id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	for _, p := range paths {
		if err := s.files.Remove(p); err != nil {
			log.Printf("failed to remove attachment file %s: %v", p, err)
		}
	}

	return nil
}
