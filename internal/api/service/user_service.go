package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"libraryhub/internal/api/models"
	"libraryhub/internal/api/repository"

	"gorm.io/gorm"
)

// UserUpdateInput carries the profile fields a user may change. Nil pointers
// mean "leave as is".
type UserUpdateInput struct {
	FullName     *string
	Faculty      *string
	Department   *string
	Phone        *string
	ProfileImage *string
	IDExpiration *time.Time
}

type UserService interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, input UserUpdateInput) (*models.User, error)
	// SetStatus moves the account between active, blocked and closed.
	SetStatus(ctx context.Context, id, status string) (*models.User, error)
	// SetRole promotes or demotes an account.
	SetRole(ctx context.Context, id, role string) (*models.User, error)
}

type userService struct {
	repos  repository.Repositories
	logger *slog.Logger
}

func NewUserService(repos repository.Repositories, logger *slog.Logger) UserService {
	return &userService{repos: repos, logger: logger}
}

func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.repos.Users.List(ctx)
}

func (s *userService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repos.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id string, input UserUpdateInput) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Faculty != nil {
		user.Faculty = *input.Faculty
	}
	if input.Department != nil {
		user.Department = *input.Department
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.ProfileImage != nil {
		user.ProfileImage = *input.ProfileImage
	}
	if input.IDExpiration != nil {
		user.IDExpiration = *input.IDExpiration
	}

	if err := s.repos.Users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) SetStatus(ctx context.Context, id, status string) (*models.User, error) {
	switch status {
	case models.UserStatusActive, models.UserStatusBlocked, models.UserStatusClosed:
	default:
		return nil, errors.New("invalid status: " + status)
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Status = status
	if err := s.repos.Users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user status changed", "user_id", id, "status", status)
	return user, nil
}

func (s *userService) SetRole(ctx context.Context, id, role string) (*models.User, error) {
	switch strings.ToLower(role) {
	case models.RoleStudent, models.RoleLibrarian, models.RoleAdmin:
	default:
		return nil, errors.New("invalid role: " + role)
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Role = strings.ToLower(role)
	if err := s.repos.Users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user role changed", "user_id", id, "role", user.Role)
	return user, nil
}
