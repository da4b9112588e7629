package service

import (
	"context"
	"errors"

	"tussles/internal/apperror"
	"tussles/internal/model"
	"tussles/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserService resolves authenticated identities to profile rows.
type UserService interface {
	Profile(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

// Profile returns NotFound when the identity has no profile row yet.
func (s *userService) Profile(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User profile not found")
		}
		return nil, apperror.Upstream("Failed to load user profile", err)
	}
	return user, nil
}
