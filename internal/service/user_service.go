package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/kodemy-backend/internal/model"
	"github.com/stemsi/kodemy-backend/internal/repository"
	"github.com/stemsi/kodemy-backend/internal/response"
)

// UserService manages the caller's own profile.
type UserService struct {
	users repository.UserRepository
	log   zerolog.Logger
}

func NewUserService(users repository.UserRepository, log zerolog.Logger) *UserService {
	return &UserService{
		users: users,
		log:   log.With().Str("component", "user_service").Logger(),
	}
}

func (s *UserService) GetProfile(ctx context.Context, userID int) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, userLookupError(err)
	}
	return user, nil
}

// UpdateProfile overwrites every editable field with the request's values.
// An empty fullName keeps the current name.
func (s *UserService) UpdateProfile(ctx context.Context, userID int, req model.UpdateProfileRequest) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, userLookupError(err)
	}

	if req.FullName != "" {
		user.FullName = req.FullName
	}
	user.Age = req.Age
	user.Address = req.Address
	user.Phone = req.Phone
	user.About = req.About

	if err := s.users.Update(ctx, user); err != nil {
		return nil, userLookupError(err)
	}
	return s.users.GetByID(ctx, userID)
}

func (s *UserService) DeleteAccount(ctx context.Context, userID int) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return userLookupError(err)
	}
	s.log.Info().Int("user_id", userID).Msg("Account deleted")
	return nil
}

func userLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return response.NotFound("User not found")
	}
	return fmt.Errorf("user lookup: %w", err)
}
