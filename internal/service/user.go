package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/bookmark-api/internal/apperror"
	"github.com/sakif/bookmark-api/internal/model"
	"github.com/sakif/bookmark-api/internal/repository"
)

const (
	CredentialsTakenMessage     = "Credentials taken"
	CredentialsIncorrectMessage = "Credentials incorrect"
)

// UserService serves the caller's own profile.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
	}
}

// GetByID returns the account behind an authenticated request.
// A token that outlived its user yields apperror.ErrNotFound.
func (s *UserService) GetByID(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting user %d: %w", userID, err)
	}
	return u, nil
}

// Edit updates the caller's profile. Moving to an email another account
// already uses is rejected with apperror.ErrForbidden.
func (s *UserService) Edit(ctx context.Context, userID int64, patch model.UserPatch) (*model.User, error) {
	u, err := s.users.Update(ctx, userID, patch)
	if err != nil {
		switch {
		case errors.Is(err, apperror.ErrConflict):
			return nil, apperror.Forbidden(CredentialsTakenMessage)
		case errors.Is(err, apperror.ErrNotFound):
			return nil, err
		}
		s.logger.Error("failed to update user",
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating user %d: %w", userID, err)
	}

	s.logger.Info("user updated", slog.Int64("userID", userID))
	return u, nil
}
