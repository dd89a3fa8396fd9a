package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/bookmark-api/internal/apperror"
	"github.com/sakif/bookmark-api/internal/auth"
	"github.com/sakif/bookmark-api/internal/metrics"
	"github.com/sakif/bookmark-api/internal/model"
	"github.com/sakif/bookmark-api/internal/repository"
)

// AuthService is the business logic behind the identity boundary:
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                                 ↘ TokenService (JWT), PasswordService (bcrypt)
//
// It never touches HTTP. Handlers decode requests and validate shapes;
// AuthService decides whether the credentials are good and issues tokens.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// Signup creates an account and returns an access token for it.
// A second account with the same email is rejected with
// apperror.ErrForbidden ("Credentials taken").
func (s *AuthService) Signup(ctx context.Context, email, password string) (string, error) {
	hash, err := s.passwords.Hash(password)
	if err != nil {
		s.recordAttempt("signup", metrics.OutcomeInvalid)
		return "", apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{Email: email, Hash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			s.recordAttempt("signup", metrics.OutcomeDenied)
			return "", apperror.Forbidden(CredentialsTakenMessage)
		}
		s.recordAttempt("signup", metrics.OutcomeError)
		return "", fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.recordAttempt("signup", metrics.OutcomeOK)
	s.logger.Info("user signed up", slog.Int64("userID", user.ID))

	return s.issue(user)
}

// Signin checks the credentials and returns a fresh access token.
//
// An unknown email and a wrong password produce the same error, so the
// response does not reveal which accounts exist.
func (s *AuthService) Signin(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.recordAttempt("signin", metrics.OutcomeDenied)
			return "", apperror.Forbidden(CredentialsIncorrectMessage)
		}
		s.recordAttempt("signin", metrics.OutcomeError)
		return "", fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.Hash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.recordAttempt("signin", metrics.OutcomeDenied)
			s.logger.Warn("signin rejected", slog.Int64("userID", user.ID))
			return "", apperror.Forbidden(CredentialsIncorrectMessage)
		}
		s.recordAttempt("signin", metrics.OutcomeError)
		return "", fmt.Errorf("service/auth: verifying password for user %d: %w", user.ID, err)
	}

	s.recordAttempt("signin", metrics.OutcomeOK)
	return s.issue(user)
}

// LoginWithGitHub signs in the account whose email matches the GitHub
// user's primary verified email, creating it on first login. Accounts created
// this way get a random password hash, so they can only sign in via GitHub.
func (s *AuthService) LoginWithGitHub(ctx context.Context, ghUser *auth.GitHubUser) (string, error) {
	if ghUser == nil {
		return "", fmt.Errorf("service/auth: GitHub user must not be nil")
	}
	if ghUser.Email == "" {
		s.recordAttempt("github", metrics.OutcomeInvalid)
		return "", apperror.ValidationFailed("email", "GitHub account has no verified email address")
	}

	user, err := s.users.GetByEmail(ctx, ghUser.Email)
	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrNotFound):
		user, err = s.createGitHubUser(ctx, ghUser)
		if err != nil {
			s.recordAttempt("github", metrics.OutcomeError)
			return "", err
		}
	default:
		s.recordAttempt("github", metrics.OutcomeError)
		return "", fmt.Errorf("service/auth: looking up GitHub user %q: %w", ghUser.Login, err)
	}

	s.recordAttempt("github", metrics.OutcomeOK)
	s.logger.Info("user authenticated via GitHub",
		slog.Int64("userID", user.ID),
		slog.String("login", ghUser.Login),
	)
	return s.issue(user)
}

func (s *AuthService) createGitHubUser(ctx context.Context, ghUser *auth.GitHubUser) (*model.User, error) {
	hash, err := s.passwords.HashRandom()
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{Email: ghUser.Email, Hash: hash}
	err = s.users.Create(ctx, user)
	if errors.Is(err, apperror.ErrConflict) {
		// Lost a race with a concurrent first login for the same email.
		return s.users.GetByEmail(ctx, ghUser.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: creating GitHub user %q: %w", ghUser.Login, err)
	}
	return user, nil
}

// Authenticate resolves a bearer token to the caller's identity. It has the
// shape of auth.TokenValidator once wrapped in auth.ValidatorFunc.
func (s *AuthService) Authenticate(token string) (auth.Identity, error) {
	id, err := s.tokens.Validate(token)
	if err != nil {
		return auth.Identity{}, apperror.Unauthorized(err.Error())
	}
	return id, nil
}

func (s *AuthService) issue(user *model.User) (string, error) {
	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}
	return token, nil
}

func (s *AuthService) recordAttempt(method, outcome string) {
	metrics.AuthAttemptsTotal.WithLabelValues(method, outcome).Inc()
}
