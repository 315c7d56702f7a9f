package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kitchenlog/recipebox/internal/platform/apperror"
	"github.com/kitchenlog/recipebox/internal/platform/logger"
	"github.com/kitchenlog/recipebox/internal/platform/security"
	"github.com/kitchenlog/recipebox/internal/users/domain"
	"github.com/kitchenlog/recipebox/internal/users/ports"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

var (
	ErrInvalidUserData = apperror.New(
		apperror.CodeValidationFailed,
		apperror.BusinessCodeInvalidFormat,
		"invalid user data",
		http.StatusBadRequest,
	)

	ErrPasswordTooShort = apperror.New(
		apperror.CodeValidationFailed,
		apperror.BusinessCodePasswordTooShort,
		fmt.Sprintf("password must be at least %d characters", MinPasswordLength),
		http.StatusBadRequest,
	)

	ErrEmailTaken = apperror.New(
		apperror.CodeValidationFailed,
		apperror.BusinessCodeEmailTaken,
		"user with this email already exists",
		http.StatusBadRequest,
	)

	ErrInvalidCredentials = apperror.New(
		apperror.CodeValidationFailed,
		apperror.BusinessCodeInvalidCredentials,
		"unable to authenticate with provided credentials",
		http.StatusBadRequest,
	)

	ErrUserNotFound = apperror.New(
		apperror.CodeNotFound,
		apperror.BusinessCodeUserNotFound,
		"user not found",
		http.StatusNotFound,
	)
)

// RegisterParams contains all parameters needed to create a new user.
type RegisterParams struct {
	Email    string
	Name     string
	Password string
}

// UpdateProfileParams contains the mutable profile fields. A nil field is
// left untouched.
type UpdateProfileParams struct {
	Name     *string
	Password *string
}

// UserService handles account registration, authentication and profile
// management.
type UserService struct {
	repo   ports.UserRepository
	hasher security.PasswordHasher
	logger logger.Logger
}

// NewUserService creates a new users service.
func NewUserService(repo ports.UserRepository, hasher security.PasswordHasher, logger logger.Logger) *UserService {
	return &UserService{
		repo:   repo,
		hasher: hasher,
		logger: logger,
	}
}

// Register creates a regular user with a hashed credential.
func (s *UserService) Register(ctx context.Context, params RegisterParams) (*domain.User, error) {
	return s.create(ctx, params, domain.NewUser)
}

// RegisterSuperuser creates a user with staff and superuser flags set.
func (s *UserService) RegisterSuperuser(ctx context.Context, params RegisterParams) (*domain.User, error) {
	return s.create(ctx, params, domain.NewSuperuser)
}

func (s *UserService) create(ctx context.Context, params RegisterParams, factory func(email, name string) (*domain.User, error)) (*domain.User, error) {
	if params.Name == "" {
		return nil, ErrInvalidUserData.WithDetails(map[string]any{"name": "this field is required"})
	}
	if len(params.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort.WithDetails(map[string]any{
			"password": fmt.Sprintf("ensure this field has at least %d characters", MinPasswordLength),
		})
	}

	user, err := factory(params.Email, params.Name)
	if err != nil {
		return nil, ErrInvalidUserData.WithDetails(map[string]any{"email": err.Error()})
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		s.logger.Error(ctx, "failed to hash password", "error", err)
		return nil, apperror.Wrap(err, apperror.CodeInternalError, apperror.BusinessCodeGeneral,
			"failed to create user", http.StatusInternalServerError)
	}
	user.PasswordHash = hash

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ports.ErrEmailTaken) {
			return nil, ErrEmailTaken.WithDetails(map[string]any{"email": "user with this email already exists"})
		}
		s.logger.Error(ctx, "failed to create user", "error", err)
		return nil, apperror.Wrap(err, apperror.CodeInternalError, apperror.BusinessCodeGeneral,
			"failed to create user", http.StatusInternalServerError)
	}

	return user, nil
}

// Authenticate verifies email and password and returns the matching user.
// A blank password fails without touching the store.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error(ctx, "failed to look up user", "error", err)
		return nil, apperror.Wrap(err, apperror.CodeInternalError, apperror.BusinessCodeGeneral,
			"authentication failed", http.StatusInternalServerError)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.logger.Error(ctx, "failed to verify password", "error", err, "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetByID returns a user by primary key.
func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error(ctx, "failed to find user", "error", err, "user_id", id)
		return nil, apperror.Wrap(err, apperror.CodeInternalError, apperror.BusinessCodeGeneral,
			"failed to find user", http.StatusInternalServerError)
	}
	return user, nil
}

// UpdateProfile applies the present fields to the user's profile. A present
// password is re-hashed; the email is never touched.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, params UpdateProfileParams) (*domain.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		if *params.Name == "" {
			return nil, ErrInvalidUserData.WithDetails(map[string]any{"name": "this field may not be blank"})
		}
		user.Name = *params.Name
	}

	if params.Password != nil {
		if len(*params.Password) < MinPasswordLength {
			return nil, ErrPasswordTooShort.WithDetails(map[string]any{
				"password": fmt.Sprintf("ensure this field has at least %d characters", MinPasswordLength),
			})
		}
		hash, err := s.hasher.Hash(*params.Password)
		if err != nil {
			s.logger.Error(ctx, "failed to hash password", "error", err, "user_id", userID)
			return nil, apperror.Wrap(err, apperror.CodeInternalError, apperror.BusinessCodeGeneral,
				"failed to update user", http.StatusInternalServerError)
		}
		user.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, user); err != nil {
		s.logger.Error(ctx, "failed to update user", "error", err, "user_id", userID)
		return nil, apperror.Wrap(err, apperror.CodeInternalError, apperror.BusinessCodeGeneral,
			"failed to update user", http.StatusInternalServerError)
	}

	return user, nil
}
