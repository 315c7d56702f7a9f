package ports

import (
	"context"
	"errors"

	"github.com/kitchenlog/recipebox/internal/users/domain"
)

var (
	// ErrUserNotFound indicates no user matched the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken indicates the email uniqueness constraint was hit.
	ErrEmailTaken = errors.New("email already registered")
)

// UserRepository persists users. Deleting a user cascades to their tags,
// ingredients and recipes at the store level.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
}
