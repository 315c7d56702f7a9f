package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kitchenlog/recipebox/internal/platform/postgres"
	"github.com/kitchenlog/recipebox/internal/users/domain"
	"github.com/kitchenlog/recipebox/internal/users/ports"
)

const uniqueViolation = "23505"

// UserRepository implements ports.UserRepository using PostgreSQL.
type UserRepository struct {
	postgres.BaseRepository
}

// NewUserRepository creates a new PostgreSQL users repository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		BaseRepository: postgres.NewBaseRepository(db),
	}
}

// Create inserts a new user and assigns its generated ID.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query, args, err := r.SB.
		Insert("users").
		Columns("email", "name", "password_hash", "is_active", "is_staff", "is_superuser", "created_at").
		Values(
			user.Email,
			user.Name,
			user.PasswordHash,
			user.IsActive,
			user.IsStaff,
			user.IsSuperuser,
			pgtype.Timestamptz{Time: user.CreatedAt, Valid: true},
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("UserRepository.Create: build query: %w", err)
	}

	if err := r.DB.QueryRow(ctx, query, args...).Scan(&user.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ports.ErrEmailTaken
		}
		return fmt.Errorf("UserRepository.Create: %w", err)
	}

	return nil
}

// FindByID retrieves a user by primary key.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, sq.Eq{"id": id})
}

// FindByEmail retrieves a user by email, exactly as stored.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, sq.Eq{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, pred sq.Eq) (*domain.User, error) {
	query, args, err := r.SB.
		Select("id", "email", "name", "password_hash", "is_active", "is_staff", "is_superuser", "created_at").
		From("users").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("UserRepository.findOne: build query: %w", err)
	}

	var user domain.User
	err = r.DB.QueryRow(ctx, query, args...).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.IsActive,
		&user.IsStaff,
		&user.IsSuperuser,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrUserNotFound
		}
		return nil, fmt.Errorf("UserRepository.findOne: %w", err)
	}

	return &user, nil
}

// Update writes the mutable user fields.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	query, args, err := r.SB.
		Update("users").
		Set("name", user.Name).
		Set("password_hash", user.PasswordHash).
		Set("is_active", user.IsActive).
		Set("is_staff", user.IsStaff).
		Set("is_superuser", user.IsSuperuser).
		Where(sq.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("UserRepository.Update: build query: %w", err)
	}

	result, err := r.DB.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("UserRepository.Update: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrUserNotFound
	}

	return nil
}

// Delete removes a user. Owned tags, ingredients and recipes go with it via
// the schema's ON DELETE CASCADE.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.SB.
		Delete("users").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("UserRepository.Delete: build query: %w", err)
	}

	result, err := r.DB.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("UserRepository.Delete: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrUserNotFound
	}

	return nil
}

var _ ports.UserRepository = (*UserRepository)(nil)
