package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kitchenlog/recipebox/internal/platform/postgres"
	"github.com/kitchenlog/recipebox/internal/recipes/domain"
	"github.com/kitchenlog/recipebox/internal/recipes/ports"
)

// attrTables maps an attribute kind to its table, join table and join
// foreign key column. Tags and ingredients share every query shape.
type attrTables struct {
	table string
	join  string
	fk    string
}

var tablesByKind = map[domain.Kind]attrTables{
	domain.KindTag:        {table: "tags", join: "recipe_tags", fk: "tag_id"},
	domain.KindIngredient: {table: "ingredients", join: "recipe_ingredients", fk: "ingredient_id"},
}

// AttributeRepository implements ports.AttributeRepository using PostgreSQL.
type AttributeRepository struct {
	postgres.BaseRepository
}

// NewAttributeRepository creates a new PostgreSQL attributes repository.
func NewAttributeRepository(db *pgxpool.Pool) *AttributeRepository {
	return &AttributeRepository{
		BaseRepository: postgres.NewBaseRepository(db),
	}
}

// WithTx creates a repository instance bound to the provided transaction.
func (r *AttributeRepository) WithTx(tx pgx.Tx) ports.AttributeRepository {
	return &AttributeRepository{
		BaseRepository: r.BaseRepository.WithTx(tx),
	}
}

// GetOrCreate resolves (owner, name) to exactly one row. The insert defers
// to the UNIQUE(user_id, name) index on conflict, so two concurrent creators
// of the same name converge on a single surviving row; the loser's follow-up
// select reads the winner.
func (r *AttributeRepository) GetOrCreate(ctx context.Context, userID int64, kind domain.Kind, name string) (*domain.Attribute, error) {
	t := tablesByKind[kind]

	query, args, err := r.SB.
		Insert(t.table).
		Columns("user_id", "name").
		Values(userID, name).
		Suffix("ON CONFLICT (user_id, name) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("AttributeRepository.GetOrCreate: build insert: %w", err)
	}

	attr := &domain.Attribute{UserID: userID, Name: name}
	err = r.DB.QueryRow(ctx, query, args...).Scan(&attr.ID)
	if err == nil {
		return attr, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("AttributeRepository.GetOrCreate: insert: %w", err)
	}

	// Conflict swallowed the insert: the row already exists, fetch it.
	query, args, err = r.SB.
		Select("id").
		From(t.table).
		Where(sq.Eq{"user_id": userID, "name": name}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("AttributeRepository.GetOrCreate: build select: %w", err)
	}

	if err := r.DB.QueryRow(ctx, query, args...).Scan(&attr.ID); err != nil {
		return nil, fmt.Errorf("AttributeRepository.GetOrCreate: select: %w", err)
	}

	return attr, nil
}

// Attach links an attribute to a recipe. Re-attaching is a no-op via the
// join table's primary key conflict.
func (r *AttributeRepository) Attach(ctx context.Context, kind domain.Kind, recipeID, attributeID int64) error {
	t := tablesByKind[kind]

	query, args, err := r.SB.
		Insert(t.join).
		Columns("recipe_id", t.fk).
		Values(recipeID, attributeID).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("AttributeRepository.Attach: build query: %w", err)
	}

	if _, err := r.DB.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("AttributeRepository.Attach: %w", err)
	}

	return nil
}

// Clear removes every association of this kind from the recipe.
func (r *AttributeRepository) Clear(ctx context.Context, kind domain.Kind, recipeID int64) error {
	t := tablesByKind[kind]

	query, args, err := r.SB.
		Delete(t.join).
		Where(sq.Eq{"recipe_id": recipeID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("AttributeRepository.Clear: build query: %w", err)
	}

	if _, err := r.DB.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("AttributeRepository.Clear: %w", err)
	}

	return nil
}

// List returns the owner's attributes, reverse-alphabetical. With
// assignedOnly the join restricts to attributes referenced by at least one
// recipe, and DISTINCT collapses attributes shared by several recipes.
func (r *AttributeRepository) List(ctx context.Context, userID int64, kind domain.Kind, assignedOnly bool) ([]*domain.Attribute, error) {
	t := tablesByKind[kind]

	qb := r.SB.
		Select("a.id", "a.user_id", "a.name").
		From(t.table + " a").
		Where(sq.Eq{"a.user_id": userID}).
		OrderBy("a.name DESC", "a.id DESC")

	if assignedOnly {
		qb = qb.Distinct().Join(fmt.Sprintf("%s j ON j.%s = a.id", t.join, t.fk))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("AttributeRepository.List: build query: %w", err)
	}

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("AttributeRepository.List: %w", err)
	}
	defer rows.Close()

	var attrs []*domain.Attribute
	for rows.Next() {
		var attr domain.Attribute
		if err := rows.Scan(&attr.ID, &attr.UserID, &attr.Name); err != nil {
			return nil, fmt.Errorf("AttributeRepository.List: scan: %w", err)
		}
		attrs = append(attrs, &attr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("AttributeRepository.List: rows error: %w", err)
	}

	return attrs, nil
}

// FindByID retrieves one of the owner's attributes.
func (r *AttributeRepository) FindByID(ctx context.Context, kind domain.Kind, id, userID int64) (*domain.Attribute, error) {
	t := tablesByKind[kind]

	query, args, err := r.SB.
		Select("id", "user_id", "name").
		From(t.table).
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("AttributeRepository.FindByID: build query: %w", err)
	}

	var attr domain.Attribute
	if err := r.DB.QueryRow(ctx, query, args...).Scan(&attr.ID, &attr.UserID, &attr.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrAttributeNotFound
		}
		return nil, fmt.Errorf("AttributeRepository.FindByID: %w", err)
	}

	return &attr, nil
}

// Update writes the attribute name, scoped by owner.
func (r *AttributeRepository) Update(ctx context.Context, kind domain.Kind, attr *domain.Attribute) error {
	t := tablesByKind[kind]

	query, args, err := r.SB.
		Update(t.table).
		Set("name", attr.Name).
		Where(sq.Eq{"id": attr.ID, "user_id": attr.UserID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("AttributeRepository.Update: build query: %w", err)
	}

	result, err := r.DB.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ports.ErrAttributeNameTaken
		}
		return fmt.Errorf("AttributeRepository.Update: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrAttributeNotFound
	}

	return nil
}

// Delete removes one of the owner's attributes; its recipe associations go
// with it via cascade.
func (r *AttributeRepository) Delete(ctx context.Context, kind domain.Kind, id, userID int64) error {
	t := tablesByKind[kind]

	query, args, err := r.SB.
		Delete(t.table).
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("AttributeRepository.Delete: build query: %w", err)
	}

	result, err := r.DB.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("AttributeRepository.Delete: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrAttributeNotFound
	}

	return nil
}

var _ ports.AttributeRepository = (*AttributeRepository)(nil)
