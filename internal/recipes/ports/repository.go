package ports

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/kitchenlog/recipebox/internal/recipes/domain"
)

var (
	// ErrRecipeNotFound covers both a missing recipe and a recipe owned by
	// someone else; the two are indistinguishable above the store.
	ErrRecipeNotFound = errors.New("recipe not found")
	// ErrAttributeNotFound is the tag/ingredient equivalent.
	ErrAttributeNotFound = errors.New("attribute not found")
	// ErrAttributeNameTaken reports a rename colliding with another of the
	// owner's attributes of the same kind.
	ErrAttributeNameTaken = errors.New("attribute name already in use")
)

// RecipeFilter narrows a recipe listing. An empty ID slice means the filter
// is absent. Within a slice the match is any-of; between the two slices the
// predicates combine with AND.
type RecipeFilter struct {
	TagIDs        []int64
	IngredientIDs []int64
}

// RecipeRepository persists recipes. Every read and write is scoped by
// owner; no method can reach another user's rows.
type RecipeRepository interface {
	// WithTx returns a repository bound to the given transaction.
	WithTx(tx pgx.Tx) RecipeRepository
	Create(ctx context.Context, recipe *domain.Recipe) error
	// Update writes the mutable recipe fields, scoped by (id, owner).
	Update(ctx context.Context, recipe *domain.Recipe) error
	Delete(ctx context.Context, id, userID int64) error
	// FindByID loads the recipe with its tags and ingredients.
	FindByID(ctx context.Context, id, userID int64) (*domain.Recipe, error)
	// List returns the owner's recipes matching the filter, deduplicated,
	// most recently created first.
	List(ctx context.Context, userID int64, filter RecipeFilter) ([]*domain.Recipe, error)
	// UpdateImage sets the image storage key, scoped by (id, owner).
	UpdateImage(ctx context.Context, id, userID int64, image string) error
}

// AttributeRepository persists tags and ingredients, selected by kind.
type AttributeRepository interface {
	WithTx(tx pgx.Tx) AttributeRepository
	// GetOrCreate resolves (owner, name) to exactly one surviving row, safe
	// under concurrent callers creating the same name.
	GetOrCreate(ctx context.Context, userID int64, kind domain.Kind, name string) (*domain.Attribute, error)
	// Attach links an attribute to a recipe; attaching twice is a no-op.
	Attach(ctx context.Context, kind domain.Kind, recipeID, attributeID int64) error
	// Clear removes every association of this kind from the recipe.
	Clear(ctx context.Context, kind domain.Kind, recipeID int64) error
	// List returns the owner's attributes, reverse-alphabetical. With
	// assignedOnly, attributes referenced by none of the owner's recipes are
	// excluded.
	List(ctx context.Context, userID int64, kind domain.Kind, assignedOnly bool) ([]*domain.Attribute, error)
	FindByID(ctx context.Context, kind domain.Kind, id, userID int64) (*domain.Attribute, error)
	Update(ctx context.Context, kind domain.Kind, attr *domain.Attribute) error
	Delete(ctx context.Context, kind domain.Kind, id, userID int64) error
}
