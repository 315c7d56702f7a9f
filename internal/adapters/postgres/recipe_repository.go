package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kitchenlog/recipebox/internal/platform/postgres"
	"github.com/kitchenlog/recipebox/internal/recipes/domain"
	"github.com/kitchenlog/recipebox/internal/recipes/ports"
)

// recipeColumns are the recipe projection shared by FindByID and List. The
// price cast keeps the NUMERIC(5,2) column as the already-normalized string
// the domain carries.
var recipeColumns = []string{
	"r.id", "r.user_id", "r.title", "r.description",
	"r.time_minutes", "r.price::text", "r.link", "r.image", "r.created_at",
}

// RecipeRepository implements ports.RecipeRepository using PostgreSQL.
type RecipeRepository struct {
	postgres.BaseRepository
}

// NewRecipeRepository creates a new PostgreSQL recipe repository.
func NewRecipeRepository(db *pgxpool.Pool) *RecipeRepository {
	return &RecipeRepository{
		BaseRepository: postgres.NewBaseRepository(db),
	}
}

// WithTx creates a repository instance bound to the provided transaction.
func (r *RecipeRepository) WithTx(tx pgx.Tx) ports.RecipeRepository {
	return &RecipeRepository{
		BaseRepository: r.BaseRepository.WithTx(tx),
	}
}

// Create inserts the recipe and fills in its generated ID.
func (r *RecipeRepository) Create(ctx context.Context, recipe *domain.Recipe) error {
	createdAt := pgtype.Timestamptz{Time: recipe.CreatedAt, Valid: true}

	query, args, err := r.SB.
		Insert("recipes").
		Columns("user_id", "title", "description", "time_minutes", "price", "link", "image", "created_at").
		Values(recipe.UserID, recipe.Title, recipe.Description, recipe.TimeMinutes, recipe.Price, recipe.Link, recipe.Image, createdAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("RecipeRepository.Create: build query: %w", err)
	}

	if err := r.DB.QueryRow(ctx, query, args...).Scan(&recipe.ID); err != nil {
		return fmt.Errorf("RecipeRepository.Create: %w", err)
	}

	return nil
}

// Update writes the mutable recipe fields, scoped by (id, owner).
func (r *RecipeRepository) Update(ctx context.Context, recipe *domain.Recipe) error {
	query, args, err := r.SB.
		Update("recipes").
		Set("title", recipe.Title).
		Set("description", recipe.Description).
		Set("time_minutes", recipe.TimeMinutes).
		Set("price", recipe.Price).
		Set("link", recipe.Link).
		Where(sq.Eq{"id": recipe.ID, "user_id": recipe.UserID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("RecipeRepository.Update: build query: %w", err)
	}

	result, err := r.DB.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("RecipeRepository.Update: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrRecipeNotFound
	}

	return nil
}

// Delete removes one of the owner's recipes; join table rows cascade.
func (r *RecipeRepository) Delete(ctx context.Context, id, userID int64) error {
	query, args, err := r.SB.
		Delete("recipes").
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("RecipeRepository.Delete: build query: %w", err)
	}

	result, err := r.DB.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("RecipeRepository.Delete: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrRecipeNotFound
	}

	return nil
}

// FindByID loads one of the owner's recipes together with its tags and
// ingredients.
func (r *RecipeRepository) FindByID(ctx context.Context, id, userID int64) (*domain.Recipe, error) {
	query, args, err := r.SB.
		Select(recipeColumns...).
		From("recipes r").
		Where(sq.Eq{"r.id": id, "r.user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("RecipeRepository.FindByID: build query: %w", err)
	}

	recipe, err := r.scanRecipe(r.DB.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("RecipeRepository.FindByID: %w", err)
	}

	if err := r.loadAttributes(ctx, []*domain.Recipe{recipe}); err != nil {
		return nil, fmt.Errorf("RecipeRepository.FindByID: %w", err)
	}

	return recipe, nil
}

// List returns the owner's recipes matching the filter, newest first. ID
// filters join through the association tables; DISTINCT collapses the row
// fan-out a multi-valued join produces.
func (r *RecipeRepository) List(ctx context.Context, userID int64, filter ports.RecipeFilter) ([]*domain.Recipe, error) {
	qb := r.SB.
		Select(recipeColumns...).
		From("recipes r").
		Where(sq.Eq{"r.user_id": userID}).
		OrderBy("r.id DESC")

	if len(filter.TagIDs) > 0 {
		qb = qb.Join("recipe_tags rt ON rt.recipe_id = r.id").
			Where(sq.Eq{"rt.tag_id": filter.TagIDs})
	}
	if len(filter.IngredientIDs) > 0 {
		qb = qb.Join("recipe_ingredients ri ON ri.recipe_id = r.id").
			Where(sq.Eq{"ri.ingredient_id": filter.IngredientIDs})
	}
	if len(filter.TagIDs) > 0 || len(filter.IngredientIDs) > 0 {
		qb = qb.Distinct()
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("RecipeRepository.List: build query: %w", err)
	}

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("RecipeRepository.List: %w", err)
	}
	defer rows.Close()

	var recipes []*domain.Recipe
	for rows.Next() {
		recipe, err := r.scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("RecipeRepository.List: scan: %w", err)
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("RecipeRepository.List: rows error: %w", err)
	}

	if err := r.loadAttributes(ctx, recipes); err != nil {
		return nil, fmt.Errorf("RecipeRepository.List: %w", err)
	}

	return recipes, nil
}

// UpdateImage sets the image storage key, scoped by (id, owner).
func (r *RecipeRepository) UpdateImage(ctx context.Context, id, userID int64, image string) error {
	query, args, err := r.SB.
		Update("recipes").
		Set("image", image).
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("RecipeRepository.UpdateImage: build query: %w", err)
	}

	result, err := r.DB.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("RecipeRepository.UpdateImage: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrRecipeNotFound
	}

	return nil
}

func (r *RecipeRepository) scanRecipe(row pgx.Row) (*domain.Recipe, error) {
	var (
		recipe    domain.Recipe
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(
		&recipe.ID, &recipe.UserID, &recipe.Title, &recipe.Description,
		&recipe.TimeMinutes, &recipe.Price, &recipe.Link, &recipe.Image, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	recipe.CreatedAt = createdAt.Time
	recipe.Tags = []*domain.Attribute{}
	recipe.Ingredients = []*domain.Attribute{}

	return &recipe, nil
}

// loadAttributes fills Tags and Ingredients for the given recipes with one
// query per kind, batched over the whole recipe set.
func (r *RecipeRepository) loadAttributes(ctx context.Context, recipes []*domain.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	ids := make([]int64, len(recipes))
	byID := make(map[int64]*domain.Recipe, len(recipes))
	for i, recipe := range recipes {
		ids[i] = recipe.ID
		byID[recipe.ID] = recipe
	}

	batch := &pgx.Batch{}
	kinds := []domain.Kind{domain.KindTag, domain.KindIngredient}
	for _, kind := range kinds {
		t := tablesByKind[kind]
		query, args, err := r.SB.
			Select("j.recipe_id", "a.id", "a.user_id", "a.name").
			From(t.table + " a").
			Join(fmt.Sprintf("%s j ON j.%s = a.id", t.join, t.fk)).
			Where(sq.Eq{"j.recipe_id": ids}).
			OrderBy("a.name DESC", "a.id DESC").
			ToSql()
		if err != nil {
			return fmt.Errorf("loadAttributes: build query: %w", err)
		}
		batch.Queue(query, args...)
	}

	results := r.DB.SendBatch(ctx, batch)
	defer results.Close()

	for _, kind := range kinds {
		rows, err := results.Query()
		if err != nil {
			return fmt.Errorf("loadAttributes: %w", err)
		}

		for rows.Next() {
			var (
				recipeID int64
				attr     domain.Attribute
			)
			if err := rows.Scan(&recipeID, &attr.ID, &attr.UserID, &attr.Name); err != nil {
				rows.Close()
				return fmt.Errorf("loadAttributes: scan: %w", err)
			}

			recipe := byID[recipeID]
			switch kind {
			case domain.KindTag:
				recipe.Tags = append(recipe.Tags, &attr)
			case domain.KindIngredient:
				recipe.Ingredients = append(recipe.Ingredients, &attr)
			}
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("loadAttributes: rows error: %w", err)
		}
		rows.Close()
	}

	return nil
}

var _ ports.RecipeRepository = (*RecipeRepository)(nil)
