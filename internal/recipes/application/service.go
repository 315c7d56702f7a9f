package application

import (
	"context"
	"errors"
	"fmt"
	"html"
	"image"
	"io"
	"net/http"
	"strings"

	// Register decoders for upload validation.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/jackc/pgx/v5"
	"github.com/microcosm-cc/bluemonday"

	"github.com/kitchenlog/recipebox/internal/platform/apperror"
	"github.com/kitchenlog/recipebox/internal/platform/logger"
	"github.com/kitchenlog/recipebox/internal/platform/postgres"
	"github.com/kitchenlog/recipebox/internal/platform/storage"
	"github.com/kitchenlog/recipebox/internal/recipes/domain"
	"github.com/kitchenlog/recipebox/internal/recipes/ports"
)

var (
	ErrRecipeNotFound = apperror.New(
		apperror.CodeNotFound,
		apperror.BusinessCodeRecipeNotFound,
		"recipe not found",
		http.StatusNotFound,
	)

	ErrInvalidRecipeData = apperror.New(
		apperror.CodeValidationFailed,
		apperror.BusinessCodeInvalidFormat,
		"invalid recipe data",
		http.StatusBadRequest,
	)

	ErrInvalidImage = apperror.New(
		apperror.CodeValidationFailed,
		apperror.BusinessCodeInvalidImage,
		"uploaded file is not a valid image",
		http.StatusBadRequest,
	)
)

// CreateRecipeParams contains parameters for creating a recipe. Omitted
// tag/ingredient lists default to empty.
type CreateRecipeParams struct {
	Title       string
	Description string
	TimeMinutes int
	Price       string
	Link        string
	Tags        []domain.AttributeSpec
	Ingredients []domain.AttributeSpec
}

// UpdateRecipeParams contains the writable recipe fields. A nil field is
// absent and leaves the current value untouched. A nil spec slice leaves the
// associations untouched; a present (possibly empty) slice replaces them.
type UpdateRecipeParams struct {
	Title       *string
	Description *string
	TimeMinutes *int
	Price       *string
	Link        *string
	Tags        []domain.AttributeSpec
	Ingredients []domain.AttributeSpec
}

// RecipesService handles recipe CRUD, tag/ingredient reconciliation and
// image upload.
type RecipesService struct {
	recipes   ports.RecipeRepository
	attrs     ports.AttributeRepository
	tx        postgres.TransactionManager
	blobs     storage.Store
	paths     *storage.PathGenerator
	logger    logger.Logger
	sanitizer *bluemonday.Policy
}

// NewRecipesService creates a new recipes service.
func NewRecipesService(
	recipes ports.RecipeRepository,
	attrs ports.AttributeRepository,
	tx postgres.TransactionManager,
	blobs storage.Store,
	paths *storage.PathGenerator,
	logger logger.Logger,
) *RecipesService {
	return &RecipesService{
		recipes:   recipes,
		attrs:     attrs,
		tx:        tx,
		blobs:     blobs,
		paths:     paths,
		logger:    logger,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Create persists a recipe and reconciles its tag/ingredient specs in a
// single transaction. A reconciliation failure rolls the recipe row back.
func (s *RecipesService) Create(ctx context.Context, userID int64, params CreateRecipeParams) (*domain.Recipe, error) {
	if err := validateSpecs("tags", params.Tags); err != nil {
		return nil, err
	}
	if err := validateSpecs("ingredients", params.Ingredients); err != nil {
		return nil, err
	}

	recipe, err := domain.NewRecipe(
		userID,
		params.Title,
		s.cleanDescription(params.Description),
		params.TimeMinutes,
		params.Price,
		params.Link,
	)
	if err != nil {
		return nil, ErrInvalidRecipeData.WithDetails(err.Error())
	}

	err = postgres.RunInTx(ctx, s.tx, func(tx pgx.Tx) error {
		if err := s.recipes.WithTx(tx).Create(ctx, recipe); err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}

		tags, err := s.reconcile(ctx, tx, recipe, domain.KindTag, params.Tags)
		if err != nil {
			return err
		}
		ingredients, err := s.reconcile(ctx, tx, recipe, domain.KindIngredient, params.Ingredients)
		if err != nil {
			return err
		}

		recipe.Tags = tags
		recipe.Ingredients = ingredients
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "failed to create recipe", "error", err, "user_id", userID)
		return nil, apperror.Wrap(err, apperror.CodeInternalError, apperror.BusinessCodeGeneral,
			"failed to create recipe", http.StatusInternalServerError)
	}

	return recipe, nil
}

// Update applies the present fields and, for each present spec list, replaces
// the associations of that kind. The whole write is one transaction.
func (s *RecipesService) Update(ctx context.Context, userID, recipeID int64, params UpdateRecipeParams) (*domain.Recipe, error) {
	if err := validateSpecs("tags", params.Tags); err != nil {
		return nil, err
	}
	if err := validateSpecs("ingredients", params.Ingredients); err != nil {
		return nil, err
	}

	var recipe *domain.Recipe
	err := postgres.RunInTx(ctx, s.tx, func(tx pgx.Tx) error {
		rrepo := s.recipes.WithTx(tx)

		var err error
		recipe, err = rrepo.FindByID(ctx, recipeID, userID)
		if err != nil {
			return err
		}

		if err := s.applyFieldUpdates(recipe, params); err != nil {
			return err
		}

		if err := rrepo.Update(ctx, recipe); err != nil {
			return fmt.Errorf("update recipe: %w", err)
		}

		// Present spec list means replace: clear then reconcile, so an empty
		// list ends with zero associations. Nil means the field was absent.
		if params.Tags != nil {
			if err := s.attrs.WithTx(tx).Clear(ctx, domain.KindTag, recipe.ID); err != nil {
				return fmt.Errorf("clear tags: %w", err)
			}
			tags, err := s.reconcile(ctx, tx, recipe, domain.KindTag, params.Tags)
			if err != nil {
				return err
			}
			recipe.Tags = tags
		}
		if params.Ingredients != nil {
			if err := s.attrs.WithTx(tx).Clear(ctx, domain.KindIngredient, recipe.ID); err != nil {
				return fmt.Errorf("clear ingredients: %w", err)
			}
			ingredients, err := s.reconcile(ctx, tx, recipe, domain.KindIngredient, params.Ingredients)
			if err != nil {
				return err
			}
			recipe.Ingredients = ingredients
		}

		return nil
	})
	if err != nil {
		var appErr *apperror.AppError
		switch {
		case errors.Is(err, ports.ErrRecipeNotFound):
			return nil, ErrRecipeNotFound
		case errors.As(err, &appErr):
			return nil, appErr
		default:
			s.logger.Error(ctx, "failed to update recipe", "error", err, "recipe_id", recipeID, "user_id", userID)
			return nil, apperror.Wrap(err, apperror.CodeInternalError, apperror.BusinessCodeGeneral,
				"failed to update recipe", http.StatusInternalServerError)
		}
	}

	return recipe, nil
}

// Get returns one of the owner's recipes with its associations.
func (s *RecipesService) Get(ctx context.Context, userID, recipeID int64) (*domain.Recipe, error) {
	recipe, err := s.recipes.FindByID(ctx, recipeID, userID)
	if err != nil {
		if errors.Is(err, ports.ErrRecipeNotFound) {
			return nil, ErrRecipeNotFound
		}
		s.logger.Error(ctx, "failed to load recipe", "error", err, "recipe_id", recipeID, "user_id", userID)
		return nil, apperror.Wrap(err, apperror.CodeInternalError, apperror.BusinessCodeGeneral,
			"failed to load recipe", http.StatusInternalServerError)
	}
	return recipe, nil
}

// List returns the owner's recipes matching the filter, newest first.
func (s *RecipesService) List(ctx context.Context, userID int64, filter ports.RecipeFilter) ([]*domain.Recipe, error) {
	recipes, err := s.recipes.List(ctx, userID, filter)
	if err != nil {
		s.logger.Error(ctx, "failed to list recipes", "error", err, "user_id", userID)
		return nil, apperror.Wrap(err, apperror.CodeInternalError, apperror.BusinessCodeGeneral,
			"failed to list recipes", http.StatusInternalServerError)
	}
	return recipes, nil
}

// Delete removes one of the owner's recipes. A foreign or missing recipe is
// the same not-found error.
func (s *RecipesService) Delete(ctx context.Context, userID, recipeID int64) error {
	if err := s.recipes.Delete(ctx, recipeID, userID); err != nil {
		if errors.Is(err, ports.ErrRecipeNotFound) {
			return ErrRecipeNotFound
		}
		s.logger.Error(ctx, "failed to delete recipe", "error", err, "recipe_id", recipeID, "user_id", userID)
		return apperror.Wrap(err, apperror.CodeInternalError, apperror.BusinessCodeGeneral,
			"failed to delete recipe", http.StatusInternalServerError)
	}
	return nil
}

// UploadImage validates the upload, stores it under a fresh key and points
// the recipe at it. The previous blob, if any, is removed best-effort.
func (s *RecipesService) UploadImage(ctx context.Context, userID, recipeID int64, originalFilename string, file io.ReadSeeker) (*domain.Recipe, error) {
	recipe, err := s.Get(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	if _, _, err := image.DecodeConfig(file); err != nil {
		return nil, ErrInvalidImage
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternalError, apperror.BusinessCodeGeneral,
			"failed to read upload", http.StatusInternalServerError)
	}

	key := s.paths.RecipeImagePath(originalFilename)
	if err := s.blobs.Save(ctx, key, file); err != nil {
		s.logger.Error(ctx, "failed to store image", "error", err, "recipe_id", recipeID)
		return nil, apperror.Wrap(err, apperror.CodeInternalError, apperror.BusinessCodeGeneral,
			"failed to store image", http.StatusInternalServerError)
	}

	if err := s.recipes.UpdateImage(ctx, recipeID, userID, key); err != nil {
		// The blob is orphaned if we leave it; remove it before failing.
		if rmErr := s.blobs.Remove(ctx, key); rmErr != nil {
			s.logger.Warn(ctx, "failed to remove orphaned image", "error", rmErr, "key", key)
		}
		if errors.Is(err, ports.ErrRecipeNotFound) {
			return nil, ErrRecipeNotFound
		}
		s.logger.Error(ctx, "failed to update recipe image", "error", err, "recipe_id", recipeID)
		return nil, apperror.Wrap(err, apperror.CodeInternalError, apperror.BusinessCodeGeneral,
			"failed to update recipe image", http.StatusInternalServerError)
	}

	if recipe.Image != "" && recipe.Image != key {
		if err := s.blobs.Remove(ctx, recipe.Image); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn(ctx, "failed to remove replaced image", "error", err, "key", recipe.Image)
		}
	}

	recipe.Image = key
	return recipe, nil
}

// cleanDescription strips any markup from the free-text field. The policy
// entity-escapes what survives, so the escape is undone to keep plain text
// like "mac & cheese" byte-identical through a write/read round trip.
func (s *RecipesService) cleanDescription(text string) string {
	return html.UnescapeString(s.sanitizer.Sanitize(text))
}

// reconcile resolves each spec to an existing or newly created attribute
// owned by the recipe's owner and attaches it. Attaching an already-attached
// attribute is a no-op, so duplicate names in the list collapse.
func (s *RecipesService) reconcile(ctx context.Context, tx pgx.Tx, recipe *domain.Recipe, kind domain.Kind, specs []domain.AttributeSpec) ([]*domain.Attribute, error) {
	arepo := s.attrs.WithTx(tx)

	resolved := make([]*domain.Attribute, 0, len(specs))
	seen := make(map[string]bool, len(specs))

	for _, spec := range specs {
		attr, err := arepo.GetOrCreate(ctx, recipe.UserID, kind, spec.Name)
		if err != nil {
			return nil, fmt.Errorf("get or create %s %q: %w", kind, spec.Name, err)
		}
		if err := arepo.Attach(ctx, kind, recipe.ID, attr.ID); err != nil {
			return nil, fmt.Errorf("attach %s %q: %w", kind, spec.Name, err)
		}
		if !seen[attr.Name] {
			seen[attr.Name] = true
			resolved = append(resolved, attr)
		}
	}

	return resolved, nil
}

func (s *RecipesService) applyFieldUpdates(recipe *domain.Recipe, params UpdateRecipeParams) error {
	if params.Title != nil {
		if strings.TrimSpace(*params.Title) == "" {
			return ErrInvalidRecipeData.WithDetails(map[string]any{"title": "this field may not be blank"})
		}
		recipe.Title = *params.Title
	}
	if params.Description != nil {
		recipe.Description = s.cleanDescription(*params.Description)
	}
	if params.TimeMinutes != nil {
		if *params.TimeMinutes <= 0 {
			return ErrInvalidRecipeData.WithDetails(map[string]any{"time_minutes": "must be a positive integer"})
		}
		recipe.TimeMinutes = *params.TimeMinutes
	}
	if params.Price != nil {
		price, err := domain.ParsePrice(*params.Price)
		if err != nil {
			return ErrInvalidRecipeData.WithDetails(map[string]any{"price": err.Error()})
		}
		recipe.Price = price
	}
	if params.Link != nil {
		recipe.Link = *params.Link
	}
	return nil
}

// validateSpecs rejects the whole write before reconciliation begins when
// any spec is missing a name.
func validateSpecs(field string, specs []domain.AttributeSpec) error {
	for _, spec := range specs {
		if strings.TrimSpace(spec.Name) == "" {
			return ErrInvalidRecipeData.WithDetails(map[string]any{
				field: "name may not be blank",
			})
		}
	}
	return nil
}
