package postgres

import (
	"github.com/google/wire"

	recipesports "github.com/kitchenlog/recipebox/internal/recipes/ports"
	usersports "github.com/kitchenlog/recipebox/internal/users/ports"
)

// ProviderSet wires the PostgreSQL repositories to their ports.
var ProviderSet = wire.NewSet(
	NewUserRepository,
	wire.Bind(new(usersports.UserRepository), new(*UserRepository)),
	NewRecipeRepository,
	wire.Bind(new(recipesports.RecipeRepository), new(*RecipeRepository)),
	NewAttributeRepository,
	wire.Bind(new(recipesports.AttributeRepository), new(*AttributeRepository)),
)
