package application

import (
	"github.com/google/wire"
)

// ProviderSet is the wire provider set for the recipes application layer.
var ProviderSet = wire.NewSet(
	NewRecipesService,
	NewAttributesService,
)
