package middleware

import (
	"github.com/google/wire"

	"github.com/kitchenlog/recipebox/internal/users/application"
)

// ProviderSet is the wire provider set for middleware components
var ProviderSet = wire.NewSet(
	NewAuthMiddleware,
	wire.Bind(new(UserLoader), new(*application.UserService)),
)
