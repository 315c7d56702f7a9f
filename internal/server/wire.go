//go:build wireinject
// +build wireinject

package server

import (
	"context"

	"github.com/google/wire"

	"github.com/kitchenlog/recipebox/internal/adapters/auth"
	"github.com/kitchenlog/recipebox/internal/adapters/postgres"
	"github.com/kitchenlog/recipebox/internal/adapters/rest"
	"github.com/kitchenlog/recipebox/internal/adapters/rest/middleware"
	"github.com/kitchenlog/recipebox/internal/platform/logger"
	pgplatform "github.com/kitchenlog/recipebox/internal/platform/postgres"
	"github.com/kitchenlog/recipebox/internal/platform/security"
	"github.com/kitchenlog/recipebox/internal/platform/storage"
	recipesapp "github.com/kitchenlog/recipebox/internal/recipes/application"
	usersapp "github.com/kitchenlog/recipebox/internal/users/application"
)

// InitializeApp creates a fully configured App with all dependencies
func InitializeApp(ctx context.Context) (*App, func(), error) {
	wire.Build(
		// Bootstrap phase
		logger.NewBootstrapLogger,
		LoadConfig,

		// Logger configuration
		provideLoggerConfig,

		// Main logger
		logger.NewConfiguredLogger,
		wire.Bind(new(logger.Logger), new(*logger.SlogAdapter)),

		// Database
		ConnectDatabase,
		pgplatform.NewTransactionManager,

		// Password hashing
		security.NewArgon2Hasher,
		wire.Bind(new(security.PasswordHasher), new(*security.Argon2Hasher)),

		// Media storage
		provideBlobStore,
		wire.Bind(new(storage.Store), new(*storage.DiskStore)),
		storage.NewPathGenerator,

		// Repository providers (includes interface binding)
		postgres.ProviderSet,

		// Application services
		usersapp.ProviderSet,
		recipesapp.ProviderSet,

		// Token issuing and auth middleware
		provideTokenService,
		middleware.ProviderSet,

		// REST handlers
		rest.ProviderSet,

		// HTTP Server
		NewHTTPServer,

		// App
		NewApp,
	)

	return nil, nil, nil
}

// provideLoggerConfig creates logger config from server config
func provideLoggerConfig(config Config) logger.Config {
	return logger.Config{
		Environment: config.Environment,
		LogLevel:    config.LogLevel,
	}
}

// provideTokenService creates the token service from config
func provideTokenService(config Config) (*auth.TokenService, error) {
	return auth.NewTokenService([]byte(config.TokenSecret), config.TokenIssuer, config.TokenTTL)
}

// provideBlobStore creates the disk-backed media store from config
func provideBlobStore(config Config) (*storage.DiskStore, error) {
	return storage.NewDiskStore(config.MediaRoot)
}
