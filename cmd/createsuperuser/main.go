// Command createsuperuser creates an administrative account. The email and
// name come from flags; the password comes from the CREATESUPERUSER_PASSWORD
// environment variable so it never lands in shell history.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/kitchenlog/recipebox/internal/adapters/postgres"
	"github.com/kitchenlog/recipebox/internal/platform/logger"
	"github.com/kitchenlog/recipebox/internal/platform/security"
	"github.com/kitchenlog/recipebox/internal/server"
	"github.com/kitchenlog/recipebox/internal/users/application"
)

func main() {
	email := flag.String("email", "", "email address of the superuser (required)")
	name := flag.String("name", "Admin", "display name of the superuser")
	flag.Parse()

	if *email == "" {
		flag.Usage()
		os.Exit(2)
	}

	password := os.Getenv("CREATESUPERUSER_PASSWORD")
	if password == "" {
		log.Fatal("CREATESUPERUSER_PASSWORD must be set")
	}

	ctx := context.Background()

	bootstrapLogger := logger.NewBootstrapLogger()
	config, err := server.LoadConfig(bootstrapLogger)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.NewConfiguredLogger(logger.Config{
		Environment: config.Environment,
		LogLevel:    config.LogLevel,
	})

	pool, cleanup, err := server.ConnectDatabase(ctx, config, appLogger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer cleanup()

	users := application.NewUserService(
		postgres.NewUserRepository(pool),
		security.NewArgon2Hasher(),
		appLogger,
	)

	user, err := users.RegisterSuperuser(ctx, application.RegisterParams{
		Email:    *email,
		Name:     *name,
		Password: password,
	})
	if err != nil {
		log.Fatalf("Failed to create superuser: %v", err)
	}

	log.Printf("Superuser %s created with ID %d", user.Email, user.ID)
}
