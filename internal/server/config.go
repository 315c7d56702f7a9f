package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kitchenlog/recipebox/internal/platform/logger"
)

type Config struct {
	DatabaseURL   string        `mapstructure:"DATABASE_URL"`
	ServerAddress string        `mapstructure:"SERVER_ADDRESS"`
	Environment   string        `mapstructure:"ENVIRONMENT"`
	LogLevel      string        `mapstructure:"LOG_LEVEL"` // Logging level (debug, info, warn, error)
	TokenSecret   string        `mapstructure:"TOKEN_SECRET"`
	TokenIssuer   string        `mapstructure:"TOKEN_ISSUER"`
	TokenTTL      time.Duration `mapstructure:"TOKEN_TTL"`
	MediaRoot     string        `mapstructure:"MEDIA_ROOT"` // Root directory for uploaded media
}

func LoadConfig(bootstrapLogger *logger.BootstrapLogger) (Config, error) {
	ctx := context.Background()

	// Load .env file if it exists (godotenv will find it automatically)
	// It's okay if the file doesn't exist - we'll use environment variables
	if err := godotenv.Load(); err != nil {
		bootstrapLogger.Info(ctx, "no .env file found, using environment variables only")
	} else {
		bootstrapLogger.Info(ctx, "loaded .env file")
	}

	// Create a new Viper instance
	v := viper.New()

	// Set default values
	v.SetDefault("DATABASE_URL", "postgresql://localhost:5432/recipebox?sslmode=disable")
	v.SetDefault("SERVER_ADDRESS", ":8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TOKEN_ISSUER", "recipebox")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("MEDIA_ROOT", "media")

	// Enable automatic environment variable reading
	// Viper will now see all environment variables, including those loaded by godotenv
	v.AutomaticEnv()

	// Replace dots with underscores in environment variable names
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Unmarshal only walks keys viper already knows about, so a variable
	// with no default (TOKEN_SECRET) would never be read from the
	// environment without an explicit binding.
	for _, key := range []string{
		"DATABASE_URL",
		"SERVER_ADDRESS",
		"ENVIRONMENT",
		"LOG_LEVEL",
		"TOKEN_SECRET",
		"TOKEN_ISSUER",
		"TOKEN_TTL",
		"MEDIA_ROOT",
	} {
		if err := v.BindEnv(key); err != nil {
			bootstrapLogger.Error(ctx, "failed to bind environment variable", "key", key, "error", err)
			return Config{}, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	// Unmarshal the configuration into our struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		bootstrapLogger.Error(ctx, "failed to unmarshal configuration", "error", err)
		return Config{}, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	bootstrapLogger.Info(ctx, "configuration loaded",
		"environment", config.Environment,
		"log_level", config.LogLevel,
		"server_address", config.ServerAddress,
	)

	// Validate required configuration
	if config.TokenSecret == "" {
		err := errors.New("TOKEN_SECRET is required")
		bootstrapLogger.Error(ctx, "configuration validation failed", "error", err)
		return Config{}, err
	}
	if config.TokenTTL <= 0 {
		err := errors.New("TOKEN_TTL must be a positive duration")
		bootstrapLogger.Error(ctx, "configuration validation failed", "error", err)
		return Config{}, err
	}

	bootstrapLogger.Info(ctx, "configuration validated successfully")
	return config, nil
}
