package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// loads configuration from environment variables
func LoadEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - production environments may not have .env file
	}

	databaseURL := os.Getenv("DATABASE_URL")
	jwtSecret := os.Getenv("JWT_SECRET")
	sessionSecret := os.Getenv("SESSION_SECRET")
	baseURL := os.Getenv("BASE_URL")
	environment := os.Getenv("ENVIRONMENT")
	menuAPIKey := os.Getenv("MENU_API_KEY")
	playPackage := os.Getenv("GOOGLE_PLAY_PACKAGE_NAME")
	playToken := os.Getenv("GOOGLE_PLAY_ACCESS_TOKEN")
	playBaseURL := os.Getenv("GOOGLE_PLAY_BASE_URL")

	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	if sessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is required")
	}

	if playPackage == "" {
		playPackage = "com.cookflow.app"
	}

	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	if environment == "" {
		environment = "development"
	}

	return &Config{
		DatabaseURL:           databaseURL,
		JWTSecret:             jwtSecret,
		SessionSecret:         sessionSecret,
		BaseURL:               baseURL,
		Environment:           environment,
		MenuAPIKey:            menuAPIKey,
		GooglePlayPackageName: playPackage,
		GooglePlayAccessToken: playToken,
		GooglePlayBaseURL:     playBaseURL,
	}, nil
}
