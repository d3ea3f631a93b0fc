package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoDBURL  string
	MongoDBName string
	PostgresURL string
	RedisURL    string

	ServerPort     string
	AllowedOrigins string
	Environment    string

	JWTSecret string

	// Clinic-wide booking window used when deriving free slots.
	WorkdayStart string
	WorkdayEnd   string
	SlotMinutes  int
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load() // Ignore error since file might not exist in production

	// Get environment with default
	env := getEnvWithDefault("ENVIRONMENT", "development")
	env = strings.ToLower(env)

	// Validate environment value
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[env] {
		return nil, fmt.Errorf("invalid environment value: %s", env)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	config := &Config{
		Environment: env,

		MongoDBURL:  os.Getenv("MONGODB_URL"),
		MongoDBName: getEnvWithDefault("MONGODB_NAME", "hospital"),
		PostgresURL: os.Getenv("POSTGRES_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		ServerPort:     getEnvWithDefault("SERVER_PORT", "8080"),
		AllowedOrigins: getEnvWithDefault("ALLOWED_ORIGINS", "*"),

		JWTSecret: jwtSecret,

		WorkdayStart: getEnvWithDefault("WORKDAY_START", "10:00"),
		WorkdayEnd:   getEnvWithDefault("WORKDAY_END", "20:30"),
		SlotMinutes:  30,
	}

	if config.MongoDBURL == "" {
		return nil, fmt.Errorf("MONGODB_URL environment variable is required")
	}

	return config, nil
}

// IsDevelopment returns whether the current environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns whether the current environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
