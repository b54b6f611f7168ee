package config

import (
	"fmt"
	"os"
	"strconv"
)

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvString copies a non-empty environment variable
func parseEnvString(key string, dest *string) error {
	if value := os.Getenv(key); value != "" {
		*dest = value
	}
	return nil
}
