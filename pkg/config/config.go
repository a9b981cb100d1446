package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// CLIConfig holds runtime configuration for the whopctl command.
type CLIConfig struct {
	APIBaseURL     string
	LogLevel       string
	RequestTimeout time.Duration
	BuildTimeout   time.Duration
	Insecure       bool
	Workdir        string
}

// LoadCLIConfig constructs a CLIConfig from environment variables.
// Workdir left empty means the builder picks a directory under os.TempDir.
func LoadCLIConfig() CLIConfig {
	return CLIConfig{
		APIBaseURL:     GetString("WHOP_API_URL", "https://api.whop.com"),
		LogLevel:       GetString("WHOPCTL_LOG_LEVEL", "warn"),
		RequestTimeout: time.Duration(GetInt("WHOPCTL_REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		BuildTimeout:   time.Duration(GetInt("WHOPCTL_BUILD_TIMEOUT_SECONDS", 600)) * time.Second,
		Insecure:       GetBool("WHOPCTL_INSECURE", false),
		Workdir:        GetString("WHOPCTL_WORKDIR", ""),
	}
}

// GetString retrieves an environment variable or returns a fallback when unset.
func GetString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetInt retrieves an environment variable as integer or returns fallback.
func GetInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("invalid value for %s: %v", key, err)
			return fallback
		}
		return parsed
	}
	return fallback
}

// GetBool retrieves an environment variable as bool or returns fallback.
func GetBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			log.Printf("invalid value for %s: %v", key, err)
			return fallback
		}
		return parsed
	}
	return fallback
}
