package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays values from environment variables. Deployment platforms
// supply configuration this way, so env wins over the JSON file but loses to
// explicit command-line flags.
func parseEnv(config *Config) {
	if v := os.Getenv("ADDRESS"); v != "" {
		config.EndpointAddr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		config.SecretKey = v
	}
	if v := os.Getenv("JWT_EXP_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			config.TokenValidityDuration = time.Duration(days) * 24 * time.Hour
		}
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		config.FrontendURL = v
	}
	if v := os.Getenv("BACKEND_URL"); v != "" {
		config.BackendURL = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		config.GoogleClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		config.GoogleClientSecret = v
	}
	if v := os.Getenv("REDIRECT_URI"); v != "" {
		config.RedirectURI = v
	}
}
