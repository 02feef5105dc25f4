package config

import "log"

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustOneOf(value, envName string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	log.Fatalf("env %s must be one of %v, got %q", envName, allowed, value)
}

// MustLoad returns the storefront config and stops the process when a required key is missing.
func MustLoad() Config {
	cfg := Load()

	MustOneOf(cfg.DBDriver, "DB_DRIVER", "postgres", "sqlite")
	MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	MustNonEmptyBytes(cfg.JWTRefreshSecret, "JWT_REFRESH_SECRET")
	MustNonEmptyBytes(cfg.SessionSecret, "SESSION_SECRET")

	return cfg
}
