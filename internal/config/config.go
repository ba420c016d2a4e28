package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	AuthHMACSecret string
	TokenTTLHours  int
	DevAuth        bool

	CORSOrigins []string
}

// FromEnv loads configuration from the environment, reading a .env file
// first when one is present.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:       envOr("HTTP_ADDR", ":8080"),
		DBDriver:       envOr("DB_DRIVER", "sqlite"),
		DBDSN:          envOr("DB_DSN", ""),
		AuthHMACSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		TokenTTLHours:  envInt("TOKEN_TTL_HOURS", 8),
		DevAuth:        envBool("DEV_AUTH", true),
		CORSOrigins:    csvOr("CORS_ORIGINS", "http://localhost:3000"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
