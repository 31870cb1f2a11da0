package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything the server reads from the environment, with a .env
// file honored when present.
type Config struct {
	Port     string
	MongoURI string
	DBName   string

	JWTSecret string
	TokenTTL  time.Duration

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	PurgeEnabled  bool
	PurgeInterval time.Duration
}

func Load() Config {
	// Missing .env is fine; the environment still applies.
	_ = godotenv.Load()

	return Config{
		Port:     getEnv("PORT", "8080"),
		MongoURI: getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:   getEnv("MONGODB_DATABASE", "notekeeper"),

		JWTSecret: getEnv("JWT_SECRET_KEY", "change-me"),
		TokenTTL:  getDuration("JWT_ACCESS_TOKEN_EXPIRES", 10*time.Hour),

		SMTPHost: getEnv("EMAIL_HOST", ""),
		SMTPPort: getInt("EMAIL_PORT", 587),
		SMTPUser: getEnv("EMAIL_AUTH_USER", ""),
		SMTPPass: getEnv("EMAIL_AUTH_PASS", ""),
		MailFrom: getEnv("EMAIL_FROM", getEnv("EMAIL_AUTH_USER", "")),

		PurgeEnabled:  getBool("PURGE_ENABLED", true),
		PurgeInterval: getDuration("PURGE_INTERVAL", time.Hour),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
