package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/anonto42/socialpulse/backend/internal/logging"
)

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
	JWTSecret               string
	MetricsPort             string
	LogLevel                string
	LogFormat               string
	NotificationTTL         time.Duration
	AllowedOrigins          []string
}

// Load reads configuration from the environment, after loading .env if present.
func Load() *Config {
	envErr := godotenv.Load()

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:           getEnv("MONGO_DATABASE", "socialpulse"),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		MetricsPort:             getEnv("METRICS_PORT", "9090"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "json"),
		NotificationTTL:         getDuration("NOTIFICATION_TTL", 720*time.Hour),
		AllowedOrigins:          getList("ALLOWED_ORIGINS"),
	}

	if envErr != nil {
		logging.Info().Msg("No .env file found, assuming environment variables are set.")
	}
	return cfg
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		logging.Warn().Str("key", key).Str("value", value).Msg("invalid duration, using default")
		return defaultValue
	}
	return d
}

// getList splits a comma-separated variable, dropping empty entries.
func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
