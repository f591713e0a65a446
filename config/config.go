package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/renbrahe/parsing-ski/models"
)

// defaultBrands is the controlled brand list used to split listing titles
// into brand + model. Matching is case-insensitive on the first token.
var defaultBrands = []string{
	"Rossignol", "Head", "Atomic", "Fischer", "Salomon", "Scott",
	"Volkl", "Völkl", "Voelkl", "Blizzard", "Nordica", "Elan",
	"K2", "Dynastar", "Armada",
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	PostgresEnabled  bool

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int
	HTTPTimeoutSec int

	ExportDir string
	ChromeBin string

	// Brands is loaded once and treated as immutable.
	Brands []string

	MinSkiLengthCM int
	MaxSkiLengthCM int
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "skiparse"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "skiparse123"),
		PostgresDB:       getEnv("POSTGRES_DB", "ski_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 4),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 500),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		HTTPTimeoutSec: getEnvInt("HTTP_TIMEOUT_SEC", 20),

		ExportDir: getEnv("EXPORT_DIR", "./data/exports"),
		ChromeBin: getEnv("CHROME_BIN", ""),

		Brands: getEnvList("SKI_BRANDS", defaultBrands),

		MinSkiLengthCM: getEnvInt("MIN_SKI_LENGTH_CM", models.MinSkiLengthCM),
		MaxSkiLengthCM: getEnvInt("MAX_SKI_LENGTH_CM", models.MaxSkiLengthCM),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
