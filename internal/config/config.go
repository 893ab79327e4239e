package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cache drivers accepted by CACHE_DRIVER.
const (
	CacheMemory   = "memory"
	CacheSQLite   = "sqlite"
	CachePostgres = "postgres"
	CacheRedis    = "redis"
)

type Config struct {
	AppName string
	Env     string
	Host    string
	Port    int

	JWTSecret          string
	AccessTokenMinutes int

	UploadDir   string
	CORSOrigins []string

	CacheDriver   string
	SQLitePath    string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SimulatedLatency   time.Duration
	ValidateSwapSkills bool

	LogLevel  string
	LogFormat string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbHost := getEnv("POSTGRES_HOST", "localhost")
	dbPort := getEnv("POSTGRES_PORT", "5432")
	dbUser := getEnv("POSTGRES_USER", "postgres")
	dbPass := getEnv("POSTGRES_PASSWORD", "postgres")
	dbName := getEnv("POSTGRES_DB", "skillswap")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(dbUser, dbPass),
		Host:     fmt.Sprintf("%s:%s", dbHost, dbPort),
		Path:     dbName,
		RawQuery: "sslmode=disable",
	}

	cfg := &Config{
		AppName: getEnv("APP_NAME", "SkillSwap API"),
		Env:     getEnv("APP_ENV", "development"),
		Host:    getEnv("HTTP_HOST", "0.0.0.0"),
		Port:    getEnvAsInt("HTTP_PORT", 8000),

		JWTSecret:          os.Getenv("JWT_SECRET"),
		AccessTokenMinutes: getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24),

		UploadDir: getEnv("UPLOAD_DIR", "uploads"),

		CacheDriver:   strings.ToLower(getEnv("CACHE_DRIVER", CacheMemory)),
		SQLitePath:    getEnv("SQLITE_PATH", "skillswap.db"),
		DatabaseURL:   u.String(),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		SimulatedLatency:   getEnvAsDuration("SIMULATED_LATENCY", 0),
		ValidateSwapSkills: getEnvAsBool("SWAP_VALIDATE_SKILLS", true),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	cors := getEnv("CORS_ORIGINS", "")
	if cors != "" {
		parts := strings.Split(cors, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		cfg.CORSOrigins = parts
	} else {
		cfg.CORSOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	switch cfg.CacheDriver {
	case CacheMemory, CacheSQLite, CachePostgres, CacheRedis:
	default:
		return nil, fmt.Errorf("unknown CACHE_DRIVER %q", cfg.CacheDriver)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}

	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenMinutes) * time.Minute
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvAsBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
