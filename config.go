package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is read once at startup from the environment (and ./.env when present).
type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	AutoMigrate bool

	JWTSecret string
	TokenTTL  time.Duration

	StorageMode string
	UploadDir   string
	GCSBucket   string
	GCSPrefix   string

	ForecastMode    string
	ForecastURL     string
	ForecastTimeout time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	FrontendURL        string

	CORSOrigins    []string
	MaxUploadBytes int64
	OtelTraces     string
}

const defaultCORSOrigins = "http://localhost:5173,http://127.0.0.1:5173"

func LoadConfig() Config {
	// a missing .env is fine; variables already set win
	_ = godotenv.Load()

	return Config{
		Port:        getEnv("PORT", "8081"),
		Env:         getEnv("APP_ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", "sqlite:///./oracle.db"),
		AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),

		JWTSecret: getEnv("JWT_SECRET", "dev-insecure-secret-change"),
		TokenTTL:  time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,

		StorageMode: getEnv("STORAGE_MODE", "local"),
		UploadDir:   getEnv("UPLOAD_DIR", "uploads"),
		GCSBucket:   getEnv("GCS_BUCKET", ""),
		GCSPrefix:   getEnv("GCS_PREFIX", ""),

		ForecastMode:    getEnv("FORECAST_MODE", "local"),
		ForecastURL:     getEnv("FORECAST_URL", ""),
		ForecastTimeout: time.Duration(getEnvInt("FORECAST_TIMEOUT_SECONDS", 120)) * time.Second,

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		FrontendURL:        strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),

		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", defaultCORSOrigins)),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 10)) << 20,
		OtelTraces:     getEnv("OTEL_TRACES", ""),
	}
}

func (c Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(getEnv(key, "")) {
	case "":
		return defaultValue
	case "false", "0", "no":
		return false
	default:
		return true
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
