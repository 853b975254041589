package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv   string
	Port      string
	JWTSecret string
	Database  DatabaseConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Server    ServerConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Alter    bool
}

// AuthConfig holds the credential-exchange settings
type AuthConfig struct {
	// OperatorDomain is appended to a PIN to form the operator login email.
	OperatorDomain   string
	OperatorPassword string
	// ManagerDomain is appended to manager logins typed without "@".
	ManagerDomain   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// StorageConfig selects and configures the blob store
type StorageConfig struct {
	Driver         string // local | gcs
	UploadDir      string
	PublicBaseURL  string
	GCSBucket      string
	GCSCredentials string
	MaxUploadBytes int64
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	AppBaseURL     string
	AllowedOrigins []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	port := getEnv("PORT", "3001")

	cfg := &Config{
		NodeEnv:   getEnv("NODE_ENV", "development"),
		Port:      port,
		JWTSecret: jwtSecret,
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "cotaqc"),
			Alter:    getEnv("DB_ALTER", "false") == "true",
		},
		Auth: AuthConfig{
			OperatorDomain:   strings.TrimPrefix(getEnv("OPERATOR_DOMAIN", "operador.local"), "@"),
			OperatorPassword: os.Getenv("OPERATOR_PASSWORD"),
			ManagerDomain:    strings.TrimPrefix(os.Getenv("MANAGER_DOMAIN"), "@"),
			AccessTokenTTL:   getDuration("ACCESS_TOKEN_TTL", time.Hour),
			RefreshTokenTTL:  getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		},
		Storage: StorageConfig{
			Driver:         getEnv("STORAGE_DRIVER", "local"),
			UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
			PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+port+"/uploads"), "/"),
			GCSBucket:      os.Getenv("GCS_BUCKET"),
			GCSCredentials: os.Getenv("GCS_CREDENTIALS_FILE"),
			MaxUploadBytes: 20 << 20,
		},
		Server: ServerConfig{
			AppBaseURL:     strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:5173"), "/"),
			AllowedOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		},
	}

	if cfg.Storage.Driver == "gcs" && cfg.Storage.GCSBucket == "" {
		return nil, fmt.Errorf("GCS_BUCKET is required when STORAGE_DRIVER=gcs")
	}

	return cfg, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
