// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Provider names accepted in AUTH_PROVIDER.
const (
	ProviderFirebase = "firebase"
	ProviderSQL      = "sql"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT"`
	ServerTimeout time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`

	// Database Configuration
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Identity Provider Selection
	AuthProvider string `mapstructure:"AUTH_PROVIDER"`

	// Firebase Configuration (AUTH_PROVIDER=firebase)
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	FirebaseProjectID             string `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebaseWebAPIKey             string `mapstructure:"FIREBASE_WEB_API_KEY"`

	// SQL Provider Configuration (AUTH_PROVIDER=sql)
	JWTSecretKey         string        `mapstructure:"JWT_SECRET_KEY"`
	JWTSessionExpiry     time.Duration `mapstructure:"JWT_SESSION_EXPIRY_MINUTES"`

	// Cron Jobs
	SessionPurgeSchedule string `mapstructure:"SESSION_PURGE_SCHEDULE"`

	// Client Application
	ClientURL string `mapstructure:"CLIENT_URL"`
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()

	// Set default values
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "5000")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "clinic_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("AUTH_PROVIDER", ProviderSQL)
	v.SetDefault("FIREBASE_PROJECT_ID", "") // Optional, SDK infers from credentials
	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "")
	v.SetDefault("FIREBASE_WEB_API_KEY", "")

	v.SetDefault("JWT_SECRET_KEY", "")
	v.SetDefault("JWT_SESSION_EXPIRY_MINUTES", 60)

	v.SetDefault("SESSION_PURGE_SCHEDULE", "@hourly")

	v.SetDefault("CLIENT_URL", "http://localhost:5173")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Convert duration fields
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.JWTSessionExpiry = time.Duration(v.GetInt("JWT_SESSION_EXPIRY_MINUTES")) * time.Minute

	// Basic validation for critical configs, per selected provider.
	switch strings.ToLower(strings.TrimSpace(cfg.AuthProvider)) {
	case ProviderFirebase:
		cfg.AuthProvider = ProviderFirebase
		if strings.TrimSpace(cfg.FirebaseServiceAccountKeyPath) == "" {
			return nil, fmt.Errorf("FATAL: FIREBASE_SERVICE_ACCOUNT_KEY_PATH is not set. This is required for Firebase Admin SDK initialization")
		}
		if _, err := os.Stat(cfg.FirebaseServiceAccountKeyPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("FATAL: Firebase service account key file specified in FIREBASE_SERVICE_ACCOUNT_KEY_PATH (%s) not found", cfg.FirebaseServiceAccountKeyPath)
		}
		if strings.TrimSpace(cfg.FirebaseWebAPIKey) == "" {
			return nil, fmt.Errorf("FATAL: FIREBASE_WEB_API_KEY is not set. Password sign-in goes through the Identity Toolkit REST API and needs the web API key")
		}
	case ProviderSQL:
		cfg.AuthProvider = ProviderSQL
		if strings.TrimSpace(cfg.JWTSecretKey) == "" {
			return nil, fmt.Errorf("FATAL: JWT_SECRET_KEY is not set. The SQL identity provider signs session tokens with it")
		}
	default:
		return nil, fmt.Errorf("FATAL: AUTH_PROVIDER must be %q or %q, got %q", ProviderFirebase, ProviderSQL, cfg.AuthProvider)
	}

	return &cfg, nil
}
