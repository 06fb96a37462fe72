// Package config collects the environment the server is started with.
package config

import (
	"fmt"
	"os"
	"time"
)

const (
	defaultPort            = "8080"
	defaultKeyPairPath     = "keypair.bin"
	defaultAccessTokenTTL  = 30 * time.Minute
	defaultRefreshTokenTTL = 14 * 24 * time.Hour
	defaultS3Region        = "us-east-1"
)

type Config struct {
	Port        string
	LogLevel    string
	Environment string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	KeyPairPath     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	MailgunAPIKey string

	S3RootUser     string
	S3RootPassword string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
}

// Load reads the configuration from the process environment. Unset optional
// values fall back to defaults, malformed durations are reported as errors.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		Environment:    os.Getenv("ENVIRONMENT"),
		DBHost:         os.Getenv("DB_HOST"),
		DBPort:         os.Getenv("DB_PORT"),
		DBUser:         os.Getenv("DB_USER"),
		DBPassword:     os.Getenv("DB_PASS"),
		DBName:         os.Getenv("DB_NAME"),
		KeyPairPath:    getEnv("KEY_PAIR_PATH", defaultKeyPairPath),
		MailgunAPIKey:  os.Getenv("MAILGUN_API_KEY"),
		S3RootUser:     os.Getenv("S3_ROOT_USER"),
		S3RootPassword: os.Getenv("S3_ROOT_PASSWORD"),
		S3Bucket:       os.Getenv("S3_BUCKET"),
		S3Region:       getEnv("S3_REGION", defaultS3Region),
		S3BaseEndpoint: os.Getenv("S3_BASE_ENDPOINT"),
	}

	var err error
	if cfg.AccessTokenTTL, err = getDuration("ACCESS_TOKEN_TTL", defaultAccessTokenTTL); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenTTL, err = getDuration("REFRESH_TOKEN_TTL", defaultRefreshTokenTTL); err != nil {
		return nil, err
	}
	if cfg.AccessTokenTTL >= cfg.RefreshTokenTTL {
		return nil, fmt.Errorf("ACCESS_TOKEN_TTL (%s) must be shorter than REFRESH_TOKEN_TTL (%s)", cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	}

	return cfg, nil
}

// DatabaseURL returns the connection string for pgxpool, or an error when a
// database variable is missing.
func (c *Config) DatabaseURL() (string, error) {
	if c.DBHost == "" || c.DBPort == "" || c.DBUser == "" || c.DBPassword == "" || c.DBName == "" {
		return "", fmt.Errorf("database environment variables not set")
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName), nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, value)
	}
	return d, nil
}
