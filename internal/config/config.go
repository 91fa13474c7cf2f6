// Package config builds the process-wide settings once at startup. Components
// receive the values they need through their constructors.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// BcryptCost is the fixed hashing cost for stored passwords.
const BcryptCost = 12

var ErrSecretRequired = errors.New("SECRET_KEY is required")

type Config struct {
	ProjectName string
	Version     string
	Environment string
	APIPrefix   string
	Addr        string

	SecretKey       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	AdminEmail    string
	AdminUsername string
	AdminPassword string
	AdminFullName string

	CORSOrigins []string
	RedisURL    string

	DefaultPageSize int
	MaxPageSize     int
}

// ConfigFromEnv reads the application config from environment variables.
// A missing signing secret is an error; everything else has a default.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		ProjectName:   getenv("PROJECT_NAME", "Freelance Job Board API"),
		Version:       getenv("VERSION", "1.0.0"),
		Environment:   getenv("ENVIRONMENT", "development"),
		APIPrefix:     getenv("API_V1_PREFIX", "/api/v1"),
		Addr:          getenv("HTTP_ADDR", "0.0.0.0:8000"),
		SecretKey:     os.Getenv("SECRET_KEY"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminFullName: getenv("ADMIN_FULL_NAME", "Site Administrator"),
		RedisURL:      os.Getenv("REDIS_URL"),
		CORSOrigins:   []string{"http://localhost:3000", "http://localhost:8000"},
	}
	if cfg.SecretKey == "" {
		return cfg, ErrSecretRequired
	}

	accessMin, err := getint("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	if err != nil {
		return cfg, err
	}
	refreshDays, err := getint("REFRESH_TOKEN_EXPIRE_DAYS", 7)
	if err != nil {
		return cfg, err
	}
	cfg.AccessTokenTTL = time.Duration(accessMin) * time.Minute
	cfg.RefreshTokenTTL = time.Duration(refreshDays) * 24 * time.Hour

	if cfg.DefaultPageSize, err = getint("DEFAULT_PAGE_SIZE", 20); err != nil {
		return cfg, err
	}
	if cfg.MaxPageSize, err = getint("MAX_PAGE_SIZE", 100); err != nil {
		return cfg, err
	}
	if cfg.DefaultPageSize > cfg.MaxPageSize {
		cfg.DefaultPageSize = cfg.MaxPageSize
	}

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = ParseList(v)
	}
	return cfg, nil
}

// AdminConfigured reports whether all bootstrap admin credentials are set.
func (c Config) AdminConfigured() bool {
	return c.AdminEmail != "" && c.AdminUsername != "" && c.AdminPassword != ""
}

// ParseList accepts a JSON array or a comma separated list.
func ParseList(v string) []string {
	var out []string
	if err := json.Unmarshal([]byte(v), &out); err == nil {
		return out
	}
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}
