// Package config loads the process configuration once at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	MongoURI       string
	MongoDatabase  string
	JWTSecret      string
	JWTExpiresIn   time.Duration
	Port           int
	Release        bool
	LogLevel       string
	AllowedOrigins []string
}

const (
	defaultDatabase  = "chirp"
	defaultExpiresIn = 24 * time.Hour
	defaultPort      = 8080
)

// Load reads an optional .env file, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Wrap(err, "loading .env")
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from the given lookup function and reports every
// invalid variable at once.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg := Config{
		MongoURI:      get("MONGODB_URI"),
		MongoDatabase: get("MONGODB_DATABASE"),
		JWTSecret:     get("JWT_SECRET"),
		JWTExpiresIn:  defaultExpiresIn,
		Port:          defaultPort,
		Release:       get("GIN_MODE") == "release",
		LogLevel:      get("LOG_LEVEL"),
	}

	var issues []string
	if cfg.MongoURI == "" {
		issues = append(issues, "MONGODB_URI is required")
	}
	if cfg.JWTSecret == "" {
		issues = append(issues, "JWT_SECRET is required")
	}
	if cfg.MongoDatabase == "" {
		cfg.MongoDatabase = defaultDatabase
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if v := get("JWT_EXPIRES_IN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			issues = append(issues, fmt.Sprintf("JWT_EXPIRES_IN must be a positive duration, got %q", v))
		} else {
			cfg.JWTExpiresIn = d
		}
	}

	if v := get("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			issues = append(issues, fmt.Sprintf("PORT must be a valid port number, got %q", v))
		} else {
			cfg.Port = port
		}
	}

	cfg.AllowedOrigins = []string{"*"}
	if v := get("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			cfg.AllowedOrigins = origins
		}
	}

	if len(issues) > 0 {
		return Config{}, errors.Errorf("invalid environment: %s", strings.Join(issues, "; "))
	}
	return cfg, nil
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
