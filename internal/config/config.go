package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProfileCompletion = "completion"
	ProfileMessages   = "messages"

	defaultModelID      = "us.amazon.nova-lite-v1:0"
	defaultGeneratorURL = "https://57b8-34-124-254-60.ngrok-free.app/generate"
	defaultTimeout      = 60 * time.Second
)

type Config struct {
	// Logged only; never sent upstream.
	ModelID string

	GeneratorProfile  string
	GeneratorURL      string
	GeneratorURLParam string
	GeneratorTimeout  time.Duration

	CORSAllowOrigin string
	LogLevel        slog.Level

	// Local server
	Port string
}

// Load reads the configuration from the environment. When loadDotEnv is set,
// a .env file in the working directory is applied first; variables already
// present in the environment win.
func Load(loadDotEnv bool) (*Config, error) {
	if loadDotEnv {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: load .env: %w", err)
		}
	}

	level, err := parseLevel(getEnvOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ModelID:           getEnvOrDefault("MODEL_ID", defaultModelID),
		GeneratorProfile:  strings.ToLower(getEnvOrDefault("GENERATOR_PROFILE", ProfileCompletion)),
		GeneratorURL:      getEnvOrDefault("GENERATOR_URL", defaultGeneratorURL),
		GeneratorURLParam: strings.TrimSpace(os.Getenv("GENERATOR_URL_PARAM")),
		GeneratorTimeout:  time.Duration(envInt("GENERATOR_TIMEOUT_SECONDS", int(defaultTimeout/time.Second))) * time.Second,
		CORSAllowOrigin:   getEnvOrDefault("CORS_ALLOW_ORIGIN", "*"),
		LogLevel:          level,
		Port:              getEnvOrDefault("PORT", "8080"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.GeneratorProfile {
	case ProfileCompletion, ProfileMessages:
	default:
		return fmt.Errorf("config: unknown generator profile %q", c.GeneratorProfile)
	}
	if c.GeneratorURLParam == "" && strings.TrimSpace(c.GeneratorURL) == "" {
		return errors.New("config: GENERATOR_URL or GENERATOR_URL_PARAM must be set")
	}
	if c.GeneratorTimeout <= 0 {
		return errors.New("config: generator timeout must be positive")
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("config: invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

func getEnvOrDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
