package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AdamBeresnev/cueboard/internal/bracket"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabasePath    string
	Port            int
	SessionLifetime time.Duration
	AllowedOrigins  []string
	RoundTitlesFile string
}

// Load reads the environment. Call godotenv.Load first if a .env file should count.
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:    getEnv("DATABASE_PATH", "cueboard.db"),
		Port:            8080,
		SessionLifetime: 24 * time.Hour,
		RoundTitlesFile: os.Getenv("ROUND_TITLES_FILE"),
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid SERVER_PORT %q", v)
		}
		cfg.Port = port
	}

	if v := os.Getenv("SESSION_LIFETIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_LIFETIME %q: %w", v, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("SESSION_LIFETIME must be positive, got %s", d)
		}
		cfg.SessionLifetime = d
	}

	for _, o := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

type titleCatalog struct {
	Titles []string `yaml:"titles"`
}

// LoadRoundTitles reads the curated round title list, e.g.
//
//	titles:
//	  - Qualifiers
//	  - Quarterfinals
//
// An empty path or an empty list means the built-in defaults.
func LoadRoundTitles(path string) ([]string, error) {
	if path == "" {
		return bracket.DefaultRoundTitles, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return bracket.DefaultRoundTitles, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read round titles: %w", err)
	}

	var catalog titleCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to unmarshal round titles: %w", err)
	}

	var titles []string
	for _, title := range catalog.Titles {
		if title = strings.TrimSpace(title); title != "" {
			titles = append(titles, title)
		}
	}
	if len(titles) == 0 {
		return bracket.DefaultRoundTitles, nil
	}
	return titles, nil
}
