package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
	SourceDynamoDB = "dynamodb"
)

// Config holds the settings for one analysis run.
type Config struct {
	Source           string `yaml:"source"`
	Table            string `yaml:"table"`
	DatabaseURL      string `yaml:"database_url"`
	DatabaseURLParam string `yaml:"database_url_param"`
	WindowDays       int    `yaml:"window_days"`
	PageSize         int    `yaml:"page_size"`
	OutputDir        string `yaml:"output_dir"`
	DashboardBaseURL string `yaml:"dashboard_base_url"`
	DashboardParams  string `yaml:"dashboard_params"`
	ProgressEvery    int    `yaml:"progress_every"`
}

func defaults() Config {
	return Config{
		Source:        SourcePostgres,
		Table:         "webhook_dumps",
		WindowDays:    30,
		PageSize:      1000,
		OutputDir:     ".",
		ProgressEvery: 100,
	}
}

// Load builds the configuration from defaults, the YAML file named by
// ANALYZER_CONFIG, and the environment, in increasing precedence. A .env file
// in the working directory is loaded first without overriding the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := strings.TrimSpace(os.Getenv("ANALYZER_CONFIG")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.mergeEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var file Config
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.overlay(file)
	return nil
}

func (c *Config) mergeEnv() {
	c.overlay(Config{
		Source:           strings.ToLower(os.Getenv("SOURCE")),
		Table:            os.Getenv("WEBHOOK_TABLE"),
		DatabaseURL:      firstEnv("WEBHOOK_DB_URL", "DATABASE_URL"),
		DatabaseURLParam: os.Getenv("WEBHOOK_DB_URL_PARAM"),
		WindowDays:       envInt("WINDOW_DAYS", 0),
		PageSize:         envInt("PAGE_SIZE", 0),
		OutputDir:        os.Getenv("OUTPUT_DIR"),
		DashboardBaseURL: os.Getenv("DASHBOARD_BASE_URL"),
		DashboardParams:  os.Getenv("DASHBOARD_PARAMS"),
		ProgressEvery:    envInt("PROGRESS_EVERY", 0),
	})
}

// overlay copies every non-zero field of o onto c.
func (c *Config) overlay(o Config) {
	setString(&c.Source, o.Source)
	setString(&c.Table, o.Table)
	setString(&c.DatabaseURL, o.DatabaseURL)
	setString(&c.DatabaseURLParam, o.DatabaseURLParam)
	setString(&c.OutputDir, o.OutputDir)
	setString(&c.DashboardBaseURL, o.DashboardBaseURL)
	setString(&c.DashboardParams, o.DashboardParams)
	setInt(&c.WindowDays, o.WindowDays)
	setInt(&c.PageSize, o.PageSize)
	setInt(&c.ProgressEvery, o.ProgressEvery)
}

// Validate checks that the selected source has what it needs to connect.
func (c Config) Validate() error {
	switch c.Source {
	case SourcePostgres, SourceSQLite:
		if c.DatabaseURL == "" && c.DatabaseURLParam == "" {
			return errors.New("config: missing database credentials; set WEBHOOK_DB_URL (or DATABASE_URL) or WEBHOOK_DB_URL_PARAM")
		}
	case SourceDynamoDB:
	default:
		return fmt.Errorf("config: unknown source %q", c.Source)
	}
	if strings.TrimSpace(c.Table) == "" {
		return errors.New("config: table must not be empty")
	}
	if c.WindowDays <= 0 {
		return fmt.Errorf("config: window days must be positive, got %d", c.WindowDays)
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
