package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// FileName is the optional per-project config file, read from the project root.
const FileName = "bindoc.toml"

var (
	ErrProjectNotFound = errors.New("project path does not exist")
	ErrDocsNotFound    = errors.New("documentation path does not exist")
)

type Config struct {
	// Paths
	ProjectPath string `validate:"required"`
	DocsPath    string `validate:"required"`
	OutputPath  string `validate:"required"`

	// Rendering
	Format          string `validate:"oneof=markdown md html docx"`
	Pattern         string `validate:"required"`
	SimplifiedTypes bool

	// HTTP preview server
	Port   string `validate:"required,numeric"`
	APIKey string

	// Worker pool
	WorkerCount  int `validate:"gte=1"`
	MaxQueueSize int `validate:"gte=1"`

	// Job state
	JobTTL time.Duration `validate:"gt=0"`

	// Watch mode
	WatchDebounce time.Duration `validate:"gte=0"`

	// Logging
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`
}

// fileConfig mirrors bindoc.toml. Unset keys leave the current value alone.
type fileConfig struct {
	DocsPath        *string `toml:"docs_path"`
	OutputPath      *string `toml:"output_path"`
	Format          *string `toml:"format"`
	Pattern         *string `toml:"pattern"`
	SimplifiedTypes *bool   `toml:"simplified_types"`
	Port            *string `toml:"port"`
	Workers         *int    `toml:"workers"`
	QueueSize       *int    `toml:"queue_size"`
	JobTTL          *string `toml:"job_ttl"`
	WatchDebounce   *string `toml:"watch_debounce"`
	LogLevel        *string `toml:"log_level"`
	LogFormat       *string `toml:"log_format"`
}

// Load reads configuration from the environment.
func Load() Config {
	cfg := Config{
		ProjectPath: envOr("BINDOC_PROJECT_PATH", "."),
		DocsPath:    os.Getenv("BINDOC_DOCS_PATH"),
		OutputPath:  os.Getenv("BINDOC_OUTPUT_PATH"),

		Format:          envOr("BINDOC_FORMAT", "markdown"),
		Pattern:         envOr("BINDOC_PATTERN", "**/*"),
		SimplifiedTypes: envBool("BINDOC_SIMPLIFIED_TYPES", true),

		Port:   envOr("PORT", "8090"),
		APIKey: os.Getenv("BINDOC_API_KEY"),

		WorkerCount:  envInt("BINDOC_WORKERS", 4),
		MaxQueueSize: envInt("BINDOC_QUEUE_SIZE", 100),

		JobTTL: envDuration("BINDOC_JOB_TTL", 1*time.Hour),

		WatchDebounce: envDuration("BINDOC_WATCH_DEBOUNCE", 250*time.Millisecond),

		LogLevel:  envOr("BINDOC_LOG_LEVEL", "info"),
		LogFormat: envOr("BINDOC_LOG_FORMAT", "text"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// LoadFile overlays values from a TOML file. A missing file is not an
// error. Relative paths in the file are taken relative to its directory.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	setPath(&c.DocsPath, fc.DocsPath, dir)
	setPath(&c.OutputPath, fc.OutputPath, dir)
	setString(&c.Format, fc.Format)
	setString(&c.Pattern, fc.Pattern)
	setString(&c.Port, fc.Port)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFormat, fc.LogFormat)
	if fc.SimplifiedTypes != nil {
		c.SimplifiedTypes = *fc.SimplifiedTypes
	}
	if fc.Workers != nil {
		c.WorkerCount = *fc.Workers
	}
	if fc.QueueSize != nil {
		c.MaxQueueSize = *fc.QueueSize
	}
	if err := setDuration(&c.JobTTL, fc.JobTTL); err != nil {
		return fmt.Errorf("parse %s: job_ttl: %w", path, err)
	}
	if err := setDuration(&c.WatchDebounce, fc.WatchDebounce); err != nil {
		return fmt.Errorf("parse %s: watch_debounce: %w", path, err)
	}
	return nil
}

// ApplyDefaults fills in paths derived from the project path.
func (c *Config) ApplyDefaults() {
	if c.ProjectPath == "" {
		c.ProjectPath = "."
	}
	if c.DocsPath == "" {
		c.DocsPath = filepath.Join(c.ProjectPath, "docs")
	}
	if c.OutputPath == "" {
		c.OutputPath = filepath.Join(c.ProjectPath, "target", "bindoc")
	}
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := os.Stat(c.ProjectPath); err != nil {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, c.ProjectPath)
	}
	if _, err := os.Stat(c.DocsPath); err != nil {
		return fmt.Errorf("%w: %s", ErrDocsNotFound, c.DocsPath)
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setPath(dst *string, v *string, dir string) {
	if v == nil {
		return
	}
	if filepath.IsAbs(*v) {
		*dst = *v
		return
	}
	*dst = filepath.Join(dir, *v)
}

func setDuration(dst *time.Duration, v *string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
