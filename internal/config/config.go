package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	// Header defaults and provenance literals
	DefaultTitle  string `toml:"default_title"`
	DefaultAuthor string `toml:"default_author"`
	Publication   string `toml:"publication"`

	// Persona extraction
	HarvestVocatives bool `toml:"harvest_vocatives"`

	// Output
	OutputDir string `toml:"output_dir"`

	// Validation
	SchemaPath  string `toml:"schema_path"`
	XMLLintPath string `toml:"xmllint_path"`

	// PDF
	PDFFallbackPdftotext bool `toml:"pdf_fallback_pdftotext"`

	// Logging
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DefaultTitle:         "untitled",
		DefaultAuthor:        "unknown",
		Publication:          "자동 생성",
		HarvestVocatives:     true,
		OutputDir:            ".",
		SchemaPath:           "tei_all.rng",
		XMLLintPath:          "xmllint",
		PDFFallbackPdftotext: true,
		LogLevel:             "info",
		LogFormat:            "json",
	}
}

// Load layers the optional TOML file at path (skipped when path is empty or
// the file does not exist) and then TEIGEST_* environment variables over the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("TEIGEST_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.DefaultTitle = envOr("TEIGEST_DEFAULT_TITLE", c.DefaultTitle)
	c.DefaultAuthor = envOr("TEIGEST_DEFAULT_AUTHOR", c.DefaultAuthor)
	c.Publication = envOr("TEIGEST_PUBLICATION", c.Publication)
	c.HarvestVocatives = envBool("TEIGEST_HARVEST_VOCATIVES", c.HarvestVocatives)
	c.OutputDir = envOr("TEIGEST_OUTPUT_DIR", c.OutputDir)
	c.SchemaPath = envOr("TEIGEST_SCHEMA_PATH", c.SchemaPath)
	c.XMLLintPath = envOr("TEIGEST_XMLLINT_PATH", c.XMLLintPath)
	c.PDFFallbackPdftotext = envBool("TEIGEST_PDF_FALLBACK_PDFTOTEXT", c.PDFFallbackPdftotext)
	c.LogLevel = envOr("TEIGEST_LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOr("TEIGEST_LOG_FORMAT", c.LogFormat)
}

func (c *Config) normalize() {
	d := Default()
	if strings.TrimSpace(c.OutputDir) == "" {
		c.OutputDir = d.OutputDir
	}
	if strings.TrimSpace(c.XMLLintPath) == "" {
		c.XMLLintPath = d.XMLLintPath
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DefaultTitle) == "" {
		return fmt.Errorf("default_title is required")
	}
	if strings.TrimSpace(c.DefaultAuthor) == "" {
		return fmt.Errorf("default_author is required")
	}
	if strings.TrimSpace(c.Publication) == "" {
		return fmt.Errorf("publication is required")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("log_format: unsupported value %q", c.LogFormat)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level: unsupported value %q", c.LogLevel)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
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
