package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"scantext/internal/logger"
)

// Known OCR engine names.
const (
	EngineVision     = "vision"
	EngineDocumentAI = "documentai"
	EngineTesseract  = "tesseract"
)

type Config struct {
	// Application identity; used for the output directory and export file names.
	AppName string

	// Export configuration
	OutputDir string

	// OCR configuration
	OCREngine      string
	OCRConcurrency int
	OCRRateLimit   float64 // engine calls per second, 0 disables limiting
	OCRLanguages   []string

	// Scanner configuration
	ScanPageLimit int

	// PDF page geometry (points)
	PageWidth         float64
	PageHeight        float64
	FontSize          float64
	VerticalPadding   float64
	HorizontalPadding float64

	// Logging configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		AppName:           getEnv("SCANTEXT_APP_NAME", "scantext"),
		OutputDir:         getEnv("SCANTEXT_OUTPUT_DIR", ""),
		OCREngine:         getEnv("SCANTEXT_OCR_ENGINE", EngineVision),
		OCRConcurrency:    getEnvInt("SCANTEXT_OCR_CONCURRENCY", 2),
		OCRRateLimit:      getEnvFloat("SCANTEXT_OCR_RATE_LIMIT", 2),
		OCRLanguages:      splitList(getEnv("SCANTEXT_OCR_LANGUAGES", "")),
		ScanPageLimit:     getEnvInt("SCANTEXT_SCAN_PAGE_LIMIT", 5),
		PageWidth:         getEnvFloat("SCANTEXT_PAGE_WIDTH", 794),
		PageHeight:        getEnvFloat("SCANTEXT_PAGE_HEIGHT", 1123),
		FontSize:          getEnvFloat("SCANTEXT_FONT_SIZE", 24),
		VerticalPadding:   getEnvFloat("SCANTEXT_VERTICAL_PADDING", 24),
		HorizontalPadding: getEnvFloat("SCANTEXT_HORIZONTAL_PADDING", 20),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:     getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:         getEnv("LOG_OUTPUT", "stderr"),
	}

	if config.OutputDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: cannot determine home directory for default output dir: %w", err)
		}
		config.OutputDir = filepath.Join(home, config.AppName)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.OCREngine {
	case EngineVision, EngineDocumentAI, EngineTesseract:
	default:
		return fmt.Errorf("SCANTEXT_OCR_ENGINE must be one of %q, %q, %q", EngineVision, EngineDocumentAI, EngineTesseract)
	}
	if c.OCRConcurrency < 1 {
		return fmt.Errorf("SCANTEXT_OCR_CONCURRENCY must be at least 1")
	}
	if c.ScanPageLimit < 1 {
		return fmt.Errorf("SCANTEXT_SCAN_PAGE_LIMIT must be at least 1")
	}
	if c.PageWidth <= 0 || c.PageHeight <= 0 {
		return fmt.Errorf("page dimensions must be positive")
	}
	if c.FontSize <= 0 {
		return fmt.Errorf("SCANTEXT_FONT_SIZE must be positive")
	}
	if c.VerticalPadding < 0 || c.HorizontalPadding < 0 {
		return fmt.Errorf("page padding must not be negative")
	}
	if c.VerticalPadding*2+c.FontSize > c.PageHeight {
		return fmt.Errorf("page height %g leaves no room for text at font size %g", c.PageHeight, c.FontSize)
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
