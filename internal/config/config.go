package config

import (
	"os"
	"strconv"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	FigureDir     string
	LogLevel      string
	LineTolerance float64
	TemplatePath  string
}

// Load creates a new configuration instance from the environment,
// falling back to defaults
func Load() *AppConfig {
	return &AppConfig{
		FigureDir:     getEnvOrDefault("FIGURE_DIR", "extracted_images"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		LineTolerance: getEnvFloatOrDefault("PDF_LINE_TOLERANCE", 3.0),
		TemplatePath:  getEnvOrDefault("TEMPLATE_PATH", ""),
	}
}

// GetFigureDir returns the directory extracted figure images are written to
func (c *AppConfig) GetFigureDir() string {
	return c.FigureDir
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetLineTolerance returns the vertical distance in points under which two
// positioned characters are considered to share a baseline row
func (c *AppConfig) GetLineTolerance() float64 {
	return c.LineTolerance
}

// GetTemplatePath returns the path of the LaTeX template to fill, empty when
// the built-in default should be used
func (c *AppConfig) GetTemplatePath() string {
	return c.TemplatePath
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
