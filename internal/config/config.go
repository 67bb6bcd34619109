package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bloodlab/internal/logger"
)

// OCR providers understood by OCR_PROVIDER
const (
	OCRProviderVision     = "vision"
	OCRProviderDocumentAI = "documentai"
)

type Config struct {
	// HTTP Server Configuration
	Host            string
	Port            string
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration

	// OpenAI Configuration
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	OpenAITemperature float32
	OpenAIMaxTokens   int
	AnalysisTimeout   time.Duration

	// OCR Configuration
	OCRProvider           string
	OCRTimeout            time.Duration
	GoogleCloudProject    string
	GoogleCloudLocation   string
	DocumentAIProcessorID string

	// Report Font Configuration
	FontDir      string
	FontFile     string
	FontBoldFile string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		Host:                  getEnv("HOST", ""),
		Port:                  getEnv("PORT", "8000"),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4"),
		OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", ""),
		OCRProvider:           strings.ToLower(getEnv("OCR_PROVIDER", OCRProviderVision)),
		GoogleCloudProject:    getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:   getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID: getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		FontDir:               getEnv("FONT_DIR", "fonts"),
		FontFile:              getEnv("FONT_FILE", "NanumGothic.ttf"),
		FontBoldFile:          getEnv("FONT_BOLD_FILE", "NanumGothicBold.ttf"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", time.RFC3339),
		LogOutput:             getEnv("LOG_OUTPUT", "stderr"),
	}

	var err error
	if config.MaxUploadBytes, err = getInt64Env("MAX_UPLOAD_BYTES", 20*1024*1024); err != nil {
		return nil, err
	}
	if config.OpenAIMaxTokens, err = getIntEnv("OPENAI_MAX_TOKENS", 3000); err != nil {
		return nil, err
	}
	if config.OpenAITemperature, err = getFloatEnv("OPENAI_TEMPERATURE", 0.1); err != nil {
		return nil, err
	}
	if config.OCRTimeout, err = getDurationEnv("OCR_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if config.AnalysisTimeout, err = getDurationEnv("ANALYSIS_TIMEOUT", 120*time.Second); err != nil {
		return nil, err
	}
	if config.ShutdownTimeout, err = getDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.OCRProvider {
	case OCRProviderVision:
	case OCRProviderDocumentAI:
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required when OCR_PROVIDER=%s", OCRProviderDocumentAI)
		}
		if c.DocumentAIProcessorID == "" {
			return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required when OCR_PROVIDER=%s", OCRProviderDocumentAI)
		}
	default:
		return fmt.Errorf("unsupported OCR_PROVIDER %q (want %s or %s)", c.OCRProvider, OCRProviderVision, OCRProviderDocumentAI)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.OpenAIMaxTokens <= 0 {
		return fmt.Errorf("OPENAI_MAX_TOKENS must be positive")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	return nil
}

// RequireOpenAI reports a configuration error for commands that call the LLM
func (c *Config) RequireOpenAI() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	return nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// FontPaths returns the regular and bold font file locations
func (c *Config) FontPaths() (regular, bold string) {
	return filepath.Join(c.FontDir, c.FontFile), filepath.Join(c.FontDir, c.FontBoldFile)
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

func getIntEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, raw)
	}
	return v, nil
}

func getInt64Env(key string, defaultValue int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, raw)
	}
	return v, nil
}

func getFloatEnv(key string, defaultValue float32) (float32, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", key, raw)
	}
	return float32(v), nil
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	return v, nil
}
