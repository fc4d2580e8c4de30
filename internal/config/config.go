package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	FetchTimeout       time.Duration
	MaxRequestBodySize int64

	// Tiling and aggregation defaults; requests may override the
	// thresholds but not the tile size ceiling.
	MaxSideSize         int
	ConfidenceThreshold float64
	IoUThreshold        float64
	DetectWorkers       int

	// Detector model
	ModelPath   string
	ModelLabels []string
	OnnxLibPath string

	// Optional API key; empty disables authentication (local use)
	APIKey string

	// Azure blob storage credentials (optional)
	AzureStorageAccount string
	AzureStorageKey     string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:                getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                getEnvOrDefault("PORT", "8080"),
		RequestTimeout:      parseDurationOrDefault("REQUEST_TIMEOUT", 120*time.Second),
		FetchTimeout:        parseDurationOrDefault("FETCH_TIMEOUT", 30*time.Second),
		MaxRequestBodySize:  parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 1*1024*1024), // 1MB, requests carry URLs not pixels
		MaxSideSize:         int(parseIntOrDefault("MAX_SIDE_SIZE", 512)),
		ConfidenceThreshold: parseFloatOrDefault("CONFIDENCE_THRESHOLD", 0.25),
		IoUThreshold:        parseFloatOrDefault("IOU_THRESHOLD", 0.5),
		DetectWorkers:       int(parseIntOrDefault("DETECT_WORKERS", 0)), // 0 = NumCPU
		ModelPath:           os.Getenv("MODEL_PATH"),
		ModelLabels:         splitLabels(os.Getenv("MODEL_LABELS")),
		OnnxLibPath:         os.Getenv("ONNX_LIB_PATH"),
		APIKey:              os.Getenv("API_KEY"),
		AzureStorageAccount: os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:     os.Getenv("AZURE_STORAGE_KEY"),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.FetchTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s)",
			cfg.RequestTimeout, cfg.FetchTimeout)
	}
	if cfg.MaxSideSize <= 0 {
		return nil, fmt.Errorf("MAX_SIDE_SIZE must be > 0 (got %d)", cfg.MaxSideSize)
	}
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return nil, fmt.Errorf("CONFIDENCE_THRESHOLD must be in [0,1] (got %g)", cfg.ConfidenceThreshold)
	}
	if cfg.IoUThreshold <= 0 || cfg.IoUThreshold >= 1 {
		return nil, fmt.Errorf("IOU_THRESHOLD must be in (0,1) (got %g)", cfg.IoUThreshold)
	}
	return cfg, nil
}

func splitLabels(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}
	return labels
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
