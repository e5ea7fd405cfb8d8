package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the deployment-level configuration loaded from environment
// variables. Booth-level knobs (event, theme, overlay) live in the settings
// store instead; this file only holds what an operator sets once per deploy.
type Config struct {
	AppEnv string
	Port   string

	GeminiAPIKey  string
	GeminiBaseURL string

	ArchiveEndpoint string
	QRServiceURL    string

	SettingsDir    string
	StoragePath    string
	StorageBaseURL string

	AllowedOrigins []string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	GenerateTimeout time.Duration
	OverlayTimeout  time.Duration
	UploadTimeout   time.Duration

	RateLimitPerMin int
}

// LoadConfig reads the environment and applies defaults. The generation API
// key has no default and no fallback: without it every run would fail, so the
// process refuses to start.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             port,
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		ArchiveEndpoint:  os.Getenv("ARCHIVE_ENDPOINT"),
		QRServiceURL:     os.Getenv("QR_SERVICE_URL"),
		SettingsDir:      getEnv("SETTINGS_DIR", "data/settings"),
		StoragePath:      getEnv("STORAGE_PATH", "data/photos"),
		StorageBaseURL:   getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),
		AllowedOrigins:   splitList(os.Getenv("ALLOWED_ORIGINS")),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 300)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		GenerateTimeout:  time.Second * time.Duration(getEnvInt("GENERATE_TIMEOUT_SECONDS", 120)),
		OverlayTimeout:   time.Second * time.Duration(getEnvInt("OVERLAY_TIMEOUT_SECONDS", 30)),
		UploadTimeout:    time.Second * time.Duration(getEnvInt("UPLOAD_TIMEOUT_SECONDS", 30)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 10),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
