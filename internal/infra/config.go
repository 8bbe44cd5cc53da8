package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	UploadDir          string
	BackgroundDir      string
	QRDir              string
	OutputDir          string
	FontPath           string
	FontBoldPath       string
	FontDir            string
	JPEGQuality        int
	QRBoxSize          int
	QROffsetY          int
	BatchWorkers       int
	DatabaseURL        string
	GeoIPDBPath        string
	DefaultLocale      string
	CORSAllowedOrigins []string
	DownloadBasePath   string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	uploadDir := getEnv("UPLOAD_DIR", "uploads")
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		UploadDir:          uploadDir,
		BackgroundDir:      getEnv("BACKGROUND_DIR", filepath.Join(uploadDir, "backgrounds")),
		QRDir:              getEnv("QR_DIR", filepath.Join(uploadDir, "qrcodes")),
		OutputDir:          getEnv("OUTPUT_DIR", "processed"),
		FontPath:           os.Getenv("FONT_PATH"),
		FontBoldPath:       os.Getenv("FONT_BOLD_PATH"),
		FontDir:            os.Getenv("FONT_DIR"),
		JPEGQuality:        getEnvInt("JPEG_QUALITY", 90),
		QRBoxSize:          getEnvInt("QR_BOX_SIZE", 700),
		QROffsetY:          getEnvInt("QR_OFFSET_Y", 32),
		BatchWorkers:       getEnvInt("BATCH_WORKERS", 1),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:      strings.ToLower(getEnv("DEFAULT_LOCALE", "zh")),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		DownloadBasePath:   strings.TrimRight(getEnv("DOWNLOAD_BASE_PATH", "/api/download"), "/"),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 300)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		return nil, fmt.Errorf("JPEG_QUALITY must be between 1 and 100, got %d", cfg.JPEGQuality)
	}
	if cfg.QRBoxSize <= 0 {
		return nil, fmt.Errorf("QR_BOX_SIZE must be positive, got %d", cfg.QRBoxSize)
	}
	if cfg.BatchWorkers < 1 {
		return nil, fmt.Errorf("BATCH_WORKERS must be at least 1, got %d", cfg.BatchWorkers)
	}
	if cfg.DefaultLocale != "zh" && cfg.DefaultLocale != "en" {
		return nil, fmt.Errorf("DEFAULT_LOCALE must be zh or en, got %q", cfg.DefaultLocale)
	}
	if cfg.DownloadBasePath == "" {
		cfg.DownloadBasePath = "/api/download"
	}

	return cfg, nil
}

// IsDevelopment reports whether internal error details may be exposed.
func (c *Config) IsDevelopment() bool {
	return c != nil && c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
