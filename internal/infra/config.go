package infra

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	APIKey             string
	BaseURL            string
	Organization       string
	GenerationsPath    string
	DryRun             bool
	Verbose            bool
	SuitePath          string
	ReportDir          string
	LightTimeout       time.Duration
	SubmitTimeout      time.Duration
	DatabaseURL        string
	Port               string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	CORSAllowedOrigins []string
	GeoIPDBPath        string
	RateLimitRedisURL  string
	HistoryDir         string
	ReportBucket       string
	ReportPrefix       string
	S3Region           string
	S3Endpoint         string
	S3AccessKey        string
	S3SecretKey        string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// A missing API key is not an error here: the credential check reports it.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		APIKey:             strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		BaseURL:            strings.TrimRight(getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
		Organization:       strings.TrimSpace(os.Getenv("OPENAI_ORG")),
		GenerationsPath:    getEnv("SORA_GENERATIONS_PATH", "/video/generations"),
		DryRun:             getEnvBool("PROBE_DRY_RUN", true),
		Verbose:            getEnvBool("PROBE_VERBOSE", true),
		SuitePath:          os.Getenv("PROBE_SUITE_PATH"),
		ReportDir:          os.Getenv("PROBE_REPORT_DIR"),
		LightTimeout:       time.Second * time.Duration(getEnvInt("PROBE_LIGHT_TIMEOUT_SECONDS", 10)),
		SubmitTimeout:      time.Second * time.Duration(getEnvInt("PROBE_SUBMIT_TIMEOUT_SECONDS", 30)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		Port:               getEnv("PORT", "3000"),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		RateLimitRedisURL:  os.Getenv("RATE_LIMIT_REDIS_URL"),
		HistoryDir:         os.Getenv("PROBE_HISTORY_DIR"),
		ReportBucket:       os.Getenv("PROBE_REPORT_BUCKET"),
		ReportPrefix:       os.Getenv("PROBE_REPORT_PREFIX"),
		S3Region:           getEnv("AWS_REGION", "us-east-1"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		S3AccessKey:        os.Getenv("AWS_ACCESS_KEY_ID"),
		S3SecretKey:        os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}

	if !strings.HasPrefix(cfg.GenerationsPath, "/") {
		cfg.GenerationsPath = "/" + cfg.GenerationsPath
	}
	cfg.GenerationsPath = strings.TrimRight(cfg.GenerationsPath, "/")

	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("OPENAI_BASE_URL must be an absolute url, got %q", cfg.BaseURL)
	}

	if cfg.LightTimeout <= 0 || cfg.SubmitTimeout <= 0 {
		return nil, fmt.Errorf("probe timeouts must be positive")
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

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
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
