package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AIAPIKey         string
	GenModel         string
	Port             string
	AllowedOrigins   []string
	MaxDocumentChars int
	MaxUploadBytes   int64
	TempDir          string
	RequestTimeout   time.Duration
	LogLevel         slog.Level

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	return &Config{
		AIAPIKey:         getEnv("GEMINI_API_KEY", ""),
		GenModel:         getEnv("GEN_MODEL", "gemini-2.0-flash"),
		Port:             getEnv("PORT", "3000"),
		AllowedOrigins:   getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		MaxDocumentChars: getEnvInt("MAX_DOCUMENT_CHARS", 15000),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_BYTES", 52<<20)),
		TempDir:          getEnv("TEMP_DIR", ""),
		RequestTimeout:   getEnvDuration("REQUEST_TIMEOUT", 60*time.Second),
		LogLevel:         getEnvLevel("LOG_LEVEL", slog.LevelInfo),
		AwsAccessKey:     getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:     getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:        getEnv("AWS_REGION", "us-east-2"),
		BucketName:       getEnv("BUCKET_NAME", ""),
	}
}

// Validate reports every missing or out-of-range setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.AIAPIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY not set"))
	}
	if c.MaxDocumentChars <= 0 {
		errs = append(errs, fmt.Errorf("MAX_DOCUMENT_CHARS must be positive, got %d", c.MaxDocumentChars))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout))
	}
	return errors.Join(errs...)
}

// ObjectStorageEnabled reports whether S3 document intake is configured.
func (c *Config) ObjectStorageEnabled() bool {
	return c.AwsAccessKey != "" && c.AwsSecretKey != "" && c.BucketName != ""
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config value not an int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config value not a duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getEnvLevel(key string, def slog.Level) slog.Level {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		slog.Warn("config value not a log level, using default", "key", key, "value", v)
		return def
	}
	return l
}
