package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// PivotConfig points at the document-processing backend that tracks usage
// and renders signed PDFs.
type PivotConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ShareConfig drives share links and the defaults of the share settings.
type ShareConfig struct {
	ClientURL     string
	AllowReorder  bool
	MaxUploadSize int
}

// MailConfig is the SMTP relay used for signature requests and reminders.
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Enabled  bool
}

// SchedulerConfig controls the background expiry/reminder/cleanup loop.
type SchedulerConfig struct {
	Interval time.Duration
	TempTTL  time.Duration
	Enabled  bool
}

// RateLimitConfig throttles the public share endpoints per client IP.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost   string
	Port      string
	TimeZone  string
	LogLevel  string
	Database  DatabaseConfig
	MinIO     MinIOConfig
	Pivot     PivotConfig
	Share     ShareConfig
	Mail      MailConfig
	Scheduler SchedulerConfig
	RateLimit RateLimitConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// Real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"),
		TimeZone: getEnv("APP_TIMEZONE", "Asia/Jakarta"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Pivot: PivotConfig{
			BaseURL: getEnv("PIVOT_BASE_URL", "http://localhost:5000"),
			Timeout: getEnvDuration("PIVOT_TIMEOUT", 60*time.Second),
		},
		Share: ShareConfig{
			ClientURL:     getEnv("CLIENT_URL", "http://localhost:5173"),
			AllowReorder:  getEnvBool("SHARE_ALLOW_REORDER", true),
			MaxUploadSize: getEnvInt("MAX_UPLOAD_SIZE_MB", 25),
		},
		Mail: MailConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "PdfPivot <info@pdfpivot.com>"),
			Enabled:  getEnvBool("SMTP_ENABLED", false),
		},
		Scheduler: SchedulerConfig{
			Interval: getEnvPositiveDuration("SCHEDULER_INTERVAL", time.Hour),
			TempTTL:  getEnvDuration("TEMP_UPLOAD_TTL", 24*time.Hour),
			Enabled:  getEnvBool("SCHEDULER_ENABLED", true),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
			Burst: getEnvInt("RATE_LIMIT_BURST", 10),
		},
	}
}

// Location resolves TimeZone, falling back to UTC when it is unknown.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

// getEnvPositiveDuration is getEnvDuration with zero and negative values
// replaced by def.
func getEnvPositiveDuration(key string, def time.Duration) time.Duration {
	if d := getEnvDuration(key, def); d > 0 {
		return d
	}
	return def
}
