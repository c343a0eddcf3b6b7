package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Extractor   ExtractorConfig
	Plagiarism  PlagiarismConfig
	Submissions SubmissionsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ExtractorConfig points at the document processing service that turns
// scanned PDFs into text.
type ExtractorConfig struct {
	BaseURL string
	Timeout time.Duration
}

// PlagiarismConfig governs the external similarity service and the
// background analysis worker.
type PlagiarismConfig struct {
	Enabled           bool
	BaseURL           string
	Timeout           time.Duration
	CacheTTL          time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// SubmissionsConfig controls artifact storage and upload validation.
type SubmissionsConfig struct {
	StorageDir       string
	SignedURLSecret  string
	SignedURLTTL     time.Duration
	MaxFileSizeBytes int64
	MaxScanPages     int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Extractor = ExtractorConfig{
		BaseURL: v.GetString("EXTRACTOR_BASE_URL"),
		Timeout: parseDuration(v.GetString("EXTRACTOR_TIMEOUT"), 2*time.Minute),
	}

	cfg.Plagiarism = PlagiarismConfig{
		Enabled:           v.GetBool("ENABLE_PLAGIARISM"),
		BaseURL:           v.GetString("PLAGIARISM_BASE_URL"),
		Timeout:           parseDuration(v.GetString("PLAGIARISM_TIMEOUT"), time.Minute),
		CacheTTL:          parseDuration(v.GetString("PLAGIARISM_CACHE_TTL"), time.Hour),
		WorkerConcurrency: v.GetInt("PLAGIARISM_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("PLAGIARISM_WORKER_RETRIES"),
	}

	maxUploadSize := v.GetInt64("SUBMISSIONS_MAX_FILE_SIZE")
	if maxUploadSize <= 0 {
		maxUploadSize = 20 * 1024 * 1024
	}
	cfg.Submissions = SubmissionsConfig{
		StorageDir:       v.GetString("SUBMISSIONS_STORAGE_DIR"),
		SignedURLSecret:  v.GetString("SUBMISSIONS_SIGNED_URL_SECRET"),
		SignedURLTTL:     parseDuration(v.GetString("SUBMISSIONS_SIGNED_URL_TTL"), 30*time.Minute),
		MaxFileSizeBytes: maxUploadSize,
		MaxScanPages:     v.GetInt("SUBMISSIONS_MAX_SCAN_PAGES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "classdesk")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("EXTRACTOR_BASE_URL", "http://localhost:5000")
	v.SetDefault("EXTRACTOR_TIMEOUT", "2m")

	v.SetDefault("ENABLE_PLAGIARISM", false)
	v.SetDefault("PLAGIARISM_BASE_URL", "http://localhost:5001")
	v.SetDefault("PLAGIARISM_TIMEOUT", "1m")
	v.SetDefault("PLAGIARISM_CACHE_TTL", "1h")
	v.SetDefault("PLAGIARISM_WORKER_CONCURRENCY", 1)
	v.SetDefault("PLAGIARISM_WORKER_RETRIES", 3)

	v.SetDefault("SUBMISSIONS_STORAGE_DIR", "./data")
	v.SetDefault("SUBMISSIONS_SIGNED_URL_SECRET", "dev_submissions_secret")
	v.SetDefault("SUBMISSIONS_SIGNED_URL_TTL", "30m")
	v.SetDefault("SUBMISSIONS_MAX_FILE_SIZE", 20*1024*1024)
	v.SetDefault("SUBMISSIONS_MAX_SCAN_PAGES", 30)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
