package config

import (
	"errors"
	"io/fs"
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

	Mongo          MongoConfig
	Database       DatabaseConfig
	Ledger         LedgerConfig
	Redis          RedisConfig
	JWT            JWTConfig
	CORS           CORSConfig
	Log            LogConfig
	Storage        StorageConfig
	Verification   VerificationConfig
	RateLimit      RateLimitConfig
	Cache          CacheConfig
	Reconciliation ReconciliationConfig
}

// MongoConfig points at the document store holding issues, users and pledges.
type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
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

// LedgerConfig toggles the Postgres points ledger.
type LedgerConfig struct {
	Enabled bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig controls where uploaded images live and how they are normalised.
type StorageConfig struct {
	Dir               string
	PublicBaseURL     string
	MaxFileSize       int64
	AllowedExtensions []string
	MaxWidth          int
	MaxHeight         int
	JPEGQuality       int
}

// VerificationConfig holds the GPS proof threshold.
type VerificationConfig struct {
	MaxDistanceMeters float64
}

// RateLimitConfig bounds how many issues a user may report per window.
type RateLimitConfig struct {
	Enabled    bool
	IssueLimit int
	Window     time.Duration
	Prefix     string
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// ReconciliationConfig tunes the pledge distribution retry queue.
type ReconciliationConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Mongo = MongoConfig{
		URI:      v.GetString("MONGODB_URI"),
		Database: v.GetString("MONGODB_DATABASE"),
		Timeout:  parseDuration(v.GetString("MONGODB_TIMEOUT"), 10*time.Second),
	}

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

	cfg.Ledger = LedgerConfig{Enabled: v.GetBool("ENABLE_POINTS_LEDGER")}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxFileSize := v.GetInt64("MAX_FILE_SIZE")
	if maxFileSize <= 0 {
		maxFileSize = 5 * 1024 * 1024
	}
	cfg.Storage = StorageConfig{
		Dir:               v.GetString("UPLOAD_DIR"),
		PublicBaseURL:     strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		MaxFileSize:       maxFileSize,
		AllowedExtensions: splitAndTrim(v.GetString("ALLOWED_EXTENSIONS")),
		MaxWidth:          v.GetInt("IMAGE_MAX_WIDTH"),
		MaxHeight:         v.GetInt("IMAGE_MAX_HEIGHT"),
		JPEGQuality:       v.GetInt("IMAGE_JPEG_QUALITY"),
	}

	maxDistance := v.GetFloat64("MAX_VERIFICATION_DISTANCE")
	if maxDistance <= 0 {
		maxDistance = 100
	}
	cfg.Verification = VerificationConfig{MaxDistanceMeters: maxDistance}

	cfg.RateLimit = RateLimitConfig{
		Enabled:    v.GetBool("ENABLE_ISSUE_RATE_LIMIT"),
		IssueLimit: v.GetInt("ISSUE_RATE_LIMIT"),
		Window:     parseDuration(v.GetString("ISSUE_RATE_LIMIT_WINDOW"), 24*time.Hour),
		Prefix:     v.GetString("ISSUE_RATE_LIMIT_PREFIX"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	cfg.Reconciliation = ReconciliationConfig{
		Workers:    v.GetInt("RECONCILE_WORKERS"),
		MaxRetries: v.GetInt("RECONCILE_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("RECONCILE_RETRY_DELAY"), 5*time.Second),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8000)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "tankas")
	v.SetDefault("MONGODB_TIMEOUT", "10s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "tankas_ledger")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("ENABLE_POINTS_LEDGER", false)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8000")
	v.SetDefault("MAX_FILE_SIZE", 5242880)
	v.SetDefault("ALLOWED_EXTENSIONS", "jpg,jpeg,png,webp")
	v.SetDefault("IMAGE_MAX_WIDTH", 1920)
	v.SetDefault("IMAGE_MAX_HEIGHT", 1080)
	v.SetDefault("IMAGE_JPEG_QUALITY", 85)

	v.SetDefault("MAX_VERIFICATION_DISTANCE", 100)

	v.SetDefault("ENABLE_ISSUE_RATE_LIMIT", false)
	v.SetDefault("ISSUE_RATE_LIMIT", 10)
	v.SetDefault("ISSUE_RATE_LIMIT_WINDOW", "24h")
	v.SetDefault("ISSUE_RATE_LIMIT_PREFIX", "ratelimit:issues")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("RECONCILE_WORKERS", 1)
	v.SetDefault("RECONCILE_MAX_RETRIES", 5)
	v.SetDefault("RECONCILE_RETRY_DELAY", "5s")
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
