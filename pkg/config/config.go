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

// Final approval modes for enrollment records.
const (
	FinalApprovalManual  = "manual"
	FinalApprovalDerived = "derived"
)

type Config struct {
	Env        string
	Port       int
	APIPrefix  string
	EnableDocs bool

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Reference  ReferenceConfig
	Admissions AdmissionsConfig
	Stats      StatsConfig
	Enrollment EnrollmentConfig
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

// JWTConfig only covers verification; tokens are issued by the identity service.
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

// ReferenceConfig tunes the read-through cache for slowly changing lookups.
type ReferenceConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// AdmissionsConfig points at the external admissions system.
type AdmissionsConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// StatsConfig drives the statistics refresh job.
type StatsConfig struct {
	RefreshCron string
	SnapshotTTL time.Duration
}

// EnrollmentConfig selects how the final approval flag is maintained.
type EnrollmentConfig struct {
	FinalApprovalMode string
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.EnableDocs = v.GetBool("ENABLE_DOCS")

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
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Reference = ReferenceConfig{
		CacheEnabled: v.GetBool("ENABLE_REFERENCE_CACHE"),
		CacheTTL:     parseDuration(v.GetString("REFERENCE_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Admissions = AdmissionsConfig{
		BaseURL:    strings.TrimRight(v.GetString("ADMISSIONS_BASE_URL"), "/"),
		APIKey:     v.GetString("ADMISSIONS_API_KEY"),
		Timeout:    parseDuration(v.GetString("ADMISSIONS_TIMEOUT"), 5*time.Second),
		Workers:    v.GetInt("ADMISSIONS_WORKERS"),
		MaxRetries: v.GetInt("ADMISSIONS_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("ADMISSIONS_RETRY_DELAY"), 2*time.Second),
	}

	cfg.Stats = StatsConfig{
		RefreshCron: v.GetString("STATS_REFRESH_CRON"),
		SnapshotTTL: parseDuration(v.GetString("STATS_SNAPSHOT_TTL"), 2*time.Hour),
	}

	mode := strings.ToLower(strings.TrimSpace(v.GetString("ENROLLMENT_FINAL_APPROVAL_MODE")))
	if mode != FinalApprovalDerived {
		mode = FinalApprovalManual
	}
	cfg.Enrollment = EnrollmentConfig{FinalApprovalMode: mode}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("ENABLE_DOCS", true)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "campus_sis")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_REFERENCE_CACHE", true)
	v.SetDefault("REFERENCE_CACHE_TTL", "5m")

	v.SetDefault("ADMISSIONS_BASE_URL", "")
	v.SetDefault("ADMISSIONS_API_KEY", "")
	v.SetDefault("ADMISSIONS_TIMEOUT", "5s")
	v.SetDefault("ADMISSIONS_WORKERS", 2)
	v.SetDefault("ADMISSIONS_MAX_RETRIES", 3)
	v.SetDefault("ADMISSIONS_RETRY_DELAY", "2s")

	v.SetDefault("STATS_REFRESH_CRON", "@every 15m")
	v.SetDefault("STATS_SNAPSHOT_TTL", "2h")

	v.SetDefault("ENROLLMENT_FINAL_APPROVAL_MODE", FinalApprovalManual)
}

// isMissingFile reports a missing .env; viper surfaces it as an fs error when SetConfigFile is used.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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
