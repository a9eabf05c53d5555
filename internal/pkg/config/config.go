// internal/pkg/config/config.go
package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration of the api and worker binaries.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Asynq    AsynqConfig
	AWS      AWSConfig
	Files    FilesConfig
	Security SecurityConfig
	Server   ServerConfig
	Billing  BillingConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Version     string
	LogLevel    string
	LogFormat   string `validate:"omitempty,oneof=json text"`
	Debug       bool
}

type DatabaseConfig struct {
	Host              string
	Port              string
	User              string
	Password          string
	Name              string
	SSLMode           string `validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	MaxConnections    int32
	MinConnections    int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	ConnectTimeout    time.Duration
	LockTimeout       time.Duration
	MigrateOnStart    bool
}

type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int `validate:"gt=0"`
	MinIdleConns int
	// BillTTL bounds how long an immutable bill stays in the read cache.
	BillTTL time.Duration
}

type AsynqConfig struct {
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	Concurrency     int            `validate:"gte=0"`
	Queues          map[string]int // queue name -> priority
	StrictPriority  bool
	RetryMax        int
	ShutdownTimeout time.Duration
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	S3Endpoint      string // MinIO in development
	UsePathStyle    bool
	// SecretName, when set, is resolved through Secrets Manager at startup.
	SecretName string
}

// FilesConfig covers receipts and stock import sheets.
type FilesConfig struct {
	UseLocalStorage bool
	LocalDir        string
	ImportMaxSizeMB int
	TempDir         string
	TempMaxAge      time.Duration
}

type SecurityConfig struct {
	JWTSecret         string
	RateLimitRequests int
	RateLimitDuration time.Duration
	AllowedOrigins    []string `validate:"dive,required"`
	SecureHeaders     bool
	RequestIDHeader   string
}

type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	MaxHeaderBytes  int
	GracefulTimeout time.Duration
	EnableMetrics   bool
}

// BillingConfig tunes the bill transaction.
type BillingConfig struct {
	ConflictRetries int           `validate:"gte=0"`
	RetryBackoff    time.Duration `validate:"gte=0"`
	MaxItems        int
}

// Load reads configuration from the environment (and .env outside production).
func Load(logger *slog.Logger) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	env := v.GetString("APP_ENV")
	if env == "development" || env == "local" {
		if err := godotenv.Load(); err != nil {
			logger.Warn("no .env file found, using environment variables",
				slog.String("error", err.Error()))
		} else {
			logger.Info(".env file loaded")
		}
	}

	cfg := &Config{
		App: AppConfig{
			Name:        v.GetString("APP_NAME"),
			Environment: env,
			Version:     v.GetString("APP_VERSION"),
			LogLevel:    v.GetString("LOG_LEVEL"),
			LogFormat:   v.GetString("LOG_FORMAT"),
			Debug:       boolOr(v, "APP_DEBUG", env == "development"),
		},
		Database: DatabaseConfig{
			Host:              v.GetString("DB_HOST"),
			Port:              v.GetString("DB_PORT"),
			User:              v.GetString("DB_USER"),
			Password:          v.GetString("DB_PASSWORD"),
			Name:              v.GetString("DB_NAME"),
			SSLMode:           v.GetString("DB_SSL_MODE"),
			MaxConnections:    v.GetInt32("DB_MAX_CONNECTIONS"),
			MinConnections:    v.GetInt32("DB_MIN_CONNECTIONS"),
			MaxConnLifetime:   v.GetDuration("DB_CONNECTION_LIFETIME"),
			MaxConnIdleTime:   v.GetDuration("DB_IDLE_TIME"),
			HealthCheckPeriod: v.GetDuration("DB_HEALTH_CHECK_PERIOD"),
			ConnectTimeout:    v.GetDuration("DB_CONNECT_TIMEOUT"),
			LockTimeout:       v.GetDuration("DB_LOCK_TIMEOUT"),
			MigrateOnStart:    v.GetBool("DB_MIGRATE_ON_START"),
		},
		Redis: RedisConfig{
			Host:         v.GetString("REDIS_HOST"),
			Port:         v.GetString("REDIS_PORT"),
			Password:     v.GetString("REDIS_PASSWORD"),
			DB:           v.GetInt("REDIS_DB"),
			MaxRetries:   v.GetInt("REDIS_MAX_RETRIES"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
			BillTTL:      v.GetDuration("REDIS_BILL_TTL"),
		},
		Asynq: AsynqConfig{
			RedisAddr:       fmt.Sprintf("%s:%s", v.GetString("REDIS_HOST"), v.GetString("REDIS_PORT")),
			RedisPassword:   v.GetString("REDIS_PASSWORD"),
			RedisDB:         v.GetInt("ASYNQ_REDIS_DB"),
			Concurrency:     v.GetInt("ASYNQ_CONCURRENCY"),
			Queues:          parseQueues(v.GetString("ASYNQ_QUEUES")),
			StrictPriority:  v.GetBool("ASYNQ_STRICT_PRIORITY"),
			RetryMax:        v.GetInt("ASYNQ_RETRY_MAX"),
			ShutdownTimeout: v.GetDuration("ASYNQ_SHUTDOWN_TIMEOUT"),
		},
		AWS: AWSConfig{
			Region:          v.GetString("AWS_REGION"),
			AccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
			S3Bucket:        v.GetString("AWS_S3_BUCKET"),
			S3Endpoint:      v.GetString("AWS_S3_ENDPOINT"),
			UsePathStyle:    boolOr(v, "AWS_S3_PATH_STYLE", env == "development"),
			SecretName:      v.GetString("AWS_SECRET_NAME"),
		},
		Files: FilesConfig{
			UseLocalStorage: boolOr(v, "USE_LOCAL_STORAGE", env == "development"),
			LocalDir:        v.GetString("LOCAL_STORAGE_DIR"),
			ImportMaxSizeMB: v.GetInt("IMPORT_MAX_SIZE_MB"),
			TempDir:         v.GetString("TEMP_DIR"),
			TempMaxAge:      v.GetDuration("TEMP_MAX_AGE"),
		},
		Security: SecurityConfig{
			JWTSecret:         v.GetString("JWT_SECRET"),
			RateLimitRequests: v.GetInt("RATE_LIMIT_REQUESTS"),
			RateLimitDuration: v.GetDuration("RATE_LIMIT_DURATION"),
			AllowedOrigins:    splitList(v.GetString("ALLOWED_ORIGINS")),
			SecureHeaders:     boolOr(v, "SECURE_HEADERS", env == "production"),
			RequestIDHeader:   v.GetString("REQUEST_ID_HEADER"),
		},
		Server: ServerConfig{
			Host:            v.GetString("SERVER_HOST"),
			Port:            v.GetString("SERVER_PORT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("SERVER_IDLE_TIMEOUT"),
			RequestTimeout:  v.GetDuration("SERVER_REQUEST_TIMEOUT"),
			MaxHeaderBytes:  v.GetInt("SERVER_MAX_HEADER_BYTES"),
			GracefulTimeout: v.GetDuration("SERVER_GRACEFUL_TIMEOUT"),
			EnableMetrics:   v.GetBool("ENABLE_METRICS"),
		},
		Billing: BillingConfig{
			ConflictRetries: v.GetInt("BILLING_CONFLICT_RETRIES"),
			RetryBackoff:    v.GetDuration("BILLING_RETRY_BACKOFF"),
			MaxItems:        v.GetInt("BILLING_MAX_ITEMS"),
		},
	}

	if cfg.Security.JWTSecret == "" && env != "production" {
		cfg.Security.JWTSecret = "development-secret-change-in-production"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the invariants every environment needs.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Database.MaxConnections < c.Database.MinConnections {
		return fmt.Errorf("max connections must be >= min connections")
	}
	if c.Security.RateLimitRequests <= 0 {
		return fmt.Errorf("rate limit requests must be positive")
	}
	if c.Billing.ConflictRetries < 0 {
		return fmt.Errorf("billing conflict retries must not be negative")
	}
	if c.Billing.MaxItems <= 0 {
		return fmt.Errorf("billing max items must be positive")
	}
	return nil
}

// GetDatabaseURL returns the postgres connection string.
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "local"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "pharmabook-api")
	v.SetDefault("APP_VERSION", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "pharmabook")
	v.SetDefault("DB_PASSWORD", "pharmabook_dev")
	v.SetDefault("DB_NAME", "pharmabook")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_CONNECTIONS", 25)
	v.SetDefault("DB_MIN_CONNECTIONS", 5)
	v.SetDefault("DB_CONNECTION_LIFETIME", time.Hour)
	v.SetDefault("DB_IDLE_TIME", 30*time.Minute)
	v.SetDefault("DB_HEALTH_CHECK_PERIOD", time.Minute)
	v.SetDefault("DB_CONNECT_TIMEOUT", 10*time.Second)
	v.SetDefault("DB_LOCK_TIMEOUT", 5*time.Second)
	v.SetDefault("DB_MIGRATE_ON_START", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
	v.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
	v.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 2)
	v.SetDefault("REDIS_BILL_TTL", 24*time.Hour)

	v.SetDefault("ASYNQ_REDIS_DB", 0)
	v.SetDefault("ASYNQ_CONCURRENCY", 10)
	v.SetDefault("ASYNQ_QUEUES", "critical:6,default:3,low:1")
	v.SetDefault("ASYNQ_RETRY_MAX", 3)
	v.SetDefault("ASYNQ_SHUTDOWN_TIMEOUT", 30*time.Second)

	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ACCESS_KEY_ID", "minioadmin")
	v.SetDefault("AWS_SECRET_ACCESS_KEY", "minioadmin123")
	v.SetDefault("AWS_S3_BUCKET", "pharmabook-files")

	v.SetDefault("LOCAL_STORAGE_DIR", "./storage")
	v.SetDefault("IMPORT_MAX_SIZE_MB", 20)
	v.SetDefault("TEMP_DIR", "/tmp")
	v.SetDefault("TEMP_MAX_AGE", 24*time.Hour)

	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_DURATION", time.Minute)
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("REQUEST_ID_HEADER", "X-Request-ID")

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("SERVER_REQUEST_TIMEOUT", 10*time.Second)
	v.SetDefault("SERVER_MAX_HEADER_BYTES", 1<<20)
	v.SetDefault("SERVER_GRACEFUL_TIMEOUT", 30*time.Second)
	v.SetDefault("ENABLE_METRICS", true)

	v.SetDefault("BILLING_CONFLICT_RETRIES", 2)
	v.SetDefault("BILLING_RETRY_BACKOFF", 50*time.Millisecond)
	v.SetDefault("BILLING_MAX_ITEMS", 100)
}

// boolOr returns def unless key is explicitly set.
func boolOr(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	b, err := strconv.ParseBool(v.GetString(key))
	if err != nil {
		return def
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseQueues(queuesStr string) map[string]int {
	queues := make(map[string]int)
	for _, pair := range strings.Split(queuesStr, ",") {
		parts := strings.Split(pair, ":")
		if len(parts) != 2 {
			continue
		}
		priority, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err == nil {
			queues[strings.TrimSpace(parts[0])] = priority
		}
	}
	if len(queues) == 0 {
		queues["default"] = 1
	}
	return queues
}
