package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"finrecon/internal/recon"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	S3     S3Config
	Log    LogConfig
	CORS   CORSConfig
	Recon  ReconConfig
	Worker WorkerConfig
	Email  EmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings for report archival.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ReconConfig holds matching and classification thresholds.
type ReconConfig struct {
	AmountTolerance         float64 `mapstructure:"amount_tolerance"`
	RoundingThreshold       float64 `mapstructure:"rounding_threshold"`
	FuzzyAmountTolerancePct float64 `mapstructure:"fuzzy_amount_tolerance_pct"`
	FuzzyMaxDistanceRatio   float64 `mapstructure:"fuzzy_max_distance_ratio"`
	FuzzyConfidenceCap      float64 `mapstructure:"fuzzy_confidence_cap"`
}

// Engine converts the flat threshold settings into a validated engine
// configuration.
func (r *ReconConfig) Engine() (recon.Config, error) {
	cfg := recon.Config{
		AmountTolerance:         decimal.NewFromFloat(r.AmountTolerance),
		RoundingThreshold:       decimal.NewFromFloat(r.RoundingThreshold),
		FuzzyAmountTolerancePct: decimal.NewFromFloat(r.FuzzyAmountTolerancePct),
		FuzzyMaxDistanceRatio:   r.FuzzyMaxDistanceRatio,
		FuzzyConfidenceCap:      r.FuzzyConfidenceCap,
	}
	if err := cfg.Validate(); err != nil {
		return recon.Config{}, err
	}
	return cfg, nil
}

// WorkerConfig holds reconciliation queue worker settings.
type WorkerConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	Concurrency      int `mapstructure:"concurrency"`
	RunTimeoutSecs   int `mapstructure:"run_timeout_secs"`
}

// EmailConfig holds vendor follow-up email settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

// Load reads configuration from environment variables with the FINRECON_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FINRECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "finrecon")
	v.SetDefault("db.password", "finrecon_secret")
	v.SetDefault("db.name", "finrecon_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "ap-south-1")
	v.SetDefault("s3.bucket", "finrecon-reports")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Recon threshold defaults, mirroring recon.DefaultConfig
	v.SetDefault("recon.amount_tolerance", 1.0)
	v.SetDefault("recon.rounding_threshold", 10.0)
	v.SetDefault("recon.fuzzy_amount_tolerance_pct", 0.02)
	v.SetDefault("recon.fuzzy_max_distance_ratio", 0.35)
	v.SetDefault("recon.fuzzy_confidence_cap", 0.9)

	// Worker defaults
	v.SetDefault("worker.poll_interval_secs", 10)
	v.SetDefault("worker.concurrency", 3)
	v.SetDefault("worker.run_timeout_secs", 300)

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "ap-south-1")
	v.SetDefault("email.from_address", "noreply@finrecon.in")
	v.SetDefault("email.from_name", "FinRecon")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                      "FINRECON_SERVER_PORT",
		"server.read_timeout":              "FINRECON_SERVER_READ_TIMEOUT",
		"server.write_timeout":             "FINRECON_SERVER_WRITE_TIMEOUT",
		"server.environment":               "FINRECON_SERVER_ENVIRONMENT",
		"db.host":                          "FINRECON_DB_HOST",
		"db.port":                          "FINRECON_DB_PORT",
		"db.user":                          "FINRECON_DB_USER",
		"db.password":                      "FINRECON_DB_PASSWORD",
		"db.name":                          "FINRECON_DB_NAME",
		"db.sslmode":                       "FINRECON_DB_SSLMODE",
		"db.max_open":                      "FINRECON_DB_MAX_OPEN",
		"db.max_idle":                      "FINRECON_DB_MAX_IDLE",
		"s3.region":                        "FINRECON_S3_REGION",
		"s3.bucket":                        "FINRECON_S3_BUCKET",
		"s3.endpoint":                      "FINRECON_S3_ENDPOINT",
		"s3.access_key":                    "FINRECON_S3_ACCESS_KEY",
		"s3.secret_key":                    "FINRECON_S3_SECRET_KEY",
		"s3.presign_expiry":                "FINRECON_S3_PRESIGN_EXPIRY",
		"log.level":                        "FINRECON_LOG_LEVEL",
		"log.format":                       "FINRECON_LOG_FORMAT",
		"cors.allowed_origins":             "FINRECON_CORS_ALLOWED_ORIGINS",
		"recon.amount_tolerance":           "FINRECON_RECON_AMOUNT_TOLERANCE",
		"recon.rounding_threshold":         "FINRECON_RECON_ROUNDING_THRESHOLD",
		"recon.fuzzy_amount_tolerance_pct": "FINRECON_RECON_FUZZY_AMOUNT_TOLERANCE_PCT",
		"recon.fuzzy_max_distance_ratio":   "FINRECON_RECON_FUZZY_MAX_DISTANCE_RATIO",
		"recon.fuzzy_confidence_cap":       "FINRECON_RECON_FUZZY_CONFIDENCE_CAP",
		"worker.poll_interval_secs":        "FINRECON_WORKER_POLL_INTERVAL_SECS",
		"worker.concurrency":               "FINRECON_WORKER_CONCURRENCY",
		"worker.run_timeout_secs":          "FINRECON_WORKER_RUN_TIMEOUT_SECS",
		"email.provider":                   "FINRECON_EMAIL_PROVIDER",
		"email.region":                     "FINRECON_EMAIL_REGION",
		"email.from_address":               "FINRECON_EMAIL_FROM_ADDRESS",
		"email.from_name":                  "FINRECON_EMAIL_FROM_NAME",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if FINRECON_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("FINRECON_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Recon = ReconConfig{
		AmountTolerance:         v.GetFloat64("recon.amount_tolerance"),
		RoundingThreshold:       v.GetFloat64("recon.rounding_threshold"),
		FuzzyAmountTolerancePct: v.GetFloat64("recon.fuzzy_amount_tolerance_pct"),
		FuzzyMaxDistanceRatio:   v.GetFloat64("recon.fuzzy_max_distance_ratio"),
		FuzzyConfidenceCap:      v.GetFloat64("recon.fuzzy_confidence_cap"),
	}
	// Threshold errors surface at startup, not at the first run.
	if _, err := cfg.Recon.Engine(); err != nil {
		return nil, err
	}

	cfg.Worker = WorkerConfig{
		PollIntervalSecs: v.GetInt("worker.poll_interval_secs"),
		Concurrency:      v.GetInt("worker.concurrency"),
		RunTimeoutSecs:   v.GetInt("worker.run_timeout_secs"),
	}

	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
	}

	return cfg, nil
}
