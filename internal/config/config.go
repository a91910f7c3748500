// internal/config/config.go
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string `json:"environment"`
	Database    struct {
		Host         string        `json:"host"`
		Port         string        `json:"port"`
		User         string        `json:"user"`
		Password     string        `json:"password"`
		Name         string        `json:"name"`
		SSLMode      string        `json:"sslmode"`
		SearchPath   string        `json:"schema"`
		MaxOpenConns int           `json:"max_open_conns"`
		MaxIdleConns int           `json:"max_idle_conns"`
		ConnLifetime time.Duration `json:"conn_lifetime"`
	} `json:"database"`
	Permify struct {
		Host    string `json:"host"`
		Tenant  string `json:"tenant"`
		Enabled bool   `json:"enabled"`
	} `json:"permify"`
	JWT struct {
		Secret       string        `json:"secret"`
		ExpiryPeriod time.Duration `json:"expiry_period"`
	} `json:"jwt"`
	Server struct {
		Port           string        `json:"port"`
		ReadTimeout    time.Duration `json:"read_timeout"`
		WriteTimeout   time.Duration `json:"write_timeout"`
		AllowedOrigins []string      `json:"allowed_origins"`
	} `json:"server"`
	Email struct {
		Provider string `json:"provider"`
		From     string `json:"from"`
		FromName string `json:"from_name"`
	} `json:"email"`
	Sendgrid struct {
		APIKey string `json:"api_key"`
		From   string `json:"from"`
	} `json:"sendgrid"`
	SMTP struct {
		Host     string `json:"host"`
		Port     int    `json:"port"`
		Username string `json:"username"`
		Password string `json:"password"`
	} `json:"smtp"`
	Redis struct {
		Addr     string `json:"addr"`
		Password string `json:"password"`
		DB       int    `json:"db"`
	} `json:"redis"`
	Kafka struct {
		Brokers []string `json:"brokers"`
		Topic   string   `json:"topic"`
	} `json:"kafka"`
	Cloudinary struct {
		URL    string `json:"url"`
		Folder string `json:"folder"`
	} `json:"cloudinary"`
	Rollbar struct {
		Token string `json:"token"`
	} `json:"rollbar"`
	RateLimit struct {
		Applications int           `json:"applications"`
		Window       time.Duration `json:"window"`
	} `json:"rate_limit"`
	Cache struct {
		TTL         time.Duration `json:"ttl"`
		CleanupFreq time.Duration `json:"cleanup_freq"`
	} `json:"cache"`
	Live struct {
		Channel string `json:"channel"`
	} `json:"live"`
	Closer struct {
		Interval  time.Duration `json:"interval"`
		BatchSize int           `json:"batch_size"`
		DryRun    bool          `json:"dry_run"`
	} `json:"closer"`
	BaseURL string `json:"base_url"`
}

// Production reports whether the service runs in production.
func (c *Config) Production() bool {
	return c.Environment == "production"
}

// Load reads configuration from the environment. Outside production a .env
// file in the working directory is loaded first when present; variables
// already set in the environment win.
func Load() *Config {
	if os.Getenv("ENV") != "production" {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			slog.Warn("Could not load .env file", "error", err)
		}
	}

	cfg := &Config{}
	cfg.Environment = getEnv("ENV", "development")

	// Database configuration
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnv("DB_PORT", "5432")
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "")
	cfg.Database.Name = getEnv("DB_NAME", "pathway")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.SearchPath = getEnv("DB_SCHEMA", "public")
	cfg.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 100)
	cfg.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 10)
	cfg.Database.ConnLifetime = getEnvDuration("DB_CONN_LIFETIME", time.Hour)

	// Permify is optional; the built-in lifecycle guard always applies.
	cfg.Permify.Host = getEnv("PERMIFY_HOST", "localhost:3478")
	cfg.Permify.Tenant = getEnv("PERMIFY_TENANT", "t1")
	cfg.Permify.Enabled = getEnvBool("PERMIFY_ENABLED", false)

	// JWT configuration
	cfg.JWT.Secret = getEnv("JWT_SECRET", "your-secret-key")
	cfg.JWT.ExpiryPeriod = getEnvDuration("JWT_EXPIRY", 24*time.Hour)

	// Email configuration
	cfg.Email.Provider = getEnv("EMAIL_PROVIDER", "smtp")
	cfg.Email.From = getEnv("EMAIL_FROM", "no-reply@pathway.local")
	cfg.Email.FromName = getEnv("EMAIL_FROM_NAME", "Pathway")
	cfg.Sendgrid.APIKey = getEnv("SENDGRID_API_KEY", "")
	cfg.Sendgrid.From = getEnv("SENDGRID_FROM", cfg.Email.From)
	cfg.SMTP.Host = getEnv("SMTP_HOST", "localhost")
	cfg.SMTP.Port = getEnvInt("SMTP_PORT", 1025)
	cfg.SMTP.Username = getEnv("SMTP_USERNAME", "")
	cfg.SMTP.Password = getEnv("SMTP_PASSWORD", "")

	// Optional infrastructure. Empty values disable the component.
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)
	cfg.Kafka.Brokers = getEnvList("KAFKA_BROKERS")
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", "application-events")
	cfg.Cloudinary.URL = getEnv("CLOUDINARY_URL", "")
	cfg.Cloudinary.Folder = getEnv("CLOUDINARY_FOLDER", "pathway/documents")
	cfg.Rollbar.Token = getEnv("ROLLBAR_TOKEN", "")

	cfg.RateLimit.Applications = getEnvInt("RATE_LIMIT_APPLICATIONS", 10)
	cfg.RateLimit.Window = getEnvDuration("RATE_LIMIT_WINDOW", time.Minute)

	cfg.Cache.TTL = getEnvDuration("CACHE_TTL", 5*time.Minute)
	cfg.Cache.CleanupFreq = getEnvDuration("CACHE_CLEANUP_FREQ", time.Minute)

	cfg.Live.Channel = getEnv("LIVE_CHANNEL", "application_changes")

	cfg.Closer.Interval = getEnvDuration("CLOSER_INTERVAL", 10*time.Minute)
	cfg.Closer.BatchSize = getEnvInt("CLOSER_BATCH_SIZE", 100)
	cfg.Closer.DryRun = getEnvBool("CLOSER_DRY_RUN", false)

	// Server configuration
	cfg.Server.Port = getEnv("SERVER_PORT", "8080")
	cfg.Server.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	cfg.Server.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	cfg.Server.AllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS")
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}

	cfg.BaseURL = getEnv("BASE_URL", "http://localhost:8080")

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

// getEnvList splits a comma separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, ""), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
