package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	JWT         JWTConfig         `yaml:"jwt"`
	Log         LogConfig         `yaml:"log"`
	Payment     PaymentConfig     `yaml:"payment"`
	Notify      NotifyConfig      `yaml:"notify"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	RabbitMQ    RabbitMQConfig    `yaml:"rabbitmq"`
	Reservation ReservationConfig `yaml:"reservation"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
}

// ServerConfig contains the HTTP API and gRPC health listener settings
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	HealthPort     int      `yaml:"health_port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig selects the store. Driver "memory" ignores the connection fields.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "postgres" or "memory"
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	Migrate  bool   `yaml:"migrate"`
}

// JWTConfig contains the identity provider's signing secret
type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// PaymentConfig selects the checkout provider
type PaymentConfig struct {
	Provider       string `yaml:"provider"` // "mock" or "http"
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	WebhookSecret  string `yaml:"webhook_secret"`
}

// NotifyConfig contains SendGrid settings. Without an API key notifications
// are only logged.
type NotifyConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	From           string `yaml:"from"`
	FromName       string `yaml:"from_name"`
}

// KafkaConfig contains the reservation event publisher settings
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// RabbitMQConfig contains the payment notification consumer settings
type RabbitMQConfig struct {
	Enabled    bool   `yaml:"enabled"`
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	Queue      string `yaml:"queue"`
	RoutingKey string `yaml:"routing_key"`
	Prefetch   int    `yaml:"prefetch"`
}

// ReservationConfig contains reservation lifecycle settings
type ReservationConfig struct {
	AbandonAfterMinutes int `yaml:"abandon_after_minutes"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	DeleteAbandoned string `yaml:"delete_abandoned"`
	LapseConfirmed  string `yaml:"lapse_confirmed"`
	MarkNotReturned string `yaml:"mark_not_returned"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_DRIVER"); val != "" {
		c.Database.Driver = val
	}
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Payment
	if val := os.Getenv("PAYMENT_API_KEY"); val != "" {
		c.Payment.APIKey = val
	}
	if val := os.Getenv("PAYMENT_WEBHOOK_SECRET"); val != "" {
		c.Payment.WebhookSecret = val
	}

	// Messaging
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Notify.SendGridAPIKey = val
	}
	if val := os.Getenv("KAFKA_BROKERS"); val != "" {
		c.Kafka.Brokers = strings.Split(val, ",")
	}
	if val := os.Getenv("RABBITMQ_URL"); val != "" {
		c.RabbitMQ.URL = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.HealthPort == 0 {
		c.Server.HealthPort = c.Server.Port + 1
	}
	if c.Server.HealthPort < 0 || c.Server.HealthPort > 65535 || c.Server.HealthPort == c.Server.Port {
		return fmt.Errorf("invalid health port: %d", c.Server.HealthPort)
	}

	// Database validation
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	switch c.Database.Driver {
	case "memory":
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	default:
		return fmt.Errorf("unknown database driver: %q", c.Database.Driver)
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}

	// Payment validation
	if c.Payment.Provider == "" {
		c.Payment.Provider = "mock"
	}
	switch c.Payment.Provider {
	case "mock":
	case "http":
		if c.Payment.BaseURL == "" {
			return fmt.Errorf("payment base url is required for the http provider")
		}
		if c.Payment.WebhookSecret == "" {
			return fmt.Errorf("payment webhook secret is required for the http provider")
		}
	default:
		return fmt.Errorf("unknown payment provider: %q", c.Payment.Provider)
	}
	if c.Payment.TimeoutSeconds <= 0 {
		c.Payment.TimeoutSeconds = 10
	}

	// Notification validation
	if c.Notify.SendGridAPIKey != "" && c.Notify.From == "" {
		return fmt.Errorf("notify from address is required with SendGrid")
	}
	if c.Notify.FromName == "" {
		c.Notify.FromName = "BranchRent"
	}

	// Messaging validation
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			c.Kafka.Topic = "reservation-events"
		}
	}
	if c.RabbitMQ.Enabled {
		if c.RabbitMQ.URL == "" {
			return fmt.Errorf("rabbitmq url is required when rabbitmq is enabled")
		}
		if c.RabbitMQ.Exchange == "" {
			c.RabbitMQ.Exchange = "payments"
		}
		if c.RabbitMQ.Queue == "" {
			c.RabbitMQ.Queue = "reservation-payments"
		}
		if c.RabbitMQ.RoutingKey == "" {
			c.RabbitMQ.RoutingKey = "payment.status.#"
		}
		if c.RabbitMQ.Prefetch <= 0 {
			c.RabbitMQ.Prefetch = 10
		}
	}

	// Reservation defaults
	if c.Reservation.AbandonAfterMinutes < 0 {
		return fmt.Errorf("invalid abandon_after_minutes: %d", c.Reservation.AbandonAfterMinutes)
	}
	if c.Reservation.AbandonAfterMinutes == 0 {
		c.Reservation.AbandonAfterMinutes = 30
	}

	// Scheduler defaults
	if c.Scheduler.DeleteAbandoned == "" {
		c.Scheduler.DeleteAbandoned = "0 */5 * * * *" // Every 5 minutes
	}
	if c.Scheduler.LapseConfirmed == "" {
		c.Scheduler.LapseConfirmed = "0 5 0 * * *" // 00:05 UTC
	}
	if c.Scheduler.MarkNotReturned == "" {
		c.Scheduler.MarkNotReturned = "0 10 0 * * *" // 00:10 UTC
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP API address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetHealthAddress returns the gRPC health service address
func (c *Config) GetHealthAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HealthPort)
}

// AbandonAfter is how long a reservation may stay unpaid
func (c *Config) AbandonAfter() time.Duration {
	return time.Duration(c.Reservation.AbandonAfterMinutes) * time.Minute
}

// PaymentTimeout bounds a single checkout call
func (c *Config) PaymentTimeout() time.Duration {
	return time.Duration(c.Payment.TimeoutSeconds) * time.Second
}
