package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
database:
  driver: memory
jwt:
  secret: "`+secret+`"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.HealthPort)
	assert.Equal(t, "mock", cfg.Payment.Provider)
	assert.Equal(t, 10*time.Second, cfg.PaymentTimeout())
	assert.Equal(t, 30*time.Minute, cfg.AbandonAfter())
	assert.Equal(t, "0 */5 * * * *", cfg.Scheduler.DeleteAbandoned)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "BranchRent", cfg.Notify.FromName)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
database:
  driver: postgres
  host: db
  user: app
  database: rent
jwt:
  secret: "`+secret+`"
kafka:
  enabled: true
`)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://app:@db.internal:6543/rent?sslmode=disable", cfg.GetDatabaseConnectionString())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "reservation-events", cfg.Kafka.Topic)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: "memory"},
			JWT:      JWTConfig{Secret: secret},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"health port clash", func(c *Config) { c.Server.HealthPort = 8080 }, "invalid health port"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "unknown database driver"},
		{"postgres without host", func(c *Config) { c.Database.Driver = "postgres" }, "database host is required"},
		{"short secret", func(c *Config) { c.JWT.Secret = "short" }, "at least 32 characters"},
		{"http payment without url", func(c *Config) { c.Payment.Provider = "http" }, "payment base url"},
		{"http payment without webhook secret", func(c *Config) {
			c.Payment.Provider = "http"
			c.Payment.BaseURL = "https://pay.example"
		}, "webhook secret"},
		{"sendgrid without from", func(c *Config) { c.Notify.SendGridAPIKey = "SG.x" }, "from address"},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true }, "kafka brokers"},
		{"rabbitmq without url", func(c *Config) { c.RabbitMQ.Enabled = true }, "rabbitmq url"},
		{"negative abandon window", func(c *Config) { c.Reservation.AbandonAfterMinutes = -1 }, "abandon_after_minutes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	c := base()
	c.RabbitMQ = RabbitMQConfig{Enabled: true, URL: "amqp://localhost"}
	require.NoError(t, c.Validate())
	assert.Equal(t, "payments", c.RabbitMQ.Exchange)
	assert.Equal(t, 10, c.RabbitMQ.Prefetch)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
