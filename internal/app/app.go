// Package app assembles the store, external adapters and services from
// configuration. Both the API server and the cronjob runner start here.
package app

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	httpapi "branchrent-backend/internal/api/http"
	"branchrent-backend/internal/config"
	"branchrent-backend/internal/logger"
	"branchrent-backend/internal/messaging"
	"branchrent-backend/internal/notify"
	"branchrent-backend/internal/payment"
	"branchrent-backend/internal/repository"
	"branchrent-backend/internal/repository/memory"
	"branchrent-backend/internal/repository/postgres"
	"branchrent-backend/internal/security"
	"branchrent-backend/internal/service"
)

// Store is a repository.Store that can report its own health.
type Store interface {
	repository.Store
	Ping(ctx context.Context) error
}

type App struct {
	Config   *config.Config
	Store    Store
	Services httpapi.Services
	Tokens   security.TokenManager

	closers []func() error
}

// New connects the configured store and builds every service.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	store, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store

	reservations := service.NewReservationService(
		store,
		newPaymentProvider(cfg),
		newNotifier(cfg),
		a.newPublisher(),
		service.WithCheckoutTimeout(cfg.PaymentTimeout()),
	)
	a.Services = httpapi.Services{
		Inventory:    service.NewInventoryService(store),
		Availability: service.NewAvailabilityService(store),
		Reservations: reservations,
		Customers:    service.NewCustomerService(store),
		Stats:        service.NewStatsService(store.Stats()),
	}
	a.Tokens = security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer)
	return a, nil
}

func (a *App) openStore(ctx context.Context) (Store, error) {
	cfg := a.Config
	if cfg.Database.Driver == "memory" {
		logger.Warn("Using in-memory store; data is lost on restart")
		return memory.NewStore(), nil
	}

	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("Database connection established")

	if cfg.Database.Migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			return nil, err
		}
	}
	return postgres.NewStore(db), nil
}

func newPaymentProvider(cfg *config.Config) service.PaymentProvider {
	if cfg.Payment.Provider == "http" {
		logger.Info("Using HTTP payment provider", "base_url", cfg.Payment.BaseURL)
		return payment.NewHTTPProvider(cfg.Payment.BaseURL, cfg.Payment.APIKey, cfg.PaymentTimeout())
	}
	logger.Info("Using mock payment provider")
	return payment.NewMockProvider()
}

func newNotifier(cfg *config.Config) service.Notifier {
	if cfg.Notify.SendGridAPIKey == "" {
		logger.Info("SendGrid not configured; notifications are logged only")
		return notify.NewLogNotifier()
	}
	return notify.NewSendGridNotifier(cfg.Notify.SendGridAPIKey, cfg.Notify.From, cfg.Notify.FromName)
}

func (a *App) newPublisher() service.EventPublisher {
	cfg := a.Config
	if !cfg.Kafka.Enabled {
		return messaging.NopPublisher{}
	}
	logger.Info("Publishing reservation events to Kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	p := messaging.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	a.closers = append(a.closers, p.Close)
	return p
}

// PaymentConsumer returns the RabbitMQ consumer, or nil when disabled.
func (a *App) PaymentConsumer() *messaging.PaymentConsumer {
	cfg := a.Config.RabbitMQ
	if !cfg.Enabled {
		return nil
	}
	return messaging.NewPaymentConsumer(messaging.RabbitConfig{
		URL:        cfg.URL,
		Exchange:   cfg.Exchange,
		Queue:      cfg.Queue,
		RoutingKey: cfg.RoutingKey,
		Prefetch:   cfg.Prefetch,
	}, a.Services.Reservations)
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("Failed to close resource", "error", err)
		}
	}
	a.closers = nil
}
