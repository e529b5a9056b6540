package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// PaymentHandler applies a provider payment notification.
type PaymentHandler interface {
	HandlePaymentNotification(ctx context.Context, n domain.PaymentNotification) error
}

type RabbitConfig struct {
	URL        string
	Exchange   string
	Queue      string
	RoutingKey string
	Prefetch   int
}

// PaymentConsumer reads payment status notifications from a RabbitMQ topic
// exchange and feeds them to the reservation service.
type PaymentConsumer struct {
	cfg     RabbitConfig
	handler PaymentHandler
	conn    *amqp.Connection
	ch      *amqp.Channel
}

func NewPaymentConsumer(cfg RabbitConfig, handler PaymentHandler) *PaymentConsumer {
	return &PaymentConsumer{cfg: cfg, handler: handler}
}

func (c *PaymentConsumer) connect() error {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to declare exchange %s: %w", c.cfg.Exchange, err)
	}
	c.conn = conn
	c.ch = ch
	return nil
}

// Run consumes until ctx is cancelled or the delivery channel closes.
func (c *PaymentConsumer) Run(ctx context.Context) error {
	if err := c.connect(); err != nil {
		return err
	}
	defer c.close()

	q, err := c.ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", c.cfg.Queue, err)
	}
	if err := c.ch.QueueBind(q.Name, c.cfg.RoutingKey, c.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", q.Name, err)
	}
	if err := c.ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return err
	}
	deliveries, err := c.ch.Consume(q.Name, "branchrent-payments", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming %s: %w", q.Name, err)
	}

	logger.Info("Payment consumer started", "queue", q.Name, "exchange", c.cfg.Exchange)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Payment consumer stopping")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq deliveries channel closed")
			}
			c.handleDelivery(ctx, d)
		}
	}
}

// handleDelivery acks processed and unprocessable messages and requeues
// transient failures.
func (c *PaymentConsumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var n domain.PaymentNotification
	if err := json.Unmarshal(d.Body, &n); err != nil || n.Reference == "" {
		logger.Error("Dropping malformed payment notification", "body", string(d.Body), "error", err)
		_ = d.Nack(false, false)
		return
	}
	status, err := domain.ParsePaymentStatus(string(n.Status))
	if err != nil {
		logger.Error("Dropping payment notification", "reference", n.Reference, "error", err)
		_ = d.Nack(false, false)
		return
	}
	n.Status = status

	err = c.handler.HandlePaymentNotification(ctx, n)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case isPermanent(err):
		logger.Warn("Payment notification rejected", "reference", n.Reference, "status", n.Status, "error", err)
		_ = d.Ack(false)
	default:
		logger.Error("Payment notification failed, requeueing", "reference", n.Reference, "error", err)
		_ = d.Nack(false, true)
	}
}

// isPermanent reports errors that a redelivery cannot fix.
func isPermanent(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound,
		domain.ErrInvalidTransition,
		domain.ErrValidation,
		domain.ErrInsufficientStock,
		domain.ErrCouponAlreadyUsed,
		domain.ErrForbidden,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (c *PaymentConsumer) close() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}
