package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"branchrent-backend/internal/domain"
	"branchrent-backend/internal/logger"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes reservation lifecycle events, keyed by
// reservation so one reservation's events stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Snappy,
	}
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event domain.ReservationEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal reservation event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(strconv.Itoa(int(event.ReservationID))),
		Value: eventJSON,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	logger.ExternalServiceCall("kafka", "WriteMessages", "type", event.Type, "reservation_id", event.ReservationID)
	err = p.writer.WriteMessages(ctx, message)
	logger.ExternalServiceResult("kafka", "WriteMessages", err, "type", event.Type)
	if err != nil {
		return fmt.Errorf("failed to write reservation event to kafka: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event domain.ReservationEvent) error {
	logger.Debug("Reservation event", "type", event.Type, "reservation_id", event.ReservationID, "state", event.State)
	return nil
}
