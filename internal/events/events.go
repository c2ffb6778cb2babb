// Package events publishes domain events about users and watchlists.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// TypeUserRegistered is emitted after a user and their watchlist are committed.
const TypeUserRegistered = "user.registered"

// UserEvent is the JSON payload written to the topic.
type UserEvent struct {
	EventType  string    `json:"event_type"`
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username"`
	CompanyIDs []int64   `json:"company_ids,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher emits domain events. Implementations must be safe for concurrent use.
type Publisher interface {
	PublishUserRegistered(ctx context.Context, userID int64, username string, companyIDs []int64) error
	Close() error
}

// NopPublisher drops every event; used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishUserRegistered(context.Context, int64, string, []int64) error { return nil }
func (NopPublisher) Close() error                                                          { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by user id.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher writing to topic on the given brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}}
}

// PublishUserRegistered publishes a user.registered event.
func (p *KafkaPublisher) PublishUserRegistered(ctx context.Context, userID int64, username string, companyIDs []int64) error {
	event := UserEvent{
		EventType:  TypeUserRegistered,
		UserID:     userID,
		Username:   username,
		CompanyIDs: companyIDs,
		Timestamp:  time.Now().UTC(),
	}
	return p.publish(ctx, strconv.FormatInt(userID, 10), event)
}

func (p *KafkaPublisher) publish(ctx context.Context, key string, event UserEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
