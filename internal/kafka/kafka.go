package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

var ErrDisabled = errors.New("kafka disabled")

type Client struct {
	Brokers []string
}

func NewClient(brokers []string) *Client {
	return &Client{Brokers: brokers}
}

func (c *Client) Enabled() bool {
	return len(c.Brokers) > 0
}

func (c *Client) NewWriter(topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventPublisher writes order events to one topic. Messages are keyed by
// order id so that every event of an order lands on the same partition.
type EventPublisher struct {
	writer messageWriter
	now    func() time.Time
}

// NewEventPublisher returns ErrDisabled when no brokers are configured.
func NewEventPublisher(client *Client, topic string) (*EventPublisher, error) {
	if !client.Enabled() {
		return nil, ErrDisabled
	}
	return &EventPublisher{writer: client.NewWriter(topic), now: time.Now}, nil
}

func (p *EventPublisher) Publish(ctx context.Context, key string, payload json.RawMessage) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  p.now().UTC(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}
	return nil
}

func (p *EventPublisher) Close() error {
	return p.writer.Close()
}
