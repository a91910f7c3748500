package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// Handler processes one decoded event.
type Handler func(ctx context.Context, key string, event Event, raw json.RawMessage) error

// Consumer reads the application events topic as part of a consumer group.
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			GroupID:  groupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
	}
}

// Listen blocks until ctx is cancelled. Handler errors are logged and the
// message is committed anyway.
func (c *Consumer) Listen(ctx context.Context, handle Handler) error {
	defer c.reader.Close()
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("reading message: %w", err)
		}

		var envelope struct {
			Event
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(msg.Value, &envelope); err != nil {
			slog.WarnContext(ctx, "Skipping undecodable message", "offset", msg.Offset, "error", err)
			continue
		}

		event := envelope.Event
		event.Payload = envelope.Payload
		if err := handle(ctx, string(msg.Key), event, envelope.Payload); err != nil {
			slog.ErrorContext(ctx, "Error processing message", "offset", msg.Offset, "type", event.Type, "error", err)
		}
	}
}
