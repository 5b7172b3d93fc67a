package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dwikikusuma/supershop-pos/internal/order/domain"
	"github.com/dwikikusuma/supershop-pos/pkg/tracing"
	"github.com/segmentio/kafka-go"
)

const EventOrderCommitted = "order.committed"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes OrderCommitted events keyed by receipt number, so all
// events of one receipt land on the same partition.
type Publisher struct {
	w messageWriter
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *Publisher) PublishOrderCommitted(ctx context.Context, ev domain.OrderCommitted) error {
	msg, err := newMessage(ctx, ev)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish order %d: %w", ev.OrderID, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.w.Close()
}

func newMessage(ctx context.Context, ev domain.OrderCommitted) (kafka.Message, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal order committed: %w", err)
	}

	headers := []kafka.Header{
		{Key: "event-type", Value: []byte(EventOrderCommitted)},
		{Key: "content-type", Value: []byte("application/json")},
	}
	return kafka.Message{
		Key:     []byte(strconv.FormatInt(ev.ReceiptNumber, 10)),
		Value:   body,
		Headers: tracing.InjectKafkaHeaders(ctx, headers),
		Time:    ev.CommittedAt,
	}, nil
}
