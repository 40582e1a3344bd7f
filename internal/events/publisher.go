// Package events publishes storefront domain events so the external
// fulfillment collaborator can pick up freshly placed orders. Publishing
// is best-effort: the order is already durable when an event goes out.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"

	"github.com/safar/collectibles-store/internal/config"
)

type OrderPlaced struct {
	OrderID       string          `json:"order_id"`
	UserID        string          `json:"user_id"`
	Total         decimal.Decimal `json:"total"`
	ItemCount     int             `json:"item_count"`
	PaymentMethod string          `json:"payment_method"`
	PlacedAt      time.Time       `json:"placed_at"`
}

func (e *OrderPlaced) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

func (e *OrderPlaced) UnmarshalBinary(data []byte) error {
	if err := json.Unmarshal(data, e); err != nil {
		return fmt.Errorf("unmarshal order placed event: %w", err)
	}
	return nil
}

type Publisher struct {
	client *kgo.Client
	topic  string
}

func NewPublisher(cfg config.KafkaConfig) (*Publisher, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(10 * time.Millisecond),
	}

	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, kgo.SASL(plain.Auth{
			User: cfg.Username,
			Pass: cfg.Password,
		}.AsMechanism()))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &Publisher{client: client, topic: cfg.Topic}, nil
}

// PublishOrderPlaced emits one event keyed by order ID, so all events
// for one order land on the same partition.
func (p *Publisher) PublishOrderPlaced(ctx context.Context, event OrderPlaced) error {
	value, err := event.MarshalBinary()
	if err != nil {
		return err
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.OrderID),
		Value: value,
	}

	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce order placed event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() {
	p.client.Close()
}
