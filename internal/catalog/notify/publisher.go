package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Publisher drains the outbox to Kafka. One instance runs per deployment;
// the unique outbox row ids make redelivery after a crash harmless for the
// consumer (it deduplicates on event_id).
type Publisher struct {
	client *kgo.Client
	outbox *OutboxStore
	logger *slog.Logger

	batchSize int
	interval  time.Duration
}

// NewPublisher connects a franz-go client for the product-changes topic.
func NewPublisher(brokers []string, outbox *OutboxStore, logger *slog.Logger) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(Topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Publisher{
		client:    client,
		outbox:    outbox,
		logger:    logger,
		batchSize: 100,
		interval:  5 * time.Second,
	}, nil
}

// Run polls the outbox until the context is cancelled.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.drainOnce(ctx); err != nil {
				// Kafka hiccups are retried on the next tick; the outbox
				// keeps the events.
				p.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

func (p *Publisher) drainOnce(ctx context.Context) error {
	entries, err := p.outbox.PendingEvents(ctx, p.batchSize)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		record := &kgo.Record{
			Key:   []byte(entry.EventType),
			Value: entry.Payload,
		}
		if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
			return fmt.Errorf("produce outbox entry %s: %w", entry.ID, err)
		}
		if err := p.outbox.MarkDelivered(ctx, entry.ID); err != nil {
			return fmt.Errorf("mark outbox entry %s delivered: %w", entry.ID, err)
		}
	}
	return nil
}

// Close flushes and releases the Kafka client.
func (p *Publisher) Close() {
	p.client.Close()
}
