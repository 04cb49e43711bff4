package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	txcontext "sdgcatalog/pkg/platform/tx"
)

// Sink accepts product-change events. The versioning engine and the batch
// jobs append through this interface; delivery guarantees are the
// implementation's concern.
type Sink interface {
	ProductChanged(ctx context.Context, event ProductChanged) error
}

// OutboxStore writes events to the outbox table. Because it joins the
// caller's transaction via context, an event is persisted if and only if
// the version write it describes commits.
type OutboxStore struct {
	db *sql.DB
}

func NewOutboxStore(db *sql.DB) *OutboxStore {
	return &OutboxStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *OutboxStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *OutboxStore) ProductChanged(ctx context.Context, event ProductChanged) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal product-changed event: %w", err)
	}
	_, err = s.execer(ctx).ExecContext(ctx, `
		INSERT INTO outbox (id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4)`,
		uuid.New(), string(event.Kind), payload, time.Now())
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// PendingEvents returns up to limit undelivered outbox rows in insertion
// order.
func (s *OutboxStore) PendingEvents(ctx context.Context, limit int) ([]OutboxEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_type, payload FROM outbox
		WHERE delivered_at IS NULL ORDER BY created_at LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var out []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		if err := rows.Scan(&e.ID, &e.EventType, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkDelivered stamps an outbox row after a successful publish.
func (s *OutboxStore) MarkDelivered(ctx context.Context, entryID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE outbox SET delivered_at = now() WHERE id = $1`, entryID)
	return err
}

// OutboxEntry is one undelivered outbox row.
type OutboxEntry struct {
	ID        uuid.UUID
	EventType string
	Payload   []byte
}

// MemorySink collects events in memory for tests and for deployments that
// run without Kafka.
type MemorySink struct {
	mu     sync.Mutex
	events []ProductChanged
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) ProductChanged(_ context.Context, event ProductChanged) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything collected so far.
func (s *MemorySink) Events() []ProductChanged {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ProductChanged(nil), s.events...)
}
