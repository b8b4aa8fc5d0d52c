package events

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-admin-api/internal/observability"
)

// Event types emitted by the student services.
const (
	StudentCreated   = "students.created"
	StudentUpdated   = "students.updated"
	StudentDeleted   = "students.deleted"
	ActivityRecorded = "students.activity"
	NotificationSent = "notifications.sent"
)

// Event is the envelope published for every domain change.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Source     string      `json:"source"`
	Data       interface{} `json:"data"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Publisher emits domain events. Publishing is best effort and never blocks the write path.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// NATSPublisher publishes events on subjects prefixed with a configurable namespace.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	source string
	logger zerolog.Logger
}

// NewNATSPublisher constructs a publisher bound to an established NATS connection.
func NewNATSPublisher(conn *nats.Conn, prefix string, logger zerolog.Logger) *NATSPublisher {
	prefix = strings.Trim(strings.ReplaceAll(prefix, ":", "."), ".")
	if prefix == "" {
		prefix = "campus"
	}

	return &NATSPublisher{
		conn:   conn,
		prefix: prefix,
		source: uuid.NewString(),
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

// Subject returns the full subject for an event type.
func (p *NATSPublisher) Subject(eventType string) string {
	return p.prefix + "." + eventType
}

// Publish marshals the event and hands it to NATS.
func (p *NATSPublisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(newEvent(p.source, eventType, data))
	if err != nil {
		return err
	}

	subject := p.Subject(eventType)
	if err := p.conn.Publish(subject, payload); err != nil {
		observability.EventsPublished().WithLabelValues(subject, "error").Inc()
		p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish event")
		return err
	}

	observability.EventsPublished().WithLabelValues(subject, "ok").Inc()
	return nil
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }

// MemoryPublisher keeps published events in memory.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryPublisher constructs an empty in-memory publisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Publish implements Publisher.
func (m *MemoryPublisher) Publish(_ context.Context, eventType string, data interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, newEvent("memory", eventType, data))
	return nil
}

// Events returns a copy of every event published so far.
func (m *MemoryPublisher) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Types returns the published event types in order.
func (m *MemoryPublisher) Types() []string {
	events := m.Events()
	types := make([]string, 0, len(events))
	for _, event := range events {
		types = append(types, event.Type)
	}
	return types
}

func newEvent(source, eventType string, data interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Source:     source,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}
