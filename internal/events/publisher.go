package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/goliatone/go-docbot/internal/logging"
	"github.com/goliatone/go-docbot/pkg/interfaces"
)

// ErrEmptySubject is returned when Publish is called without a subject.
var ErrEmptySubject = errors.New("events: subject is required")

// Envelope wraps every published payload.
type Envelope struct {
	ID         string          `json:"id"`
	Subject    string          `json:"subject"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Conn is the slice of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// Publisher announces pipeline events.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
	Close() error
}

// Option customises a NATSPublisher.
type Option func(*NATSPublisher)

// WithLogger sets the publisher logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(p *NATSPublisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *NATSPublisher) {
		if now != nil {
			p.now = now
		}
	}
}

// WithIDGenerator overrides the envelope id generator.
func WithIDGenerator(next func() string) Option {
	return func(p *NATSPublisher) {
		if next != nil {
			p.nextID = next
		}
	}
}

// NATSPublisher publishes JSON envelopes over a NATS connection.
type NATSPublisher struct {
	conn   Conn
	logger interfaces.Logger
	now    func() time.Time
	nextID func() string
}

// NewNATSPublisher wraps an established connection.
func NewNATSPublisher(conn Conn, opts ...Option) *NATSPublisher {
	p := &NATSPublisher{
		conn:   conn,
		logger: logging.NoOp(),
		now:    time.Now,
		nextID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Connect dials url and returns a publisher over the new connection.
func Connect(url, name string, opts ...Option) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("events: connect %s: %w", url, err)
	}
	return NewNATSPublisher(conn, opts...), nil
}

// Publish marshals payload into an envelope and sends it on subject.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload any) error {
	if strings.TrimSpace(subject) == "" {
		return ErrEmptySubject
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("events: publish %s: %w", subject, err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: marshal payload: %w", err)
	}
	data, err := json.Marshal(Envelope{
		ID:         p.nextID(),
		Subject:    subject,
		OccurredAt: p.now().UTC(),
		Payload:    body,
	})
	if err != nil {
		return fmt.Errorf("events: marshal envelope: %w", err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("events: publish %s: %w", subject, err)
	}
	p.logger.Debug("events.published", "subject", subject, "bytes", len(data))
	return nil
}

// Close drains the connection so buffered messages are flushed.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }
func (Noop) Close() error                               { return nil }
