package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type fakeConn struct {
	subjects []string
	messages [][]byte
	err      error
	drained  bool
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.subjects = append(c.subjects, subject)
	c.messages = append(c.messages, data)
	return nil
}

func (c *fakeConn) Drain() error {
	c.drained = true
	return nil
}

func TestPublishWrapsPayloadInEnvelope(t *testing.T) {
	conn := &fakeConn{}
	at := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	p := NewNATSPublisher(conn,
		WithClock(func() time.Time { return at }),
		WithIDGenerator(func() string { return "evt-1" }),
	)

	err := p.Publish(context.Background(), "docbot.documents.published", map[string]string{"path": "policies/a.md"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(conn.subjects) != 1 || conn.subjects[0] != "docbot.documents.published" {
		t.Fatalf("unexpected subjects %v", conn.subjects)
	}

	var envelope Envelope
	if err := json.Unmarshal(conn.messages[0], &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.ID != "evt-1" || !envelope.OccurredAt.Equal(at) || envelope.Subject != "docbot.documents.published" {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
	if string(envelope.Payload) != `{"path":"policies/a.md"}` {
		t.Fatalf("unexpected payload %s", envelope.Payload)
	}
}

func TestPublishErrors(t *testing.T) {
	conn := &fakeConn{err: errors.New("no responders")}
	p := NewNATSPublisher(conn)

	if err := p.Publish(context.Background(), " ", nil); !errors.Is(err, ErrEmptySubject) {
		t.Fatalf("expected ErrEmptySubject, got %v", err)
	}
	if err := p.Publish(context.Background(), "docbot.x", struct{}{}); err == nil {
		t.Fatalf("expected connection error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewNATSPublisher(&fakeConn{}).Publish(ctx, "docbot.x", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if err := p.Publish(context.Background(), "docbot.x", make(chan int)); err == nil {
		t.Fatalf("expected marshal error")
	}
}

func TestCloseDrains(t *testing.T) {
	conn := &fakeConn{}
	if err := NewNATSPublisher(conn).Close(); err != nil || !conn.drained {
		t.Fatalf("expected drain, got %v", err)
	}
	var noop Publisher = Noop{}
	if err := noop.Publish(context.Background(), "x", nil); err != nil {
		t.Fatalf("noop publish: %v", err)
	}
}
