// Package events publishes domain events after successful writes. Delivery is
// best-effort: callers log publish errors and carry on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects, relative to the configured prefix.
const (
	SubjectProjectCreated      = "project.created"
	SubjectStageUpdated        = "project.stage_updated"
	SubjectGenerationCompleted = "generation.completed"
)

// Publisher sends one event.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, interface{}) error { return nil }

// NATSPublisher publishes JSON payloads on a core NATS connection.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

// Connect dials url and returns a publisher that prefixes every subject.
func Connect(url, prefix string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("hackcrew-gateway"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return NewNATSPublisher(conn, prefix), nil
}

// NewNATSPublisher wraps an existing connection.
func NewNATSPublisher(conn *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: strings.TrimSuffix(prefix, ".")}
}

// Subject returns the fully qualified subject.
func (p *NATSPublisher) Subject(subject string) string {
	if p.prefix == "" {
		return subject
	}
	return p.prefix + "." + subject
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", subject, err)
	}
	if err := p.conn.Publish(p.Subject(subject), data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// Check reports an error unless the connection is up.
func (p *NATSPublisher) Check(context.Context) error {
	if status := p.conn.Status(); status != nats.CONNECTED {
		return fmt.Errorf("nats connection %s", status)
	}
	return nil
}

// Event is a published message as seen by Recorder.
type Event struct {
	Subject string
	Payload interface{}
}

// Recorder keeps published events in memory. Tests use it to assert on what a
// service emitted.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, subject string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, Event{Subject: subject, Payload: payload})
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Subjects lists the recorded subjects in publish order.
func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Subject
	}
	return out
}

// ProjectCreated is the payload of project.created.
type ProjectCreated struct {
	ProjectID string `json:"project_id"`
	TeamID    string `json:"team_id"`
	UserID    string `json:"user_id"`
}

// StageUpdated is the payload of project.stage_updated.
type StageUpdated struct {
	ProjectID   string `json:"project_id"`
	StageNumber int    `json:"stage_number"`
	StageLabel  string `json:"stage_label"`
}

// GenerationCompleted is the payload of generation.completed.
type GenerationCompleted struct {
	Kind      string `json:"kind"`
	ProjectID string `json:"project_id"`
}
