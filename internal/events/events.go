// Package events publishes conversion job events to NATS JetStream so
// downstream tooling (library managers, notification bots) can react to
// finished conversions without polling the history database.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/kpfbuilder/internal/config"
)

// JobEvent is the published record of one finished conversion.
type JobEvent struct {
	JobID      string        `json:"job_id"`
	Input      string        `json:"input"`
	Output     string        `json:"output,omitempty"`
	Outcome    string        `json:"outcome"`
	ErrorMsg   string        `json:"error_msg,omitempty"`
	Duration   time.Duration `json:"duration"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Publisher manages the NATS connection and JetStream stream for job events.
type Publisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewPublisher connects to NATS and ensures the job event stream exists.
func NewPublisher(ctx context.Context, cfg config.EventsConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("event publishing is disabled")
	}

	conn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{cfg.Subject},
		Storage:  jetstream.FileStorage,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure job event stream: %w", err)
	}

	return &Publisher{conn: conn, js: js, subject: cfg.Subject}, nil
}

// PublishJob publishes one job event. Publishing is best-effort from the
// daemon's perspective; the caller logs failures and moves on.
func (p *Publisher) PublishJob(ctx context.Context, evt JobEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal job event: %w", err)
	}
	if _, err := p.js.Publish(ctx, p.subject, data); err != nil {
		return fmt.Errorf("publish job event: %w", err)
	}
	return nil
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
