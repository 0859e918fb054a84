// Package events publishes notification fan-out messages over NATS jetstream.
// Delivery transport for push is out of scope; the published event is the
// boundary.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"chirpd/internal/core"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var published = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chirpd_events_published_total",
	Help: "The total number of fan-out events published, by subject",
}, []string{"subject"})

// Publisher emits JSON events to jetstream. With no NATS URL configured it
// runs disabled and drops every publish silently.
type Publisher struct {
	Config *core.Config
	Logger *slog.Logger

	conn *nats.Conn
	js   jetstream.JetStream
}

func (p *Publisher) Init(_ context.Context) error {
	p.Logger = p.Logger.With("component", "events.Publisher")

	if p.Config.NATSURL == "" {
		p.Logger.Info("no NATS URL configured, fan-out events disabled")
		return nil
	}

	conn, err := nats.Connect(p.Config.NATSURL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to initialize jetstream: %w", err)
	}

	p.conn = conn
	p.js = js
	return nil
}

func (p *Publisher) Shutdown(_ context.Context) error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}

func (p *Publisher) Publish(ctx context.Context, subject string, payload any) error {
	if p.js == nil {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	published.WithLabelValues(subject).Inc()
	return nil
}

// Noop satisfies core.EventPublisher for commands that never fan out.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }
