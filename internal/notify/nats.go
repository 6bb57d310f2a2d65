package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const DefaultSubjectPrefix = "readalloc"

// Publisher sends a JSON payload on a subject.
type Publisher interface {
	Publish(subject string, data interface{}) error
	Close()
}

// NATSPublisher publishes JSON messages on a NATS connection.
type NATSPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewNATSPublisher connects to url. The connection keeps retrying in the
// background if the server is not up yet.
func NewNATSPublisher(url string, logger *slog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("readalloc"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSPublisher{conn: nc, logger: logger}, nil
}

func (p *NATSPublisher) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, payload)
}

func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("nats drain failed", "error", err)
		p.conn.Close()
	}
}

// Subject returns the subject an event is published on:
// <prefix>.run.<id>.<type>. Events without a run id use "adhoc".
func Subject(prefix string, e Event) string {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	id := e.RunID
	if id == "" {
		id = "adhoc"
	}
	return prefix + ".run." + id + "." + string(e.Type)
}

// NATS publishes events through a Publisher.
type NATS struct {
	pub    Publisher
	prefix string
}

// NewNATS creates a notifier publishing under prefix.
func NewNATS(pub Publisher, prefix string) *NATS {
	return &NATS{pub: pub, prefix: prefix}
}

func (n *NATS) Notify(_ context.Context, e Event) error {
	if err := n.pub.Publish(Subject(n.prefix, e), e); err != nil {
		return fmt.Errorf("publish %s event: %w", e.Type, err)
	}
	return nil
}

// Close closes the underlying publisher.
func (n *NATS) Close() {
	n.pub.Close()
}
