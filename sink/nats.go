package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/hazyhaar/autofill/booking"
)

// DefaultNATSSubject is the subject reports are published on.
const DefaultNATSSubject = "autofill.reports"

// publisher is the part of *nats.Conn the sink uses.
type publisher interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATS publishes each report on a core NATS subject. Delivery is at most
// once: a report published while the connection is down is lost.
type NATS struct {
	conn    publisher
	subject string
	logger  *slog.Logger
}

// NewNATS connects to url (nats.DefaultURL when empty) and publishes on
// subject (DefaultNATSSubject when empty). The connection reconnects
// forever.
func NewNATS(url, subject string, logger *slog.Logger) (*NATS, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := nats.Connect(url,
		nats.Name("autofill"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("sink: nats disconnected", "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("sink: nats: connect %s: %w", url, err)
	}
	return newNATS(nc, subject, logger), nil
}

func newNATS(conn publisher, subject string, logger *slog.Logger) *NATS {
	if subject == "" {
		subject = DefaultNATSSubject
	}
	return &NATS{conn: conn, subject: subject, logger: logger}
}

func (n *NATS) Send(_ context.Context, rep booking.Report) error {
	data, err := json.Marshal(wrap(rep))
	if err != nil {
		return fmt.Errorf("sink: nats: marshal: %w", err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("sink: nats: publish %s: %w", n.subject, err)
	}
	return nil
}

// Close flushes pending reports and closes the connection.
func (n *NATS) Close() error { return n.conn.Drain() }
