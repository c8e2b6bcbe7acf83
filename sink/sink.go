// Package sink delivers fill reports to output backends: JSON lines on a
// writer, an HTTP webhook, a NATS subject, a Redis list, or an in-process
// callback.
package sink

import (
	"context"

	"github.com/hazyhaar/autofill/booking"
)

// Sink receives one report per fill run.
type Sink interface {
	Send(ctx context.Context, rep booking.Report) error
	Close() error
}

type envelope struct {
	Type string         `json:"type"`
	Data booking.Report `json:"data"`
}

func wrap(rep booking.Report) envelope {
	return envelope{Type: "fill_report", Data: rep}
}
