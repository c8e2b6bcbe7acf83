package sink

import (
	"context"

	"github.com/hazyhaar/autofill/booking"
)

// ReportFunc is called for each report.
type ReportFunc func(ctx context.Context, rep booking.Report) error

// Callback hands reports to a Go function, for embedders and tests.
type Callback struct {
	fn ReportFunc
}

// NewCallback creates a Callback sink. A nil fn discards reports.
func NewCallback(fn ReportFunc) *Callback {
	return &Callback{fn: fn}
}

func (c *Callback) Send(ctx context.Context, rep booking.Report) error {
	if c.fn == nil {
		return nil
	}
	return c.fn(ctx, rep)
}

func (c *Callback) Close() error { return nil }
