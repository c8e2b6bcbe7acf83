// Package irctc fills the IRCTC passenger booking page.
//
// The page is an Angular/PrimeNG application. Fields are located by their
// formcontrolname bindings and layout classes, which the site changes
// without notice, so every lookup goes through a fallback chain.
package irctc

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/hazyhaar/autofill/booking"
	"github.com/hazyhaar/autofill/dom"
	"github.com/hazyhaar/autofill/filler"
	"github.com/hazyhaar/autofill/progress"
	"github.com/hazyhaar/autofill/resolve"
)

// Name identifies the filler in results and reports.
const Name = "IRCTC Filler"

// Host is matched against the page host name.
const Host = "irctc.co.in"

// SuccessMessage is the message of a completed run.
const SuccessMessage = "Form filled successfully!"

// Filler runs the IRCTC pipeline. It holds no per-run state.
type Filler struct {
	timing Timing
	logger *slog.Logger
}

var _ filler.Filler = (*Filler)(nil)

// Option configures a Filler.
type Option func(*Filler)

// WithTiming overrides the step pauses.
func WithTiming(t Timing) Option {
	return func(f *Filler) { f.timing = t }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Filler) {
		if l != nil {
			f.logger = l
		}
	}
}

// New returns a filler with DefaultTiming.
func New(opts ...Option) *Filler {
	f := &Filler{timing: DefaultTiming(), logger: slog.Default()}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *Filler) Name() string { return Name }

// Timing returns the configured pauses.
func (f *Filler) Timing() Timing { return f.timing }

// CanHandle accepts any host under irctc.co.in.
func (f *Filler) CanHandle(page filler.PageContext) bool {
	return strings.Contains(page.Host(), Host)
}

// Fill runs the five steps once. A started run is not cancelled by ctx.
// Missing fields and failing lookups are logged and the run continues; only
// a panic or a readiness timeout produces a failure result.
func (f *Filler) Fill(ctx context.Context, doc dom.Document, req *booking.FillRequest) (res booking.FillResult) {
	log := progress.New(f.logger)
	r := &run{
		ctx:    context.WithoutCancel(ctx),
		doc:    doc,
		req:    req,
		t:      f.timing,
		log:    log,
		logger: f.logger,
	}

	defer func() {
		if p := recover(); p != nil {
			f.logger.Error("irctc: panic in pipeline", "panic", p, "stack", string(debug.Stack()))
			res = booking.Failed(fmt.Sprintf("Error: %v", p), log.Lines())
		}
	}()

	f.logger.Info("irctc: fill started", "passengers", len(req.Passengers), "payment", req.HasPayment())
	if err := r.pipeline(); err != nil {
		f.logger.Warn("irctc: fill aborted", "error", err, "lines", log.Len())
		return booking.Failed("Error: "+err.Error(), log.Lines())
	}
	f.logger.Info("irctc: fill completed", "lines", log.Len())
	return booking.FillResult{Success: true, Message: SuccessMessage, Details: log.Lines()}
}

// run is the state of one pipeline execution.
type run struct {
	ctx    context.Context
	doc    dom.Document
	req    *booking.FillRequest
	t      Timing
	log    *progress.Log
	logger *slog.Logger
}

func (r *run) pipeline() error {
	if err := r.pause(r.t.Start); err != nil {
		return err
	}
	r.log.Section("Starting IRCTC Form Fill")
	r.log.Info("Passengers to fill: %d", len(r.req.Passengers))

	if err := r.awaitReady(); err != nil {
		return err
	}
	if err := r.grow(); err != nil {
		r.fault("add passenger forms", err)
	}
	if err := r.pause(r.t.AfterGrow); err != nil {
		return err
	}
	if err := r.fillPassengers(); err != nil {
		r.fault("fill passengers", err)
	}
	if err := r.fillContact(); err != nil {
		r.fault("fill contact", err)
	}
	if r.req.HasPayment() {
		if err := r.fillPayment(); err != nil {
			return err
		}
	}
	return r.submit()
}

// fault records an error a step caught. The run goes on with the next
// field or step.
func (r *run) fault(what string, err error) {
	r.log.Fail("Error: %s: %v", what, err)
	r.logger.Warn("irctc: step error", "at", what, "error", err)
}

func (r *run) pause(d Duration) error {
	return dom.Pause(r.ctx, d.D())
}

// awaitReady waits for the passenger form to render when a readiness
// budget is configured.
func (r *run) awaitReady() error {
	if r.t.Ready <= 0 {
		return nil
	}
	m, err := resolve.AwaitElement(r.ctx, r.doc, passengerFormChain, r.t.Ready.D())
	if err != nil {
		r.log.Fail("Passenger form did not appear within %s", r.t.Ready.D())
		return err
	}
	r.logger.Debug("irctc: page ready", "tier", m.Tier, "strategy", m.Strategy.String())
	return nil
}

// GrowthNeeded is how many entries must be added to go from existing to
// required. It is never negative and never exceeds required.
func GrowthNeeded(required, existing int) int {
	if required <= 0 {
		return 0
	}
	existing = max(existing, 0)
	return max(required-existing, 0)
}

// GenderCode maps a gender name or its one-letter shorthand to the option
// value of the page: male → M, female → F, transgender → T,
// case-insensitively. Anything else is returned unchanged.
func GenderCode(gender string) string {
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "male", "m":
		return "M"
	case "female", "f":
		return "F"
	case "transgender", "t":
		return "T"
	}
	return gender
}
