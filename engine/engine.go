// Package engine is the entry point of a fill: it picks the filler for the
// page, validates the request, runs the pipeline and reports the outcome.
//
//	eng := engine.New(filler.NewRegistry(irctc.New()),
//	    engine.WithSource(tab),
//	    engine.WithSinks(sink.NewStdout(nil)))
//	res := eng.FillCurrent(ctx, req)
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/autofill/booking"
	"github.com/hazyhaar/autofill/connectivity"
	"github.com/hazyhaar/autofill/dom"
	"github.com/hazyhaar/autofill/filler"
	"github.com/hazyhaar/autofill/kit"
	"github.com/hazyhaar/autofill/sink"
)

// MsgNotSupported is the result message for a page no filler accepts.
const MsgNotSupported = "site not supported"

// ErrNoSource is reported by FillCurrent without a configured source.
var ErrNoSource = errors.New("engine: no document source")

// DocumentSource yields the page a fill runs against: a live browser tab
// or a parsed document.
type DocumentSource interface {
	Document(ctx context.Context) (dom.Document, error)
}

// SourceFunc adapts a function to DocumentSource.
type SourceFunc func(ctx context.Context) (dom.Document, error)

func (f SourceFunc) Document(ctx context.Context) (dom.Document, error) { return f(ctx) }

// StaticSource always returns doc.
func StaticSource(doc dom.Document) DocumentSource {
	return SourceFunc(func(context.Context) (dom.Document, error) { return doc, nil })
}

// Engine runs fills. Safe for concurrent use; runs against the configured
// source are serialised.
type Engine struct {
	registry *filler.Registry
	logger   *slog.Logger
	sinks    []sink.Sink
	reports  *sink.Router
	source   DocumentSource
	newID    func() string
	now      func() time.Time

	mu sync.Mutex // held for the duration of a FillCurrent run

	routerMu sync.RWMutex
	router   *connectivity.Router
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithSinks adds report sinks.
func WithSinks(s ...sink.Sink) Option { return func(e *Engine) { e.sinks = append(e.sinks, s...) } }

// WithSource sets the document FillCurrent runs against.
func WithSource(src DocumentSource) Option { return func(e *Engine) { e.source = src } }

// WithIDGenerator replaces the uuid generator for report ids.
func WithIDGenerator(fn func() string) Option { return func(e *Engine) { e.newID = fn } }

// New creates an engine over registry.
func New(registry *filler.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		logger:   slog.Default(),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	e.reports = sink.NewRouter(e.logger, e.sinks...)
	return e
}

// Fillers lists the registered fillers in activation order.
func (e *Engine) Fillers() []string { return e.registry.Names() }

// Close closes the report sinks.
func (e *Engine) Close() error { return e.reports.Close() }

// Fill runs one fill against doc. It always returns a result: an
// unreadable page, an unsupported site and an invalid request are failure
// results, not errors. Every run is reported to the sinks.
func (e *Engine) Fill(ctx context.Context, doc dom.Document, req *booking.FillRequest) booking.FillResult {
	rep := booking.Report{ID: e.newID(), StartedAt: e.now()}
	if req != nil {
		rep.Passengers = len(req.Passengers)
	}
	log := e.logger.With("run", rep.ID, "transport", kit.GetTransport(ctx))
	if tid := kit.GetTraceID(ctx); tid != "" {
		log = log.With("trace_id", tid)
	}

	rep.Result = e.run(ctx, log, doc, req, &rep)
	rep.FinishedAt = e.now()

	log.Info("engine: fill finished",
		"filler", rep.Filler,
		"success", rep.Result.Success,
		"message", rep.Result.Message,
		"details", len(rep.Result.Details),
		"duration_ms", rep.Duration().Milliseconds())
	e.emit(ctx, rep)
	return rep.Result
}

func (e *Engine) run(ctx context.Context, log *slog.Logger, doc dom.Document, req *booking.FillRequest, rep *booking.Report) booking.FillResult {
	page, err := filler.PageFromDocument(doc)
	if err != nil {
		log.Warn("engine: page context unavailable", "error", err)
		return booking.Failed("Error: "+err.Error(), nil)
	}
	if page.URL != nil {
		rep.PageURL = page.URL.String()
	}

	f, ok := e.registry.Active(page)
	if !ok {
		log.Info("engine: no filler for page", "host", page.Host())
		return booking.Failed(MsgNotSupported, nil)
	}
	rep.Filler = f.Name()

	if err := booking.Validate(req); err != nil {
		log.Warn("engine: request rejected", "error", err)
		return booking.Failed(err.Error(), nil)
	}
	return f.Fill(ctx, doc, req)
}

// FillCurrent runs a fill against the configured source.
func (e *Engine) FillCurrent(ctx context.Context, req *booking.FillRequest) booking.FillResult {
	if e.source == nil {
		return booking.Failed(ErrNoSource.Error(), nil)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.source.Document(ctx)
	if err != nil {
		e.logger.Warn("engine: document unavailable", "error", err)
		return booking.Failed("Error: "+err.Error(), nil)
	}
	return e.Fill(ctx, doc, req)
}

// emit delivers the report even when the caller has gone away.
func (e *Engine) emit(ctx context.Context, rep booking.Report) {
	if e.reports.Len() == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := e.reports.Send(ctx, rep); err != nil {
		e.logger.Warn("engine: report delivery failed", "run", rep.ID, "error", err)
	}
}
