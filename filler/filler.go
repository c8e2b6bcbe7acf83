// Package filler defines the site-filler capability and the registry that
// activates the first filler accepting a page.
package filler

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hazyhaar/autofill/booking"
	"github.com/hazyhaar/autofill/dom"
)

// PageContext is what a filler's capability check sees.
type PageContext struct {
	URL *url.URL
}

// Host returns the lower-cased host name without port.
func (p PageContext) Host() string {
	if p.URL == nil {
		return ""
	}
	return strings.ToLower(p.URL.Hostname())
}

// PageFromDocument reads the page context from a live document.
func PageFromDocument(doc dom.Document) (PageContext, error) {
	u, err := doc.Location()
	if err != nil {
		return PageContext{}, fmt.Errorf("filler: location: %w", err)
	}
	return PageContext{URL: u}, nil
}

// Filler is an automation unit bound to one target site. Fillers hold no
// per-run state; one instance serves every run.
type Filler interface {
	Name() string
	CanHandle(page PageContext) bool
	// Fill runs the pipeline once. It always returns a result.
	Fill(ctx context.Context, doc dom.Document, req *booking.FillRequest) booking.FillResult
}

// Registry is an ordered, immutable list of fillers.
type Registry struct {
	fillers []Filler
}

// NewRegistry copies fillers in registration order. Nil entries are dropped.
func NewRegistry(fillers ...Filler) *Registry {
	r := &Registry{fillers: make([]Filler, 0, len(fillers))}
	for _, f := range fillers {
		if f != nil {
			r.fillers = append(r.fillers, f)
		}
	}
	return r
}

// Active returns the first filler accepting page. false means the site is
// not supported.
func (r *Registry) Active(page PageContext) (Filler, bool) {
	for _, f := range r.fillers {
		if f.CanHandle(page) {
			return f, true
		}
	}
	return nil, false
}

// Names lists the registered fillers in order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.fillers))
	for i, f := range r.fillers {
		out[i] = f.Name()
	}
	return out
}

// Len is the number of registered fillers.
func (r *Registry) Len() int { return len(r.fillers) }
