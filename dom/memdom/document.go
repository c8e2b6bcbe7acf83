// Package memdom is an in-memory dom.Document built on golang.org/x/net/html
// with cascadia selectors. It keeps live form state (value, checked) beside
// the parsed markup, journals every dispatched event and runs bubbling
// listeners, which is enough to replay a framework-rendered form without a
// browser: the pipeline tests and the CLI dry-run both drive it.
package memdom

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/hazyhaar/autofill/dom"
)

// Listener reacts to an event reaching a node that matched its selector.
// target is the node the event was dispatched on.
type Listener func(doc *Document, target *Element)

// Event is one journal entry.
type Event struct {
	Kind   dom.EventKind
	Target *Element
}

type listener struct {
	kind dom.EventKind
	m    cascadia.Matcher
	fn   Listener
}

type nodeState struct {
	value   *string
	checked *bool
}

// Document is a parsed page with live form state.
type Document struct {
	root      *html.Node
	loc       *url.URL
	state     map[*html.Node]*nodeState
	listeners []listener
	events    []Event
	active    *html.Node
	matchers  map[string]cascadia.Matcher
}

// Parse reads an HTML page. location is what Location reports; the site
// fillers decide from its host whether they handle the page.
func Parse(r io.Reader, location string) (*Document, error) {
	loc, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("memdom: location: %w", err)
	}
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("memdom: parse: %w", err)
	}
	return &Document{
		root:     root,
		loc:      loc,
		state:    make(map[*html.Node]*nodeState),
		matchers: make(map[string]cascadia.Matcher),
	}, nil
}

// ParseString is Parse over a string.
func ParseString(src, location string) (*Document, error) {
	return Parse(strings.NewReader(src), location)
}

// MustParse is ParseString for fixtures; it panics on error.
func MustParse(src, location string) *Document {
	d, err := ParseString(src, location)
	if err != nil {
		panic(err)
	}
	return d
}

// Location implements dom.Document.
func (d *Document) Location() (*url.URL, error) {
	u := *d.loc
	return &u, nil
}

// QueryAll implements dom.Scope.
func (d *Document) QueryAll(selector string) ([]dom.Element, error) {
	return d.queryAll(d.root, selector)
}

// Find returns the first match of selector, or nil. Bad selectors panic,
// Find is meant for fixtures and assertions.
func (d *Document) Find(selector string) *Element {
	els := d.FindAll(selector)
	if len(els) == 0 {
		return nil
	}
	return els[0]
}

// FindAll returns every match of selector as concrete elements.
func (d *Document) FindAll(selector string) []*Element {
	m, err := d.matcher(selector)
	if err != nil {
		panic(err)
	}
	var out []*Element
	for _, n := range cascadia.QueryAll(d.root, m) {
		out = append(out, d.wrap(n))
	}
	return out
}

// On registers a listener for kind on every node matching selector or
// having an ancestor that matches it (events always bubble).
func (d *Document) On(kind dom.EventKind, selector string, fn Listener) error {
	m, err := d.matcher(selector)
	if err != nil {
		return err
	}
	d.listeners = append(d.listeners, listener{kind: kind, m: m, fn: fn})
	return nil
}

// Events returns the journal of dispatched events, oldest first.
func (d *Document) Events() []Event {
	return append([]Event(nil), d.events...)
}

// EventsOn returns the kinds of journaled events whose target matches selector.
func (d *Document) EventsOn(selector string) []dom.EventKind {
	m, err := d.matcher(selector)
	if err != nil {
		panic(err)
	}
	var out []dom.EventKind
	for _, ev := range d.events {
		if m.Match(ev.Target.n) {
			out = append(out, ev.Kind)
		}
	}
	return out
}

// ActiveElement is the last focused element, or nil.
func (d *Document) ActiveElement() *Element {
	if d.active == nil {
		return nil
	}
	return d.wrap(d.active)
}

// AppendHTML parses fragment in the context of the first match of
// parentSelector and appends the resulting nodes to it. Listeners use it to
// emulate a framework rendering a new sub-form.
func (d *Document) AppendHTML(parentSelector, fragment string) error {
	parent := d.Find(parentSelector)
	if parent == nil {
		return fmt.Errorf("memdom: append: %w: %s", dom.ErrNotFound, parentSelector)
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), parent.n)
	if err != nil {
		return fmt.Errorf("memdom: append: %w", err)
	}
	for _, n := range nodes {
		parent.n.AppendChild(n)
	}
	return nil
}

func (d *Document) matcher(selector string) (cascadia.Matcher, error) {
	if m, ok := d.matchers[selector]; ok {
		return m, nil
	}
	m, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("memdom: selector %q: %w", selector, err)
	}
	d.matchers[selector] = m
	return m, nil
}

func (d *Document) queryAll(n *html.Node, selector string) ([]dom.Element, error) {
	m, err := d.matcher(selector)
	if err != nil {
		return nil, err
	}
	nodes := cascadia.QueryAll(n, m)
	out := make([]dom.Element, 0, len(nodes))
	for _, c := range nodes {
		out = append(out, d.wrap(c))
	}
	return out, nil
}

func (d *Document) wrap(n *html.Node) *Element {
	return &Element{doc: d, n: n}
}

func (d *Document) stateOf(n *html.Node) *nodeState {
	s, ok := d.state[n]
	if !ok {
		s = &nodeState{}
		d.state[n] = s
	}
	return s
}

func (d *Document) dispatch(target *Element, kind dom.EventKind) {
	d.events = append(d.events, Event{Kind: kind, Target: target})
	for _, l := range d.listeners {
		if l.kind != kind {
			continue
		}
		for n := target.n; n != nil; n = n.Parent {
			if n.Type == html.ElementNode && l.m.Match(n) {
				l.fn(d, target)
				break
			}
		}
	}
}
