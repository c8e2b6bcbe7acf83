// Package dom is the target-platform abstraction the form automation runs
// against. The pipeline never talks to a browser directly: it resolves and
// mutates Elements through these interfaces, so the same logic drives a live
// Chrome tab (internal/browser) or an in-memory document (dom/memdom).
//
// All lookups return matches in document order. Absent relatives (Closest,
// Parent, First) are reported as a nil Element with a nil error; errors are
// reserved for a broken backend (detached node, dead page, bad selector).
package dom

import "net/url"

// Scope is anything that can be searched with a CSS selector.
type Scope interface {
	QueryAll(selector string) ([]Element, error)
}

// Document is the live page.
type Document interface {
	Scope
	Location() (*url.URL, error)
}

// Markup is implemented by documents that can serialise their current
// DOM, live state included.
type Markup interface {
	HTML() (string, error)
}

// Option is one entry of a multi-choice control, in document order.
type Option struct {
	Value string `json:"value"`
	Text  string `json:"text"`
	Index int    `json:"index"`
}

// Element is a live node of the page.
type Element interface {
	Scope

	// TagName is upper-case, as reported by the DOM.
	TagName() (string, error)
	Attribute(name string) (value string, ok bool, err error)
	SetAttribute(name, value string) error

	// Text is the raw textContent; callers trim.
	Text() (string, error)
	Value() (string, error)
	SetValue(v string) error
	Checked() (bool, error)
	SetChecked(v bool) error
	// Disabled reports the disabled property or the presence of the attribute.
	Disabled() (bool, error)
	Options() ([]Option, error)

	Focus() error
	// Click runs the element's own click(), including its default action.
	Click() error
	ScrollIntoView() error
	// Dispatch fires bubbling synthetic events in the given order.
	Dispatch(kinds ...EventKind) error

	Closest(selector string) (Element, error)
	Parent() (Element, error)
}

// First returns the first match of selector in scope, or nil.
func First(scope Scope, selector string) (Element, error) {
	els, err := scope.QueryAll(selector)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return els[0], nil
}
