// Package resolve finds live elements through ordered fallback chains.
//
// A target page renders the same logical field under different markup
// depending on its library version, so a field is described by a Chain of
// Strategies tried in order; the first tier with a match wins.
package resolve

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/autofill/dom"
)

// Strategy is one lookup descriptor of a chain.
type Strategy interface {
	// Find returns the matches in document order, possibly none.
	Find(scope dom.Scope) ([]dom.Element, error)
	String() string
}

// Chain is an ordered fallback list.
type Chain []Strategy

// String joins the tiers for diagnostics.
func (c Chain) String() string {
	parts := make([]string, len(c))
	for i, s := range c {
		parts[i] = s.String()
	}
	return strings.Join(parts, " | ")
}

type css string

// CSS matches a selector.
func CSS(selector string) Strategy { return css(selector) }

func (s css) Find(scope dom.Scope) ([]dom.Element, error) {
	return scope.QueryAll(string(s))
}

func (s css) String() string { return string(s) }

type where struct {
	selector string
	desc     string
	pred     func(dom.Element) (bool, error)
}

// Where keeps the selector matches accepted by pred. desc names the
// predicate in diagnostics.
func Where(selector, desc string, pred func(dom.Element) (bool, error)) Strategy {
	return &where{selector: selector, desc: desc, pred: pred}
}

func (s *where) Find(scope dom.Scope) ([]dom.Element, error) {
	els, err := scope.QueryAll(s.selector)
	if err != nil {
		return nil, err
	}
	out := els[:0:0]
	for _, el := range els {
		ok, err := s.pred(el)
		if err != nil {
			return nil, fmt.Errorf("resolve: %s: %w", s, err)
		}
		if ok {
			out = append(out, el)
		}
	}
	return out, nil
}

func (s *where) String() string { return s.selector + " where " + s.desc }

// TextContains keeps matches whose trimmed, lower-cased text contains any
// of needles. Needles are compared lower-cased.
func TextContains(selector string, needles ...string) Strategy {
	lowered := lower(needles)
	return Where(selector, fmt.Sprintf("text contains %q", needles), func(el dom.Element) (bool, error) {
		txt, err := el.Text()
		if err != nil {
			return false, err
		}
		return containsAny(strings.ToLower(strings.TrimSpace(txt)), lowered), nil
	})
}

// AttrContains keeps matches where any of attrs contains needle,
// case-insensitively.
func AttrContains(selector string, attrs []string, needle string) Strategy {
	n := strings.ToLower(needle)
	return Where(selector, fmt.Sprintf("%v contains %q", attrs, needle), func(el dom.Element) (bool, error) {
		for _, a := range attrs {
			v, ok, err := el.Attribute(a)
			if err != nil {
				return false, err
			}
			if ok && strings.Contains(strings.ToLower(v), n) {
				return true, nil
			}
		}
		return false, nil
	})
}

type within struct {
	region string
	inner  Strategy
}

// Within runs inner inside the first match of region. A missing region
// yields no match.
func Within(region string, inner Strategy) Strategy {
	return &within{region: region, inner: inner}
}

func (s *within) Find(scope dom.Scope) ([]dom.Element, error) {
	r, err := dom.First(scope, s.region)
	if err != nil || r == nil {
		return nil, err
	}
	return s.inner.Find(r)
}

func (s *within) String() string { return s.inner.String() + " within " + s.region }

type last struct{ inner Strategy }

// Last keeps only the final match of inner in document order.
func Last(inner Strategy) Strategy { return last{inner: inner} }

func (s last) Find(scope dom.Scope) ([]dom.Element, error) {
	els, err := s.inner.Find(scope)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return els[len(els)-1:], nil
}

func (s last) String() string { return "last of " + s.inner.String() }

func lower(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.ToLower(s)
	}
	return out
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
