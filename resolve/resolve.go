package resolve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/autofill/dom"
)

// Match is the outcome of a single-element resolution.
type Match struct {
	Element dom.Element
	// Tier is the index of the winning strategy in the chain.
	Tier     int
	Strategy Strategy
	// Candidates is how many elements the winning tier produced.
	Candidates int
}

// ListMatch is the outcome of a whole-list resolution.
type ListMatch struct {
	Elements []dom.Element
	Tier     int
	Strategy Strategy
}

// Resolve returns the first element of the first tier that matches.
// dom.ErrNotFound is returned once the chain is exhausted.
func Resolve(scope dom.Scope, chain Chain) (Match, error) {
	lm, err := ResolveAll(scope, chain)
	if err != nil {
		return Match{}, err
	}
	return Match{
		Element:    lm.Elements[0],
		Tier:       lm.Tier,
		Strategy:   lm.Strategy,
		Candidates: len(lm.Elements),
	}, nil
}

// ResolveAll returns every element of the first tier with a non-empty
// result. Tiers are never mixed, so repeated fields keep one markup shape.
// A tier that errors is skipped; its error is reported only when no later
// tier matches.
func ResolveAll(scope dom.Scope, chain Chain) (ListMatch, error) {
	var errs []error
	for i, s := range chain {
		els, err := s.Find(scope)
		if err != nil {
			errs = append(errs, fmt.Errorf("resolve: tier %d (%s): %w", i, s, err))
			continue
		}
		if len(els) > 0 {
			return ListMatch{Elements: els, Tier: i, Strategy: s}, nil
		}
	}
	if len(errs) > 0 {
		return ListMatch{}, errors.Join(errs...)
	}
	return ListMatch{}, fmt.Errorf("resolve: %w: %s", dom.ErrNotFound, chain)
}

// Find is Resolve reduced to the element; a nil element means not found.
// Backend errors are still reported.
func Find(scope dom.Scope, chain Chain) (dom.Element, error) {
	m, err := Resolve(scope, chain)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return m.Element, nil
}

// FindAll is ResolveAll reduced to the list; an empty list means not found.
func FindAll(scope dom.Scope, chain Chain) ([]dom.Element, error) {
	lm, err := ResolveAll(scope, chain)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return lm.Elements, nil
}

// AwaitElement polls Resolve until it matches or timeout elapses, in which
// case a *dom.TimeoutError is returned.
func AwaitElement(ctx context.Context, scope dom.Scope, chain Chain, timeout time.Duration) (Match, error) {
	var m Match
	err := dom.WaitFor(ctx, chain.String(), timeout, dom.DefaultPollInterval, func() (bool, error) {
		got, err := Resolve(scope, chain)
		if err != nil {
			if isNotFound(err) {
				return false, nil
			}
			return false, err
		}
		m = got
		return true, nil
	})
	return m, err
}

func isNotFound(err error) bool { return errors.Is(err, dom.ErrNotFound) }
