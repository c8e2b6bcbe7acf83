// Package formctl writes values into live form controls so that the host
// page's reactive framework observes them as user edits.
package formctl

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/autofill/dom"
)

// composite tags wrap a primitive input that carries the real value.
var composite = map[string]bool{
	"P-AUTOCOMPLETE":  true,
	"NG-AUTOCOMPLETE": true,
}

// Primitive returns the input a composite widget wraps, or el itself.
func Primitive(el dom.Element) (dom.Element, error) {
	tag, err := el.TagName()
	if err != nil {
		return nil, err
	}
	if !composite[strings.ToUpper(tag)] {
		return el, nil
	}
	inner, err := dom.First(el, "input")
	if err != nil {
		return nil, err
	}
	if inner == nil {
		return el, nil
	}
	return inner, nil
}

// SetValue focuses el, writes value into its primitive input and replays
// the change notifications. A nil element reports false.
func SetValue(el dom.Element, value string) (bool, error) {
	if el == nil {
		return false, nil
	}
	if err := el.Focus(); err != nil {
		return false, fmt.Errorf("formctl: focus: %w", err)
	}
	target, err := Primitive(el)
	if err != nil {
		return false, fmt.Errorf("formctl: drill: %w", err)
	}
	if err := target.SetValue(value); err != nil {
		return false, fmt.Errorf("formctl: set value: %w", err)
	}
	if err := dom.NotifyChanged(target); err != nil {
		return false, fmt.Errorf("formctl: notify: %w", err)
	}
	return true, nil
}

// SetValueIfEmpty writes value only when the primitive input is blank after
// trimming. A non-empty existing value is returned untouched.
func SetValueIfEmpty(el dom.Element, value string) (written bool, existing string, err error) {
	if el == nil {
		return false, "", nil
	}
	target, err := Primitive(el)
	if err != nil {
		return false, "", fmt.Errorf("formctl: drill: %w", err)
	}
	cur, err := target.Value()
	if err != nil {
		return false, "", fmt.Errorf("formctl: read value: %w", err)
	}
	if cur = strings.TrimSpace(cur); cur != "" {
		return false, cur, nil
	}
	ok, err := SetValue(el, value)
	return ok, "", err
}
