package formctl

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/autofill/dom"
)

// SelectOption picks the option of control matching desired: exact value
// first, then exact text, then text containing desired. The first option in
// document order wins within a pass. No match leaves control untouched.
func SelectOption(control dom.Element, desired string) (bool, error) {
	if control == nil {
		return false, nil
	}
	opts, err := control.Options()
	if err != nil {
		return false, fmt.Errorf("formctl: options: %w", err)
	}
	opt, ok := MatchOption(opts, desired)
	if !ok {
		return false, nil
	}
	if err := control.SetValue(opt.Value); err != nil {
		return false, fmt.Errorf("formctl: select %q: %w", opt.Value, err)
	}
	if err := dom.NotifyCommitted(control); err != nil {
		return false, fmt.Errorf("formctl: notify: %w", err)
	}
	return true, nil
}

// MatchOption applies the selection priority to a list of options.
func MatchOption(opts []dom.Option, desired string) (dom.Option, bool) {
	passes := []func(dom.Option) bool{
		func(o dom.Option) bool { return o.Value == desired },
		func(o dom.Option) bool { return strings.TrimSpace(o.Text) == desired },
		func(o dom.Option) bool { return strings.Contains(o.Text, desired) },
	}
	for _, match := range passes {
		for _, o := range opts {
			if match(o) {
				return o, true
			}
		}
	}
	return dom.Option{}, false
}
