package irctc

import (
	"errors"

	"github.com/hazyhaar/autofill/dom"
	"github.com/hazyhaar/autofill/progress"
	"github.com/hazyhaar/autofill/resolve"
)

// submit activates the Continue control. A missing or disabled control is
// an advisory for the operator, not a failure.
func (r *run) submit() error {
	r.log.Section("Auto-clicking Continue Button")
	if err := r.pause(r.t.Submit); err != nil {
		return err
	}
	if err := r.clickContinue(); err != nil {
		r.log.Fail("Error: %v", err)
		r.logger.Warn("irctc: submit step failed", "error", err)
	}
	return nil
}

func (r *run) clickContinue() error {
	m, err := resolve.Resolve(r.doc, submitChain)
	if errors.Is(err, dom.ErrNotFound) {
		r.log.Fail("Continue button not found")
		r.log.Info("Please click Continue manually")
		all, err := r.doc.QueryAll("button")
		if err != nil {
			return err
		}
		r.log.Info("Total buttons on page: %d", len(all))
		return nil
	}
	if err != nil {
		return err
	}

	switch m.Tier {
	case tierSubmitRegion:
		r.log.Info("Found Continue button in pull-right div")
	case tierSubmitGlobal:
		candidates, err := globalContinue.Find(r.doc)
		if err != nil {
			return err
		}
		r.log.Info("Found Continue button (%d candidates, using last one)", len(candidates))
	}

	btn := m.Element
	text, err := btn.Text()
	if err != nil {
		return err
	}
	classes, _, err := btn.Attribute("class")
	if err != nil {
		return err
	}
	disabled, err := btn.Disabled()
	if err != nil {
		return err
	}
	r.log.Info("Button found: %q", progress.Untrusted(text, 60))
	r.log.Info("Button classes: %s", progress.Untrusted(classes, 120))
	r.log.Info("Button disabled: %t", disabled)

	if disabled {
		r.log.Warn("Continue button is disabled")
		r.log.Info("Please verify all fields are correct")
		return nil
	}
	if err := btn.ScrollIntoView(); err != nil {
		return err
	}
	if err := r.pause(r.t.Scroll); err != nil {
		return err
	}
	if err := btn.Click(); err != nil {
		return err
	}
	r.log.Ok("Continue button clicked!")
	return nil
}
