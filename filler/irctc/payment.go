package irctc

import (
	"errors"
	"strings"

	"github.com/hazyhaar/autofill/booking"
	"github.com/hazyhaar/autofill/dom"
	"github.com/hazyhaar/autofill/formctl"
	"github.com/hazyhaar/autofill/resolve"
)

// fillPayment selects the payment family. Failures are logged and never
// abort the run; only the pause can return an error.
func (r *run) fillPayment() error {
	r.log.Section("Filling Payment Details")
	if err := r.pause(r.t.Payment); err != nil {
		return err
	}
	if err := r.selectPayment(); err != nil && !errors.Is(err, formctl.ErrNoOption) {
		r.log.Fail("Error: %v", err)
		r.logger.Warn("irctc: payment step failed", "error", err)
	}
	return nil
}

func (r *run) selectPayment() error {
	p := r.req.Payment
	r.log.Info("Payment method: %s", p.Method)

	radios, err := r.doc.QueryAll(selPaymentRadio)
	if err != nil {
		return err
	}
	r.log.Info("Found %d payment radio buttons", len(radios))

	family := p.Family()
	toggle := cardToggle()
	if family == booking.MethodUPI {
		toggle = upiToggle()
	}
	out, err := toggle.Select(r.doc, r.log)
	if err != nil {
		return err
	}
	if family != booking.MethodUPI || !out.Activated || p.UPIID == "" {
		return nil
	}

	m, err := resolve.AwaitElement(r.ctx, r.doc, upiInputChain, r.t.UPIRender.D())
	if errors.Is(err, dom.ErrTimeout) {
		r.log.Warn("UPI ID field not visible yet")
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := formctl.SetValue(m.Element, p.UPIID); err != nil {
		return err
	}
	r.log.Ok("UPI ID filled: %s", MaskUPI(p.UPIID))
	return nil
}

// MaskUPI hides the account part of a UPI id for the progress log, which
// reaches every report sink. The first two characters and the handle stay.
func MaskUPI(id string) string {
	local, handle, found := strings.Cut(strings.TrimSpace(id), "@")
	const stars = "****"
	masked := stars
	if r := []rune(local); len(r) > 2 {
		masked = string(r[:2]) + stars
	}
	if found {
		return masked + "@" + handle
	}
	return masked
}
