package irctc

import (
	"github.com/hazyhaar/autofill/formctl"
	"github.com/hazyhaar/autofill/progress"
)

// fillContact writes mobile and email unless the page already carries a
// value, which the site pre-fills from the logged-in account. The two
// fields are handled independently.
func (r *run) fillContact() error {
	r.log.Section("Filling Contact Details")
	if err := r.pause(r.t.Contact); err != nil {
		return err
	}

	mobile := r.find("mobile field", r.doc, mobileChain)
	email := r.find("email field", r.doc, emailChain)
	r.log.Info("Mobile input found: %t", mobile != nil)
	r.log.Info("Email input found: %t", email != nil)

	if mobile == nil {
		r.log.Fail("Mobile number field not found")
	} else if written, existing, err := formctl.SetValueIfEmpty(mobile, r.req.Contact.Mobile); err != nil {
		r.fault("mobile", err)
	} else if written {
		r.log.Ok("Mobile number filled")
	} else {
		r.log.Warn("Mobile already filled: %s (keeping existing)", progress.Untrusted(existing, 40))
	}

	if email == nil {
		r.log.Warn("Email field not found (may be pre-filled from login)")
		return nil
	}
	if written, existing, err := formctl.SetValueIfEmpty(email, r.req.Contact.Email); err != nil {
		r.fault("email", err)
	} else if written {
		r.log.Ok("Email filled")
	} else {
		r.log.Warn("Email already filled: %s (keeping existing)", progress.Untrusted(existing, 80))
	}
	return nil
}
