package irctc

import (
	"github.com/hazyhaar/autofill/formctl"
	"github.com/hazyhaar/autofill/resolve"
)

// Markup the pipeline depends on. These are the first things to check when
// the site ships a redesign.
const (
	selNameWidget = `p-autocomplete[formcontrolname="passengerName"]`
	selNameInput  = `input[formcontrolname="passengerName"]`
	selAge        = `input[formcontrolname="passengerAge"]`
	selGender     = `select[formcontrolname="passengerGender"]`
	selBerth      = `select[formcontrolname="passengerBerthChoice"]`

	selPaymentRadio = `p-radiobutton[formcontrolname="paymentType"] input[type="radio"]`
	selSubmitRegion = `div.pull-right`
)

var (
	passengerFormChain = resolve.Chain{
		resolve.CSS("app-passenger-list"),
		resolve.CSS(selNameWidget),
		resolve.CSS(selAge),
		resolve.CSS(".passenger-detail-section"),
	}

	// existingEntriesChain counts rendered passenger entries.
	existingEntriesChain = resolve.Chain{
		resolve.CSS(selNameWidget),
		resolve.CSS(selAge),
	}

	addPassengerChain = resolve.Chain{
		resolve.TextContains("button, a", "add passenger", "add infant"),
	}

	entryContainerChain = resolve.Chain{
		resolve.CSS("app-passenger-list .passengerrow"),
		resolve.CSS("app-passenger-list > div > div"),
		resolve.CSS(".passenger-detail-section"),
	}

	nameChain      = resolve.Chain{resolve.CSS(selNameWidget), resolve.CSS(selNameInput)}
	plainNameChain = resolve.Chain{resolve.CSS(selNameInput)}
	ageChain       = resolve.Chain{resolve.CSS(selAge)}
	genderChain    = resolve.Chain{resolve.CSS(selGender)}
	berthChain     = resolve.Chain{resolve.CSS(selBerth)}

	mobileChain = resolve.Chain{
		resolve.CSS(`input[formcontrolname="mobileNumber"]`),
		resolve.CSS(`input[formcontrolname="mobileNo"]`),
		resolve.CSS(`input[placeholder*="Mobile"]`),
		resolve.CSS(`input[placeholder*="mobile"]`),
		resolve.CSS(`input[id*="mobile"]`),
		resolve.CSS(`input[type="tel"]`),
	}

	emailChain = resolve.Chain{
		resolve.CSS(`input[formcontrolname="email"]`),
		resolve.CSS(`input[formcontrolname="emailId"]`),
		resolve.AttrContains(`input[type="text"], input[type="email"]`, []string{"placeholder", "id", "name"}, "email"),
	}

	upiInputChain = resolve.Chain{
		resolve.CSS(`input[placeholder*="UPI"]`),
		resolve.CSS(`input[placeholder*="upi"]`),
		resolve.CSS(`input[formcontrolname*="upi"]`),
	}

	globalContinue = resolve.TextContains("button", "continue")

	// submitChain tiers: precise structure, submit type in the region,
	// text in the region, then the last "continue" anywhere. The price
	// summary renders an earlier button with the same label.
	submitChain = resolve.Chain{
		resolve.CSS(selSubmitRegion + ` button.mob-bot-btn.search_btn[type="submit"]`),
		resolve.Within(selSubmitRegion, resolve.CSS(`button[type="submit"]`)),
		resolve.Within(selSubmitRegion, resolve.TextContains("button", "continue")),
		resolve.Last(globalContinue),
	}
)

const (
	tierSubmitRegion = 1
	tierSubmitGlobal = 3
)

func upiToggle() formctl.Toggle {
	return formctl.Toggle{
		Title:     "BHIM/UPI",
		Group:     selPaymentRadio,
		Container: "p-radiobutton",
		Box:       ".ui-radiobutton-box",
		Label:     "label",
		Keywords:  []string{"bhim", "upi"},
		IDs:       []string{"2"},
	}
}

func cardToggle() formctl.Toggle {
	t := upiToggle()
	t.Title = "Cards/Net Banking/Wallets"
	t.Keywords = []string{"credit", "debit", "card", "net banking", "wallet"}
	t.IDs = []string{"1"}
	return t
}
