package irctc

import (
	"fmt"
	"strings"
	"testing"

	"github.com/hazyhaar/autofill/booking"
	"github.com/hazyhaar/autofill/dom"
	"github.com/hazyhaar/autofill/dom/memdom"
	"gopkg.in/yaml.v3"
)

const bookingURL = "https://www.irctc.co.in/nget/booking/psgninput"

const passengerRow = `<div class="passengerrow">
  <p-autocomplete formcontrolname="passengerName"><span><input type="text" class="ui-autocomplete-input"></span></p-autocomplete>
  <input formcontrolname="passengerAge" type="number">
  <select formcontrolname="passengerGender">
    <option value="">Gender</option><option value="M">Male</option><option value="F">Female</option><option value="T">Transgender</option>
  </select>
  <select formcontrolname="passengerBerthChoice">
    <option value="">No Preference</option><option value="LB">Lower</option><option value="SL">Side Lower</option><option value="UB">Upper</option>
  </select>
</div>`

const paymentBlock = `<div id="payment">
  <div class="opt">
    <p-radiobutton formcontrolname="paymentType" aria-checked="false">
      <div class="ui-radiobutton"><input type="radio" name="paymentType" id="1" value="1"><div class="ui-radiobutton-box"></div></div>
    </p-radiobutton>
    <label>Credit &amp; Debit cards / Net Banking / Wallets</label>
  </div>
  <div class="opt">
    <p-radiobutton formcontrolname="paymentType" aria-checked="false">
      <div class="ui-radiobutton"><input type="radio" name="paymentType" id="2" value="2"><div class="ui-radiobutton-box"></div></div>
    </p-radiobutton>
    <label>Pay through BHIM/UPI</label>
  </div>
  <div id="upi-host"></div>
</div>`

// pageLayout describes a synthetic booking page.
type pageLayout struct {
	rows      int
	addButton bool
	mobile    string // pre-filled value
	email     string
	payment   bool
	submit    string // markup of the submit region, "" for none
	extra     string
}

const defaultSubmit = `<div class="pull-left"><button type="button" class="price">Continue ₹ 1,230</button></div>
<div class="pull-right"><button class="mob-bot-btn search_btn" type="submit" id="continue">Continue</button></div>`

func buildPage(s pageLayout) string {
	var b strings.Builder
	b.WriteString(`<html><body><app-passenger-list><div id="rows">`)
	for range s.rows {
		b.WriteString(passengerRow)
	}
	b.WriteString(`</div></app-passenger-list>`)
	if s.addButton {
		b.WriteString(`<a id="add" class="prenext"><span>+ Add Passenger</span></a>`)
	}
	fmt.Fprintf(&b, `<div class="contact">
  <input formcontrolname="mobileNumber" type="tel" placeholder="Mobile Number" value="%s">
  <input formcontrolname="email" type="text" placeholder="Email ID" value="%s">
</div>`, s.mobile, s.email)
	if s.payment {
		b.WriteString(paymentBlock)
	}
	b.WriteString(s.submit)
	b.WriteString(s.extra)
	b.WriteString(`</body></html>`)
	return b.String()
}

// newPage parses a page and wires the add control to render a new row,
// like the Angular form does.
func newPage(t *testing.T, s pageLayout) *memdom.Document {
	t.Helper()
	doc, err := memdom.ParseString(buildPage(s), bookingURL)
	if err != nil {
		t.Fatal(err)
	}
	if s.addButton {
		if err := doc.On(dom.EventClick, "#add", func(d *memdom.Document, _ *memdom.Element) {
			if err := d.AppendHTML("#rows", passengerRow); err != nil {
				t.Errorf("append row: %v", err)
			}
		}); err != nil {
			t.Fatal(err)
		}
	}
	return doc
}

func twoPassengers() *booking.FillRequest {
	return &booking.FillRequest{
		Passengers: []booking.Passenger{
			{Name: "ASHA RAO", Age: 34, Gender: "Female", Berth: "Lower"},
			{Name: "RAVI RAO", Age: 38, Gender: "MALE"},
		},
		Contact: booking.Contact{Mobile: "9876543210", Email: "a@b.com"},
	}
}

// inOrder fails unless every want line appears in lines, in order.
func inOrder(t *testing.T, lines []string, want ...string) {
	t.Helper()
	i := 0
	for _, l := range lines {
		if i < len(want) && l == want[i] {
			i++
		}
	}
	if i < len(want) {
		t.Fatalf("missing %q (in order) in log:\n%s", want[i], strings.Join(lines, "\n"))
	}
}

func contains(lines []string, want string) bool {
	for _, l := range lines {
		if l == want {
			return true
		}
	}
	return false
}

func value(t *testing.T, el *memdom.Element) string {
	t.Helper()
	if el == nil {
		t.Fatal("element not found")
	}
	v, err := el.Value()
	if err != nil {
		t.Fatal(err)
	}
	return v
}

// failingDoc makes QueryAll fail for the listed selectors.
type failingDoc struct {
	*memdom.Document
	selectors []string
	err       error
}

func (f failingDoc) QueryAll(sel string) ([]dom.Element, error) {
	for _, s := range f.selectors {
		if sel == s {
			return nil, f.err
		}
	}
	return f.Document.QueryAll(sel)
}

func yamlUnmarshal(s string, v any) error {
	return yaml.Unmarshal([]byte(s), v)
}
