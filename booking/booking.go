// Package booking holds the fill request and result exchanged between the
// caller and a site filler.
package booking

import (
	"strings"
	"time"
)

// Passenger is one traveller entry.
type Passenger struct {
	Name   string `json:"name" validate:"required"`
	Age    int    `json:"age" validate:"min=1,max=120"`
	Gender string `json:"gender" validate:"required,gender"`
	Berth  string `json:"berth,omitempty"`
}

// Contact is the booking contact. The pipeline never overwrites a contact
// field the page already carries.
type Contact struct {
	Mobile string `json:"mobile" validate:"required,len=10,number"`
	Email  string `json:"email" validate:"required,email"`
}

// PaymentMethod groups the accepted method spellings into the two families
// the payment page offers.
type PaymentMethod int

const (
	MethodNone PaymentMethod = iota
	MethodUPI
	MethodCard
)

func (m PaymentMethod) String() string {
	switch m {
	case MethodUPI:
		return "upi"
	case MethodCard:
		return "card"
	}
	return "none"
}

// ParseMethod maps a free-form method name to its family. Unknown names
// report false.
func ParseMethod(s string) (PaymentMethod, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return MethodNone, true
	case "upi", "bhim/upi", "bhim", "bhim upi":
		return MethodUPI, true
	case "cards", "card", "credit", "debit", "netbanking", "net banking", "wallet":
		return MethodCard, true
	}
	return MethodNone, false
}

// Payment selects a payment family. UPIID is only meaningful for UPI.
type Payment struct {
	Method string `json:"method,omitempty" validate:"paymethod"`
	UPIID  string `json:"upiId,omitempty"`
}

// Family returns the parsed method, MethodNone when unknown.
func (p *Payment) Family() PaymentMethod {
	if p == nil {
		return MethodNone
	}
	m, _ := ParseMethod(p.Method)
	return m
}

// FillRequest is the single message a fill is driven by.
type FillRequest struct {
	Passengers []Passenger `json:"passengers" validate:"required,min=1,dive"`
	Contact    Contact     `json:"contact"`
	Payment    *Payment    `json:"payment,omitempty"`
}

// HasPayment reports whether a payment step should run.
func (r *FillRequest) HasPayment() bool {
	return r.Payment.Family() != MethodNone
}

// FillResult is always returned to the caller, success or not. Details lists
// every attempted action in execution order.
type FillResult struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

// Failed builds a failure result.
func Failed(msg string, details []string) FillResult {
	if details == nil {
		details = []string{}
	}
	return FillResult{Success: false, Message: msg, Details: details}
}

// Report is the envelope delivered to result sinks after a run.
type Report struct {
	ID         string     `json:"id"`
	Filler     string     `json:"filler,omitempty"`
	PageURL    string     `json:"page_url,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Passengers int        `json:"passengers"`
	Result     FillResult `json:"result"`
}

// Duration is the wall time of the run.
func (r Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
