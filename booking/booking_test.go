package booking

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func validRequest() *FillRequest {
	return &FillRequest{
		Passengers: []Passenger{{Name: "ASHA RAO", Age: 34, Gender: "Female", Berth: "LB"}},
		Contact:    Contact{Mobile: "9876543210", Email: "a@b.com"},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := Validate(validRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FillRequest)
		want   string
	}{
		{"no passengers", func(r *FillRequest) { r.Passengers = nil }, "Passengers"},
		{"empty name", func(r *FillRequest) { r.Passengers[0].Name = "" }, "Name"},
		{"age zero", func(r *FillRequest) { r.Passengers[0].Age = 0 }, "Age"},
		{"age 121", func(r *FillRequest) { r.Passengers[0].Age = 121 }, "Age"},
		{"bad gender", func(r *FillRequest) { r.Passengers[0].Gender = "robot" }, "Gender"},
		{"short mobile", func(r *FillRequest) { r.Contact.Mobile = "12345" }, "Mobile"},
		{"alpha mobile", func(r *FillRequest) { r.Contact.Mobile = "98765abcde" }, "Mobile"},
		{"decimal mobile", func(r *FillRequest) { r.Contact.Mobile = "12345.6789" }, "Mobile must be digits only"},
		{"plus mobile", func(r *FillRequest) { r.Contact.Mobile = "+987654321" }, "Mobile must be digits only"},
		{"minus mobile", func(r *FillRequest) { r.Contact.Mobile = "-987654321" }, "Mobile must be digits only"},
		{"bad email", func(r *FillRequest) { r.Contact.Email = "nope" }, "Email"},
		{"bad method", func(r *FillRequest) { r.Payment = &Payment{Method: "cash"} }, "Method"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest()
			tt.mutate(r)
			err := Validate(r)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %s", err, tt.want)
			}
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	if err := Validate(nil); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("got %v", err)
	}
}

func TestValidatePassengerAndContact(t *testing.T) {
	if err := ValidatePassenger(Passenger{Name: "RAVI", Age: 40, Gender: "m"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := ValidatePassenger(Passenger{Name: "RAVI", Age: 0, Gender: "m"})
	if !errors.Is(err, ErrInvalidRequest) || !strings.Contains(err.Error(), "Age must be at least 1") {
		t.Fatalf("got %v", err)
	}
	if err := ValidateContact(Contact{Mobile: "98765", Email: "a@b.com"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("got %v", err)
	}
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in   string
		want PaymentMethod
		ok   bool
	}{
		{"", MethodNone, true},
		{"UPI", MethodUPI, true},
		{"BHIM/UPI", MethodUPI, true},
		{"Cards", MethodCard, true},
		{"netbanking", MethodCard, true},
		{"Wallet", MethodCard, true},
		{"cash", MethodNone, false},
	}
	for _, tt := range tests {
		got, ok := ParseMethod(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseMethod(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestHasPayment(t *testing.T) {
	r := validRequest()
	if r.HasPayment() {
		t.Fatal("nil payment should not run the payment step")
	}
	r.Payment = &Payment{}
	if r.HasPayment() {
		t.Fatal("empty method should not run the payment step")
	}
	r.Payment = &Payment{Method: "UPI", UPIID: "asha@upi"}
	if !r.HasPayment() {
		t.Fatal("UPI should run the payment step")
	}
}

func TestFillResult_JSON(t *testing.T) {
	b, err := json.Marshal(Failed("site not supported", nil))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"success":false,"message":"site not supported","details":[]}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}
}

func TestFillRequest_DecodesUIShape(t *testing.T) {
	src := `{"passengers":[{"name":"RAVI","age":40,"gender":"male"}],
	         "contact":{"mobile":"9876543210","email":"r@x.in"},
	         "payment":{"method":"UPI","upiId":"ravi@okbank"}}`
	var r FillRequest
	if err := json.Unmarshal([]byte(src), &r); err != nil {
		t.Fatal(err)
	}
	if r.Payment.Family() != MethodUPI || r.Payment.UPIID != "ravi@okbank" {
		t.Fatalf("payment = %+v", r.Payment)
	}
	if err := Validate(&r); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
