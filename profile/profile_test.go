package profile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/autofill/booking"
	"github.com/hazyhaar/autofill/internal/dbopen"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	n := 0
	s, err := New(dbopen.OpenMemory(t), WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("p%d", n)
	}))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestAddPassenger_Normalises(t *testing.T) {
	s := newTestStore(t)
	e, err := s.AddPassenger(context.Background(), booking.Passenger{Name: "  asha rao ", Age: 34, Gender: " Female ", Berth: "LB"})
	if err != nil {
		t.Fatal(err)
	}
	if e.ID != "p1" || e.Name != "ASHA RAO" || e.Gender != "Female" {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestAddPassenger_Rejects(t *testing.T) {
	s := newTestStore(t)
	tests := []booking.Passenger{
		{Name: "", Age: 30, Gender: "male"},
		{Name: "RAVI", Age: 0, Gender: "male"},
		{Name: "RAVI", Age: 121, Gender: "male"},
		{Name: "RAVI", Age: 30, Gender: ""},
	}
	for _, p := range tests {
		if _, err := s.AddPassenger(context.Background(), p); !errors.Is(err, booking.ErrInvalidRequest) {
			t.Errorf("AddPassenger(%+v) = %v, want ErrInvalidRequest", p, err)
		}
	}
	if got, _ := s.ListPassengers(context.Background()); len(got) != 0 {
		t.Fatalf("rejected passengers stored: %v", got)
	}
}

func TestListAndDeletePassengers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, name := range []string{"A", "B", "C"} {
		if _, err := s.AddPassenger(ctx, booking.Passenger{Name: name, Age: 30, Gender: "m"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.DeletePassenger(ctx, "p2"); err != nil {
		t.Fatal(err)
	}
	got, err := s.ListPassengers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Name != "A" || got[1].Name != "C" {
		t.Fatalf("passengers = %+v", got)
	}
	if err := s.DeletePassenger(ctx, "p2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete = %v", err)
	}
}

func TestContact(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.Contact(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty contact = %v", err)
	}
	if err := s.SetContact(ctx, booking.Contact{Mobile: "12345", Email: "a@b.com"}); !errors.Is(err, booking.ErrInvalidRequest) {
		t.Fatalf("short mobile = %v", err)
	}
	if err := s.SetContact(ctx, booking.Contact{Mobile: " 9876543210 ", Email: "a@b.com"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetContact(ctx, booking.Contact{Mobile: "9123456780", Email: "c@d.in"}); err != nil {
		t.Fatal(err)
	}
	c, err := s.Contact(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if c.Mobile != "9123456780" || c.Email != "c@d.in" {
		t.Fatalf("contact = %+v", c)
	}
}

func TestPayment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SetPayment(ctx, booking.Payment{Method: ""}); !errors.Is(err, booking.ErrInvalidRequest) {
		t.Fatalf("empty method = %v", err)
	}
	if err := s.SetPayment(ctx, booking.Payment{Method: "cash"}); !errors.Is(err, booking.ErrInvalidRequest) {
		t.Fatalf("unknown method = %v", err)
	}

	if err := s.SetPayment(ctx, booking.Payment{Method: "UPI", UPIID: " asha@okaxis "}); err != nil {
		t.Fatal(err)
	}
	p, err := s.Payment(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if p.Method != "UPI" || p.UPIID != "asha@okaxis" {
		t.Fatalf("payment = %+v", p)
	}

	// A card choice drops the UPI id.
	if err := s.SetPayment(ctx, booking.Payment{Method: "Cards", UPIID: "asha@okaxis"}); err != nil {
		t.Fatal(err)
	}
	if p, _ = s.Payment(ctx); p.UPIID != "" {
		t.Fatalf("upi id kept for cards: %+v", p)
	}

	if err := s.ClearPayment(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Payment(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after clear = %v", err)
	}
}

func TestRequest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Request(ctx)
	if !errors.Is(err, ErrIncomplete) || !strings.Contains(err.Error(), "add at least one passenger") {
		t.Fatalf("no passengers = %v", err)
	}
	_, _ = s.AddPassenger(ctx, booking.Passenger{Name: "asha", Age: 34, Gender: "F"})
	_, err = s.Request(ctx)
	if !errors.Is(err, ErrIncomplete) || !strings.Contains(err.Error(), "add contact details") {
		t.Fatalf("no contact = %v", err)
	}
	_ = s.SetContact(ctx, booking.Contact{Mobile: "9876543210", Email: "a@b.com"})

	req, err := s.Request(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(req.Passengers) != 1 || req.Passengers[0].Name != "ASHA" || req.Payment != nil {
		t.Fatalf("request = %+v", req)
	}
	if err := booking.Validate(req); err != nil {
		t.Fatalf("profile request does not validate: %v", err)
	}

	_ = s.SetPayment(ctx, booking.Payment{Method: "BHIM/UPI", UPIID: "asha@okaxis"})
	req, _ = s.Request(ctx)
	if !req.HasPayment() || req.Payment.UPIID != "asha@okaxis" {
		t.Fatalf("payment not carried: %+v", req.Payment)
	}
}

func TestOpen_File(t *testing.T) {
	path := t.TempDir() + "/nested/profile.db"
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := s.AddPassenger(context.Background(), booking.Passenger{Name: "x", Age: 5, Gender: "t"}); err != nil {
		t.Fatal(err)
	}
}

func TestHTTP(t *testing.T) {
	s := newTestStore(t)
	r := chi.NewRouter()
	s.RegisterHTTP(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	do := func(method, path, body string) *http.Response {
		t.Helper()
		req, _ := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp
	}

	tests := []struct {
		method, path, body string
		want               int
	}{
		{"GET", "/api/profile/", "", http.StatusUnprocessableEntity},
		{"POST", "/api/profile/passengers", `{"name":"asha","age":34,"gender":"female"}`, http.StatusCreated},
		{"POST", "/api/profile/passengers", `{"name":"asha","age":0,"gender":"female"}`, http.StatusUnprocessableEntity},
		{"POST", "/api/profile/passengers", `not json`, http.StatusBadRequest},
		{"GET", "/api/profile/passengers", "", http.StatusOK},
		{"GET", "/api/profile/contact", "", http.StatusNotFound},
		{"PUT", "/api/profile/contact", `{"mobile":"9876543210","email":"a@b.com"}`, http.StatusOK},
		{"PUT", "/api/profile/payment", `{"method":"UPI","upiId":"a@upi"}`, http.StatusNoContent},
		{"GET", "/api/profile/payment", "", http.StatusOK},
		{"GET", "/api/profile/", "", http.StatusOK},
		{"DELETE", "/api/profile/payment", "", http.StatusNoContent},
		{"DELETE", "/api/profile/passengers/p1", "", http.StatusNoContent},
		{"DELETE", "/api/profile/passengers/p1", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		if resp := do(tt.method, tt.path, tt.body); resp.StatusCode != tt.want {
			t.Errorf("%s %s: status = %d, want %d", tt.method, tt.path, resp.StatusCode, tt.want)
		}
	}
}
