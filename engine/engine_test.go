package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/autofill/booking"
	"github.com/hazyhaar/autofill/connectivity"
	"github.com/hazyhaar/autofill/dom"
	"github.com/hazyhaar/autofill/dom/memdom"
	"github.com/hazyhaar/autofill/filler"
	"github.com/hazyhaar/autofill/filler/irctc"
	"github.com/hazyhaar/autofill/sink"
)

const bookingPage = `<html><body>
<app-passenger-list><div class="passengerrow">
  <p-autocomplete formcontrolname="passengerName"><span><input type="text"></span></p-autocomplete>
  <input formcontrolname="passengerAge" type="number">
  <select formcontrolname="passengerGender">
    <option value="">Gender</option><option value="M">Male</option><option value="F">Female</option>
  </select>
</div></app-passenger-list>
<input formcontrolname="mobileNumber" type="tel">
<input formcontrolname="email" type="text">
<div class="pull-right"><button class="mob-bot-btn search_btn" type="submit">Continue</button></div>
</body></html>`

const bookingURL = "https://www.irctc.co.in/nget/booking/psgninput"

func onePassenger() *booking.FillRequest {
	return &booking.FillRequest{
		Passengers: []booking.Passenger{{Name: "ASHA RAO", Age: 34, Gender: "female"}},
		Contact:    booking.Contact{Mobile: "9876543210", Email: "a@b.com"},
	}
}

type recorder struct {
	mu      sync.Mutex
	reports []booking.Report
}

func (r *recorder) sink() sink.Sink {
	return sink.NewCallback(func(_ context.Context, rep booking.Report) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.reports = append(r.reports, rep)
		return nil
	})
}

func (r *recorder) all() []booking.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]booking.Report(nil), r.reports...)
}

func registry() *filler.Registry {
	return filler.NewRegistry(irctc.New(irctc.WithTiming(irctc.Instant())))
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("run-%d", n)
	}
}

// freshPages serves a new booking page on every call and keeps the last one.
type freshPages struct {
	mu   sync.Mutex
	last *memdom.Document
}

func (f *freshPages) Document(context.Context) (dom.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = memdom.MustParse(bookingPage, bookingURL)
	return f.last, nil
}

func (f *freshPages) current() *memdom.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func TestFill_IRCTC(t *testing.T) {
	var rec recorder
	e := New(registry(), WithSinks(rec.sink()), WithIDGenerator(sequentialIDs()))
	doc := memdom.MustParse(bookingPage, bookingURL)

	res := e.Fill(context.Background(), doc, onePassenger())
	if !res.Success || res.Message != irctc.SuccessMessage {
		t.Fatalf("result = %+v", res)
	}
	if v, _ := doc.Find(`p-autocomplete input`).Value(); v != "ASHA RAO" {
		t.Fatalf("name = %q", v)
	}
	if v, _ := doc.Find(`select[formcontrolname="passengerGender"]`).Value(); v != "F" {
		t.Fatalf("gender = %q", v)
	}

	reps := rec.all()
	if len(reps) != 1 {
		t.Fatalf("reports = %d", len(reps))
	}
	rep := reps[0]
	if rep.ID != "run-1" || rep.Filler != irctc.Name || rep.PageURL != bookingURL || rep.Passengers != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if !rep.Result.Success || rep.FinishedAt.Before(rep.StartedAt) {
		t.Fatalf("report result = %+v", rep)
	}
}

func TestFill_SiteNotSupported(t *testing.T) {
	var rec recorder
	e := New(registry(), WithSinks(rec.sink()))
	doc := memdom.MustParse(bookingPage, "https://example.com/checkout")

	res := e.Fill(context.Background(), doc, onePassenger())
	if res.Success || res.Message != MsgNotSupported {
		t.Fatalf("result = %+v", res)
	}
	if res.Details == nil || len(res.Details) != 0 {
		t.Fatalf("details = %#v", res.Details)
	}
	if n := len(doc.Events()); n != 0 {
		t.Fatalf("unsupported page saw %d events", n)
	}
	if reps := rec.all(); len(reps) != 1 || reps[0].Filler != "" {
		t.Fatalf("reports = %+v", reps)
	}
}

func TestFill_InvalidRequest(t *testing.T) {
	e := New(registry())
	doc := memdom.MustParse(bookingPage, bookingURL)

	req := onePassenger()
	req.Passengers = nil
	res := e.Fill(context.Background(), doc, req)
	if res.Success || !strings.Contains(res.Message, "Passengers") {
		t.Fatalf("result = %+v", res)
	}
	if n := len(doc.Events()); n != 0 {
		t.Fatalf("rejected request touched the page: %d events", n)
	}

	if res := e.Fill(context.Background(), doc, nil); res.Success {
		t.Fatal("nil request accepted")
	}
}

type brokenDoc struct{}

func (brokenDoc) QueryAll(string) ([]dom.Element, error) { return nil, errors.New("target closed") }
func (brokenDoc) Location() (*url.URL, error)           { return nil, errors.New("target closed") }

func TestFill_LocationError(t *testing.T) {
	res := New(registry()).Fill(context.Background(), brokenDoc{}, onePassenger())
	if res.Success || !strings.HasPrefix(res.Message, "Error: ") {
		t.Fatalf("result = %+v", res)
	}
}

func TestFillCurrent(t *testing.T) {
	if res := New(registry()).FillCurrent(context.Background(), onePassenger()); res.Success || res.Message != ErrNoSource.Error() {
		t.Fatalf("no source: %+v", res)
	}

	failing := SourceFunc(func(context.Context) (dom.Document, error) { return nil, errors.New("no tab") })
	if res := New(registry(), WithSource(failing)).FillCurrent(context.Background(), onePassenger()); res.Message != "Error: no tab" {
		t.Fatalf("failing source: %+v", res)
	}

	doc := memdom.MustParse(bookingPage, bookingURL)
	if res := New(registry(), WithSource(StaticSource(doc))).FillCurrent(context.Background(), onePassenger()); !res.Success {
		t.Fatalf("static source: %+v", res)
	}
}

func TestConnectivity(t *testing.T) {
	pages := &freshPages{}
	e := New(registry(), WithSource(pages))
	router := connectivity.New()
	e.RegisterConnectivity(router)
	ctx := context.Background()

	out, err := router.Call(ctx, ServiceFillers, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"fillers":["IRCTC Filler"]}` {
		t.Fatalf("fillers = %s", out)
	}

	payload, _ := json.Marshal(onePassenger())
	out, err = router.Call(ctx, ServiceFill, payload)
	if err != nil {
		t.Fatal(err)
	}
	var res booking.FillResult
	if err := json.Unmarshal(out, &res); err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatalf("fill = %+v", res)
	}

	if _, err := router.Call(ctx, ServiceFill, []byte("{")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestMCP(t *testing.T) {
	pages := &freshPages{}
	e := New(registry(), WithSource(pages))

	impl := &mcp.Implementation{Name: "autofill-test", Version: "0.1.0"}
	srv := mcp.NewServer(impl, nil)
	e.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	session, err := mcp.NewClient(impl, nil).Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	call := func(name string, args any) string {
		t.Helper()
		res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
		if err != nil {
			t.Fatalf("CallTool(%s): %v", name, err)
		}
		if err := res.GetError(); err != nil {
			t.Fatalf("CallTool(%s) tool error: %v", name, err)
		}
		return res.Content[0].(*mcp.TextContent).Text
	}

	if got := call(ServiceFillers, map[string]any{}); got != `{"fillers":["IRCTC Filler"]}` {
		t.Fatalf("fillers = %s", got)
	}

	text := call(ServiceFill, map[string]any{
		"passengers": []any{map[string]any{"name": "ASHA RAO", "age": 34, "gender": "F"}},
		"contact":    map[string]any{"mobile": "9876543210", "email": "a@b.com"},
	})
	var res booking.FillResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatalf("fill = %+v", res)
	}
	if v, _ := pages.current().Find(`input[formcontrolname="mobileNumber"]`).Value(); v != "9876543210" {
		t.Fatalf("mobile = %q", v)
	}
}

func TestHTTP(t *testing.T) {
	pages := &freshPages{}
	e := New(registry(), WithSource(pages))
	router := connectivity.New()
	e.RegisterConnectivity(router)

	r := chi.NewRouter()
	e.RegisterHTTP(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("X-Frame-Options") != "DENY" || resp.Header.Get("X-Trace-ID") == "" {
		t.Fatalf("health: %d %v", resp.StatusCode, resp.Header)
	}

	body, _ := json.Marshal(onePassenger())
	resp, err = http.Post(srv.URL+"/api/fill", "application/json", strings.NewReader(string(body)))
	if err != nil {
		t.Fatal(err)
	}
	var res booking.FillResult
	json.NewDecoder(resp.Body).Decode(&res)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !res.Success {
		t.Fatalf("fill: %d %+v", resp.StatusCode, res)
	}

	tests := []struct {
		path, body string
		want       int
	}{
		{"/api/fill", "not json", http.StatusBadRequest},
		{"/rpc/" + ServiceFillers, "", http.StatusOK},
		{"/rpc/autofill_unknown", "", http.StatusNotFound},
		{"/rpc/" + ServiceFill, "{", http.StatusBadGateway},
	}
	for _, tt := range tests {
		resp, err := http.Post(srv.URL+tt.path, "application/json", strings.NewReader(tt.body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Errorf("POST %s: status = %d, want %d", tt.path, resp.StatusCode, tt.want)
		}
	}
}

func TestHTTP_RPCWithoutRouter(t *testing.T) {
	r := chi.NewRouter()
	New(registry()).RegisterHTTP(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rpc/"+ServiceFill, strings.NewReader("{}")))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
