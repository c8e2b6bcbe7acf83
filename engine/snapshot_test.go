package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/autofill/dom/memdom"
	"github.com/hazyhaar/autofill/filler/irctc"
)

func fieldByControl(snap Snapshot, control string) (Field, bool) {
	for _, f := range snap.Fields {
		if f.Control == control {
			return f, true
		}
	}
	return Field{}, false
}

func TestSnapshot_AfterFill(t *testing.T) {
	ctx := context.Background()
	doc := memdom.MustParse(bookingPage, bookingURL)
	e := New(registry(), WithSource(StaticSource(doc)))
	if res := e.FillCurrent(ctx, onePassenger()); !res.Success {
		t.Fatalf("fill = %+v", res)
	}

	snap, err := e.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.URL != bookingURL || snap.Filler != irctc.Name {
		t.Fatalf("snapshot header = %q %q", snap.URL, snap.Filler)
	}
	want := map[string]string{
		"passengerName":   "ASHA RAO",
		"passengerAge":    "34",
		"passengerGender": "F",
		"mobileNumber":    "9876543210",
		"email":           "a@b.com",
	}
	for control, v := range want {
		f, ok := fieldByControl(snap, control)
		if !ok {
			t.Errorf("no field %s in %+v", control, snap.Fields)
			continue
		}
		if f.Value != v {
			t.Errorf("%s = %q, want %q", control, f.Value, v)
		}
	}
	if f, _ := fieldByControl(snap, "passengerGender"); f.Tag != "select" {
		t.Errorf("gender tag = %q", f.Tag)
	}
}

func TestSnapshot_Markdown(t *testing.T) {
	doc := memdom.MustParse(`<html><body>
<h2>Passenger Details</h2>
<p>Total fare: <b>1240</b></p>
<input type="hidden" name="csrf" value="x">
<input type="password" name="captcha" value="abc">
<input type="checkbox" id="autoUpgradation" checked>
</body></html>`, bookingURL)
	snap, err := New(registry(), WithSource(StaticSource(doc))).Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(snap.Markdown, "Passenger Details") || !strings.Contains(snap.Markdown, "1240") {
		t.Fatalf("markdown = %q", snap.Markdown)
	}
	if _, ok := fieldByControl(snap, "csrf"); ok {
		t.Error("hidden input listed")
	}
	if f, _ := fieldByControl(snap, "captcha"); f.Value != "********" {
		t.Errorf("password value = %q", f.Value)
	}
	if f, _ := fieldByControl(snap, "autoUpgradation"); !f.Checked || f.Type != "checkbox" {
		t.Errorf("checkbox = %+v", f)
	}
}

func TestSnapshot_Errors(t *testing.T) {
	if _, err := New(registry()).Snapshot(context.Background()); !errors.Is(err, ErrNoSource) {
		t.Fatalf("no source: err = %v", err)
	}
	e := New(registry(), WithSource(StaticSource(brokenDoc{})))
	if _, err := e.Snapshot(context.Background()); err == nil {
		t.Fatal("broken document must fail")
	}
}

func TestHTTP_Snapshot(t *testing.T) {
	r := chi.NewRouter()
	New(registry(), WithSource(&freshPages{})).RegisterHTTP(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"control":"mobileNumber"`) {
		t.Fatalf("snapshot: %d %s", rec.Code, rec.Body.String())
	}

	r = chi.NewRouter()
	New(registry()).RegisterHTTP(r)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("no source: status = %d", rec.Code)
	}
}
