package resolve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hazyhaar/autofill/dom"
	"github.com/hazyhaar/autofill/dom/memdom"
)

const page = `<html><body>
<div class="pull-right">
  <button id="a" type="button">Back</button>
  <button id="b" type="submit">Continue</button>
</div>
<button id="c">Continue to pay</button>
<button id="d">CONTINUE</button>
<input id="m1" placeholder="Mobile No">
<input id="m2" name="userMobile">
</body></html>`

func ids(t *testing.T, els []dom.Element) []string {
	t.Helper()
	var out []string
	for _, el := range els {
		id, _, err := el.Attribute("id")
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, id)
	}
	return out
}

func TestResolve_FirstTierWins(t *testing.T) {
	doc := memdom.MustParse(page, "http://x")
	chain := Chain{CSS("#missing"), CSS("button"), CSS("input")}
	m, err := Resolve(doc, chain)
	if err != nil {
		t.Fatal(err)
	}
	if m.Tier != 1 || m.Candidates != 4 {
		t.Fatalf("tier=%d candidates=%d", m.Tier, m.Candidates)
	}
	if id, _, _ := m.Element.Attribute("id"); id != "a" {
		t.Fatalf("id = %q, want a (document order)", id)
	}
}

func TestResolve_NotFound(t *testing.T) {
	doc := memdom.MustParse(page, "http://x")
	_, err := Resolve(doc, Chain{CSS("select"), CSS("textarea")})
	if !errors.Is(err, dom.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	el, err := Find(doc, Chain{CSS("select")})
	if el != nil || err != nil {
		t.Fatalf("Find = %v, %v", el, err)
	}
}

func TestResolve_BackendErrorSurfaces(t *testing.T) {
	doc := memdom.MustParse(page, "http://x")
	_, err := Resolve(doc, Chain{CSS("[[bad")})
	if err == nil || errors.Is(err, dom.ErrNotFound) {
		t.Fatalf("expected selector error, got %v", err)
	}
}

func TestResolveAll_TierErrorFallsThrough(t *testing.T) {
	doc := memdom.MustParse(page, "http://x")
	lm, err := ResolveAll(doc, Chain{CSS("[[bad"), CSS("#missing"), CSS("input")})
	if err != nil {
		t.Fatal(err)
	}
	if lm.Tier != 2 || len(lm.Elements) != 2 {
		t.Fatalf("tier=%d elements=%d", lm.Tier, len(lm.Elements))
	}

	_, err = ResolveAll(doc, Chain{CSS("[[bad"), CSS("#missing")})
	if err == nil || errors.Is(err, dom.ErrNotFound) {
		t.Fatalf("expected the tier error once the chain is exhausted, got %v", err)
	}
	el, err := Find(doc, Chain{CSS("#missing"), CSS("[[bad")})
	if el != nil || err == nil {
		t.Fatalf("Find = %v, %v", el, err)
	}
}

func TestResolveAll_TiersNotMixed(t *testing.T) {
	doc := memdom.MustParse(page, "http://x")
	lm, err := ResolveAll(doc, Chain{CSS("input[placeholder]"), CSS("input")})
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(t, lm.Elements); len(got) != 1 || got[0] != "m1" {
		t.Fatalf("elements = %v, want only the first tier", got)
	}
}

func TestTextContains(t *testing.T) {
	doc := memdom.MustParse(page, "http://x")
	els, _ := TextContains("button", "continue").Find(doc)
	if got := ids(t, els); len(got) != 3 || got[0] != "b" || got[2] != "d" {
		t.Fatalf("got %v", got)
	}
}

func TestAttrContains(t *testing.T) {
	doc := memdom.MustParse(page, "http://x")
	els, _ := AttrContains("input", []string{"placeholder", "name"}, "mobile").Find(doc)
	if got := ids(t, els); len(got) != 2 {
		t.Fatalf("got %v", got)
	}
}

func TestWithin(t *testing.T) {
	doc := memdom.MustParse(page, "http://x")
	els, _ := Within("div.pull-right", TextContains("button", "continue")).Find(doc)
	if got := ids(t, els); len(got) != 1 || got[0] != "b" {
		t.Fatalf("got %v", got)
	}
	els, err := Within("div.missing", CSS("button")).Find(doc)
	if err != nil || len(els) != 0 {
		t.Fatalf("missing region = %v, %v", els, err)
	}
}

func TestLast_TieBreak(t *testing.T) {
	doc := memdom.MustParse(`<a id="A">Continue</a><a id="B">continue</a><a id="C">Continue</a>`, "http://x")
	m, err := Resolve(doc, Chain{Last(TextContains("a", "continue"))})
	if err != nil {
		t.Fatal(err)
	}
	if id, _, _ := m.Element.Attribute("id"); id != "C" {
		t.Fatalf("id = %q, want C", id)
	}
}

func TestWhere_PredicateError(t *testing.T) {
	doc := memdom.MustParse(page, "http://x")
	boom := errors.New("detached")
	_, err := Where("button", "boom", func(dom.Element) (bool, error) { return false, boom }).Find(doc)
	if !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
}

func TestAwaitElement_AppearsLater(t *testing.T) {
	doc := memdom.MustParse(`<div id="host"></div>`, "http://x")
	polls := 0
	scope := scopeFunc(func(sel string) ([]dom.Element, error) {
		polls++
		if polls == 3 {
			if err := doc.AppendHTML("#host", `<input id="upi">`); err != nil {
				return nil, err
			}
		}
		return doc.QueryAll(sel)
	})
	m, err := AwaitElement(context.Background(), scope, Chain{CSS("#upi")}, 2*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Element == nil {
		t.Fatal("no element")
	}
}

func TestAwaitElement_Timeout(t *testing.T) {
	doc := memdom.MustParse(`<div></div>`, "http://x")
	_, err := AwaitElement(context.Background(), doc, Chain{CSS("#upi")}, 150*time.Millisecond)
	if !errors.Is(err, dom.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

type scopeFunc func(string) ([]dom.Element, error)

func (f scopeFunc) QueryAll(sel string) ([]dom.Element, error) { return f(sel) }

func TestChain_String(t *testing.T) {
	c := Chain{CSS("a"), Within("div", CSS("b"))}
	if got := c.String(); got != "a | b within div" {
		t.Fatalf("got %q", got)
	}
}
