package memdom

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/autofill/dom"
)

// Element is a node of a memdom Document.
type Element struct {
	doc *Document
	n   *html.Node
}

var _ dom.Element = (*Element)(nil)

// Node exposes the underlying parsed node.
func (e *Element) Node() *html.Node { return e.n }

// Same reports whether other wraps the same node.
func (e *Element) Same(other dom.Element) bool {
	o, ok := other.(*Element)
	return ok && o.n == e.n
}

func (e *Element) QueryAll(selector string) ([]dom.Element, error) {
	return e.doc.queryAll(e.n, selector)
}

func (e *Element) TagName() (string, error) {
	return strings.ToUpper(e.n.Data), nil
}

func (e *Element) Attribute(name string) (string, bool, error) {
	v, ok := attr(e.n, name)
	return v, ok, nil
}

func (e *Element) SetAttribute(name, value string) error {
	name = strings.ToLower(name)
	for i := range e.n.Attr {
		if e.n.Attr[i].Key == name {
			e.n.Attr[i].Val = value
			return nil
		}
	}
	e.n.Attr = append(e.n.Attr, html.Attribute{Key: name, Val: value})
	return nil
}

func (e *Element) Text() (string, error) {
	return textContent(e.n), nil
}

func (e *Element) Value() (string, error) {
	if s, ok := e.doc.state[e.n]; ok && s.value != nil {
		return *s.value, nil
	}
	switch e.n.Data {
	case "select":
		opts := e.options()
		for _, o := range opts {
			if _, sel := attr(o.node, "selected"); sel {
				return o.Value, nil
			}
		}
		if len(opts) > 0 {
			return opts[0].Value, nil
		}
		return "", nil
	case "textarea":
		return textContent(e.n), nil
	case "option":
		return optionValue(e.n), nil
	}
	v, _ := attr(e.n, "value")
	return v, nil
}

// SetValue writes the value slot. On a select it picks the matching option,
// or clears the selection like the DOM does when nothing matches.
func (e *Element) SetValue(v string) error {
	if e.n.Data == "select" {
		found := false
		for _, o := range e.options() {
			if o.Value == v {
				found = true
				break
			}
		}
		if !found {
			v = ""
		}
	}
	e.doc.stateOf(e.n).value = &v
	return nil
}

func (e *Element) Checked() (bool, error) {
	if s, ok := e.doc.state[e.n]; ok && s.checked != nil {
		return *s.checked, nil
	}
	_, ok := attr(e.n, "checked")
	return ok, nil
}

// SetChecked sets the checked state. Checking a radio unchecks the other
// radios sharing its name.
func (e *Element) SetChecked(v bool) error {
	if v && e.isInput("radio") {
		if name, ok := attr(e.n, "name"); ok && name != "" {
			for _, other := range e.doc.FindAll(`input[type="radio"]`) {
				if other.n == e.n {
					continue
				}
				if on, _ := attr(other.n, "name"); on == name {
					f := false
					e.doc.stateOf(other.n).checked = &f
				}
			}
		}
	}
	e.doc.stateOf(e.n).checked = &v
	return nil
}

func (e *Element) Disabled() (bool, error) {
	_, ok := attr(e.n, "disabled")
	return ok, nil
}

func (e *Element) Options() ([]dom.Option, error) {
	opts := e.options()
	out := make([]dom.Option, len(opts))
	for i, o := range opts {
		out[i] = o.Option
	}
	return out, nil
}

func (e *Element) Focus() error {
	e.doc.active = e.n
	return nil
}

// Click performs the default action of the element, then lets the click
// bubble. Activating an unchecked radio or toggling a checkbox fires input
// and change after the click, as browsers do.
func (e *Element) Click() error {
	changed := false
	switch {
	case e.isInput("radio"):
		if on, _ := e.Checked(); !on {
			_ = e.SetChecked(true)
			changed = true
		}
	case e.isInput("checkbox"):
		on, _ := e.Checked()
		_ = e.SetChecked(!on)
		changed = true
	}
	e.doc.dispatch(e, dom.EventClick)
	if changed {
		e.doc.dispatch(e, dom.EventInput)
		e.doc.dispatch(e, dom.EventChange)
	}
	return nil
}

func (e *Element) ScrollIntoView() error { return nil }

func (e *Element) Dispatch(kinds ...dom.EventKind) error {
	for _, k := range kinds {
		e.doc.dispatch(e, k)
	}
	return nil
}

func (e *Element) Closest(selector string) (dom.Element, error) {
	m, err := e.doc.matcher(selector)
	if err != nil {
		return nil, err
	}
	for n := e.n; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && m.Match(n) {
			return e.doc.wrap(n), nil
		}
	}
	return nil, nil
}

func (e *Element) Parent() (dom.Element, error) {
	p := e.n.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil, nil
	}
	return e.doc.wrap(p), nil
}

func (e *Element) isInput(typ string) bool {
	if e.n.Data != "input" {
		return false
	}
	t, _ := attr(e.n, "type")
	return strings.EqualFold(t, typ)
}

type option struct {
	dom.Option
	node *html.Node
}

func (e *Element) options() []option {
	var out []option
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.Data == "option" {
				out = append(out, option{
					Option: dom.Option{Value: optionValue(c), Text: collapse(textContent(c)), Index: len(out)},
					node:   c,
				})
				continue
			}
			walk(c)
		}
	}
	walk(e.n)
	return out
}

func optionValue(n *html.Node) string {
	if v, ok := attr(n, "value"); ok {
		return v
	}
	return collapse(textContent(n))
}

func attr(n *html.Node, name string) (string, bool) {
	name = strings.ToLower(name)
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func removeAttr(n *html.Node, name string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != name {
			out = append(out, a)
		}
	}
	n.Attr = out
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
