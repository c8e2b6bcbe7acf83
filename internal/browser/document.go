package browser

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/autofill/dom"
)

// Document is a live page seen through the dom interfaces. Every element
// operation is evaluated in the page, so framework listeners observe it.
type Document struct {
	page *rod.Page
}

var (
	_ dom.Document = (*Document)(nil)
	_ dom.Markup   = (*Document)(nil)
	_ dom.Element  = (*Element)(nil)
)

func (d *Document) Location() (*url.URL, error) {
	info, err := d.page.Info()
	if err != nil {
		return nil, fmt.Errorf("browser: page info: %w", err)
	}
	return url.Parse(info.URL)
}

// HTML serialises the DOM with current form values written back into the
// markup, so a snapshot shows what the operator sees.
func (d *Document) HTML() (string, error) {
	res, err := d.page.Eval(snapshotJS)
	if err != nil {
		return "", fmt.Errorf("browser: snapshot: %w", err)
	}
	return res.Value.Str(), nil
}

const snapshotJS = `() => {
	const root = document.documentElement.cloneNode(true);
	const live = document.querySelectorAll('input, select, textarea');
	const copy = root.querySelectorAll('input, select, textarea');
	live.forEach((el, i) => {
		const c = copy[i];
		if (el.type === 'checkbox' || el.type === 'radio') {
			if (el.checked) c.setAttribute('checked', ''); else c.removeAttribute('checked');
		} else if (el.tagName === 'SELECT') {
			Array.from(c.options).forEach((o, j) => {
				if (el.options[j] && el.options[j].selected) o.setAttribute('selected', ''); else o.removeAttribute('selected');
			});
		} else if (el.tagName === 'TEXTAREA') {
			c.textContent = el.value;
		} else {
			c.setAttribute('value', el.value);
		}
	});
	return root.outerHTML;
}`

func (d *Document) QueryAll(selector string) ([]dom.Element, error) {
	els, err := d.page.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("browser: query %q: %w", selector, err)
	}
	return wrap(els), nil
}

// Element is a rod element.
type Element struct {
	el *rod.Element
}

func wrap(els rod.Elements) []dom.Element {
	out := make([]dom.Element, len(els))
	for i, el := range els {
		out[i] = &Element{el: el}
	}
	return out
}

func (e *Element) QueryAll(selector string) ([]dom.Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("browser: query %q: %w", selector, err)
	}
	return wrap(els), nil
}

func (e *Element) eval(js string, args ...any) (*proto.RuntimeRemoteObject, error) {
	res, err := e.el.Eval(js, args...)
	if err != nil {
		return nil, fmt.Errorf("browser: eval: %w", err)
	}
	return res, nil
}

func (e *Element) TagName() (string, error) {
	r, err := e.eval(`() => this.tagName`)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(r.Value.Str()), nil
}

func (e *Element) Attribute(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", false, fmt.Errorf("browser: attribute %s: %w", name, err)
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e *Element) SetAttribute(name, value string) error {
	_, err := e.eval(`(n, v) => this.setAttribute(n, v)`, name, value)
	return err
}

func (e *Element) Text() (string, error) {
	r, err := e.eval(`() => this.textContent || ''`)
	if err != nil {
		return "", err
	}
	return r.Value.Str(), nil
}

func (e *Element) Value() (string, error) {
	r, err := e.eval(`() => this.value !== undefined ? String(this.value) : (this.getAttribute('value') || '')`)
	if err != nil {
		return "", err
	}
	return r.Value.Str(), nil
}

func (e *Element) SetValue(v string) error {
	_, err := e.eval(`(v) => { this.value = v }`, v)
	return err
}

func (e *Element) Checked() (bool, error) {
	r, err := e.eval(`() => !!this.checked`)
	if err != nil {
		return false, err
	}
	return r.Value.Bool(), nil
}

func (e *Element) SetChecked(v bool) error {
	_, err := e.eval(`(v) => { this.checked = v }`, v)
	return err
}

func (e *Element) Disabled() (bool, error) {
	r, err := e.eval(`() => !!this.disabled || this.hasAttribute('disabled')`)
	if err != nil {
		return false, err
	}
	return r.Value.Bool(), nil
}

func (e *Element) Options() ([]dom.Option, error) {
	r, err := e.eval(`() => Array.from(this.options || []).map((o, i) => ({value: o.value, text: o.text, index: i}))`)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(r.Value)
	if err != nil {
		return nil, fmt.Errorf("browser: options: %w", err)
	}
	var opts []dom.Option
	if err := json.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("browser: options: %w", err)
	}
	return opts, nil
}

func (e *Element) Focus() error {
	_, err := e.eval(`() => this.focus()`)
	return err
}

func (e *Element) Click() error {
	_, err := e.eval(`() => this.click()`)
	return err
}

func (e *Element) ScrollIntoView() error {
	_, err := e.eval(`() => this.scrollIntoView({behavior: 'smooth', block: 'center'})`)
	return err
}

// dispatchJS builds KeyboardEvent and MouseEvent where the framework checks
// the event class.
const dispatchJS = `(kinds) => {
	for (const k of kinds) {
		let ev;
		if (k === 'keydown' || k === 'keyup') {
			ev = new KeyboardEvent(k, {bubbles: true, cancelable: true});
		} else if (k === 'click') {
			ev = new MouseEvent(k, {bubbles: true, cancelable: true, view: window});
		} else {
			ev = new Event(k, {bubbles: true});
		}
		this.dispatchEvent(ev);
	}
}`

func (e *Element) Dispatch(kinds ...dom.EventKind) error {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	_, err := e.eval(dispatchJS, names)
	return err
}

func (e *Element) Closest(selector string) (dom.Element, error) {
	return e.relative(rod.Eval(`(s) => this.closest(s)`, selector))
}

func (e *Element) Parent() (dom.Element, error) {
	return e.relative(rod.Eval(`() => this.parentElement`))
}

func (e *Element) relative(opts *rod.EvalOptions) (dom.Element, error) {
	el, err := e.el.ElementByJS(opts)
	var nf *rod.ElementNotFoundError
	if errors.As(err, &nf) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("browser: relative: %w", err)
	}
	return &Element{el: el}, nil
}
