package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/hazyhaar/autofill/dom"
	"github.com/hazyhaar/autofill/filler"
)

// Snapshot is what the current page shows: its form controls with their
// live values, and its text as markdown. Agents read it to check a fill
// or to see why the site rejected one.
type Snapshot struct {
	URL      string  `json:"url"`
	Filler   string  `json:"filler,omitempty"`
	Fields   []Field `json:"fields"`
	Markdown string  `json:"markdown,omitempty"`
}

// Field is one visible form control.
type Field struct {
	// Control is the formcontrolname, falling back to name then id.
	Control  string `json:"control,omitempty"`
	Tag      string `json:"tag"`
	Type     string `json:"type,omitempty"`
	Value    string `json:"value"`
	Checked  bool   `json:"checked,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

const fieldSelector = "input, select, textarea"

// Snapshot reads the page from the configured source. It waits for a fill
// in progress to finish.
func (e *Engine) Snapshot(ctx context.Context) (Snapshot, error) {
	if e.source == nil {
		return Snapshot{}, ErrNoSource
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.source.Document(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("engine: snapshot: %w", err)
	}
	return e.snapshot(doc)
}

func (e *Engine) snapshot(doc dom.Document) (Snapshot, error) {
	page, err := filler.PageFromDocument(doc)
	if err != nil {
		return Snapshot{}, fmt.Errorf("engine: snapshot: %w", err)
	}
	var snap Snapshot
	if page.URL != nil {
		snap.URL = page.URL.String()
	}
	if f, ok := e.registry.Active(page); ok {
		snap.Filler = f.Name()
	}

	if snap.Fields, err = readFields(doc); err != nil {
		return Snapshot{}, fmt.Errorf("engine: snapshot: %w", err)
	}

	if m, ok := doc.(dom.Markup); ok {
		src, err := m.HTML()
		if err != nil {
			return Snapshot{}, fmt.Errorf("engine: snapshot: %w", err)
		}
		var md string
		if page.URL != nil {
			md, err = mdConverter().ConvertString(src, converter.WithDomain(page.URL.Scheme+"://"+page.URL.Host))
		} else {
			md, err = mdConverter().ConvertString(src)
		}
		if err != nil {
			// The field list is still worth returning.
			e.logger.Warn("engine: snapshot markdown failed", "url", snap.URL, "error", err)
		}
		snap.Markdown = strings.TrimSpace(md)
	}
	return snap, nil
}

var mdConverter = sync.OnceValue(func() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
})

func readFields(doc dom.Document) ([]Field, error) {
	els, err := doc.QueryAll(fieldSelector)
	if err != nil {
		return nil, err
	}
	fields := make([]Field, 0, len(els))
	for _, el := range els {
		typ, _, err := el.Attribute("type")
		if err != nil {
			return nil, err
		}
		typ = strings.ToLower(typ)
		if typ == "hidden" || typ == "submit" || typ == "button" {
			continue
		}
		tag, err := el.TagName()
		if err != nil {
			return nil, err
		}
		f := Field{Control: controlName(el), Tag: strings.ToLower(tag), Type: typ}
		if f.Value, err = el.Value(); err != nil {
			return nil, err
		}
		if typ == "password" && f.Value != "" {
			f.Value = "********"
		}
		if typ == "checkbox" || typ == "radio" {
			if f.Checked, err = el.Checked(); err != nil {
				return nil, err
			}
		}
		if f.Disabled, err = el.Disabled(); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func controlName(el dom.Element) string {
	for _, attr := range []string{"formcontrolname", "name", "id"} {
		if v, ok, _ := el.Attribute(attr); ok && v != "" {
			return v
		}
	}
	// PrimeNG wraps the input; the control name sits on the host element.
	if host, err := el.Closest("[formcontrolname]"); err == nil && host != nil {
		if v, ok, _ := host.Attribute("formcontrolname"); ok {
			return v
		}
	}
	return ""
}
