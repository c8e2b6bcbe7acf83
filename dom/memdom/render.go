package memdom

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Render writes the document with live state reflected into the markup:
// input values become value attributes, checked state becomes the checked
// attribute, and select values mark their option as selected.
func (d *Document) Render(w io.Writer) error {
	for n, s := range d.state {
		if s.value != nil {
			d.reflectValue(n, *s.value)
		}
		if s.checked != nil {
			if *s.checked {
				setAttr(n, "checked", "")
			} else {
				removeAttr(n, "checked")
			}
		}
	}
	return html.Render(w, d.root)
}

func (d *Document) reflectValue(n *html.Node, v string) {
	switch n.Data {
	case "select":
		for _, o := range d.wrap(n).options() {
			if o.Value == v {
				setAttr(o.node, "selected", "")
			} else {
				removeAttr(o.node, "selected")
			}
		}
	case "textarea":
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			n.RemoveChild(c)
			c = next
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: v})
	default:
		setAttr(n, "value", v)
	}
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// String renders the document; errors are reported inline.
func (d *Document) String() string {
	var b strings.Builder
	if err := d.Render(&b); err != nil {
		return "memdom: render: " + strconv.Quote(err.Error())
	}
	return b.String()
}

// HTML implements dom.Markup.
func (d *Document) HTML() (string, error) {
	var b strings.Builder
	if err := d.Render(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}
