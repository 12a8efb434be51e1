// Package htmlform extracts form fields from an HTML document the way the
// injected form collector does in the browser, so a saved callback page can be
// classified without a script engine.
//
// A form's fields follow form.elements: named input, button, select and textarea
// controls in tree order, including controls outside the form that name it via
// form="id", and excluding <input type="image">. fieldset, output and object are
// not collected.
package htmlform

import (
	"fmt"
	"io"
	"strings"

	"github.com/router-for-me/AppleWebAuth/internal/auth/apple"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Form is one <form> element and its named controls in document order.
type Form struct {
	Action string
	Method string
	Fields []apple.Field
}

// Payload serializes the form like the injected script.
func (f Form) Payload() string {
	return apple.EncodePayload(f.Fields)
}

// Parse reads an HTML document and returns its forms in document order.
func Parse(r io.Reader) ([]Form, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmlform: parse document: %w", err)
	}

	var forms []Form
	index := make(map[*html.Node]int)
	byID := make(map[string]int)
	var findForms func(n *html.Node)
	findForms = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Form {
			index[n] = len(forms)
			if id := attr(n, "id"); id != "" {
				if _, exists := byID[id]; !exists {
					byID[id] = len(forms)
				}
			}
			forms = append(forms, Form{
				Action: attr(n, "action"),
				Method: strings.ToLower(attr(n, "method")),
			})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findForms(c)
		}
	}
	findForms(doc)

	var walk func(n *html.Node, owner int)
	walk = func(n *html.Node, owner int) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Form:
				walk(c, index[c])
				continue
			case atom.Input, atom.Button, atom.Textarea, atom.Select:
				target := owner
				if formID, ok := lookupAttr(c, "form"); ok {
					idx, found := byID[formID]
					if !found {
						continue
					}
					target = idx
				}
				if target >= 0 {
					if field, ok := controlField(c); ok {
						forms[target].Fields = append(forms[target].Fields, field)
					}
				}
				continue
			}
			walk(c, owner)
		}
	}
	walk(doc, -1)
	return forms, nil
}

// ParseString is Parse for an in-memory document.
func ParseString(document string) ([]Form, error) {
	return Parse(strings.NewReader(document))
}

// Payloads returns one serialized payload per form.
func Payloads(r io.Reader) ([]string, error) {
	forms, err := Parse(r)
	if err != nil {
		return nil, err
	}
	payloads := make([]string, 0, len(forms))
	for _, form := range forms {
		payloads = append(payloads, form.Payload())
	}
	return payloads, nil
}

// controlField returns the submitted name and value of a form control.
func controlField(n *html.Node) (apple.Field, bool) {
	name := attr(n, "name")
	if name == "" {
		return apple.Field{}, false
	}
	switch n.DataAtom {
	case atom.Input:
		if strings.EqualFold(attr(n, "type"), "image") {
			return apple.Field{}, false
		}
		return apple.Field{Name: name, Value: inputValue(n)}, true
	case atom.Button:
		return apple.Field{Name: name, Value: attr(n, "value")}, true
	case atom.Textarea:
		return apple.Field{Name: name, Value: textContent(n)}, true
	case atom.Select:
		return apple.Field{Name: name, Value: selectValue(n)}, true
	}
	return apple.Field{}, false
}

func inputValue(n *html.Node) string {
	value, ok := lookupAttr(n, "value")
	if ok {
		return value
	}
	switch strings.ToLower(attr(n, "type")) {
	case "checkbox", "radio":
		return "on"
	}
	return ""
}

func selectValue(n *html.Node) string {
	var first, selected *html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.DataAtom == atom.Option {
				if first == nil {
					first = c
				}
				if _, ok := lookupAttr(c, "selected"); ok && selected == nil {
					selected = c
				}
				continue
			}
			walk(c)
		}
	}
	walk(n)
	if selected == nil {
		selected = first
	}
	if selected == nil {
		return ""
	}
	if value, ok := lookupAttr(selected, "value"); ok {
		return value
	}
	return strings.TrimSpace(textContent(selected))
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	value, _ := lookupAttr(n, key)
	return value
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}
