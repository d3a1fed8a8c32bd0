// internal/snapshot/html.go
package snapshot

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/xkilldash9x/uipilot/internal/screen"
)

var controlTags = map[atom.Atom]bool{
	atom.Input: true, atom.Textarea: true, atom.Select: true, atom.Button: true, atom.A: true,
}

var textTags = map[atom.Atom]bool{
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.P: true, atom.Span: true, atom.Div: true, atom.Li: true, atom.Td: true, atom.Th: true,
	atom.Strong: true, atom.Em: true, atom.Small: true, atom.Output: true, atom.Label: true,
	atom.Legend: true, atom.Option: true, atom.Dd: true, atom.Dt: true,
}

// ParseHTML extracts elements from a static document the way the live
// extraction script does, minus visibility checks. The URL comes from
// <link rel="canonical"> when present.
func ParseHTML(r io.Reader) (*Snapshot, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	p := &htmlParser{forms: make(map[*html.Node]string), labels: make(map[string]string)}
	p.indexForms(doc)
	p.indexLabels(doc)
	p.walk(doc, nil)
	return &Snapshot{URL: p.url, Title: p.title, Elements: p.elements}, nil
}

type htmlParser struct {
	url, title string
	forms      map[*html.Node]string
	formsByID  map[string]bool
	labels     map[string]string // input id -> label text
	elements   []screen.DomElement
}

func (p *htmlParser) indexForms(doc *html.Node) {
	p.formsByID = make(map[string]bool)
	n := 0
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.ElementNode && node.DataAtom == atom.Form {
			id := attr(node, "id")
			if id == "" {
				id = attr(node, "name")
			}
			if id == "" {
				id = fmt.Sprintf("form-%d", n)
			}
			p.forms[node] = id
			p.formsByID[id] = true
			n++
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)
}

func (p *htmlParser) indexLabels(doc *html.Node) {
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.ElementNode && node.DataAtom == atom.Label {
			if target := attr(node, "for"); target != "" {
				p.labels[target] = collapse(textContent(node))
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)
}

func (p *htmlParser) walk(node *html.Node, form *html.Node) {
	if node.Type == html.ElementNode {
		switch node.DataAtom {
		case atom.Title:
			p.title = collapse(textContent(node))
			return
		case atom.Link:
			if strings.EqualFold(attr(node, "rel"), "canonical") {
				p.url = attr(node, "href")
			}
		case atom.Form:
			form = node
		case atom.Script, atom.Style, atom.Template, atom.Noscript:
			return
		}
		if hidden(node) {
			return
		}
		if el, ok := p.element(node, form); ok {
			p.elements = append(p.elements, el)
		}
	}
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c, form)
	}
}

func (p *htmlParser) element(node *html.Node, form *html.Node) (screen.DomElement, bool) {
	isControl := controlTags[node.DataAtom] || attr(node, "role") == "button"
	if !isControl && !textTags[node.DataAtom] {
		return screen.DomElement{}, false
	}

	tag := node.Data
	typ := attr(node, "type")

	var text string
	switch {
	case node.DataAtom == atom.Input && (typ == "submit" || typ == "button"):
		text = attr(node, "value")
	case node.DataAtom == atom.Input || node.DataAtom == atom.Textarea || node.DataAtom == atom.Select:
		text = p.labelFor(node)
	case isControl:
		text = collapse(textContent(node))
	default:
		text = collapse(ownText(node))
		if text == "" {
			return screen.DomElement{}, false
		}
	}

	el := screen.DomElement{
		Tag:       tag,
		Text:      text,
		Role:      attr(node, "role"),
		Type:      typ,
		AriaLabel: attr(node, "aria-label"),
		Disabled:  hasAttr(node, "disabled") || attr(node, "aria-disabled") == "true",
		Required:  hasAttr(node, "required"),
	}
	if owner := attr(node, "form"); owner != "" && p.formsByID[owner] {
		el.FormID = owner
	} else if form != nil {
		el.FormID = p.forms[form]
	}
	return el, true
}

func (p *htmlParser) labelFor(node *html.Node) string {
	if id := attr(node, "id"); id != "" {
		if label, ok := p.labels[id]; ok {
			return label
		}
	}
	for parent := node.Parent; parent != nil; parent = parent.Parent {
		if parent.Type == html.ElementNode && parent.DataAtom == atom.Label {
			return collapse(ownText(parent))
		}
	}
	if ph := attr(node, "placeholder"); ph != "" {
		return ph
	}
	return attr(node, "name")
}

func hidden(node *html.Node) bool {
	if hasAttr(node, "hidden") {
		return true
	}
	if node.DataAtom == atom.Input && strings.EqualFold(attr(node, "type"), "hidden") {
		return true
	}
	style := strings.ReplaceAll(strings.ToLower(attr(node, "style")), " ", "")
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

func attr(node *html.Node, key string) string {
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(node *html.Node, key string) bool {
	for _, a := range node.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func textContent(node *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(node)
	return b.String()
}

func ownText(node *html.Node) string {
	var b strings.Builder
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
