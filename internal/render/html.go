package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var headingAtoms = [...]atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

// HTML renders into an HTML document. Descriptions and template text are
// treated as markdown.
type HTML struct {
	doc  *html.Node
	body *html.Node
	md   goldmark.Markdown
}

func NewHTML() *HTML {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	doc.AppendChild(root)

	head := element(atom.Head)
	meta := element(atom.Meta)
	meta.Attr = []html.Attribute{{Key: "charset", Val: "utf-8"}}
	head.AppendChild(meta)
	root.AppendChild(head)

	body := element(atom.Body)
	root.AppendChild(body)

	return &HTML{
		doc:  doc,
		body: body,
		md:   goldmark.New(goldmark.WithRendererOptions(gmhtml.WithUnsafe())),
	}
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Heading emits h1 to h6. Deeper headings are clamped to h6.
func (h *HTML) Heading(text string, depth int) error {
	level := min(max(depth, 0), len(headingAtoms)-1)
	n := element(headingAtoms[level])
	n.AppendChild(textNode(text))
	h.body.AppendChild(n)
	return nil
}

func (h *HTML) Description(text string, depth int) error {
	var block []string
	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		err := h.appendMarkdown(strings.Join(block, "\n"))
		block = block[:0]
		return err
	}

	for _, l := range SplitDescription(text, depth) {
		if !l.Heading {
			block = append(block, l.Text)
			continue
		}
		if err := flush(); err != nil {
			return err
		}
		if err := h.Heading(l.Text, l.Depth); err != nil {
			return err
		}
	}
	return flush()
}

func (h *HTML) Type(text string) error {
	quote := element(atom.Blockquote)
	quote.AppendChild(textNode("Type: "))
	code := element(atom.Code)
	code.AppendChild(textNode(text))
	quote.AppendChild(code)
	h.body.AppendChild(quote)
	return nil
}

func (h *HTML) Text(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return h.appendMarkdown(text)
}

func (h *HTML) appendMarkdown(src string) error {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(src), &buf); err != nil {
		return fmt.Errorf("convert markdown: %w", err)
	}
	nodes, err := html.ParseFragment(&buf, element(atom.Body))
	if err != nil {
		return fmt.Errorf("parse html fragment: %w", err)
	}
	for _, n := range nodes {
		h.body.AppendChild(n)
	}
	return nil
}

func (h *HTML) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, h.doc); err != nil {
		return 0, fmt.Errorf("render html: %w", err)
	}
	return buf.WriteTo(w)
}
