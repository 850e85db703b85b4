package outline

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/JakeStanger/rust-bindocs/internal/render"
)

// Tree is the heading structure of a rendered document.
type Tree struct {
	Title    string  `json:"title"`
	Children []*Node `json:"children,omitempty"`
}

// Node is a heading and the text up to the next heading.
type Node struct {
	Title    string  `json:"title"`
	Level    int     `json:"level"`
	Text     string  `json:"text,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// Parser reads a rendered document back into a Tree.
type Parser interface {
	Parse(r io.Reader, filename string) (*Tree, error)
}

// ForFile returns the parser for a file name.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// ForFormat returns the parser matching an output format.
func ForFormat(f render.Format) Parser {
	switch f {
	case render.FormatHTML:
		return &HTMLParser{}
	case render.FormatDOCX:
		return &DOCXParser{}
	}
	return &MarkdownParser{}
}

// Print writes the outline as an indented list.
func (t *Tree) Print(w io.Writer) error {
	var walk func(nodes []*Node, indent int) error
	walk = func(nodes []*Node, indent int) error {
		for _, n := range nodes {
			if n.Title == "" {
				continue
			}
			if _, err := fmt.Fprintf(w, "%s- %s\n", strings.Repeat("  ", indent), n.Title); err != nil {
				return err
			}
			if err := walk(n.Children, indent+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(t.Children, 0)
}

// Headings flattens the tree to "level title" entries in document order.
func (t *Tree) Headings() []string {
	var out []string
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			if n.Title != "" {
				out = append(out, fmt.Sprintf("%d %s", n.Level, n.Title))
			}
			walk(n.Children)
		}
	}
	walk(t.Children)
	return out
}

// builder nests headings by level and attaches text to the innermost one.
type builder struct {
	root  *Node
	stack []*Node
	text  strings.Builder
}

func newBuilder(title string) *builder {
	root := &Node{Title: title}
	return &builder{root: root, stack: []*Node{root}}
}

func (b *builder) heading(level int, title string) {
	b.flush()
	n := &Node{Title: title, Level: level}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].Level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1]
	parent.Children = append(parent.Children, n)
	b.stack = append(b.stack, n)
}

func (b *builder) addText(t string) {
	t = strings.TrimSpace(t)
	if t == "" {
		return
	}
	if b.text.Len() > 0 {
		b.text.WriteString("\n\n")
	}
	b.text.WriteString(t)
}

func (b *builder) flush() {
	t := strings.TrimSpace(b.text.String())
	if t != "" {
		top := b.stack[len(b.stack)-1]
		if top.Text != "" {
			top.Text += "\n\n" + t
		} else {
			top.Text = t
		}
	}
	b.text.Reset()
}

func (b *builder) tree() *Tree {
	b.flush()
	tree := &Tree{Title: b.root.Title, Children: b.root.Children}
	// Without headings, all text goes in a single untitled child.
	if len(tree.Children) == 0 && b.root.Text != "" {
		tree.Children = []*Node{{Text: b.root.Text}}
	}
	return tree
}

func trimExt(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
}
