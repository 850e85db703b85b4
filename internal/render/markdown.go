package render

import (
	"io"
	"strings"
)

// Markdown renders into a markdown document held in memory.
type Markdown struct {
	buf strings.Builder
}

func NewMarkdown() *Markdown {
	return &Markdown{}
}

// Heading writes a "#" heading sized to depth+1. The document is padded
// first so the heading always follows a blank line, unless it is the
// first thing written.
func (m *Markdown) Heading(text string, depth int) error {
	doc := m.buf.String()
	switch {
	case doc == "", strings.HasSuffix(doc, "\n\n"):
	case strings.HasSuffix(doc, "\n"):
		m.buf.WriteString("\n")
	default:
		m.buf.WriteString("\n\n")
	}

	m.buf.WriteString(strings.Repeat("#", depth+1))
	m.buf.WriteString(" ")
	m.buf.WriteString(text)
	m.buf.WriteString("\n\n")
	return nil
}

func (m *Markdown) Description(text string, depth int) error {
	for _, l := range SplitDescription(text, depth) {
		if l.Heading {
			if err := m.Heading(l.Text, l.Depth); err != nil {
				return err
			}
			continue
		}
		m.buf.WriteString(l.Text)
		m.buf.WriteString("\n")
	}
	return nil
}

func (m *Markdown) Type(text string) error {
	m.buf.WriteString("> Type: `")
	m.buf.WriteString(text)
	m.buf.WriteString("`\n\n")
	return nil
}

func (m *Markdown) Text(text string) error {
	m.buf.WriteString(text)
	return nil
}

// String returns the document so far.
func (m *Markdown) String() string {
	return m.buf.String()
}

func (m *Markdown) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, m.buf.String())
	return int64(n), err
}
