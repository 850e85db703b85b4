package render

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/JakeStanger/rust-bindocs/internal/catalogue"
)

// Renderer is the set of primitives a backend implements. Element builds
// whole declarations out of them.
type Renderer interface {
	Heading(text string, depth int) error
	Description(text string, depth int) error
	Type(text string) error
	Text(text string) error
}

// Document is a Renderer that accumulates a complete output document.
type Document interface {
	Renderer
	WriteTo(w io.Writer) (int64, error)
}

// Options control how a single directive is rendered.
type Options struct {
	// Header renders the declaration name as a heading.
	Header bool `mapstructure:"header"`
	// Depth is the heading depth of the declaration. A depth of 1 gives
	// "##" in markdown.
	Depth int `mapstructure:"depth" validate:"gte=0"`
}

func DefaultOptions() Options {
	return Options{Header: true, Depth: 1}
}

// TypeStyle selects how field types are printed.
type TypeStyle int

const (
	TypesSimplified TypeStyle = iota // Option<Box<T>> prints as "T?"
	TypesFull                        // printed as written
)

// Element renders decl and everything nested in it.
func Element(r Renderer, decl *catalogue.Declaration, opts Options, style TypeStyle) error {
	depth := opts.Depth
	if opts.Header {
		if err := r.Heading(decl.Name, depth); err != nil {
			return err
		}
	}
	if err := r.Description(decl.Description, depth); err != nil {
		return err
	}

	switch decl.Kind {
	case catalogue.KindStruct:
		for _, f := range decl.Fields {
			if err := field(r, f, depth+1, style); err != nil {
				return err
			}
		}
	case catalogue.KindEnum:
		for _, v := range decl.Variants {
			if err := r.Heading(v.Name, depth+1); err != nil {
				return err
			}
			if err := r.Description(v.Description, depth+1); err != nil {
				return err
			}
			for _, f := range v.Fields {
				if err := field(r, f, depth+2, style); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func field(r Renderer, f catalogue.Field, depth int, style TypeStyle) error {
	if err := r.Heading(f.Name, depth); err != nil {
		return err
	}
	if err := r.Type(f.Type.DocString(style == TypesSimplified)); err != nil {
		return err
	}
	return r.Description(f.Description, depth)
}

// Line is one line of a description. Lines starting with "# " are
// headings one level below the description.
type Line struct {
	Text    string
	Heading bool
	Depth   int
}

// SplitDescription breaks text into lines, turning "# " lines into
// headings at depth+1. A trailing newline does not produce an empty line.
func SplitDescription(text string, depth int) []Line {
	if text == "" {
		return nil
	}
	raw := strings.Split(text, "\n")
	if raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}

	lines := make([]Line, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSuffix(l, "\r")
		if h, ok := strings.CutPrefix(l, "# "); ok {
			lines = append(lines, Line{Text: h, Heading: true, Depth: depth + 1})
			continue
		}
		lines = append(lines, Line{Text: l, Depth: depth})
	}
	return lines
}

// Format names an output backend.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatDOCX     Format = "docx"
)

// ParseFormat accepts a backend name or a common alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "docx", "word":
		return FormatDOCX, nil
	}
	return "", fmt.Errorf("unsupported output format: %s", s)
}

// Extension is the file extension written for the format.
func (f Format) Extension() string {
	switch f {
	case FormatHTML:
		return ".html"
	case FormatDOCX:
		return ".docx"
	}
	return ".md"
}

// ContentType is the MIME type of a rendered document.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "text/markdown; charset=utf-8"
}

// New returns an empty document for f.
func New(f Format) Document {
	switch f {
	case FormatHTML:
		return NewHTML()
	case FormatDOCX:
		return NewDOCX()
	}
	return NewMarkdown()
}

// ForFile picks the backend from an output file name.
func ForFile(filename string) (Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return NewMarkdown(), nil
	case ".html", ".htm":
		return NewHTML(), nil
	case ".docx":
		return NewDOCX(), nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}
