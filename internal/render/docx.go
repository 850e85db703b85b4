package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
)

const maxDOCXHeading = 6

// DOCX renders into a Word document. Headings use the built-in
// HeadingN paragraph styles.
type DOCX struct {
	doc *docx.Docx
}

func NewDOCX() *DOCX {
	return &DOCX{doc: docx.New().WithDefaultTheme()}
}

func (d *DOCX) Heading(text string, depth int) error {
	level := min(max(depth+1, 1), maxDOCXHeading)
	d.doc.AddParagraph().Style(fmt.Sprintf("Heading%d", level)).AddText(text)
	return nil
}

func (d *DOCX) Description(text string, depth int) error {
	for _, l := range SplitDescription(text, depth) {
		switch {
		case l.Heading:
			if err := d.Heading(l.Text, l.Depth); err != nil {
				return err
			}
		case strings.TrimSpace(l.Text) != "":
			d.doc.AddParagraph().AddText(l.Text)
		}
	}
	return nil
}

func (d *DOCX) Type(text string) error {
	p := d.doc.AddParagraph()
	p.AddText("Type: ").Italic()
	p.AddText(text).Italic().Font("Consolas", "Consolas", "Consolas", "")
	return nil
}

// Text maps template text onto paragraphs. Markdown ATX headings become
// heading paragraphs, blank lines are dropped.
func (d *DOCX) Text(text string) error {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if level, title, ok := atxHeading(line); ok {
			if err := d.Heading(title, level-1); err != nil {
				return err
			}
			continue
		}
		d.doc.AddParagraph().AddText(line)
	}
	return nil
}

func atxHeading(line string) (int, string, bool) {
	level := len(line) - len(strings.TrimLeft(line, "#"))
	if level == 0 || level > 6 {
		return 0, "", false
	}
	rest := line[level:]
	if rest != "" && rest[0] != ' ' {
		return 0, "", false
	}
	return level, strings.TrimSpace(rest), true
}

func (d *DOCX) WriteTo(w io.Writer) (int64, error) {
	return d.doc.WriteTo(w)
}
