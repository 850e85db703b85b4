package replacer

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JakeStanger/rust-bindocs/internal/catalogue"
	"github.com/JakeStanger/rust-bindocs/internal/render"
)

const (
	openMarker  = "<%"
	closeMarker = "%>"
)

// ErrNoProgress means a scan step consumed nothing. It indicates a bug in
// the scanner, not bad input.
var ErrNoProgress = errors.New("scan step did not advance")

// Lookup finds the declaration a directive refers to.
type Lookup interface {
	Lookup(text string) (*catalogue.Declaration, bool)
}

// Mode is the scanner state for one step.
type Mode int

const (
	ModeLiteral Mode = iota
	ModeDirective
)

func (m Mode) String() string {
	if m == ModeDirective {
		return "directive"
	}
	return "literal"
}

// Step records one scanner step and how many runes it consumed.
type Step struct {
	Mode    Mode
	Advance int
}

// Stats counts directive outcomes for one document.
type Stats struct {
	Directives int `json:"directives"`
	Resolved   int `json:"resolved"`
	Unresolved int `json:"unresolved"`
}

// Replacer expands <% path options %> directives in a template, sending
// everything to a renderer.
type Replacer struct {
	r      render.Renderer
	lookup Lookup
	style  render.TypeStyle
	log    *slog.Logger

	steps []Step
	stats Stats
}

func New(r render.Renderer, lookup Lookup, style render.TypeStyle, log *slog.Logger) *Replacer {
	if log == nil {
		log = slog.Default()
	}
	return &Replacer{r: r, lookup: lookup, style: style, log: log}
}

// Replace scans input once from left to right. Text outside directives is
// passed through unchanged, as are directives that do not resolve.
func (rp *Replacer) Replace(input string) error {
	chars := []rune(input)
	for pos := 0; pos < len(chars); {
		rest := chars[pos:]

		var (
			mode Mode
			n    int
			err  error
		)
		if hasPrefix(rest, openMarker) {
			mode = ModeDirective
			n, err = rp.directive(rest)
		} else {
			mode = ModeLiteral
			n, err = rp.literal(rest)
		}
		if err != nil {
			return err
		}
		if n <= 0 {
			return fmt.Errorf("%w: %s step at rune %d", ErrNoProgress, mode, pos)
		}

		rp.steps = append(rp.steps, Step{Mode: mode, Advance: n})
		pos += n
	}
	return nil
}

// Steps returns the scan trace of the last Replace calls.
func (rp *Replacer) Steps() []Step {
	return append([]Step(nil), rp.steps...)
}

func (rp *Replacer) Stats() Stats {
	return rp.stats
}

func (rp *Replacer) literal(chars []rune) (int, error) {
	end := index(chars, openMarker, 0)
	if end < 0 {
		end = len(chars)
	}
	if end == 0 {
		return 0, nil
	}
	return end, rp.r.Text(string(chars[:end]))
}

func (rp *Replacer) directive(chars []rune) (int, error) {
	closeAt := index(chars, closeMarker, len([]rune(openMarker)))
	if closeAt < 0 {
		// No closing marker: the rest of the input is plain text.
		return len(chars), rp.r.Text(string(chars))
	}
	rp.stats.Directives++

	inner := string(chars[len([]rune(openMarker)):closeAt])
	advance := closeAt + len([]rune(closeMarker))

	path, optText, hasOpts := strings.Cut(strings.TrimSpace(inner), " ")
	opts := render.DefaultOptions()
	if hasOpts {
		parsed, err := ParseOptions(optText)
		if err != nil {
			rp.log.Warn("invalid directive options, using defaults", "directive", path, "error", err)
		} else {
			opts = parsed
		}
	}

	decl, ok := rp.lookup.Lookup(path)
	if !ok {
		rp.stats.Unresolved++
		rp.log.Debug("unresolved directive", "directive", path)
		return advance, rp.r.Text(openMarker + inner + closeMarker)
	}

	rp.stats.Resolved++
	if err := render.Element(rp.r, decl, opts, rp.style); err != nil {
		return 0, fmt.Errorf("render %s: %w", path, err)
	}
	return advance, nil
}

func hasPrefix(chars []rune, marker string) bool {
	m := []rune(marker)
	if len(chars) < len(m) {
		return false
	}
	for i, c := range m {
		if chars[i] != c {
			return false
		}
	}
	return true
}

// index returns the rune offset of marker in chars at or after from, or -1.
func index(chars []rune, marker string, from int) int {
	for i := from; i < len(chars); i++ {
		if hasPrefix(chars[i:], marker) {
			return i
		}
	}
	return -1
}
