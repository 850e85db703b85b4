package modpath

import (
	"os"
	"path/filepath"
	"strings"
)

// Separator joins segments in the textual form of a path, e.g. "config::Theme".
const Separator = "::"

// IndexFile is the reserved file name of a directory-style module.
const IndexFile = "mod.rs"

// Path is a location in the logical module tree. The zero value is the root.
type Path struct {
	segments []string
}

// Root returns the empty path.
func Root() Path { return Path{} }

// New builds a path from segments.
func New(segments ...string) Path {
	if len(segments) == 0 {
		return Path{}
	}
	return Path{segments: append([]string(nil), segments...)}
}

// Parse splits s on "::". The empty string is the root.
func Parse(s string) Path {
	if s == "" {
		return Path{}
	}
	return Path{segments: strings.Split(s, Separator)}
}

// Join returns a new path with segment appended. The receiver is not modified.
func (p Path) Join(segment string) Path {
	segs := make([]string, len(p.segments), len(p.segments)+1)
	copy(segs, p.segments)
	return Path{segments: append(segs, segment)}
}

// Parent drops the last segment. The parent of the root is the root.
func (p Path) Parent() Path {
	if len(p.segments) <= 1 {
		return Path{}
	}
	return New(p.segments[:len(p.segments)-1]...)
}

// Element returns the last segment.
func (p Path) Element() (string, bool) {
	if len(p.segments) == 0 {
		return "", false
	}
	return p.segments[len(p.segments)-1], true
}

func (p Path) IsRoot() bool { return len(p.segments) == 0 }

// Key is the comparable form of the path, used for map keys.
func (p Path) Key() string { return p.String() }

func (p Path) String() string {
	return strings.Join(p.segments, Separator)
}

// Equal reports whether both paths have the same segments.
func (p Path) Equal(o Path) bool {
	if len(p.segments) != len(o.segments) {
		return false
	}
	for i := range p.segments {
		if p.segments[i] != o.segments[i] {
			return false
		}
	}
	return true
}

// FilePath returns the source file holding the declarations of this module.
//
// The root maps to base/entryFile. Any other path is first tried as a
// directory-style module (base/a/b/mod.rs); if that index file does not
// exist the module is file-style and resolves to base/a/b.rs, with a raw
// identifier prefix ("r#") stripped from the last segment. Directory style
// wins when both files exist.
func (p Path) FilePath(base, entryFile string) string {
	if p.IsRoot() {
		return filepath.Join(base, entryFile)
	}

	dir := filepath.Join(append([]string{base}, p.segments...)...)
	index := filepath.Join(dir, IndexFile)
	if _, err := os.Stat(index); err == nil {
		return index
	}

	last, _ := p.Element()
	last = strings.ReplaceAll(last, "r#", "")
	return filepath.Join(filepath.Dir(dir), last+".rs")
}
