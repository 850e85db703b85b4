package resolver

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JakeStanger/rust-bindocs/internal/modpath"
)

// writeTree creates files under a temp dir and returns the dir.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func resolveTree(t *testing.T, files map[string]string) *Resolver {
	t.Helper()
	dir := writeTree(t, files)
	r := New(filepath.Join(dir, "src", "lib.rs"), nil)
	if _, err := r.Resolve(context.Background()); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return r
}

var crate = map[string]string{
	"src/lib.rs": `
mod config;
mod shapes;
pub mod inline {
    pub struct Folded;
}

/// A point.
pub struct Point { x: i32, y: i32 }
`,
	"src/config.rs": `
mod theme;
pub struct Config;
`,
	"src/config/theme.rs": `pub enum Theme { Light, Dark }`,
	"src/shapes/mod.rs": `
mod circle;
pub struct Config;
pub enum Shape { Circle }
`,
	"src/shapes/circle.rs": `pub struct Circle { radius: f64 }`,
}

func TestResolve_RoundTrip(t *testing.T) {
	r := resolveTree(t, crate)

	cat := r.Catalogue()
	if cat.Len() != 5 {
		t.Fatalf("expected 5 modules, got %d", cat.Len())
	}

	for _, p := range cat.Paths() {
		mod, _ := cat.Module(p)
		for _, decl := range mod.Declarations {
			got, ok := r.ResolveAbsolute(p.Join(decl.Name))
			if !ok {
				t.Errorf("expected %s::%s to resolve", p, decl.Name)
				continue
			}
			if got != decl {
				t.Errorf("expected %s::%s to return the same declaration", p, decl.Name)
			}
		}
	}
}

func TestResolve_InlineModulesFoldIntoParent(t *testing.T) {
	r := resolveTree(t, crate)

	if _, ok := r.ResolveAbsolute(modpath.New("Folded")); !ok {
		t.Error("expected inline module declaration under the root key")
	}
	if _, ok := r.Catalogue().Module(modpath.New("inline")); ok {
		t.Error("expected no catalogue key for the inline module")
	}
}

func TestResolve_ExternalModuleInsideInline(t *testing.T) {
	r := resolveTree(t, map[string]string{
		"src/lib.rs": `
pub mod outer {
    pub struct Shell;
    pub mod inner;
}
`,
		"src/outer/inner.rs": `pub struct Core;`,
	})

	if _, ok := r.ResolveAbsolute(modpath.New("Shell")); !ok {
		t.Error("expected inline declaration under the root key")
	}
	if _, ok := r.ResolveAbsolute(modpath.New("outer", "inner", "Core")); !ok {
		t.Error("expected outer::inner::Core to resolve")
	}
	mod, ok := r.Catalogue().Module(modpath.New("outer", "inner"))
	if !ok {
		t.Fatal("expected a catalogue key for outer::inner")
	}
	if want := filepath.Join("src", "outer", "inner.rs"); !strings.HasSuffix(mod.File, want) {
		t.Errorf("expected file ending in %q, got %q", want, mod.File)
	}
	if _, ok := r.Catalogue().Module(modpath.New("inner")); ok {
		t.Error("expected no catalogue key for a bare inner")
	}
}

func TestResolve_Shorthand(t *testing.T) {
	r := resolveTree(t, crate)

	tests := []struct {
		name  string
		found bool
	}{
		{"Point", true},
		{"Theme", true},
		{"Circle", true},
		{"Config", false}, // declared in config and shapes
		{"Missing", false},
	}
	for _, tt := range tests {
		_, ok := r.ResolveShorthand(tt.name)
		if ok != tt.found {
			t.Errorf("ResolveShorthand(%q): expected found=%v, got %v", tt.name, tt.found, ok)
		}
	}
}

func TestLookup_AbsoluteBeforeShorthand(t *testing.T) {
	r := resolveTree(t, crate)

	d, ok := r.Lookup("shapes::Config")
	if !ok {
		t.Fatal("expected absolute lookup to disambiguate Config")
	}
	mod, _ := r.Catalogue().Module(modpath.New("shapes"))
	if found, _ := mod.Find("Config"); found != d {
		t.Error("expected the shapes::Config declaration")
	}

	if _, ok := r.Lookup("config::theme::Theme"); !ok {
		t.Error("expected nested absolute path to resolve")
	}
	if _, ok := r.Lookup("Shape"); !ok {
		t.Error("expected shorthand fallback to resolve")
	}
	if _, ok := r.Lookup("nope::Point"); ok {
		t.Error("expected unknown parent module to miss")
	}
	if _, ok := r.Lookup(""); ok {
		t.Error("expected empty path to miss")
	}
}

func TestResolve_MissingModule(t *testing.T) {
	dir := writeTree(t, map[string]string{"src/main.rs": "mod gone;"})
	r := New(filepath.Join(dir, "src", "main.rs"), nil)

	_, err := r.Resolve(context.Background())
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *NotFoundError, got %v", err)
	}
	if nf.Module != "gone" {
		t.Errorf("expected module %q, got %q", "gone", nf.Module)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("expected error to match fs.ErrNotExist")
	}
	if r.Catalogue() != nil {
		t.Error("expected no partial catalogue")
	}
}

func TestResolve_ParseError(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"src/lib.rs": "mod bad;",
		"src/bad.rs": "pub struct Broken {\n    field\n}",
	})
	r := New(filepath.Join(dir, "src", "lib.rs"), nil)

	_, err := r.Resolve(context.Background())
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Line != 3 {
		t.Errorf("expected line 3, got %d", pe.Line)
	}
	if filepath.Base(pe.File) != "bad.rs" {
		t.Errorf("expected bad.rs, got %s", pe.File)
	}
}

func TestResolve_Cancelled(t *testing.T) {
	dir := writeTree(t, map[string]string{"src/lib.rs": ""})
	r := New(filepath.Join(dir, "src", "lib.rs"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Resolve(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFindEntryFile(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{"src main", map[string]string{"src/main.rs": "", "src/lib.rs": ""}, "src/main.rs"},
		{"src lib", map[string]string{"src/lib.rs": ""}, "src/lib.rs"},
		{"flat lib", map[string]string{"lib.rs": ""}, "lib.rs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeTree(t, tt.files)
			got, err := FindEntryFile(dir)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if want := filepath.Join(dir, filepath.FromSlash(tt.want)); got != want {
				t.Errorf("expected %s, got %s", want, got)
			}
		})
	}

	if _, err := FindEntryFile(t.TempDir()); !errors.Is(err, ErrNoEntryFile) {
		t.Errorf("expected ErrNoEntryFile, got %v", err)
	}
}
