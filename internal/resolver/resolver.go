package resolver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/JakeStanger/rust-bindocs/internal/catalogue"
	"github.com/JakeStanger/rust-bindocs/internal/modpath"
	"github.com/JakeStanger/rust-bindocs/internal/source"
)

// ErrNoEntryFile is returned when a project has neither main.rs nor lib.rs.
var ErrNoEntryFile = errors.New("no entry file found")

// NotFoundError reports a declared module whose file does not exist.
type NotFoundError struct {
	Module string
	File   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("module %q: file %s not found", e.Module, e.File)
}

func (e *NotFoundError) Unwrap() error { return fs.ErrNotExist }

// IOError reports a module file that exists but could not be read.
type IOError struct {
	File string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read %s: %v", e.File, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ParseError reports a module file that is not valid item syntax.
type ParseError struct {
	File   string
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
}

// Resolver walks a crate's module tree and answers lookups against the
// resulting catalogue.
type Resolver struct {
	entryFile string // file name, e.g. "lib.rs"
	base      string // directory holding the entry file
	log       *slog.Logger

	cat *catalogue.Catalogue
}

// New creates a resolver for the crate whose entry point is entryFile.
func New(entryFile string, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		entryFile: filepath.Base(entryFile),
		base:      filepath.Dir(entryFile),
		log:       log,
	}
}

// FindEntryFile locates the crate entry point under projectPath, preferring
// src/ and then main.rs over lib.rs.
func FindEntryFile(projectPath string) (string, error) {
	p := joinIfExists(projectPath, "src")
	p = joinIfExists(p, "main.rs")
	p = joinIfExists(p, "lib.rs")

	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w under %s", ErrNoEntryFile, projectPath)
	}
	return p, nil
}

func joinIfExists(dir, name string) string {
	p := filepath.Join(dir, name)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return dir
}

// Resolve traverses the module tree depth-first from the entry file and
// builds the catalogue. Any missing, unreadable or unparsable module file
// aborts the traversal.
func (r *Resolver) Resolve(ctx context.Context) (*catalogue.Catalogue, error) {
	b := catalogue.NewBuilder()
	if err := r.resolveModule(ctx, b, modpath.Root()); err != nil {
		return nil, err
	}
	r.cat = b.Build()
	r.log.Debug("module tree resolved", "modules", r.cat.Len(), "declarations", r.cat.Declarations())
	return r.cat, nil
}

func (r *Resolver) resolveModule(ctx context.Context, b *catalogue.Builder, path modpath.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	file := path.FilePath(r.base, r.entryFile)
	f, err := r.parseFile(path, file)
	if err != nil {
		return err
	}

	name, ok := path.Element()
	if !ok {
		name = strings.TrimSuffix(r.entryFile, filepath.Ext(r.entryFile))
	}
	mod := &catalogue.Module{Name: name, File: file}

	var children []modpath.Path
	collect(f.Items, path, mod, &children)
	b.Add(path, mod)
	r.log.Debug("module parsed", "module", path.String(), "file", file, "declarations", len(mod.Declarations))

	for _, child := range children {
		if b.Has(child) {
			continue
		}
		if err := r.resolveModule(ctx, b, child); err != nil {
			return err
		}
	}
	return nil
}

// collect folds items into mod. Inline module bodies share the enclosing
// record, but external modules declared inside them live under the
// inline module's path. base is the path external children are joined to.
func collect(items []source.Item, base modpath.Path, mod *catalogue.Module, children *[]modpath.Path) {
	for _, item := range items {
		switch {
		case item.Decl != nil:
			mod.Declarations = append(mod.Declarations, item.Decl)
		case item.Module != nil && item.Module.Inline:
			collect(item.Module.Items, base.Join(item.Module.Name), mod, children)
		case item.Module != nil:
			*children = append(*children, base.Join(item.Module.Name))
		}
	}
}

func (r *Resolver) parseFile(path modpath.Path, file string) (*source.File, error) {
	fh, err := os.Open(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Module: path.String(), File: file}
		}
		return nil, &IOError{File: file, Err: err}
	}
	defer fh.Close()

	f, err := source.Parse(fh, file)
	if err != nil {
		var syn *source.SyntaxError
		if errors.As(err, &syn) {
			return nil, &ParseError{File: file, Line: syn.Pos.Line, Column: syn.Pos.Column, Msg: syn.Msg}
		}
		return nil, &IOError{File: file, Err: err}
	}
	return f, nil
}

// Catalogue returns the catalogue built by Resolve, or nil before it ran.
func (r *Resolver) Catalogue() *catalogue.Catalogue {
	return r.cat
}

// ResolveAbsolute finds the declaration named by the last segment of path
// in the module named by the rest of it.
func (r *Resolver) ResolveAbsolute(path modpath.Path) (*catalogue.Declaration, bool) {
	element, ok := path.Element()
	if !ok {
		return nil, false
	}
	mod, ok := r.cat.Module(path.Parent())
	if !ok {
		return nil, false
	}
	return mod.Find(element)
}

// ResolveShorthand finds a declaration by bare name. It only succeeds when
// exactly one module declares the name.
func (r *Resolver) ResolveShorthand(name string) (*catalogue.Declaration, bool) {
	var found *catalogue.Declaration
	matches := 0
	for _, p := range r.cat.Paths() {
		if d, ok := r.ResolveAbsolute(p.Join(name)); ok {
			found = d
			matches++
		}
	}
	if matches != 1 {
		return nil, false
	}
	return found, true
}

// Lookup resolves directive text as an absolute path first, then as a
// shorthand name.
func (r *Resolver) Lookup(text string) (*catalogue.Declaration, bool) {
	if d, ok := r.ResolveAbsolute(modpath.Parse(text)); ok {
		return d, true
	}
	return r.ResolveShorthand(text)
}
