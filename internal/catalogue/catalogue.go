package catalogue

import (
	"sort"

	"github.com/JakeStanger/rust-bindocs/internal/modpath"
)

// Kind tags the payload of a Declaration.
type Kind int

const (
	KindStruct Kind = iota
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	}
	return "unknown"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Declaration is a documentable struct or enum.
type Declaration struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Kind        Kind      `json:"kind"`
	Fields      []Field   `json:"fields,omitempty"`   // KindStruct
	Variants    []Variant `json:"variants,omitempty"` // KindEnum
}

// Field is a named, typed member of a struct or variant.
type Field struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        TypeInfo `json:"type"`
}

// Variant is one case of an enum. Unit variants have no fields.
type Variant struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Fields      []Field `json:"fields,omitempty"`
}

// Module is the set of declarations found directly in one source file.
type Module struct {
	Name         string         // Last path segment, or the entry file stem for the root
	File         string         // Source file the declarations were read from
	Declarations []*Declaration // In source order
}

// Find returns the declaration called name, if any.
func (m *Module) Find(name string) (*Declaration, bool) {
	for _, d := range m.Declarations {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// Catalogue maps module paths to their records. It has no mutating methods
// and may be shared between goroutines once built.
type Catalogue struct {
	modules map[string]*Module
	paths   []modpath.Path
}

// Module returns the record for path.
func (c *Catalogue) Module(path modpath.Path) (*Module, bool) {
	if c == nil {
		return nil, false
	}
	m, ok := c.modules[path.Key()]
	return m, ok
}

// Paths returns every module path, sorted by their textual form.
func (c *Catalogue) Paths() []modpath.Path {
	if c == nil {
		return nil
	}
	return append([]modpath.Path(nil), c.paths...)
}

// Len returns the number of modules.
func (c *Catalogue) Len() int {
	if c == nil {
		return 0
	}
	return len(c.paths)
}

// Declarations returns the total number of declarations across modules.
func (c *Catalogue) Declarations() int {
	n := 0
	if c == nil {
		return n
	}
	for _, m := range c.modules {
		n += len(m.Declarations)
	}
	return n
}

// Builder accumulates modules during a traversal.
type Builder struct {
	modules map[string]*Module
	paths   []modpath.Path
}

func NewBuilder() *Builder {
	return &Builder{modules: make(map[string]*Module)}
}

// Has reports whether path was already added.
func (b *Builder) Has(path modpath.Path) bool {
	_, ok := b.modules[path.Key()]
	return ok
}

// Add stores the record for path. A path is stored at most once; later
// calls for the same path are ignored and report false.
func (b *Builder) Add(path modpath.Path, m *Module) bool {
	if b.Has(path) {
		return false
	}
	b.modules[path.Key()] = m
	b.paths = append(b.paths, path)
	return true
}

// Build freezes the builder into a Catalogue. The builder must not be used afterwards.
func (b *Builder) Build() *Catalogue {
	paths := append([]modpath.Path(nil), b.paths...)
	sort.Slice(paths, func(i, j int) bool { return paths[i].Key() < paths[j].Key() })
	c := &Catalogue{modules: b.modules, paths: paths}
	b.modules = nil
	b.paths = nil
	return c
}
