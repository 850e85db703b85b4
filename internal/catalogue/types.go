package catalogue

import "strings"

// TypeInfo describes a field type: a name plus its generic type arguments.
type TypeInfo struct {
	Name     string     `json:"name"`
	Generics []TypeInfo `json:"generics,omitempty"`
}

// String renders the full form, e.g. "HashMap<String, Vec<u8>>".
func (t TypeInfo) String() string {
	if len(t.Generics) == 0 {
		return t.Name
	}
	return t.Name + "<" + joinTypes(t.Generics, false) + ">"
}

// DocString renders the type for documentation. With simplify set, smart
// pointers and cells collapse to their contents, Option<T> becomes "T?",
// str becomes String, and any other generic arguments are dropped.
func (t TypeInfo) DocString(simplify bool) string {
	if !simplify {
		return t.String()
	}
	switch t.Name {
	case "Box", "Arc", "Rc", "Cell", "RefCell", "RwLock", "Mutex":
		return joinTypes(t.Generics, true)
	case "Option":
		return joinTypes(t.Generics, true) + "?"
	case "str":
		return "String"
	default:
		return t.Name
	}
}

func joinTypes(types []TypeInfo, simplify bool) string {
	parts := make([]string, len(types))
	for i, g := range types {
		if simplify {
			parts[i] = g.DocString(true)
		} else {
			parts[i] = g.String()
		}
	}
	return strings.Join(parts, ", ")
}
